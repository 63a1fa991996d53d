package pgsql

import (
	"errors"
	"testing"

	"github.com/SscSPs/construction_ledger/internal/apperrors"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
)

func TestWrapWriteErr(t *testing.T) {
	dup := &pgconn.PgError{Code: "23505", Message: "duplicate key value"}
	err := wrapWriteErr(dup, "period p1")
	assert.ErrorIs(t, err, apperrors.ErrDuplicate)
	assert.ErrorContains(t, err, "period p1")

	other := errors.New("connection reset")
	err = wrapWriteErr(other, "period p1")
	assert.NotErrorIs(t, err, apperrors.ErrDuplicate)
	assert.ErrorIs(t, err, other)
}
