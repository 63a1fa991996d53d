package pgsql

import (
	"context"
	"fmt"

	portsrepo "github.com/SscSPs/construction_ledger/internal/core/ports/repositories"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PgxLedgerStore bundles the per-table repositories behind one LedgerStore.
type PgxLedgerStore struct {
	BaseRepository
	*PgxProjectRepository
	*PgxPercentageLogRepository
	*PgxPercentagePoolRepository
	*PgxPeriodRepository
	*PgxAccountRepository
	*PgxLedgerRecordRepository
	*PgxMapsRepository
}

var _ portsrepo.TxLedgerStore = (*PgxLedgerStore)(nil)

func newLedgerStore(db querier) *PgxLedgerStore {
	return &PgxLedgerStore{
		PgxProjectRepository:        newPgxProjectRepository(db),
		PgxPercentageLogRepository:  newPgxPercentageLogRepository(db),
		PgxPercentagePoolRepository: newPgxPercentagePoolRepository(db),
		PgxPeriodRepository:         newPgxPeriodRepository(db),
		PgxAccountRepository:        newPgxAccountRepository(db),
		PgxLedgerRecordRepository:   newPgxLedgerRecordRepository(db),
		PgxMapsRepository:           newPgxMapsRepository(db),
	}
}

// NewPgxLedgerStore creates a LedgerStore backed by pool.
func NewPgxLedgerStore(pool *pgxpool.Pool) *PgxLedgerStore {
	store := newLedgerStore(pool)
	store.Pool = pool
	return store
}

// WithinTx runs fn against a store bound to a single transaction. The
// transaction commits when fn returns nil and rolls back otherwise.
func (s *PgxLedgerStore) WithinTx(ctx context.Context, fn func(store portsrepo.LedgerStore) error) (err error) {
	tx, err := s.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if p := recover(); p != nil {
			_ = s.Rollback(ctx, tx)
			panic(p)
		}
		if err != nil {
			if rbErr := s.Rollback(ctx, tx); rbErr != nil {
				err = fmt.Errorf("%w (rollback: %v)", err, rbErr)
			}
		}
	}()

	if err = fn(newLedgerStore(tx)); err != nil {
		return err
	}
	return s.Commit(ctx, tx)
}
