package services

import (
	"context"
	"errors"
	"testing"

	"github.com/SscSPs/construction_ledger/internal/apperrors"
	"github.com/SscSPs/construction_ledger/internal/core/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStepTracker_StopsOnCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	tracker := newStepTracker(ctx)

	require.NoError(t, tracker.do(domain.StepCreatePeriods, func(context.Context) error { return nil }))
	cancel()

	ran := false
	err := tracker.do(domain.StepInsertLineItems, func(context.Context) error {
		ran = true
		return nil
	})
	assert.False(t, ran, "no step starts after cancellation")
	assert.ErrorIs(t, err, context.Canceled)
	assert.ErrorIs(t, err, apperrors.ErrStepWrite)
	assert.Equal(t, []domain.CommitStep{domain.StepCreatePeriods}, tracker.completed)
	assert.Equal(t, domain.StepCreatePeriods, tracker.last())
}

func TestStepTracker_RecoversPanic(t *testing.T) {
	tracker := newStepTracker(context.Background())

	err := tracker.do(domain.StepCreatePeriods, func(context.Context) error {
		panic("nil map write")
	})
	var stepErr *apperrors.StepError
	require.ErrorAs(t, err, &stepErr)
	assert.Equal(t, string(domain.StepCreatePeriods), stepErr.Step)
	assert.Contains(t, stepErr.Error(), "nil map write")
	assert.Empty(t, tracker.completed)
}

func TestStepTracker_PartialStep(t *testing.T) {
	tracker := newStepTracker(context.Background())
	tracker.partial[domain.StepMarkLogsDistributed] = "reconcile by hand"

	err := tracker.do(domain.StepMarkLogsDistributed, func(context.Context) error {
		return errors.New("lost connection")
	})
	assert.ErrorIs(t, err, apperrors.ErrPartialSuccess)
	var stepErr *apperrors.StepError
	require.ErrorAs(t, err, &stepErr)
	assert.Equal(t, apperrors.SeverityPartial, stepErr.Severity)
	assert.Equal(t, "reconcile by hand", stepErr.Message)
}

func TestRefuseAttempted(t *testing.T) {
	err := refuseAttempted(&domain.DistributionRun{RunID: "r1", Status: domain.RunFailed, FailedStep: domain.StepReducePools})
	assert.ErrorIs(t, err, apperrors.ErrRunAlreadyAttempted)
	assert.ErrorContains(t, err, "run r1 is FAILED, failed at reduce_pools")
}
