package jobs

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/SscSPs/construction_ledger/internal/core/domain"
	"github.com/SscSPs/construction_ledger/internal/repositories/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockPublisher struct {
	mock.Mock
}

func (m *mockPublisher) Publish(ctx context.Context, event domain.DistributionEvent) error {
	return m.Called(ctx, event).Error(0)
}

func beginRun(t *testing.T, store *memory.Store, id string, started time.Time) {
	t.Helper()
	_, created, err := store.BeginRun(context.Background(), domain.DistributionRun{
		RunID: id, IdempotencyKey: "key-" + id, ProjectID: "p1", Kind: domain.RunPercentage,
		Status: domain.RunStarted, StartedAt: started, CreatedBy: "user-1",
	})
	require.NoError(t, err)
	require.True(t, created)
}

func TestReconciliationSweeper_FlagsStaleAndPartialRuns(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 7, 1, 12, 0, 0, 0, time.UTC)
	store := memory.NewStore()

	beginRun(t, store, "stale", now.Add(-time.Hour))
	beginRun(t, store, "fresh", now.Add(-time.Minute))
	beginRun(t, store, "partial", now.Add(-2*time.Minute))
	require.NoError(t, store.FinishRun(ctx, "partial", domain.RunOutcome{
		Status: domain.RunPartial, LastStep: domain.StepInsertLineItems, FailedStep: domain.StepMarkLogsDistributed,
	}, now))
	beginRun(t, store, "clean-failure", now.Add(-3*time.Hour))
	require.NoError(t, store.FinishRun(ctx, "clean-failure", domain.RunOutcome{
		Status: domain.RunFailed, FailedStep: domain.StepCreatePeriods,
	}, now))

	publisher := new(mockPublisher)
	publisher.On("Publish", mock.Anything, mock.MatchedBy(func(e domain.DistributionEvent) bool {
		return e.Type == domain.EventReconciliationRequired
	})).Return(nil).Twice()

	sweeper := NewReconciliationSweeper(store, publisher, 15*time.Minute, nil)
	sweeper.now = func() time.Time { return now }

	flagged, err := sweeper.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, flagged)

	stale, _ := store.Run("stale")
	assert.NotNil(t, stale.ReconciliationRequested)
	partial, _ := store.Run("partial")
	assert.NotNil(t, partial.ReconciliationRequested)
	fresh, _ := store.Run("fresh")
	assert.Nil(t, fresh.ReconciliationRequested)
	clean, _ := store.Run("clean-failure")
	assert.Nil(t, clean.ReconciliationRequested)

	again, err := sweeper.Sweep(ctx)
	require.NoError(t, err)
	assert.Zero(t, again, "flagged runs are not announced twice")
	publisher.AssertExpectations(t)
}

func TestReconciliationSweeper_PublishFailureLeavesRunUnflagged(t *testing.T) {
	ctx := context.Background()
	now := time.Now().UTC()
	store := memory.NewStore()
	beginRun(t, store, "stale", now.Add(-time.Hour))

	publisher := new(mockPublisher)
	publisher.On("Publish", mock.Anything, mock.Anything).Return(errors.New("broker down")).Once()

	sweeper := NewReconciliationSweeper(store, publisher, time.Minute, nil)
	flagged, err := sweeper.Sweep(ctx)
	require.NoError(t, err)
	assert.Zero(t, flagged)

	run, _ := store.Run("stale")
	assert.Nil(t, run.ReconciliationRequested)
}

func TestReconciliationSweeper_Schedule(t *testing.T) {
	sweeper := NewReconciliationSweeper(memory.NewStore(), new(mockPublisher), time.Minute, nil)
	c := NewScheduler()

	_, err := sweeper.Schedule(c, "0 */5 * * * *")
	assert.NoError(t, err)
	assert.Len(t, c.Entries(), 1)

	_, err = sweeper.Schedule(c, "not a spec")
	assert.Error(t, err)
}
