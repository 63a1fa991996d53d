package repositories

import (
	"context"
	"time"

	"github.com/SscSPs/construction_ledger/internal/core/domain"
)

// DistributionRunRepository is the idempotency journal for distribution runs.
type DistributionRunRepository interface {
	// FindRunByKey returns the run recorded under an idempotency key, or apperrors.ErrNotFound.
	FindRunByKey(ctx context.Context, idempotencyKey string) (*domain.DistributionRun, error)

	// BeginRun inserts run in STARTED state. When the idempotency key already
	// exists the stored run is returned with created=false and nothing is written.
	BeginRun(ctx context.Context, run domain.DistributionRun) (stored *domain.DistributionRun, created bool, err error)

	// FinishRun records the outcome of a run.
	FinishRun(ctx context.Context, runID string, outcome domain.RunOutcome, now time.Time) error

	// ListRunsNeedingReconciliation returns PARTIAL runs, FAILED runs that wrote
	// something, and runs still STARTED before startedBefore, skipping runs
	// already flagged.
	ListRunsNeedingReconciliation(ctx context.Context, startedBefore time.Time, limit int) ([]domain.DistributionRun, error)

	// MarkReconciliationRequested stamps a run as flagged for manual reconciliation.
	MarkReconciliationRequested(ctx context.Context, runID string, now time.Time) error
}
