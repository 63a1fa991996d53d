package services

import (
	"context"

	"github.com/SscSPs/construction_ledger/internal/core/domain"
)

// SelectionSvc validates log selections against the ledger
type SelectionSvc interface {
	// SelectLogs re-reads logIDs and pools and returns the proportional cash/bank split. No writes.
	SelectLogs(ctx context.Context, projectID, currency string, logIDs []string) (*domain.Selection, error)

	// ListUndistributedLogs lists the project's open logs in currency.
	ListUndistributedLogs(ctx context.Context, projectID, currency string) ([]domain.PercentageLog, error)
}

// CalculatorSvc computes participant shares of a pool
type CalculatorSvc interface {
	// ComputeShares is a pure projection; it fails when percentages do not sum to exactly 100.
	ComputeShares(ctx context.Context, pool domain.PoolAmounts, participants []domain.ShareInput, company domain.ShareInput) (*domain.ShareSet, error)
}

// CommitterSvc executes a percentage distribution against the ledger
type CommitterSvc interface {
	Commit(ctx context.Context, projectID string, selection domain.Selection, shares domain.ShareSet, actor domain.Actor, opts domain.CommitOptions) (*domain.DistributionResult, error)
	// ReplayRun returns the stored result of a successful run journaled under
	// idempotencyKey, or nil when the key is unknown. Keys whose run did not
	// succeed are refused with ErrRunAlreadyAttempted.
	ReplayRun(ctx context.Context, projectID, idempotencyKey string) (*domain.DistributionResult, error)
}

// DistributionSvcFacade combines the percentage distribution services
type DistributionSvcFacade interface {
	SelectionSvc
	CalculatorSvc
	CommitterSvc
}

// MapsDistributionSvc executes a one-shot maps distribution
type MapsDistributionSvc interface {
	// CommitMaps pays every map item out through a single method. currency may be
	// empty to use the project's default currency.
	CommitMaps(ctx context.Context, projectID, currency string, items []domain.MapItemInput, method domain.FundType, actor domain.Actor, opts domain.CommitOptions) (*domain.MapsResult, error)
}

// PeriodPage is one page of a project's period history.
type PeriodPage struct {
	Periods   []domain.DistributionPeriod
	NextToken string
}

// PeriodSvc reads distribution history
type PeriodSvc interface {
	ListPeriods(ctx context.Context, projectID string, limit int, nextToken string) (*PeriodPage, error)
	GetPeriod(ctx context.Context, projectID, periodID string) (*domain.DistributionPeriod, []domain.PeriodLineItem, error)
}

// ProjectLocker serializes distribution runs per project.
type ProjectLocker interface {
	// Lock blocks until the project is free or ctx ends. The returned func releases the lock.
	Lock(ctx context.Context, projectID string) (unlock func(), err error)
}

// EventPublisher emits distribution lifecycle events.
type EventPublisher interface {
	Publish(ctx context.Context, event domain.DistributionEvent) error
}
