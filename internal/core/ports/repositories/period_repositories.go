package repositories

import (
	"context"

	"github.com/SscSPs/construction_ledger/internal/core/domain"
)

// PeriodReader defines read operations for distribution periods
type PeriodReader interface {
	// FindPeriodByID retrieves a single period.
	FindPeriodByID(ctx context.Context, periodID string) (*domain.DistributionPeriod, error)

	// ListPeriods lists a project's periods newest first, strictly after the cursor when given.
	ListPeriods(ctx context.Context, projectID string, limit int, after *domain.PeriodCursor) ([]domain.DistributionPeriod, error)

	// ListLineItems returns every line item of a period, company first.
	ListLineItems(ctx context.Context, periodID string) ([]domain.PeriodLineItem, error)
}

// PeriodWriter defines write operations for distribution periods
type PeriodWriter interface {
	SavePeriod(ctx context.Context, period domain.DistributionPeriod) error

	// SaveLineItems inserts a period's line items as one batch.
	SaveLineItems(ctx context.Context, items []domain.PeriodLineItem) error
}

// PeriodRepositoryFacade combines all period repository interfaces
type PeriodRepositoryFacade interface {
	PeriodReader
	PeriodWriter
}
