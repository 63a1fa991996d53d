package repositories

import (
	"context"
	"time"

	"github.com/SscSPs/construction_ledger/internal/core/domain"
	"github.com/shopspring/decimal"
)

// ProjectReader defines read operations for project data
type ProjectReader interface {
	// FindProjectByID retrieves a project with its per-currency balances.
	FindProjectByID(ctx context.Context, projectID string) (*domain.Project, error)
}

// ProjectWriter defines write operations for project data
type ProjectWriter interface {
	// AdjustProjectBalance adds delta (may be negative) to the project's balance in currency.
	AdjustProjectBalance(ctx context.Context, projectID, currency string, delta decimal.Decimal, userID string, now time.Time) error

	// IncrementProjectCounters bumps the expense and map counters.
	IncrementProjectCounters(ctx context.Context, projectID string, expenseDelta, mapDelta int, userID string, now time.Time) error
}

// ProjectRepositoryFacade combines all project-related repository interfaces
type ProjectRepositoryFacade interface {
	ProjectReader
	ProjectWriter
}
