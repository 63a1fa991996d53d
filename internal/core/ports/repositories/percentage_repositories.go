package repositories

import (
	"context"
	"time"

	"github.com/SscSPs/construction_ledger/internal/core/domain"
	"github.com/shopspring/decimal"
)

// PercentageLogReader defines read operations for percentage logs
type PercentageLogReader interface {
	// FindPercentageLogsByIDs returns the logs that exist among ids, keyed by id.
	FindPercentageLogsByIDs(ctx context.Context, logIDs []string) (map[string]domain.PercentageLog, error)

	// ListUndistributedLogs returns the project's logs in currency that are still open, oldest first.
	ListUndistributedLogs(ctx context.Context, projectID, currency string) ([]domain.PercentageLog, error)
}

// PercentageLogWriter defines write operations for percentage logs
type PercentageLogWriter interface {
	// MarkLogsDistributed flips distributed=true for the given ids scoped to projectID,
	// skipping rows already distributed. It returns the number of rows changed.
	MarkLogsDistributed(ctx context.Context, projectID string, logIDs []string, periodID string, now time.Time) (int64, error)
}

// PercentageLogRepositoryFacade combines all percentage log repository interfaces
type PercentageLogRepositoryFacade interface {
	PercentageLogReader
	PercentageLogWriter
}

// PercentagePoolReader defines read operations for percentage pools
type PercentagePoolReader interface {
	// FindPools returns the cash and bank pool rows of a project in currency. Missing rows are omitted.
	FindPools(ctx context.Context, projectID, currency string) ([]domain.PercentagePool, error)
}

// PercentagePoolWriter defines write operations for percentage pools
type PercentagePoolWriter interface {
	// ReducePoolBalance subtracts amount from a pool, flooring at zero, and returns the new balance.
	ReducePoolBalance(ctx context.Context, projectID, currency string, fund domain.FundType, amount decimal.Decimal, now time.Time) (decimal.Decimal, error)
}

// PercentagePoolRepositoryFacade combines all pool repository interfaces
type PercentagePoolRepositoryFacade interface {
	PercentagePoolReader
	PercentagePoolWriter
}
