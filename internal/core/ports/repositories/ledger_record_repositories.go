package repositories

import (
	"context"

	"github.com/SscSPs/construction_ledger/internal/core/domain"
)

// LedgerRecordWriter persists the append-only evidence rows of a distribution.
type LedgerRecordWriter interface {
	SaveHeldRecords(ctx context.Context, records []domain.HeldRecord) error
	SaveEmployeeDiscounts(ctx context.Context, records []domain.DiscountRecord) error
	SaveCompanyDiscount(ctx context.Context, record domain.DiscountRecord) error
	SavePayrollEntries(ctx context.Context, entries []domain.PayrollEntry) error
}
