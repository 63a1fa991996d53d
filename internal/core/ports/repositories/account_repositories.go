package repositories

import (
	"context"
	"time"

	"github.com/SscSPs/construction_ledger/internal/core/domain"
)

// AccountReader defines read operations for account data
type AccountReader interface {
	// FindEmployeeAccounts returns the accounts that exist for employeeIDs in currency, keyed by employee id.
	FindEmployeeAccounts(ctx context.Context, employeeIDs []string, currency string) (map[string]domain.Account, error)

	// FindCompanyAccount retrieves the company account of a kind in currency.
	FindCompanyAccount(ctx context.Context, kind domain.CompanyAccountKind, currency string) (*domain.Account, error)
}

// AccountWriter defines write operations for account data
type AccountWriter interface {
	// ApplyAccountDelta increments an account's counters in a single statement.
	ApplyAccountDelta(ctx context.Context, accountID string, delta domain.AccountDelta, userID string, now time.Time) error
}

// AccountRepositoryFacade combines all account-related repository interfaces
type AccountRepositoryFacade interface {
	AccountReader
	AccountWriter
}
