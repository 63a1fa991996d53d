package repositories

import (
	"context"

	"github.com/SscSPs/construction_ledger/internal/core/domain"
)

// ExpenseWriter defines write operations for project expenses
type ExpenseWriter interface {
	SaveExpense(ctx context.Context, expense domain.ProjectExpense) error
	SaveExpensePayment(ctx context.Context, payment domain.ExpensePayment) error
}

// MapsDistributionWriter defines write operations for maps distributions
type MapsDistributionWriter interface {
	SaveMapsDistribution(ctx context.Context, header domain.MapsDistribution) error
	SaveMapsItems(ctx context.Context, items []domain.MapsDistributionItem) error
	SaveMapsDetails(ctx context.Context, details []domain.MapsDistributionDetail) error
}
