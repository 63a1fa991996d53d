package domain

import (
	"github.com/shopspring/decimal"
)

type ProjectStatus string

const (
	ProjectActive    ProjectStatus = "active"
	ProjectCompleted ProjectStatus = "completed"
	ProjectOnHold    ProjectStatus = "on_hold"
)

// Project is the construction project a distribution draws on.
type Project struct {
	ProjectID    string        `json:"projectID"`
	Name         string        `json:"name"`
	Code         string        `json:"code"`
	SerialNumber int           `json:"serialNumber"`
	Status       ProjectStatus `json:"status"`
	// Currency is the project's default currency, used when a request omits one.
	Currency string `json:"currency"`
	// Balances holds the project balance per currency code.
	Balances       map[string]decimal.Decimal `json:"balances"`
	ExpenseCounter int                        `json:"expenseCounter"`
	MapCounter     int                        `json:"mapCounter"`
	AuditFields
}

// BalanceFor returns the balance in currency, zero when the project never held any.
func (p Project) BalanceFor(currency string) decimal.Decimal {
	if p.Balances == nil {
		return decimal.Zero
	}
	return p.Balances[currency]
}
