package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// FundType is the money channel a pool, period or payment belongs to.
type FundType string

const (
	FundBank FundType = "bank"
	FundCash FundType = "cash"
)

// Valid reports whether f is one of the known fund types.
func (f FundType) Valid() bool {
	return f == FundBank || f == FundCash
}

// PercentageLog is a revenue event queued for percentage distribution.
// Once Distributed is true the log is never selected or mutated again.
type PercentageLog struct {
	LogID           string          `json:"logID"`
	ProjectID       string          `json:"projectID"`
	Currency        string          `json:"currency"`
	Amount          decimal.Decimal `json:"amount"`
	Percentage      decimal.Decimal `json:"percentage"`
	Distributed     bool            `json:"distributed"`
	PeriodID        string          `json:"periodID,omitempty"`
	SourceExpenseID string          `json:"sourceExpenseID,omitempty"`
	SourcePaymentID string          `json:"sourcePaymentID,omitempty"`
	CreatedAt       time.Time       `json:"createdAt"`
	CreatedBy       string          `json:"createdBy"`
	DistributedAt   *time.Time      `json:"distributedAt,omitempty"`
}

// PercentagePool is the undistributed balance for one project, currency and fund type.
type PercentagePool struct {
	PoolID        string          `json:"poolID"`
	ProjectID     string          `json:"projectID"`
	Currency      string          `json:"currency"`
	Type          FundType        `json:"type"`
	Balance       decimal.Decimal `json:"balance"`
	LastUpdatedAt time.Time       `json:"lastUpdatedAt"`
}

// PoolAmounts is a cash/bank pair of amounts.
type PoolAmounts struct {
	Cash decimal.Decimal `json:"cash"`
	Bank decimal.Decimal `json:"bank"`
}

// Total returns Cash + Bank.
func (p PoolAmounts) Total() decimal.Decimal {
	return p.Cash.Add(p.Bank)
}

// Leg returns the amount for the given fund type.
func (p PoolAmounts) Leg(f FundType) decimal.Decimal {
	if f == FundBank {
		return p.Bank
	}
	return p.Cash
}

// PoolAmountsFrom folds pool rows into a cash/bank pair. Missing rows count as zero.
func PoolAmountsFrom(pools []PercentagePool) PoolAmounts {
	amounts := PoolAmounts{Cash: decimal.Zero, Bank: decimal.Zero}
	for _, p := range pools {
		switch p.Type {
		case FundCash:
			amounts.Cash = amounts.Cash.Add(p.Balance)
		case FundBank:
			amounts.Bank = amounts.Bank.Add(p.Balance)
		}
	}
	return amounts
}
