package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// DistributionPeriod records one distribution run for a single fund type. Append-only.
type DistributionPeriod struct {
	PeriodID    string          `json:"periodID"`
	ProjectID   string          `json:"projectID"`
	RunID       string          `json:"runID"`
	Currency    string          `json:"currency"`
	Type        FundType        `json:"type"`
	DateFrom    time.Time       `json:"dateFrom"`
	DateTo      time.Time       `json:"dateTo"`
	TotalAmount decimal.Decimal `json:"totalAmount"`
	Note        string          `json:"note,omitempty"`
	CreatedAt   time.Time       `json:"createdAt"`
	CreatedBy   string          `json:"createdBy"`
}

// PeriodLineItem is one participant's row within a period. Append-only.
type PeriodLineItem struct {
	LineItemID  string          `json:"lineItemID"`
	PeriodID    string          `json:"periodID"`
	Participant ParticipantType `json:"participant"`
	EmployeeID  string          `json:"employeeID,omitempty"`
	BankAmount  decimal.Decimal `json:"bankAmount"`
	CashAmount  decimal.Decimal `json:"cashAmount"`
	BankHeld    decimal.Decimal `json:"bankHeld"`
	CashHeld    decimal.Decimal `json:"cashHeld"`
	Discount    decimal.Decimal `json:"discount"`
	Total       decimal.Decimal `json:"total"`
	Percentage  decimal.Decimal `json:"percentage"`
	Note        string          `json:"note,omitempty"`
	CreatedAt   time.Time       `json:"createdAt"`
}

// PeriodCursor positions a descending (created_at, period_id) listing.
type PeriodCursor struct {
	CreatedAt time.Time
	PeriodID  string
}
