package models

import (
	"database/sql"
	"time"

	"github.com/shopspring/decimal"
)

// DistributionPeriod is a row of distribution_periods.
type DistributionPeriod struct {
	PeriodID    string          `db:"period_id"`
	ProjectID   string          `db:"project_id"`
	RunID       string          `db:"run_id"`
	Currency    string          `db:"currency"`
	FundType    string          `db:"fund_type"`
	DateFrom    time.Time       `db:"date_from"`
	DateTo      time.Time       `db:"date_to"`
	TotalAmount decimal.Decimal `db:"total_amount"`
	Note        string          `db:"note"`
	CreatedAt   time.Time       `db:"created_at"`
	CreatedBy   string          `db:"created_by"`
}

// PeriodLineItem is a row of period_line_items. Position keeps the company row first.
type PeriodLineItem struct {
	LineItemID  string          `db:"line_item_id"`
	PeriodID    string          `db:"period_id"`
	Position    int             `db:"position"`
	Participant string          `db:"participant"`
	EmployeeID  sql.NullString  `db:"employee_id"`
	BankAmount  decimal.Decimal `db:"bank_amount"`
	CashAmount  decimal.Decimal `db:"cash_amount"`
	BankHeld    decimal.Decimal `db:"bank_held"`
	CashHeld    decimal.Decimal `db:"cash_held"`
	Discount    decimal.Decimal `db:"discount"`
	Total       decimal.Decimal `db:"total"`
	Percentage  decimal.Decimal `db:"percentage"`
	Note        string          `db:"note"`
	CreatedAt   time.Time       `db:"created_at"`
}
