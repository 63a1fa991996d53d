package models

import (
	"database/sql"
	"time"

	"github.com/shopspring/decimal"
)

// PercentageLog is a row of percentage_logs.
type PercentageLog struct {
	LogID           string          `db:"log_id"`
	ProjectID       string          `db:"project_id"`
	Currency        string          `db:"currency"`
	Amount          decimal.Decimal `db:"amount"`
	Percentage      decimal.Decimal `db:"percentage"`
	Distributed     bool            `db:"distributed"`
	PeriodID        sql.NullString  `db:"period_id"`
	SourceExpenseID sql.NullString  `db:"source_expense_id"`
	SourcePaymentID sql.NullString  `db:"source_payment_id"`
	CreatedAt       time.Time       `db:"created_at"`
	CreatedBy       string          `db:"created_by"`
	DistributedAt   sql.NullTime    `db:"distributed_at"`
}

// PercentagePool is a row of project_percentage.
type PercentagePool struct {
	PoolID        string          `db:"pool_id"`
	ProjectID     string          `db:"project_id"`
	Currency      string          `db:"currency"`
	FundType      string          `db:"fund_type"`
	Balance       decimal.Decimal `db:"balance"`
	LastUpdatedAt time.Time       `db:"last_updated_at"`
}
