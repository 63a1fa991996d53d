package models

import (
	"github.com/shopspring/decimal"
)

// Project is a row of the projects table.
type Project struct {
	ProjectID      string `db:"project_id"`
	Name           string `db:"name"`
	Code           string `db:"code"`
	SerialNumber   int    `db:"serial_number"`
	Status         string `db:"status"`
	Currency       string `db:"currency"`
	ExpenseCounter int    `db:"expense_counter"`
	MapCounter     int    `db:"map_counter"`
	AuditFields
}

// ProjectBalance is a row of project_balances.
type ProjectBalance struct {
	ProjectID string          `db:"project_id"`
	Currency  string          `db:"currency"`
	Balance   decimal.Decimal `db:"balance"`
}
