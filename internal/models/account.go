package models

import (
	"database/sql"

	"github.com/shopspring/decimal"
)

// Account is a row of the accounts table. EmployeeID is set for employee
// accounts, Kind for company accounts.
type Account struct {
	AccountID   string          `db:"account_id"`
	Owner       string          `db:"owner"`
	EmployeeID  sql.NullString  `db:"employee_id"`
	Kind        sql.NullString  `db:"kind"`
	Currency    string          `db:"currency"`
	BankBalance decimal.Decimal `db:"bank_balance"`
	CashBalance decimal.Decimal `db:"cash_balance"`
	BankHeld    decimal.Decimal `db:"bank_held"`
	CashHeld    decimal.Decimal `db:"cash_held"`
	AuditFields
}
