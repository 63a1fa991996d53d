package domain

import (
	"github.com/shopspring/decimal"
)

// AccountOwner tells employee accounts apart from company accounts.
type AccountOwner string

const (
	OwnerEmployee AccountOwner = "employee"
	OwnerCompany  AccountOwner = "company"
)

// CompanyAccountKind names the company's per-currency accounts.
type CompanyAccountKind string

const (
	CompanyMain     CompanyAccountKind = "main"
	CompanyDiscount CompanyAccountKind = "discount"
	CompanyHeld     CompanyAccountKind = "held"
)

// Account holds running balances for an employee or a company account.
// The distribution engine only ever increases these figures.
type Account struct {
	AccountID   string             `json:"accountID"`
	Owner       AccountOwner       `json:"owner"`
	EmployeeID  string             `json:"employeeID,omitempty"`
	Kind        CompanyAccountKind `json:"kind,omitempty"`
	Currency    string             `json:"currency"`
	BankBalance decimal.Decimal    `json:"bankBalance"`
	CashBalance decimal.Decimal    `json:"cashBalance"`
	BankHeld    decimal.Decimal    `json:"bankHeld"`
	CashHeld    decimal.Decimal    `json:"cashHeld"`
	AuditFields
}

// AccountDelta is an increment applied to an account's four counters.
type AccountDelta struct {
	BankBalance decimal.Decimal
	CashBalance decimal.Decimal
	BankHeld    decimal.Decimal
	CashHeld    decimal.Decimal
}

// IsZero reports whether applying the delta would change nothing.
func (d AccountDelta) IsZero() bool {
	return d.BankBalance.IsZero() && d.CashBalance.IsZero() && d.BankHeld.IsZero() && d.CashHeld.IsZero()
}

// Apply returns a copy of a with d added.
func (a Account) Apply(d AccountDelta) Account {
	a.BankBalance = a.BankBalance.Add(d.BankBalance)
	a.CashBalance = a.CashBalance.Add(d.CashBalance)
	a.BankHeld = a.BankHeld.Add(d.BankHeld)
	a.CashHeld = a.CashHeld.Add(d.CashHeld)
	return a
}
