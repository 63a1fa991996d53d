package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// HeldRecord is evidence of money withheld from an employee in a period.
type HeldRecord struct {
	HeldID     string          `json:"heldID"`
	EmployeeID string          `json:"employeeID"`
	ProjectID  string          `json:"projectID"`
	PeriodID   string          `json:"periodID"`
	Currency   string          `json:"currency"`
	Type       FundType        `json:"type"`
	Amount     decimal.Decimal `json:"amount"`
	Note       string          `json:"note,omitempty"`
	CreatedAt  time.Time       `json:"createdAt"`
	CreatedBy  string          `json:"createdBy"`
}

// DiscountRecord is evidence of a discount applied in a period.
// EmployeeID is empty for company discounts.
type DiscountRecord struct {
	DiscountID string          `json:"discountID"`
	EmployeeID string          `json:"employeeID,omitempty"`
	ProjectID  string          `json:"projectID"`
	PeriodID   string          `json:"periodID"`
	Currency   string          `json:"currency"`
	Amount     decimal.Decimal `json:"amount"`
	Note       string          `json:"note,omitempty"`
	CreatedAt  time.Time       `json:"createdAt"`
	CreatedBy  string          `json:"createdBy"`
}

type PayrollStatus string

const (
	PayrollPending PayrollStatus = "pending"
	PayrollPaid    PayrollStatus = "paid"
)

// PayrollSource names the workflow that produced a payroll entry.
type PayrollSource string

const (
	PayrollFromPercentage PayrollSource = "percentage"
	PayrollFromMaps       PayrollSource = "maps"
)

// PayrollEntry is a payable line for one employee and one payment method.
type PayrollEntry struct {
	PayrollID        string          `json:"payrollID"`
	EmployeeID       string          `json:"employeeID"`
	ProjectID        string          `json:"projectID"`
	Currency         string          `json:"currency"`
	PayDate          time.Time       `json:"payDate"`
	TotalSalary      decimal.Decimal `json:"totalSalary"`
	BasicSalary      decimal.Decimal `json:"basicSalary"`
	PercentageSalary decimal.Decimal `json:"percentageSalary"`
	PaymentMethod    FundType        `json:"paymentMethod"`
	Status           PayrollStatus   `json:"status"`
	Source           PayrollSource   `json:"source"`
	SourceID         string          `json:"sourceID"`
	Note             string          `json:"note,omitempty"`
	CreatedAt        time.Time       `json:"createdAt"`
	CreatedBy        string          `json:"createdBy"`
}
