package domain

import (
	"github.com/shopspring/decimal"
)

// ParticipantType distinguishes employees from the company in a distribution.
type ParticipantType string

const (
	ParticipantEmployee ParticipantType = "employee"
	ParticipantCompany  ParticipantType = "company"
)

// ShareInput is one participant's requested share of a distribution.
// EmployeeID is empty for the company share.
type ShareInput struct {
	EmployeeID string          `json:"employeeID,omitempty"`
	Percentage decimal.Decimal `json:"percentage"`
	CashHeld   decimal.Decimal `json:"cashHeld"`
	BankHeld   decimal.Decimal `json:"bankHeld"`
	Discount   decimal.Decimal `json:"discount"`
	Note       string          `json:"note,omitempty"`
}

// ComputedShare is a ShareInput with its gross legs and net total resolved.
type ComputedShare struct {
	ShareInput
	Participant ParticipantType `json:"participant"`
	CashAmount  decimal.Decimal `json:"cashAmount"`
	BankAmount  decimal.Decimal `json:"bankAmount"`
	// Total may be negative when holds or discounts exceed the gross amount.
	Total decimal.Decimal `json:"total"`
}

// IsNegative reports whether the share nets below zero.
func (c ComputedShare) IsNegative() bool {
	return c.Total.IsNegative()
}

// ShareSet is the calculator output for one pool.
type ShareSet struct {
	Pool            PoolAmounts     `json:"pool"`
	Employees       []ComputedShare `json:"employees"`
	Company         ComputedShare   `json:"company"`
	PercentageTotal decimal.Decimal `json:"percentageTotal"`
}

// Inputs returns the raw employee inputs the set was computed from.
func (s ShareSet) Inputs() []ShareInput {
	inputs := make([]ShareInput, 0, len(s.Employees))
	for _, e := range s.Employees {
		inputs = append(inputs, e.ShareInput)
	}
	return inputs
}

// EmployeeIDs returns the employee ids in input order.
func (s ShareSet) EmployeeIDs() []string {
	ids := make([]string, 0, len(s.Employees))
	for _, e := range s.Employees {
		ids = append(ids, e.EmployeeID)
	}
	return ids
}

// NegativeTotals returns every share, company included, whose total is below zero.
func (s ShareSet) NegativeTotals() []ComputedShare {
	var negatives []ComputedShare
	for _, e := range s.Employees {
		if e.IsNegative() {
			negatives = append(negatives, e)
		}
	}
	if s.Company.IsNegative() {
		negatives = append(negatives, s.Company)
	}
	return negatives
}

// TotalDiscount sums employee discounts and the company discount.
func (s ShareSet) TotalDiscount() decimal.Decimal {
	total := s.Company.Discount
	for _, e := range s.Employees {
		total = total.Add(e.Discount)
	}
	return total
}

// EmployeeHeld sums employee holds per leg.
func (s ShareSet) EmployeeHeld() PoolAmounts {
	held := PoolAmounts{Cash: decimal.Zero, Bank: decimal.Zero}
	for _, e := range s.Employees {
		held.Cash = held.Cash.Add(e.CashHeld)
		held.Bank = held.Bank.Add(e.BankHeld)
	}
	return held
}
