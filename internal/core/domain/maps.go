package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// ExpenseCategoryMaps tags the aggregate expense created by a maps distribution.
const ExpenseCategoryMaps = "maps"

// MapParticipantInput is one employee's share of a single map item.
type MapParticipantInput struct {
	EmployeeID string          `json:"employeeID"`
	Percentage decimal.Decimal `json:"percentage"`
}

// MapItemInput is a priced map line with its own percentage partition.
type MapItemInput struct {
	Name              string                `json:"name"`
	Price             decimal.Decimal       `json:"price"`
	Quantity          decimal.Decimal       `json:"quantity"`
	Employees         []MapParticipantInput `json:"employees"`
	CompanyPercentage decimal.Decimal       `json:"companyPercentage"`
}

// Total is price times quantity, rounded to cents.
func (m MapItemInput) Total() decimal.Decimal {
	return m.Price.Mul(m.Quantity).Round(2)
}

// ProjectExpense is a cost booked against a project.
type ProjectExpense struct {
	ExpenseID    string          `json:"expenseID"`
	ProjectID    string          `json:"projectID"`
	Currency     string          `json:"currency"`
	Category     string          `json:"category"`
	Description  string          `json:"description"`
	Amount       decimal.Decimal `json:"amount"`
	SerialNumber int             `json:"serialNumber"`
	ExpenseDate  time.Time       `json:"expenseDate"`
	CreatedAt    time.Time       `json:"createdAt"`
	CreatedBy    string          `json:"createdBy"`
}

// ExpensePayment settles a ProjectExpense through one fund type.
type ExpensePayment struct {
	PaymentID string          `json:"paymentID"`
	ExpenseID string          `json:"expenseID"`
	ProjectID string          `json:"projectID"`
	Currency  string          `json:"currency"`
	Amount    decimal.Decimal `json:"amount"`
	Method    FundType        `json:"method"`
	PaidAt    time.Time       `json:"paidAt"`
	CreatedBy string          `json:"createdBy"`
}

// MapsDistribution is the header row of a maps distribution run.
type MapsDistribution struct {
	MapsDistributionID string          `json:"mapsDistributionID"`
	ProjectID          string          `json:"projectID"`
	RunID              string          `json:"runID"`
	ExpenseID          string          `json:"expenseID"`
	Currency           string          `json:"currency"`
	Method             FundType        `json:"method"`
	TotalAmount        decimal.Decimal `json:"totalAmount"`
	MapCount           int             `json:"mapCount"`
	Note               string          `json:"note,omitempty"`
	CreatedAt          time.Time       `json:"createdAt"`
	CreatedBy          string          `json:"createdBy"`
}

// MapsDistributionItem is one priced map within a maps distribution.
type MapsDistributionItem struct {
	ItemID             string          `json:"itemID"`
	MapsDistributionID string          `json:"mapsDistributionID"`
	Name               string          `json:"name"`
	Price              decimal.Decimal `json:"price"`
	Quantity           decimal.Decimal `json:"quantity"`
	Total              decimal.Decimal `json:"total"`
	CompanyPercentage  decimal.Decimal `json:"companyPercentage"`
}

// MapsDistributionDetail is one participant's share of one map.
type MapsDistributionDetail struct {
	DetailID           string          `json:"detailID"`
	ItemID             string          `json:"itemID"`
	MapsDistributionID string          `json:"mapsDistributionID"`
	Participant        ParticipantType `json:"participant"`
	EmployeeID         string          `json:"employeeID,omitempty"`
	Percentage         decimal.Decimal `json:"percentage"`
	Amount             decimal.Decimal `json:"amount"`
}

// MapsResult is returned by a successful maps distribution.
type MapsResult struct {
	RunID          string                   `json:"runID"`
	Distribution   MapsDistribution         `json:"distribution"`
	Expense        ProjectExpense           `json:"expense"`
	Payment        ExpensePayment           `json:"payment"`
	Items          []MapsDistributionItem   `json:"items"`
	Details        []MapsDistributionDetail `json:"details"`
	PayrollEntries []PayrollEntry           `json:"payrollEntries"`
	CompletedSteps []CommitStep             `json:"completedSteps"`
	Replayed       bool                     `json:"replayed"`
}
