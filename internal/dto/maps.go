package dto

import (
	"time"

	"github.com/SscSPs/construction_ledger/internal/core/domain"
	"github.com/shopspring/decimal"
)

type MapParticipantRequest struct {
	EmployeeID string          `json:"employeeID" binding:"required"`
	Percentage decimal.Decimal `json:"percentage" binding:"dpercent" swaggertype:"string" example:"50"`
}

type MapItemRequest struct {
	Name              string                  `json:"name" binding:"required,max=255"`
	Price             decimal.Decimal         `json:"price" binding:"dnonneg" swaggertype:"string" example:"100"`
	Quantity          decimal.Decimal         `json:"quantity" binding:"dpositive" swaggertype:"string" example:"2"`
	Employees         []MapParticipantRequest `json:"employees" binding:"dive"`
	CompanyPercentage decimal.Decimal         `json:"companyPercentage" binding:"dpercent" swaggertype:"string" example:"25"`
}

// CommitMapsRequest pays a batch of priced maps through one method.
// Currency defaults to the project currency.
type CommitMapsRequest struct {
	Currency       string           `json:"currency" binding:"omitempty,min=3,max=8"`
	Method         domain.FundType  `json:"method" binding:"required,oneof=cash bank"`
	Items          []MapItemRequest `json:"items" binding:"required,min=1,dive"`
	IdempotencyKey string           `json:"idempotencyKey" binding:"max=255"`
	Note           string           `json:"note" binding:"max=500"`
	PayDate        *time.Time       `json:"payDate"`
}

// ToMapItems converts the request items in order.
func (r CommitMapsRequest) ToMapItems() []domain.MapItemInput {
	items := make([]domain.MapItemInput, len(r.Items))
	for i, it := range r.Items {
		employees := make([]domain.MapParticipantInput, len(it.Employees))
		for j, e := range it.Employees {
			employees[j] = domain.MapParticipantInput{EmployeeID: e.EmployeeID, Percentage: e.Percentage}
		}
		items[i] = domain.MapItemInput{
			Name:              it.Name,
			Price:             it.Price,
			Quantity:          it.Quantity,
			Employees:         employees,
			CompanyPercentage: it.CompanyPercentage,
		}
	}
	return items
}

func (r CommitMapsRequest) CommitOptions(headerKey string) domain.CommitOptions {
	return commitOptions(headerKey, r.IdempotencyKey, r.Note, r.PayDate)
}
