package dto

import (
	"time"

	"github.com/SscSPs/construction_ledger/internal/core/domain"
	"github.com/shopspring/decimal"
)

// SelectionRequest names the logs to distribute.
type SelectionRequest struct {
	Currency string   `json:"currency" binding:"required,min=3,max=8"`
	LogIDs   []string `json:"logIDs" binding:"required,min=1,dive,required"`
}

// ShareRequest is one employee's share.
type ShareRequest struct {
	EmployeeID string          `json:"employeeID" binding:"required"`
	Percentage decimal.Decimal `json:"percentage" binding:"dpercent" swaggertype:"string" example:"60"`
	CashHeld   decimal.Decimal `json:"cashHeld" binding:"dnonneg" swaggertype:"string" example:"0"`
	BankHeld   decimal.Decimal `json:"bankHeld" binding:"dnonneg" swaggertype:"string" example:"0"`
	Discount   decimal.Decimal `json:"discount" binding:"dnonneg" swaggertype:"string" example:"0"`
	Note       string          `json:"note" binding:"max=500"`
}

// CompanyShareRequest is the company's share.
type CompanyShareRequest struct {
	Percentage decimal.Decimal `json:"percentage" binding:"dpercent" swaggertype:"string" example:"40"`
	CashHeld   decimal.Decimal `json:"cashHeld" binding:"dnonneg" swaggertype:"string"`
	BankHeld   decimal.Decimal `json:"bankHeld" binding:"dnonneg" swaggertype:"string"`
	Discount   decimal.Decimal `json:"discount" binding:"dnonneg" swaggertype:"string"`
	Note       string          `json:"note" binding:"max=500"`
}

// PoolRequest is an explicit cash/bank pair to preview against.
type PoolRequest struct {
	Cash decimal.Decimal `json:"cash" binding:"dnonneg" swaggertype:"string"`
	Bank decimal.Decimal `json:"bank" binding:"dnonneg" swaggertype:"string"`
}

// PreviewRequest computes shares without writing. Exactly one of Pool or
// Selection should be set; Selection wins when both are.
type PreviewRequest struct {
	Pool      *PoolRequest        `json:"pool"`
	Selection *SelectionRequest   `json:"selection"`
	Employees []ShareRequest      `json:"employees" binding:"dive"`
	Company   CompanyShareRequest `json:"company"`
}

// CommitDistributionRequest selects logs, computes shares and commits them in one call.
type CommitDistributionRequest struct {
	SelectionRequest
	Employees      []ShareRequest      `json:"employees" binding:"dive"`
	Company        CompanyShareRequest `json:"company"`
	IdempotencyKey string              `json:"idempotencyKey" binding:"max=255"`
	Note           string              `json:"note" binding:"max=500"`
	PayDate        *time.Time          `json:"payDate"`
}

// ListLogsParams filters the undistributed log listing.
type ListLogsParams struct {
	Currency string `form:"currency" binding:"required,min=3,max=8"`
}

func (r ShareRequest) ToDomain() domain.ShareInput {
	return domain.ShareInput{
		EmployeeID: r.EmployeeID,
		Percentage: r.Percentage,
		CashHeld:   r.CashHeld,
		BankHeld:   r.BankHeld,
		Discount:   r.Discount,
		Note:       r.Note,
	}
}

func (r CompanyShareRequest) ToDomain() domain.ShareInput {
	return domain.ShareInput{
		Percentage: r.Percentage,
		CashHeld:   r.CashHeld,
		BankHeld:   r.BankHeld,
		Discount:   r.Discount,
		Note:       r.Note,
	}
}

// ToShareInputs converts employee share requests in order.
func ToShareInputs(reqs []ShareRequest) []domain.ShareInput {
	inputs := make([]domain.ShareInput, len(reqs))
	for i, r := range reqs {
		inputs[i] = r.ToDomain()
	}
	return inputs
}

// CommitOptions builds the commit options; a header key wins over the body.
func (r CommitDistributionRequest) CommitOptions(headerKey string) domain.CommitOptions {
	return commitOptions(headerKey, r.IdempotencyKey, r.Note, r.PayDate)
}

func commitOptions(headerKey, bodyKey, note string, payDate *time.Time) domain.CommitOptions {
	opts := domain.CommitOptions{IdempotencyKey: bodyKey, Note: note}
	if headerKey != "" {
		opts.IdempotencyKey = headerKey
	}
	if payDate != nil {
		opts.PayDate = payDate.UTC()
	}
	return opts
}

// DistributionResponse is returned by a commit. Warnings lists participants whose
// net total is negative; they are committed as computed.
type DistributionResponse struct {
	*domain.DistributionResult
	Warnings []string `json:"warnings,omitempty"`
}

// ToDistributionResponse adds human readable warnings for negative totals.
func ToDistributionResponse(result *domain.DistributionResult) DistributionResponse {
	resp := DistributionResponse{DistributionResult: result}
	for _, share := range result.NegativeShares {
		who := "company"
		if share.Participant == domain.ParticipantEmployee {
			who = "employee " + share.EmployeeID
		}
		resp.Warnings = append(resp.Warnings, who+" nets "+share.Total.StringFixed(2))
	}
	return resp
}
