package dto

import (
	"github.com/SscSPs/construction_ledger/internal/core/domain"
	portssvc "github.com/SscSPs/construction_ledger/internal/core/ports/services"
)

// ListPeriodsParams defines query parameters for listing periods.
type ListPeriodsParams struct {
	Limit     int    `form:"limit" binding:"omitempty,min=1,max=100"`
	NextToken string `form:"nextToken"`
}

// ListPeriodsResponse is one page of period history.
type ListPeriodsResponse struct {
	Periods   []domain.DistributionPeriod `json:"periods"`
	NextToken string                      `json:"nextToken,omitempty"`
}

// PeriodResponse is a period with its line items, company first.
type PeriodResponse struct {
	Period    domain.DistributionPeriod `json:"period"`
	LineItems []domain.PeriodLineItem   `json:"lineItems"`
}

func ToListPeriodsResponse(page *portssvc.PeriodPage) ListPeriodsResponse {
	periods := page.Periods
	if periods == nil {
		periods = []domain.DistributionPeriod{}
	}
	return ListPeriodsResponse{Periods: periods, NextToken: page.NextToken}
}
