package mapping

import (
	"github.com/SscSPs/construction_ledger/internal/core/domain"
	"github.com/SscSPs/construction_ledger/internal/models"
)

// ToModelPeriod converts a period to its row.
func ToModelPeriod(d domain.DistributionPeriod) models.DistributionPeriod {
	return models.DistributionPeriod{
		PeriodID:    d.PeriodID,
		ProjectID:   d.ProjectID,
		RunID:       d.RunID,
		Currency:    d.Currency,
		FundType:    string(d.Type),
		DateFrom:    d.DateFrom,
		DateTo:      d.DateTo,
		TotalAmount: d.TotalAmount,
		Note:        d.Note,
		CreatedAt:   d.CreatedAt,
		CreatedBy:   d.CreatedBy,
	}
}

// ToDomainPeriod converts a distribution_periods row.
func ToDomainPeriod(m models.DistributionPeriod) domain.DistributionPeriod {
	return domain.DistributionPeriod{
		PeriodID:    m.PeriodID,
		ProjectID:   m.ProjectID,
		RunID:       m.RunID,
		Currency:    m.Currency,
		Type:        domain.FundType(m.FundType),
		DateFrom:    m.DateFrom,
		DateTo:      m.DateTo,
		TotalAmount: m.TotalAmount,
		Note:        m.Note,
		CreatedAt:   m.CreatedAt,
		CreatedBy:   m.CreatedBy,
	}
}

// ToModelLineItem converts a line item; position preserves insertion order.
func ToModelLineItem(d domain.PeriodLineItem, position int) models.PeriodLineItem {
	return models.PeriodLineItem{
		LineItemID:  d.LineItemID,
		PeriodID:    d.PeriodID,
		Position:    position,
		Participant: string(d.Participant),
		EmployeeID:  NullString(d.EmployeeID),
		BankAmount:  d.BankAmount,
		CashAmount:  d.CashAmount,
		BankHeld:    d.BankHeld,
		CashHeld:    d.CashHeld,
		Discount:    d.Discount,
		Total:       d.Total,
		Percentage:  d.Percentage,
		Note:        d.Note,
		CreatedAt:   d.CreatedAt,
	}
}

func ToDomainLineItem(m models.PeriodLineItem) domain.PeriodLineItem {
	return domain.PeriodLineItem{
		LineItemID:  m.LineItemID,
		PeriodID:    m.PeriodID,
		Participant: domain.ParticipantType(m.Participant),
		EmployeeID:  m.EmployeeID.String,
		BankAmount:  m.BankAmount,
		CashAmount:  m.CashAmount,
		BankHeld:    m.BankHeld,
		CashHeld:    m.CashHeld,
		Discount:    m.Discount,
		Total:       m.Total,
		Percentage:  m.Percentage,
		Note:        m.Note,
		CreatedAt:   m.CreatedAt,
	}
}
