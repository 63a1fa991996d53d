package mapping

import (
	"github.com/SscSPs/construction_ledger/internal/core/domain"
	"github.com/SscSPs/construction_ledger/internal/models"
)

func ToDomainPercentageLog(m models.PercentageLog) domain.PercentageLog {
	return domain.PercentageLog{
		LogID:           m.LogID,
		ProjectID:       m.ProjectID,
		Currency:        m.Currency,
		Amount:          m.Amount,
		Percentage:      m.Percentage,
		Distributed:     m.Distributed,
		PeriodID:        m.PeriodID.String,
		SourceExpenseID: m.SourceExpenseID.String,
		SourcePaymentID: m.SourcePaymentID.String,
		CreatedAt:       m.CreatedAt,
		CreatedBy:       m.CreatedBy,
		DistributedAt:   TimePtr(m.DistributedAt),
	}
}

func ToDomainPercentagePool(m models.PercentagePool) domain.PercentagePool {
	return domain.PercentagePool{
		PoolID:        m.PoolID,
		ProjectID:     m.ProjectID,
		Currency:      m.Currency,
		Type:          domain.FundType(m.FundType),
		Balance:       m.Balance,
		LastUpdatedAt: m.LastUpdatedAt,
	}
}
