package services

import (
	"context"
	"errors"
	"log/slog"

	"github.com/SscSPs/construction_ledger/internal/apperrors"
	"github.com/SscSPs/construction_ledger/internal/core/domain"
	portssvc "github.com/SscSPs/construction_ledger/internal/core/ports/services"
	"github.com/SscSPs/construction_ledger/internal/utils/distribution"
)

// calculatorService implements the CalculatorSvc interface
type calculatorService struct {
	BaseService
}

// NewCalculatorService creates a new calculator service
func NewCalculatorService() portssvc.CalculatorSvc {
	return &calculatorService{}
}

var _ portssvc.CalculatorSvc = (*calculatorService)(nil)

func (s *calculatorService) ComputeShares(ctx context.Context, pool domain.PoolAmounts, participants []domain.ShareInput, company domain.ShareInput) (*domain.ShareSet, error) {
	set, err := distribution.ComputeShares(pool, participants, company)
	if err != nil {
		var partitionErr *apperrors.PartitionError
		if errors.As(err, &partitionErr) {
			s.LogDebug(ctx, "Share partition rejected",
				slog.String("total", partitionErr.Total.String()),
				slog.String("deviation", partitionErr.Deviation.String()))
		}
		return nil, err
	}
	if negatives := set.NegativeTotals(); len(negatives) > 0 {
		ids := make([]string, 0, len(negatives))
		for _, n := range negatives {
			if n.Participant == domain.ParticipantCompany {
				ids = append(ids, "company")
				continue
			}
			ids = append(ids, n.EmployeeID)
		}
		s.LogWarn(ctx, "Shares net below zero", slog.Any("participants", ids))
	}
	return set, nil
}
