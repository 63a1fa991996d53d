package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/SscSPs/construction_ledger/internal/apperrors"
	"github.com/SscSPs/construction_ledger/internal/core/domain"
	portsrepo "github.com/SscSPs/construction_ledger/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/construction_ledger/internal/core/ports/services"
	"github.com/SscSPs/construction_ledger/internal/utils/pagination"
)

// periodService implements the PeriodSvc interface
type periodService struct {
	BaseService
	periodRepo portsrepo.PeriodReader
}

// NewPeriodService creates a new period history service
func NewPeriodService(periodRepo portsrepo.PeriodReader) portssvc.PeriodSvc {
	return &periodService{periodRepo: periodRepo}
}

var _ portssvc.PeriodSvc = (*periodService)(nil)

func (s *periodService) ListPeriods(ctx context.Context, projectID string, limit int, nextToken string) (*portssvc.PeriodPage, error) {
	if projectID == "" {
		return nil, fmt.Errorf("%w: project id is required", apperrors.ErrValidation)
	}
	cursor, err := pagination.DecodePeriodCursor(nextToken)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrValidation, err)
	}
	limit = pagination.ClampLimit(limit)

	// one extra row tells us whether another page exists
	periods, err := s.periodRepo.ListPeriods(ctx, projectID, limit+1, cursor)
	if err != nil {
		s.LogError(ctx, err, "Failed to list periods", slog.String("project_id", projectID))
		return nil, fmt.Errorf("failed to list periods: %w", err)
	}

	page := &portssvc.PeriodPage{Periods: periods}
	if len(periods) > limit {
		page.Periods = periods[:limit]
		page.NextToken = pagination.EncodePeriodCursor(page.Periods[limit-1])
	}
	return page, nil
}

func (s *periodService) GetPeriod(ctx context.Context, projectID, periodID string) (*domain.DistributionPeriod, []domain.PeriodLineItem, error) {
	period, err := s.periodRepo.FindPeriodByID(ctx, periodID)
	if err != nil {
		return nil, nil, err
	}
	// periods are only visible through their own project
	if period.ProjectID != projectID {
		return nil, nil, fmt.Errorf("%w: period %s", apperrors.ErrNotFound, periodID)
	}
	items, err := s.periodRepo.ListLineItems(ctx, periodID)
	if err != nil {
		s.LogError(ctx, err, "Failed to list period line items", slog.String("period_id", periodID))
		return nil, nil, fmt.Errorf("failed to list line items: %w", err)
	}
	return period, items, nil
}
