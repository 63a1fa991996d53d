package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/SscSPs/construction_ledger/internal/apperrors"
	"github.com/SscSPs/construction_ledger/internal/core/domain"
	portsrepo "github.com/SscSPs/construction_ledger/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/construction_ledger/internal/core/ports/services"
	"github.com/SscSPs/construction_ledger/internal/utils/distribution"
)

// selectionService implements the SelectionSvc interface
type selectionService struct {
	BaseService
	logRepo  portsrepo.PercentageLogReader
	poolRepo portsrepo.PercentagePoolReader
}

// NewSelectionService creates a selection service reading logs and pools from the given repositories.
func NewSelectionService(logRepo portsrepo.PercentageLogReader, poolRepo portsrepo.PercentagePoolReader) portssvc.SelectionSvc {
	return &selectionService{logRepo: logRepo, poolRepo: poolRepo}
}

var _ portssvc.SelectionSvc = (*selectionService)(nil)

func (s *selectionService) SelectLogs(ctx context.Context, projectID, currency string, logIDs []string) (*domain.Selection, error) {
	if projectID == "" {
		return nil, fmt.Errorf("%w: project id is required", apperrors.ErrValidation)
	}
	currency = strings.ToUpper(strings.TrimSpace(currency))
	if currency == "" {
		return nil, fmt.Errorf("%w: currency is required", apperrors.ErrValidation)
	}
	ids := uniqueIDs(logIDs)
	if len(ids) == 0 {
		return nil, fmt.Errorf("%w: at least one log id is required", apperrors.ErrValidation)
	}

	found, err := s.logRepo.FindPercentageLogsByIDs(ctx, ids)
	if err != nil {
		s.LogError(ctx, err, "Failed to load percentage logs", slog.String("project_id", projectID))
		return nil, fmt.Errorf("failed to load percentage logs: %w", err)
	}

	problems := make(map[string]string)
	logs := make([]domain.PercentageLog, 0, len(ids))
	for _, id := range ids {
		entry, ok := found[id]
		switch {
		case !ok:
			problems[id] = "not found"
		case entry.ProjectID != projectID:
			problems[id] = "belongs to another project"
		case entry.Distributed:
			problems[id] = "already distributed"
		default:
			logs = append(logs, entry)
		}
	}
	if len(problems) > 0 {
		staleErr := &apperrors.SelectionStaleError{Problems: problems}
		s.LogWarn(ctx, "Selection rejected as stale", slog.String("project_id", projectID), slog.Any("log_ids", staleErr.IDs()))
		return nil, staleErr
	}

	selection := &domain.Selection{
		ProjectID: projectID,
		Currency:  currency,
		Logs:      logs,
	}
	for i, entry := range logs {
		if !strings.EqualFold(entry.Currency, currency) {
			return nil, fmt.Errorf("%w: log %s is in %s, selection is in %s", apperrors.ErrValidation, entry.LogID, entry.Currency, currency)
		}
		selection.SelectedTotal = selection.SelectedTotal.Add(entry.Amount)
		if i == 0 || entry.CreatedAt.Before(selection.DateFrom) {
			selection.DateFrom = entry.CreatedAt
		}
		if i == 0 || entry.CreatedAt.After(selection.DateTo) {
			selection.DateTo = entry.CreatedAt
		}
	}

	pools, err := s.poolRepo.FindPools(ctx, projectID, currency)
	if err != nil {
		s.LogError(ctx, err, "Failed to load percentage pools", slog.String("project_id", projectID))
		return nil, fmt.Errorf("failed to load percentage pools: %w", err)
	}
	available := domain.PoolAmountsFrom(pools)
	selection.CashPool = available.Cash
	selection.BankPool = available.Bank

	totalPool := available.Total()
	if !totalPool.IsPositive() || selection.SelectedTotal.GreaterThan(totalPool) {
		s.LogWarn(ctx, "Selection exceeds available pool",
			slog.String("project_id", projectID),
			slog.String("selected", selection.SelectedTotal.String()),
			slog.String("available", totalPool.String()))
		return nil, &apperrors.SelectionExceedsPoolError{Selected: selection.SelectedTotal, Available: totalPool}
	}

	selection.SelectedCash, selection.SelectedBank, _ = distribution.SplitProportional(selection.SelectedTotal, available.Cash, available.Bank)

	s.LogDebug(ctx, "Selection computed",
		slog.String("project_id", projectID),
		slog.Int("log_count", len(logs)),
		slog.String("selected_total", selection.SelectedTotal.String()))
	return selection, nil
}

func (s *selectionService) ListUndistributedLogs(ctx context.Context, projectID, currency string) ([]domain.PercentageLog, error) {
	currency = strings.ToUpper(strings.TrimSpace(currency))
	if projectID == "" || currency == "" {
		return nil, fmt.Errorf("%w: project id and currency are required", apperrors.ErrValidation)
	}
	logs, err := s.logRepo.ListUndistributedLogs(ctx, projectID, currency)
	if err != nil {
		s.LogError(ctx, err, "Failed to list undistributed logs", slog.String("project_id", projectID))
		return nil, fmt.Errorf("failed to list undistributed logs: %w", err)
	}
	return logs, nil
}

// uniqueIDs drops blanks and duplicates, keeping first-seen order.
func uniqueIDs(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
