// Package jobs holds the background work scheduled next to the HTTP server.
package jobs

import (
	"context"
	"log/slog"
	"time"

	"github.com/SscSPs/construction_ledger/internal/core/domain"
	portsrepo "github.com/SscSPs/construction_ledger/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/construction_ledger/internal/core/ports/services"
	"github.com/robfig/cron/v3"
)

const defaultSweepBatch = 50

// ReconciliationSweeper finds distribution runs that may have left partial
// writes behind and were never flagged, announces them and flags them.
type ReconciliationSweeper struct {
	runs       portsrepo.DistributionRunRepository
	publisher  portssvc.EventPublisher
	staleAfter time.Duration
	batch      int
	now        func() time.Time
	logger     *slog.Logger
}

// NewReconciliationSweeper treats runs still STARTED after staleAfter as abandoned.
func NewReconciliationSweeper(runs portsrepo.DistributionRunRepository, publisher portssvc.EventPublisher, staleAfter time.Duration, logger *slog.Logger) *ReconciliationSweeper {
	if logger == nil {
		logger = slog.Default()
	}
	return &ReconciliationSweeper{
		runs:       runs,
		publisher:  publisher,
		staleAfter: staleAfter,
		batch:      defaultSweepBatch,
		now:        func() time.Time { return time.Now().UTC() },
		logger:     logger.With(slog.String("job", "reconciliation_sweeper")),
	}
}

// Sweep flags one batch of runs and returns how many were flagged. A run whose
// event cannot be published stays unflagged and is retried on the next sweep.
func (s *ReconciliationSweeper) Sweep(ctx context.Context) (int, error) {
	now := s.now()
	runs, err := s.runs.ListRunsNeedingReconciliation(ctx, now.Add(-s.staleAfter), s.batch)
	if err != nil {
		return 0, err
	}

	flagged := 0
	for _, run := range runs {
		if err := ctx.Err(); err != nil {
			return flagged, err
		}
		event := domain.DistributionEvent{
			Type:       domain.EventReconciliationRequired,
			RunID:      run.RunID,
			ProjectID:  run.ProjectID,
			Kind:       run.Kind,
			Status:     run.Status,
			FailedStep: run.FailedStep,
			Message:    run.Message,
			ActorID:    run.CreatedBy,
			Attributes: map[string]string{"detectedBy": "sweeper", "lastStep": string(run.LastStep)},
			OccurredAt: now,
		}
		if run.Status == domain.RunStarted {
			event.Attributes["reason"] = "stale"
		}
		if err := s.publisher.Publish(ctx, event); err != nil {
			s.logger.Error("Failed to publish reconciliation event", slog.String("run_id", run.RunID), slog.Any("error", err))
			continue
		}
		if err := s.runs.MarkReconciliationRequested(ctx, run.RunID, now); err != nil {
			s.logger.Error("Failed to flag run", slog.String("run_id", run.RunID), slog.Any("error", err))
			continue
		}
		s.logger.Warn("Run flagged for manual reconciliation",
			slog.String("run_id", run.RunID),
			slog.String("project_id", run.ProjectID),
			slog.String("status", string(run.Status)))
		flagged++
	}
	return flagged, nil
}

// NewScheduler returns a cron scheduler that accepts six-field specs with seconds.
func NewScheduler() *cron.Cron {
	return cron.New(cron.WithSeconds())
}

// Schedule registers the sweep on c under spec.
func (s *ReconciliationSweeper) Schedule(c *cron.Cron, spec string) (cron.EntryID, error) {
	return c.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		if _, err := s.Sweep(ctx); err != nil {
			s.logger.Error("Reconciliation sweep failed", slog.Any("error", err))
		}
	})
}
