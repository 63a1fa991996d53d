package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/SscSPs/construction_ledger/internal/apperrors"
	"github.com/SscSPs/construction_ledger/internal/core/domain"
)

// runJournal lives outside ledgerData so a rolled back transaction keeps the run row.
type runJournal struct {
	mu    sync.Mutex
	runs  map[string]domain.DistributionRun
	byKey map[string]string
}

func newRunJournal() *runJournal {
	return &runJournal{
		runs:  make(map[string]domain.DistributionRun),
		byKey: make(map[string]string),
	}
}

func (s *Store) FindRunByKey(ctx context.Context, idempotencyKey string) (*domain.DistributionRun, error) {
	s.runs.mu.Lock()
	defer s.runs.mu.Unlock()
	id, ok := s.runs.byKey[idempotencyKey]
	if !ok {
		return nil, fmt.Errorf("%w: run with key %s", apperrors.ErrNotFound, idempotencyKey)
	}
	run := s.runs.runs[id]
	return &run, nil
}

func (s *Store) BeginRun(ctx context.Context, run domain.DistributionRun) (*domain.DistributionRun, bool, error) {
	if err := s.faults.check("BeginRun"); err != nil {
		return nil, false, err
	}
	s.runs.mu.Lock()
	defer s.runs.mu.Unlock()
	if id, ok := s.runs.byKey[run.IdempotencyKey]; ok {
		existing := s.runs.runs[id]
		return &existing, false, nil
	}
	s.runs.runs[run.RunID] = run
	s.runs.byKey[run.IdempotencyKey] = run.RunID
	return &run, true, nil
}

func (s *Store) FinishRun(ctx context.Context, runID string, outcome domain.RunOutcome, now time.Time) error {
	if err := s.faults.check("FinishRun"); err != nil {
		return err
	}
	s.runs.mu.Lock()
	defer s.runs.mu.Unlock()
	run, ok := s.runs.runs[runID]
	if !ok {
		return fmt.Errorf("%w: run %s", apperrors.ErrNotFound, runID)
	}
	run.Status = outcome.Status
	run.LastStep = outcome.LastStep
	run.FailedStep = outcome.FailedStep
	run.Message = outcome.Message
	run.ResultIDs = append([]string(nil), outcome.ResultIDs...)
	run.Snapshot = append([]byte(nil), outcome.Snapshot...)
	finished := now
	run.FinishedAt = &finished
	s.runs.runs[runID] = run
	return nil
}

func (s *Store) ListRunsNeedingReconciliation(ctx context.Context, startedBefore time.Time, limit int) ([]domain.DistributionRun, error) {
	s.runs.mu.Lock()
	defer s.runs.mu.Unlock()
	var out []domain.DistributionRun
	for _, run := range s.runs.runs {
		if run.ReconciliationRequested != nil {
			continue
		}
		stale := run.Status == domain.RunStarted && run.StartedAt.Before(startedBefore)
		if stale || run.NeedsReconciliation() {
			out = append(out, run)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartedAt.Before(out[j].StartedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *Store) MarkReconciliationRequested(ctx context.Context, runID string, now time.Time) error {
	s.runs.mu.Lock()
	defer s.runs.mu.Unlock()
	run, ok := s.runs.runs[runID]
	if !ok {
		return fmt.Errorf("%w: run %s", apperrors.ErrNotFound, runID)
	}
	flagged := now
	run.ReconciliationRequested = &flagged
	s.runs.runs[runID] = run
	return nil
}

// Run returns the stored run, or false.
func (s *Store) Run(runID string) (domain.DistributionRun, bool) {
	s.runs.mu.Lock()
	defer s.runs.mu.Unlock()
	run, ok := s.runs.runs[runID]
	return run, ok
}
