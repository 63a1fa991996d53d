package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/SscSPs/construction_ledger/internal/apperrors"
	"github.com/SscSPs/construction_ledger/internal/core/domain"
	portsrepo "github.com/SscSPs/construction_ledger/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/construction_ledger/internal/core/ports/services"
	"github.com/SscSPs/construction_ledger/internal/platform/locking"
	"github.com/google/uuid"
)

// runSupport carries the collaborators shared by the percentage and maps
// distribution services: the store, the per-project lock, the run journal and
// the event publisher.
type runSupport struct {
	BaseService
	store     portsrepo.LedgerStore
	runs      portsrepo.DistributionRunRepository
	locker    portssvc.ProjectLocker
	publisher portssvc.EventPublisher
	atomic    bool
}

// DistributionOption is a functional option for configuring distribution services
type DistributionOption func(*runSupport)

// WithProjectLocker replaces the default in-process project lock.
func WithProjectLocker(locker portssvc.ProjectLocker) DistributionOption {
	return func(s *runSupport) {
		s.locker = locker
	}
}

// WithRunJournal enables idempotency keys backed by repo.
func WithRunJournal(repo portsrepo.DistributionRunRepository) DistributionOption {
	return func(s *runSupport) {
		s.runs = repo
	}
}

// WithEventPublisher adds an event publisher dependency
func WithEventPublisher(publisher portssvc.EventPublisher) DistributionOption {
	return func(s *runSupport) {
		s.publisher = publisher
	}
}

// WithAtomicCommits runs every step inside one store transaction when the store supports it.
func WithAtomicCommits(enabled bool) DistributionOption {
	return func(s *runSupport) {
		s.atomic = enabled
	}
}

// WithClock pins the service clock.
func WithClock(now func() time.Time) DistributionOption {
	return func(s *runSupport) {
		s.now = now
	}
}

func newRunSupport(store portsrepo.LedgerStore, options ...DistributionOption) runSupport {
	s := runSupport{store: store}
	for _, option := range options {
		option(&s)
	}
	if s.locker == nil {
		s.locker = locking.NewLocalProjectLocker()
	}
	return s
}

// existingRun looks up a previous run for key. It returns nil when the key is
// new or no journal is configured.
func (s *runSupport) existingRun(ctx context.Context, key string) (*domain.DistributionRun, error) {
	if s.runs == nil || key == "" {
		return nil, nil
	}
	run, err := s.runs.FindRunByKey(ctx, key)
	if errors.Is(err, apperrors.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up idempotency key: %w", err)
	}
	return run, nil
}

// restoreSnapshot decodes the journaled result of run into dst. It reports
// false when the run has no usable snapshot.
func restoreSnapshot(run *domain.DistributionRun, dst any) bool {
	if len(run.Snapshot) == 0 {
		return false
	}
	return json.Unmarshal(run.Snapshot, dst) == nil
}

// refuseAttempted rejects a key whose earlier run did not succeed.
func refuseAttempted(run *domain.DistributionRun) error {
	detail := fmt.Sprintf("run %s is %s", run.RunID, run.Status)
	if run.FailedStep != "" {
		detail += ", failed at " + string(run.FailedStep)
	}
	return fmt.Errorf("%w: %s", apperrors.ErrRunAlreadyAttempted, detail)
}

// beginRun journals a new run. The returned run carries the generated ids.
func (s *runSupport) beginRun(ctx context.Context, projectID string, kind domain.RunKind, key string, actor domain.Actor) (domain.DistributionRun, error) {
	if key == "" {
		key = uuid.NewString()
	}
	run := domain.DistributionRun{
		RunID:          uuid.NewString(),
		IdempotencyKey: key,
		ProjectID:      projectID,
		Kind:           kind,
		Status:         domain.RunStarted,
		StartedAt:      s.Now(),
		CreatedBy:      actor.ID,
	}
	if s.runs == nil {
		return run, nil
	}
	stored, created, err := s.runs.BeginRun(ctx, run)
	if err != nil {
		return run, fmt.Errorf("failed to journal distribution run: %w", err)
	}
	if !created {
		return *stored, refuseAttempted(stored)
	}
	return *stored, nil
}

// stepTracker runs the write steps of one distribution in order.
type stepTracker struct {
	ctx       context.Context
	completed []domain.CommitStep
	// partial maps a step to the reconciliation message used when it fails.
	partial map[domain.CommitStep]string
}

func newStepTracker(ctx context.Context) *stepTracker {
	return &stepTracker{ctx: ctx, partial: make(map[domain.CommitStep]string)}
}

// do runs fn as step. Cancellation is checked first; a panic inside fn is
// converted into a step error.
func (t *stepTracker) do(step domain.CommitStep, fn func(ctx context.Context) error) (err error) {
	if ctxErr := t.ctx.Err(); ctxErr != nil {
		return t.failure(step, fmt.Errorf("cancelled before step: %w", ctxErr))
	}
	defer func() {
		if rec := recover(); rec != nil {
			err = t.failure(step, fmt.Errorf("panic: %v", rec))
		}
	}()
	if err := fn(t.ctx); err != nil {
		return t.failure(step, err)
	}
	t.completed = append(t.completed, step)
	return nil
}

func (t *stepTracker) failure(step domain.CommitStep, cause error) *apperrors.StepError {
	stepErr := &apperrors.StepError{
		Step:     string(step),
		Severity: apperrors.SeverityError,
		Err:      cause,
	}
	if msg, ok := t.partial[step]; ok {
		stepErr.Severity = apperrors.SeverityPartial
		stepErr.Message = msg
		return stepErr
	}
	if len(t.completed) == 0 {
		stepErr.Message = "distribution failed before anything was written"
		return stepErr
	}
	stepErr.Message = fmt.Sprintf("distribution stopped; steps already applied and not undone: %s", joinSteps(t.completed))
	return stepErr
}

func (t *stepTracker) last() domain.CommitStep {
	if len(t.completed) == 0 {
		return ""
	}
	return t.completed[len(t.completed)-1]
}

func joinSteps(steps []domain.CommitStep) string {
	names := make([]string, 0, len(steps))
	for _, s := range steps {
		names = append(names, string(s))
	}
	return strings.Join(names, ", ")
}

// execute runs steps against the store, inside a transaction when atomic
// commits are enabled and supported.
func (s *runSupport) execute(ctx context.Context, tracker *stepTracker, steps func(store portsrepo.LedgerStore) error) error {
	txStore, ok := s.store.(portsrepo.TxLedgerStore)
	if !s.atomic || !ok {
		if s.atomic {
			s.LogWarn(ctx, "Atomic commits requested but the store has no transaction support; running steps sequentially")
		}
		return steps(s.store)
	}

	err := txStore.WithinTx(ctx, steps)
	if err == nil {
		return nil
	}
	var stepErr *apperrors.StepError
	if !errors.As(err, &stepErr) {
		stepErr = &apperrors.StepError{
			Step:     string(domain.StepCommitTransaction),
			Severity: apperrors.SeverityError,
			Message:  "every step succeeded but the transaction could not be committed",
			Err:      err,
		}
	}
	stepErr.Severity = apperrors.SeverityError
	stepErr.RolledBack = true
	stepErr.Message = "distribution failed and all writes were rolled back"
	tracker.completed = nil
	return stepErr
}

// finish records the run outcome and emits the matching event. A successful
// run journals result as its replay snapshot. Journal and publish failures are
// logged; the caller's result is already decided.
func (s *runSupport) finish(ctx context.Context, run domain.DistributionRun, tracker *stepTracker, runErr error, resultIDs []string, result any, actor domain.Actor) {
	ctx = context.WithoutCancel(ctx)
	now := s.Now()

	outcome := domain.RunOutcome{
		Status:    domain.RunSucceeded,
		LastStep:  tracker.last(),
		ResultIDs: resultIDs,
	}
	var stepErr *apperrors.StepError
	if errors.As(runErr, &stepErr) {
		outcome.Status = domain.RunFailed
		if stepErr.Severity == apperrors.SeverityPartial {
			outcome.Status = domain.RunPartial
		}
		outcome.FailedStep = domain.CommitStep(stepErr.Step)
		outcome.Message = stepErr.Message
	} else if runErr != nil {
		outcome.Status = domain.RunFailed
		outcome.Message = runErr.Error()
	}
	if outcome.Status == domain.RunSucceeded && result != nil {
		snapshot, err := json.Marshal(result)
		if err != nil {
			s.LogError(ctx, err, "Failed to encode run snapshot", slog.String("run_id", run.RunID))
		}
		outcome.Snapshot = snapshot
	}

	if s.runs != nil {
		if err := s.runs.FinishRun(ctx, run.RunID, outcome, now); err != nil {
			s.LogError(ctx, err, "Failed to record distribution run outcome",
				slog.String("run_id", run.RunID),
				slog.String("status", string(outcome.Status)))
		}
	}

	run.Status = outcome.Status
	run.LastStep = outcome.LastStep
	run.FailedStep = outcome.FailedStep

	event := domain.DistributionEvent{
		Type:       domain.EventDistributionCommitted,
		RunID:      run.RunID,
		ProjectID:  run.ProjectID,
		Kind:       run.Kind,
		Status:     outcome.Status,
		FailedStep: outcome.FailedStep,
		Message:    outcome.Message,
		ActorID:    actor.ID,
		OccurredAt: now,
	}
	switch {
	case outcome.Status == domain.RunSucceeded:
	case run.NeedsReconciliation():
		event.Type = domain.EventReconciliationRequired
		s.LogError(ctx, runErr, "Distribution left partial writes, manual reconciliation required",
			slog.String("run_id", run.RunID),
			slog.String("project_id", run.ProjectID),
			slog.String("failed_step", string(outcome.FailedStep)),
			slog.String("last_step", string(outcome.LastStep)))
		if s.runs != nil {
			if err := s.runs.MarkReconciliationRequested(ctx, run.RunID, now); err != nil {
				s.LogError(ctx, err, "Failed to flag run for reconciliation", slog.String("run_id", run.RunID))
			}
		}
	default:
		// failed without writing anything; nothing to announce
		return
	}

	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.LogError(ctx, err, "Failed to publish distribution event",
			slog.String("run_id", run.RunID),
			slog.String("type", event.Type))
	}
}
