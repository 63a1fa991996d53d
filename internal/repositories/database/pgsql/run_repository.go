package pgsql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/SscSPs/construction_ledger/internal/apperrors"
	"github.com/SscSPs/construction_ledger/internal/core/domain"
	portsrepo "github.com/SscSPs/construction_ledger/internal/core/ports/repositories"
	"github.com/SscSPs/construction_ledger/internal/models"
	"github.com/SscSPs/construction_ledger/internal/utils/mapping"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const runColumns = `run_id, idempotency_key, project_id, kind, status, last_step, failed_step, message, result_ids,
	started_at, finished_at, reconciliation_requested_at, created_by, result_snapshot`

// PgxDistributionRunRepository is the run journal. It always writes through the
// pool so journal rows survive a rolled back distribution transaction.
type PgxDistributionRunRepository struct {
	pool *pgxpool.Pool
}

func newPgxDistributionRunRepository(pool *pgxpool.Pool) *PgxDistributionRunRepository {
	return &PgxDistributionRunRepository{pool: pool}
}

var _ portsrepo.DistributionRunRepository = (*PgxDistributionRunRepository)(nil)

func scanRun(row pgx.Row) (domain.DistributionRun, error) {
	var m models.DistributionRun
	err := row.Scan(&m.RunID, &m.IdempotencyKey, &m.ProjectID, &m.Kind, &m.Status, &m.LastStep, &m.FailedStep,
		&m.Message, &m.ResultIDs, &m.StartedAt, &m.FinishedAt, &m.ReconciliationRequested, &m.CreatedBy, &m.ResultSnapshot)
	if err != nil {
		return domain.DistributionRun{}, err
	}
	return mapping.ToDomainRun(m), nil
}

func (r *PgxDistributionRunRepository) FindRunByKey(ctx context.Context, idempotencyKey string) (*domain.DistributionRun, error) {
	run, err := scanRun(r.pool.QueryRow(ctx, `SELECT `+runColumns+` FROM distribution_runs WHERE idempotency_key = $1;`, idempotencyKey))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: run with key %s", apperrors.ErrNotFound, idempotencyKey)
		}
		return nil, fmt.Errorf("failed to find run by key: %w", err)
	}
	return &run, nil
}

// BeginRun inserts a STARTED run. A concurrent insert of the same key loses
// quietly and the stored row is returned with created=false.
func (r *PgxDistributionRunRepository) BeginRun(ctx context.Context, run domain.DistributionRun) (*domain.DistributionRun, bool, error) {
	m := mapping.ToModelRun(run)
	if m.ResultIDs == nil {
		m.ResultIDs = []string{}
	}
	query := `
		INSERT INTO distribution_runs (` + runColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		ON CONFLICT (idempotency_key) DO NOTHING;
	`
	tag, err := r.pool.Exec(ctx, query, m.RunID, m.IdempotencyKey, m.ProjectID, m.Kind, m.Status, m.LastStep, m.FailedStep,
		m.Message, m.ResultIDs, m.StartedAt, m.FinishedAt, m.ReconciliationRequested, m.CreatedBy, m.ResultSnapshot)
	if err != nil {
		return nil, false, wrapWriteErr(err, "run "+m.RunID)
	}
	if tag.RowsAffected() == 1 {
		return &run, true, nil
	}
	stored, err := r.FindRunByKey(ctx, run.IdempotencyKey)
	if err != nil {
		return nil, false, err
	}
	return stored, false, nil
}

func (r *PgxDistributionRunRepository) FinishRun(ctx context.Context, runID string, outcome domain.RunOutcome, now time.Time) error {
	resultIDs := outcome.ResultIDs
	if resultIDs == nil {
		resultIDs = []string{}
	}
	query := `
		UPDATE distribution_runs
		SET status = $2, last_step = $3, failed_step = $4, message = $5, result_ids = $6, finished_at = $7, result_snapshot = $8
		WHERE run_id = $1;
	`
	tag, err := r.pool.Exec(ctx, query, runID, string(outcome.Status), mapping.NullString(string(outcome.LastStep)),
		mapping.NullString(string(outcome.FailedStep)), mapping.NullString(outcome.Message), resultIDs, now, outcome.Snapshot)
	if err != nil {
		return fmt.Errorf("failed to finish run %s: %w", runID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: run %s", apperrors.ErrNotFound, runID)
	}
	return nil
}

func (r *PgxDistributionRunRepository) ListRunsNeedingReconciliation(ctx context.Context, startedBefore time.Time, limit int) ([]domain.DistributionRun, error) {
	query := `SELECT ` + runColumns + `
		FROM distribution_runs
		WHERE reconciliation_requested_at IS NULL
		  AND (status = 'PARTIAL'
		       OR (status = 'FAILED' AND last_step IS NOT NULL)
		       OR (status = 'STARTED' AND started_at < $1))
		ORDER BY started_at ASC, run_id ASC
		LIMIT $2;`
	rows, err := r.pool.Query(ctx, query, startedBefore, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs needing reconciliation: %w", err)
	}
	defer rows.Close()

	runs := make([]domain.DistributionRun, 0)
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating runs: %w", err)
	}
	return runs, nil
}

func (r *PgxDistributionRunRepository) MarkReconciliationRequested(ctx context.Context, runID string, now time.Time) error {
	tag, err := r.pool.Exec(ctx, `UPDATE distribution_runs SET reconciliation_requested_at = $2 WHERE run_id = $1;`, runID, now)
	if err != nil {
		return fmt.Errorf("failed to flag run %s: %w", runID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: run %s", apperrors.ErrNotFound, runID)
	}
	return nil
}
