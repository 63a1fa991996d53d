package models

import (
	"database/sql"
	"time"
)

// DistributionRun is a row of distribution_runs.
type DistributionRun struct {
	RunID                   string         `db:"run_id"`
	IdempotencyKey          string         `db:"idempotency_key"`
	ProjectID               string         `db:"project_id"`
	Kind                    string         `db:"kind"`
	Status                  string         `db:"status"`
	LastStep                sql.NullString `db:"last_step"`
	FailedStep              sql.NullString `db:"failed_step"`
	Message                 sql.NullString `db:"message"`
	ResultIDs               []string       `db:"result_ids"`
	StartedAt               time.Time      `db:"started_at"`
	FinishedAt              sql.NullTime   `db:"finished_at"`
	ReconciliationRequested sql.NullTime   `db:"reconciliation_requested_at"`
	CreatedBy               string         `db:"created_by"`
	ResultSnapshot          []byte         `db:"result_snapshot"`
}
