package domain

import (
	"time"
)

type RunKind string

const (
	RunPercentage RunKind = "percentage"
	RunMaps       RunKind = "maps"
)

// RunStatus tracks a distribution run through the journal.
type RunStatus string

const (
	RunStarted   RunStatus = "STARTED"
	RunSucceeded RunStatus = "SUCCEEDED"
	RunFailed    RunStatus = "FAILED"
	RunPartial   RunStatus = "PARTIAL"
)

// DistributionRun is the journal row that makes a commit idempotent.
type DistributionRun struct {
	RunID          string     `json:"runID"`
	IdempotencyKey string     `json:"idempotencyKey"`
	ProjectID      string     `json:"projectID"`
	Kind           RunKind    `json:"kind"`
	Status         RunStatus  `json:"status"`
	LastStep       CommitStep `json:"lastStep,omitempty"`
	FailedStep     CommitStep `json:"failedStep,omitempty"`
	Message        string     `json:"message,omitempty"`
	// ResultIDs holds period ids (percentage runs) or the maps distribution id.
	ResultIDs               []string   `json:"resultIDs,omitempty"`
	StartedAt               time.Time  `json:"startedAt"`
	FinishedAt              *time.Time `json:"finishedAt,omitempty"`
	ReconciliationRequested *time.Time `json:"reconciliationRequested,omitempty"`
	CreatedBy               string     `json:"createdBy"`
	// Snapshot is the JSON encoded result of a successful run, served on replay.
	Snapshot []byte `json:"-"`
}

// RunOutcome is what a finished run writes back to the journal.
type RunOutcome struct {
	Status     RunStatus
	LastStep   CommitStep
	FailedStep CommitStep
	Message    string
	ResultIDs  []string
	Snapshot   []byte
}

// NeedsReconciliation reports whether the run may have left partial writes behind.
// Runs still STARTED are judged by the caller against a staleness threshold.
func (r DistributionRun) NeedsReconciliation() bool {
	switch r.Status {
	case RunPartial:
		return true
	case RunFailed:
		return r.LastStep != ""
	}
	return false
}
