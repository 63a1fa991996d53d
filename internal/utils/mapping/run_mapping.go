package mapping

import (
	"github.com/SscSPs/construction_ledger/internal/core/domain"
	"github.com/SscSPs/construction_ledger/internal/models"
)

// ToModelRun converts a run to its journal row.
func ToModelRun(d domain.DistributionRun) models.DistributionRun {
	return models.DistributionRun{
		RunID:                   d.RunID,
		IdempotencyKey:          d.IdempotencyKey,
		ProjectID:               d.ProjectID,
		Kind:                    string(d.Kind),
		Status:                  string(d.Status),
		LastStep:                NullString(string(d.LastStep)),
		FailedStep:              NullString(string(d.FailedStep)),
		Message:                 NullString(d.Message),
		ResultIDs:               d.ResultIDs,
		StartedAt:               d.StartedAt,
		FinishedAt:              NullTime(d.FinishedAt),
		ReconciliationRequested: NullTime(d.ReconciliationRequested),
		CreatedBy:               d.CreatedBy,
		ResultSnapshot:          d.Snapshot,
	}
}

// ToDomainRun converts a distribution_runs row.
func ToDomainRun(m models.DistributionRun) domain.DistributionRun {
	return domain.DistributionRun{
		RunID:                   m.RunID,
		IdempotencyKey:          m.IdempotencyKey,
		ProjectID:               m.ProjectID,
		Kind:                    domain.RunKind(m.Kind),
		Status:                  domain.RunStatus(m.Status),
		LastStep:                domain.CommitStep(m.LastStep.String),
		FailedStep:              domain.CommitStep(m.FailedStep.String),
		Message:                 m.Message.String,
		ResultIDs:               m.ResultIDs,
		StartedAt:               m.StartedAt,
		FinishedAt:              TimePtr(m.FinishedAt),
		ReconciliationRequested: TimePtr(m.ReconciliationRequested),
		CreatedBy:               m.CreatedBy,
		Snapshot:                m.ResultSnapshot,
	}
}
