package domain

import (
	"time"
)

// CommitStep names one write step of a distribution run.
type CommitStep string

// Percentage distribution steps, in execution order.
const (
	StepCreatePeriods          CommitStep = "create_periods"
	StepInsertLineItems        CommitStep = "insert_line_items"
	StepMarkLogsDistributed    CommitStep = "mark_logs_distributed"
	StepInsertHeldRecords      CommitStep = "insert_held_records"
	StepInsertDiscountRecords  CommitStep = "insert_discount_records"
	StepUpdateEmployeeAccounts CommitStep = "update_employee_accounts"
	StepInsertPayrollEntries   CommitStep = "insert_payroll_entries"
	StepUpdateCompanyAccounts  CommitStep = "update_company_accounts"
	StepReducePools            CommitStep = "reduce_pools"
)

// Maps distribution steps, in execution order. Account and payroll steps are shared.
const (
	StepCreateExpense           CommitStep = "create_expense"
	StepDecrementProjectBalance CommitStep = "decrement_project_balance"
	StepCreateMapsDistribution  CommitStep = "create_maps_distribution"
	StepInsertMapsItems         CommitStep = "insert_maps_items"
	StepInsertMapsDetails       CommitStep = "insert_maps_details"
	StepIncrementCounters       CommitStep = "increment_counters"
)

// StepCommitTransaction is reported when every step succeeded inside a
// database transaction but the transaction itself failed to commit.
const StepCommitTransaction CommitStep = "commit_transaction"

// PercentageSteps lists the percentage distribution steps in order.
var PercentageSteps = []CommitStep{
	StepCreatePeriods,
	StepInsertLineItems,
	StepMarkLogsDistributed,
	StepInsertHeldRecords,
	StepInsertDiscountRecords,
	StepUpdateEmployeeAccounts,
	StepInsertPayrollEntries,
	StepUpdateCompanyAccounts,
	StepReducePools,
}

// MapsSteps lists the maps distribution steps in order.
var MapsSteps = []CommitStep{
	StepCreateExpense,
	StepDecrementProjectBalance,
	StepCreateMapsDistribution,
	StepInsertMapsItems,
	StepInsertMapsDetails,
	StepUpdateEmployeeAccounts,
	StepUpdateCompanyAccounts,
	StepInsertPayrollEntries,
	StepIncrementCounters,
}

// CommitOptions tunes a single commit.
type CommitOptions struct {
	// IdempotencyKey identifies the run. A fresh key is generated when empty.
	IdempotencyKey string
	Note           string
	// PayDate stamps payroll entries; defaults to the commit time.
	PayDate time.Time
}

// DistributionResult is returned by a successful percentage distribution.
type DistributionResult struct {
	RunID             string               `json:"runID"`
	ProjectID         string               `json:"projectID"`
	Currency          string               `json:"currency"`
	Periods           []DistributionPeriod `json:"periods"`
	LineItems         []PeriodLineItem     `json:"lineItems"`
	DistributedLogIDs []string             `json:"distributedLogIDs"`
	HeldRecords       []HeldRecord         `json:"heldRecords"`
	DiscountRecords   []DiscountRecord     `json:"discountRecords"`
	PayrollEntries    []PayrollEntry       `json:"payrollEntries"`
	// PoolBalances are the pool balances after reduction.
	PoolBalances   PoolAmounts     `json:"poolBalances"`
	NegativeShares []ComputedShare `json:"negativeShares,omitempty"`
	CompletedSteps []CommitStep    `json:"completedSteps"`
	// Replayed is true when the idempotency key matched an earlier successful run
	// and nothing was written. The body is restored from the run journal; runs
	// journaled without a snapshot only carry RunID, ProjectID and period ids.
	Replayed bool `json:"replayed"`
}

// DistributionEvent is published after runs complete or need reconciliation.
type DistributionEvent struct {
	Type       string            `json:"type"`
	RunID      string            `json:"runID"`
	ProjectID  string            `json:"projectID"`
	Kind       RunKind           `json:"kind"`
	Status     RunStatus         `json:"status"`
	FailedStep CommitStep        `json:"failedStep,omitempty"`
	Message    string            `json:"message,omitempty"`
	ActorID    string            `json:"actorID,omitempty"`
	Attributes map[string]string `json:"attributes,omitempty"`
	OccurredAt time.Time         `json:"occurredAt"`
}

// Event types.
const (
	EventDistributionCommitted  = "distribution.committed"
	EventReconciliationRequired = "distribution.reconciliation_required"
)
