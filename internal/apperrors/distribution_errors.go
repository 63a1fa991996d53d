package apperrors

import (
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

// Severity classifies a failed commit for the caller.
type Severity string

const (
	SeverityError   Severity = "ERROR"
	SeverityPartial Severity = "PARTIAL"
)

// SelectionStaleError lists the log ids that can no longer be distributed,
// keyed by id with a short reason ("not found", "already distributed", ...).
type SelectionStaleError struct {
	Problems map[string]string
}

func (e *SelectionStaleError) Error() string {
	return fmt.Sprintf("%s: %s", ErrSelectionStale.Error(), strings.Join(e.describe(), ", "))
}

func (e *SelectionStaleError) Unwrap() error { return ErrSelectionStale }

// IDs returns the offending log ids in a stable order.
func (e *SelectionStaleError) IDs() []string {
	ids := make([]string, 0, len(e.Problems))
	for id := range e.Problems {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func (e *SelectionStaleError) describe() []string {
	ids := e.IDs()
	parts := make([]string, 0, len(ids))
	for _, id := range ids {
		parts = append(parts, id+" ("+e.Problems[id]+")")
	}
	return parts
}

// SelectionExceedsPoolError reports a selection larger than the pools it draws on.
type SelectionExceedsPoolError struct {
	Selected  decimal.Decimal
	Available decimal.Decimal
}

func (e *SelectionExceedsPoolError) Error() string {
	return fmt.Sprintf("%s: selected %s, available %s", ErrSelectionExceedsPool.Error(), e.Selected.StringFixed(2), e.Available.StringFixed(2))
}

func (e *SelectionExceedsPoolError) Unwrap() error { return ErrSelectionExceedsPool }

// PartitionError reports the signed deviation of a percentage sum from 100.
// Scope names the partition that failed (e.g. a map item); empty means the whole run.
type PartitionError struct {
	Scope     string
	Total     decimal.Decimal
	Deviation decimal.Decimal
}

func (e *PartitionError) Error() string {
	msg := fmt.Sprintf("%s: total %s, deviation %s", ErrPartitionIncomplete.Error(), e.Total.String(), e.Deviation.String())
	if e.Scope != "" {
		msg = e.Scope + ": " + msg
	}
	return msg
}

func (e *PartitionError) Unwrap() error { return ErrPartitionIncomplete }

// AccountMissingError lists participants without an account in the run currency.
type AccountMissingError struct {
	Currency    string
	EmployeeIDs []string
	// CompanyKinds holds the missing company account kinds (main, discount, held).
	CompanyKinds []string
}

func (e *AccountMissingError) Error() string {
	var parts []string
	if len(e.EmployeeIDs) > 0 {
		parts = append(parts, "employees ["+strings.Join(e.EmployeeIDs, ", ")+"]")
	}
	if len(e.CompanyKinds) > 0 {
		parts = append(parts, "company ["+strings.Join(e.CompanyKinds, ", ")+"]")
	}
	return fmt.Sprintf("%s in %s: %s", ErrAccountMissing.Error(), e.Currency, strings.Join(parts, "; "))
}

func (e *AccountMissingError) Unwrap() error { return ErrAccountMissing }

// StepError is returned by a commit that failed while writing to the ledger.
type StepError struct {
	Step     string
	Severity Severity
	Message  string
	// RolledBack is true when the run executed inside a database transaction
	// and nothing it wrote was kept.
	RolledBack bool
	Err        error
}

func (e *StepError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("step %s: %s", e.Step, e.Message)
	}
	return fmt.Sprintf("step %s: %s: %v", e.Step, e.Message, e.Err)
}

// Unwrap exposes both the classification sentinel and the underlying cause.
func (e *StepError) Unwrap() []error {
	sentinel := ErrStepWrite
	if e.Severity == SeverityPartial {
		sentinel = ErrPartialSuccess
	}
	if e.Err == nil {
		return []error{sentinel}
	}
	return []error{sentinel, e.Err}
}
