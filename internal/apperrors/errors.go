package apperrors

import (
	"errors"
	"fmt"
)

// ErrNotFound indicates that a requested resource could not be found.
var ErrNotFound = errors.New("resource not found")

// ErrValidation indicates that input data failed validation checks.
var ErrValidation = errors.New("validation error")

// ErrDuplicate indicates that an attempt was made to create a resource that already exists.
var ErrDuplicate = errors.New("resource already exists")

// Distribution validation failures. These are detected before any write and are
// safe to retry once the caller fixes the input.
var (
	ErrSelectionStale       = errors.New("selection is stale")
	ErrSelectionExceedsPool = errors.New("selection exceeds available pool")
	ErrPartitionIncomplete  = errors.New("percentages do not sum to 100")
	ErrAccountMissing       = errors.New("participant account missing")
)

// Distribution write failures.
var (
	// ErrStepWrite is returned when a ledger write inside a commit fails.
	ErrStepWrite = errors.New("distribution step failed")

	// ErrPartialSuccess marks the window where allocations exist but the source
	// logs were not flagged as consumed. Never retry blindly.
	ErrPartialSuccess = errors.New("distribution partially applied")
)

// Run coordination failures.
var (
	ErrDistributionInProgress = errors.New("another distribution is running for this project")
	ErrRunAlreadyAttempted    = errors.New("distribution run already attempted with this idempotency key")
)

// AppError carries an HTTP-ish status code for infrastructure failures.
type AppError struct {
	Code    int
	Message string
	Err     error
}

// NewAppError wraps err with a code and message.
func NewAppError(code int, message string, err error) *AppError {
	return &AppError{Code: code, Message: message, Err: err}
}

func (e *AppError) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return fmt.Sprintf("%s: %v", e.Message, e.Err)
}

func (e *AppError) Unwrap() error {
	return e.Err
}
