package apperr

import (
	"errors"
	"fmt"
)

// Sentinel errors shared across the service layers.
var (
	// ErrNotFound covers both genuinely absent entities and entities
	// belonging to another organization. The two cases must be
	// indistinguishable to callers.
	ErrNotFound = errors.New("resource not found")

	// ErrAccessDenied means the caller is authenticated but not
	// entitled to the resource, e.g. a tenant reading another
	// tenant's ledger.
	ErrAccessDenied = errors.New("access denied")

	// ErrMutationForbidden is returned for any attempt to update or
	// delete an append-only record.
	ErrMutationForbidden = errors.New("ledger records are immutable and cannot be modified or deleted")
)

// ValidationError reports malformed input such as a non-positive earn
// amount or a missing adjustment memo.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string {
	return e.Msg
}

// Validation builds a ValidationError with a formatted message.
func Validation(format string, args ...interface{}) error {
	return &ValidationError{Msg: fmt.Sprintf(format, args...)}
}

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// InsufficientBalanceError is returned when a redemption exceeds the
// derived balance. Both figures are disclosed to the caller.
type InsufficientBalanceError struct {
	Balance   int64
	Requested int64
}

func (e *InsufficientBalanceError) Error() string {
	return fmt.Sprintf("insufficient balance: current balance %d, redemption amount %d", e.Balance, e.Requested)
}

// TransientError wraps a retryable infrastructure failure. The job
// queue retries these per its backoff policy; the synchronous path
// surfaces them to the caller without retrying.
type TransientError struct {
	Err error
}

func (e *TransientError) Error() string {
	return "transient store error: " + e.Err.Error()
}

func (e *TransientError) Unwrap() error {
	return e.Err
}

// Transient wraps err as a TransientError. A nil err returns nil.
func Transient(err error) error {
	if err == nil {
		return nil
	}
	return &TransientError{Err: err}
}

// IsTransient reports whether err is retryable.
func IsTransient(err error) bool {
	var te *TransientError
	return errors.As(err, &te)
}
