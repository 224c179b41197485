// Error taxonomy for capability dispatch.
//
// Validation and unknown-capability failures are fatal for a call and never
// retried; timeouts and transient executor failures are retried up to the
// configured cap and then surfaced wrapped in an ExecutionError.

package tools

import (
	"context"
	"errors"
	"fmt"
)

// ValidationError reports arguments that failed schema validation.
// Never retried; the field name is part of the user-facing message.
type ValidationError struct {
	Capability string
	Field      string
	Reason     string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid argument %q for capability %q: %s", e.Field, e.Capability, e.Reason)
}

// UnknownCapabilityError reports a call to an unregistered capability.
type UnknownCapabilityError struct {
	Name string
}

// Error implements the error interface.
func (e *UnknownCapabilityError) Error() string {
	return fmt.Sprintf("unknown capability %q", e.Name)
}

// ExecutionError wraps the last attempt's error once retries are exhausted.
type ExecutionError struct {
	Capability string
	Attempts   int
	Err        error
}

// Error implements the error interface.
func (e *ExecutionError) Error() string {
	return fmt.Sprintf("capability %q failed after %d attempts: %v", e.Capability, e.Attempts, e.Err)
}

// Unwrap exposes the last attempt's error to errors.Is/As.
func (e *ExecutionError) Unwrap() error {
	return e.Err
}

// Fatal marks an executor error as not worth retrying.
// Executors wrap errors with it when another attempt cannot succeed.
func Fatal(err error) error {
	return &fatalError{err: err}
}

type fatalError struct {
	err error
}

func (e *fatalError) Error() string { return e.err.Error() }
func (e *fatalError) Unwrap() error { return e.err }

// retryable classifies an executor error. Timeouts and transient failures
// are retried; anything explicitly marked fatal is not.
func retryable(err error) bool {
	var fatal *fatalError
	if errors.As(err, &fatal) {
		return false
	}
	var validation *ValidationError
	if errors.As(err, &validation) {
		return false
	}
	// Deadline overruns come back as context errors from the
	// per-attempt timeout; a cancelled parent context is terminal.
	if errors.Is(err, context.Canceled) {
		return false
	}
	return true
}

// isTimeout reports whether err is a per-attempt deadline overrun.
func isTimeout(err error) bool {
	return errors.Is(err, context.DeadlineExceeded)
}
