// Package exception provides the typed error used across the flightprep
// pipeline. A PipelineError records the stage it came from, a human message,
// the wrapped cause and whether the failure is worth retrying (transient
// network problems are, schema mismatches are not).
package exception

import (
	"errors"
	"fmt"
	"runtime"
	"strings"
)

// PipelineError is the common error type for pipeline stages.
type PipelineError struct {
	// Stage is the pipeline stage or package where the error occurred.
	Stage string
	// Message is a human-readable description of the failure.
	Message string
	// OriginalErr is the wrapped cause, when present.
	OriginalErr error

	isRetryable bool
	// StackTrace is captured at construction for post-mortem logging.
	StackTrace string
}

// NewPipelineError creates a new PipelineError.
// isRetryable marks failures that a retry policy may attempt again.
func NewPipelineError(stage, message string, originalErr error, isRetryable bool) *PipelineError {
	buf := make([]byte, 2048)
	n := runtime.Stack(buf, false)

	return &PipelineError{
		Stage:       stage,
		Message:     message,
		OriginalErr: originalErr,
		isRetryable: isRetryable,
		StackTrace:  string(buf[:n]),
	}
}

// NewSchemaError creates a non-retryable PipelineError for schema or
// configuration mismatches (e.g. a required column is missing). These fail
// fast and must name the alternatives that were tried.
func NewSchemaError(stage, message string, originalErr error) *PipelineError {
	return NewPipelineError(stage, message, originalErr, false)
}

// NewTransientError creates a retryable PipelineError for failures expected
// to clear on a later attempt (connection errors, read timeouts, truncated
// transfers).
func NewTransientError(stage, message string, originalErr error) *PipelineError {
	return NewPipelineError(stage, message, originalErr, true)
}

// Error implements the error interface.
func (e *PipelineError) Error() string {
	if e.OriginalErr != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Stage, e.Message, e.OriginalErr)
	}
	return fmt.Sprintf("[%s] %s", e.Stage, e.Message)
}

// Unwrap returns the original error for errors.Unwrap.
func (e *PipelineError) Unwrap() error {
	return e.OriginalErr
}

// IsRetryable returns whether this error is retryable.
func (e *PipelineError) IsRetryable() bool {
	return e.isRetryable
}

// IsPipelineError determines if the given error is of type PipelineError.
func IsPipelineError(err error) bool {
	var pe *PipelineError
	return errors.As(err, &pe)
}

// IsTemporary determines whether an error looks transient. The IsRetryable
// flag of a PipelineError takes precedence; otherwise a few well-known
// transport failure substrings are matched.
func IsTemporary(err error) bool {
	if err == nil {
		return false
	}
	var pe *PipelineError
	if errors.As(err, &pe) {
		return pe.IsRetryable()
	}
	errStr := err.Error()
	return strings.Contains(errStr, "timeout") ||
		strings.Contains(errStr, "connection refused") ||
		strings.Contains(errStr, "connection reset") ||
		strings.Contains(errStr, "unexpected EOF")
}
