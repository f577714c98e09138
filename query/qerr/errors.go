// Package qerr defines the error kinds surfaced by the query pipeline.
//
// Parse, Semantic and Unsupported errors abort compilation and are meant for
// the caller's fallback path (typically re-running the raw SQL untouched).
// Execution errors wrap the driver message together with the offending SQL.
package qerr

import (
	"errors"
	"fmt"
)

// Kind sentinels for errors.Is matching.
var (
	ErrParse       = errors.New("parse error")
	ErrSemantic    = errors.New("semantic error")
	ErrUnsupported = errors.New("unsupported feature")
	ErrExecution   = errors.New("execution error")
)

// Parsef reports SQL that is not a recognizable single SELECT.
func Parsef(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrParse, fmt.Sprintf(format, args...))
}

// Semanticf reports SQL that parsed but is meaningless for the target.
func Semanticf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrSemantic, fmt.Sprintf(format, args...))
}

// Unsupportedf reports a feature not implemented for a dialect or executor.
func Unsupportedf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrUnsupported, fmt.Sprintf(format, args...))
}

// ExecutionError carries a runtime failure from a database driver together
// with the SQL that triggered it. Reason is the driver message verbatim.
type ExecutionError struct {
	Query  string
	Reason string
}

func (e *ExecutionError) Error() string {
	return fmt.Sprintf("execution error: %s - %s", e.Query, e.Reason)
}

func (e *ExecutionError) Is(target error) bool { return target == ErrExecution }

// Executionf wraps a driver error with its query text.
func Executionf(query string, cause error) error {
	return &ExecutionError{Query: query, Reason: cause.Error()}
}
