package agent

import (
	"errors"
	"fmt"
)

// Sentinel errors for precondition and selection failures.
var (
	ErrMissingPrompt       = errors.New("missing prompt")
	ErrNotPrintMode        = errors.New("non-interactive execution required")
	ErrMissingCredential   = errors.New("missing credential")
	ErrInvalidOutputFormat = errors.New("invalid output format")
	ErrEmptySelection      = errors.New("no matching files")
	ErrBudgetExhausted     = errors.New("budget exhausted")
	ErrBlocked             = errors.New("blocked by hook")
)

// PreconditionError reports a request rejected before any backend call.
type PreconditionError struct {
	Err  error
	Hint string
}

func (e *PreconditionError) Error() string {
	if e.Hint != "" {
		return fmt.Sprintf("%s: %s", e.Err, e.Hint)
	}
	return e.Err.Error()
}

func (e *PreconditionError) Unwrap() error {
	return e.Err
}

// EmptySelectionError indicates a batch pattern matched nothing.
type EmptySelectionError struct {
	Pattern string
}

func (e *EmptySelectionError) Error() string {
	return fmt.Sprintf("no files match %q", e.Pattern)
}

func (e *EmptySelectionError) Unwrap() error {
	return ErrEmptySelection
}

// BackendError wraps a failure surfaced by the backend.
type BackendError struct {
	Cause error
	Op    string
}

func (e *BackendError) Error() string {
	return fmt.Sprintf("backend %s: %v", e.Op, e.Cause)
}

func (e *BackendError) Unwrap() error {
	return e.Cause
}

// StreamError is reported by Stream.Err after an error event.
type StreamError struct {
	EventID string
	Message string
}

func (e *StreamError) Error() string {
	return "stream error: " + e.Message
}

// ExitCode maps an error to a process exit code.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	return 1
}
