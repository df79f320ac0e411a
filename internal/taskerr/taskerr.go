// Package taskerr implements the error-kind taxonomy a Task's error field
// carries: one Kind constant per failure kind and a single structured
// TaskError type, with New, Of and KindOf helpers, applied to task-level
// failure kinds rather than HTTP-vendor failures. It defines no sentinel
// error values.
package taskerr

import (
	"errors"
	"fmt"
)

// Kind is one taxonomy entry. It is a kind, not a Go type: every Kind is
// carried by the same TaskError struct.
type Kind string

const (
	KindInvalidInput            Kind = "invalid_input"
	KindUnsupportedSource       Kind = "unsupported_source"
	KindSourceAcquisitionFailed Kind = "source_acquisition_failed"
	KindLMTransient             Kind = "lm_transient"
	KindLMFatal                 Kind = "lm_fatal"
	KindWorkflowCancelled       Kind = "workflow_cancelled"
	KindWorkflowTimeout         Kind = "workflow_timeout"
	KindPersistenceFailed       Kind = "persistence_failed"
	KindQueueFull               Kind = "queue_full"
	KindInternal                Kind = "internal"
)

// Retryable reports whether Phase C/D's backoff loop should retry an error
// of this kind. Only lm_transient is retryable; every other kind terminates
// the run.
func (k Kind) Retryable() bool {
	return k == KindLMTransient
}

// TaskError is the structured failure a Task's error field carries.
type TaskError struct {
	Kind         Kind
	Message      string
	Stage        string
	AttemptCount int
	Cause        error
}

func (e *TaskError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s at %s (attempt %d): %s: %v", e.Kind, e.Stage, e.AttemptCount, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s at %s (attempt %d): %s", e.Kind, e.Stage, e.AttemptCount, e.Message)
}

func (e *TaskError) Unwrap() error { return e.Cause }

// New builds a TaskError of the given kind.
func New(kind Kind, stage, message string, attempt int, cause error) *TaskError {
	return &TaskError{Kind: kind, Stage: stage, Message: message, AttemptCount: attempt, Cause: cause}
}

// Of extracts the TaskError from err, if any is present in its chain.
func Of(err error) (*TaskError, bool) {
	var te *TaskError
	if errors.As(err, &te) {
		return te, true
	}
	return nil, false
}

// KindOf returns the Kind carried by err, or KindInternal if err carries no
// TaskError.
func KindOf(err error) Kind {
	if te, ok := Of(err); ok {
		return te.Kind
	}
	return KindInternal
}
