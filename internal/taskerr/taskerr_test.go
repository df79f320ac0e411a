package taskerr

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestOnlyLMTransientIsRetryable(t *testing.T) {
	t.Parallel()
	kinds := []Kind{
		KindInvalidInput, KindUnsupportedSource, KindSourceAcquisitionFailed,
		KindLMFatal, KindWorkflowCancelled, KindWorkflowTimeout,
		KindPersistenceFailed, KindQueueFull, KindInternal,
	}
	for _, k := range kinds {
		if k.Retryable() {
			t.Errorf("expected %q to be non-retryable", k)
		}
	}
	if !KindLMTransient.Retryable() {
		t.Fatal("expected lm_transient to be retryable")
	}
}

func TestOfExtractsWrappedTaskError(t *testing.T) {
	t.Parallel()
	inner := New(KindLMTransient, "chapter", "rate limited", 2, errors.New("429"))
	wrapped := fmt.Errorf("generating chapter 3: %w", inner)

	got, ok := Of(wrapped)
	if !ok {
		t.Fatal("expected Of to find the TaskError through fmt.Errorf wrapping")
	}
	if got != inner {
		t.Fatalf("expected Of to return the same TaskError instance, got %+v", got)
	}
}

func TestOfFailsForPlainError(t *testing.T) {
	t.Parallel()
	if _, ok := Of(errors.New("plain")); ok {
		t.Fatal("expected Of to report no TaskError for a plain error")
	}
}

func TestKindOfDefaultsToInternal(t *testing.T) {
	t.Parallel()
	if got := KindOf(errors.New("plain")); got != KindInternal {
		t.Fatalf("expected KindInternal for a non-taskerr error, got %q", got)
	}
	if got := KindOf(nil); got != KindInternal {
		t.Fatalf("expected KindInternal for a nil error, got %q", got)
	}
	tagged := New(KindQueueFull, "enqueue", "pool full", 0, nil)
	if got := KindOf(tagged); got != KindQueueFull {
		t.Fatalf("expected KindQueueFull, got %q", got)
	}
}

func TestErrorMessageIncludesCause(t *testing.T) {
	t.Parallel()
	cause := errors.New("connection reset")
	e := New(KindLMTransient, "outline", "request failed", 1, cause)
	msg := e.Error()
	if msg == "" {
		t.Fatal("expected a non-empty error message")
	}
	if !strings.Contains(msg, "connection reset") {
		t.Fatalf("expected the message to include the cause, got %q", msg)
	}
	if !errors.Is(e, cause) {
		t.Fatal("expected Unwrap to expose the cause via errors.Is")
	}
}

func TestErrorMessageWithoutCause(t *testing.T) {
	t.Parallel()
	e := New(KindInvalidInput, "validate", "missing field", 0, nil)
	if e.Unwrap() != nil {
		t.Fatal("expected Unwrap to return nil when there is no cause")
	}
	if e.Error() == "" {
		t.Fatal("expected a non-empty error message even without a cause")
	}
}
