package apperr

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

func TestIs_MatchesKindSentinel(t *testing.T) {
	err := New(KindNotFound, "loan not found")
	wrapped := fmt.Errorf("get: %w", err)

	if !errors.Is(wrapped, ErrNotFound) {
		t.Fatalf("expected wrapped error to match ErrNotFound")
	}
	if errors.Is(wrapped, ErrValidation) {
		t.Fatalf("not_found must not match validation")
	}
	if !errors.Is(wrapped, err) {
		t.Fatalf("expected identity match")
	}
}

func TestIs_DistinctMessagesDoNotMatch(t *testing.T) {
	a := New(KindNotFound, "loan not found")
	b := New(KindNotFound, "payment not found")
	if errors.Is(a, b) {
		t.Fatalf("distinct domain errors must not match each other")
	}
}

func TestPersistence_UnwrapsCause(t *testing.T) {
	err := Persistence("save loan", context.DeadlineExceeded)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("cause lost: %v", err)
	}
	if KindOf(err) != KindPersistenceFailure {
		t.Fatalf("kind=%s", KindOf(err))
	}
	if !Retryable(err) {
		t.Fatalf("persistence failures are retryable")
	}
	if got := err.Error(); got != "save loan: context deadline exceeded" {
		t.Fatalf("message=%q", got)
	}
}

func TestKindOf_PlainErrors(t *testing.T) {
	if KindOf(errors.New("x")) != "" {
		t.Fatalf("plain error has no kind")
	}
	if KindOf(context.DeadlineExceeded) != KindPersistenceFailure {
		t.Fatalf("deadline maps to persistence failure")
	}
	if Retryable(Validation("bad amount")) {
		t.Fatalf("validation is not retryable")
	}
}
