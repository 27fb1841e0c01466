package apperr

import (
	"context"
	"errors"
	"fmt"
)

// Kind classifies a failure so transports can map it without string matching.
type Kind string

const (
	KindValidation             Kind = "validation"
	KindNotFound               Kind = "not_found"
	KindInvalidTransition      Kind = "invalid_transition"
	KindConcurrentModification Kind = "concurrent_modification"
	KindInsufficientSubsidy    Kind = "insufficient_subsidy"
	KindDuplicateRequest       Kind = "duplicate_request"
	KindPersistenceFailure     Kind = "persistence_failure"
)

type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	switch {
	case e.Msg != "" && e.Err != nil:
		return e.Msg + ": " + e.Err.Error()
	case e.Msg != "":
		return e.Msg
	case e.Err != nil:
		return string(e.Kind) + ": " + e.Err.Error()
	}
	return string(e.Kind)
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches kind sentinels (Msg == "" and Err == nil) by kind; other
// targets fall back to identity through errors.Is.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t.Msg == "" && t.Err == nil {
		return t.Kind == e.Kind
	}
	return t == e
}

// Kind sentinels, usable with errors.Is.
var (
	ErrValidation             = &Error{Kind: KindValidation}
	ErrNotFound               = &Error{Kind: KindNotFound}
	ErrInvalidTransition      = &Error{Kind: KindInvalidTransition}
	ErrConcurrentModification = &Error{Kind: KindConcurrentModification}
	ErrInsufficientSubsidy    = &Error{Kind: KindInsufficientSubsidy}
	ErrDuplicateRequest       = &Error{Kind: KindDuplicateRequest}
	ErrPersistenceFailure     = &Error{Kind: KindPersistenceFailure}
)

func New(kind Kind, msg string) *Error { return &Error{Kind: kind, Msg: msg} }

func Newf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

func Wrap(kind Kind, msg string, err error) *Error { return &Error{Kind: kind, Msg: msg, Err: err} }

func Validation(format string, args ...any) *Error { return Newf(KindValidation, format, args...) }

// Persistence wraps a storage error as retryable. Context cancellation and
// deadline errors keep their identity so callers can still errors.Is them.
func Persistence(op string, err error) *Error {
	return Wrap(KindPersistenceFailure, op, err)
}

// KindOf reports the kind of err, or "" when err carries no *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return KindPersistenceFailure
	}
	return ""
}

// Retryable is true for failures a caller may retry with backoff.
func Retryable(err error) bool {
	switch KindOf(err) {
	case KindPersistenceFailure, KindConcurrentModification:
		return true
	}
	return false
}
