package reactive

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrCanceled matches every [MatchFailure] of kind [FailureCanceled].
	ErrCanceled = errors.New("reactive: match canceled")

	// ErrCompletedWithoutMatch matches every [MatchFailure] of kind
	// [FailureCompletedWithoutMatch].
	ErrCompletedWithoutMatch = errors.New("reactive: source completed without match")

	// ErrExceptionOccurred matches every [MatchFailure] of kind
	// [FailureExceptionOccurred].
	ErrExceptionOccurred = errors.New("reactive: match failed")
)

// FailureKind classifies why a match produced no value.
type FailureKind int

const (
	// FailureCanceled means the cancellation fired before a match.
	FailureCanceled FailureKind = iota + 1

	// FailureExceptionOccurred means the predicate panicked or the change
	// feed terminated with an error.
	FailureExceptionOccurred

	// FailureCompletedWithoutMatch means the change feed closed normally
	// and no evaluation ever matched.
	FailureCompletedWithoutMatch
)

func (k FailureKind) String() string {
	switch k {
	case FailureCanceled:
		return "canceled"
	case FailureExceptionOccurred:
		return "exception"
	case FailureCompletedWithoutMatch:
		return "completed-without-match"
	default:
		return "unknown"
	}
}

// MatchFailure is the failure side of a [MatchOutcome].
//
// Reason is set only for [FailureCanceled]; Err only for
// [FailureExceptionOccurred].
type MatchFailure struct {
	Kind   FailureKind
	Reason CancelReason
	Err    error
}

func canceledFailure(reason CancelReason) *MatchFailure {
	return &MatchFailure{Kind: FailureCanceled, Reason: reason}
}

func exceptionFailure(err error) *MatchFailure {
	return &MatchFailure{Kind: FailureExceptionOccurred, Err: err}
}

func completedFailure() *MatchFailure {
	return &MatchFailure{Kind: FailureCompletedWithoutMatch}
}

func (f *MatchFailure) Error() string {
	switch f.Kind {
	case FailureCanceled:
		return fmt.Sprintf("reactive: match canceled (%s)", f.Reason)
	case FailureExceptionOccurred:
		return fmt.Sprintf("reactive: match failed: %v", f.Err)
	case FailureCompletedWithoutMatch:
		return ErrCompletedWithoutMatch.Error()
	default:
		return "reactive: match failed"
	}
}

func (f *MatchFailure) Unwrap() error {
	return f.Err
}

// Is lets errors.Is compare failures by kind. A timeout cancellation also
// matches context.DeadlineExceeded, any other cancellation context.Canceled.
func (f *MatchFailure) Is(target error) bool {
	switch f.Kind {
	case FailureCanceled:
		switch target {
		case ErrCanceled:
			return true
		case context.DeadlineExceeded:
			return f.Reason == ReasonTimeout
		case context.Canceled:
			return f.Reason != ReasonTimeout
		}
	case FailureExceptionOccurred:
		return target == ErrExceptionOccurred
	case FailureCompletedWithoutMatch:
		return target == ErrCompletedWithoutMatch
	}
	return false
}

// MatchOutcome is the single terminal value of a [Match]: either a value
// derived by the match function or a [*MatchFailure]. It is immutable.
type MatchOutcome[T any] struct {
	value   T
	failure *MatchFailure
}

// Success returns a successful outcome holding v.
func Success[T any](v T) MatchOutcome[T] {
	return MatchOutcome[T]{value: v}
}

// Failed returns a failed outcome. It panics if f is nil.
func Failed[T any](f *MatchFailure) MatchOutcome[T] {
	if f == nil {
		panic("reactive: Failed requires a non-nil failure")
	}
	return MatchOutcome[T]{failure: f}
}

// IsSuccess reports whether the outcome holds a value.
func (o MatchOutcome[T]) IsSuccess() bool {
	return o.failure == nil
}

// Value returns the matched value, or the zero value for a failure.
func (o MatchOutcome[T]) Value() T {
	return o.value
}

// Failure returns the failure, or nil for a success.
func (o MatchOutcome[T]) Failure() *MatchFailure {
	return o.failure
}

// Get returns the value and a nil error on success, or the zero value and
// the [*MatchFailure] otherwise.
func (o MatchOutcome[T]) Get() (T, error) {
	if o.failure != nil {
		var zero T
		return zero, o.failure
	}
	return o.value, nil
}

// Kind returns a short label for the outcome: "success" or the failure kind.
func (o MatchOutcome[T]) Kind() string {
	if o.failure == nil {
		return "success"
	}
	return o.failure.Kind.String()
}

func (o MatchOutcome[T]) String() string {
	if o.failure == nil {
		return fmt.Sprintf("Success(%v)", o.value)
	}
	return fmt.Sprintf("Failure(%v)", o.failure)
}
