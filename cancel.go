package reactive

import (
	"context"
	"errors"
	"time"
)

// CancelReason tells why a context was canceled.
type CancelReason int

const (
	// ReasonNone means the context has not been canceled.
	ReasonNone CancelReason = iota

	// ReasonTimeout means a deadline expired.
	ReasonTimeout

	// ReasonManual means the holder canceled explicitly.
	ReasonManual

	// ReasonParent means the context was canceled with a cause this
	// package does not know, usually by a parent.
	ReasonParent
)

func (r CancelReason) String() string {
	switch r {
	case ReasonNone:
		return "none"
	case ReasonTimeout:
		return "timeout"
	case ReasonManual:
		return "manual"
	case ReasonParent:
		return "parent"
	default:
		return "unknown"
	}
}

// CancelError is the context cause recorded by [WithTimeout] and [WithCancel].
type CancelError struct {
	Reason CancelReason
}

func (e *CancelError) Error() string {
	return "reactive: canceled (" + e.Reason.String() + ")"
}

// Is makes a timeout cause match context.DeadlineExceeded and any other
// reason match context.Canceled.
func (e *CancelError) Is(target error) bool {
	if e.Reason == ReasonTimeout {
		return target == context.DeadlineExceeded
	}
	return target == context.Canceled
}

// WithTimeout returns a context that is canceled with [ReasonTimeout] once d
// elapses. Calling the returned cancel func first records [ReasonManual].
func WithTimeout(parent context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	timed, stop := context.WithTimeoutCause(parent, d, &CancelError{Reason: ReasonTimeout})
	ctx, cancel := context.WithCancelCause(timed)
	return ctx, func() {
		cancel(&CancelError{Reason: ReasonManual})
		stop()
	}
}

// WithCancel returns a context whose cancel func records [ReasonManual].
func WithCancel(parent context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancelCause(parent)
	return ctx, func() { cancel(&CancelError{Reason: ReasonManual}) }
}

// ReasonOf reports why ctx was canceled, or [ReasonNone] if it is still live.
func ReasonOf(ctx context.Context) CancelReason {
	if ctx.Err() == nil {
		return ReasonNone
	}

	cause := context.Cause(ctx)
	var ce *CancelError
	switch {
	case errors.As(cause, &ce):
		return ce.Reason
	case errors.Is(cause, context.DeadlineExceeded):
		return ReasonTimeout
	case cause == context.Canceled:
		return ReasonManual
	default:
		return ReasonParent
	}
}

// Register arranges for fn to run at most once, on its own goroutine, when
// ctx is canceled. The returned release func detaches fn; it reports
// whether fn was detached before it started. Release is safe to call any
// number of times, including from inside fn.
//
// A context that can never be canceled registers nothing.
func Register(ctx context.Context, fn func(CancelReason)) (release func() bool) {
	if ctx.Done() == nil {
		return func() bool { return true }
	}
	return context.AfterFunc(ctx, func() {
		fn(ReasonOf(ctx))
	})
}
