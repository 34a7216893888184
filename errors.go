package reactive

import (
	"errors"
	"fmt"
)

// ErrFeedClosed is returned by [Feed.Send] once the feed has terminated.
var ErrFeedClosed = errors.New("reactive: feed closed")

// HandlerError wraps a failed event handler invocation together with the
// subscription and event it belongs to.
type HandlerError struct {
	SubscriptionID string
	Event          any
	Err            error
}

func (e *HandlerError) Error() string {
	return fmt.Sprintf("subscription %s: handler for %T failed: %v", e.SubscriptionID, e.Event, e.Err)
}

func (e *HandlerError) Unwrap() error {
	return e.Err
}

// TeardownError wraps a failed teardown from [Subscriptions.Dispose].
// Index is the position of the handle within that disposal pass.
type TeardownError struct {
	Index int
	Err   error
}

func (e *TeardownError) Error() string {
	return fmt.Sprintf("teardown #%d failed: %v", e.Index, e.Err)
}

func (e *TeardownError) Unwrap() error {
	return e.Err
}

// IsHandlerError reports whether err (or any error in its chain) is a [*HandlerError].
func IsHandlerError(err error) bool {
	if err == nil {
		return false
	}
	var he *HandlerError
	return errors.As(err, &he)
}

// AllTeardownErrors recursively collects every [*TeardownError] from err's
// chain, including errors joined by [Subscriptions.Dispose]. Returns nil
// if none are found.
func AllTeardownErrors(err error) []*TeardownError {
	if err == nil {
		return nil
	}

	var out []*TeardownError
	collectTeardownErrors(err, &out)
	return out
}

func collectTeardownErrors(err error, out *[]*TeardownError) {
	switch e := err.(type) {
	case *TeardownError:
		*out = append(*out, e)

	case interface{ Unwrap() []error }:
		for _, sub := range e.Unwrap() {
			collectTeardownErrors(sub, out)
		}

	case interface{ Unwrap() error }:
		collectTeardownErrors(e.Unwrap(), out)
	}
}
