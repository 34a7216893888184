// Package chanx provides the small channel building blocks the reactive
// package is made of.
//
// Go channels have sharp edges: sends to closed channels panic, blocked
// sends leak goroutines, and closing a channel twice panics. chanx keeps
// those concerns in one place:
//
//   - [Send]: a send that unblocks when a context is canceled or a stop
//     channel fires, so a producer blocked on a slow consumer can be
//     released by that consumer leaving.
//   - [Recv]: a context-aware receive.
//   - [Signal]: a close-once broadcast channel, safe to fire from any
//     number of goroutines.
package chanx

import "errors"

// ErrStopped is returned by [Send] when the stop channel fired before the
// value could be delivered.
var ErrStopped = errors.New("chanx: receiver stopped")
