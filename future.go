package reactive

import (
	"context"
	"sync"
)

// Future holds a value that is produced exactly once, possibly by one of
// several goroutines racing to produce it. The first call to resolve wins;
// every later call is a no-op.
//
// [Match] returns a Future of [MatchOutcome].
type Future[T any] struct {
	once sync.Once
	done chan struct{}
	val  T
}

func newFuture[T any]() *Future[T] {
	return &Future[T]{done: make(chan struct{})}
}

// Resolved returns a Future that already holds v.
func Resolved[T any](v T) *Future[T] {
	f := newFuture[T]()
	f.resolve(v)
	return f
}

// resolve stores v if the future is still pending and reports whether it did.
func (f *Future[T]) resolve(v T) bool {
	won := false
	f.once.Do(func() {
		f.val = v
		close(f.done)
		won = true
	})
	return won
}

// Done returns a channel that is closed when the future is resolved.
func (f *Future[T]) Done() <-chan struct{} {
	return f.done
}

// Wait blocks until the future is resolved and returns its value.
func (f *Future[T]) Wait() T {
	<-f.done
	return f.val
}

// WaitContext blocks until the future is resolved or ctx ends.
// Giving up on the wait does not affect the future.
func (f *Future[T]) WaitContext(ctx context.Context) (T, error) {
	select {
	case <-f.done:
		return f.val, nil
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// TryGet returns the value without blocking. The boolean is false while
// the future is pending.
func (f *Future[T]) TryGet() (T, bool) {
	select {
	case <-f.done:
		return f.val, true
	default:
		var zero T
		return zero, false
	}
}
