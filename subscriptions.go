package reactive

import (
	"errors"
	"io"
	"sync"
)

// Unsubscribe permanently severs one subscription link.
type Unsubscribe func()

// Once wraps u so that only its first invocation has any effect. The same
// wrapped handle may then be added to several registries: whichever
// disposes first runs u, the others find nothing left to do.
func Once(u Unsubscribe) Unsubscribe {
	if u == nil {
		return func() {}
	}
	return Unsubscribe(sync.OnceFunc(u))
}

// SubscriptionTarget is implemented by anything that owns the registry of
// subscriptions it has accepted.
type SubscriptionTarget interface {
	Subscriptions() *Subscriptions
}

// Subscriptions is a concurrency-safe, insertion-ordered set of teardown
// handles. Every handle ever added runs exactly once over the registry's
// lifetime, provided Dispose is called at least once after it was added.
//
// The zero value is ready to use. A Subscriptions must not be copied
// after first use.
type Subscriptions struct {
	mu      sync.Mutex
	handles []func() error
}

// Subscriptions returns s itself, so a bare registry satisfies
// [SubscriptionTarget].
func (s *Subscriptions) Subscriptions() *Subscriptions {
	return s
}

// Add registers u to run on the next Dispose. It never blocks on a
// disposal in progress beyond the brief swap of the handle list.
func (s *Subscriptions) Add(u Unsubscribe) {
	if u == nil {
		return
	}
	s.add(func() error {
		u()
		return nil
	})
}

// AddCloser registers c.Close to run on the next Dispose. An error from
// Close is reported by Dispose.
func (s *Subscriptions) AddCloser(c io.Closer) {
	if c == nil {
		return
	}
	s.add(c.Close)
}

func (s *Subscriptions) add(fn func() error) {
	s.mu.Lock()
	s.handles = append(s.handles, fn)
	s.mu.Unlock()
}

// Len returns the number of handles waiting for the next Dispose.
func (s *Subscriptions) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.handles)
}

// Dispose takes every handle currently registered, leaves the registry
// empty, and runs the handles in insertion order outside the lock, so a
// handle may itself call Add or Dispose. Handles added while a pass is
// running wait for the next pass.
//
// A failing handle, by error or by panic, never prevents the rest from
// running: each failure is wrapped in a [*TeardownError] and all of them
// are returned joined. Dispose on an empty registry is a no-op.
func (s *Subscriptions) Dispose() error {
	s.mu.Lock()
	handles := s.handles
	s.handles = nil
	s.mu.Unlock()

	var errs []error
	for i, h := range handles {
		if err := safeCall(h); err != nil {
			errs = append(errs, &TeardownError{Index: i, Err: err})
		}
	}
	return errors.Join(errs...)
}

// Close is Dispose, making a registry an io.Closer that can itself be
// added to another registry.
func (s *Subscriptions) Close() error {
	return s.Dispose()
}
