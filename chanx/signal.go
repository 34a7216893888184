package chanx

import "sync"

// Signal is a one-shot broadcast: a channel that is closed exactly once,
// no matter how many goroutines call [Signal.Fire].
//
// The zero value is not usable; create one with [NewSignal].
type Signal struct {
	ch   chan struct{}
	once sync.Once
}

// NewSignal creates an unfired Signal.
func NewSignal() *Signal {
	return &Signal{ch: make(chan struct{})}
}

// Fire closes the signal channel. It reports whether this call was the one
// that fired it; later calls are no-ops and return false.
func (s *Signal) Fire() bool {
	fired := false
	s.once.Do(func() {
		close(s.ch)
		fired = true
	})
	return fired
}

// Done returns a channel that is closed once the signal fires.
func (s *Signal) Done() <-chan struct{} {
	return s.ch
}

// Fired reports whether the signal has fired.
func (s *Signal) Fired() bool {
	select {
	case <-s.ch:
		return true
	default:
		return false
	}
}
