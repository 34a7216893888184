package reactive

import (
	"context"
	"errors"
	"slices"
	"sync"

	"github.com/baxromumarov/reactive/chanx"
)

// Feed is a producer-owned push source. Every value passed to Send is
// delivered to every current subscriber, in the same order for all of
// them. A feed ends exactly once, either normally via Close or with an
// error via Fail.
//
// Each subscriber has a bounded buffer (see [WithBuffer]). When a buffer is
// full, Send blocks until that subscriber catches up, unsubscribes, or the
// send context ends: a slow subscriber delays the producer, it never loses
// values.
type Feed[T any] struct {
	// sendMu serializes Send and termination so that all subscribers
	// observe one total order and nothing is sent after a channel closes.
	sendMu sync.Mutex

	mu   sync.Mutex
	subs []*FeedSubscription[T]
	done bool
	err  error

	closing    *chanx.Signal
	bufferSize int
}

// NewFeed creates an open feed. Only [WithBuffer] is read from opts.
func NewFeed[T any](opts ...Option) *Feed[T] {
	cfg := newConfig(opts)
	return &Feed[T]{
		closing:    chanx.NewSignal(),
		bufferSize: cfg.bufferSize,
	}
}

// Send delivers v to every current subscriber. It returns [ErrFeedClosed]
// if the feed has terminated (or terminates while Send is blocked), or the
// context error if ctx ends first; subscribers already served keep v.
func (f *Feed[T]) Send(ctx context.Context, v T) error {
	f.sendMu.Lock()
	defer f.sendMu.Unlock()

	f.mu.Lock()
	if f.done {
		f.mu.Unlock()
		return ErrFeedClosed
	}
	subs := slices.Clone(f.subs)
	f.mu.Unlock()

	for _, s := range subs {
		err := chanx.Send(ctx, s.ch, v, s.abort.Done())
		switch {
		case err == nil:
		case errors.Is(err, chanx.ErrStopped):
			if f.closing.Fired() {
				return ErrFeedClosed
			}
			// the subscriber left while we waited on it
		default:
			return err
		}
	}
	return nil
}

// Close ends the feed normally. Subscribers receive everything already
// buffered, then see their channel closed with a nil [FeedSubscription.Err].
// Only the first Close or Fail has an effect.
func (f *Feed[T]) Close() {
	f.terminate(nil)
}

// Fail ends the feed with err. Subscribers receive everything already
// buffered, then see their channel closed with Err() == err. Only the first
// Close or Fail has an effect. A nil err is the same as Close.
func (f *Feed[T]) Fail(err error) {
	f.terminate(err)
}

func (f *Feed[T]) terminate(err error) {
	if !f.closing.Fire() {
		return
	}

	// Release any Send blocked on a full subscriber before taking sendMu.
	f.mu.Lock()
	for _, s := range f.subs {
		s.abort.Fire()
	}
	f.mu.Unlock()

	f.sendMu.Lock()
	defer f.sendMu.Unlock()

	f.mu.Lock()
	f.done = true
	f.err = err
	subs := f.subs
	f.subs = nil
	f.mu.Unlock()

	for _, s := range subs {
		s.finish(err)
	}
}

// Subscribe registers a new subscriber that receives every value sent from
// now on. Subscribing to a terminated feed returns a subscription whose
// channel is already closed and whose Err reports the feed's terminal error.
func (f *Feed[T]) Subscribe() *FeedSubscription[T] {
	s := &FeedSubscription[T]{
		feed:  f,
		ch:    make(chan T, f.bufferSize),
		unsub: chanx.NewSignal(),
		abort: chanx.NewSignal(),
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if f.done {
		s.finish(f.err)
		return s
	}
	if f.closing.Fired() {
		s.abort.Fire()
	}
	f.subs = append(f.subs, s)
	return s
}

// Len returns the number of current subscribers.
func (f *Feed[T]) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()

	return len(f.subs)
}

// Closed reports whether Close or Fail has been called.
func (f *Feed[T]) Closed() bool {
	return f.closing.Fired()
}

func (f *Feed[T]) remove(s *FeedSubscription[T]) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if i := slices.Index(f.subs, s); i >= 0 {
		f.subs = slices.Delete(f.subs, i, i+1)
	}
}

// FeedSubscription is one subscriber's view of a [Feed].
type FeedSubscription[T any] struct {
	feed *Feed[T]
	ch   chan T
	err  error

	unsub *chanx.Signal // fired by Unsubscribe
	abort *chanx.Signal // fired by Unsubscribe or feed termination; releases blocked sends
}

// C returns the delivery channel. It is closed after the feed terminates
// and every buffered value has been queued; it is not closed by
// Unsubscribe, so consumers should also select on [FeedSubscription.Done].
func (s *FeedSubscription[T]) C() <-chan T {
	return s.ch
}

// Err returns the feed's terminal error. It is meaningful only after C
// has been closed: nil means the feed completed normally.
func (s *FeedSubscription[T]) Err() error {
	return s.err
}

// Done returns a channel that is closed once Unsubscribe has been called.
func (s *FeedSubscription[T]) Done() <-chan struct{} {
	return s.unsub.Done()
}

// Unsubscribe stops delivery to this subscriber. It is safe to call any
// number of times from any goroutine, including while the producer is
// blocked sending to this subscriber.
func (s *FeedSubscription[T]) Unsubscribe() {
	if !s.unsub.Fire() {
		return
	}
	s.abort.Fire()
	s.feed.remove(s)
}

func (s *FeedSubscription[T]) finish(err error) {
	s.err = err
	close(s.ch)
}
