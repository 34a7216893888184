package reactive

import (
	"context"
	"sync"

	"github.com/sirupsen/logrus"
)

// MatchFunc inspects a snapshot and either derives a value from it or
// reports no match by returning false. Returning false is the normal
// "not yet" answer; only a panic counts as a fault.
type MatchFunc[E, R any] func(items []E) (R, bool)

// Match waits for src to satisfy fn and returns a future that resolves
// exactly once with the first of:
//
//   - Success(v): fn matched, either on the snapshot at call time or on
//     the snapshot after some later mutation.
//   - [FailureCompletedWithoutMatch]: the change feed closed normally first.
//   - [FailureExceptionOccurred]: the change feed failed, or fn panicked.
//   - [FailureCanceled]: ctx was canceled first; the failure's Reason comes
//     from [ReasonOf], so a deadline reports [ReasonTimeout].
//
// fn is first evaluated on the caller's goroutine, after the change feed
// subscription is live, so no mutation can slip between the two. Later
// evaluations run on a watcher goroutine, one per change in feed order,
// and never overlap the initial one. A panic in the initial evaluation is
// captured into the future like any other; Match itself never panics on
// behalf of fn.
//
// By the time the future resolves, the feed subscription and the ctx
// registration are both released. Match panics if src or fn is nil.
func Match[E, R any](ctx context.Context, src Source[E], fn MatchFunc[E, R], opts ...Option) *Future[MatchOutcome[R]] {
	if src == nil {
		panic("reactive: Match requires a non-nil source")
	}
	if fn == nil {
		panic("reactive: Match requires a non-nil match func")
	}

	w := &matchWaiter[E, R]{
		cfg:    newConfig(opts),
		src:    src,
		fn:     fn,
		future: newFuture[MatchOutcome[R]](),
	}

	if ctx.Err() != nil {
		w.settle(Failed[R](canceledFailure(ReasonOf(ctx))))
		return w.future
	}

	// The cancellation callback may fire before Match returns; mu keeps it
	// from seeing a half-initialized waiter.
	w.mu.Lock()
	w.watchCtx, w.stopWatch = context.WithCancel(context.Background())
	w.release = Register(ctx, func(reason CancelReason) {
		w.settle(Failed[R](canceledFailure(reason)))
	})
	w.sub = src.Changes().Subscribe()
	w.mu.Unlock()

	initialDone := make(chan struct{})
	go w.watch(initialDone)

	if _, resolved := w.future.TryGet(); !resolved {
		w.check()
	}
	close(initialDone)

	return w.future
}

type matchWaiter[E, R any] struct {
	cfg    config
	src    Source[E]
	fn     MatchFunc[E, R]
	future *Future[MatchOutcome[R]]

	mu        sync.Mutex
	sub       *FeedSubscription[Change]
	release   func() bool
	watchCtx  context.Context
	stopWatch context.CancelFunc
}

// watch re-evaluates fn once per change until something resolves the future.
func (w *matchWaiter[E, R]) watch(initialDone <-chan struct{}) {
	select {
	case <-initialDone:
	case <-w.watchCtx.Done():
		return
	}

	for {
		select {
		case <-w.watchCtx.Done():
			return
		case _, ok := <-w.sub.C():
			if !ok {
				if err := w.sub.Err(); err != nil {
					w.settle(Failed[R](exceptionFailure(err)))
				} else {
					w.settle(Failed[R](completedFailure()))
				}
				return
			}
			if w.check() {
				return
			}
		}
	}
}

// check evaluates fn against the current snapshot and settles the future on
// a match or a panic. It reports whether it settled.
func (w *matchWaiter[E, R]) check() bool {
	var (
		v       R
		matched bool
	)
	err := safeCall(func() error {
		v, matched = w.fn(w.src.Items())
		return nil
	})

	switch {
	case err != nil:
		w.settle(Failed[R](exceptionFailure(err)))
		return true
	case matched:
		w.settle(Success(v))
		return true
	default:
		return false
	}
}

// settle releases everything Match acquired and then resolves the future
// (first writer wins), so a caller woken by the resolution never sees a live
// subscription or registration. Every exit path goes through here; each
// step is idempotent.
func (w *matchWaiter[E, R]) settle(o MatchOutcome[R]) {
	w.mu.Lock()
	if w.release != nil {
		w.release()
	}
	if w.stopWatch != nil {
		w.stopWatch()
	}
	if w.sub != nil {
		w.sub.Unsubscribe()
	}
	w.mu.Unlock()

	if w.future.resolve(o) {
		w.cfg.metrics.matched(o.Kind())
		w.cfg.logger.WithFields(logrus.Fields{"outcome": o.Kind()}).Debug("match resolved")
	}
}
