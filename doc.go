// Package reactive provides small concurrency primitives for reactive
// data: waiting for an observable collection to reach a condition, and
// routing events between producers and subscribers that can each tear the
// link down.
//
// # Matching
//
// [Match] evaluates a [MatchFunc] against the current snapshot of a
// [Source] and again after every change the source announces, and returns
// a [Future] that resolves exactly once with a [MatchOutcome]:
//
//	ctx, cancel := reactive.WithTimeout(ctx, time.Second)
//	defer cancel()
//
//	f := reactive.Match(ctx, list, func(items []int) (int, bool) {
//	    if len(items) < 3 {
//	        return 0, false
//	    }
//	    return items[2], true
//	})
//	v, err := f.Wait().Get()
//
// A match that never happens ends as a [*MatchFailure]: the source
// completed ([ErrCompletedWithoutMatch]), it failed or the match func
// panicked ([ErrExceptionOccurred]), or the context ended ([ErrCanceled]).
// Canceled failures carry a [CancelReason]; use [WithTimeout] and
// [WithCancel] to get contexts whose cancellation reason is recorded.
//
// # Feeds
//
// [Feed] is a push source with per-subscriber buffers. Every subscriber
// sees the same values in the same order; a full buffer holds the producer
// back instead of dropping values. A feed ends once, with [Feed.Close] or
// [Feed.Fail].
//
// # Subscriptions
//
// [Subscriptions] is a registry of teardown handles. [Subscriptions.Dispose]
// runs every registered handle once, in insertion order, and keeps going
// past failures, which are reported as [*TeardownError] values.
//
// [Subscribe] and [SubscribeFeed] connect a typed handler to the events of
// a [Router] or a [Feed]. Only events of the handler's variant are
// delivered, one at a time, in publish order. The teardown is registered
// with the subscriber's registry and with the producer's, so either side
// can end the subscription:
//
//	type Session struct {
//	    subs reactive.Subscriptions
//	}
//
//	func (s *Session) Subscriptions() *reactive.Subscriptions { return &s.subs }
//
//	reactive.Subscribe(bus, session, func(ctx context.Context, ev UserJoined) error {
//	    return session.greet(ctx, ev.Name)
//	})
//
// Handler errors and panics are wrapped in [*HandlerError]. By default
// they are logged and dispatch continues; see [WithErrorHandler] and
// [WithStopOnError].
//
// # Observability
//
// Logging goes through logrus ([WithLogger]); Prometheus collectors are
// available through [NewMetrics] and [WithMetrics].
//
// # Subpackages
//
// [github.com/baxromumarov/reactive/chanx] holds the context-aware
// channel helpers the feed is built on.
// [github.com/baxromumarov/reactive/redisfeed] bridges a feed to a Redis
// pub/sub channel.
package reactive
