package reactive

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Handler processes one event of variant S. ctx is canceled when the
// subscription is torn down.
type Handler[S any] func(ctx context.Context, ev S) error

// SubscribeFeed connects handler to every event of variant S sent on feed.
//
// Events that are not an S are skipped. Handlers run one at a time on a
// goroutine owned by the subscription, in feed order: the handler for an
// event starts only after the previous one returned. A slow handler fills
// the subscription's feed buffer and then holds the producer back; no
// event is dropped.
//
// The returned teardown is idempotent. It is added to target's registry
// and to every registry in also, so disposing any one of them ends the
// subscription; disposing several runs the teardown once. After teardown
// no further handler invocation starts and the running one sees its ctx
// canceled.
//
// A handler error or panic is wrapped in a [*HandlerError] and reported
// (see [WithErrorHandler]); dispatch then continues with the next event
// unless [WithStopOnError] was given. When the feed terminates, the
// subscription tears itself down.
//
// SubscribeFeed panics if feed, target or handler is nil.
func SubscribeFeed[S, E any](
	feed *Feed[E],
	target SubscriptionTarget,
	handler Handler[S],
	also []*Subscriptions,
	opts ...Option,
) Unsubscribe {
	if feed == nil {
		panic("reactive: SubscribeFeed requires a non-nil feed")
	}
	if target == nil {
		panic("reactive: SubscribeFeed requires a non-nil target")
	}
	if handler == nil {
		panic("reactive: SubscribeFeed requires a non-nil handler")
	}

	cfg := newConfig(opts)
	id := cfg.subID
	if id == "" {
		id = uuid.NewString()
	}

	ctx, cancel := context.WithCancel(context.Background())
	d := &dispatcher[S, E]{
		id:      id,
		cfg:     cfg,
		log:     cfg.logger.WithField("subscription", id),
		handler: handler,
		sub:     feed.Subscribe(),
		ctx:     ctx,
	}
	d.unsubscribe = Once(func() {
		cancel()
		d.sub.Unsubscribe()
		cfg.metrics.tornDown()
		d.log.Debug("subscription torn down")
	})
	cfg.metrics.subscribed()

	target.Subscriptions().Add(d.unsubscribe)
	for _, r := range also {
		if r != nil {
			r.Add(d.unsubscribe)
		}
	}

	go d.run()
	return d.unsubscribe
}

type dispatcher[S, E any] struct {
	id          string
	cfg         config
	log         logrus.FieldLogger
	handler     Handler[S]
	sub         *FeedSubscription[E]
	ctx         context.Context
	unsubscribe Unsubscribe
}

func (d *dispatcher[S, E]) run() {
	for {
		select {
		case <-d.ctx.Done():
			return
		case ev, ok := <-d.sub.C():
			if !ok {
				if err := d.sub.Err(); err != nil {
					d.log.WithError(err).Warn("event feed failed")
				}
				d.unsubscribe()
				return
			}
			s, match := any(ev).(S)
			if !match {
				continue
			}
			// Teardown may have raced with the receive.
			if d.ctx.Err() != nil {
				return
			}
			d.dispatch(s)
		}
	}
}

func (d *dispatcher[S, E]) dispatch(ev S) {
	err := safeCall(func() error {
		return d.handler(d.ctx, ev)
	})
	d.cfg.metrics.dispatched()
	if err == nil {
		return
	}
	// A handler giving up because we tore it down is not a failure.
	if d.ctx.Err() != nil && errors.Is(err, context.Canceled) {
		return
	}

	d.cfg.metrics.handlerFailed()
	he := &HandlerError{SubscriptionID: d.id, Event: ev, Err: err}
	if d.cfg.onError != nil {
		d.cfg.onError(he)
	} else {
		d.log.WithError(err).WithField("event", fmt.Sprintf("%T", ev)).Warn("event handler failed")
	}

	if d.cfg.stopOnError {
		d.unsubscribe()
	}
}

// Router is an event producer: it owns a [Feed] of events and a registry
// of the subscriptions made against it, so the producer can tear down all
// of its subscribers just as each subscriber can tear down its own.
type Router[E any] struct {
	feed *Feed[E]
	subs Subscriptions
	opts []Option
}

// NewRouter creates a router. opts configure the feed and are the default
// options of every subscription made through [Subscribe].
func NewRouter[E any](opts ...Option) *Router[E] {
	return &Router[E]{
		feed: NewFeed[E](opts...),
		opts: slices.Clone(opts),
	}
}

// Publish sends ev to every subscription. See [Feed.Send].
func (r *Router[E]) Publish(ctx context.Context, ev E) error {
	return r.feed.Send(ctx, ev)
}

// Events returns the router's feed.
func (r *Router[E]) Events() *Feed[E] {
	return r.feed
}

// Subscriptions returns the producer-side registry.
func (r *Router[E]) Subscriptions() *Subscriptions {
	return &r.subs
}

// UnsubscribeAll tears down every subscription made through this router.
func (r *Router[E]) UnsubscribeAll() error {
	err := r.subs.Dispose()
	if err != nil {
		r.logger().WithError(err).Warn("teardown failed")
	}
	return err
}

// Close ends the event feed. Subscriptions drain what was already
// published and then tear themselves down.
func (r *Router[E]) Close() {
	r.feed.Close()
}

func (r *Router[E]) logger() logrus.FieldLogger {
	return LoggerOf(r.opts...)
}

// Subscribe connects handler to every event of variant S published on r.
// The teardown is registered with both target and r, so either side can
// end the subscription. opts are applied after the router's own options.
func Subscribe[S, E any](r *Router[E], target SubscriptionTarget, handler Handler[S], opts ...Option) Unsubscribe {
	all := append(slices.Clone(r.opts), opts...)
	return SubscribeFeed(r.feed, target, handler, []*Subscriptions{&r.subs}, all...)
}
