// Package redisfeed bridges a Redis pub/sub channel and a [reactive.Feed].
// Values travel as JSON.
package redisfeed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/baxromumarov/reactive"
	"github.com/baxromumarov/reactive/chanx"
)

// DecodeError reports a message on Channel that could not be decoded.
type DecodeError struct {
	Channel string
	Payload string
	Err     error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("redisfeed: decode message on %q: %v", e.Channel, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// Encode renders v as a message payload.
func Encode[T any](v T) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("json.Marshal: %w", err)
	}
	return string(b), nil
}

// Decode parses a payload received on channel.
func Decode[T any](channel, payload string) (T, error) {
	var v T
	if err := json.Unmarshal([]byte(payload), &v); err != nil {
		var zero T
		return zero, &DecodeError{Channel: channel, Payload: payload, Err: err}
	}
	return v, nil
}

// Subscribe subscribes to channel and returns a feed carrying every
// decoded message. opts configure the feed and the bridge's logger.
//
// The feed completes when the returned close func is called, and fails
// with ctx's error when ctx ends or with a [*DecodeError] on the first
// malformed message. In every case the Redis subscription is closed. The
// close func is idempotent.
func Subscribe[T any](ctx context.Context, rdb redis.UniversalClient, channel string, opts ...reactive.Option) (*reactive.Feed[T], func() error, error) {
	ps := rdb.Subscribe(ctx, channel)
	// Wait for the confirmation so a dead server is reported here.
	if _, err := ps.Receive(ctx); err != nil {
		_ = ps.Close()
		return nil, nil, fmt.Errorf("redisfeed: subscribe %q: %w", channel, err)
	}

	b := newBridge[T](channel, ps, opts)
	go b.forward(ctx, ps.Channel())

	return b.feed, b.close, nil
}

func newBridge[T any](channel string, ps *redis.PubSub, opts []reactive.Option) *bridge[T] {
	return &bridge[T]{
		log:     reactive.LoggerOf(opts...).WithField("channel", channel),
		channel: channel,
		ps:      ps,
		feed:    reactive.NewFeed[T](opts...),
	}
}

type bridge[T any] struct {
	log     logrus.FieldLogger
	channel string
	ps      *redis.PubSub
	feed    *reactive.Feed[T]

	once     sync.Once
	closeErr error
}

func (b *bridge[T]) forward(ctx context.Context, msgs <-chan *redis.Message) {
	defer b.feed.Close()

	for {
		select {
		case <-ctx.Done():
			b.feed.Fail(ctx.Err())
			_ = b.close()
			return
		case msg, ok := <-msgs:
			if !ok {
				return
			}
			v, err := Decode[T](b.channel, msg.Payload)
			if err != nil {
				b.log.WithError(err).Warn("dropping subscription on malformed message")
				b.feed.Fail(err)
				_ = b.close()
				return
			}
			if err := b.feed.Send(ctx, v); err != nil {
				if !errors.Is(err, reactive.ErrFeedClosed) {
					b.feed.Fail(err)
				}
				_ = b.close()
				return
			}
		}
	}
}

func (b *bridge[T]) close() error {
	b.once.Do(func() {
		b.closeErr = b.ps.Close()
	})
	return b.closeErr
}

// Publish forwards every value sent on feed to channel until the feed
// terminates or ctx ends. It returns the feed's terminal error, ctx's
// error, or the first publish failure.
func Publish[T any](ctx context.Context, rdb redis.UniversalClient, channel string, feed *reactive.Feed[T]) error {
	sub := feed.Subscribe()
	defer sub.Unsubscribe()

	for {
		v, ok, err := chanx.Recv(ctx, sub.C())
		if err != nil {
			return err
		}
		if !ok {
			return sub.Err()
		}
		payload, err := Encode(v)
		if err != nil {
			return err
		}
		if err := rdb.Publish(ctx, channel, payload).Err(); err != nil {
			return fmt.Errorf("redisfeed: publish %q: %w", channel, err)
		}
	}
}
