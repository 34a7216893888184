package redisfeed

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/baxromumarov/reactive"
)

type reading struct {
	Sensor string  `json:"sensor"`
	Value  float64 `json:"value"`
}

func TestEncodeDecode(t *testing.T) {
	payload, err := Encode(reading{Sensor: "t1", Value: 21.5})
	require.NoError(t, err)
	assert.JSONEq(t, `{"sensor":"t1","value":21.5}`, payload)

	got, err := Decode[reading]("temps", payload)
	require.NoError(t, err)
	assert.Equal(t, reading{Sensor: "t1", Value: 21.5}, got)
}

func TestEncode_Unsupported(t *testing.T) {
	_, err := Encode(make(chan int))
	assert.Error(t, err)
}

func TestDecode_Malformed(t *testing.T) {
	_, err := Decode[reading]("temps", "{not json")

	var de *DecodeError
	require.True(t, errors.As(err, &de))
	assert.Equal(t, "temps", de.Channel)
	assert.Equal(t, "{not json", de.Payload)
	assert.Contains(t, err.Error(), `"temps"`)
	assert.NotNil(t, errors.Unwrap(err))
}

func TestNewBridge_UsesConfiguredLogger(t *testing.T) {
	logger, hook := test.NewNullLogger()
	b := newBridge[reading]("temps", nil, []reactive.Option{reactive.WithLogger(logger), reactive.WithBuffer(2)})

	b.log.Warn("checked")

	require.Len(t, hook.AllEntries(), 1)
	entry := hook.LastEntry()
	assert.Equal(t, logrus.WarnLevel, entry.Level)
	assert.Equal(t, "temps", entry.Data["channel"])
	assert.False(t, b.feed.Closed())
}

func liveClient(t *testing.T) *redis.Client {
	t.Helper()
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set")
	}
	rdb := redis.NewClient(&redis.Options{Addr: addr})
	t.Cleanup(func() { _ = rdb.Close() })

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, rdb.Ping(ctx).Err())
	return rdb
}

func TestBridge_RoundTrip(t *testing.T) {
	rdb := liveClient(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	channel := "redisfeed-test-" + t.Name()
	in, closeIn, err := Subscribe[reading](ctx, rdb, channel)
	require.NoError(t, err)
	sub := in.Subscribe()

	out := reactive.NewFeed[reading]()
	published := make(chan error, 1)
	go func() { published <- Publish(ctx, rdb, channel, out) }()
	require.Eventually(t, func() bool { return out.Len() == 1 }, time.Second, 5*time.Millisecond)

	want := []reading{{"a", 1}, {"b", 2}, {"c", 3}}
	for _, r := range want {
		require.NoError(t, out.Send(ctx, r))
	}
	out.Close()
	require.NoError(t, <-published)

	var got []reading
	for len(got) < len(want) {
		select {
		case r := <-sub.C():
			got = append(got, r)
		case <-ctx.Done():
			t.Fatal("messages not received")
		}
	}
	assert.Equal(t, want, got)

	require.NoError(t, closeIn())
	require.NoError(t, closeIn())
	_, open := <-sub.C()
	assert.False(t, open)
	assert.NoError(t, sub.Err())
}

func TestBridge_MalformedMessageFailsFeed(t *testing.T) {
	rdb := liveClient(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	logger, hook := test.NewNullLogger()
	channel := "redisfeed-test-" + t.Name()
	in, closeIn, err := Subscribe[reading](ctx, rdb, channel, reactive.WithLogger(logger))
	require.NoError(t, err)
	defer closeIn()
	sub := in.Subscribe()

	require.NoError(t, rdb.Publish(ctx, channel, "garbage").Err())

	select {
	case _, open := <-sub.C():
		assert.False(t, open)
	case <-ctx.Done():
		t.Fatal("feed not terminated")
	}
	var de *DecodeError
	assert.True(t, errors.As(sub.Err(), &de))
	require.NotNil(t, hook.LastEntry())
	assert.Equal(t, channel, hook.LastEntry().Data["channel"])
}
