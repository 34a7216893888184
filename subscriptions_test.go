package reactive

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type closerFunc func() error

func (f closerFunc) Close() error { return f() }

func TestSubscriptions_DisposeInOrder(t *testing.T) {
	var s Subscriptions
	var order []int
	for i := range 5 {
		s.Add(func() { order = append(order, i) })
	}
	assert.Equal(t, 5, s.Len())

	require.NoError(t, s.Dispose())
	assert.Equal(t, []int{0, 1, 2, 3, 4}, order)
	assert.Equal(t, 0, s.Len())

	require.NoError(t, s.Dispose(), "disposing an empty registry is a no-op")
	assert.Len(t, order, 5)
}

func TestSubscriptions_AddAfterDispose(t *testing.T) {
	var s Subscriptions
	var calls atomic.Int32
	s.Add(func() { calls.Add(1) })
	require.NoError(t, s.Dispose())

	s.Add(func() { calls.Add(1) })
	assert.Equal(t, int32(1), calls.Load(), "late handle waits for the next pass")

	require.NoError(t, s.Dispose())
	assert.Equal(t, int32(2), calls.Load())
}

func TestSubscriptions_FailureDoesNotStopOthers(t *testing.T) {
	var s Subscriptions
	var ran []string
	boom := errors.New("close failed")

	s.Add(func() { ran = append(ran, "a") })
	s.Add(func() { panic("teardown exploded") })
	s.AddCloser(closerFunc(func() error {
		ran = append(ran, "closer")
		return boom
	}))
	s.Add(func() { ran = append(ran, "d") })

	err := s.Dispose()
	require.Error(t, err)
	assert.Equal(t, []string{"a", "closer", "d"}, ran)
	assert.ErrorIs(t, err, boom)

	tes := AllTeardownErrors(err)
	require.Len(t, tes, 2)
	assert.Equal(t, 1, tes[0].Index)
	var pe *PanicError
	assert.True(t, errors.As(tes[0], &pe))
	assert.Equal(t, "teardown exploded", pe.Value)
	assert.Equal(t, 2, tes[1].Index)
}

func TestSubscriptions_ReentrantDispose(t *testing.T) {
	var s Subscriptions
	var inner atomic.Int32

	s.Add(func() {
		// Dispose and Add from inside a teardown must not deadlock.
		s.Add(func() { inner.Add(1) })
		_ = s.Dispose()
	})

	require.NoError(t, s.Dispose())
	assert.Equal(t, int32(1), inner.Load())
	assert.Equal(t, 0, s.Len())
}

func TestSubscriptions_Nested(t *testing.T) {
	var parent, child Subscriptions
	var called atomic.Bool
	child.Add(func() { called.Store(true) })
	parent.AddCloser(&child)

	require.NoError(t, parent.Dispose())
	assert.True(t, called.Load())
}

func TestSubscriptions_NilIgnored(t *testing.T) {
	var s Subscriptions
	s.Add(nil)
	s.AddCloser(nil)
	assert.Equal(t, 0, s.Len())
}

// Every handle runs exactly once no matter how Add and Dispose interleave.
func TestSubscriptions_ConcurrentAddDispose(t *testing.T) {
	const (
		adders    = 8
		perAdder  = 500
		disposers = 4
	)

	var s Subscriptions
	counts := make([]atomic.Int32, adders*perAdder)

	var wg sync.WaitGroup
	stop := make(chan struct{})

	for d := 0; d < disposers; d++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-stop:
					return
				default:
					_ = s.Dispose()
				}
			}
		}()
	}

	var addWG sync.WaitGroup
	for a := range adders {
		addWG.Add(1)
		go func() {
			defer addWG.Done()
			for i := range perAdder {
				idx := a*perAdder + i
				s.Add(func() { counts[idx].Add(1) })
			}
		}()
	}

	addWG.Wait()
	close(stop)
	wg.Wait()
	require.NoError(t, s.Dispose())

	for i := range counts {
		if got := counts[i].Load(); got != 1 {
			t.Fatalf("handle %d ran %d times", i, got)
		}
	}
}

func TestOnce(t *testing.T) {
	var calls atomic.Int32
	u := Once(func() { calls.Add(1) })

	var a, b Subscriptions
	a.Add(u)
	b.Add(u)

	var wg sync.WaitGroup
	for _, s := range []*Subscriptions{&a, &b} {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = s.Dispose()
		}()
	}
	wg.Wait()
	u()

	assert.Equal(t, int32(1), calls.Load())
}

func TestOnce_Nil(t *testing.T) {
	assert.NotPanics(t, func() { Once(nil)() })
}
