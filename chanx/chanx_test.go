package chanx

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSend(t *testing.T) {
	ch := make(chan int, 1) // buffered so Send doesn't block

	err := Send(context.Background(), ch, 12, nil)
	assert.NoError(t, err)

	// Verify value was sent
	val := <-ch
	assert.Equal(t, 12, val)
}

func TestSend_ContextCanceled(t *testing.T) {
	ch := make(chan int) // unbuffered

	ctx, cancel := context.WithCancel(context.Background())
	cancel() // cancel immediately

	err := Send(ctx, ch, 12, nil)
	assert.Error(t, err)
	assert.Equal(t, context.Canceled, err)
}

func TestSend_Stopped(t *testing.T) {
	ch := make(chan int)
	stop := NewSignal()

	done := make(chan error, 1)
	go func() {
		done <- Send(context.Background(), ch, 1, stop.Done())
	}()

	time.Sleep(10 * time.Millisecond)
	stop.Fire()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, ErrStopped)
	case <-time.After(time.Second):
		t.Fatal("Send did not unblock after stop fired")
	}
}

func TestSend_PrefersDeliveryWhenReady(t *testing.T) {
	ch := make(chan int, 1)
	stop := NewSignal()
	stop.Fire()

	// buffer has room, so the value goes through even though stop fired
	require.NoError(t, Send(context.Background(), ch, 7, stop.Done()))
	assert.Equal(t, 7, <-ch)
}

func TestRecv(t *testing.T) {
	ch := make(chan string, 1)
	ch <- "hello"

	v, ok, err := Recv(context.Background(), ch)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "hello", v)

	close(ch)
	_, ok, err = Recv(context.Background(), ch)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRecv_ContextCanceled(t *testing.T) {
	ch := make(chan int)
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, ok, err := Recv(ctx, ch)
	assert.False(t, ok)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
