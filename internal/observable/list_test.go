package observable

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/baxromumarov/reactive"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestList_MutationsAnnounced(t *testing.T) {
	l := NewList[int]()
	sub := l.Changes().Subscribe()
	defer sub.Unsubscribe()

	require.NoError(t, l.Add(1))
	require.NoError(t, l.AddRange(2, 3))
	require.NoError(t, l.Insert(0, 0))
	require.NoError(t, l.Replace(3, 30))
	require.NoError(t, l.RemoveAt(1))

	assert.Equal(t, []int{0, 2, 30}, l.Items())
	assert.Equal(t, 3, l.Len())

	want := []reactive.Change{
		{Kind: reactive.ChangeAdd, Index: 0},
		{Kind: reactive.ChangeAdd, Index: 1},
		{Kind: reactive.ChangeAdd, Index: 0},
		{Kind: reactive.ChangeReplace, Index: 3},
		{Kind: reactive.ChangeRemove, Index: 1},
	}
	for _, w := range want {
		assert.Equal(t, w, <-sub.C())
	}

	require.NoError(t, l.Clear())
	assert.Equal(t, reactive.Change{Kind: reactive.ChangeClear}, <-sub.C())
	assert.Empty(t, l.Items())
}

func TestList_ItemsIsSnapshot(t *testing.T) {
	l := NewList[string]()
	require.NoError(t, l.Add("a"))

	snap := l.Items()
	snap[0] = "mutated"

	assert.Equal(t, []string{"a"}, l.Items())
}

func TestList_Close(t *testing.T) {
	l := NewList[int]()
	sub := l.Changes().Subscribe()

	require.NoError(t, l.Add(1))
	require.NoError(t, l.Close())

	_, ok := <-sub.C()
	assert.True(t, ok, "buffered change delivered before completion")
	_, ok = <-sub.C()
	assert.False(t, ok)
	assert.NoError(t, sub.Err())

	assert.ErrorIs(t, l.Add(2), reactive.ErrFeedClosed)
	assert.Equal(t, []int{1}, l.Items())
}

func TestList_Fault(t *testing.T) {
	l := NewList[int]()
	sub := l.Changes().Subscribe()

	boom := errors.New("upstream down")
	l.Fault(boom)

	_, ok := <-sub.C()
	assert.False(t, ok)
	assert.ErrorIs(t, sub.Err(), boom)
}

func TestList_PanicReleasesLock(t *testing.T) {
	l := NewList[int]()

	assert.Panics(t, func() { _ = l.RemoveAt(5) })
	require.NoError(t, l.Add(1), "list must stay usable after a panicking mutation")
}

func TestList_CloseRacingAdd(t *testing.T) {
	for i := 0; i < 200; i++ {
		l := NewList[int]()
		f := reactive.Match(context.Background(), l, func(items []int) (int, bool) {
			return len(items), len(items) > 0
		})

		var (
			wg     sync.WaitGroup
			addErr error
		)
		wg.Add(2)
		go func() {
			defer wg.Done()
			addErr = l.Add(1)
		}()
		go func() {
			defer wg.Done()
			_ = l.Close()
		}()
		wg.Wait()

		o := f.Wait()
		if addErr == nil {
			require.Equal(t, 1, l.Len(), "a successful Add is kept")
			require.True(t, o.IsSuccess(), "a successful Add is announced before completion: %v", o)
			assert.Equal(t, 1, o.Value())
		} else {
			require.ErrorIs(t, addErr, reactive.ErrFeedClosed)
			require.Equal(t, 0, l.Len(), "a rejected Add leaves the list unchanged")
			require.Equal(t, reactive.FailureCompletedWithoutMatch, o.Failure().Kind)
		}
	}
}

func TestList_ConcurrentAnnouncementsInOrder(t *testing.T) {
	const writers, perWriter = 8, 10
	l := NewList[int](reactive.WithBuffer(writers * perWriter))
	sub := l.Changes().Subscribe()
	defer sub.Unsubscribe()

	var wg sync.WaitGroup
	for w := 0; w < writers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < perWriter; j++ {
				_ = l.Add(j)
			}
		}()
	}
	wg.Wait()

	for want := 0; want < writers*perWriter; want++ {
		ch := <-sub.C()
		require.Equal(t, want, ch.Index, "appends are announced in mutation order")
	}
}
