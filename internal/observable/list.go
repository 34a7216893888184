package observable

import (
	"context"
	"slices"
	"sync"

	"github.com/baxromumarov/reactive"
)

// List is a mutex-guarded slice that announces every mutation on its
// change feed. A mutation is visible through Items before it is
// announced, and the next mutation waits until it has been announced, so
// announcements follow mutation order and Close never strands one.
// Items takes only the data lock, so a watcher re-reading it never waits
// on a producer blocked in Send.
type List[E any] struct {
	writeMu sync.Mutex // serializes mutate, Close and Fault
	mu      sync.RWMutex
	items   []E
	changes *reactive.Feed[reactive.Change]
}

// NewList creates an empty list. opts configure the change feed.
func NewList[E any](opts ...reactive.Option) *List[E] {
	return &List[E]{changes: reactive.NewFeed[reactive.Change](opts...)}
}

// Items returns a copy of the current contents.
func (l *List[E]) Items() []E {
	l.mu.RLock()
	defer l.mu.RUnlock()

	return slices.Clone(l.items)
}

// Changes returns the change feed.
func (l *List[E]) Changes() *reactive.Feed[reactive.Change] {
	return l.changes
}

// Len returns the number of items.
func (l *List[E]) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()

	return len(l.items)
}

// Add appends v.
func (l *List[E]) Add(v E) error {
	return l.mutate(func() reactive.Change {
		l.items = append(l.items, v)
		return reactive.Change{Kind: reactive.ChangeAdd, Index: len(l.items) - 1}
	})
}

// AddRange appends vs as one mutation.
func (l *List[E]) AddRange(vs ...E) error {
	return l.mutate(func() reactive.Change {
		i := len(l.items)
		l.items = append(l.items, vs...)
		return reactive.Change{Kind: reactive.ChangeAdd, Index: i}
	})
}

// Insert places v at index i. It panics if i is out of range.
func (l *List[E]) Insert(i int, v E) error {
	return l.mutate(func() reactive.Change {
		l.items = slices.Insert(l.items, i, v)
		return reactive.Change{Kind: reactive.ChangeAdd, Index: i}
	})
}

// RemoveAt deletes the item at index i. It panics if i is out of range.
func (l *List[E]) RemoveAt(i int) error {
	return l.mutate(func() reactive.Change {
		l.items = slices.Delete(l.items, i, i+1)
		return reactive.Change{Kind: reactive.ChangeRemove, Index: i}
	})
}

// Replace overwrites the item at index i. It panics if i is out of range.
func (l *List[E]) Replace(i int, v E) error {
	return l.mutate(func() reactive.Change {
		l.items[i] = v
		return reactive.Change{Kind: reactive.ChangeReplace, Index: i}
	})
}

// Clear removes every item.
func (l *List[E]) Clear() error {
	return l.mutate(func() reactive.Change {
		l.items = nil
		return reactive.Change{Kind: reactive.ChangeClear}
	})
}

// Close completes the change feed once any mutation in progress has been
// announced. The list keeps its items.
func (l *List[E]) Close() error {
	l.writeMu.Lock()
	defer l.writeMu.Unlock()

	l.changes.Close()
	return nil
}

// Fault terminates the change feed with err, as an upstream failure would.
func (l *List[E]) Fault(err error) {
	l.writeMu.Lock()
	defer l.writeMu.Unlock()

	l.changes.Fail(err)
}

func (l *List[E]) mutate(fn func() reactive.Change) error {
	l.writeMu.Lock()
	defer l.writeMu.Unlock()

	change, err := l.apply(fn)
	if err != nil {
		return err
	}
	return l.changes.Send(context.Background(), change)
}

func (l *List[E]) apply(fn func() reactive.Change) (reactive.Change, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.changes.Closed() {
		return reactive.Change{}, reactive.ErrFeedClosed
	}
	return fn(), nil
}
