package observable

import (
	"context"
	"sync"

	"github.com/baxromumarov/reactive"
)

// Cache is a keyed collection whose Items are ordered by first insertion.
// Like [List], it announces every mutation on its change feed, in
// mutation order, before the next mutation or Close proceeds.
type Cache[K comparable, E any] struct {
	writeMu sync.Mutex // serializes mutate, Close and Fault
	mu      sync.RWMutex
	keyOf   func(E) K
	index   map[K]int
	items   []E
	changes *reactive.Feed[reactive.Change]
}

// NewCache creates an empty cache keyed by keyOf. It panics if keyOf is nil.
func NewCache[K comparable, E any](keyOf func(E) K, opts ...reactive.Option) *Cache[K, E] {
	if keyOf == nil {
		panic("observable: NewCache requires a key func")
	}
	return &Cache[K, E]{
		keyOf:   keyOf,
		index:   make(map[K]int),
		changes: reactive.NewFeed[reactive.Change](opts...),
	}
}

// Items returns the values in first-insertion order.
func (c *Cache[K, E]) Items() []E {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]E, len(c.items))
	copy(out, c.items)
	return out
}

// Changes returns the change feed.
func (c *Cache[K, E]) Changes() *reactive.Feed[reactive.Change] {
	return c.changes
}

// Lookup returns the value stored under k.
func (c *Cache[K, E]) Lookup(k K) (E, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	i, ok := c.index[k]
	if !ok {
		var zero E
		return zero, false
	}
	return c.items[i], true
}

// AddOrUpdate stores v under its key, replacing any previous value in place.
func (c *Cache[K, E]) AddOrUpdate(v E) error {
	return c.mutate(func() (reactive.Change, bool) {
		k := c.keyOf(v)
		if i, ok := c.index[k]; ok {
			c.items[i] = v
			return reactive.Change{Kind: reactive.ChangeReplace, Index: i}, true
		}
		c.index[k] = len(c.items)
		c.items = append(c.items, v)
		return reactive.Change{Kind: reactive.ChangeAdd, Index: len(c.items) - 1}, true
	})
}

// Remove deletes the value stored under k. Removing a missing key is not a
// mutation and announces nothing.
func (c *Cache[K, E]) Remove(k K) error {
	return c.mutate(func() (reactive.Change, bool) {
		i, ok := c.index[k]
		if !ok {
			return reactive.Change{}, false
		}
		c.items = append(c.items[:i], c.items[i+1:]...)
		delete(c.index, k)
		for j := i; j < len(c.items); j++ {
			c.index[c.keyOf(c.items[j])] = j
		}
		return reactive.Change{Kind: reactive.ChangeRemove, Index: i}, true
	})
}

// Close completes the change feed.
func (c *Cache[K, E]) Close() error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	c.changes.Close()
	return nil
}

// Fault terminates the change feed with err.
func (c *Cache[K, E]) Fault(err error) {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	c.changes.Fail(err)
}

func (c *Cache[K, E]) mutate(fn func() (reactive.Change, bool)) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	change, ok, err := c.apply(fn)
	if err != nil || !ok {
		return err
	}
	return c.changes.Send(context.Background(), change)
}

func (c *Cache[K, E]) apply(fn func() (reactive.Change, bool)) (reactive.Change, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.changes.Closed() {
		return reactive.Change{}, false, reactive.ErrFeedClosed
	}
	change, ok := fn()
	return change, ok, nil
}
