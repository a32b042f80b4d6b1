// Package cache provides a small in-process memoization store for expensive reads.
package cache

import (
	"container/list"
	"sync"
	"time"

	"github.com/juju/clock"
)

type entry[V any] struct {
	value     V
	expiresAt time.Time
	elem      *list.Element
}

// TTLCache is a bounded key-value store whose entries expire at an absolute time.
//
// When full, inserting a new key evicts the oldest inserted key. Eviction follows
// insertion order, not access order: a Get never changes which key goes next.
// Re-setting a present key refreshes its value and expiry but keeps its position.
type TTLCache[K comparable, V any] struct {
	mu         sync.Mutex
	clock      clock.Clock
	ttl        time.Duration
	maxEntries int
	entries    map[K]*entry[V]
	order      *list.List
}

// New creates a cache. A nil clock means the wall clock; maxEntries below 1 is treated as 1.
func New[K comparable, V any](ttl time.Duration, maxEntries int, clk clock.Clock) *TTLCache[K, V] {
	if clk == nil {
		clk = clock.WallClock
	}
	if maxEntries < 1 {
		maxEntries = 1
	}
	return &TTLCache[K, V]{
		clock:      clk,
		ttl:        ttl,
		maxEntries: maxEntries,
		entries:    make(map[K]*entry[V], maxEntries),
		order:      list.New(),
	}
}

// Get returns the value for key if present and not expired. An expired entry is removed.
func (c *TTLCache[K, V]) Get(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var zero V
	e, ok := c.entries[key]
	if !ok {
		return zero, false
	}
	if !c.clock.Now().Before(e.expiresAt) {
		c.remove(key, e)
		return zero, false
	}
	return e.value, true
}

// Set stores value under key until now+ttl. An optional positive ttl overrides the default.
func (c *TTLCache[K, V]) Set(key K, value V, ttl ...time.Duration) {
	d := c.ttl
	if len(ttl) > 0 && ttl[0] > 0 {
		d = ttl[0]
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	expiresAt := c.clock.Now().Add(d)
	if e, ok := c.entries[key]; ok {
		e.value = value
		e.expiresAt = expiresAt
		return
	}

	if len(c.entries) >= c.maxEntries {
		if front := c.order.Front(); front != nil {
			oldest := front.Value.(K)
			c.remove(oldest, c.entries[oldest])
		}
	}

	c.entries[key] = &entry[V]{
		value:     value,
		expiresAt: expiresAt,
		elem:      c.order.PushBack(key),
	}
}

// Delete removes key if present.
func (c *TTLCache[K, V]) Delete(key K) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.entries[key]; ok {
		c.remove(key, e)
	}
}

// Clear drops every entry.
func (c *TTLCache[K, V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[K]*entry[V], c.maxEntries)
	c.order.Init()
}

// Len reports the number of stored entries, including ones that expired but were not yet read.
func (c *TTLCache[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *TTLCache[K, V]) remove(key K, e *entry[V]) {
	if e != nil {
		c.order.Remove(e.elem)
	}
	delete(c.entries, key)
}
