// Package cache provides a small bounded cache for compiled queries.
package cache

import (
	"sync"

	"github.com/cespare/xxhash/v2"
)

type entry[V any] struct {
	key   string
	value V
}

// Cache maps string keys to values. Keys are indexed by their xxhash; the full key is
// kept to rule out collisions.
//
// When the cache is full the whole map is replaced. This is enough for the expected
// workload of a modest number of distinct queries repeated many times.
//
// All methods are safe for concurrent use. A nil *Cache never stores anything.
type Cache[V any] struct {
	mu    sync.RWMutex
	items map[uint64]entry[V]
	max   int
}

// New returns a cache holding at most size entries, or nil when size is not positive.
func New[V any](size int) *Cache[V] {
	if size <= 0 {
		return nil
	}
	return &Cache[V]{items: make(map[uint64]entry[V], size), max: size}
}

// Key joins parts into a cache key. Parts are separated by a NUL byte, which does not
// occur in query text.
func Key(parts ...string) string {
	n := len(parts)
	for _, p := range parts {
		n += len(p)
	}
	b := make([]byte, 0, n)
	for i, p := range parts {
		if i > 0 {
			b = append(b, 0)
		}
		b = append(b, p...)
	}
	return string(b)
}

// Get returns the value stored for key.
func (c *Cache[V]) Get(key string) (V, bool) {
	var zero V
	if c == nil {
		return zero, false
	}
	h := xxhash.Sum64String(key)
	c.mu.RLock()
	e, ok := c.items[h]
	c.mu.RUnlock()
	if !ok || e.key != key {
		return zero, false
	}
	return e.value, true
}

// Put stores value for key.
func (c *Cache[V]) Put(key string, value V) {
	if c == nil {
		return
	}
	h := xxhash.Sum64String(key)
	c.mu.Lock()
	if _, ok := c.items[h]; !ok && len(c.items) >= c.max {
		c.items = make(map[uint64]entry[V], c.max)
	}
	c.items[h] = entry[V]{key: key, value: value}
	c.mu.Unlock()
}

// Len returns the number of stored entries.
func (c *Cache[V]) Len() int {
	if c == nil {
		return 0
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

// Clear removes all entries.
func (c *Cache[V]) Clear() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.items = make(map[uint64]entry[V], c.max)
	c.mu.Unlock()
}
