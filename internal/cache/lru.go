// Showfeed - TV Show Discovery and Ranking Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/showfeed

package cache

import (
	"sync"

	"github.com/tomtom215/showfeed/internal/metrics"
)

type lruEntry[V any] struct {
	key   string
	value V
	prev  *lruEntry[V]
	next  *lruEntry[V]
}

// LRU is a thread-safe ordered map bounded by capacity.
//
// Order is insertion recency, not access recency: Peek never reorders, Put
// moves the key to the newest position, and Replace updates a value in place.
// When Put grows the map past capacity the oldest entries are evicted.
type LRU[V any] struct {
	mu       sync.RWMutex
	name     string
	capacity int
	items    map[string]*lruEntry[V]

	// head.next is the newest entry, tail.prev the oldest
	head *lruEntry[V]
	tail *lruEntry[V]
}

// NewLRU creates an ordered cache holding at most capacity entries.
func NewLRU[V any](name string, capacity int) *LRU[V] {
	if capacity <= 0 {
		capacity = 1
	}
	c := &LRU[V]{
		name:     name,
		capacity: capacity,
		items:    make(map[string]*lruEntry[V], capacity),
		head:     &lruEntry[V]{},
		tail:     &lruEntry[V]{},
	}
	c.head.next = c.tail
	c.tail.prev = c.head
	return c
}

// Peek returns the value for key without changing its position.
func (c *LRU[V]) Peek(key string) (V, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if entry, ok := c.items[key]; ok {
		return entry.value, true
	}
	var zero V
	return zero, false
}

// Put stores value as the newest entry and returns the number of entries
// evicted to stay within capacity.
func (c *LRU[V]) Put(key string, value V) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	if entry, ok := c.items[key]; ok {
		entry.value = value
		c.unlink(entry)
		c.pushFront(entry)
		return 0
	}

	entry := &lruEntry[V]{key: key, value: value}
	c.items[key] = entry
	c.pushFront(entry)

	evicted := 0
	for len(c.items) > c.capacity {
		oldest := c.tail.prev
		c.unlink(oldest)
		delete(c.items, oldest.key)
		evicted++
	}
	if evicted > 0 {
		metrics.CacheEvictions.WithLabelValues(c.name).Add(float64(evicted))
	}
	return evicted
}

// Replace updates an existing value in place. Returns false if key is absent.
func (c *LRU[V]) Replace(key string, value V) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	entry, ok := c.items[key]
	if !ok {
		return false
	}
	entry.value = value
	return true
}

// Remove deletes key. Returns true if it was present.
func (c *LRU[V]) Remove(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	entry, ok := c.items[key]
	if !ok {
		return false
	}
	c.unlink(entry)
	delete(c.items, key)
	return true
}

// Len returns the number of entries.
func (c *LRU[V]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

// Capacity returns the configured bound.
func (c *LRU[V]) Capacity() int {
	return c.capacity
}

// Keys returns keys from oldest to newest.
func (c *LRU[V]) Keys() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	keys := make([]string, 0, len(c.items))
	for e := c.tail.prev; e != c.head; e = e.prev {
		keys = append(keys, e.key)
	}
	return keys
}

// Each calls fn for every entry from oldest to newest while holding the
// read lock. fn must not call back into the cache.
func (c *LRU[V]) Each(fn func(key string, value V)) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for e := c.tail.prev; e != c.head; e = e.prev {
		fn(e.key, e.value)
	}
}

// Clear removes all entries.
func (c *LRU[V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = make(map[string]*lruEntry[V], c.capacity)
	c.head.next = c.tail
	c.tail.prev = c.head
}

func (c *LRU[V]) pushFront(entry *lruEntry[V]) {
	entry.prev = c.head
	entry.next = c.head.next
	c.head.next.prev = entry
	c.head.next = entry
}

func (c *LRU[V]) unlink(entry *lruEntry[V]) {
	entry.prev.next = entry.next
	entry.next.prev = entry.prev
	entry.prev = nil
	entry.next = nil
}
