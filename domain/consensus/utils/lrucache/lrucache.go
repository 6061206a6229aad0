package lrucache

import (
	"github.com/lightninglabs/neutrino/cache/lru"
)

type entry[V any] struct {
	value V
}

// Size counts every entry as one unit of capacity.
func (e *entry[V]) Size() (uint64, error) {
	return 1, nil
}

// LRUCache is a bounded, strictly least-recently-used cache that is safe
// for concurrent use. It is a performance cache only and never the source
// of truth for what it holds.
type LRUCache[K comparable, V any] struct {
	cache *lru.Cache[K, *entry[V]]
}

// New creates an LRUCache that holds at most capacity entries.
func New[K comparable, V any](capacity int) *LRUCache[K, V] {
	return &LRUCache[K, V]{
		cache: lru.NewCache[K, *entry[V]](uint64(capacity)),
	}
}

// Add adds or replaces the entry for key, evicting the least recently used
// entry if the cache is full.
func (c *LRUCache[K, V]) Add(key K, value V) {
	_, _ = c.cache.Put(key, &entry[V]{value: value})
}

// Get returns the entry for key and marks it as recently used.
func (c *LRUCache[K, V]) Get(key K) (V, bool) {
	cached, err := c.cache.Get(key)
	if err != nil {
		var zero V
		return zero, false
	}
	return cached.value, true
}

// Has returns whether the cache holds key.
func (c *LRUCache[K, V]) Has(key K) bool {
	_, ok := c.Get(key)
	return ok
}

// Remove removes the entry for key, if present.
func (c *LRUCache[K, V]) Remove(key K) {
	c.cache.Delete(key)
}

// Len returns the number of cached entries.
func (c *LRUCache[K, V]) Len() int {
	return c.cache.Len()
}

// Clear removes all entries.
func (c *LRUCache[K, V]) Clear() {
	var keys []K
	c.cache.Range(func(key K, _ *entry[V]) bool {
		keys = append(keys, key)
		return true
	})
	for _, key := range keys {
		c.cache.Delete(key)
	}
}
