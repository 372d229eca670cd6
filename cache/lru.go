package cache

import (
	"context"
	"time"

	lru "github.com/hashicorp/golang-lru/v2/expirable"
)

// DefaultMaxEntries bounds the LRU backend when no size is configured.
const DefaultMaxEntries = 10000

// LRU is a size-bounded in-process cache. Entries expire after the TTL and
// the least recently used entry is evicted when the cache is full.
type LRU[V any] struct {
	lru *lru.LRU[string, V]
}

// NewLRU creates a bounded cache holding at most size entries.
func NewLRU[V any](size int, ttl time.Duration) *LRU[V] {
	if size <= 0 {
		size = DefaultMaxEntries
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &LRU[V]{lru: lru.NewLRU[string, V](size, nil, ttl)}
}

// Get returns the cached value for key.
func (c *LRU[V]) Get(_ context.Context, key string) (V, bool) {
	return c.lru.Get(key)
}

// Set stores a value for key.
func (c *LRU[V]) Set(_ context.Context, key string, value V) {
	c.lru.Add(key, value)
}

// Invalidate removes every entry whose key contains one of roleIDs.
// Calling it with no IDs clears the whole cache.
func (c *LRU[V]) Invalidate(_ context.Context, roleIDs []string) {
	if len(roleIDs) == 0 {
		c.lru.Purge()
		return
	}
	for _, k := range c.lru.Keys() {
		if HasAny(k, roleIDs) {
			c.lru.Remove(k)
		}
	}
}

// Len returns the number of live entries.
func (c *LRU[V]) Len() int { return c.lru.Len() }
