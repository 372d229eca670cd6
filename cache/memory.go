package cache

import (
	"context"
	"sync"
	"time"
)

// DefaultTTL is the entry lifetime used when none is configured.
const DefaultTTL = 5 * time.Minute

// Memory is an in-process TTL cache. It has no size bound unless
// WithMaxSize is given; entries leave only by expiry or invalidation.
type Memory[V any] struct {
	mu      sync.RWMutex
	entries map[string]*entry[V]
	ttl     time.Duration
	maxSize int
	now     func() time.Time
}

type entry[V any] struct {
	value    V
	storedAt time.Time
}

// MemoryOption configures the memory cache.
type MemoryOption func(*memoryOptions)

type memoryOptions struct {
	ttl     time.Duration
	maxSize int
	now     func() time.Time
}

// WithTTL sets the cache entry time-to-live.
func WithTTL(ttl time.Duration) MemoryOption {
	return func(o *memoryOptions) { o.ttl = ttl }
}

// WithMaxSize caps the number of entries. Zero means unbounded.
func WithMaxSize(n int) MemoryOption {
	return func(o *memoryOptions) { o.maxSize = n }
}

// WithClock overrides the time source. Used by tests.
func WithClock(now func() time.Time) MemoryOption {
	return func(o *memoryOptions) { o.now = now }
}

// NewMemory creates a new in-memory cache.
func NewMemory[V any](opts ...MemoryOption) *Memory[V] {
	o := memoryOptions{ttl: DefaultTTL, now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	if o.ttl <= 0 {
		o.ttl = DefaultTTL
	}
	return &Memory[V]{
		entries: make(map[string]*entry[V]),
		ttl:     o.ttl,
		maxSize: o.maxSize,
		now:     o.now,
	}
}

// Get returns the cached value when it is younger than the TTL.
func (m *Memory[V]) Get(_ context.Context, key string) (V, bool) {
	m.mu.RLock()
	e, ok := m.entries[key]
	m.mu.RUnlock()
	var zero V
	if !ok {
		return zero, false
	}
	if m.now().Sub(e.storedAt) >= m.ttl {
		m.mu.Lock()
		// Re-check under the write lock; a concurrent Set may have refreshed it.
		if cur, ok := m.entries[key]; ok && cur == e {
			delete(m.entries, key)
		}
		m.mu.Unlock()
		return zero, false
	}
	return e.value, true
}

// Set stores a value, replacing any previous entry for key.
func (m *Memory[V]) Set(_ context.Context, key string, value V) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.maxSize > 0 && len(m.entries) >= m.maxSize {
		if _, exists := m.entries[key]; !exists {
			m.evictExpired()
			if len(m.entries) >= m.maxSize {
				m.evictOldest()
			}
		}
	}

	m.entries[key] = &entry[V]{value: value, storedAt: m.now()}
}

// Invalidate removes every entry whose key contains one of roleIDs.
// Calling it with no IDs clears the whole cache.
func (m *Memory[V]) Invalidate(_ context.Context, roleIDs []string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(roleIDs) == 0 {
		m.entries = make(map[string]*entry[V])
		return
	}
	for k := range m.entries {
		if HasAny(k, roleIDs) {
			delete(m.entries, k)
		}
	}
}

// Len returns the number of stored entries, expired ones included.
func (m *Memory[V]) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

// evictExpired removes all expired entries. Must hold write lock.
func (m *Memory[V]) evictExpired() {
	now := m.now()
	for k, e := range m.entries {
		if now.Sub(e.storedAt) >= m.ttl {
			delete(m.entries, k)
		}
	}
}

// evictOldest removes the entry stored earliest. Must hold write lock.
func (m *Memory[V]) evictOldest() {
	var (
		oldestKey string
		oldestAt  time.Time
		found     bool
	)
	for k, e := range m.entries {
		if !found || e.storedAt.Before(oldestAt) {
			oldestKey, oldestAt, found = k, e.storedAt, true
		}
	}
	if found {
		delete(m.entries, oldestKey)
	}
}
