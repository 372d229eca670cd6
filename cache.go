package bastion

import (
	"context"

	"github.com/xraph/bastion/cache"
)

// Cache memoizes resolved permissions per role set. Keys come from
// cache.Key. Cached values are shared between callers and must not be
// mutated.
//
// The cache package provides Memory, LRU, and Redis implementations.
type Cache interface {
	// Get returns the resolved permissions stored under key, if fresh.
	Get(ctx context.Context, key string) (*ResolvedPermissions, bool)

	// Set stores resolved permissions under key.
	Set(ctx context.Context, key string, rp *ResolvedPermissions)

	// Invalidate drops every entry whose key contains one of roleIDs, or
	// every entry when roleIDs is empty.
	Invalidate(ctx context.Context, roleIDs []string)
}

// Compile-time interface checks.
var (
	_ Cache = (*cache.Memory[*ResolvedPermissions])(nil)
	_ Cache = (*cache.LRU[*ResolvedPermissions])(nil)
	_ Cache = (*cache.Redis[*ResolvedPermissions])(nil)
)

// Notifier carries invalidations between processes sharing one store.
type Notifier interface {
	// Publish announces that entries for roleIDs are stale. An empty slice
	// means everything is stale.
	Publish(ctx context.Context, roleIDs []string) error

	// Listen blocks, calling fn for every invalidation published by any
	// process, until ctx is cancelled or the connection fails.
	Listen(ctx context.Context, fn func(roleIDs []string)) error
}
