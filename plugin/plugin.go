// Package plugin defines the plugin system for Bastion.
// Plugins are notified of lifecycle events (check performed, permissions
// resolved, role created, cache invalidated, etc.) and can react with
// logging, metrics, auditing and so on.
//
// Each lifecycle hook is a separate interface so plugins opt in only
// to the events they care about.
package plugin

import (
	"context"
	"time"

	"github.com/xraph/bastion/id"
	"github.com/xraph/bastion/permission"
	"github.com/xraph/bastion/role"
)

// Plugin is the base interface all plugins must implement.
type Plugin interface {
	// Name returns a unique human-readable name for the plugin.
	Name() string
}

// ──────────────────────────────────────────────────
// Check lifecycle hooks
// ──────────────────────────────────────────────────

// BeforeCheck is called before an authorization check is evaluated.
// The req parameter is *bastion.CheckRequest (passed as any to avoid import cycle).
type BeforeCheck interface {
	OnBeforeCheck(ctx context.Context, req any) error
}

// AfterCheck is called after an authorization check completes.
// The req parameter is *bastion.CheckRequest; result is *bastion.CheckResult.
type AfterCheck interface {
	OnAfterCheck(ctx context.Context, req, result any) error
}

// ──────────────────────────────────────────────────
// Resolution and cache hooks
// ──────────────────────────────────────────────────

// PermissionsResolved is called after permissions for a role set have been
// obtained, either from the cache or by recomputation.
type PermissionsResolved interface {
	OnPermissionsResolved(ctx context.Context, cacheKey string, cacheHit bool, elapsed time.Duration) error
}

// CacheInvalidated is called after cache entries are dropped. An empty
// roleIDs slice means the whole cache was cleared.
type CacheInvalidated interface {
	OnCacheInvalidated(ctx context.Context, roleIDs []string) error
}

// ──────────────────────────────────────────────────
// Role lifecycle hooks
// ──────────────────────────────────────────────────

// RoleCreated is called after a role is created.
type RoleCreated interface {
	OnRoleCreated(ctx context.Context, r *role.Role) error
}

// RoleUpdated is called after a role is updated.
type RoleUpdated interface {
	OnRoleUpdated(ctx context.Context, r *role.Role) error
}

// RoleDeleted is called after a role is deleted.
type RoleDeleted interface {
	OnRoleDeleted(ctx context.Context, roleID id.RoleID) error
}

// PermissionsAssigned is called after permissions are added to a role.
type PermissionsAssigned interface {
	OnPermissionsAssigned(ctx context.Context, roleID id.RoleID, permIDs []id.PermissionID) error
}

// PermissionsUnassigned is called after permissions are removed from a role.
type PermissionsUnassigned interface {
	OnPermissionsUnassigned(ctx context.Context, roleID id.RoleID, permIDs []id.PermissionID) error
}

// ──────────────────────────────────────────────────
// Permission lifecycle hooks
// ──────────────────────────────────────────────────

// PermissionCreated is called after a permission is created.
type PermissionCreated interface {
	OnPermissionCreated(ctx context.Context, p *permission.Permission) error
}

// PermissionUpdated is called after a permission is updated.
type PermissionUpdated interface {
	OnPermissionUpdated(ctx context.Context, p *permission.Permission) error
}

// PermissionDeleted is called after a permission is deleted.
type PermissionDeleted interface {
	OnPermissionDeleted(ctx context.Context, permID id.PermissionID) error
}

// ──────────────────────────────────────────────────
// Shutdown hook
// ──────────────────────────────────────────────────

// Shutdown is called during graceful shutdown.
type Shutdown interface {
	OnShutdown(ctx context.Context) error
}
