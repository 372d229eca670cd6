package plugin

import (
	"context"
	"log/slog"
	"time"

	"github.com/xraph/bastion/id"
	"github.com/xraph/bastion/permission"
	"github.com/xraph/bastion/role"
)

// entry pairs a hook with the plugin name for logging.
type entry[H any] struct {
	name string
	hook H
}

// Registry holds registered plugins and dispatches lifecycle events.
// It type-caches plugins at registration time so emit calls iterate
// only over plugins implementing the relevant hook.
type Registry struct {
	plugins []Plugin
	logger  *slog.Logger

	beforeCheck           []entry[BeforeCheck]
	afterCheck            []entry[AfterCheck]
	permissionsResolved   []entry[PermissionsResolved]
	cacheInvalidated      []entry[CacheInvalidated]
	roleCreated           []entry[RoleCreated]
	roleUpdated           []entry[RoleUpdated]
	roleDeleted           []entry[RoleDeleted]
	permissionsAssigned   []entry[PermissionsAssigned]
	permissionsUnassigned []entry[PermissionsUnassigned]
	permissionCreated     []entry[PermissionCreated]
	permissionUpdated     []entry[PermissionUpdated]
	permissionDeleted     []entry[PermissionDeleted]
	shutdown              []entry[Shutdown]
}

// NewRegistry creates a plugin registry with the given logger.
func NewRegistry(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{logger: logger}
}

// Register adds a plugin and type-asserts it into all applicable
// hook caches. Plugins are notified in registration order.
func (r *Registry) Register(p Plugin) {
	r.plugins = append(r.plugins, p)
	name := p.Name()

	collect(&r.beforeCheck, name, p)
	collect(&r.afterCheck, name, p)
	collect(&r.permissionsResolved, name, p)
	collect(&r.cacheInvalidated, name, p)
	collect(&r.roleCreated, name, p)
	collect(&r.roleUpdated, name, p)
	collect(&r.roleDeleted, name, p)
	collect(&r.permissionsAssigned, name, p)
	collect(&r.permissionsUnassigned, name, p)
	collect(&r.permissionCreated, name, p)
	collect(&r.permissionUpdated, name, p)
	collect(&r.permissionDeleted, name, p)
	collect(&r.shutdown, name, p)
}

func collect[H any](dst *[]entry[H], name string, p Plugin) {
	if h, ok := p.(H); ok {
		*dst = append(*dst, entry[H]{name: name, hook: h})
	}
}

// Plugins returns all registered plugins.
func (r *Registry) Plugins() []Plugin { return r.plugins }

// ──────────────────────────────────────────────────
// Check event emitters
// ──────────────────────────────────────────────────

// EmitBeforeCheck notifies all plugins that implement BeforeCheck.
func (r *Registry) EmitBeforeCheck(ctx context.Context, req any) {
	for _, e := range r.beforeCheck {
		if err := e.hook.OnBeforeCheck(ctx, req); err != nil {
			r.logHookError("OnBeforeCheck", e.name, err)
		}
	}
}

// EmitAfterCheck notifies all plugins that implement AfterCheck.
func (r *Registry) EmitAfterCheck(ctx context.Context, req, result any) {
	for _, e := range r.afterCheck {
		if err := e.hook.OnAfterCheck(ctx, req, result); err != nil {
			r.logHookError("OnAfterCheck", e.name, err)
		}
	}
}

// ──────────────────────────────────────────────────
// Resolution and cache emitters
// ──────────────────────────────────────────────────

// EmitPermissionsResolved notifies all plugins that implement PermissionsResolved.
func (r *Registry) EmitPermissionsResolved(ctx context.Context, cacheKey string, cacheHit bool, elapsed time.Duration) {
	for _, e := range r.permissionsResolved {
		if err := e.hook.OnPermissionsResolved(ctx, cacheKey, cacheHit, elapsed); err != nil {
			r.logHookError("OnPermissionsResolved", e.name, err)
		}
	}
}

// EmitCacheInvalidated notifies all plugins that implement CacheInvalidated.
func (r *Registry) EmitCacheInvalidated(ctx context.Context, roleIDs []string) {
	for _, e := range r.cacheInvalidated {
		if err := e.hook.OnCacheInvalidated(ctx, roleIDs); err != nil {
			r.logHookError("OnCacheInvalidated", e.name, err)
		}
	}
}

// ──────────────────────────────────────────────────
// Role event emitters
// ──────────────────────────────────────────────────

// EmitRoleCreated notifies all plugins that implement RoleCreated.
func (r *Registry) EmitRoleCreated(ctx context.Context, rl *role.Role) {
	for _, e := range r.roleCreated {
		if err := e.hook.OnRoleCreated(ctx, rl); err != nil {
			r.logHookError("OnRoleCreated", e.name, err)
		}
	}
}

// EmitRoleUpdated notifies all plugins that implement RoleUpdated.
func (r *Registry) EmitRoleUpdated(ctx context.Context, rl *role.Role) {
	for _, e := range r.roleUpdated {
		if err := e.hook.OnRoleUpdated(ctx, rl); err != nil {
			r.logHookError("OnRoleUpdated", e.name, err)
		}
	}
}

// EmitRoleDeleted notifies all plugins that implement RoleDeleted.
func (r *Registry) EmitRoleDeleted(ctx context.Context, roleID id.RoleID) {
	for _, e := range r.roleDeleted {
		if err := e.hook.OnRoleDeleted(ctx, roleID); err != nil {
			r.logHookError("OnRoleDeleted", e.name, err)
		}
	}
}

// EmitPermissionsAssigned notifies all plugins that implement PermissionsAssigned.
func (r *Registry) EmitPermissionsAssigned(ctx context.Context, roleID id.RoleID, permIDs []id.PermissionID) {
	for _, e := range r.permissionsAssigned {
		if err := e.hook.OnPermissionsAssigned(ctx, roleID, permIDs); err != nil {
			r.logHookError("OnPermissionsAssigned", e.name, err)
		}
	}
}

// EmitPermissionsUnassigned notifies all plugins that implement PermissionsUnassigned.
func (r *Registry) EmitPermissionsUnassigned(ctx context.Context, roleID id.RoleID, permIDs []id.PermissionID) {
	for _, e := range r.permissionsUnassigned {
		if err := e.hook.OnPermissionsUnassigned(ctx, roleID, permIDs); err != nil {
			r.logHookError("OnPermissionsUnassigned", e.name, err)
		}
	}
}

// ──────────────────────────────────────────────────
// Permission event emitters
// ──────────────────────────────────────────────────

// EmitPermissionCreated notifies all plugins that implement PermissionCreated.
func (r *Registry) EmitPermissionCreated(ctx context.Context, p *permission.Permission) {
	for _, e := range r.permissionCreated {
		if err := e.hook.OnPermissionCreated(ctx, p); err != nil {
			r.logHookError("OnPermissionCreated", e.name, err)
		}
	}
}

// EmitPermissionUpdated notifies all plugins that implement PermissionUpdated.
func (r *Registry) EmitPermissionUpdated(ctx context.Context, p *permission.Permission) {
	for _, e := range r.permissionUpdated {
		if err := e.hook.OnPermissionUpdated(ctx, p); err != nil {
			r.logHookError("OnPermissionUpdated", e.name, err)
		}
	}
}

// EmitPermissionDeleted notifies all plugins that implement PermissionDeleted.
func (r *Registry) EmitPermissionDeleted(ctx context.Context, permID id.PermissionID) {
	for _, e := range r.permissionDeleted {
		if err := e.hook.OnPermissionDeleted(ctx, permID); err != nil {
			r.logHookError("OnPermissionDeleted", e.name, err)
		}
	}
}

// ──────────────────────────────────────────────────
// Shutdown emitter
// ──────────────────────────────────────────────────

// EmitShutdown notifies all plugins that implement Shutdown.
func (r *Registry) EmitShutdown(ctx context.Context) {
	for _, e := range r.shutdown {
		if err := e.hook.OnShutdown(ctx); err != nil {
			r.logHookError("OnShutdown", e.name, err)
		}
	}
}

// logHookError logs a warning when a lifecycle hook returns an error.
// Hook errors are never propagated to the caller.
func (r *Registry) logHookError(hook, pluginName string, err error) {
	r.logger.Warn("plugin hook error",
		slog.String("hook", hook),
		slog.String("plugin", pluginName),
		slog.String("error", err.Error()),
	)
}
