package bastion

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/xraph/bastion/id"
	"github.com/xraph/bastion/permission"
	"github.com/xraph/bastion/role"
	"github.com/xraph/bastion/store"
)

// RoleUpdate is a partial role change. Nil fields are left untouched.
type RoleUpdate struct {
	Name         *string            `json:"name,omitempty"`
	DisplayName  *string            `json:"display_name,omitempty"`
	Description  *string            `json:"description,omitempty"`
	Permissions  *[]id.PermissionID `json:"permissions,omitempty"`
	InheritsFrom *[]id.RoleID       `json:"inherits_from,omitempty"`
	Priority     *int               `json:"priority,omitempty"`
	Metadata     map[string]any     `json:"metadata,omitempty"`
}

// PermissionUpdate is a partial permission change. Nil fields are left
// untouched.
type PermissionUpdate struct {
	Name        *string        `json:"name,omitempty"`
	DisplayName *string        `json:"display_name,omitempty"`
	Description *string        `json:"description,omitempty"`
	Scope       *Scope         `json:"scope,omitempty"`
	Resource    *Resource      `json:"resource,omitempty"`
	Metadata    map[string]any `json:"metadata,omitempty"`
}

// ──────────────────────────────────────────────────
// Roles
// ──────────────────────────────────────────────────

// GetRole returns a role by ID.
func (e *Engine) GetRole(ctx context.Context, roleID id.RoleID) (*role.Role, error) {
	r, err := e.store.GetRole(ctx, roleID)
	if err != nil {
		return nil, notFound(err, ErrRoleNotFound, roleID)
	}
	return r, nil
}

// ListRoles returns roles matching filter.
func (e *Engine) ListRoles(ctx context.Context, filter *role.ListFilter) ([]*role.Role, error) {
	return e.store.ListRoles(ctx, filter)
}

// CreateRole validates and persists r, assigning an ID when it has none.
func (e *Engine) CreateRole(ctx context.Context, r *role.Role) (*role.Role, error) {
	if r.Name == "" {
		return nil, ErrNameRequired
	}
	if err := e.ensureRoleNameFree(ctx, r.Name, id.Nil); err != nil {
		return nil, err
	}
	if r.ID.IsNil() {
		r.ID = id.NewRoleID()
	}
	r.Permissions = dedupe(r.Permissions)
	r.InheritsFrom = dedupe(r.InheritsFrom)
	if err := e.ensureRolesExist(ctx, r.InheritsFrom, r.ID); err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	r.CreatedAt, r.UpdatedAt = now, now

	if err := e.store.CreateRole(ctx, r); err != nil {
		return nil, fmt.Errorf("bastion: create role: %w", err)
	}
	e.Invalidate(ctx)
	if e.plugins != nil {
		e.plugins.EmitRoleCreated(ctx, r)
	}
	return r, nil
}

// UpdateRole applies u to the role. Renaming a system role fails with
// ErrSystemRoleImmutable before anything is written.
func (e *Engine) UpdateRole(ctx context.Context, roleID id.RoleID, u RoleUpdate) (*role.Role, error) {
	r, err := e.GetRole(ctx, roleID)
	if err != nil {
		return nil, err
	}
	if u.Name != nil && *u.Name != r.Name {
		if r.IsSystem {
			return nil, ErrSystemRoleImmutable
		}
		if *u.Name == "" {
			return nil, ErrNameRequired
		}
		if err := e.ensureRoleNameFree(ctx, *u.Name, r.ID); err != nil {
			return nil, err
		}
		r.Name = *u.Name
	}
	if u.DisplayName != nil {
		r.DisplayName = *u.DisplayName
	}
	if u.Description != nil {
		r.Description = *u.Description
	}
	if u.Permissions != nil {
		r.Permissions = dedupe(*u.Permissions)
	}
	if u.InheritsFrom != nil {
		parents := dedupe(*u.InheritsFrom)
		if err := e.ensureRolesExist(ctx, parents, r.ID); err != nil {
			return nil, err
		}
		r.InheritsFrom = parents
	}
	if u.Priority != nil {
		r.Priority = *u.Priority
	}
	if u.Metadata != nil {
		r.Metadata = u.Metadata
	}
	r.UpdatedAt = time.Now().UTC()

	if err := e.store.UpdateRole(ctx, r); err != nil {
		return nil, notFound(err, ErrRoleNotFound, roleID)
	}
	e.Invalidate(ctx)
	if e.plugins != nil {
		e.plugins.EmitRoleUpdated(ctx, r)
	}
	return r, nil
}

// DeleteRole removes a non-system role.
func (e *Engine) DeleteRole(ctx context.Context, roleID id.RoleID) error {
	r, err := e.GetRole(ctx, roleID)
	if err != nil {
		return err
	}
	if r.IsSystem {
		return ErrSystemRoleImmutable
	}
	if err := e.store.DeleteRole(ctx, roleID); err != nil {
		return notFound(err, ErrRoleNotFound, roleID)
	}
	e.Invalidate(ctx)
	if e.plugins != nil {
		e.plugins.EmitRoleDeleted(ctx, roleID)
	}
	return nil
}

// RolePermissions returns the permissions directly attached to a role.
// References to deleted permissions are skipped.
func (e *Engine) RolePermissions(ctx context.Context, roleID id.RoleID) ([]*permission.Permission, error) {
	r, err := e.GetRole(ctx, roleID)
	if err != nil {
		return nil, err
	}
	if len(r.Permissions) == 0 {
		return []*permission.Permission{}, nil
	}
	return e.store.GetPermissions(ctx, r.Permissions)
}

// AssignPermissions adds permIDs to the role. Every ID must exist.
func (e *Engine) AssignPermissions(ctx context.Context, roleID id.RoleID, permIDs []id.PermissionID) (*role.Role, error) {
	r, err := e.GetRole(ctx, roleID)
	if err != nil {
		return nil, err
	}
	permIDs = dedupe(permIDs)
	found, err := e.store.GetPermissions(ctx, permIDs)
	if err != nil {
		return nil, fmt.Errorf("bastion: load permissions: %w", err)
	}
	if len(found) != len(permIDs) {
		return nil, fmt.Errorf("%w: %w: %s", ErrUnknownReference, ErrPermissionNotFound, missingIDs(permIDs, permissionIDs(found)))
	}

	r.Permissions = dedupe(append(r.Permissions, permIDs...))
	r.UpdatedAt = time.Now().UTC()
	if err := e.store.UpdateRole(ctx, r); err != nil {
		return nil, notFound(err, ErrRoleNotFound, roleID)
	}
	e.Invalidate(ctx)
	if e.plugins != nil {
		e.plugins.EmitPermissionsAssigned(ctx, roleID, permIDs)
	}
	return r, nil
}

// UnassignPermissions removes permIDs from the role. IDs the role does not
// hold are ignored.
func (e *Engine) UnassignPermissions(ctx context.Context, roleID id.RoleID, permIDs []id.PermissionID) (*role.Role, error) {
	r, err := e.GetRole(ctx, roleID)
	if err != nil {
		return nil, err
	}
	r.Permissions = slices.DeleteFunc(r.Permissions, func(p id.PermissionID) bool {
		return id.Contains(permIDs, p)
	})
	r.UpdatedAt = time.Now().UTC()
	if err := e.store.UpdateRole(ctx, r); err != nil {
		return nil, notFound(err, ErrRoleNotFound, roleID)
	}
	e.Invalidate(ctx)
	if e.plugins != nil {
		e.plugins.EmitPermissionsUnassigned(ctx, roleID, permIDs)
	}
	return r, nil
}

func (e *Engine) ensureRoleNameFree(ctx context.Context, name string, self id.RoleID) error {
	existing, err := e.store.GetRoleByName(ctx, name)
	switch {
	case errors.Is(err, store.ErrNotFound):
		return nil
	case err != nil:
		return fmt.Errorf("bastion: lookup role name: %w", err)
	case existing.ID != self:
		return fmt.Errorf("%w: role %q", ErrDuplicateName, name)
	}
	return nil
}

// ensureRolesExist checks that every parent exists. A role may list itself;
// resolution tolerates the self-edge.
func (e *Engine) ensureRolesExist(ctx context.Context, parents []id.RoleID, self id.RoleID) error {
	var lookup []id.RoleID
	for _, p := range parents {
		if p != self {
			lookup = append(lookup, p)
		}
	}
	if len(lookup) == 0 {
		return nil
	}
	found, err := e.store.GetRoles(ctx, lookup)
	if err != nil {
		return fmt.Errorf("bastion: load parent roles: %w", err)
	}
	if len(found) != len(lookup) {
		return fmt.Errorf("%w: %w: %s", ErrUnknownReference, ErrRoleNotFound, missingIDs(lookup, roleIDs(found)))
	}
	return nil
}

// ──────────────────────────────────────────────────
// Permissions
// ──────────────────────────────────────────────────

// GetPermission returns a permission by ID.
func (e *Engine) GetPermission(ctx context.Context, permID id.PermissionID) (*permission.Permission, error) {
	p, err := e.store.GetPermission(ctx, permID)
	if err != nil {
		return nil, notFound(err, ErrPermissionNotFound, permID)
	}
	return p, nil
}

// ListPermissions returns permissions matching filter.
func (e *Engine) ListPermissions(ctx context.Context, filter *permission.ListFilter) ([]*permission.Permission, error) {
	return e.store.ListPermissions(ctx, filter)
}

// CreatePermission validates and persists p, assigning an ID when it has none.
func (e *Engine) CreatePermission(ctx context.Context, p *permission.Permission) (*permission.Permission, error) {
	if err := validatePermission(p); err != nil {
		return nil, err
	}
	if err := e.ensurePermissionNameFree(ctx, p.Name, id.Nil); err != nil {
		return nil, err
	}
	if p.ID.IsNil() {
		p.ID = id.NewPermissionID()
	}
	now := time.Now().UTC()
	p.CreatedAt, p.UpdatedAt = now, now

	if err := e.store.CreatePermission(ctx, p); err != nil {
		return nil, fmt.Errorf("bastion: create permission: %w", err)
	}
	e.Invalidate(ctx)
	if e.plugins != nil {
		e.plugins.EmitPermissionCreated(ctx, p)
	}
	return p, nil
}

// UpdatePermission applies u to the permission. Renaming a system
// permission fails with ErrSystemPermissionImmutable before anything is
// written.
func (e *Engine) UpdatePermission(ctx context.Context, permID id.PermissionID, u PermissionUpdate) (*permission.Permission, error) {
	p, err := e.GetPermission(ctx, permID)
	if err != nil {
		return nil, err
	}
	if u.Name != nil && *u.Name != p.Name {
		if p.IsSystem {
			return nil, ErrSystemPermissionImmutable
		}
		if err := e.ensurePermissionNameFree(ctx, *u.Name, p.ID); err != nil {
			return nil, err
		}
		p.Name = *u.Name
	}
	if u.DisplayName != nil {
		p.DisplayName = *u.DisplayName
	}
	if u.Description != nil {
		p.Description = *u.Description
	}
	if u.Scope != nil {
		p.Scope = *u.Scope
	}
	if u.Resource != nil {
		p.Resource = *u.Resource
	}
	if u.Metadata != nil {
		p.Metadata = u.Metadata
	}
	if err := validatePermission(p); err != nil {
		return nil, err
	}
	p.UpdatedAt = time.Now().UTC()

	if err := e.store.UpdatePermission(ctx, p); err != nil {
		return nil, notFound(err, ErrPermissionNotFound, permID)
	}
	e.Invalidate(ctx)
	if e.plugins != nil {
		e.plugins.EmitPermissionUpdated(ctx, p)
	}
	return p, nil
}

// DeletePermission removes a non-system permission. Roles still listing it
// keep a dangling reference that resolution skips.
func (e *Engine) DeletePermission(ctx context.Context, permID id.PermissionID) error {
	p, err := e.GetPermission(ctx, permID)
	if err != nil {
		return err
	}
	if p.IsSystem {
		return ErrSystemPermissionImmutable
	}
	if err := e.store.DeletePermission(ctx, permID); err != nil {
		return notFound(err, ErrPermissionNotFound, permID)
	}
	e.Invalidate(ctx)
	if e.plugins != nil {
		e.plugins.EmitPermissionDeleted(ctx, permID)
	}
	return nil
}

func roleIDs(rs []*role.Role) []id.ID {
	out := make([]id.ID, len(rs))
	for i, r := range rs {
		out[i] = r.ID
	}
	return out
}

func permissionIDs(ps []*permission.Permission) []id.ID {
	out := make([]id.ID, len(ps))
	for i, p := range ps {
		out[i] = p.ID
	}
	return out
}

func validatePermission(p *permission.Permission) error {
	if p.Name == "" {
		return ErrNameRequired
	}
	if !p.Scope.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidScope, p.Scope)
	}
	if err := p.Resource.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidResource, err)
	}
	return nil
}

func (e *Engine) ensurePermissionNameFree(ctx context.Context, name string, self id.PermissionID) error {
	existing, err := e.store.GetPermissionByName(ctx, name)
	switch {
	case errors.Is(err, store.ErrNotFound):
		return nil
	case err != nil:
		return fmt.Errorf("bastion: lookup permission name: %w", err)
	case existing.ID != self:
		return fmt.Errorf("%w: permission %q", ErrDuplicateName, name)
	}
	return nil
}

// ──────────────────────────────────────────────────
// Helpers
// ──────────────────────────────────────────────────

// notFound maps a backend not-found error to the entity sentinel and wraps
// anything else.
func notFound(err, sentinel error, ref id.ID) error {
	if errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("%w: %s", sentinel, ref)
	}
	return fmt.Errorf("bastion: %w", err)
}

func dedupe(ids []id.ID) []id.ID {
	if ids == nil {
		return []id.ID{}
	}
	seen := make(map[id.ID]struct{}, len(ids))
	out := make([]id.ID, 0, len(ids))
	for _, v := range ids {
		if v.IsNil() {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

func missingIDs(want, have []id.ID) string {
	var missing []id.ID
	for _, w := range want {
		if !id.Contains(have, w) {
			missing = append(missing, w)
		}
	}
	return fmt.Sprint(id.Strings(missing))
}
