package role

import (
	"context"

	"github.com/xraph/bastion/id"
)

// Store defines persistence operations for roles.
//
// Lookups of a missing role return an error wrapping store.ErrNotFound.
type Store interface {
	// CreateRole persists a new role.
	CreateRole(ctx context.Context, r *Role) error

	// GetRole retrieves a role by ID.
	GetRole(ctx context.Context, roleID id.RoleID) (*Role, error)

	// GetRoleByName retrieves a role by its unique name.
	GetRoleByName(ctx context.Context, name string) (*Role, error)

	// GetRoles retrieves every role in ids that exists. Missing IDs are
	// skipped rather than reported.
	GetRoles(ctx context.Context, ids []id.RoleID) ([]*Role, error)

	// UpdateRole persists changes to a role.
	UpdateRole(ctx context.Context, r *Role) error

	// DeleteRole removes a role by ID.
	DeleteRole(ctx context.Context, roleID id.RoleID) error

	// ListRoles returns roles matching the filter, ordered by name.
	ListRoles(ctx context.Context, filter *ListFilter) ([]*Role, error)

	// CountRoles returns the number of roles matching the filter.
	CountRoles(ctx context.Context, filter *ListFilter) (int64, error)
}
