// Package role defines the Role entity and its store interface for RBAC.
package role

import (
	"slices"
	"time"

	"github.com/xraph/bastion/id"
)

// Role groups permissions and may inherit the permissions of other roles.
// Inheritance is transitive and may contain cycles; resolution tolerates both.
type Role struct {
	ID           id.RoleID         `json:"id" db:"id"`
	Name         string            `json:"name" db:"name"`
	DisplayName  string            `json:"display_name" db:"display_name"`
	Description  string            `json:"description,omitempty" db:"description"`
	Permissions  []id.PermissionID `json:"permissions" db:"permissions"`
	InheritsFrom []id.RoleID       `json:"inherits_from,omitempty" db:"inherits_from"`
	IsSystem     bool              `json:"is_system" db:"is_system"`
	// Priority is informational. Aggregation is a pure union and never
	// consults it.
	Priority  int            `json:"priority" db:"priority"`
	Metadata  map[string]any `json:"metadata,omitempty" db:"metadata"`
	CreatedAt time.Time      `json:"created_at" db:"created_at"`
	UpdatedAt time.Time      `json:"updated_at" db:"updated_at"`
}

// Clone returns a deep copy of the role's slices so callers can mutate the
// copy without touching shared state.
func (r *Role) Clone() *Role {
	c := *r
	c.Permissions = slices.Clone(r.Permissions)
	c.InheritsFrom = slices.Clone(r.InheritsFrom)
	if r.Metadata != nil {
		c.Metadata = make(map[string]any, len(r.Metadata))
		for k, v := range r.Metadata {
			c.Metadata[k] = v
		}
	}
	return &c
}

// ListFilter contains filters for listing roles.
type ListFilter struct {
	IsSystem *bool  `json:"is_system,omitempty"`
	Search   string `json:"search,omitempty"`
	Limit    int    `json:"limit,omitempty"`
	Offset   int    `json:"offset,omitempty"`
}
