package api

import "github.com/xraph/bastion"

// ──────────────────────────────────────────────────
// Role requests
// ──────────────────────────────────────────────────

// CreateRoleRequest is the body for creating a role.
type CreateRoleRequest struct {
	Name         string         `json:"name" description:"Unique role name"`
	DisplayName  string         `json:"display_name,omitempty" description:"Human-readable name"`
	Description  string         `json:"description,omitempty" description:"Human-readable description"`
	Permissions  []string       `json:"permissions,omitempty" description:"Permission IDs granted by the role"`
	InheritsFrom []string       `json:"inherits_from,omitempty" description:"Role IDs whose permissions are inherited"`
	IsSystem     bool           `json:"is_system,omitempty" description:"System role flag"`
	Priority     int            `json:"priority,omitempty" description:"Informational ordering"`
	Metadata     map[string]any `json:"metadata,omitempty" description:"Custom metadata"`
}

// UpdateRoleRequest is the body for updating a role. Omitted fields are
// left unchanged.
type UpdateRoleRequest struct {
	Name         *string        `json:"name,omitempty" description:"Role name"`
	DisplayName  *string        `json:"display_name,omitempty" description:"Human-readable name"`
	Description  *string        `json:"description,omitempty" description:"Human-readable description"`
	Permissions  *[]string      `json:"permissions,omitempty" description:"Replacement permission IDs"`
	InheritsFrom *[]string      `json:"inherits_from,omitempty" description:"Replacement parent role IDs"`
	Priority     *int           `json:"priority,omitempty" description:"Informational ordering"`
	Metadata     map[string]any `json:"metadata,omitempty" description:"Custom metadata"`
}

// GetRoleRequest is the path parameter for a role.
type GetRoleRequest struct {
	ID string `path:"id" description:"Role ID"`
}

// ListRolesRequest holds query parameters for listing roles.
type ListRolesRequest struct {
	Search string `query:"search" optional:"true" description:"Search by name"`
	System *bool  `query:"system" optional:"true" description:"Filter by system flag"`
	Limit  int    `query:"limit" optional:"true" description:"Maximum results (default: 50)"`
	Offset int    `query:"offset" optional:"true" description:"Results to skip"`
}

// RolePermissionsRequest is the body for assigning or unassigning
// permissions.
type RolePermissionsRequest struct {
	PermissionIDs []string `json:"permission_ids" description:"Permission IDs"`
}

// ──────────────────────────────────────────────────
// Permission requests
// ──────────────────────────────────────────────────

// CreatePermissionRequest is the body for creating a permission.
type CreatePermissionRequest struct {
	Name        string           `json:"name" description:"Permission name (category:target:scope)"`
	DisplayName string           `json:"display_name,omitempty" description:"Human-readable name"`
	Description string           `json:"description,omitempty" description:"Human-readable description"`
	Scope       bastion.Scope    `json:"scope" description:"create, read, update, delete or publish"`
	Resource    bastion.Resource `json:"resource" description:"Resource level, target, fields and conditions"`
	IsSystem    bool             `json:"is_system,omitempty" description:"System permission flag"`
	Metadata    map[string]any   `json:"metadata,omitempty" description:"Custom metadata"`
}

// UpdatePermissionRequest is the body for updating a permission.
type UpdatePermissionRequest struct {
	Name        *string           `json:"name,omitempty" description:"Permission name"`
	DisplayName *string           `json:"display_name,omitempty" description:"Human-readable name"`
	Description *string           `json:"description,omitempty" description:"Human-readable description"`
	Scope       *bastion.Scope    `json:"scope,omitempty" description:"Scope"`
	Resource    *bastion.Resource `json:"resource,omitempty" description:"Resource"`
	Metadata    map[string]any    `json:"metadata,omitempty" description:"Custom metadata"`
}

// GetPermissionRequest is the path parameter for a permission.
type GetPermissionRequest struct {
	ID string `path:"id" description:"Permission ID"`
}

// ListPermissionsRequest holds query parameters.
type ListPermissionsRequest struct {
	Scope        string `query:"scope" optional:"true" description:"Filter by scope"`
	ResourceType string `query:"resource_type" optional:"true" description:"Filter by resource level"`
	Target       string `query:"target" optional:"true" description:"Filter by resource target"`
	Search       string `query:"search" optional:"true" description:"Search by name"`
	Limit        int    `query:"limit" optional:"true" description:"Maximum results"`
	Offset       int    `query:"offset" optional:"true" description:"Results to skip"`
}

// ──────────────────────────────────────────────────
// Check requests
// ──────────────────────────────────────────────────

// CheckRequest is the body for an authorization check on behalf of the
// caller.
type CheckRequest struct {
	Scope  bastion.Scope  `json:"scope" description:"Scope to check"`
	Target string         `json:"target" description:"Schema or collection name"`
	Record map[string]any `json:"record,omitempty" description:"Record evaluated against record conditions"`
}
