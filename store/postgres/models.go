package postgres

import (
	"time"

	"github.com/xraph/grove"

	"github.com/xraph/bastion/id"
	"github.com/xraph/bastion/permission"
	"github.com/xraph/bastion/role"
)

// ──────────────────────────────────────────────────
// Role model
// ──────────────────────────────────────────────────

type roleModel struct {
	grove.BaseModel `grove:"table:bastion_roles"`
	ID              string         `grove:"id,pk"`
	Name            string         `grove:"name,notnull"`
	DisplayName     string         `grove:"display_name"`
	Description     string         `grove:"description"`
	Permissions     []string       `grove:"permissions,type:jsonb"`
	InheritsFrom    []string       `grove:"inherits_from,type:jsonb"`
	IsSystem        bool           `grove:"is_system,notnull"`
	Priority        int            `grove:"priority,notnull"`
	Metadata        map[string]any `grove:"metadata,type:jsonb"`
	CreatedAt       time.Time      `grove:"created_at,notnull"`
	UpdatedAt       time.Time      `grove:"updated_at,notnull"`
}

func roleToModel(r *role.Role) *roleModel {
	return &roleModel{
		ID:           r.ID.String(),
		Name:         r.Name,
		DisplayName:  r.DisplayName,
		Description:  r.Description,
		Permissions:  nonNil(id.Strings(r.Permissions)),
		InheritsFrom: nonNil(id.Strings(r.InheritsFrom)),
		IsSystem:     r.IsSystem,
		Priority:     r.Priority,
		Metadata:     r.Metadata,
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
	}
}

func roleFromModel(m *roleModel) *role.Role {
	rid, _ := id.ParseRoleID(m.ID) //nolint:errcheck // stored IDs are always valid
	return &role.Role{
		ID:           rid,
		Name:         m.Name,
		DisplayName:  m.DisplayName,
		Description:  m.Description,
		Permissions:  parseStored(m.Permissions, id.PrefixPermission),
		InheritsFrom: parseStored(m.InheritsFrom, id.PrefixRole),
		IsSystem:     m.IsSystem,
		Priority:     m.Priority,
		Metadata:     m.Metadata,
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	}
}

// ──────────────────────────────────────────────────
// Permission model
// ──────────────────────────────────────────────────

type permissionModel struct {
	grove.BaseModel `grove:"table:bastion_permissions"`
	ID              string                 `grove:"id,pk"`
	Name            string                 `grove:"name,notnull"`
	DisplayName     string                 `grove:"display_name"`
	Description     string                 `grove:"description"`
	Scope           string                 `grove:"scope,notnull"`
	ResourceType    string                 `grove:"resource_type,notnull"`
	Target          string                 `grove:"target,notnull"`
	Fields          []string               `grove:"fields,type:jsonb"`
	Conditions      []permission.Condition `grove:"conditions,type:jsonb"`
	IsSystem        bool                   `grove:"is_system,notnull"`
	Metadata        map[string]any         `grove:"metadata,type:jsonb"`
	CreatedAt       time.Time              `grove:"created_at,notnull"`
	UpdatedAt       time.Time              `grove:"updated_at,notnull"`
}

func permissionToModel(p *permission.Permission) *permissionModel {
	return &permissionModel{
		ID:           p.ID.String(),
		Name:         p.Name,
		DisplayName:  p.DisplayName,
		Description:  p.Description,
		Scope:        string(p.Scope),
		ResourceType: string(p.Resource.Type),
		Target:       p.Resource.Target,
		Fields:       nonNil(p.Resource.Fields),
		Conditions:   p.Resource.Conditions,
		IsSystem:     p.IsSystem,
		Metadata:     p.Metadata,
		CreatedAt:    p.CreatedAt,
		UpdatedAt:    p.UpdatedAt,
	}
}

func permissionFromModel(m *permissionModel) *permission.Permission {
	pid, _ := id.ParsePermissionID(m.ID) //nolint:errcheck // stored IDs are always valid
	return &permission.Permission{
		ID:          pid,
		Name:        m.Name,
		DisplayName: m.DisplayName,
		Description: m.Description,
		Scope:       permission.Scope(m.Scope),
		Resource: permission.Resource{
			Type:       permission.ResourceType(m.ResourceType),
			Target:     m.Target,
			Fields:     m.Fields,
			Conditions: m.Conditions,
		},
		IsSystem:  m.IsSystem,
		Metadata:  m.Metadata,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}

// parseStored drops references that no longer parse rather than failing
// the whole read.
func parseStored(ss []string, prefix id.Prefix) []id.ID {
	out := make([]id.ID, 0, len(ss))
	for _, s := range ss {
		if v, err := id.ParseWithPrefix(s, prefix); err == nil {
			out = append(out, v)
		}
	}
	return out
}

func nonNil(ss []string) []string {
	if ss == nil {
		return []string{}
	}
	return ss
}
