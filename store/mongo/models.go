package mongo

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
	ID              string         `grove:"id,pk"         bson:"_id"`
	Name            string         `grove:"name"          bson:"name"`
	DisplayName     string         `grove:"display_name"  bson:"display_name"`
	Description     string         `grove:"description"   bson:"description"`
	Permissions     []string       `grove:"permissions"   bson:"permissions"`
	InheritsFrom    []string       `grove:"inherits_from" bson:"inherits_from"`
	IsSystem        bool           `grove:"is_system"     bson:"is_system"`
	Priority        int            `grove:"priority"      bson:"priority"`
	Metadata        map[string]any `grove:"metadata"      bson:"metadata,omitempty"`
	CreatedAt       time.Time      `grove:"created_at"    bson:"created_at"`
	UpdatedAt       time.Time      `grove:"updated_at"    bson:"updated_at"`
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

// The resource is embedded as a sub-document using the bson tags on
// permission.Resource.
type permissionModel struct {
	grove.BaseModel `grove:"table:bastion_permissions"`
	ID              string              `grove:"id,pk"        bson:"_id"`
	Name            string              `grove:"name"         bson:"name"`
	DisplayName     string              `grove:"display_name" bson:"display_name"`
	Description     string              `grove:"description"  bson:"description"`
	Scope           string              `grove:"scope"        bson:"scope"`
	Resource        permission.Resource `grove:"resource"     bson:"resource"`
	IsSystem        bool                `grove:"is_system"    bson:"is_system"`
	Metadata        map[string]any      `grove:"metadata"     bson:"metadata,omitempty"`
	CreatedAt       time.Time           `grove:"created_at"   bson:"created_at"`
	UpdatedAt       time.Time           `grove:"updated_at"   bson:"updated_at"`
}

func permissionToModel(p *permission.Permission) *permissionModel {
	return &permissionModel{
		ID:          p.ID.String(),
		Name:        p.Name,
		DisplayName: p.DisplayName,
		Description: p.Description,
		Scope:       string(p.Scope),
		Resource:    p.Resource,
		IsSystem:    p.IsSystem,
		Metadata:    p.Metadata,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
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
		Resource:    m.Resource,
		IsSystem:    m.IsSystem,
		Metadata:    m.Metadata,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
}

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
