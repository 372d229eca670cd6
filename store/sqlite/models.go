package sqlite

import (
	"encoding/json"
	"fmt"
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
	ID              string    `grove:"id,pk"`
	Name            string    `grove:"name,notnull"`
	DisplayName     string    `grove:"display_name"`
	Description     string    `grove:"description"`
	Permissions     string    `grove:"permissions"`   // JSON text
	InheritsFrom    string    `grove:"inherits_from"` // JSON text
	IsSystem        bool      `grove:"is_system,notnull"`
	Priority        int       `grove:"priority,notnull"`
	Metadata        string    `grove:"metadata"` // JSON text
	CreatedAt       time.Time `grove:"created_at,notnull"`
	UpdatedAt       time.Time `grove:"updated_at,notnull"`
}

func roleToModel(r *role.Role) (*roleModel, error) {
	perms, err := encodeJSON(nonNil(id.Strings(r.Permissions)))
	if err != nil {
		return nil, fmt.Errorf("marshal role permissions: %w", err)
	}
	parents, err := encodeJSON(nonNil(id.Strings(r.InheritsFrom)))
	if err != nil {
		return nil, fmt.Errorf("marshal role parents: %w", err)
	}
	metadata, err := encodeJSON(r.Metadata)
	if err != nil {
		return nil, fmt.Errorf("marshal role metadata: %w", err)
	}
	return &roleModel{
		ID:           r.ID.String(),
		Name:         r.Name,
		DisplayName:  r.DisplayName,
		Description:  r.Description,
		Permissions:  perms,
		InheritsFrom: parents,
		IsSystem:     r.IsSystem,
		Priority:     r.Priority,
		Metadata:     metadata,
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
	}, nil
}

func roleFromModel(m *roleModel) (*role.Role, error) {
	rid, _ := id.ParseRoleID(m.ID) //nolint:errcheck // stored IDs are always valid
	var perms, parents []string
	if err := decodeJSON(m.Permissions, &perms); err != nil {
		return nil, fmt.Errorf("unmarshal role permissions: %w", err)
	}
	if err := decodeJSON(m.InheritsFrom, &parents); err != nil {
		return nil, fmt.Errorf("unmarshal role parents: %w", err)
	}
	var metadata map[string]any
	if err := decodeJSON(m.Metadata, &metadata); err != nil {
		return nil, fmt.Errorf("unmarshal role metadata: %w", err)
	}
	return &role.Role{
		ID:           rid,
		Name:         m.Name,
		DisplayName:  m.DisplayName,
		Description:  m.Description,
		Permissions:  parseStored(perms, id.PrefixPermission),
		InheritsFrom: parseStored(parents, id.PrefixRole),
		IsSystem:     m.IsSystem,
		Priority:     m.Priority,
		Metadata:     metadata,
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	}, nil
}

// ──────────────────────────────────────────────────
// Permission model
// ──────────────────────────────────────────────────

type permissionModel struct {
	grove.BaseModel `grove:"table:bastion_permissions"`
	ID              string    `grove:"id,pk"`
	Name            string    `grove:"name,notnull"`
	DisplayName     string    `grove:"display_name"`
	Description     string    `grove:"description"`
	Scope           string    `grove:"scope,notnull"`
	ResourceType    string    `grove:"resource_type,notnull"`
	Target          string    `grove:"target,notnull"`
	Fields          string    `grove:"fields"`     // JSON text
	Conditions      string    `grove:"conditions"` // JSON text
	IsSystem        bool      `grove:"is_system,notnull"`
	Metadata        string    `grove:"metadata"` // JSON text
	CreatedAt       time.Time `grove:"created_at,notnull"`
	UpdatedAt       time.Time `grove:"updated_at,notnull"`
}

func permissionToModel(p *permission.Permission) (*permissionModel, error) {
	fields, err := encodeJSON(nonNil(p.Resource.Fields))
	if err != nil {
		return nil, fmt.Errorf("marshal permission fields: %w", err)
	}
	conditions, err := encodeJSON(p.Resource.Conditions)
	if err != nil {
		return nil, fmt.Errorf("marshal permission conditions: %w", err)
	}
	metadata, err := encodeJSON(p.Metadata)
	if err != nil {
		return nil, fmt.Errorf("marshal permission metadata: %w", err)
	}
	return &permissionModel{
		ID:           p.ID.String(),
		Name:         p.Name,
		DisplayName:  p.DisplayName,
		Description:  p.Description,
		Scope:        string(p.Scope),
		ResourceType: string(p.Resource.Type),
		Target:       p.Resource.Target,
		Fields:       fields,
		Conditions:   conditions,
		IsSystem:     p.IsSystem,
		Metadata:     metadata,
		CreatedAt:    p.CreatedAt,
		UpdatedAt:    p.UpdatedAt,
	}, nil
}

func permissionFromModel(m *permissionModel) (*permission.Permission, error) {
	pid, _ := id.ParsePermissionID(m.ID) //nolint:errcheck // stored IDs are always valid
	var fields []string
	if err := decodeJSON(m.Fields, &fields); err != nil {
		return nil, fmt.Errorf("unmarshal permission fields: %w", err)
	}
	var conditions []permission.Condition
	if err := decodeJSON(m.Conditions, &conditions); err != nil {
		return nil, fmt.Errorf("unmarshal permission conditions: %w", err)
	}
	var metadata map[string]any
	if err := decodeJSON(m.Metadata, &metadata); err != nil {
		return nil, fmt.Errorf("unmarshal permission metadata: %w", err)
	}
	return &permission.Permission{
		ID:          pid,
		Name:        m.Name,
		DisplayName: m.DisplayName,
		Description: m.Description,
		Scope:       permission.Scope(m.Scope),
		Resource: permission.Resource{
			Type:       permission.ResourceType(m.ResourceType),
			Target:     m.Target,
			Fields:     fields,
			Conditions: conditions,
		},
		IsSystem:  m.IsSystem,
		Metadata:  metadata,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}, nil
}

func encodeJSON(v any) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func decodeJSON(s string, v any) error {
	if s == "" || s == "null" {
		return nil
	}
	return json.Unmarshal([]byte(s), v)
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
