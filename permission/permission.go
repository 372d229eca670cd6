// Package permission defines the Permission entity, its resource and
// condition model, and its store interface.
package permission

import (
	"slices"
	"strings"
	"time"

	"github.com/xraph/bastion/id"
)

// Permission grants one scope on a resource at a given level.
// Names follow the convention "category:target:scope".
type Permission struct {
	ID          id.PermissionID `json:"id" db:"id"`
	Name        string          `json:"name" db:"name"`
	DisplayName string          `json:"display_name" db:"display_name"`
	Description string          `json:"description,omitempty" db:"description"`
	Scope       Scope           `json:"scope" db:"scope"`
	Resource    Resource        `json:"resource" db:"resource"`
	IsSystem    bool            `json:"is_system" db:"is_system"`
	Metadata    map[string]any  `json:"metadata,omitempty" db:"metadata"`
	CreatedAt   time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at" db:"updated_at"`
}

// Clone returns a deep copy of the permission.
func (p *Permission) Clone() *Permission {
	c := *p
	c.Resource.Fields = slices.Clone(p.Resource.Fields)
	c.Resource.Conditions = slices.Clone(p.Resource.Conditions)
	if p.Metadata != nil {
		c.Metadata = make(map[string]any, len(p.Metadata))
		for k, v := range p.Metadata {
			c.Metadata[k] = v
		}
	}
	return &c
}

// FormatName builds a conventional permission name.
func FormatName(category, target string, scope Scope) string {
	return strings.Join([]string{category, target, string(scope)}, ":")
}

// ListFilter contains filters for listing permissions.
type ListFilter struct {
	Scope        Scope        `json:"scope,omitempty"`
	ResourceType ResourceType `json:"resource_type,omitempty"`
	Target       string       `json:"target,omitempty"`
	IsSystem     *bool        `json:"is_system,omitempty"`
	Search       string       `json:"search,omitempty"`
	Limit        int          `json:"limit,omitempty"`
	Offset       int          `json:"offset,omitempty"`
}
