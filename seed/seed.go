// Package seed installs a baseline set of roles and permissions.
//
// Seeding is idempotent by name: entries that already exist are left as
// they are, so Apply can run on every boot.
package seed

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/xraph/bastion"
	"github.com/xraph/bastion/id"
	"github.com/xraph/bastion/permission"
	"github.com/xraph/bastion/role"
	"github.com/xraph/bastion/store"
)

// Permission describes a permission to install.
type Permission struct {
	Name        string              `yaml:"name"`
	DisplayName string              `yaml:"display_name"`
	Description string              `yaml:"description"`
	Scope       bastion.Scope       `yaml:"scope"`
	Resource    permission.Resource `yaml:"resource"`
}

// Role describes a role to install. Permissions and InheritsFrom hold
// names, resolved against the store at apply time.
type Role struct {
	Name         string   `yaml:"name"`
	DisplayName  string   `yaml:"display_name"`
	Description  string   `yaml:"description"`
	Permissions  []string `yaml:"permissions"`
	InheritsFrom []string `yaml:"inherits_from"`
	Priority     int      `yaml:"priority"`
}

// Set is a seed document. Roles are created in order, so parents must
// appear before their children.
type Set struct {
	Permissions []Permission `yaml:"permissions"`
	Roles       []Role       `yaml:"roles"`
}

// Result counts what Apply created.
type Result struct {
	PermissionsCreated int
	RolesCreated       int
}

// Load decodes a YAML seed document.
func Load(r io.Reader) (*Set, error) {
	var s Set
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&s); err != nil {
		return nil, fmt.Errorf("seed: decode: %w", err)
	}
	return &s, nil
}

// LoadFile decodes the YAML seed document at path.
func LoadFile(path string) (*Set, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("seed: %w", err)
	}
	defer f.Close()
	return Load(f)
}

// Defaults returns the built-in content roles for targets. With no targets
// the content permissions use the "*" target, which only matches when the
// engine has MatchWildcardTargets enabled.
//
//	viewer     read
//	editor     viewer + create, update
//	publisher  editor + publish, delete
//	admin      every scope globally
func Defaults(targets ...string) *Set {
	if len(targets) == 0 {
		targets = []string{"*"}
	}
	s := &Set{}
	names := make(map[bastion.Scope][]string, len(permission.Scopes))
	for _, t := range targets {
		for _, sc := range permission.Scopes {
			name := permission.FormatName("content", t, sc)
			s.Permissions = append(s.Permissions, Permission{
				Name:     name,
				Scope:    sc,
				Resource: permission.Resource{Type: permission.ResourceSchema, Target: t},
			})
			names[sc] = append(names[sc], name)
		}
	}
	var adminPerms []string
	for _, sc := range permission.Scopes {
		name := permission.FormatName("admin", "*", sc)
		s.Permissions = append(s.Permissions, Permission{
			Name:     name,
			Scope:    sc,
			Resource: permission.Resource{Type: permission.ResourceGlobal},
		})
		adminPerms = append(adminPerms, name)
	}

	s.Roles = []Role{
		{Name: "viewer", DisplayName: "Viewer", Permissions: names[permission.ScopeRead], Priority: 10},
		{
			Name:         "editor",
			DisplayName:  "Editor",
			Permissions:  append(append([]string{}, names[permission.ScopeCreate]...), names[permission.ScopeUpdate]...),
			InheritsFrom: []string{"viewer"},
			Priority:     20,
		},
		{
			Name:         "publisher",
			DisplayName:  "Publisher",
			Permissions:  append(append([]string{}, names[permission.ScopePublish]...), names[permission.ScopeDelete]...),
			InheritsFrom: []string{"editor"},
			Priority:     30,
		},
		{Name: "admin", DisplayName: "Administrator", Permissions: adminPerms, Priority: 100},
	}
	return s
}

// Apply creates every permission and role of s that does not exist yet.
// Seeded entries are marked as system entries.
func Apply(ctx context.Context, eng *bastion.Engine, s *Set) (*Result, error) {
	res := &Result{}
	st := eng.Store()

	permIDs := make(map[string]id.PermissionID, len(s.Permissions))
	for _, sp := range s.Permissions {
		existing, err := st.GetPermissionByName(ctx, sp.Name)
		switch {
		case err == nil:
			permIDs[sp.Name] = existing.ID
			continue
		case !errors.Is(err, store.ErrNotFound):
			return res, fmt.Errorf("seed: lookup permission %q: %w", sp.Name, err)
		}
		p, err := eng.CreatePermission(ctx, &permission.Permission{
			Name:        sp.Name,
			DisplayName: sp.DisplayName,
			Description: sp.Description,
			Scope:       sp.Scope,
			Resource:    sp.Resource,
			IsSystem:    true,
		})
		if err != nil {
			return res, fmt.Errorf("seed: permission %q: %w", sp.Name, err)
		}
		permIDs[sp.Name] = p.ID
		res.PermissionsCreated++
	}

	roleIDs := make(map[string]id.RoleID, len(s.Roles))
	for _, sr := range s.Roles {
		existing, err := st.GetRoleByName(ctx, sr.Name)
		switch {
		case err == nil:
			roleIDs[sr.Name] = existing.ID
			continue
		case !errors.Is(err, store.ErrNotFound):
			return res, fmt.Errorf("seed: lookup role %q: %w", sr.Name, err)
		}

		r := &role.Role{
			Name:        sr.Name,
			DisplayName: sr.DisplayName,
			Description: sr.Description,
			Priority:    sr.Priority,
			IsSystem:    true,
		}
		for _, name := range sr.Permissions {
			pid, err := lookupPermission(ctx, st, permIDs, name)
			if err != nil {
				return res, fmt.Errorf("seed: role %q: %w", sr.Name, err)
			}
			r.Permissions = append(r.Permissions, pid)
		}
		for _, name := range sr.InheritsFrom {
			rid, ok := roleIDs[name]
			if !ok {
				parent, err := st.GetRoleByName(ctx, name)
				if err != nil {
					return res, fmt.Errorf("seed: role %q parent %q: %w", sr.Name, name, err)
				}
				rid = parent.ID
			}
			r.InheritsFrom = append(r.InheritsFrom, rid)
		}

		created, err := eng.CreateRole(ctx, r)
		if err != nil {
			return res, fmt.Errorf("seed: role %q: %w", sr.Name, err)
		}
		roleIDs[sr.Name] = created.ID
		res.RolesCreated++
	}
	return res, nil
}

func lookupPermission(ctx context.Context, st store.Store, known map[string]id.PermissionID, name string) (id.PermissionID, error) {
	if pid, ok := known[name]; ok {
		return pid, nil
	}
	p, err := st.GetPermissionByName(ctx, name)
	if err != nil {
		return id.Nil, fmt.Errorf("permission %q: %w", name, err)
	}
	return p.ID, nil
}
