package bastion

import (
	"context"
	"fmt"
	"slices"
	"sort"

	"github.com/xraph/bastion/id"
	"github.com/xraph/bastion/permission"
	"github.com/xraph/bastion/role"
)

// compute resolves the closure of roleIDs and aggregates its permissions.
func (e *Engine) compute(ctx context.Context, roleIDs []id.RoleID) (*ResolvedPermissions, error) {
	roles, err := e.resolveClosure(ctx, roleIDs)
	if err != nil {
		return nil, err
	}

	seen := make(map[id.PermissionID]struct{})
	var permIDs []id.PermissionID
	for _, r := range roles {
		for _, pid := range r.Permissions {
			if _, ok := seen[pid]; ok {
				continue
			}
			seen[pid] = struct{}{}
			permIDs = append(permIDs, pid)
		}
	}

	var perms []*permission.Permission
	if len(permIDs) > 0 {
		perms, err = e.store.GetPermissions(ctx, permIDs)
		if err != nil {
			return nil, fmt.Errorf("load permissions: %w", err)
		}
	}
	return Aggregate(roles, perms), nil
}

// Aggregate buckets perms by resource level. The result does not depend on
// the order of roles or perms.
//
//   - global and schema collect distinct scopes.
//   - field marks each listed field visible; it is readonly when some read
//     permission names it and no update permission does.
//   - record contributes one rule per condition.
//
// Schema permissions without a target are skipped.
func Aggregate(roles []*role.Role, perms []*permission.Permission) *ResolvedPermissions {
	rp := newResolvedPermissions()

	sorted := slices.Clone(perms)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ID.String() < sorted[j].ID.String() })

	updatable := make(map[string]map[string]bool)
	for _, p := range sorted {
		res := p.Resource
		switch res.Type {
		case permission.ResourceGlobal:
			rp.Global = appendScope(rp.Global, p.Scope)

		case permission.ResourceSchema:
			if res.Target == "" {
				continue
			}
			rp.Schemas[res.Target] = appendScope(rp.Schemas[res.Target], p.Scope)

		case permission.ResourceField:
			if len(res.Fields) == 0 {
				continue
			}
			fields, ok := rp.Fields[res.Target]
			if !ok {
				fields = make(map[string]FieldPermission, len(res.Fields))
				rp.Fields[res.Target] = fields
			}
			if updatable[res.Target] == nil {
				updatable[res.Target] = make(map[string]bool)
			}
			for _, f := range res.Fields {
				fp, ok := fields[f]
				if !ok {
					fp = FieldPermission{Visible: true}
				}
				switch p.Scope {
				case permission.ScopeUpdate:
					fp.Readonly = false
					updatable[res.Target][f] = true
				case permission.ScopeRead:
					if !updatable[res.Target][f] {
						fp.Readonly = true
					}
				}
				fields[f] = fp
			}

		case permission.ResourceRecord:
			for _, c := range res.Conditions {
				rp.Records[res.Target] = append(rp.Records[res.Target], RecordRule{Scope: p.Scope, Condition: c})
			}
		}
	}

	sortScopes(rp.Global)
	for _, scopes := range rp.Schemas {
		sortScopes(scopes)
	}

	sortedRoles := slices.Clone(roles)
	sort.Slice(sortedRoles, func(i, j int) bool { return sortedRoles[i].ID.String() < sortedRoles[j].ID.String() })
	for _, r := range sortedRoles {
		rp.RoleIDs = append(rp.RoleIDs, r.ID.String())
		rp.RoleNames = append(rp.RoleNames, r.Name)
	}
	return rp
}

func appendScope(scopes []Scope, s Scope) []Scope {
	if slices.Contains(scopes, s) {
		return scopes
	}
	return append(scopes, s)
}

// sortScopes orders scopes canonically: create, read, update, delete, publish.
func sortScopes(scopes []Scope) {
	sort.Slice(scopes, func(i, j int) bool {
		return slices.Index(permission.Scopes, scopes[i]) < slices.Index(permission.Scopes, scopes[j])
	})
}
