package bastion

import (
	"context"
	"fmt"

	"github.com/xraph/bastion/id"
	"github.com/xraph/bastion/role"
)

// resolveClosure expands roleIDs through inheritsFrom edges breadth-first.
// It returns every reachable role that exists, keyed by ID, in discovery
// order. The visited set makes cycles and self-inheritance terminate;
// dangling references are skipped. A store failure aborts the walk.
func (e *Engine) resolveClosure(ctx context.Context, roleIDs []id.RoleID) ([]*role.Role, error) {
	closure := make(map[id.RoleID]struct{}, len(roleIDs))
	visited := make(map[id.RoleID]struct{}, len(roleIDs))
	frontier := make([]id.RoleID, 0, len(roleIDs))
	for _, rid := range roleIDs {
		if rid.IsNil() {
			continue
		}
		if _, ok := closure[rid]; ok {
			continue
		}
		closure[rid] = struct{}{}
		frontier = append(frontier, rid)
	}

	var found []*role.Role
	for len(frontier) > 0 {
		batch := make([]id.RoleID, 0, len(frontier))
		for _, rid := range frontier {
			if _, ok := visited[rid]; ok {
				continue
			}
			visited[rid] = struct{}{}
			batch = append(batch, rid)
		}
		frontier = frontier[:0]
		if len(batch) == 0 {
			break
		}

		roles, err := e.store.GetRoles(ctx, batch)
		if err != nil {
			return nil, fmt.Errorf("load roles: %w", err)
		}
		for _, r := range roles {
			found = append(found, r)
			for _, parent := range r.InheritsFrom {
				if _, ok := closure[parent]; ok {
					continue
				}
				closure[parent] = struct{}{}
				frontier = append(frontier, parent)
			}
		}
	}
	return found, nil
}
