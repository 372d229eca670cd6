package api

import (
	"context"
	"net/http"

	"github.com/xraph/forge"

	"github.com/xraph/bastion"
	"github.com/xraph/bastion/id"
	"github.com/xraph/bastion/permission"
	"github.com/xraph/bastion/role"
)

func (a *API) registerRoleRoutes(router forge.Router) error {
	g := router.Group(a.basePath, forge.WithGroupTags("roles"))

	if err := g.GET("/roles", a.listRoles,
		forge.WithSummary("List roles"),
		forge.WithDescription("Lists roles ordered by name."),
		forge.WithOperationID("listRoles"),
		forge.WithRequestSchema(ListRolesRequest{}),
		forge.WithResponseSchema(http.StatusOK, "Role list", ListResponse[*role.Role]{}),
		forge.WithErrorResponses(),
	); err != nil {
		return err
	}

	if err := g.POST("/roles", a.createRole,
		forge.WithSummary("Create role"),
		forge.WithDescription("Creates a role. Parent roles must exist."),
		forge.WithOperationID("createRole"),
		forge.WithRequestSchema(CreateRoleRequest{}),
		forge.WithCreatedResponse(&role.Role{}),
		forge.WithErrorResponses(),
	); err != nil {
		return err
	}

	if err := g.GET("/roles/:id", a.getRole,
		forge.WithSummary("Get role"),
		forge.WithOperationID("getRole"),
		forge.WithResponseSchema(http.StatusOK, "Role details", &role.Role{}),
		forge.WithErrorResponses(),
	); err != nil {
		return err
	}

	if err := g.PUT("/roles/:id", a.updateRole,
		forge.WithSummary("Update role"),
		forge.WithDescription("Updates a role. System roles cannot be renamed."),
		forge.WithOperationID("updateRole"),
		forge.WithRequestSchema(UpdateRoleRequest{}),
		forge.WithResponseSchema(http.StatusOK, "Updated role", &role.Role{}),
		forge.WithErrorResponses(),
	); err != nil {
		return err
	}

	if err := g.DELETE("/roles/:id", a.deleteRole,
		forge.WithSummary("Delete role"),
		forge.WithDescription("Deletes a role. System roles cannot be deleted."),
		forge.WithOperationID("deleteRole"),
		forge.WithNoContentResponse(),
		forge.WithErrorResponses(),
	); err != nil {
		return err
	}

	if err := g.GET("/roles/:id/permissions", a.rolePermissions,
		forge.WithSummary("List role permissions"),
		forge.WithDescription("Returns the permissions directly assigned to a role."),
		forge.WithOperationID("listRolePermissions"),
		forge.WithResponseSchema(http.StatusOK, "Permissions", ListResponse[*permission.Permission]{}),
		forge.WithErrorResponses(),
	); err != nil {
		return err
	}

	if err := g.POST("/roles/:id/permissions", a.assignPermissions,
		forge.WithSummary("Assign permissions"),
		forge.WithDescription("Adds permissions to a role."),
		forge.WithOperationID("assignPermissions"),
		forge.WithRequestSchema(RolePermissionsRequest{}),
		forge.WithResponseSchema(http.StatusOK, "Updated role", &role.Role{}),
		forge.WithErrorResponses(),
	); err != nil {
		return err
	}

	return g.DELETE("/roles/:id/permissions", a.unassignPermissions,
		forge.WithSummary("Unassign permissions"),
		forge.WithDescription("Removes permissions from a role."),
		forge.WithOperationID("unassignPermissions"),
		forge.WithRequestSchema(RolePermissionsRequest{}),
		forge.WithResponseSchema(http.StatusOK, "Updated role", &role.Role{}),
		forge.WithErrorResponses(),
	)
}

func (a *API) listRoles(ctx forge.Context, req *ListRolesRequest) (*ListResponse[*role.Role], error) {
	filter := &role.ListFilter{
		IsSystem: req.System,
		Search:   req.Search,
		Limit:    defaultLimit(req.Limit),
		Offset:   req.Offset,
	}

	roles, err := a.eng.ListRoles(ctx.Context(), filter)
	if err != nil {
		return nil, mapError(err)
	}
	total, err := a.eng.Store().CountRoles(ctx.Context(), filter)
	if err != nil {
		return nil, mapError(err)
	}

	resp := &ListResponse[*role.Role]{Items: roles, Total: total, Limit: filter.Limit, Offset: filter.Offset}
	return resp, nil
}

func (a *API) createRole(ctx forge.Context, req *CreateRoleRequest) (*role.Role, error) {
	perms, err := parsePermissionIDs("permissions", req.Permissions)
	if err != nil {
		return nil, err
	}
	parents, err := parseRoleIDs("inherits_from", req.InheritsFrom)
	if err != nil {
		return nil, err
	}

	r, err := a.eng.CreateRole(ctx.Context(), &role.Role{
		Name:         req.Name,
		DisplayName:  req.DisplayName,
		Description:  req.Description,
		Permissions:  perms,
		InheritsFrom: parents,
		IsSystem:     req.IsSystem,
		Priority:     req.Priority,
		Metadata:     req.Metadata,
	})
	if err != nil {
		return nil, mapError(err)
	}
	return nil, ctx.JSON(http.StatusCreated, r)
}

func (a *API) getRole(ctx forge.Context, _ *GetRoleRequest) (*role.Role, error) {
	roleID, err := roleParam(ctx)
	if err != nil {
		return nil, err
	}

	r, err := a.eng.GetRole(ctx.Context(), roleID)
	if err != nil {
		return nil, mapError(err)
	}
	return r, nil
}

func (a *API) updateRole(ctx forge.Context, req *UpdateRoleRequest) (*role.Role, error) {
	roleID, err := roleParam(ctx)
	if err != nil {
		return nil, err
	}

	u := bastion.RoleUpdate{
		Name:        req.Name,
		DisplayName: req.DisplayName,
		Description: req.Description,
		Priority:    req.Priority,
		Metadata:    req.Metadata,
	}
	if req.Permissions != nil {
		perms, err := parsePermissionIDs("permissions", *req.Permissions)
		if err != nil {
			return nil, err
		}
		u.Permissions = &perms
	}
	if req.InheritsFrom != nil {
		parents, err := parseRoleIDs("inherits_from", *req.InheritsFrom)
		if err != nil {
			return nil, err
		}
		u.InheritsFrom = &parents
	}

	r, err := a.eng.UpdateRole(ctx.Context(), roleID, u)
	if err != nil {
		return nil, mapError(err)
	}
	return r, nil
}

func (a *API) deleteRole(ctx forge.Context, _ *GetRoleRequest) (*struct{}, error) {
	roleID, err := roleParam(ctx)
	if err != nil {
		return nil, err
	}

	if err := a.eng.DeleteRole(ctx.Context(), roleID); err != nil {
		return nil, mapError(err)
	}
	return nil, ctx.NoContent(http.StatusNoContent)
}

func (a *API) rolePermissions(ctx forge.Context, _ *GetRoleRequest) (*ListResponse[*permission.Permission], error) {
	roleID, err := roleParam(ctx)
	if err != nil {
		return nil, err
	}

	perms, err := a.eng.RolePermissions(ctx.Context(), roleID)
	if err != nil {
		return nil, mapError(err)
	}

	resp := &ListResponse[*permission.Permission]{Items: perms, Total: int64(len(perms)), Limit: len(perms)}
	return resp, nil
}

func (a *API) assignPermissions(ctx forge.Context, req *RolePermissionsRequest) (*role.Role, error) {
	return a.changePermissions(ctx, req, a.eng.AssignPermissions)
}

func (a *API) unassignPermissions(ctx forge.Context, req *RolePermissionsRequest) (*role.Role, error) {
	return a.changePermissions(ctx, req, a.eng.UnassignPermissions)
}

type permissionChange func(ctx context.Context, roleID id.RoleID, permIDs []id.PermissionID) (*role.Role, error)

func (a *API) changePermissions(ctx forge.Context, req *RolePermissionsRequest, apply permissionChange) (*role.Role, error) {
	roleID, err := roleParam(ctx)
	if err != nil {
		return nil, err
	}
	if len(req.PermissionIDs) == 0 {
		return nil, forge.BadRequest("permission_ids cannot be empty")
	}
	permIDs, err := parsePermissionIDs("permission_ids", req.PermissionIDs)
	if err != nil {
		return nil, err
	}

	r, err := apply(ctx.Context(), roleID, permIDs)
	if err != nil {
		return nil, mapError(err)
	}
	return r, nil
}
