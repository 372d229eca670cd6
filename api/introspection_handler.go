package api

import (
	"net/http"

	"github.com/xraph/forge"

	"github.com/xraph/bastion"
)

func (a *API) registerIntrospectionRoutes(router forge.Router) error {
	g := router.Group(a.basePath, forge.WithGroupTags("authorization"))

	if err := g.GET("/me/permissions", a.myPermissions,
		forge.WithSummary("Caller permissions"),
		forge.WithDescription("Returns the resolved permissions of the caller's roles."),
		forge.WithOperationID("myPermissions"),
		forge.WithResponseSchema(http.StatusOK, "Resolved permissions", &bastion.ResolvedPermissions{}),
		forge.WithErrorResponses(),
	); err != nil {
		return err
	}

	if err := g.POST("/me/check", a.check,
		forge.WithSummary("Authorization check"),
		forge.WithDescription("Evaluates whether the caller holds a scope on a target, optionally for a record."),
		forge.WithOperationID("rbacCheck"),
		forge.WithRequestSchema(CheckRequest{}),
		forge.WithResponseSchema(http.StatusOK, "Check result", CheckResponse{}),
		forge.WithErrorResponses(),
	); err != nil {
		return err
	}

	return g.GET("/status", a.status,
		forge.WithSummary("RBAC status"),
		forge.WithDescription("Reports whether at least one role exists."),
		forge.WithOperationID("rbacStatus"),
		forge.WithResponseSchema(http.StatusOK, "Status", StatusResponse{}),
		forge.WithErrorResponses(),
	)
}

func (a *API) myPermissions(ctx forge.Context, _ *struct{}) (*bastion.ResolvedPermissions, error) {
	subj, err := a.subject(ctx)
	if err != nil {
		return nil, mapError(err)
	}

	rp, err := a.eng.Resolve(ctx.Context(), subj.RoleIDs)
	if err != nil {
		return nil, mapError(err)
	}
	return rp, nil
}

func (a *API) check(ctx forge.Context, req *CheckRequest) (*CheckResponse, error) {
	if req.Target == "" || !req.Scope.Valid() {
		return nil, forge.BadRequest("a valid scope and a target are required")
	}
	subj, err := a.subject(ctx)
	if err != nil {
		return nil, mapError(err)
	}

	creq := &bastion.CheckRequest{RoleIDs: subj.RoleIDs, Scope: req.Scope, Target: req.Target}
	if req.Record != nil {
		creq.Context = &bastion.RecordContext{Record: req.Record, CurrentUserID: subj.UserID}
	}
	result, err := a.eng.Check(ctx.Context(), creq)
	if err != nil {
		return nil, mapError(err)
	}

	resp := toCheckResponse(result)
	return resp, nil
}

func (a *API) status(ctx forge.Context, _ *struct{}) (*StatusResponse, error) {
	ok, err := a.eng.Initialized(ctx.Context())
	if err != nil {
		return nil, mapError(err)
	}
	resp := &StatusResponse{Initialized: ok}
	return resp, nil
}
