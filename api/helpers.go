package api

import (
	"errors"
	"fmt"

	"github.com/xraph/forge"

	"github.com/xraph/bastion"
	"github.com/xraph/bastion/id"
)

// mapError maps domain errors to Forge HTTP errors.
func mapError(err error) error {
	switch {
	case err == nil:
		return nil
	case bastion.IsValidation(err):
		return forge.BadRequest(err.Error())
	case bastion.IsNotFound(err):
		return forge.NotFound(err.Error())
	case errors.Is(err, bastion.ErrNoSubject):
		return forge.Unauthorized(err.Error())
	case bastion.IsImmutable(err), errors.Is(err, bastion.ErrAccessDenied):
		return forge.Forbidden(err.Error())
	}
	return err
}

func defaultLimit(limit int) int {
	if limit <= 0 {
		return 50
	}
	if limit > 1000 {
		return 1000
	}
	return limit
}

func roleParam(ctx forge.Context) (id.RoleID, error) {
	rid, err := id.ParseRoleID(ctx.Param("id"))
	if err != nil {
		return id.Nil, forge.BadRequest(fmt.Sprintf("invalid role ID: %v", err))
	}
	return rid, nil
}

func permissionParam(ctx forge.Context) (id.PermissionID, error) {
	pid, err := id.ParsePermissionID(ctx.Param("id"))
	if err != nil {
		return id.Nil, forge.BadRequest(fmt.Sprintf("invalid permission ID: %v", err))
	}
	return pid, nil
}

func parseRoleIDs(field string, ss []string) ([]id.RoleID, error) {
	ids, err := id.ParseRoleIDs(ss)
	if err != nil {
		return nil, forge.BadRequest(fmt.Sprintf("invalid %s: %v", field, err))
	}
	return ids, nil
}

func parsePermissionIDs(field string, ss []string) ([]id.PermissionID, error) {
	ids, err := id.ParsePermissionIDs(ss)
	if err != nil {
		return nil, forge.BadRequest(fmt.Sprintf("invalid %s: %v", field, err))
	}
	return ids, nil
}
