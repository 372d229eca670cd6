// Package middleware provides forge request guards and response filtering
// backed by the bastion engine.
package middleware

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/xraph/forge"

	"github.com/xraph/bastion"
	"github.com/xraph/bastion/id"
)

// DefaultRolesHeader carries comma-separated role IDs for HeaderSubject.
const DefaultRolesHeader = "X-Bastion-Roles"

// SubjectFunc extracts the authenticated subject of a request.
type SubjectFunc func(ctx forge.Context) (bastion.Subject, error)

// ContextSubject reads the subject attached with bastion.WithSubject. When
// none is attached but forge knows the user, a subject without roles is
// returned, which every check denies.
func ContextSubject(ctx forge.Context) (bastion.Subject, error) {
	if s, ok := bastion.SubjectFromContext(ctx.Context()); ok {
		return s, nil
	}
	if userID := forge.UserIDFromContext(ctx.Context()); userID != "" {
		return bastion.Subject{UserID: userID}, nil
	}
	return bastion.Subject{}, bastion.ErrNoSubject
}

// HeaderSubject reads role IDs from a request header, falling back to
// ContextSubject when the header is absent. It trusts the header, so it
// belongs behind a gateway that sets it.
func HeaderSubject(header string) SubjectFunc {
	if header == "" {
		header = DefaultRolesHeader
	}
	return func(ctx forge.Context) (bastion.Subject, error) {
		raw := ctx.Request().Header.Get(header)
		if raw == "" {
			return ContextSubject(ctx)
		}
		parts := strings.Split(raw, ",")
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}
		roleIDs, err := id.ParseRoleIDs(parts)
		if err != nil {
			return bastion.Subject{}, fmt.Errorf("%w: %v", bastion.ErrNoSubject, err)
		}
		s := bastion.Subject{RoleIDs: roleIDs}
		s.UserID = forge.UserIDFromContext(ctx.Context())
		return s, nil
	}
}

// Guard builds request guards that share one subject extractor.
type Guard struct {
	eng     *bastion.Engine
	subject SubjectFunc
}

// NewGuard returns a Guard. A nil subject uses ContextSubject.
func NewGuard(eng *bastion.Engine, subject SubjectFunc) *Guard {
	if subject == nil {
		subject = ContextSubject
	}
	return &Guard{eng: eng, subject: subject}
}

// Subject returns the subject of the request.
func (g *Guard) Subject(ctx forge.Context) (bastion.Subject, error) {
	return g.subject(ctx)
}

// Resolve returns the permissions of the request's subject.
func (g *Guard) Resolve(ctx forge.Context) (*bastion.ResolvedPermissions, error) {
	s, err := g.subject(ctx)
	if err != nil {
		return nil, err
	}
	return g.eng.Resolve(ctx.Context(), s.RoleIDs)
}

// Require allows the request when the subject holds scope on target at
// global or schema level.
func (g *Guard) Require(scope bastion.Scope, target string) forge.Middleware {
	return func(next forge.Handler) forge.Handler {
		return func(ctx forge.Context) error {
			s, err := g.subject(ctx)
			if err != nil {
				return denyResponse(ctx, http.StatusUnauthorized)
			}
			err = g.eng.Enforce(ctx.Context(), &bastion.CheckRequest{
				RoleIDs: s.RoleIDs,
				Scope:   scope,
				Target:  target,
			})
			if err != nil {
				return denyResponse(ctx, statusFor(err))
			}
			return next(ctx)
		}
	}
}

// RequireAny allows the request if the subject holds any of scopes on target.
func (g *Guard) RequireAny(target string, scopes ...bastion.Scope) forge.Middleware {
	return func(next forge.Handler) forge.Handler {
		return func(ctx forge.Context) error {
			s, err := g.subject(ctx)
			if err != nil {
				return denyResponse(ctx, http.StatusUnauthorized)
			}
			for _, sc := range scopes {
				ok, err := g.eng.HasSchemaPermission(ctx.Context(), s.RoleIDs, target, sc)
				if err != nil {
					return denyResponse(ctx, http.StatusInternalServerError)
				}
				if ok {
					return next(ctx)
				}
			}
			return denyResponse(ctx, http.StatusForbidden)
		}
	}
}

func statusFor(err error) int {
	if errors.Is(err, bastion.ErrAccessDenied) {
		return http.StatusForbidden
	}
	return http.StatusInternalServerError
}

func denyResponse(ctx forge.Context, status int) error {
	msg := "access denied"
	switch status {
	case http.StatusUnauthorized:
		msg = "unauthenticated"
	case http.StatusInternalServerError:
		msg = "authorization unavailable"
	}
	ctx.SetHeader("Content-Type", "application/json")
	ctx.Response().WriteHeader(status)
	return json.NewEncoder(ctx.Response()).Encode(map[string]string{"error": msg})
}
