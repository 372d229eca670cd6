package middleware

import (
	"net/http"

	"github.com/xraph/forge"

	"github.com/xraph/bastion/visibility"
)

// JSONFiltered writes payload with the fields of target the subject may not
// see removed, together with the field permissions applied.
func (g *Guard) JSONFiltered(ctx forge.Context, status int, target string, payload any) error {
	s, err := g.subject(ctx)
	if err != nil {
		return denyResponse(ctx, http.StatusUnauthorized)
	}
	rp, err := g.eng.Resolve(ctx.Context(), s.RoleIDs)
	if err != nil {
		return denyResponse(ctx, http.StatusInternalServerError)
	}
	return ctx.JSON(status, visibility.ForTarget(payload, rp, target))
}
