package bastion

import "context"

type contextKey int

const (
	ctxKeySubject contextKey = iota
	ctxKeyResolved
)

// WithSubject returns a context carrying the authenticated caller.
func WithSubject(ctx context.Context, s Subject) context.Context {
	return context.WithValue(ctx, ctxKeySubject, s)
}

// SubjectFromContext returns the caller attached by WithSubject.
func SubjectFromContext(ctx context.Context) (Subject, bool) {
	s, ok := ctx.Value(ctxKeySubject).(Subject)
	return s, ok
}

// WithResolved attaches resolved permissions so later checks in the same
// request skip the cache lookup.
func WithResolved(ctx context.Context, rp *ResolvedPermissions) context.Context {
	return context.WithValue(ctx, ctxKeyResolved, rp)
}

// ResolvedFromContext returns permissions attached by WithResolved.
func ResolvedFromContext(ctx context.Context) (*ResolvedPermissions, bool) {
	rp, ok := ctx.Value(ctxKeyResolved).(*ResolvedPermissions)
	return rp, ok && rp != nil
}
