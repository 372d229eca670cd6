// Package api provides the forge HTTP handlers for role and permission
// administration and permission introspection.
package api

import (
	"net/http"

	"github.com/xraph/forge"

	"github.com/xraph/bastion"
	"github.com/xraph/bastion/middleware"
)

// DefaultBasePath prefixes every route.
const DefaultBasePath = "/rbac"

// API wires all bastion HTTP handlers together.
type API struct {
	eng      *bastion.Engine
	router   forge.Router
	basePath string
	subject  middleware.SubjectFunc
}

// Option configures the API.
type Option func(*API)

// WithBasePath sets the route prefix.
func WithBasePath(p string) Option {
	return func(a *API) {
		if p != "" {
			a.basePath = p
		}
	}
}

// WithSubject sets how the caller of /me/permissions is identified.
func WithSubject(fn middleware.SubjectFunc) Option {
	return func(a *API) {
		if fn != nil {
			a.subject = fn
		}
	}
}

// New creates an API from an Engine and a Forge router.
func New(eng *bastion.Engine, router forge.Router, opts ...Option) *API {
	a := &API{
		eng:      eng,
		router:   router,
		basePath: DefaultBasePath,
		subject:  middleware.ContextSubject,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Handler returns the fully assembled http.Handler with all routes.
func (a *API) Handler() http.Handler {
	if a.router == nil {
		a.router = forge.NewRouter()
	}
	if err := a.RegisterRoutes(a.router); err != nil {
		panic("bastion: register routes: " + err.Error())
	}
	return a.router.Handler()
}

// RegisterRoutes registers all API routes into the given Forge router.
func (a *API) RegisterRoutes(router forge.Router) error {
	registerers := []func(forge.Router) error{
		a.registerRoleRoutes,
		a.registerPermissionRoutes,
		a.registerIntrospectionRoutes,
	}
	for _, fn := range registerers {
		if err := fn(router); err != nil {
			return err
		}
	}
	return nil
}
