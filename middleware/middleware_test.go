package middleware_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xraph/forge"

	"github.com/xraph/bastion"
	"github.com/xraph/bastion/id"
	"github.com/xraph/bastion/middleware"
	"github.com/xraph/bastion/permission"
	"github.com/xraph/bastion/role"
	"github.com/xraph/bastion/store/memory"
)

type fixture struct {
	eng    *bastion.Engine
	reader id.RoleID
	h      http.Handler
}

func setup(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()

	eng, err := bastion.NewEngine(bastion.WithStore(memory.New()))
	require.NoError(t, err)

	read, err := eng.CreatePermission(ctx, &permission.Permission{
		Name:     "content:posts:read",
		Scope:    bastion.ScopeRead,
		Resource: bastion.Resource{Type: permission.ResourceSchema, Target: "posts"},
	})
	require.NoError(t, err)
	title, err := eng.CreatePermission(ctx, &permission.Permission{
		Name:  "field:posts.title:read",
		Scope: bastion.ScopeRead,
		Resource: bastion.Resource{
			Type:   permission.ResourceField,
			Target: "posts",
			Fields: []string{"title"},
		},
	})
	require.NoError(t, err)
	reader, err := eng.CreateRole(ctx, &role.Role{
		Name:        "reader",
		Permissions: []id.PermissionID{read.ID, title.ID},
	})
	require.NoError(t, err)

	guard := middleware.NewGuard(eng, middleware.HeaderSubject(""))
	router := forge.NewRouter()

	list := guard.Require(bastion.ScopeRead, "posts")(func(ctx forge.Context) error {
		return ctx.JSON(http.StatusOK, map[string]string{"ok": "true"})
	})
	require.NoError(t, router.GET("/posts", func(ctx forge.Context, _ *struct{}) (*struct{}, error) {
		return nil, list(ctx)
	}))

	publish := guard.RequireAny("posts", bastion.ScopeUpdate, bastion.ScopePublish)(func(ctx forge.Context) error {
		return ctx.NoContent(http.StatusNoContent)
	})
	require.NoError(t, router.POST("/posts/publish", func(ctx forge.Context, _ *struct{}) (*struct{}, error) {
		return nil, publish(ctx)
	}))

	require.NoError(t, router.GET("/posts/first", func(ctx forge.Context, _ *struct{}) (*struct{}, error) {
		post := map[string]any{"id": "1", "title": "Hello", "body": "secret"}
		return nil, guard.JSONFiltered(ctx, http.StatusOK, "posts", post)
	}))

	return &fixture{eng: eng, reader: reader.ID, h: router.Handler()}
}

func (f *fixture) do(method, path, roles string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if roles != "" {
		req.Header.Set(middleware.DefaultRolesHeader, roles)
	}
	rec := httptest.NewRecorder()
	f.h.ServeHTTP(rec, req)
	return rec
}

func TestRequire(t *testing.T) {
	f := setup(t)

	rec := f.do(http.MethodGet, "/posts", f.reader.String())
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = f.do(http.MethodGet, "/posts", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.JSONEq(t, `{"error":"unauthenticated"}`, rec.Body.String())

	rec = f.do(http.MethodGet, "/posts", "not-a-role-id")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireAny(t *testing.T) {
	f := setup(t)

	rec := f.do(http.MethodPost, "/posts/publish", f.reader.String())
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.JSONEq(t, `{"error":"access denied"}`, rec.Body.String())

	editor, err := f.eng.CreatePermission(context.Background(), &permission.Permission{
		Name:     "content:posts:update",
		Scope:    bastion.ScopeUpdate,
		Resource: bastion.Resource{Type: permission.ResourceSchema, Target: "posts"},
	})
	require.NoError(t, err)
	_, err = f.eng.AssignPermissions(context.Background(), f.reader, []id.PermissionID{editor.ID})
	require.NoError(t, err)

	rec = f.do(http.MethodPost, "/posts/publish", f.reader.String())
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestJSONFiltered(t *testing.T) {
	f := setup(t)

	rec := f.do(http.MethodGet, "/posts/first", f.reader.String())
	require.Equal(t, http.StatusOK, rec.Code)

	var got struct {
		Data             map[string]any                     `json:"data"`
		FieldPermissions map[string]bastion.FieldPermission `json:"fieldPermissions"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "Hello", got.Data["title"])
	assert.Equal(t, "secret", got.Data["body"], "fields without a permission are kept")
	assert.Equal(t, bastion.FieldPermission{Visible: true, Readonly: true}, got.FieldPermissions["title"])

	rec = f.do(http.MethodGet, "/posts/first", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
