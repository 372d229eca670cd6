package seed_test

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xraph/bastion"
	"github.com/xraph/bastion/id"
	"github.com/xraph/bastion/seed"
	"github.com/xraph/bastion/store/memory"
)

func newEngine(t *testing.T) *bastion.Engine {
	t.Helper()
	eng, err := bastion.NewEngine(bastion.WithStore(memory.New()))
	require.NoError(t, err)
	return eng
}

func roleID(t *testing.T, eng *bastion.Engine, name string) id.RoleID {
	t.Helper()
	r, err := eng.Store().GetRoleByName(context.Background(), name)
	require.NoError(t, err)
	return r.ID
}

func TestApply_DefaultsIdempotent(t *testing.T) {
	ctx := context.Background()
	eng := newEngine(t)

	res, err := seed.Apply(ctx, eng, seed.Defaults("posts"))
	require.NoError(t, err)
	assert.Equal(t, 10, res.PermissionsCreated)
	assert.Equal(t, 4, res.RolesCreated)

	again, err := seed.Apply(ctx, eng, seed.Defaults("posts"))
	require.NoError(t, err)
	assert.Zero(t, again.PermissionsCreated)
	assert.Zero(t, again.RolesCreated)

	ok, err := eng.Initialized(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestApply_DefaultHierarchy(t *testing.T) {
	ctx := context.Background()
	eng := newEngine(t)
	_, err := seed.Apply(ctx, eng, seed.Defaults("posts"))
	require.NoError(t, err)

	cases := []struct {
		role  string
		scope bastion.Scope
		want  bool
	}{
		{"viewer", bastion.ScopeRead, true},
		{"viewer", bastion.ScopeUpdate, false},
		{"editor", bastion.ScopeRead, true},
		{"editor", bastion.ScopeUpdate, true},
		{"editor", bastion.ScopePublish, false},
		{"publisher", bastion.ScopeRead, true},
		{"publisher", bastion.ScopePublish, true},
		{"publisher", bastion.ScopeDelete, true},
	}
	for _, tc := range cases {
		t.Run(tc.role+"/"+string(tc.scope), func(t *testing.T) {
			ok, err := eng.HasSchemaPermission(ctx, []id.RoleID{roleID(t, eng, tc.role)}, "posts", tc.scope)
			require.NoError(t, err)
			assert.Equal(t, tc.want, ok)
		})
	}

	rp, err := eng.Resolve(ctx, []id.RoleID{roleID(t, eng, "admin")})
	require.NoError(t, err)
	for _, sc := range []bastion.Scope{bastion.ScopeCreate, bastion.ScopeRead, bastion.ScopeDelete} {
		assert.True(t, rp.HasGlobal(sc), sc)
	}
}

func TestApply_SeededEntriesAreSystem(t *testing.T) {
	ctx := context.Background()
	eng := newEngine(t)
	_, err := seed.Apply(ctx, eng, seed.Defaults("posts"))
	require.NoError(t, err)

	err = eng.DeleteRole(ctx, roleID(t, eng, "viewer"))
	assert.ErrorIs(t, err, bastion.ErrSystemRoleImmutable)
}

func TestLoad(t *testing.T) {
	doc := `
permissions:
  - name: content:posts:read
    scope: read
    resource:
      type: schema
      target: posts
  - name: content:posts:update-own
    scope: update
    resource:
      type: record
      target: posts
      conditions:
        - field: createdBy
          operator: equals
          value: $currentUser
roles:
  - name: author
    permissions: [content:posts:read, content:posts:update-own]
`
	set, err := seed.Load(strings.NewReader(doc))
	require.NoError(t, err)
	require.Len(t, set.Permissions, 2)
	require.Len(t, set.Permissions[1].Resource.Conditions, 1)
	assert.Equal(t, "$currentUser", set.Permissions[1].Resource.Conditions[0].Value)

	ctx := context.Background()
	eng := newEngine(t)
	_, err = seed.Apply(ctx, eng, set)
	require.NoError(t, err)

	author := []id.RoleID{roleID(t, eng, "author")}
	res, err := eng.Check(ctx, &bastion.CheckRequest{
		RoleIDs: author,
		Scope:   bastion.ScopeUpdate,
		Target:  "posts",
		Context: &bastion.RecordContext{Record: map[string]any{"createdBy": "u1"}, CurrentUserID: "u1"},
	})
	require.NoError(t, err)
	assert.True(t, res.Allowed)
}

func TestLoad_UnknownField(t *testing.T) {
	_, err := seed.Load(strings.NewReader("roles:\n  - name: x\n    bogus: 1\n"))
	assert.Error(t, err)
}

func TestApply_UnknownPermissionName(t *testing.T) {
	set := &seed.Set{Roles: []seed.Role{{Name: "broken", Permissions: []string{"missing"}}}}
	_, err := seed.Apply(context.Background(), newEngine(t), set)
	assert.Error(t, err)
}
