package visibility

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xraph/bastion"
)

var perms = map[string]bastion.FieldPermission{
	"salary": {Visible: false},
	"title":  {Visible: true, Readonly: true},
}

func TestFilterSingleRecord(t *testing.T) {
	in := map[string]any{"title": "t", "salary": 100, "body": "b"}

	res := Filter(in, perms)
	out, ok := res.Data.(map[string]any)
	require.True(t, ok)

	assert.Equal(t, map[string]any{"title": "t", "body": "b"}, out)
	assert.Contains(t, in, "salary", "input must be untouched")
	assert.Equal(t, perms, res.FieldPermissions)
}

func TestFilterList(t *testing.T) {
	in := []map[string]any{
		{"title": "a", "salary": 1},
		{"title": "b", "salary": 2},
	}

	res := Filter(in, perms)
	out, ok := res.Data.([]map[string]any)
	require.True(t, ok)
	require.Len(t, out, 2)
	for _, r := range out {
		assert.NotContains(t, r, "salary")
		assert.Contains(t, r, "title")
	}
}

func TestFilterAnyList(t *testing.T) {
	in := []any{map[string]any{"salary": 1, "x": 1}, "scalar"}

	res := Filter(in, perms)
	out := res.Data.([]any)
	assert.Equal(t, map[string]any{"x": 1}, out[0])
	assert.Equal(t, "scalar", out[1])
}

func TestFilterStruct(t *testing.T) {
	type employee struct {
		Name   string `json:"name"`
		Salary int    `json:"salary"`
	}

	res := Filter(employee{Name: "n", Salary: 5}, perms)
	out, ok := res.Data.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "n", out["name"])
	assert.NotContains(t, out, "salary")
}

func TestFilterDefaultAllow(t *testing.T) {
	in := map[string]any{"a": 1, "b": 2}

	res := Filter(in, nil)
	assert.Equal(t, in, res.Data)
	assert.NotNil(t, res.FieldPermissions)
}

func TestForTarget(t *testing.T) {
	rp := &bastion.ResolvedPermissions{
		Fields: map[string]map[string]bastion.FieldPermission{"posts": perms},
	}

	res := ForTarget(map[string]any{"salary": 1, "title": "t"}, rp, "posts")
	assert.Equal(t, map[string]any{"title": "t"}, res.Data)

	res = ForTarget(map[string]any{"salary": 1}, rp, "users")
	assert.Equal(t, map[string]any{"salary": 1}, res.Data)
}

func TestForTargetResultIsDetached(t *testing.T) {
	rp := &bastion.ResolvedPermissions{
		Fields: map[string]map[string]bastion.FieldPermission{
			"posts": {"salary": {Visible: false}},
		},
	}

	res := ForTarget(map[string]any{"salary": 1}, rp, "posts")
	res.FieldPermissions["salary"] = bastion.FieldPermission{Visible: true}
	res.FieldPermissions["extra"] = bastion.FieldPermission{Visible: true}

	again := ForTarget(map[string]any{"salary": 1}, rp, "posts")
	assert.Equal(t, map[string]any{}, again.Data)
	assert.Len(t, rp.FieldPermissions("posts"), 1)
	assert.False(t, rp.FieldPermissions("posts")["salary"].Visible)
}
