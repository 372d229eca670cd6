package metrics_test

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xraph/bastion"
	"github.com/xraph/bastion/id"
	"github.com/xraph/bastion/metrics"
	"github.com/xraph/bastion/permission"
	"github.com/xraph/bastion/role"
	"github.com/xraph/bastion/store/memory"
)

func TestNew_Registers(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	require.NotNil(t, m)

	m.ChecksTotal.WithLabelValues("allow", "schema").Inc()
	m.ResolutionsTotal.WithLabelValues("hit").Inc()
	m.InvalidationsTotal.WithLabelValues("all").Inc()
	m.MutationsTotal.WithLabelValues("role", "create").Inc()

	families, err := reg.Gather()
	require.NoError(t, err)
	names := make([]string, 0, len(families))
	for _, f := range families {
		names = append(names, f.GetName())
	}
	assert.Contains(t, names, "bastion_checks_total")
	assert.Contains(t, names, "bastion_resolutions_total")
	assert.Contains(t, names, "bastion_cache_invalidations_total")
	assert.Contains(t, names, "bastion_mutations_total")
}

func TestPlugin_RecordsEngineActivity(t *testing.T) {
	ctx := context.Background()
	m := metrics.New(prometheus.NewRegistry())

	eng, err := bastion.NewEngine(
		bastion.WithStore(memory.New()),
		bastion.WithPlugin(m),
	)
	require.NoError(t, err)

	p, err := eng.CreatePermission(ctx, &permission.Permission{
		Name:     "content:posts:read",
		Scope:    bastion.ScopeRead,
		Resource: bastion.Resource{Type: permission.ResourceSchema, Target: "posts"},
	})
	require.NoError(t, err)
	r, err := eng.CreateRole(ctx, &role.Role{Name: "reader", Permissions: []id.PermissionID{p.ID}})
	require.NoError(t, err)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.MutationsTotal.WithLabelValues("permission", "create")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.MutationsTotal.WithLabelValues("role", "create")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.InvalidationsTotal.WithLabelValues("all")))

	roles := []id.RoleID{r.ID}
	res, err := eng.Check(ctx, &bastion.CheckRequest{RoleIDs: roles, Scope: bastion.ScopeRead, Target: "posts"})
	require.NoError(t, err)
	require.True(t, res.Allowed)

	_, err = eng.Check(ctx, &bastion.CheckRequest{RoleIDs: roles, Scope: bastion.ScopeDelete, Target: "posts"})
	require.NoError(t, err)

	_, err = eng.Check(ctx, &bastion.CheckRequest{Scope: bastion.ScopeRead, Target: "posts"})
	require.NoError(t, err)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.ChecksTotal.WithLabelValues("allow", "schema")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ChecksTotal.WithLabelValues("deny_no_perms", "")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ChecksTotal.WithLabelValues("deny_no_roles", "")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ResolutionsTotal.WithLabelValues("miss")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ResolutionsTotal.WithLabelValues("hit")))
}

func TestPlugin_IgnoresForeignResults(t *testing.T) {
	m := metrics.New(nil)
	require.NoError(t, m.OnAfterCheck(context.Background(), nil, "not a result"))
	assert.Equal(t, 0, testutil.CollectAndCount(m.ChecksTotal))
}
