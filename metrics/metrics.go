// Package metrics exports engine activity as Prometheus metrics through the
// plugin hooks.
package metrics

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/xraph/bastion"
	"github.com/xraph/bastion/id"
	"github.com/xraph/bastion/permission"
	"github.com/xraph/bastion/plugin"
	"github.com/xraph/bastion/role"
)

// Namespace prefixes every metric name.
const Namespace = "bastion"

// Plugin records check outcomes, resolutions and mutations.
type Plugin struct {
	ChecksTotal        *prometheus.CounterVec
	CheckDuration      *prometheus.HistogramVec
	ResolutionsTotal   *prometheus.CounterVec
	ResolveDuration    *prometheus.HistogramVec
	InvalidationsTotal *prometheus.CounterVec
	MutationsTotal     *prometheus.CounterVec
}

var (
	_ plugin.Plugin                = (*Plugin)(nil)
	_ plugin.AfterCheck            = (*Plugin)(nil)
	_ plugin.PermissionsResolved   = (*Plugin)(nil)
	_ plugin.CacheInvalidated      = (*Plugin)(nil)
	_ plugin.RoleCreated           = (*Plugin)(nil)
	_ plugin.RoleUpdated           = (*Plugin)(nil)
	_ plugin.RoleDeleted           = (*Plugin)(nil)
	_ plugin.PermissionsAssigned   = (*Plugin)(nil)
	_ plugin.PermissionsUnassigned = (*Plugin)(nil)
	_ plugin.PermissionCreated     = (*Plugin)(nil)
	_ plugin.PermissionUpdated     = (*Plugin)(nil)
	_ plugin.PermissionDeleted     = (*Plugin)(nil)
)

// New creates the collectors and registers them with reg. A nil reg leaves
// them unregistered.
func New(reg prometheus.Registerer) *Plugin {
	p := &Plugin{
		ChecksTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "checks_total",
				Help:      "Total number of authorization checks by decision",
			},
			[]string{"decision", "matched_by"},
		),
		CheckDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: Namespace,
				Name:      "check_duration_seconds",
				Help:      "Authorization check duration in seconds",
				Buckets:   prometheus.ExponentialBuckets(0.00001, 4, 10),
			},
			[]string{"decision"},
		),
		ResolutionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "resolutions_total",
				Help:      "Total number of permission resolutions by cache outcome",
			},
			[]string{"cache"},
		),
		ResolveDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: Namespace,
				Name:      "resolve_duration_seconds",
				Help:      "Permission resolution duration in seconds",
				Buckets:   prometheus.ExponentialBuckets(0.00001, 4, 10),
			},
			[]string{"cache"},
		),
		InvalidationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "cache_invalidations_total",
				Help:      "Total number of cache invalidations",
			},
			[]string{"kind"},
		),
		MutationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "mutations_total",
				Help:      "Total number of administrative mutations",
			},
			[]string{"entity", "op"},
		),
	}
	if reg != nil {
		reg.MustRegister(
			p.ChecksTotal,
			p.CheckDuration,
			p.ResolutionsTotal,
			p.ResolveDuration,
			p.InvalidationsTotal,
			p.MutationsTotal,
		)
	}
	return p
}

// Name implements plugin.Plugin.
func (p *Plugin) Name() string { return "metrics" }

// OnAfterCheck implements plugin.AfterCheck.
func (p *Plugin) OnAfterCheck(_ context.Context, _, result any) error {
	res, ok := result.(*bastion.CheckResult)
	if !ok || res == nil {
		return nil
	}
	decision := string(res.Decision)
	p.ChecksTotal.WithLabelValues(decision, string(res.MatchedBy)).Inc()
	p.CheckDuration.WithLabelValues(decision).Observe(time.Duration(res.EvalTimeNs).Seconds())
	return nil
}

// OnPermissionsResolved implements plugin.PermissionsResolved.
func (p *Plugin) OnPermissionsResolved(_ context.Context, _ string, cacheHit bool, elapsed time.Duration) error {
	outcome := "miss"
	if cacheHit {
		outcome = "hit"
	}
	p.ResolutionsTotal.WithLabelValues(outcome).Inc()
	p.ResolveDuration.WithLabelValues(outcome).Observe(elapsed.Seconds())
	return nil
}

// OnCacheInvalidated implements plugin.CacheInvalidated.
func (p *Plugin) OnCacheInvalidated(_ context.Context, roleIDs []string) error {
	kind := "roles"
	if len(roleIDs) == 0 {
		kind = "all"
	}
	p.InvalidationsTotal.WithLabelValues(kind).Inc()
	return nil
}

func (p *Plugin) mutation(entity, op string) error {
	p.MutationsTotal.WithLabelValues(entity, op).Inc()
	return nil
}

func (p *Plugin) OnRoleCreated(context.Context, *role.Role) error { return p.mutation("role", "create") }
func (p *Plugin) OnRoleUpdated(context.Context, *role.Role) error { return p.mutation("role", "update") }
func (p *Plugin) OnRoleDeleted(context.Context, id.RoleID) error  { return p.mutation("role", "delete") }

func (p *Plugin) OnPermissionsAssigned(context.Context, id.RoleID, []id.PermissionID) error {
	return p.mutation("role", "assign")
}

func (p *Plugin) OnPermissionsUnassigned(context.Context, id.RoleID, []id.PermissionID) error {
	return p.mutation("role", "unassign")
}

func (p *Plugin) OnPermissionCreated(context.Context, *permission.Permission) error {
	return p.mutation("permission", "create")
}

func (p *Plugin) OnPermissionUpdated(context.Context, *permission.Permission) error {
	return p.mutation("permission", "update")
}

func (p *Plugin) OnPermissionDeleted(context.Context, id.PermissionID) error {
	return p.mutation("permission", "delete")
}
