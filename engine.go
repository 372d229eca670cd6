package bastion

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/singleflight"

	"github.com/xraph/bastion/cache"
	"github.com/xraph/bastion/id"
	"github.com/xraph/bastion/ownership"
	"github.com/xraph/bastion/plugin"
	"github.com/xraph/bastion/store"
)

const tracerName = "github.com/xraph/bastion"

// Engine is the central authorization engine. It resolves role sets into
// permissions through the cache, answers checks, and applies role and
// permission mutations.
type Engine struct {
	store    store.Store
	cache    Cache
	notifier Notifier
	plugins  *plugin.Registry
	logger   *slog.Logger
	tracer   trace.Tracer
	config   Config

	pendingPlugins []plugin.Plugin

	flight singleflight.Group
	// generation advances on every invalidation so a resolution that
	// started before it does not repopulate the cache with stale data.
	generation atomic.Uint64

	mu         sync.Mutex
	stopListen context.CancelFunc
	listenDone chan struct{}
}

// NewEngine creates a new Bastion engine with the given options.
func NewEngine(opts ...Option) (*Engine, error) {
	e := &Engine{
		logger: slog.Default(),
		config: DefaultConfig(),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.store == nil {
		return nil, errors.New("bastion: store is required")
	}
	e.config = e.config.withDefaults()
	if e.tracer == nil {
		e.tracer = otel.Tracer(tracerName)
	}
	if e.cache == nil {
		e.cache = cache.NewMemory[*ResolvedPermissions](cache.WithTTL(e.config.CacheTTL))
	}
	if len(e.pendingPlugins) > 0 {
		e.plugins = plugin.NewRegistry(e.logger)
		for _, p := range e.pendingPlugins {
			e.plugins.Register(p)
		}
		e.pendingPlugins = nil
	}
	return e, nil
}

// Store returns the underlying composite store.
func (e *Engine) Store() store.Store { return e.store }

// Config returns the effective configuration.
func (e *Engine) Config() Config { return e.config }

// Plugins returns the plugin registry (may be nil).
func (e *Engine) Plugins() *plugin.Registry { return e.plugins }

// Start begins applying invalidations published by other processes when a
// notifier is configured.
func (e *Engine) Start(_ context.Context) error {
	if e.notifier == nil {
		return nil
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.stopListen != nil {
		return nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	e.stopListen, e.listenDone = cancel, done

	go func() {
		defer close(done)
		err := e.notifier.Listen(ctx, func(roleIDs []string) {
			e.invalidateLocal(ctx, roleIDs)
		})
		if err != nil && ctx.Err() == nil {
			e.logger.Error("bastion: invalidation listener stopped", slog.String("error", err.Error()))
		}
	}()
	return nil
}

// Stop stops the invalidation listener and notifies plugins of shutdown.
func (e *Engine) Stop(ctx context.Context) error {
	e.mu.Lock()
	cancel, done := e.stopListen, e.listenDone
	e.stopListen, e.listenDone = nil, nil
	e.mu.Unlock()

	if cancel != nil {
		cancel()
		select {
		case <-done:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	if e.plugins != nil {
		e.plugins.EmitShutdown(ctx)
	}
	return nil
}

// ──────────────────────────────────────────────────
// Resolution
// ──────────────────────────────────────────────────

// Resolve returns the effective permissions of roleIDs, from the cache when
// fresh. Concurrent misses for the same role set share one computation.
// Store errors are returned and never cached.
func (e *Engine) Resolve(ctx context.Context, roleIDs []id.RoleID) (*ResolvedPermissions, error) {
	key := cache.Key(id.Strings(roleIDs))
	if key == "" {
		return newResolvedPermissions(), nil
	}

	start := time.Now()
	ctx, span := e.tracer.Start(ctx, "bastion.resolve",
		trace.WithAttributes(attribute.Int("bastion.role_count", len(roleIDs))))
	defer span.End()

	if rp, ok := e.cache.Get(ctx, key); ok {
		span.SetAttributes(attribute.Bool("bastion.cache_hit", true))
		e.logger.Debug("bastion: permission cache hit", slog.String("key", key))
		e.emitResolved(ctx, key, true, start)
		return rp, nil
	}
	span.SetAttributes(attribute.Bool("bastion.cache_hit", false))

	// The shared computation outlives any single caller; each caller still
	// gives up on its own deadline.
	flightCtx := context.WithoutCancel(ctx)
	ch := e.flight.DoChan(key, func() (any, error) {
		gen := e.generation.Load()
		rp, err := e.compute(flightCtx, roleIDs)
		if err != nil {
			return nil, err
		}
		if e.generation.Load() == gen {
			e.cache.Set(flightCtx, key, rp)
		}
		e.logger.Debug("bastion: permissions recomputed",
			slog.String("key", key),
			slog.Int("roles", len(rp.RoleIDs)),
		)
		return rp, nil
	})

	var res singleflight.Result
	select {
	case res = <-ch:
	case <-ctx.Done():
		res = singleflight.Result{Err: ctx.Err()}
	}
	if res.Err != nil {
		span.RecordError(res.Err)
		span.SetStatus(codes.Error, res.Err.Error())
		return nil, fmt.Errorf("bastion: resolve permissions: %w", res.Err)
	}
	v := res.Val
	e.emitResolved(ctx, key, false, start)
	return v.(*ResolvedPermissions), nil
}

// ResolveForRequest returns permissions attached to ctx by WithResolved, or
// resolves those of the subject attached by WithSubject.
func (e *Engine) ResolveForRequest(ctx context.Context) (*ResolvedPermissions, error) {
	if rp, ok := ResolvedFromContext(ctx); ok {
		return rp, nil
	}
	subj, ok := SubjectFromContext(ctx)
	if !ok {
		return nil, ErrNoSubject
	}
	return e.Resolve(ctx, subj.RoleIDs)
}

func (e *Engine) emitResolved(ctx context.Context, key string, hit bool, start time.Time) {
	if e.plugins != nil {
		e.plugins.EmitPermissionsResolved(ctx, key, hit, time.Since(start))
	}
}

// ──────────────────────────────────────────────────
// Invalidation
// ──────────────────────────────────────────────────

// Invalidate drops cached permissions for every role set containing one of
// roleIDs, or everything when none are given, and announces it to other
// processes when a notifier is configured.
func (e *Engine) Invalidate(ctx context.Context, roleIDs ...id.RoleID) {
	ids := id.Strings(roleIDs)
	e.invalidateLocal(ctx, ids)
	if e.notifier != nil {
		if err := e.notifier.Publish(ctx, ids); err != nil {
			e.logger.Warn("bastion: publish invalidation failed", slog.String("error", err.Error()))
		}
	}
}

func (e *Engine) invalidateLocal(ctx context.Context, roleIDs []string) {
	e.generation.Add(1)
	e.cache.Invalidate(ctx, roleIDs)
	e.logger.Debug("bastion: permission cache invalidated", slog.Int("role_ids", len(roleIDs)))
	if e.plugins != nil {
		e.plugins.EmitCacheInvalidated(ctx, roleIDs)
	}
}

// ──────────────────────────────────────────────────
// Status and ownership
// ──────────────────────────────────────────────────

// Initialized reports whether at least one role exists.
func (e *Engine) Initialized(ctx context.Context) (bool, error) {
	n, err := e.store.CountRoles(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("bastion: count roles: %w", err)
	}
	return n > 0, nil
}

// CanAccessOwned grants scope on target for record when roles hold it
// globally, when they hold it at schema level and userID owns the record,
// or when a record rule allows it.
func (e *Engine) CanAccessOwned(ctx context.Context, roleIDs []id.RoleID, scope Scope, target string, record map[string]any, userID string) (bool, error) {
	rp, err := e.Resolve(ctx, roleIDs)
	if err != nil {
		return false, err
	}
	if rp.HasGlobal(scope) {
		return true, nil
	}
	if e.schemaGrants(rp, target, scope) && ownership.IsOwner(record, userID, ownership.WithField(e.config.OwnerField)) {
		return true, nil
	}
	if record == nil {
		return false, nil
	}
	return matchRecordRules(e.recordRulesFor(rp, target), scope, &RecordContext{Record: record, CurrentUserID: userID}), nil
}
