package extension

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/xraph/forge"
	"github.com/xraph/grove"

	"github.com/xraph/bastion"
	"github.com/xraph/bastion/cache"
	"github.com/xraph/bastion/notify"
	"github.com/xraph/bastion/store"
	"github.com/xraph/bastion/store/mongo"
	"github.com/xraph/bastion/store/postgres"
	"github.com/xraph/bastion/store/sqlite"
)

// groveStore builds the store for driver on the grove.DB registered in the
// container.
func groveStore(fapp forge.App, driver string) (store.Store, error) {
	db, err := forge.Inject[*grove.DB](fapp.Container())
	if err != nil {
		return nil, fmt.Errorf("bastion: resolve grove database: %w", err)
	}
	switch driver {
	case DriverPostgres:
		return postgres.New(db), nil
	case DriverSQLite:
		return sqlite.New(db), nil
	case DriverMongo:
		return mongo.New(db), nil
	}
	return nil, fmt.Errorf("bastion: unknown store driver %q", driver)
}

// buildCache returns nil for the memory backend so the engine builds its
// default from the configured TTL.
func buildCache(ctx context.Context, cfg CacheConfig, logger *slog.Logger) (bastion.Cache, func() error, error) {
	switch cfg.Backend {
	case "", CacheMemory:
		if cfg.MaxEntries > 0 {
			return cache.NewMemory[*bastion.ResolvedPermissions](
				cache.WithTTL(cfg.TTL),
				cache.WithMaxSize(cfg.MaxEntries),
			), nil, nil
		}
		return nil, nil, nil
	case CacheLRU:
		return cache.NewLRU[*bastion.ResolvedPermissions](cfg.MaxEntries, cfg.TTL), nil, nil
	case CacheRedis:
		if cfg.RedisURL == "" {
			return nil, nil, fmt.Errorf("bastion: cache backend redis requires redis_url")
		}
		c, err := cache.DialRedis[*bastion.ResolvedPermissions](ctx, cfg.RedisURL,
			cache.WithRedisTTL(cfg.TTL),
			cache.WithRedisLogger(logger),
		)
		if err != nil {
			return nil, nil, err
		}
		return c, c.Close, nil
	}
	return nil, nil, fmt.Errorf("bastion: unknown cache backend %q", cfg.Backend)
}

func buildNotifier(ctx context.Context, cfg NotifyConfig, logger *slog.Logger) (bastion.Notifier, func() error, error) {
	if cfg.PostgresDSN == "" {
		return nil, nil, nil
	}
	n, err := notify.Connect(ctx, cfg.PostgresDSN,
		notify.WithChannel(cfg.Channel),
		notify.WithLogger(logger),
	)
	if err != nil {
		return nil, nil, err
	}
	return n, func() error { n.Close(); return nil }, nil
}
