// Command bastiond serves the Bastion administration and introspection API
// over an in-memory store, seeded from the default role hierarchy and an
// optional YAML file.
package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/xraph/bastion"
	"github.com/xraph/bastion/api"
	"github.com/xraph/bastion/cache"
	"github.com/xraph/bastion/extension"
	"github.com/xraph/bastion/middleware"
	"github.com/xraph/bastion/seed"
	"github.com/xraph/bastion/store/memory"
)

func main() {
	addr := flag.String("addr", ":8080", "Address to listen on")
	configPath := flag.String("config", "", "Path to a YAML config file")
	seedPath := flag.String("seed", "", "Path to a YAML file of roles and permissions to install")
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	if err := run(*addr, *configPath, *seedPath, logger); err != nil {
		logger.Error("bastiond: exiting", "error", err)
		os.Exit(1)
	}
}

func run(addr, configPath, seedPath string, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := extension.DefaultConfig()
	if configPath != "" {
		var err error
		if cfg, err = extension.LoadConfigFile(configPath); err != nil {
			return err
		}
	}

	opts := []bastion.Option{
		bastion.WithStore(memory.New()),
		bastion.WithLogger(logger),
		bastion.WithConfig(bastion.Config{
			CacheTTL:             cfg.Cache.TTL,
			OwnerField:           cfg.OwnerField,
			MatchWildcardTargets: cfg.MatchWildcardTargets,
		}),
	}
	switch cfg.Cache.Backend {
	case extension.CacheLRU:
		opts = append(opts, bastion.WithCache(cache.NewLRU[*bastion.ResolvedPermissions](cfg.Cache.MaxEntries, cfg.Cache.TTL)))
	case extension.CacheRedis:
		rc, err := cache.DialRedis[*bastion.ResolvedPermissions](ctx, cfg.Cache.RedisURL,
			cache.WithRedisTTL(cfg.Cache.TTL),
			cache.WithRedisLogger(logger),
		)
		if err != nil {
			return err
		}
		defer rc.Close()
		opts = append(opts, bastion.WithCache(rc))
	}

	eng, err := bastion.NewEngine(opts...)
	if err != nil {
		return err
	}
	if err := eng.Start(ctx); err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = eng.Stop(shutdownCtx)
	}()

	if cfg.SeedDefaults {
		res, err := seed.Apply(ctx, eng, seed.Defaults(cfg.SeedTargets...))
		if err != nil {
			return err
		}
		logger.Info("bastiond: default roles seeded", "permissions", res.PermissionsCreated, "roles", res.RolesCreated)
	}
	if seedPath != "" {
		set, err := seed.LoadFile(seedPath)
		if err != nil {
			return err
		}
		res, err := seed.Apply(ctx, eng, set)
		if err != nil {
			return err
		}
		logger.Info("bastiond: seed file applied", "path", seedPath, "permissions", res.PermissionsCreated, "roles", res.RolesCreated)
	}

	handler := api.New(eng, nil,
		api.WithBasePath(cfg.BasePath),
		api.WithSubject(middleware.HeaderSubject(middleware.DefaultRolesHeader)),
	).Handler()

	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	logger.Info("bastiond: listening", "addr", addr, "base_path", cfg.BasePath)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
