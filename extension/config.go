package extension

import (
	"bytes"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Cache backends.
const (
	CacheMemory = "memory"
	CacheLRU    = "lru"
	CacheRedis  = "redis"
)

// Store drivers used with an injected grove database.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
	DriverMongo    = "mongo"
)

// Config holds the Bastion extension configuration.
// Fields can be set programmatically via Option functions or loaded from
// YAML configuration files (under the "bastion" key or at the top level).
type Config struct {
	// DisableRoutes prevents HTTP route registration.
	DisableRoutes bool `json:"disable_routes" mapstructure:"disable_routes" yaml:"disable_routes"`

	// DisableMigrate prevents auto-migration on start.
	DisableMigrate bool `json:"disable_migrate" mapstructure:"disable_migrate" yaml:"disable_migrate"`

	// BasePath is the URL prefix for bastion routes (default: "/rbac").
	BasePath string `json:"base_path" mapstructure:"base_path" yaml:"base_path"`

	// StoreDriver selects the store built on the grove.DB found in the DI
	// container: postgres, sqlite or mongo. Empty skips it.
	StoreDriver string `json:"store_driver" mapstructure:"store_driver" yaml:"store_driver"`

	// OwnerField is the record attribute naming its creator.
	OwnerField string `json:"owner_field" mapstructure:"owner_field" yaml:"owner_field"`

	// MatchWildcardTargets lets schema permissions on "*" or "prefix*"
	// grant matching targets.
	MatchWildcardTargets bool `json:"match_wildcard_targets" mapstructure:"match_wildcard_targets" yaml:"match_wildcard_targets"`

	// SeedDefaults installs the default roles on start.
	SeedDefaults bool `json:"seed_defaults" mapstructure:"seed_defaults" yaml:"seed_defaults"`

	// SeedTargets are the content targets the default roles cover. Empty
	// means "*".
	SeedTargets []string `json:"seed_targets" mapstructure:"seed_targets" yaml:"seed_targets"`

	Cache  CacheConfig  `json:"cache" mapstructure:"cache" yaml:"cache"`
	Notify NotifyConfig `json:"notify" mapstructure:"notify" yaml:"notify"`
}

// CacheConfig selects the permission cache backend.
type CacheConfig struct {
	Backend    string        `json:"backend" mapstructure:"backend" yaml:"backend"`
	TTL        time.Duration `json:"ttl" mapstructure:"ttl" yaml:"ttl"`
	MaxEntries int           `json:"max_entries" mapstructure:"max_entries" yaml:"max_entries"`
	RedisURL   string        `json:"redis_url" mapstructure:"redis_url" yaml:"redis_url"`
}

// NotifyConfig enables cross-process invalidation over Postgres.
type NotifyConfig struct {
	PostgresDSN string `json:"postgres_dsn" mapstructure:"postgres_dsn" yaml:"postgres_dsn"`
	Channel     string `json:"channel" mapstructure:"channel" yaml:"channel"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		BasePath: "/rbac",
		Cache: CacheConfig{
			Backend: CacheMemory,
			TTL:     5 * time.Minute,
		},
	}
}

// LoadConfigFile reads a YAML file over DefaultConfig. Settings may sit
// under a top-level "bastion" key or at the root of the document.
func LoadConfigFile(path string) (Config, error) {
	cfg := DefaultConfig()
	raw, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("bastion: read config: %w", err)
	}

	var wrapped struct {
		Bastion yaml.Node `yaml:"bastion"`
	}
	if err := yaml.Unmarshal(raw, &wrapped); err != nil {
		return cfg, fmt.Errorf("bastion: parse config: %w", err)
	}
	if wrapped.Bastion.Kind != 0 {
		if err := wrapped.Bastion.Decode(&cfg); err != nil {
			return cfg, fmt.Errorf("bastion: decode config: %w", err)
		}
		return cfg, nil
	}

	if len(bytes.TrimSpace(raw)) == 0 {
		return cfg, nil
	}
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return cfg, fmt.Errorf("bastion: decode config: %w", err)
	}
	return cfg, nil
}
