package bastion

import "time"

// DefaultOwnerField is the record field holding the owner's user ID.
const DefaultOwnerField = "createdBy"

// Config holds configuration for the Bastion engine.
type Config struct {
	// CacheTTL is the lifetime of a resolved permission set in the default
	// cache. Defaults to 5 minutes. Ignored when WithCache supplies a cache.
	CacheTTL time.Duration `json:"cache_ttl,omitempty"`

	// OwnerField is the record field used by ownership-gated checks.
	// Defaults to "createdBy".
	OwnerField string `json:"owner_field,omitempty"`

	// MatchWildcardTargets makes a schema or record bucket keyed "*" or
	// "prefix*" apply to every matching target. When false, targets match
	// literally.
	MatchWildcardTargets bool `json:"match_wildcard_targets,omitempty"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		CacheTTL:   5 * time.Minute,
		OwnerField: DefaultOwnerField,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.CacheTTL <= 0 {
		c.CacheTTL = d.CacheTTL
	}
	if c.OwnerField == "" {
		c.OwnerField = d.OwnerField
	}
	return c
}
