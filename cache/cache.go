// Package cache provides Permission Cache backends.
//
// Entries are keyed by a role set: the sorted, de-duplicated role IDs joined
// by ",". Invalidation by role ID drops every entry whose key has that ID as
// a member. All backends are safe for concurrent use.
package cache

import (
	"sort"
	"strings"
)

// Separator joins role IDs in a cache key.
const Separator = ","

// Key builds the canonical cache key for a role set. Empty IDs are dropped.
func Key(roleIDs []string) string {
	seen := make(map[string]struct{}, len(roleIDs))
	ids := make([]string, 0, len(roleIDs))
	for _, r := range roleIDs {
		if r == "" {
			continue
		}
		if _, ok := seen[r]; ok {
			continue
		}
		seen[r] = struct{}{}
		ids = append(ids, r)
	}
	sort.Strings(ids)
	return strings.Join(ids, Separator)
}

// Members splits a cache key back into its role IDs.
func Members(key string) []string {
	if key == "" {
		return nil
	}
	return strings.Split(key, Separator)
}

// HasAny reports whether key contains at least one of roleIDs as a member.
func HasAny(key string, roleIDs []string) bool {
	if len(roleIDs) == 0 {
		return false
	}
	for _, m := range Members(key) {
		for _, r := range roleIDs {
			if m == r {
				return true
			}
		}
	}
	return false
}
