package bastion

import (
	"slices"
	"strings"
)

// matchGlob checks if a pattern matches a target with simple glob support.
// "*" matches everything and a trailing '*' matches by prefix
// (e.g., "blog.*" matches "blog.posts").
func matchGlob(pattern, target string) bool {
	if pattern == "*" || pattern == target {
		return true
	}
	if strings.HasSuffix(pattern, "*") {
		return strings.HasPrefix(target, strings.TrimSuffix(pattern, "*"))
	}
	return false
}

// schemaGrants reports whether scope is granted on target at schema level.
func (e *Engine) schemaGrants(rp *ResolvedPermissions, target string, scope Scope) bool {
	if rp.HasSchema(target, scope) {
		return true
	}
	if !e.config.MatchWildcardTargets {
		return false
	}
	for pattern, scopes := range rp.Schemas {
		if pattern != target && matchGlob(pattern, target) && slices.Contains(scopes, scope) {
			return true
		}
	}
	return false
}

// recordRulesFor collects record rules applying to target.
func (e *Engine) recordRulesFor(rp *ResolvedPermissions, target string) []RecordRule {
	rules := rp.RecordRules(target)
	if !e.config.MatchWildcardTargets {
		return rules
	}
	var extra []RecordRule
	for pattern, rs := range rp.Records {
		if pattern != target && matchGlob(pattern, target) {
			extra = append(extra, rs...)
		}
	}
	if len(extra) == 0 {
		return rules
	}
	return append(slices.Clone(rules), extra...)
}
