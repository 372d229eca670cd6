package bastion

import "slices"

// FieldPermission describes how a caller may see one field.
type FieldPermission struct {
	Visible  bool `json:"visible"`
	Readonly bool `json:"readonly"`
}

// RecordRule is a single record-level restriction. A record permission with
// several conditions yields one rule per condition, all with the same scope.
type RecordRule struct {
	Scope     Scope     `json:"scope"`
	Condition Condition `json:"condition"`
}

// ResolvedPermissions is everything a role set is allowed to do, bucketed by
// resource level. It is derived and cached, never persisted.
type ResolvedPermissions struct {
	Global    []Scope                               `json:"global"`
	Schemas   map[string][]Scope                    `json:"schemas"`
	Fields    map[string]map[string]FieldPermission `json:"fields"`
	Records   map[string][]RecordRule               `json:"records"`
	RoleIDs   []string                              `json:"role_ids"`
	RoleNames []string                              `json:"role_names"`
}

func newResolvedPermissions() *ResolvedPermissions {
	return &ResolvedPermissions{
		Global:    []Scope{},
		Schemas:   make(map[string][]Scope),
		Fields:    make(map[string]map[string]FieldPermission),
		Records:   make(map[string][]RecordRule),
		RoleIDs:   []string{},
		RoleNames: []string{},
	}
}

// HasGlobal reports whether scope is granted everywhere.
func (rp *ResolvedPermissions) HasGlobal(scope Scope) bool {
	return slices.Contains(rp.Global, scope)
}

// HasSchema reports whether scope is granted on the exact schema target.
func (rp *ResolvedPermissions) HasSchema(target string, scope Scope) bool {
	return slices.Contains(rp.Schemas[target], scope)
}

// FieldPermissions returns the field map for target. The result is never nil.
func (rp *ResolvedPermissions) FieldPermissions(target string) map[string]FieldPermission {
	if f, ok := rp.Fields[target]; ok {
		return f
	}
	return map[string]FieldPermission{}
}

// RecordRules returns the record rules for target.
func (rp *ResolvedPermissions) RecordRules(target string) []RecordRule {
	return rp.Records[target]
}

// IsEmpty reports whether no permission of any level was resolved.
func (rp *ResolvedPermissions) IsEmpty() bool {
	return len(rp.Global) == 0 && len(rp.Schemas) == 0 && len(rp.Fields) == 0 && len(rp.Records) == 0
}
