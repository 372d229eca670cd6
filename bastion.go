// Package bastion turns role assignments into effective permissions and
// answers whether a set of roles may perform an action on a resource,
// optionally narrowed to a concrete record.
//
// Roles inherit from other roles transitively. Permissions apply at one of
// four levels: global, schema, field, or record. Resolved permissions are
// cached per distinct role set and invalidated whenever a role or
// permission changes.
//
//	eng, err := bastion.NewEngine(
//	    bastion.WithStore(memStore),
//	)
//	ok, err := eng.HasPermission(ctx, roleIDs, bastion.ScopeUpdate, "posts",
//	    &bastion.RecordContext{Record: post, CurrentUserID: "user_123"})
package bastion

import (
	"github.com/xraph/bastion/id"
	"github.com/xraph/bastion/permission"
)

// Re-exported permission model types.
type (
	Scope        = permission.Scope
	ResourceType = permission.ResourceType
	Resource     = permission.Resource
	Condition    = permission.Condition
	Operator     = permission.Operator
)

// Re-exported scopes.
const (
	ScopeCreate  = permission.ScopeCreate
	ScopeRead    = permission.ScopeRead
	ScopeUpdate  = permission.ScopeUpdate
	ScopeDelete  = permission.ScopeDelete
	ScopePublish = permission.ScopePublish
)

// Subject is an already-authenticated caller.
type Subject struct {
	UserID  string      `json:"user_id,omitempty"`
	RoleIDs []id.RoleID `json:"role_ids"`
}

// RecordContext supplies a concrete record for record-level checks.
// CurrentUserID replaces the "$currentUser" placeholder in conditions.
type RecordContext struct {
	Record        map[string]any `json:"record,omitempty"`
	CurrentUserID string         `json:"current_user_id,omitempty"`
}

// CheckRequest is the input to an authorization check.
type CheckRequest struct {
	RoleIDs []id.RoleID    `json:"role_ids"`
	Scope   Scope          `json:"scope"`
	Target  string         `json:"target"`
	Context *RecordContext `json:"context,omitempty"`
}

// CheckResult is the outcome of an authorization check.
type CheckResult struct {
	Allowed    bool       `json:"allowed"`
	Decision   Decision   `json:"decision"`
	Reason     string     `json:"reason,omitempty"`
	MatchedBy  MatchLevel `json:"matched_by,omitempty"`
	EvalTimeNs int64      `json:"eval_time_ns"`
}

// Decision is the authorization outcome.
type Decision string

const (
	// DecisionAllow means the request is permitted.
	DecisionAllow Decision = "allow"

	// DecisionDenyNoRoles means the request carried no roles.
	DecisionDenyNoRoles Decision = "deny_no_roles"

	// DecisionDenyNoPerms means no resolved permission grants the scope.
	DecisionDenyNoPerms Decision = "deny_no_perms"

	// DecisionDenyCondition means a record was supplied and no record rule
	// with the requested scope matched it.
	DecisionDenyCondition Decision = "deny_condition"

	// DecisionDenyRecordRequired means only record rules could grant the
	// scope and no record was supplied.
	DecisionDenyRecordRequired Decision = "deny_record_required"
)

// MatchLevel names the permission level that granted a request.
type MatchLevel string

const (
	MatchGlobal MatchLevel = "global"
	MatchSchema MatchLevel = "schema"
	MatchRecord MatchLevel = "record"
)
