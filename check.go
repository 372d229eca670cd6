package bastion

import (
	"context"
	"fmt"
	"time"

	"github.com/xraph/bastion/id"
)

// Check performs an authorization check. This is the hot path.
func (e *Engine) Check(ctx context.Context, req *CheckRequest) (*CheckResult, error) {
	start := time.Now()

	if e.plugins != nil {
		e.plugins.EmitBeforeCheck(ctx, req)
	}

	var result *CheckResult
	if len(req.RoleIDs) == 0 {
		result = &CheckResult{Decision: DecisionDenyNoRoles, Reason: "no roles supplied"}
	} else {
		rp, err := e.Resolve(ctx, req.RoleIDs)
		if err != nil {
			return nil, err
		}
		result = e.Decide(rp, req.Scope, req.Target, req.Context)
	}
	result.EvalTimeNs = time.Since(start).Nanoseconds()

	if e.plugins != nil {
		e.plugins.EmitAfterCheck(ctx, req, result)
	}
	return result, nil
}

// Decide evaluates a check against an already resolved permission set.
//
// A global grant allows everything for its scope. A schema grant allows the
// target outright unless a record is supplied and the target also has
// record rules; then one rule with the same scope must match the record.
// Without a schema grant only a matching record rule allows.
func (e *Engine) Decide(rp *ResolvedPermissions, scope Scope, target string, rc *RecordContext) *CheckResult {
	if rp.HasGlobal(scope) {
		return allow(MatchGlobal)
	}

	hasRecord := rc != nil && rc.Record != nil
	rules := e.recordRulesFor(rp, target)

	if e.schemaGrants(rp, target, scope) {
		if !hasRecord || len(rules) == 0 {
			return allow(MatchSchema)
		}
		if matchRecordRules(rules, scope, rc) {
			return allow(MatchRecord)
		}
		return &CheckResult{
			Decision: DecisionDenyCondition,
			Reason:   fmt.Sprintf("record rules on %q narrow the %s grant and none matched", target, scope),
		}
	}

	if hasRuleFor(rules, scope) {
		if !hasRecord {
			return &CheckResult{
				Decision: DecisionDenyRecordRequired,
				Reason:   fmt.Sprintf("%s on %q is only granted per record", scope, target),
			}
		}
		if matchRecordRules(rules, scope, rc) {
			return allow(MatchRecord)
		}
		return &CheckResult{
			Decision: DecisionDenyCondition,
			Reason:   fmt.Sprintf("no %s rule on %q matched the record", scope, target),
		}
	}

	return &CheckResult{
		Decision: DecisionDenyNoPerms,
		Reason:   fmt.Sprintf("no permission grants %s on %q", scope, target),
	}
}

func allow(level MatchLevel) *CheckResult {
	return &CheckResult{Allowed: true, Decision: DecisionAllow, MatchedBy: level}
}

// HasPermission reports whether roleIDs may perform scope on target. rc may
// be nil. A store failure is returned as an error and must be treated as a
// denial.
func (e *Engine) HasPermission(ctx context.Context, roleIDs []id.RoleID, scope Scope, target string, rc *RecordContext) (bool, error) {
	result, err := e.Check(ctx, &CheckRequest{RoleIDs: roleIDs, Scope: scope, Target: target, Context: rc})
	if err != nil {
		return false, err
	}
	return result.Allowed, nil
}

// HasSchemaPermission reports whether roleIDs hold scope on target globally
// or at schema level, ignoring record rules.
func (e *Engine) HasSchemaPermission(ctx context.Context, roleIDs []id.RoleID, target string, scope Scope) (bool, error) {
	if len(roleIDs) == 0 {
		return false, nil
	}
	rp, err := e.Resolve(ctx, roleIDs)
	if err != nil {
		return false, err
	}
	return rp.HasGlobal(scope) || e.schemaGrants(rp, target, scope), nil
}

// Enforce returns an error wrapping ErrAccessDenied if the check is denied.
func (e *Engine) Enforce(ctx context.Context, req *CheckRequest) error {
	result, err := e.Check(ctx, req)
	if err != nil {
		return fmt.Errorf("bastion check: %w", err)
	}
	if !result.Allowed {
		return fmt.Errorf("%w: %s: %s", ErrAccessDenied, result.Decision, result.Reason)
	}
	return nil
}
