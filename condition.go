package bastion

import (
	"strings"

	"github.com/xraph/bastion/permission"
)

// EvaluateCondition reports whether record satisfies c. The value
// "$currentUser" is replaced by currentUserID; when no user is known the
// condition fails.
//
// Operators:
//   - equals: the field is a string identical to the value.
//   - in: the field is a list holding the value.
//   - contains: the field is a string containing the value.
//
// Unknown operators, missing fields, and shape mismatches evaluate to false.
func EvaluateCondition(c Condition, record map[string]any, currentUserID string) bool {
	if record == nil {
		return false
	}
	want := c.Value
	if want == permission.CurrentUser {
		if currentUserID == "" {
			return false
		}
		want = currentUserID
	}

	got, ok := record[c.Field]
	if !ok {
		return false
	}

	switch c.Operator {
	case permission.OpEquals:
		s, ok := got.(string)
		return ok && s == want
	case permission.OpIn:
		return listHolds(got, want)
	case permission.OpContains:
		s, ok := got.(string)
		return ok && strings.Contains(s, want)
	default:
		return false
	}
}

func listHolds(list any, want string) bool {
	switch l := list.(type) {
	case []string:
		for _, v := range l {
			if v == want {
				return true
			}
		}
	case []any:
		for _, v := range l {
			if s, ok := v.(string); ok && s == want {
				return true
			}
		}
	}
	return false
}

// matchRecordRules reports whether some rule with scope holds for rc.
func matchRecordRules(rules []RecordRule, scope Scope, rc *RecordContext) bool {
	for _, r := range rules {
		if r.Scope != scope {
			continue
		}
		if EvaluateCondition(r.Condition, rc.Record, rc.CurrentUserID) {
			return true
		}
	}
	return false
}

func hasRuleFor(rules []RecordRule, scope Scope) bool {
	for _, r := range rules {
		if r.Scope == scope {
			return true
		}
	}
	return false
}
