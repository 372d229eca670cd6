package bastion

import (
	"testing"

	"github.com/xraph/bastion/permission"
)

func TestEvaluateCondition(t *testing.T) {
	tests := []struct {
		name   string
		cond   Condition
		record map[string]any
		user   string
		want   bool
	}{
		{"in hit", Condition{Field: "tags", Operator: permission.OpIn, Value: "x"}, map[string]any{"tags": []any{"x", "y"}}, "", true},
		{"in miss", Condition{Field: "tags", Operator: permission.OpIn, Value: "x"}, map[string]any{"tags": []any{"y"}}, "", false},
		{"in typed slice", Condition{Field: "tags", Operator: permission.OpIn, Value: "x"}, map[string]any{"tags": []string{"x"}}, "", true},
		{"in non-list", Condition{Field: "tags", Operator: permission.OpIn, Value: "x"}, map[string]any{"tags": "x"}, "", false},
		{"contains hit", Condition{Field: "title", Operator: permission.OpContains, Value: "cat"}, map[string]any{"title": "category"}, "", true},
		{"contains miss", Condition{Field: "title", Operator: permission.OpContains, Value: "dog"}, map[string]any{"title": "category"}, "", false},
		{"contains non-string", Condition{Field: "title", Operator: permission.OpContains, Value: "1"}, map[string]any{"title": 123}, "", false},
		{"equals hit", Condition{Field: "status", Operator: permission.OpEquals, Value: "draft"}, map[string]any{"status": "draft"}, "", true},
		{"equals no coercion", Condition{Field: "count", Operator: permission.OpEquals, Value: "1"}, map[string]any{"count": 1}, "", false},
		{"current user hit", Condition{Field: "createdBy", Operator: permission.OpEquals, Value: permission.CurrentUser}, map[string]any{"createdBy": "u1"}, "u1", true},
		{"current user miss", Condition{Field: "createdBy", Operator: permission.OpEquals, Value: permission.CurrentUser}, map[string]any{"createdBy": "u1"}, "u2", false},
		{"current user unknown", Condition{Field: "createdBy", Operator: permission.OpEquals, Value: permission.CurrentUser}, map[string]any{"createdBy": ""}, "", false},
		{"current user in list", Condition{Field: "editors", Operator: permission.OpIn, Value: permission.CurrentUser}, map[string]any{"editors": []any{"u1", "u2"}}, "u2", true},
		{"missing field", Condition{Field: "nope", Operator: permission.OpEquals, Value: "x"}, map[string]any{}, "", false},
		{"unknown operator", Condition{Field: "a", Operator: "startsWith", Value: "x"}, map[string]any{"a": "xyz"}, "", false},
		{"nil record", Condition{Field: "a", Operator: permission.OpEquals, Value: "x"}, nil, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := EvaluateCondition(tt.cond, tt.record, tt.user); got != tt.want {
				t.Errorf("EvaluateCondition() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestMatchGlob(t *testing.T) {
	tests := []struct {
		pattern, target string
		want            bool
	}{
		{"*", "posts", true},
		{"posts", "posts", true},
		{"blog.*", "blog.posts", true},
		{"blog.*", "shop.items", false},
		{"posts", "pages", false},
	}
	for _, tt := range tests {
		if got := matchGlob(tt.pattern, tt.target); got != tt.want {
			t.Errorf("matchGlob(%q, %q) = %v, want %v", tt.pattern, tt.target, got, tt.want)
		}
	}
}
