package permission

import "fmt"

// Scope is the action a permission authorizes.
type Scope string

const (
	ScopeCreate  Scope = "create"
	ScopeRead    Scope = "read"
	ScopeUpdate  Scope = "update"
	ScopeDelete  Scope = "delete"
	ScopePublish Scope = "publish"
)

// Scopes lists every valid scope in canonical order.
var Scopes = []Scope{ScopeCreate, ScopeRead, ScopeUpdate, ScopeDelete, ScopePublish}

// Valid reports whether s is one of the known scopes.
func (s Scope) Valid() bool {
	switch s {
	case ScopeCreate, ScopeRead, ScopeUpdate, ScopeDelete, ScopePublish:
		return true
	}
	return false
}

// ResourceType is the granularity a permission applies at.
type ResourceType string

const (
	ResourceGlobal ResourceType = "global"
	ResourceSchema ResourceType = "schema"
	ResourceField  ResourceType = "field"
	ResourceRecord ResourceType = "record"
)

// Valid reports whether t is one of the known resource levels.
func (t ResourceType) Valid() bool {
	switch t {
	case ResourceGlobal, ResourceSchema, ResourceField, ResourceRecord:
		return true
	}
	return false
}

// Resource describes what a permission applies to.
//
//   - global ignores Target.
//   - schema requires Target (a collection name or "*").
//   - field uses Target and Fields.
//   - record uses Target and Conditions.
type Resource struct {
	Type       ResourceType `json:"type" bson:"type" yaml:"type"`
	Target     string       `json:"target,omitempty" bson:"target,omitempty" yaml:"target,omitempty"`
	Fields     []string     `json:"fields,omitempty" bson:"fields,omitempty" yaml:"fields,omitempty"`
	Conditions []Condition  `json:"conditions,omitempty" bson:"conditions,omitempty" yaml:"conditions,omitempty"`
}

// Validate checks the structural shape of the resource. A schema permission
// without a target is accepted because aggregation skips it.
func (r Resource) Validate() error {
	if !r.Type.Valid() {
		return fmt.Errorf("unknown resource type %q", r.Type)
	}
	for _, c := range r.Conditions {
		if c.Field == "" {
			return fmt.Errorf("condition field is required")
		}
	}
	return nil
}

// Operator is a record condition comparison.
type Operator string

const (
	OpEquals   Operator = "equals"
	OpIn       Operator = "in"
	OpContains Operator = "contains"
)

// CurrentUser is the condition value placeholder resolved to the caller's
// user ID at evaluation time.
const CurrentUser = "$currentUser"

// Condition restricts a record permission to records whose Field compares
// true against Value.
type Condition struct {
	Field    string   `json:"field" bson:"field" yaml:"field"`
	Operator Operator `json:"operator" bson:"operator" yaml:"operator"`
	Value    string   `json:"value" bson:"value" yaml:"value"`
}
