package api

import "github.com/xraph/bastion"

// CheckResponse is the response for an authorization check.
type CheckResponse struct {
	Allowed    bool   `json:"allowed" description:"Whether the request is allowed"`
	Decision   string `json:"decision" description:"Decision code"`
	Reason     string `json:"reason,omitempty" description:"Human-readable reason"`
	MatchedBy  string `json:"matched_by,omitempty" description:"Permission level that granted access (global, schema, record)"`
	EvalTimeNs int64  `json:"eval_time_ns" description:"Evaluation time in nanoseconds"`
}

// StatusResponse reports whether the RBAC system has been bootstrapped.
type StatusResponse struct {
	Initialized bool `json:"initialized" description:"True when at least one role exists"`
}

// ListResponse wraps a list of items with pagination metadata.
type ListResponse[T any] struct {
	Items  []T   `json:"items" description:"List of items"`
	Total  int64 `json:"total" description:"Total count"`
	Limit  int   `json:"limit" description:"Page size"`
	Offset int   `json:"offset" description:"Page offset"`
}

func toCheckResponse(r *bastion.CheckResult) *CheckResponse {
	return &CheckResponse{
		Allowed:    r.Allowed,
		Decision:   string(r.Decision),
		Reason:     r.Reason,
		MatchedBy:  string(r.MatchedBy),
		EvalTimeNs: r.EvalTimeNs,
	}
}
