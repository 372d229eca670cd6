// Package visibility hides fields a caller may not see from response
// payloads and reports which visible fields are read-only.
package visibility

import (
	"encoding/json"
	"fmt"
	"maps"

	"github.com/xraph/bastion"
)

// Result is a filtered payload together with the field permissions applied
// to it, so a client can mark read-only fields without another request.
type Result struct {
	Data             any                                `json:"data"`
	FieldPermissions map[string]bastion.FieldPermission `json:"fieldPermissions"`
}

// Filter removes fields whose permission is not visible. payload may be a
// single record or a list of records; fields without a permission are kept.
// Neither the input nor perms is modified; the Result holds a copy of perms.
//
// Records are map[string]any. Other values are converted through their JSON
// form first; values that do not encode to a JSON object are passed through.
func Filter(payload any, perms map[string]bastion.FieldPermission) Result {
	perms = maps.Clone(perms)
	if perms == nil {
		perms = map[string]bastion.FieldPermission{}
	}
	return Result{Data: filterValue(payload, perms), FieldPermissions: perms}
}

// ForTarget filters payload with the field permissions rp holds for target.
func ForTarget(payload any, rp *bastion.ResolvedPermissions, target string) Result {
	return Filter(payload, rp.FieldPermissions(target))
}

// Record filters a single record.
func Record(rec map[string]any, perms map[string]bastion.FieldPermission) map[string]any {
	if rec == nil {
		return nil
	}
	out := make(map[string]any, len(rec))
	for k, v := range rec {
		if fp, ok := perms[k]; ok && !fp.Visible {
			continue
		}
		out[k] = v
	}
	return out
}

// Records filters each record of a list.
func Records(recs []map[string]any, perms map[string]bastion.FieldPermission) []map[string]any {
	out := make([]map[string]any, len(recs))
	for i, r := range recs {
		out[i] = Record(r, perms)
	}
	return out
}

func filterValue(v any, perms map[string]bastion.FieldPermission) any {
	switch p := v.(type) {
	case nil:
		return nil
	case map[string]any:
		return Record(p, perms)
	case []map[string]any:
		return Records(p, perms)
	case []any:
		out := make([]any, len(p))
		for i, item := range p {
			out[i] = filterValue(item, perms)
		}
		return out
	default:
		converted, err := toGeneric(v)
		if err != nil {
			return v
		}
		switch converted.(type) {
		case map[string]any, []any:
			return filterValue(converted, perms)
		}
		return v
	}
}

func toGeneric(v any) (any, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("visibility: encode payload: %w", err)
	}
	var out any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("visibility: decode payload: %w", err)
	}
	return out, nil
}
