// Package ownership reads and writes the owner field of records.
//
// Records are plain maps. The owner field defaults to "createdBy" and holds
// the owning user's ID as a string. Functions that change ownership return
// a new map and leave their input untouched.
package ownership

import (
	"errors"
	"fmt"
	"maps"
)

// DefaultField is the owner field used when none is configured.
const DefaultField = "createdBy"

// ErrNotOwner is returned by AssertOwnership when the user does not own the
// record.
var ErrNotOwner = errors.New("ownership: user does not own record")

// Option configures the owner field.
type Option func(*options)

type options struct{ field string }

// WithField selects the record field holding the owner ID. An empty name
// keeps the default.
func WithField(name string) Option {
	return func(o *options) {
		if name != "" {
			o.field = name
		}
	}
}

func resolve(opts []Option) options {
	o := options{field: DefaultField}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// GetOwnerID returns the owner ID stored in record.
func GetOwnerID(record map[string]any, opts ...Option) (string, bool) {
	if record == nil {
		return "", false
	}
	v, ok := record[resolve(opts).field].(string)
	if !ok || v == "" {
		return "", false
	}
	return v, true
}

// HasOwner reports whether record carries a non-empty owner ID.
func HasOwner(record map[string]any, opts ...Option) bool {
	_, ok := GetOwnerID(record, opts...)
	return ok
}

// IsOwner reports whether userID owns record. An empty userID owns nothing.
func IsOwner(record map[string]any, userID string, opts ...Option) bool {
	if userID == "" {
		return false
	}
	owner, ok := GetOwnerID(record, opts...)
	return ok && owner == userID
}

// AssertOwnership returns an error wrapping ErrNotOwner unless userID owns
// record.
func AssertOwnership(record map[string]any, userID string, opts ...Option) error {
	if !IsOwner(record, userID, opts...) {
		return fmt.Errorf("%w: user %q", ErrNotOwner, userID)
	}
	return nil
}

// FilterByOwnership returns the records owned by userID, preserving order.
func FilterByOwnership(records []map[string]any, userID string, opts ...Option) []map[string]any {
	out := make([]map[string]any, 0, len(records))
	for _, r := range records {
		if IsOwner(r, userID, opts...) {
			out = append(out, r)
		}
	}
	return out
}

// SetOwner returns a copy of record with its owner set to userID.
func SetOwner(record map[string]any, userID string, opts ...Option) map[string]any {
	out := make(map[string]any, len(record)+1)
	maps.Copy(out, record)
	out[resolve(opts).field] = userID
	return out
}

// TransferOwnership returns a copy of record owned by newOwnerID.
func TransferOwnership(record map[string]any, newOwnerID string, opts ...Option) map[string]any {
	return SetOwner(record, newOwnerID, opts...)
}
