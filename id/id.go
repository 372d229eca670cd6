// Package id defines the prefixed TypeID identifiers of roles ("role_…") and
// permissions ("perm_…"). IDs are K-sortable and URL-safe.
package id

import (
	"database/sql/driver"
	"fmt"
	"slices"

	"go.jetify.com/typeid/v2"
)

// Prefix is the entity type encoded in an ID.
type Prefix string

const (
	PrefixRole       Prefix = "role"
	PrefixPermission Prefix = "perm"
)

// ID identifies a role or a permission. The zero value is Nil.
type ID struct {
	tid typeid.TypeID
}

// Nil is the zero ID. It encodes as an empty string and SQL NULL.
var Nil ID

// RoleID is an ID carrying PrefixRole.
type RoleID = ID

// PermissionID is an ID carrying PrefixPermission.
type PermissionID = ID

func generate(prefix Prefix) ID {
	return ID{tid: typeid.MustGenerate(string(prefix))}
}

// NewRoleID generates a role ID.
func NewRoleID() ID { return generate(PrefixRole) }

// NewPermissionID generates a permission ID.
func NewPermissionID() ID { return generate(PrefixPermission) }

// Parse parses any prefixed TypeID.
func Parse(s string) (ID, error) {
	if s == "" {
		return Nil, fmt.Errorf("id: parse %q: empty string", s)
	}
	tid, err := typeid.Parse(s)
	if err != nil {
		return Nil, fmt.Errorf("id: parse %q: %w", s, err)
	}
	return ID{tid: tid}, nil
}

// ParseWithPrefix parses s and rejects IDs of another entity type.
func ParseWithPrefix(s string, want Prefix) (ID, error) {
	v, err := Parse(s)
	if err != nil {
		return Nil, err
	}
	if got := v.Prefix(); got != want {
		return Nil, fmt.Errorf("id: %q is a %q id, want %q", s, got, want)
	}
	return v, nil
}

func ParseRoleID(s string) (ID, error)       { return ParseWithPrefix(s, PrefixRole) }
func ParsePermissionID(s string) (ID, error) { return ParseWithPrefix(s, PrefixPermission) }

// ParseRoleIDs parses ss as role IDs and fails on the first bad entry.
func ParseRoleIDs(ss []string) ([]ID, error) { return parseEach(ss, PrefixRole) }

// ParsePermissionIDs parses ss as permission IDs and fails on the first bad
// entry.
func ParsePermissionIDs(ss []string) ([]ID, error) { return parseEach(ss, PrefixPermission) }

func parseEach(ss []string, want Prefix) ([]ID, error) {
	out := make([]ID, len(ss))
	for i, s := range ss {
		v, err := ParseWithPrefix(s, want)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

// Strings maps ids to their string form, keeping order.
func Strings(ids []ID) []string {
	out := make([]string, len(ids))
	for i, v := range ids {
		out[i] = v.String()
	}
	return out
}

// SortedUnique returns the distinct non-nil ids as sorted strings.
func SortedUnique(ids []ID) []string {
	out := make([]string, 0, len(ids))
	for _, v := range ids {
		if !v.IsNil() {
			out = append(out, v.String())
		}
	}
	slices.Sort(out)
	return slices.Compact(out)
}

// Contains reports whether target is in ids.
func Contains(ids []ID, target ID) bool { return slices.Contains(ids, target) }

// String returns "prefix_suffix", or "" for Nil.
func (i ID) String() string {
	if i.IsNil() {
		return ""
	}
	return i.tid.String()
}

// Prefix returns the entity type of i.
func (i ID) Prefix() Prefix { return Prefix(i.tid.Prefix()) }

// IsNil reports whether i is the zero ID.
func (i ID) IsNil() bool { return i.tid.IsZero() }

// MarshalText implements encoding.TextMarshaler.
func (i ID) MarshalText() ([]byte, error) { return []byte(i.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler. Empty input yields Nil.
func (i *ID) UnmarshalText(data []byte) error {
	if len(data) == 0 {
		*i = Nil
		return nil
	}
	v, err := Parse(string(data))
	if err != nil {
		return err
	}
	*i = v
	return nil
}

// Value implements driver.Valuer; Nil is stored as NULL.
func (i ID) Value() (driver.Value, error) {
	if i.IsNil() {
		return nil, nil
	}
	return i.String(), nil
}

// Scan implements sql.Scanner for string, []byte and NULL columns.
func (i *ID) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*i = Nil
		return nil
	case string:
		return i.UnmarshalText([]byte(v))
	case []byte:
		return i.UnmarshalText(v)
	}
	return fmt.Errorf("id: cannot scan %T", src)
}
