package id_test

import (
	"strings"
	"testing"

	"github.com/xraph/bastion/id"
)

func TestConstructors(t *testing.T) {
	tests := []struct {
		name   string
		newFn  func() id.ID
		prefix string
	}{
		{"RoleID", id.NewRoleID, "role_"},
		{"PermissionID", id.NewPermissionID, "perm_"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.newFn().String()
			if !strings.HasPrefix(got, tt.prefix) {
				t.Errorf("expected prefix %q, got %q", tt.prefix, got)
			}
		})
	}
}

func TestCrossTypeRejection(t *testing.T) {
	if _, err := id.ParseRoleID(id.NewPermissionID().String()); err == nil {
		t.Error("ParseRoleID accepted a perm_ id")
	}
	if _, err := id.ParsePermissionID(id.NewRoleID().String()); err == nil {
		t.Error("ParsePermissionID accepted a role_ id")
	}
}

func TestParseRoleIDs(t *testing.T) {
	a, b := id.NewRoleID(), id.NewRoleID()
	got, err := id.ParseRoleIDs([]string{a.String(), b.String()})
	if err != nil {
		t.Fatalf("ParseRoleIDs: %v", err)
	}
	if len(got) != 2 || got[0] != a || got[1] != b {
		t.Errorf("unexpected result: %v", got)
	}

	if _, err := id.ParseRoleIDs([]string{a.String(), "garbage"}); err == nil {
		t.Error("expected error for invalid entry")
	}
}

func TestSortedUnique(t *testing.T) {
	a, b := id.NewRoleID(), id.NewRoleID()
	got := id.SortedUnique([]id.ID{b, a, b, id.Nil})
	if len(got) != 2 {
		t.Fatalf("expected 2 entries, got %v", got)
	}
	if got[0] > got[1] {
		t.Errorf("not sorted: %v", got)
	}
}

func TestParseEmpty(t *testing.T) {
	if _, err := id.Parse(""); err == nil {
		t.Error("expected error for empty string")
	}
}

func TestNilID(t *testing.T) {
	var i id.ID
	if !i.IsNil() {
		t.Error("zero-value ID should be nil")
	}
	if i.String() != "" {
		t.Errorf("expected empty string, got %q", i.String())
	}
}

func TestMarshalUnmarshalText(t *testing.T) {
	original := id.NewRoleID()
	data, err := original.MarshalText()
	if err != nil {
		t.Fatalf("MarshalText failed: %v", err)
	}

	var restored id.ID
	if err := restored.UnmarshalText(data); err != nil {
		t.Fatalf("UnmarshalText failed: %v", err)
	}
	if restored != original {
		t.Errorf("mismatch: %q != %q", restored, original)
	}

	var nilID id.ID
	data, _ = nilID.MarshalText()
	var restored2 id.ID
	if err := restored2.UnmarshalText(data); err != nil {
		t.Fatalf("UnmarshalText(nil) failed: %v", err)
	}
	if !restored2.IsNil() {
		t.Error("expected nil after round-trip of nil ID")
	}
}

func TestValueScan(t *testing.T) {
	original := id.NewPermissionID()
	val, err := original.Value()
	if err != nil {
		t.Fatalf("Value failed: %v", err)
	}

	var scanned id.ID
	if err := scanned.Scan(val); err != nil {
		t.Fatalf("Scan failed: %v", err)
	}
	if scanned != original {
		t.Errorf("mismatch: %q != %q", scanned, original)
	}

	var scanned2 id.ID
	if err := scanned2.Scan(nil); err != nil {
		t.Fatalf("Scan(nil) failed: %v", err)
	}
	if !scanned2.IsNil() {
		t.Error("expected nil after scan of nil")
	}
}
