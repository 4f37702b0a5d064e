package id_test

import (
	"strings"
	"testing"

	"github.com/xraph/vault/id"
)

func TestConstructors(t *testing.T) {
	tests := []struct {
		name   string
		newFn  func() id.ID
		prefix string
	}{
		{"LockID", id.NewLockID, "lock_"},
		{"ServiceID", id.NewServiceID, "svc_"},
		{"UsageID", id.NewUsageID, "use_"},
		{"CategoryID", id.NewCategoryID, "cat_"},
		{"AllocationID", id.NewAllocationID, "alloc_"},
		{"WithdrawalID", id.NewWithdrawalID, "wd_"},
		{"AuthorityID", id.NewAuthorityID, "auth_"},
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

func TestNew(t *testing.T) {
	i := id.New(id.PrefixLock)
	if i.IsNil() {
		t.Fatal("expected non-nil ID")
	}
	if i.Prefix() != id.PrefixLock {
		t.Errorf("expected prefix %q, got %q", id.PrefixLock, i.Prefix())
	}
}

func TestParseRoundTrip(t *testing.T) {
	tests := []struct {
		name    string
		newFn   func() id.ID
		parseFn func(string) (id.ID, error)
	}{
		{"LockID", id.NewLockID, id.ParseLockID},
		{"ServiceID", id.NewServiceID, id.ParseServiceID},
		{"UsageID", id.NewUsageID, id.ParseUsageID},
		{"CategoryID", id.NewCategoryID, id.ParseCategoryID},
		{"AllocationID", id.NewAllocationID, id.ParseAllocationID},
		{"WithdrawalID", id.NewWithdrawalID, id.ParseWithdrawalID},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			original := tt.newFn()
			parsed, err := tt.parseFn(original.String())
			if err != nil {
				t.Fatal(err)
			}
			if parsed.String() != original.String() {
				t.Errorf("round trip mismatch: got %q, want %q", parsed, original)
			}
		})
	}
}

func TestParseWithPrefixRejectsMismatch(t *testing.T) {
	lockID := id.NewLockID()
	if _, err := id.ParseServiceID(lockID.String()); err == nil {
		t.Error("expected prefix mismatch error")
	}
}

func TestParseRejectsGarbage(t *testing.T) {
	for _, s := range []string{"", "not-an-id", "lock_"} {
		if _, err := id.Parse(s); err == nil {
			t.Errorf("expected error parsing %q", s)
		}
	}
}

func TestNilID(t *testing.T) {
	var nilID id.ID
	if !nilID.IsNil() {
		t.Error("zero value should be nil")
	}
	if nilID.String() != "" {
		t.Errorf("nil ID string should be empty, got %q", nilID.String())
	}
}

func TestTextMarshalRoundTrip(t *testing.T) {
	original := id.NewCategoryID()
	data, err := original.MarshalText()
	if err != nil {
		t.Fatal(err)
	}

	var decoded id.ID
	if err := decoded.UnmarshalText(data); err != nil {
		t.Fatal(err)
	}
	if decoded.String() != original.String() {
		t.Errorf("got %q, want %q", decoded, original)
	}
}

func TestScan(t *testing.T) {
	original := id.NewLockID()

	var fromString id.ID
	if err := fromString.Scan(original.String()); err != nil {
		t.Fatal(err)
	}
	if fromString.String() != original.String() {
		t.Errorf("scan string: got %q, want %q", fromString, original)
	}

	var fromNil id.ID
	if err := fromNil.Scan(nil); err != nil {
		t.Fatal(err)
	}
	if !fromNil.IsNil() {
		t.Error("scanning nil should produce the Nil ID")
	}

	var fromInt id.ID
	if err := fromInt.Scan(42); err == nil {
		t.Error("expected error scanning int")
	}
}
