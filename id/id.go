// Package id defines TypeID-based identity types for all Vault entities.
//
// Every entity in Vault uses a single ID struct with a prefix that identifies
// the entity type. IDs are K-sortable (UUIDv7-based), globally unique,
// and URL-safe in the format "prefix_suffix".
package id

import (
	"database/sql/driver"
	"fmt"

	"go.jetify.com/typeid/v2"
)

// Prefix identifies the entity type encoded in a TypeID.
type Prefix string

// Prefix constants for all Vault entity types.
const (
	PrefixLock        Prefix = "lock"  // Escrow lock
	PrefixService     Prefix = "svc"   // Catalog service type
	PrefixUsage       Prefix = "use"   // Consumption event
	PrefixCategory    Prefix = "cat"   // Treasury category
	PrefixAllocation  Prefix = "alloc" // Treasury allocation record
	PrefixWithdrawal  Prefix = "wd"    // Treasury withdrawal record
	PrefixAuthority   Prefix = "auth"  // Authority grant
)

// ID is the primary identifier type for all Vault entities.
// It wraps a TypeID providing a prefix-qualified, globally unique,
// sortable, URL-safe identifier in the format "prefix_suffix".
//
//nolint:recvcheck // Value receivers for read-only methods, pointer receivers for UnmarshalText/Scan.
type ID struct {
	inner typeid.TypeID
	valid bool
}

// Nil is the zero-value ID.
var Nil ID

// New generates a new globally unique ID with the given prefix.
// It panics if prefix is not a valid TypeID prefix (programming error).
func New(prefix Prefix) ID {
	tid, err := typeid.Generate(string(prefix))
	if err != nil {
		panic(fmt.Sprintf("id: invalid prefix %q: %v", prefix, err))
	}

	return ID{inner: tid, valid: true}
}

// Parse parses a TypeID string (e.g., "lock_01h2xcejqtf2nbrexx3vqjhp41")
// into an ID. Returns an error if the string is not valid.
func Parse(s string) (ID, error) {
	if s == "" {
		return Nil, fmt.Errorf("id: parse %q: empty string", s)
	}

	tid, err := typeid.Parse(s)
	if err != nil {
		return Nil, fmt.Errorf("id: parse %q: %w", s, err)
	}

	return ID{inner: tid, valid: true}, nil
}

// ParseWithPrefix parses a TypeID string and validates that its prefix
// matches the expected value.
func ParseWithPrefix(s string, expected Prefix) (ID, error) {
	parsed, err := Parse(s)
	if err != nil {
		return Nil, err
	}

	if parsed.Prefix() != expected {
		return Nil, fmt.Errorf("id: expected prefix %q, got %q", expected, parsed.Prefix())
	}

	return parsed, nil
}

// MustParse is like Parse but panics on error. Use for hardcoded ID values.
func MustParse(s string) ID {
	parsed, err := Parse(s)
	if err != nil {
		panic(fmt.Sprintf("id: must parse %q: %v", s, err))
	}

	return parsed
}

// ──────────────────────────────────────────────────
// Type aliases
// ──────────────────────────────────────────────────

// LockID is a type-safe identifier for escrow locks (prefix: "lock").
type LockID = ID

// ServiceID is a type-safe identifier for catalog services (prefix: "svc").
type ServiceID = ID

// UsageID is a type-safe identifier for consumption events (prefix: "use").
type UsageID = ID

// CategoryID is a type-safe identifier for treasury categories (prefix: "cat").
type CategoryID = ID

// AllocationID is a type-safe identifier for allocation records (prefix: "alloc").
type AllocationID = ID

// WithdrawalID is a type-safe identifier for withdrawal records (prefix: "wd").
type WithdrawalID = ID

// AuthorityID is a type-safe identifier for authority grants (prefix: "auth").
type AuthorityID = ID

// ──────────────────────────────────────────────────
// Convenience constructors
// ──────────────────────────────────────────────────

// NewLockID generates a new unique lock ID.
func NewLockID() ID { return New(PrefixLock) }

// NewServiceID generates a new unique service ID.
func NewServiceID() ID { return New(PrefixService) }

// NewUsageID generates a new unique consumption event ID.
func NewUsageID() ID { return New(PrefixUsage) }

// NewCategoryID generates a new unique category ID.
func NewCategoryID() ID { return New(PrefixCategory) }

// NewAllocationID generates a new unique allocation record ID.
func NewAllocationID() ID { return New(PrefixAllocation) }

// NewWithdrawalID generates a new unique withdrawal record ID.
func NewWithdrawalID() ID { return New(PrefixWithdrawal) }

// NewAuthorityID generates a new unique authority grant ID.
func NewAuthorityID() ID { return New(PrefixAuthority) }

// ──────────────────────────────────────────────────
// Convenience parsers
// ──────────────────────────────────────────────────

// ParseLockID parses a string and validates the "lock" prefix.
func ParseLockID(s string) (ID, error) { return ParseWithPrefix(s, PrefixLock) }

// ParseServiceID parses a string and validates the "svc" prefix.
func ParseServiceID(s string) (ID, error) { return ParseWithPrefix(s, PrefixService) }

// ParseUsageID parses a string and validates the "use" prefix.
func ParseUsageID(s string) (ID, error) { return ParseWithPrefix(s, PrefixUsage) }

// ParseCategoryID parses a string and validates the "cat" prefix.
func ParseCategoryID(s string) (ID, error) { return ParseWithPrefix(s, PrefixCategory) }

// ParseAllocationID parses a string and validates the "alloc" prefix.
func ParseAllocationID(s string) (ID, error) { return ParseWithPrefix(s, PrefixAllocation) }

// ParseWithdrawalID parses a string and validates the "wd" prefix.
func ParseWithdrawalID(s string) (ID, error) { return ParseWithPrefix(s, PrefixWithdrawal) }

// ──────────────────────────────────────────────────
// ID methods
// ──────────────────────────────────────────────────

// String returns the full TypeID string representation (prefix_suffix).
// Returns an empty string for the Nil ID.
func (i ID) String() string {
	if !i.valid {
		return ""
	}

	return i.inner.String()
}

// Prefix returns the prefix component of this ID.
func (i ID) Prefix() Prefix {
	if !i.valid {
		return ""
	}

	return Prefix(i.inner.Prefix())
}

// IsNil reports whether this ID is the zero value.
func (i ID) IsNil() bool {
	return !i.valid
}

// MarshalText implements encoding.TextMarshaler.
func (i ID) MarshalText() ([]byte, error) {
	if !i.valid {
		return []byte{}, nil
	}

	return []byte(i.inner.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (i *ID) UnmarshalText(data []byte) error {
	if len(data) == 0 {
		*i = Nil

		return nil
	}

	parsed, err := Parse(string(data))
	if err != nil {
		return err
	}

	*i = parsed

	return nil
}

// Value implements driver.Valuer for database storage.
// Returns nil for the Nil ID so that optional foreign key columns store NULL.
func (i ID) Value() (driver.Value, error) {
	if !i.valid {
		return nil, nil //nolint:nilnil // nil is the canonical NULL for driver.Valuer
	}

	return i.inner.String(), nil
}

// Scan implements sql.Scanner for database retrieval.
func (i *ID) Scan(src any) error {
	if src == nil {
		*i = Nil

		return nil
	}

	switch v := src.(type) {
	case string:
		if v == "" {
			*i = Nil

			return nil
		}

		return i.UnmarshalText([]byte(v))
	case []byte:
		if len(v) == 0 {
			*i = Nil

			return nil
		}

		return i.UnmarshalText(v)
	default:
		return fmt.Errorf("id: cannot scan %T into ID", src)
	}
}
