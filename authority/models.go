// Package authority defines the capability/ACL component consulted by
// every mutating operation.
package authority

import (
	"github.com/xraph/vault/id"
	"github.com/xraph/vault/types"
)

// Role is a named capability.
type Role string

const (
	// RoleOwner may administer the catalog, the treasury configuration,
	// and the allow-lists.
	RoleOwner Role = "owner"

	// RoleBackend (the metering authority) may call Consume against any
	// owner's lock. Correctness of reported units is delegated entirely
	// to principals holding this role.
	RoleBackend Role = "backend"

	// RoleAllocator may draw down category quotas via Reallocate.
	RoleAllocator Role = "allocator"
)

// Grant records that a principal holds a role.
type Grant struct {
	types.Entity
	ID        id.AuthorityID `json:"id"`
	Role      Role           `json:"role"`
	Principal string         `json:"principal"`
}
