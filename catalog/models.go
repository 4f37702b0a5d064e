// Package catalog defines the registry of metered service types.
package catalog

import (
	"github.com/xraph/vault/id"
	"github.com/xraph/vault/types"
)

// Service is a metered service type: a caller-chosen unique key, a unit
// cost applied to future consumption, an active flag, and a monotonic
// running total of everything ever consumed against it.
//
// Services are never deleted, only deactivated. Cost changes apply to
// future Consume calls only, never retroactively to recorded events.
type Service struct {
	types.Entity
	ID            id.ServiceID `json:"id"`
	Key           string       `json:"key"`
	UnitCost      types.Amount `json:"unit_cost"`
	Active        bool         `json:"active"`
	TotalConsumed types.Amount `json:"total_consumed"`
}

// ListOpts filters service listings.
type ListOpts struct {
	ActiveOnly bool
}
