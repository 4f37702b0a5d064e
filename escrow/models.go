// Package escrow defines the per-user lock ledger entities.
package escrow

import (
	"github.com/xraph/vault/id"
	"github.com/xraph/vault/types"
)

// Lock is a discrete prepaid batch of tokens held in escrow custody on
// behalf of its owner. Locks are array-indexed per owner; the index is the
// stable external reference and locks are never deleted.
//
// Lifecycle: created active with Consumed == 0, debited by Consume until
// Consumed == Amount (terminal, auto-deactivated) or closed early by
// Unlock (terminal, remainder refunded). No transition leaves a terminal
// state.
type Lock struct {
	types.Entity
	ID         id.LockID    `json:"id"`
	Owner      string       `json:"owner"`
	Index      uint64       `json:"index"`
	Amount     types.Amount `json:"amount"`
	Consumed   types.Amount `json:"consumed"`
	Active     bool         `json:"active"`
	ExternalID string       `json:"external_id"`
}

// Remainder returns the locked tokens not yet consumed.
func (l *Lock) Remainder() types.Amount {
	return l.Amount.Subtract(l.Consumed)
}

// FullyConsumed reports whether the lock has been consumed down to zero.
func (l *Lock) FullyConsumed() bool {
	return l.Consumed == l.Amount
}

// Settings holds the owner-settable escrow configuration.
// Changes are never retroactive: they apply only to future operations.
type Settings struct {
	types.Entity
	MinimumLock types.Amount `json:"minimum_lock"`
}

// ListOpts filters lock listings.
type ListOpts struct {
	ActiveOnly bool
	Limit      int
	Offset     int
}
