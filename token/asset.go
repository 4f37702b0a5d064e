// Package token defines the external fungible-asset primitive consumed by
// the Vault engine. The engine never mints or burns; it only moves value
// between accounts through this interface, so total supply is conserved by
// construction.
package token

import (
	"context"

	"github.com/xraph/vault/types"
)

// Asset is the fungible-asset transfer primitive. Implementations are
// external collaborators (a chain client, a payments core, the in-memory
// Bank below); allowance and balance enforcement live on their side.
//
// A failed Transfer must leave both accounts unchanged.
type Asset interface {
	Transfer(ctx context.Context, from, to string, amount types.Amount) error
	BalanceOf(ctx context.Context, account string) (types.Amount, error)
}
