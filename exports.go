package vault

import "github.com/xraph/vault/types"

// Re-export common types for convenience so users don't have to import types package.

// Amount is re-exported from types package.
type Amount = types.Amount

// Entity is re-exported from types package.
type Entity = types.Entity

// Re-export Amount constructors
var (
	Tokens = types.Tokens
	Sum    = types.Sum
)

// Zero is the zero Amount.
const Zero = types.Zero

// Re-export Entity constructors
var (
	NewEntity   = types.NewEntity
	NewEntityAt = types.NewEntityAt
)
