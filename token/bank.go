package token

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/xraph/vault/types"
)

// ErrInsufficientBalance is returned by Bank.Transfer when the source
// account cannot cover the transfer.
var ErrInsufficientBalance = errors.New("token: insufficient balance")

// Bank is an in-memory Asset implementation for tests, demos, and
// single-process deployments. Production deployments inject their own
// Asset bound to the real token backend.
type Bank struct {
	mu       sync.RWMutex
	balances map[string]types.Amount
}

var _ Asset = (*Bank)(nil)

// NewBank creates an empty in-memory bank.
func NewBank() *Bank {
	return &Bank{balances: make(map[string]types.Amount)}
}

// Mint credits an account out of thin air. Test setup only.
func (b *Bank) Mint(account string, amount types.Amount) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.balances[account] = b.balances[account].Add(amount)
}

// Transfer moves amount from one account to another. It fails without
// side effects if amount is not positive or the source balance is short.
func (b *Bank) Transfer(_ context.Context, from, to string, amount types.Amount) error {
	if !amount.IsPositive() {
		return fmt.Errorf("token: transfer %s from %q to %q: amount must be positive", amount, from, to)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.balances[from].LessThan(amount) {
		return fmt.Errorf("token: transfer %s from %q to %q: %w", amount, from, to, ErrInsufficientBalance)
	}

	b.balances[from] = b.balances[from].Subtract(amount)
	b.balances[to] = b.balances[to].Add(amount)
	return nil
}

// BalanceOf returns the current balance of an account.
func (b *Bank) BalanceOf(_ context.Context, account string) (types.Amount, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.balances[account], nil
}
