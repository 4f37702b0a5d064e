package vault_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/xraph/vault"
	"github.com/xraph/vault/store/memory"
	"github.com/xraph/vault/token"
	"github.com/xraph/vault/types"
)

// Shared test principals.
const (
	ownerPrincipal     = "admin"
	backendPrincipal   = "backend-1"
	allocatorPrincipal = "allocator-1"
)

// fakeClock is a settable time source for driving period rollover.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock(start time.Time) *fakeClock {
	return &fakeClock{now: start}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// testVault bundles a started engine with its collaborators.
type testVault struct {
	v     *vault.Vault
	bank  *token.Bank
	clock *fakeClock
}

// newTestVault starts an engine on a memory store with an in-memory bank,
// a granted backend and allocator, and one registered service costing one
// token per unit.
func newTestVault(t *testing.T) *testVault {
	t.Helper()
	ctx := context.Background()

	clock := newFakeClock(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))
	bank := token.NewBank()

	v := vault.New(memory.New(), bank,
		vault.WithOwner(ownerPrincipal),
		vault.WithMinimumLock(types.Tokens(1)),
		vault.WithPeriodDuration(30*24*time.Hour),
		vault.WithClock(clock.Now),
	)
	if err := v.Start(ctx); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = v.Stop() })

	if err := v.AuthorizeBackend(ctx, ownerPrincipal, backendPrincipal); err != nil {
		t.Fatal(err)
	}
	if err := v.AuthorizeAllocator(ctx, ownerPrincipal, allocatorPrincipal); err != nil {
		t.Fatal(err)
	}
	if _, err := v.AddService(ctx, ownerPrincipal, "inference", types.Tokens(1)); err != nil {
		t.Fatal(err)
	}

	return &testVault{v: v, bank: bank, clock: clock}
}

// fund mints tokens into an account.
func (tv *testVault) fund(t *testing.T, account string, amount types.Amount) {
	t.Helper()
	tv.bank.Mint(account, amount)
}

// balance reads an account balance from the bank.
func (tv *testVault) balance(t *testing.T, account string) types.Amount {
	t.Helper()
	b, err := tv.bank.BalanceOf(context.Background(), account)
	if err != nil {
		t.Fatal(err)
	}
	return b
}
