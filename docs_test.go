package vault_test

import (
	"context"
	"log"
	"log/slog"
	"testing"

	"github.com/xraph/vault"
	"github.com/xraph/vault/store/memory"
	"github.com/xraph/vault/token"
	"github.com/xraph/vault/types"
)

// TestDocumentationExamples verifies that all examples in the documentation compile
func TestDocumentationExamples(t *testing.T) {
	// Test Quick Start example from README
	t.Run("QuickStartExample", func(t *testing.T) {
		// Create store (memory for demo, use SQLite or Mongo in production)
		store := memory.New()

		// In-memory bank for demo; real deployments plug in their own
		// token.Asset implementation.
		bank := token.NewBank()
		bank.Mint("alice", types.Tokens(1000))

		// Initialize Vault
		v := vault.New(store, bank,
			vault.WithLogger(slog.Default()),
			vault.WithOwner("admin"),
			vault.WithMinimumLock(types.Tokens(1)),
		)

		// Start the engine
		ctx := context.Background()
		if err := v.Start(ctx); err != nil {
			t.Fatal(err)
		}
		defer v.Stop()

		// Register a metered service
		if _, err := v.AddService(ctx, "admin", "inference", types.Tokens(1)); err != nil {
			t.Fatal(err)
		}

		// Authorize a metering backend
		if err := v.AuthorizeBackend(ctx, "admin", "backend-1"); err != nil {
			t.Fatal(err)
		}

		// User escrows tokens
		lock, err := v.Lock(ctx, "alice", types.Tokens(100), "order-42")
		if err != nil {
			t.Fatal(err)
		}

		// Backend meters consumption
		event, err := v.Consume(ctx, "backend-1", "alice", lock.Index, "inference", 3, "req-9")
		if err != nil {
			t.Fatal(err)
		}
		log.Printf("consumed %s against lock %d\n", event.Cost, event.LockIndex)

		// User reclaims the remainder
		refund, err := v.Unlock(ctx, "alice", lock.Index)
		if err != nil {
			t.Fatal(err)
		}
		log.Printf("refunded %s\n", refund)

		if refund != types.Tokens(97) {
			t.Errorf("refund: got %s, want %s", refund, types.Tokens(97))
		}
	})

	// Test treasury example
	t.Run("TreasuryExample", func(t *testing.T) {
		bank := token.NewBank()
		v := vault.New(memory.New(), bank, vault.WithOwner("admin"))

		ctx := context.Background()
		if err := v.Start(ctx); err != nil {
			t.Fatal(err)
		}
		defer v.Stop()

		// Register a reallocation category and an allocator
		if _, err := v.AddCategory(ctx, "admin", "welcome", types.Tokens(1000)); err != nil {
			t.Fatal(err)
		}
		if err := v.AuthorizeAllocator(ctx, "admin", "growth-service"); err != nil {
			t.Fatal(err)
		}

		// Fund the treasury through the registered escrow source
		bank.Mint(vault.DefaultEscrowAccount, types.Tokens(500))
		if err := v.ReceiveConsumed(ctx, vault.DefaultEscrowAccount, types.Tokens(500)); err != nil {
			t.Fatal(err)
		}

		// Pay out a signup grant under the category quota
		alloc, err := v.Reallocate(ctx, "growth-service", "bob", types.Tokens(50), "welcome", "signup grant")
		if err != nil {
			t.Fatal(err)
		}
		log.Printf("allocated %s to %s in period %d\n", alloc.Amount, alloc.Recipient, alloc.PeriodIndex)

		state, err := v.TreasuryState(ctx)
		if err != nil {
			t.Fatal(err)
		}
		if state.Balance() != types.Tokens(450) {
			t.Errorf("treasury balance: got %s, want %s", state.Balance(), types.Tokens(450))
		}
	})
}
