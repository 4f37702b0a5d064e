// Package vault provides a utility-token economy engine for Go applications.
//
// Vault is designed as a library, not a service. Import it directly into your
// Go application. It provides:
//
//   - A per-user escrow ledger of prepaid token locks (Lock / Consume / Unlock)
//   - A service catalog with per-unit costs and monotonic consumption totals
//   - A treasury with categorized, period-rolling reallocation quotas
//   - Operational withdrawals with append-only records
//   - A capability registry separating owner, metering, and allocator roles
//   - Pluggable asset backends for actual token custody
//
// # Quick Start
//
// Create a vault instance with your preferred store and asset backend:
//
//	import (
//	    "github.com/xraph/vault"
//	    "github.com/xraph/vault/store/memory"
//	    "github.com/xraph/vault/token"
//	)
//
//	bank := token.NewBank()
//	v := vault.New(memory.New(), bank, vault.WithOwner("admin"))
//
//	if err := v.Start(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	defer v.Stop()
//
// # Core Concepts
//
// Users escrow tokens into discrete locks. Each lock is identified by its
// owner and a dense per-owner index:
//
//	lock, err := v.Lock(ctx, "alice", types.Tokens(100), "order-42")
//
// Authorized metering backends debit locks against catalog services. The
// consumed tokens move into the treasury in the same operation:
//
//	event, err := v.Consume(ctx, "backend-1", "alice", lock.Index, "inference", 3, "req-9")
//
// Owners reclaim whatever remains in a lock exactly once:
//
//	refund, err := v.Unlock(ctx, "alice", lock.Index)
//
// Allocators pay treasury tokens back out under per-category, per-period
// quotas that reset lazily when the period rolls over:
//
//	alloc, err := v.Reallocate(ctx, "allocator-1", "bob", types.Tokens(50), "welcome", "signup grant")
//
// # Accounting
//
// All token quantities use the integer Amount type in base units; there is
// no floating point anywhere in the engine. Bookkeeping is committed before
// the external asset transfer, and compensated if the transfer fails, so
// store counters and asset balances never drift.
//
// # TypeID
//
// All entities use TypeID for globally unique, type-safe identifiers:
//
//	lock_01h2xcejqtf2nbrexx3vqjhp41   // Lock ID
//	svc_01h2xcejqtf2nbrexx3vqjhp41    // Service ID
//	alloc_01h455vb4pex5vsknk084sn02q  // Allocation ID
//
// TypeIDs are K-sortable, making them ideal for database indexes and
// providing natural time-ordering of entities.
package vault
