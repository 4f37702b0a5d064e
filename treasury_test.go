package vault_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/xraph/vault"
	"github.com/xraph/vault/store/memory"
	"github.com/xraph/vault/token"
	"github.com/xraph/vault/treasury"
	"github.com/xraph/vault/types"
)

const period = 30 * 24 * time.Hour

// fundTreasury pushes tokens through the registered escrow source so the
// treasury counters and the bank agree.
func fundTreasury(t *testing.T, tv *testVault, amount types.Amount) {
	t.Helper()
	tv.fund(t, vault.DefaultEscrowAccount, amount)
	if err := tv.v.ReceiveConsumed(context.Background(), vault.DefaultEscrowAccount, amount); err != nil {
		t.Fatal(err)
	}
}

func addCategory(t *testing.T, tv *testVault, key string, limit types.Amount) {
	t.Helper()
	if _, err := tv.v.AddCategory(context.Background(), ownerPrincipal, key, limit); err != nil {
		t.Fatal(err)
	}
}

func TestReceiveConsumedRequiresRegisteredSource(t *testing.T) {
	tv := newTestVault(t)
	ctx := context.Background()
	tv.fund(t, "imposter", types.Tokens(10))

	err := tv.v.ReceiveConsumed(ctx, "imposter", types.Tokens(10))
	if !errors.Is(err, vault.ErrAuthorityMismatch) {
		t.Fatalf("got %v, want ErrAuthorityMismatch", err)
	}

	// Re-registering the source admits the new principal.
	if err := tv.v.SetEscrowSource(ctx, ownerPrincipal, "imposter"); err != nil {
		t.Fatal(err)
	}
	if err := tv.v.ReceiveConsumed(ctx, "imposter", types.Tokens(10)); err != nil {
		t.Fatal(err)
	}

	state, err := tv.v.TreasuryState(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if state.TotalReceived != types.Tokens(10) {
		t.Errorf("total received: got %s, want %s", state.TotalReceived, types.Tokens(10))
	}
}

func TestReallocateWithinQuota(t *testing.T) {
	tv := newTestVault(t)
	ctx := context.Background()
	fundTreasury(t, tv, types.Tokens(2000))
	addCategory(t, tv, "welcome", types.Tokens(1000))

	alloc, err := tv.v.Reallocate(ctx, allocatorPrincipal, "bob", types.Tokens(400), "welcome", "signup grant")
	if err != nil {
		t.Fatal(err)
	}
	if alloc.PeriodIndex != 0 {
		t.Errorf("allocation period: got %d, want 0", alloc.PeriodIndex)
	}
	if got := tv.balance(t, "bob"); got != types.Tokens(400) {
		t.Errorf("recipient balance: got %s, want %s", got, types.Tokens(400))
	}

	state, err := tv.v.TreasuryState(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if state.Balance() != types.Tokens(1600) {
		t.Errorf("treasury balance: got %s, want %s", state.Balance(), types.Tokens(1600))
	}

	remaining, err := tv.v.QuotaRemaining(ctx, "welcome")
	if err != nil {
		t.Fatal(err)
	}
	if remaining != types.Tokens(600) {
		t.Errorf("quota remaining: got %s, want %s", remaining, types.Tokens(600))
	}

	records, err := tv.v.Allocations(ctx, treasury.RecordOpts{CategoryKey: "welcome"})
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 1 {
		t.Fatalf("allocation records: got %d, want 1", len(records))
	}
	if records[0].Allocator != allocatorPrincipal {
		t.Errorf("allocator: got %q, want %q", records[0].Allocator, allocatorPrincipal)
	}
}

func TestQuotaExactExhaustionAndRollover(t *testing.T) {
	tv := newTestVault(t)
	ctx := context.Background()
	fundTreasury(t, tv, types.Tokens(5000))
	addCategory(t, tv, "welcome", types.Tokens(1000))

	// Exact exhaustion is allowed.
	if _, err := tv.v.Reallocate(ctx, allocatorPrincipal, "bob", types.Tokens(1000), "welcome", ""); err != nil {
		t.Fatal(err)
	}

	// One more base unit is over quota.
	_, err := tv.v.Reallocate(ctx, allocatorPrincipal, "bob", types.Amount(1), "welcome", "")
	if !errors.Is(err, vault.ErrQuotaExceeded) {
		t.Fatalf("got %v, want ErrQuotaExceeded", err)
	}
	if !vault.IsStateError(err) {
		t.Errorf("expected a state error, got %v", err)
	}

	// The denied attempt must not consume quota or move tokens.
	if got := tv.balance(t, "bob"); got != types.Tokens(1000) {
		t.Errorf("recipient balance: got %s, want %s", got, types.Tokens(1000))
	}

	// Rollover resets the quota.
	tv.clock.Advance(period + time.Hour)
	if _, err := tv.v.Reallocate(ctx, allocatorPrincipal, "bob", types.Tokens(1000), "welcome", ""); err != nil {
		t.Fatal(err)
	}

	state, err := tv.v.TreasuryState(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if state.PeriodIndex != 1 {
		t.Errorf("period index: got %d, want 1", state.PeriodIndex)
	}
}

func TestLazyRolloverCatchesUpMissedPeriods(t *testing.T) {
	tv := newTestVault(t)
	ctx := context.Background()
	fundTreasury(t, tv, types.Tokens(100))
	addCategory(t, tv, "welcome", types.Tokens(50))

	tv.clock.Advance(3*period + time.Hour)

	if _, err := tv.v.Reallocate(ctx, allocatorPrincipal, "bob", types.Tokens(10), "welcome", ""); err != nil {
		t.Fatal(err)
	}

	state, err := tv.v.TreasuryState(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if state.PeriodIndex != 3 {
		t.Errorf("period index: got %d, want 3", state.PeriodIndex)
	}
	// PeriodStart advances by whole periods, keeping the schedule aligned.
	want := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC).Add(3 * period)
	if !state.PeriodStart.Equal(want) {
		t.Errorf("period start: got %s, want %s", state.PeriodStart, want)
	}
}

func TestReallocateRequiresAllocatorRole(t *testing.T) {
	tv := newTestVault(t)
	ctx := context.Background()
	fundTreasury(t, tv, types.Tokens(100))
	addCategory(t, tv, "welcome", types.Tokens(100))

	for _, caller := range []string{ownerPrincipal, backendPrincipal, "stranger", ""} {
		_, err := tv.v.Reallocate(ctx, caller, "bob", types.Tokens(1), "welcome", "")
		if !errors.Is(err, vault.ErrUnauthorizedCaller) {
			t.Errorf("caller %q: got %v, want ErrUnauthorizedCaller", caller, err)
		}
	}
}

func TestReallocateValidation(t *testing.T) {
	tv := newTestVault(t)
	ctx := context.Background()
	fundTreasury(t, tv, types.Tokens(100))
	addCategory(t, tv, "welcome", types.Tokens(100))

	if _, err := tv.v.Reallocate(ctx, allocatorPrincipal, "", types.Tokens(1), "welcome", ""); !errors.Is(err, vault.ErrEmptyIdentifier) {
		t.Errorf("empty recipient: got %v, want ErrEmptyIdentifier", err)
	}
	if _, err := tv.v.Reallocate(ctx, allocatorPrincipal, "bob", types.Zero, "welcome", ""); !errors.Is(err, vault.ErrInvalidAmount) {
		t.Errorf("zero amount: got %v, want ErrInvalidAmount", err)
	}
	if _, err := tv.v.Reallocate(ctx, allocatorPrincipal, "bob", types.Tokens(1), "missing", ""); !errors.Is(err, vault.ErrCategoryNotFound) {
		t.Errorf("unknown category: got %v, want ErrCategoryNotFound", err)
	}

	if err := tv.v.SetCategoryActive(ctx, ownerPrincipal, "welcome", false); err != nil {
		t.Fatal(err)
	}
	if _, err := tv.v.Reallocate(ctx, allocatorPrincipal, "bob", types.Tokens(1), "welcome", ""); !errors.Is(err, vault.ErrCategoryInactive) {
		t.Errorf("inactive category: got %v, want ErrCategoryInactive", err)
	}
}

func TestReallocateInsufficientTreasury(t *testing.T) {
	tv := newTestVault(t)
	ctx := context.Background()
	fundTreasury(t, tv, types.Tokens(10))
	addCategory(t, tv, "welcome", types.Tokens(100))

	_, err := tv.v.Reallocate(ctx, allocatorPrincipal, "bob", types.Tokens(11), "welcome", "")
	if !errors.Is(err, vault.ErrInsufficientTreasury) {
		t.Fatalf("got %v, want ErrInsufficientTreasury", err)
	}
}

func TestPauseGatesOutboundButNotInbound(t *testing.T) {
	tv := newTestVault(t)
	ctx := context.Background()
	fundTreasury(t, tv, types.Tokens(100))
	addCategory(t, tv, "welcome", types.Tokens(100))

	if err := tv.v.Pause(ctx, ownerPrincipal); err != nil {
		t.Fatal(err)
	}

	if _, err := tv.v.Reallocate(ctx, allocatorPrincipal, "bob", types.Tokens(1), "welcome", ""); !errors.Is(err, vault.ErrPaused) {
		t.Errorf("reallocate while paused: got %v, want ErrPaused", err)
	}
	if _, err := tv.v.WithdrawForOperations(ctx, ownerPrincipal, "ops", types.Tokens(1), "infra"); !errors.Is(err, vault.ErrPaused) {
		t.Errorf("withdraw while paused: got %v, want ErrPaused", err)
	}

	// Inbound keeps flowing while paused.
	fundTreasury(t, tv, types.Tokens(5))

	if err := tv.v.Unpause(ctx, ownerPrincipal); err != nil {
		t.Fatal(err)
	}
	if _, err := tv.v.Reallocate(ctx, allocatorPrincipal, "bob", types.Tokens(1), "welcome", ""); err != nil {
		t.Fatal(err)
	}
}

func TestEmergencyStopIndependentOfPause(t *testing.T) {
	tv := newTestVault(t)
	ctx := context.Background()
	fundTreasury(t, tv, types.Tokens(100))
	addCategory(t, tv, "welcome", types.Tokens(100))

	if err := tv.v.Pause(ctx, ownerPrincipal); err != nil {
		t.Fatal(err)
	}
	if err := tv.v.SetEmergencyStop(ctx, ownerPrincipal, true); err != nil {
		t.Fatal(err)
	}

	// Lifting the pause is not enough while the stop is set.
	if err := tv.v.Unpause(ctx, ownerPrincipal); err != nil {
		t.Fatal(err)
	}
	if _, err := tv.v.Reallocate(ctx, allocatorPrincipal, "bob", types.Tokens(1), "welcome", ""); !errors.Is(err, vault.ErrEmergencyStopped) {
		t.Errorf("got %v, want ErrEmergencyStopped", err)
	}

	if err := tv.v.SetEmergencyStop(ctx, ownerPrincipal, false); err != nil {
		t.Fatal(err)
	}
	if _, err := tv.v.Reallocate(ctx, allocatorPrincipal, "bob", types.Tokens(1), "welcome", ""); err != nil {
		t.Fatal(err)
	}
}

func TestWithdrawForOperations(t *testing.T) {
	tv := newTestVault(t)
	ctx := context.Background()
	fundTreasury(t, tv, types.Tokens(100))

	if _, err := tv.v.WithdrawForOperations(ctx, allocatorPrincipal, "ops", types.Tokens(10), "infra"); !errors.Is(err, vault.ErrNotOwner) {
		t.Fatalf("non-owner: got %v, want ErrNotOwner", err)
	}

	w, err := tv.v.WithdrawForOperations(ctx, ownerPrincipal, "ops", types.Tokens(10), "infra")
	if err != nil {
		t.Fatal(err)
	}
	if w.Purpose != "infra" {
		t.Errorf("purpose: got %q, want %q", w.Purpose, "infra")
	}
	if got := tv.balance(t, "ops"); got != types.Tokens(10) {
		t.Errorf("destination balance: got %s, want %s", got, types.Tokens(10))
	}

	state, err := tv.v.TreasuryState(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if state.TotalWithdrawn != types.Tokens(10) {
		t.Errorf("total withdrawn: got %s, want %s", state.TotalWithdrawn, types.Tokens(10))
	}

	// Withdrawals bypass category quotas but never the balance.
	if _, err := tv.v.WithdrawForOperations(ctx, ownerPrincipal, "ops", types.Tokens(91), "infra"); !errors.Is(err, vault.ErrInsufficientTreasury) {
		t.Errorf("over balance: got %v, want ErrInsufficientTreasury", err)
	}

	records, err := tv.v.Withdrawals(ctx, treasury.RecordOpts{})
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 1 {
		t.Errorf("withdrawal records: got %d, want 1", len(records))
	}
}

func TestUpdateCategoryLimitMidPeriod(t *testing.T) {
	tv := newTestVault(t)
	ctx := context.Background()
	fundTreasury(t, tv, types.Tokens(2000))
	addCategory(t, tv, "welcome", types.Tokens(1000))

	if _, err := tv.v.Reallocate(ctx, allocatorPrincipal, "bob", types.Tokens(600), "welcome", ""); err != nil {
		t.Fatal(err)
	}

	// Reducing the limit below what is already committed does not claw
	// anything back; it only blocks further allocation this period.
	if err := tv.v.UpdateCategoryLimit(ctx, ownerPrincipal, "welcome", types.Tokens(500)); err != nil {
		t.Fatal(err)
	}

	if _, err := tv.v.Reallocate(ctx, allocatorPrincipal, "bob", types.Amount(1), "welcome", ""); !errors.Is(err, vault.ErrQuotaExceeded) {
		t.Errorf("got %v, want ErrQuotaExceeded", err)
	}

	remaining, err := tv.v.QuotaRemaining(ctx, "welcome")
	if err != nil {
		t.Fatal(err)
	}
	if !remaining.IsZero() {
		t.Errorf("quota remaining: got %s, want 0", remaining)
	}

	// Next period starts fresh under the new limit.
	tv.clock.Advance(period + time.Hour)
	if _, err := tv.v.Reallocate(ctx, allocatorPrincipal, "bob", types.Tokens(500), "welcome", ""); err != nil {
		t.Fatal(err)
	}
}

func TestResetPeriodClearsQuotaUsage(t *testing.T) {
	tv := newTestVault(t)
	ctx := context.Background()
	fundTreasury(t, tv, types.Tokens(300))
	addCategory(t, tv, "welcome", types.Tokens(100))

	if _, err := tv.v.Reallocate(ctx, allocatorPrincipal, "bob", types.Tokens(100), "welcome", ""); err != nil {
		t.Fatal(err)
	}
	if _, err := tv.v.Reallocate(ctx, allocatorPrincipal, "bob", types.Tokens(1), "welcome", ""); !errors.Is(err, vault.ErrQuotaExceeded) {
		t.Fatalf("got %v, want ErrQuotaExceeded", err)
	}

	if err := tv.v.ResetPeriod(ctx, ownerPrincipal); err != nil {
		t.Fatal(err)
	}

	if _, err := tv.v.Reallocate(ctx, allocatorPrincipal, "bob", types.Tokens(100), "welcome", ""); err != nil {
		t.Fatal(err)
	}

	state, err := tv.v.TreasuryState(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if state.PeriodIndex != 1 {
		t.Errorf("period index: got %d, want 1", state.PeriodIndex)
	}
}

func TestDuplicateCategoryRejected(t *testing.T) {
	tv := newTestVault(t)
	ctx := context.Background()
	addCategory(t, tv, "welcome", types.Tokens(100))

	_, err := tv.v.AddCategory(ctx, ownerPrincipal, "welcome", types.Tokens(200))
	if !errors.Is(err, vault.ErrDuplicateCategory) {
		t.Fatalf("got %v, want ErrDuplicateCategory", err)
	}
}

func TestSetPeriodDurationValidation(t *testing.T) {
	tv := newTestVault(t)
	ctx := context.Background()

	if err := tv.v.SetPeriodDuration(ctx, ownerPrincipal, 0); !errors.Is(err, vault.ErrInvalidPeriod) {
		t.Errorf("zero duration: got %v, want ErrInvalidPeriod", err)
	}
	if err := tv.v.SetPeriodDuration(ctx, ownerPrincipal, -time.Hour); !errors.Is(err, vault.ErrInvalidPeriod) {
		t.Errorf("negative duration: got %v, want ErrInvalidPeriod", err)
	}
	if err := tv.v.SetPeriodDuration(ctx, ownerPrincipal, time.Hour); err != nil {
		t.Fatal(err)
	}

	state, err := tv.v.TreasuryState(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if state.PeriodDuration != time.Hour {
		t.Errorf("period duration: got %s, want 1h", state.PeriodDuration)
	}
}

// flakyAsset delegates to a real bank but fails transfers to one account.
type flakyAsset struct {
	*token.Bank
	failTo string
}

func (f *flakyAsset) Transfer(ctx context.Context, from, to string, amount types.Amount) error {
	if to == f.failTo {
		return errors.New("destination rejected")
	}
	return f.Bank.Transfer(ctx, from, to, amount)
}

func TestReallocateTransferFailureRollsBack(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))
	bank := token.NewBank()
	asset := &flakyAsset{Bank: bank, failTo: "blackhole"}

	v := vault.New(memory.New(), asset,
		vault.WithOwner(ownerPrincipal),
		vault.WithClock(clock.Now),
	)
	if err := v.Start(ctx); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = v.Stop() })

	if err := v.AuthorizeAllocator(ctx, ownerPrincipal, allocatorPrincipal); err != nil {
		t.Fatal(err)
	}
	if _, err := v.AddCategory(ctx, ownerPrincipal, "welcome", types.Tokens(100)); err != nil {
		t.Fatal(err)
	}

	bank.Mint(vault.DefaultEscrowAccount, types.Tokens(50))
	if err := v.ReceiveConsumed(ctx, vault.DefaultEscrowAccount, types.Tokens(50)); err != nil {
		t.Fatal(err)
	}

	_, err := v.Reallocate(ctx, allocatorPrincipal, "blackhole", types.Tokens(10), "welcome", "")
	if !errors.Is(err, vault.ErrTransferFailed) {
		t.Fatalf("got %v, want ErrTransferFailed", err)
	}

	// All bookkeeping rolled back: balance, category total, quota.
	state, err := v.TreasuryState(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if state.TotalReallocated != types.Zero {
		t.Errorf("total reallocated: got %s, want 0", state.TotalReallocated)
	}

	cat, err := v.Category(ctx, "welcome")
	if err != nil {
		t.Fatal(err)
	}
	if cat.TotalAllocated != types.Zero {
		t.Errorf("category total: got %s, want 0", cat.TotalAllocated)
	}

	remaining, err := v.QuotaRemaining(ctx, "welcome")
	if err != nil {
		t.Fatal(err)
	}
	if remaining != types.Tokens(100) {
		t.Errorf("quota remaining: got %s, want %s", remaining, types.Tokens(100))
	}

	// The same allocation to a working destination succeeds afterwards.
	if _, err := v.Reallocate(ctx, allocatorPrincipal, "bob", types.Tokens(10), "welcome", ""); err != nil {
		t.Fatal(err)
	}
}
