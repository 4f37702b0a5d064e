package vault

import (
	"context"
	"fmt"
	"time"

	"github.com/xraph/vault/authority"
	"github.com/xraph/vault/id"
	"github.com/xraph/vault/treasury"
	"github.com/xraph/vault/types"
)

// ──────────────────────────────────────────────────
// Treasury Allocator
// ──────────────────────────────────────────────────

// ReceiveConsumed credits the treasury with consumed tokens arriving from
// the registered escrow source. The caller must be the registered source.
// This inbound path is never gated by pause or emergency stop.
//
// The Consume path credits the treasury internally; this method exists for
// external escrow deployments registered via SetEscrowSource.
func (v *Vault) ReceiveConsumed(ctx context.Context, caller string, amount types.Amount) error {
	if !amount.IsPositive() {
		return ErrInvalidAmount
	}

	v.treasuryMu.Lock()
	defer v.treasuryMu.Unlock()

	state, err := v.store.GetTreasuryState(ctx)
	if err != nil {
		return err
	}
	if caller == "" || caller != state.EscrowSource {
		return ErrAuthorityMismatch
	}

	prevReceived := state.TotalReceived
	state.TotalReceived = state.TotalReceived.Add(amount)
	state.Touch()
	if err := v.store.SaveTreasuryState(ctx, state); err != nil {
		return err
	}

	if err := v.asset.Transfer(ctx, caller, v.treasuryAccount, amount); err != nil {
		state.TotalReceived = prevReceived
		state.Touch()
		if serr := v.store.SaveTreasuryState(ctx, state); serr != nil {
			v.logger.Error("failed to revert treasury receipt", "error", serr)
		}
		return fmt.Errorf("%w: %v", ErrTransferFailed, err)
	}

	v.plugins.EmitTreasuryReceived(ctx, amount.Int64())
	return nil
}

// receiveConsumed is the internal inbound path used by Consume: the tokens
// move from escrow custody to treasury custody and the receipt counter
// advances. Never gated.
func (v *Vault) receiveConsumed(ctx context.Context, amount types.Amount) error {
	v.treasuryMu.Lock()
	defer v.treasuryMu.Unlock()

	state, err := v.store.GetTreasuryState(ctx)
	if err != nil {
		return err
	}

	prevReceived := state.TotalReceived
	state.TotalReceived = state.TotalReceived.Add(amount)
	state.Touch()
	if err := v.store.SaveTreasuryState(ctx, state); err != nil {
		return err
	}

	if err := v.asset.Transfer(ctx, v.escrowAccount, v.treasuryAccount, amount); err != nil {
		state.TotalReceived = prevReceived
		state.Touch()
		if serr := v.store.SaveTreasuryState(ctx, state); serr != nil {
			v.logger.Error("failed to revert treasury receipt", "error", serr)
		}
		return fmt.Errorf("%w: %v", ErrTransferFailed, err)
	}

	v.plugins.EmitTreasuryReceived(ctx, amount.Int64())
	return nil
}

// Reallocate pays tokens out of the treasury to a recipient under a
// category quota. Only principals holding the allocator role may call it.
// Period rollover is applied lazily before the quota check.
func (v *Vault) Reallocate(ctx context.Context, caller, recipient string, amount types.Amount, categoryKey, reason string) (*treasury.Allocation, error) {
	if err := v.requireRole(ctx, authority.RoleAllocator, caller, ErrUnauthorizedCaller); err != nil {
		return nil, err
	}
	if recipient == "" {
		return nil, ErrEmptyIdentifier
	}
	if !amount.IsPositive() {
		return nil, ErrInvalidAmount
	}

	v.treasuryMu.Lock()
	defer v.treasuryMu.Unlock()

	state, err := v.store.GetTreasuryState(ctx)
	if err != nil {
		return nil, err
	}
	if err := v.checkGates(state); err != nil {
		return nil, err
	}

	if err := v.rollPeriodIfDue(ctx, state); err != nil {
		return nil, err
	}

	cat, err := v.store.GetCategory(ctx, categoryKey)
	if err != nil {
		return nil, err
	}
	if !cat.Active {
		return nil, ErrCategoryInactive
	}

	allocated, err := v.store.PeriodAllocated(ctx, state.PeriodIndex, categoryKey)
	if err != nil {
		return nil, err
	}
	if allocated.Add(amount).GreaterThan(cat.PeriodLimit) {
		v.plugins.EmitQuotaExceeded(ctx, categoryKey, amount.Int64(), allocated.Int64(), cat.PeriodLimit.Int64())
		return nil, ErrQuotaExceeded
	}

	if state.Balance().LessThan(amount) {
		return nil, ErrInsufficientTreasury
	}

	prevReallocated := state.TotalReallocated
	prevCatTotal := cat.TotalAllocated

	state.TotalReallocated = state.TotalReallocated.Add(amount)
	state.Touch()
	if err := v.store.SaveTreasuryState(ctx, state); err != nil {
		return nil, err
	}

	cat.TotalAllocated = cat.TotalAllocated.Add(amount)
	cat.Touch()
	if err := v.store.UpdateCategory(ctx, cat); err != nil {
		v.revertState(ctx, state, func(s *treasury.State) { s.TotalReallocated = prevReallocated })
		return nil, err
	}

	if err := v.store.AddPeriodAllocated(ctx, state.PeriodIndex, categoryKey, amount); err != nil {
		v.revertCategory(ctx, cat, prevCatTotal)
		v.revertState(ctx, state, func(s *treasury.State) { s.TotalReallocated = prevReallocated })
		return nil, err
	}

	if err := v.asset.Transfer(ctx, v.treasuryAccount, recipient, amount); err != nil {
		if aerr := v.store.AddPeriodAllocated(ctx, state.PeriodIndex, categoryKey, amount.Negate()); aerr != nil {
			v.logger.Error("failed to revert period allocation", "category", categoryKey, "error", aerr)
		}
		v.revertCategory(ctx, cat, prevCatTotal)
		v.revertState(ctx, state, func(s *treasury.State) { s.TotalReallocated = prevReallocated })
		return nil, fmt.Errorf("%w: %v", ErrTransferFailed, err)
	}

	alloc := &treasury.Allocation{
		ID:          id.NewAllocationID(),
		Allocator:   caller,
		Recipient:   recipient,
		Amount:      amount,
		CategoryKey: categoryKey,
		PeriodIndex: state.PeriodIndex,
		Reason:      reason,
		Timestamp:   v.now(),
	}
	if err := v.store.AppendAllocation(ctx, alloc); err != nil {
		v.logger.Error("failed to append allocation record",
			"category", categoryKey,
			"recipient", recipient,
			"error", err,
		)
		return nil, err
	}

	v.logger.Info("treasury reallocated",
		"category", categoryKey,
		"recipient", recipient,
		"amount", amount,
		"period", state.PeriodIndex,
	)

	v.plugins.EmitReallocated(ctx, alloc)
	return alloc, nil
}

// WithdrawForOperations pays tokens out of the treasury for operational
// purposes, bypassing category quotas. Owner-only.
func (v *Vault) WithdrawForOperations(ctx context.Context, caller, destination string, amount types.Amount, purpose string) (*treasury.Withdrawal, error) {
	if err := v.requireOwner(ctx, caller); err != nil {
		return nil, err
	}
	if destination == "" {
		return nil, ErrEmptyIdentifier
	}
	if !amount.IsPositive() {
		return nil, ErrInvalidAmount
	}

	v.treasuryMu.Lock()
	defer v.treasuryMu.Unlock()

	state, err := v.store.GetTreasuryState(ctx)
	if err != nil {
		return nil, err
	}
	if err := v.checkGates(state); err != nil {
		return nil, err
	}
	if state.Balance().LessThan(amount) {
		return nil, ErrInsufficientTreasury
	}

	prevWithdrawn := state.TotalWithdrawn
	state.TotalWithdrawn = state.TotalWithdrawn.Add(amount)
	state.Touch()
	if err := v.store.SaveTreasuryState(ctx, state); err != nil {
		return nil, err
	}

	if err := v.asset.Transfer(ctx, v.treasuryAccount, destination, amount); err != nil {
		v.revertState(ctx, state, func(s *treasury.State) { s.TotalWithdrawn = prevWithdrawn })
		return nil, fmt.Errorf("%w: %v", ErrTransferFailed, err)
	}

	w := &treasury.Withdrawal{
		ID:          id.NewWithdrawalID(),
		Owner:       caller,
		Destination: destination,
		Amount:      amount,
		Purpose:     purpose,
		Timestamp:   v.now(),
	}
	if err := v.store.AppendWithdrawal(ctx, w); err != nil {
		v.logger.Error("failed to append withdrawal record",
			"destination", destination,
			"error", err,
		)
		return nil, err
	}

	v.logger.Info("treasury withdrawal",
		"destination", destination,
		"amount", amount,
		"purpose", purpose,
	)

	v.plugins.EmitWithdrawn(ctx, w)
	return w, nil
}

// ──────────────────────────────────────────────────
// Category Management
// ──────────────────────────────────────────────────

// AddCategory registers a new reallocation category. Owner-only.
func (v *Vault) AddCategory(ctx context.Context, caller, key string, periodLimit types.Amount) (*treasury.Category, error) {
	if err := v.requireOwner(ctx, caller); err != nil {
		return nil, err
	}
	if key == "" {
		return nil, ErrEmptyIdentifier
	}
	if periodLimit.IsNegative() {
		return nil, ErrInvalidAmount
	}

	cat := &treasury.Category{
		Entity:      types.NewEntityAt(v.now()),
		ID:          id.NewCategoryID(),
		Key:         key,
		PeriodLimit: periodLimit,
		Active:      true,
	}
	if err := v.store.CreateCategory(ctx, cat); err != nil {
		if IsValidationError(err) {
			return nil, ErrDuplicateCategory
		}
		return nil, err
	}

	v.plugins.EmitCategoryAdded(ctx, cat)
	return cat, nil
}

// UpdateCategoryLimit changes a category's per-period limit. Owner-only.
// Already-committed allocations in the current period are unaffected; the
// new limit bounds future allocations only.
func (v *Vault) UpdateCategoryLimit(ctx context.Context, caller, key string, periodLimit types.Amount) error {
	if err := v.requireOwner(ctx, caller); err != nil {
		return err
	}
	if periodLimit.IsNegative() {
		return ErrInvalidAmount
	}

	v.treasuryMu.Lock()
	defer v.treasuryMu.Unlock()

	cat, err := v.store.GetCategory(ctx, key)
	if err != nil {
		return err
	}

	cat.PeriodLimit = periodLimit
	cat.Touch()
	if err := v.store.UpdateCategory(ctx, cat); err != nil {
		return err
	}

	v.plugins.EmitCategoryUpdated(ctx, cat)
	return nil
}

// SetCategoryActive enables or disables a category. Owner-only.
func (v *Vault) SetCategoryActive(ctx context.Context, caller, key string, active bool) error {
	if err := v.requireOwner(ctx, caller); err != nil {
		return err
	}

	v.treasuryMu.Lock()
	defer v.treasuryMu.Unlock()

	cat, err := v.store.GetCategory(ctx, key)
	if err != nil {
		return err
	}

	cat.Active = active
	cat.Touch()
	if err := v.store.UpdateCategory(ctx, cat); err != nil {
		return err
	}

	v.plugins.EmitCategoryUpdated(ctx, cat)
	return nil
}

// Category retrieves a category by key.
func (v *Vault) Category(ctx context.Context, key string) (*treasury.Category, error) {
	return v.store.GetCategory(ctx, key)
}

// Categories lists registered categories.
func (v *Vault) Categories(ctx context.Context, opts treasury.CategoryListOpts) ([]*treasury.Category, error) {
	return v.store.ListCategories(ctx, opts)
}

// QuotaRemaining returns the unallocated headroom of a category in the
// current period, after applying any due rollover.
func (v *Vault) QuotaRemaining(ctx context.Context, key string) (types.Amount, error) {
	v.treasuryMu.Lock()
	defer v.treasuryMu.Unlock()

	state, err := v.store.GetTreasuryState(ctx)
	if err != nil {
		return types.Zero, err
	}
	if err := v.rollPeriodIfDue(ctx, state); err != nil {
		return types.Zero, err
	}

	cat, err := v.store.GetCategory(ctx, key)
	if err != nil {
		return types.Zero, err
	}

	allocated, err := v.store.PeriodAllocated(ctx, state.PeriodIndex, key)
	if err != nil {
		return types.Zero, err
	}
	return cat.PeriodLimit.Subtract(allocated).Max(types.Zero), nil
}

// ──────────────────────────────────────────────────
// Period and Gating Controls
// ──────────────────────────────────────────────────

// SetPeriodDuration changes the period length. Owner-only. Takes effect
// from the current period onward; an already-overdue rollover under the
// new duration applies on the next quota-gated operation.
func (v *Vault) SetPeriodDuration(ctx context.Context, caller string, d time.Duration) error {
	if err := v.requireOwner(ctx, caller); err != nil {
		return err
	}
	if d <= 0 {
		return ErrInvalidPeriod
	}

	v.treasuryMu.Lock()
	defer v.treasuryMu.Unlock()

	state, err := v.store.GetTreasuryState(ctx)
	if err != nil {
		return err
	}

	state.PeriodDuration = d
	state.Touch()
	return v.store.SaveTreasuryState(ctx, state)
}

// ResetPeriod manually advances the period index and restarts the period
// clock at now. Owner-only. All category quotas reset.
func (v *Vault) ResetPeriod(ctx context.Context, caller string) error {
	if err := v.requireOwner(ctx, caller); err != nil {
		return err
	}

	v.treasuryMu.Lock()
	defer v.treasuryMu.Unlock()

	state, err := v.store.GetTreasuryState(ctx)
	if err != nil {
		return err
	}

	old := state.PeriodIndex
	state.PeriodIndex++
	state.PeriodStart = v.now()
	state.Touch()
	if err := v.store.SaveTreasuryState(ctx, state); err != nil {
		return err
	}

	v.logger.Info("period reset", "old_period", old, "new_period", state.PeriodIndex)
	v.plugins.EmitPeriodRolled(ctx, old, state.PeriodIndex)
	return nil
}

// Pause blocks quota-gated outbound treasury operations. Owner-only.
func (v *Vault) Pause(ctx context.Context, caller string) error {
	return v.setPaused(ctx, caller, true)
}

// Unpause lifts the pause. Owner-only. Emergency stop, if set, still
// blocks outbound operations.
func (v *Vault) Unpause(ctx context.Context, caller string) error {
	return v.setPaused(ctx, caller, false)
}

func (v *Vault) setPaused(ctx context.Context, caller string, paused bool) error {
	if err := v.requireOwner(ctx, caller); err != nil {
		return err
	}

	v.treasuryMu.Lock()
	defer v.treasuryMu.Unlock()

	state, err := v.store.GetTreasuryState(ctx)
	if err != nil {
		return err
	}

	state.Paused = paused
	state.Touch()
	if err := v.store.SaveTreasuryState(ctx, state); err != nil {
		return err
	}

	v.logger.Warn("treasury pause flag changed", "paused", paused)
	return nil
}

// SetEmergencyStop sets or clears the emergency stop flag. Owner-only.
// Independent of pause; either flag blocks outbound operations.
func (v *Vault) SetEmergencyStop(ctx context.Context, caller string, stopped bool) error {
	if err := v.requireOwner(ctx, caller); err != nil {
		return err
	}

	v.treasuryMu.Lock()
	defer v.treasuryMu.Unlock()

	state, err := v.store.GetTreasuryState(ctx)
	if err != nil {
		return err
	}

	state.EmergencyStopped = stopped
	state.Touch()
	if err := v.store.SaveTreasuryState(ctx, state); err != nil {
		return err
	}

	v.logger.Warn("treasury emergency stop flag changed", "stopped", stopped)
	return nil
}

// SetEscrowSource registers the principal allowed to call ReceiveConsumed.
// Owner-only.
func (v *Vault) SetEscrowSource(ctx context.Context, caller, source string) error {
	if err := v.requireOwner(ctx, caller); err != nil {
		return err
	}
	if source == "" {
		return ErrEmptyIdentifier
	}

	v.treasuryMu.Lock()
	defer v.treasuryMu.Unlock()

	state, err := v.store.GetTreasuryState(ctx)
	if err != nil {
		return err
	}

	state.EscrowSource = source
	state.Touch()
	return v.store.SaveTreasuryState(ctx, state)
}

// TreasuryState returns a snapshot of the treasury aggregate.
func (v *Vault) TreasuryState(ctx context.Context) (*treasury.State, error) {
	return v.store.GetTreasuryState(ctx)
}

// Allocations lists reallocation records.
func (v *Vault) Allocations(ctx context.Context, opts treasury.RecordOpts) ([]*treasury.Allocation, error) {
	return v.store.ListAllocations(ctx, opts)
}

// Withdrawals lists operational withdrawal records.
func (v *Vault) Withdrawals(ctx context.Context, opts treasury.RecordOpts) ([]*treasury.Withdrawal, error) {
	return v.store.ListWithdrawals(ctx, opts)
}

// ──────────────────────────────────────────────────
// Helpers
// ──────────────────────────────────────────────────

// checkGates rejects quota-gated outbound operations while paused or
// emergency-stopped. Distinct sentinels so callers can tell which flag
// blocked them; emergency stop wins when both are set.
func (v *Vault) checkGates(state *treasury.State) error {
	if state.EmergencyStopped {
		return ErrEmergencyStopped
	}
	if state.Paused {
		return ErrPaused
	}
	return nil
}

// rollPeriodIfDue advances the period index for every full period that has
// elapsed since PeriodStart, saving the state and emitting a single rolled
// event when anything changed. Caller must hold treasuryMu.
func (v *Vault) rollPeriodIfDue(ctx context.Context, state *treasury.State) error {
	if state.PeriodDuration <= 0 {
		return nil
	}

	elapsed := v.now().Sub(state.PeriodStart)
	if elapsed < state.PeriodDuration {
		return nil
	}

	periods := uint64(elapsed / state.PeriodDuration)
	old := state.PeriodIndex
	state.PeriodIndex += periods
	state.PeriodStart = state.PeriodStart.Add(time.Duration(periods) * state.PeriodDuration)
	state.Touch()
	if err := v.store.SaveTreasuryState(ctx, state); err != nil {
		return err
	}

	v.logger.Info("period rolled",
		"old_period", old,
		"new_period", state.PeriodIndex,
		"periods_elapsed", periods,
	)

	v.plugins.EmitPeriodRolled(ctx, old, state.PeriodIndex)
	return nil
}

// revertState re-applies a single counter rollback after a downstream
// failure.
func (v *Vault) revertState(ctx context.Context, state *treasury.State, undo func(*treasury.State)) {
	undo(state)
	state.Touch()
	if err := v.store.SaveTreasuryState(ctx, state); err != nil {
		v.logger.Error("failed to revert treasury state", "error", err)
	}
}

func (v *Vault) revertCategory(ctx context.Context, cat *treasury.Category, total types.Amount) {
	cat.TotalAllocated = total
	cat.Touch()
	if err := v.store.UpdateCategory(ctx, cat); err != nil {
		v.logger.Error("failed to revert category total", "category", cat.Key, "error", err)
	}
}
