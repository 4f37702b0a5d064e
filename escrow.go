package vault

import (
	"context"
	"fmt"

	"github.com/xraph/vault/authority"
	"github.com/xraph/vault/escrow"
	"github.com/xraph/vault/id"
	"github.com/xraph/vault/types"
	"github.com/xraph/vault/usage"
)

// ──────────────────────────────────────────────────
// Escrow Ledger
// ──────────────────────────────────────────────────

// Lock escrows tokens for the caller against a non-empty external
// reference. Tokens move from the caller's asset account into escrow
// custody and a new lock is appended at the next dense index for that
// owner. Returns the created lock with its index assigned. If the custody
// transfer fails the appended slot is kept but voided, so a failed Lock
// still consumes an index.
func (v *Vault) Lock(ctx context.Context, caller string, amount types.Amount, externalID string) (*escrow.Lock, error) {
	if caller == "" || externalID == "" {
		return nil, ErrEmptyIdentifier
	}
	if !amount.IsPositive() {
		return nil, ErrInvalidAmount
	}

	settings, err := v.store.GetEscrowSettings(ctx)
	if err != nil {
		return nil, err
	}
	if amount.LessThan(settings.MinimumLock) {
		return nil, ErrBelowMinimumLock
	}

	v.escrowMu.Lock()
	defer v.escrowMu.Unlock()

	lock := &escrow.Lock{
		Entity:     types.NewEntityAt(v.now()),
		ID:         id.NewLockID(),
		Owner:      caller,
		Amount:     amount,
		Active:     true,
		ExternalID: externalID,
	}

	if err := v.store.AppendLock(ctx, lock); err != nil {
		return nil, err
	}

	if err := v.asset.Transfer(ctx, caller, v.escrowAccount, amount); err != nil {
		// Compensate: the appended slot stays (indices are dense and
		// never reused) but is closed out with nothing to consume.
		lock.Active = false
		lock.Consumed = lock.Amount
		lock.Touch()
		if uerr := v.store.UpdateLock(ctx, lock); uerr != nil {
			v.logger.Error("failed to void lock after transfer failure",
				"owner", caller,
				"index", lock.Index,
				"error", uerr,
			)
		}
		return nil, fmt.Errorf("%w: %v", ErrTransferFailed, err)
	}

	v.logger.Info("tokens locked",
		"owner", caller,
		"index", lock.Index,
		"amount", amount,
	)

	v.plugins.EmitLocked(ctx, lock)
	return lock, nil
}

// Consume debits a lock on behalf of its owner. Only principals holding
// the backend (metering) role may call it. The cost is the service unit
// cost times units; the consumed tokens move from escrow custody into the
// treasury in the same operation.
func (v *Vault) Consume(ctx context.Context, caller, owner string, index uint64, serviceKey string, units int64, externalID string) (*usage.Event, error) {
	if err := v.requireRole(ctx, authority.RoleBackend, caller, ErrUnauthorizedCaller); err != nil {
		return nil, err
	}
	if units <= 0 {
		return nil, ErrInvalidAmount
	}

	svc, err := v.store.GetService(ctx, serviceKey)
	if err != nil {
		return nil, err
	}
	if !svc.Active {
		return nil, ErrServiceInactive
	}

	cost, ok := svc.UnitCost.MultiplyChecked(units)
	if !ok {
		return nil, ErrInvalidAmount
	}
	if !cost.IsPositive() {
		return nil, ErrZeroCost
	}

	v.escrowMu.Lock()
	defer v.escrowMu.Unlock()

	lock, err := v.store.GetLock(ctx, owner, index)
	if err != nil {
		return nil, err
	}
	if !lock.Active {
		return nil, ErrLockInactive
	}
	if lock.Remainder().LessThan(cost) {
		return nil, ErrInsufficientLocked
	}

	prevConsumed := lock.Consumed
	prevActive := lock.Active
	prevTotal := svc.TotalConsumed

	lock.Consumed = lock.Consumed.Add(cost)
	if lock.FullyConsumed() {
		lock.Active = false
	}
	lock.Touch()
	if err := v.store.UpdateLock(ctx, lock); err != nil {
		return nil, err
	}

	svc.TotalConsumed = svc.TotalConsumed.Add(cost)
	svc.Touch()
	if err := v.store.UpdateService(ctx, svc); err != nil {
		v.revertLock(ctx, lock, prevConsumed, prevActive)
		return nil, err
	}

	if err := v.receiveConsumed(ctx, cost); err != nil {
		svc.TotalConsumed = prevTotal
		if uerr := v.store.UpdateService(ctx, svc); uerr != nil {
			v.logger.Error("failed to revert service total", "service", serviceKey, "error", uerr)
		}
		v.revertLock(ctx, lock, prevConsumed, prevActive)
		return nil, err
	}

	event := &usage.Event{
		ID:         id.NewUsageID(),
		Owner:      owner,
		LockIndex:  index,
		ServiceKey: serviceKey,
		Units:      units,
		Cost:       cost,
		Backend:    caller,
		ExternalID: externalID,
		Timestamp:  v.now(),
	}
	if err := v.store.AppendUsage(ctx, event); err != nil {
		// The debit and treasury credit already committed; losing the
		// log entry is worse than double-reporting, so surface it loud.
		v.logger.Error("failed to append usage event",
			"owner", owner,
			"index", index,
			"service", serviceKey,
			"error", err,
		)
		return nil, err
	}

	v.logger.Debug("consumption recorded",
		"owner", owner,
		"index", index,
		"service", serviceKey,
		"units", units,
		"cost", cost,
	)

	v.plugins.EmitConsumed(ctx, event)
	return event, nil
}

// Unlock closes the caller's lock at index and refunds the unconsumed
// remainder. A lock can be unlocked at most once; terminal locks are
// rejected with ErrNothingToUnlock.
func (v *Vault) Unlock(ctx context.Context, caller string, index uint64) (types.Amount, error) {
	if caller == "" {
		return types.Zero, ErrEmptyIdentifier
	}

	v.escrowMu.Lock()
	defer v.escrowMu.Unlock()

	lock, err := v.store.GetLock(ctx, caller, index)
	if err != nil {
		return types.Zero, err
	}
	if !lock.Active {
		return types.Zero, ErrNothingToUnlock
	}

	refund := lock.Remainder()

	lock.Active = false
	lock.Touch()
	if err := v.store.UpdateLock(ctx, lock); err != nil {
		return types.Zero, err
	}

	if refund.IsPositive() {
		if err := v.asset.Transfer(ctx, v.escrowAccount, caller, refund); err != nil {
			lock.Active = true
			lock.Touch()
			if uerr := v.store.UpdateLock(ctx, lock); uerr != nil {
				v.logger.Error("failed to reactivate lock after refund failure",
					"owner", caller,
					"index", index,
					"error", uerr,
				)
			}
			return types.Zero, fmt.Errorf("%w: %v", ErrTransferFailed, err)
		}
	}

	v.logger.Info("lock unlocked",
		"owner", caller,
		"index", index,
		"refund", refund,
	)

	v.plugins.EmitUnlocked(ctx, lock, refund.Int64())
	return refund, nil
}

// GetLock retrieves one lock by owner and index.
func (v *Vault) GetLock(ctx context.Context, owner string, index uint64) (*escrow.Lock, error) {
	return v.store.GetLock(ctx, owner, index)
}

// Locks lists an owner's locks.
func (v *Vault) Locks(ctx context.Context, owner string, opts escrow.ListOpts) ([]*escrow.Lock, error) {
	return v.store.ListLocks(ctx, owner, opts)
}

// LockedBalance returns the sum of unconsumed remainders across an
// owner's active locks.
func (v *Vault) LockedBalance(ctx context.Context, owner string) (types.Amount, error) {
	locks, err := v.store.ListLocks(ctx, owner, escrow.ListOpts{ActiveOnly: true})
	if err != nil {
		return types.Zero, err
	}

	total := types.Zero
	for _, l := range locks {
		total = total.Add(l.Remainder())
	}
	return total, nil
}

// MinimumLock returns the current minimum lock amount.
func (v *Vault) MinimumLock(ctx context.Context) (types.Amount, error) {
	settings, err := v.store.GetEscrowSettings(ctx)
	if err != nil {
		return types.Zero, err
	}
	return settings.MinimumLock, nil
}

// revertLock restores a lock's consumed/active fields after a downstream
// step of Consume failed.
func (v *Vault) revertLock(ctx context.Context, lock *escrow.Lock, consumed types.Amount, active bool) {
	lock.Consumed = consumed
	lock.Active = active
	lock.Touch()
	if err := v.store.UpdateLock(ctx, lock); err != nil {
		v.logger.Error("failed to revert lock",
			"owner", lock.Owner,
			"index", lock.Index,
			"error", err,
		)
	}
}
