package vault

import (
	"context"

	"github.com/xraph/vault/authority"
	"github.com/xraph/vault/id"
	"github.com/xraph/vault/types"
	"github.com/xraph/vault/usage"
)

// ──────────────────────────────────────────────────
// Authority Management
// ──────────────────────────────────────────────────

// AuthorizeBackend grants the metering role to a principal. Owner-only.
func (v *Vault) AuthorizeBackend(ctx context.Context, caller, principal string) error {
	return v.grant(ctx, caller, authority.RoleBackend, principal)
}

// RevokeBackend removes the metering role from a principal. Owner-only.
func (v *Vault) RevokeBackend(ctx context.Context, caller, principal string) error {
	return v.revoke(ctx, caller, authority.RoleBackend, principal)
}

// AuthorizeAllocator grants the allocator role to a principal. Owner-only.
func (v *Vault) AuthorizeAllocator(ctx context.Context, caller, principal string) error {
	return v.grant(ctx, caller, authority.RoleAllocator, principal)
}

// RevokeAllocator removes the allocator role from a principal. Owner-only.
func (v *Vault) RevokeAllocator(ctx context.Context, caller, principal string) error {
	return v.revoke(ctx, caller, authority.RoleAllocator, principal)
}

// IsBackend reports whether a principal holds the metering role.
func (v *Vault) IsBackend(ctx context.Context, principal string) (bool, error) {
	return v.store.HasAuthority(ctx, authority.RoleBackend, principal)
}

// IsAllocator reports whether a principal holds the allocator role.
func (v *Vault) IsAllocator(ctx context.Context, principal string) (bool, error) {
	return v.store.HasAuthority(ctx, authority.RoleAllocator, principal)
}

// Backends lists principals holding the metering role.
func (v *Vault) Backends(ctx context.Context) ([]*authority.Grant, error) {
	return v.store.ListAuthorities(ctx, authority.RoleBackend)
}

// Allocators lists principals holding the allocator role.
func (v *Vault) Allocators(ctx context.Context) ([]*authority.Grant, error) {
	return v.store.ListAuthorities(ctx, authority.RoleAllocator)
}

func (v *Vault) grant(ctx context.Context, caller string, role authority.Role, principal string) error {
	if err := v.requireOwner(ctx, caller); err != nil {
		return err
	}
	if principal == "" {
		return ErrEmptyIdentifier
	}

	g := &authority.Grant{
		Entity:    types.NewEntityAt(v.now()),
		ID:        id.NewAuthorityID(),
		Role:      role,
		Principal: principal,
	}
	if err := v.store.GrantAuthority(ctx, g); err != nil {
		return err
	}

	v.logger.Info("authority granted", "role", role, "principal", principal)
	v.plugins.EmitAuthorityGranted(ctx, string(role), principal)
	return nil
}

func (v *Vault) revoke(ctx context.Context, caller string, role authority.Role, principal string) error {
	if err := v.requireOwner(ctx, caller); err != nil {
		return err
	}
	if principal == "" {
		return ErrEmptyIdentifier
	}

	if err := v.store.RevokeAuthority(ctx, role, principal); err != nil {
		return err
	}

	v.logger.Info("authority revoked", "role", role, "principal", principal)
	v.plugins.EmitAuthorityRevoked(ctx, string(role), principal)
	return nil
}

// ──────────────────────────────────────────────────
// Escrow Configuration
// ──────────────────────────────────────────────────

// SetMinimumLock changes the minimum lock amount. Owner-only. Applies to
// future Lock calls only; existing locks are unaffected.
func (v *Vault) SetMinimumLock(ctx context.Context, caller string, amount types.Amount) error {
	if err := v.requireOwner(ctx, caller); err != nil {
		return err
	}
	if amount.IsNegative() {
		return ErrInvalidAmount
	}

	v.escrowMu.Lock()
	defer v.escrowMu.Unlock()

	settings, err := v.store.GetEscrowSettings(ctx)
	if err != nil {
		return err
	}

	settings.MinimumLock = amount
	settings.Touch()
	return v.store.SaveEscrowSettings(ctx, settings)
}

// Usage queries the consumption event log.
func (v *Vault) Usage(ctx context.Context, opts usage.QueryOpts) ([]*usage.Event, error) {
	return v.store.QueryUsage(ctx, opts)
}
