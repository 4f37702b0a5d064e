package vault

import (
	"context"
	"errors"

	"github.com/xraph/vault/catalog"
	"github.com/xraph/vault/id"
	"github.com/xraph/vault/types"
)

// ──────────────────────────────────────────────────
// Service Catalog
// ──────────────────────────────────────────────────

// AddService registers a new metered service type. Owner-only. The key
// must be unique; services are never deleted, only deactivated.
func (v *Vault) AddService(ctx context.Context, caller, key string, unitCost types.Amount) (*catalog.Service, error) {
	if err := v.requireOwner(ctx, caller); err != nil {
		return nil, err
	}
	if key == "" {
		return nil, ErrEmptyIdentifier
	}
	if !unitCost.IsPositive() {
		return nil, ErrInvalidUnitCost
	}

	svc := &catalog.Service{
		Entity:   types.NewEntityAt(v.now()),
		ID:       id.NewServiceID(),
		Key:      key,
		UnitCost: unitCost,
		Active:   true,
	}
	if err := v.store.CreateService(ctx, svc); err != nil {
		if errors.Is(err, ErrAlreadyExists) {
			return nil, ErrDuplicateService
		}
		return nil, err
	}

	v.logger.Info("service added", "key", key, "unit_cost", unitCost)

	v.plugins.EmitServiceAdded(ctx, svc)
	return svc, nil
}

// UpdateServiceCost changes a service's unit cost. Owner-only. Applies to
// future consumption only, never retroactively.
func (v *Vault) UpdateServiceCost(ctx context.Context, caller, key string, unitCost types.Amount) error {
	if err := v.requireOwner(ctx, caller); err != nil {
		return err
	}
	if !unitCost.IsPositive() {
		return ErrInvalidUnitCost
	}

	svc, err := v.store.GetService(ctx, key)
	if err != nil {
		return err
	}

	svc.UnitCost = unitCost
	svc.Touch()
	if err := v.store.UpdateService(ctx, svc); err != nil {
		return err
	}

	v.plugins.EmitServiceUpdated(ctx, svc)
	return nil
}

// SetServiceActive enables or disables a service. Owner-only. Inactive
// services reject new consumption; recorded events are untouched.
func (v *Vault) SetServiceActive(ctx context.Context, caller, key string, active bool) error {
	if err := v.requireOwner(ctx, caller); err != nil {
		return err
	}

	svc, err := v.store.GetService(ctx, key)
	if err != nil {
		return err
	}

	svc.Active = active
	svc.Touch()
	if err := v.store.UpdateService(ctx, svc); err != nil {
		return err
	}

	v.plugins.EmitServiceUpdated(ctx, svc)
	return nil
}

// Service retrieves a service by key.
func (v *Vault) Service(ctx context.Context, key string) (*catalog.Service, error) {
	return v.store.GetService(ctx, key)
}

// Services lists registered services.
func (v *Vault) Services(ctx context.Context, opts catalog.ListOpts) ([]*catalog.Service, error) {
	return v.store.ListServices(ctx, opts)
}
