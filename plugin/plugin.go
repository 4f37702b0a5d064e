// Package plugin provides an extensible plugin system for Vault.
// Plugins can hook into vault lifecycle events to extend functionality.
package plugin

import "context"

// Plugin is the base interface that all plugins must implement.
type Plugin interface {
	Name() string
}

// ──────────────────────────────────────────────────
// Lifecycle hooks
// ──────────────────────────────────────────────────

// OnInit is called when the plugin is initialized.
type OnInit interface {
	Plugin
	OnInit(ctx context.Context, v interface{}) error
}

// OnShutdown is called when the plugin is shutting down.
type OnShutdown interface {
	Plugin
	OnShutdown(ctx context.Context) error
}

// ──────────────────────────────────────────────────
// Escrow hooks
// ──────────────────────────────────────────────────

// OnLocked is called when a user escrows a new lock.
type OnLocked interface {
	Plugin
	OnLocked(ctx context.Context, lock interface{}) error
}

// OnConsumed is called when the metering authority debits a lock.
type OnConsumed interface {
	Plugin
	OnConsumed(ctx context.Context, event interface{}) error
}

// OnUnlocked is called when a lock's remainder is refunded to its owner.
type OnUnlocked interface {
	Plugin
	OnUnlocked(ctx context.Context, lock interface{}, refund int64) error
}

// ──────────────────────────────────────────────────
// Treasury hooks
// ──────────────────────────────────────────────────

// OnTreasuryReceived is called when consumed tokens reach the treasury.
type OnTreasuryReceived interface {
	Plugin
	OnTreasuryReceived(ctx context.Context, amount int64) error
}

// OnReallocated is called when the treasury pays out under a category quota.
type OnReallocated interface {
	Plugin
	OnReallocated(ctx context.Context, allocation interface{}) error
}

// OnWithdrawn is called when the treasury pays out operationally.
type OnWithdrawn interface {
	Plugin
	OnWithdrawn(ctx context.Context, withdrawal interface{}) error
}

// OnQuotaExceeded is called when a reallocation is denied by a category quota.
type OnQuotaExceeded interface {
	Plugin
	OnQuotaExceeded(ctx context.Context, categoryKey string, requested, allocated, limit int64) error
}

// OnPeriodRolled is called when the period index advances, lazily or by
// manual reset.
type OnPeriodRolled interface {
	Plugin
	OnPeriodRolled(ctx context.Context, oldPeriod, newPeriod uint64) error
}

// ──────────────────────────────────────────────────
// Administrative hooks
// ──────────────────────────────────────────────────

// OnServiceAdded is called when a service type is registered.
type OnServiceAdded interface {
	Plugin
	OnServiceAdded(ctx context.Context, service interface{}) error
}

// OnServiceUpdated is called when a service's cost or active flag changes.
type OnServiceUpdated interface {
	Plugin
	OnServiceUpdated(ctx context.Context, service interface{}) error
}

// OnCategoryAdded is called when a treasury category is registered.
type OnCategoryAdded interface {
	Plugin
	OnCategoryAdded(ctx context.Context, category interface{}) error
}

// OnCategoryUpdated is called when a category's limit or active flag changes.
type OnCategoryUpdated interface {
	Plugin
	OnCategoryUpdated(ctx context.Context, category interface{}) error
}

// OnAuthorityGranted is called when a principal is granted a role.
type OnAuthorityGranted interface {
	Plugin
	OnAuthorityGranted(ctx context.Context, role, principal string) error
}

// OnAuthorityRevoked is called when a principal loses a role.
type OnAuthorityRevoked interface {
	Plugin
	OnAuthorityRevoked(ctx context.Context, role, principal string) error
}
