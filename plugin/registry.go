package plugin

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// Registry manages all registered plugins and provides efficient dispatch.
// It uses type-cached discovery so emission never type-switches per call.
type Registry struct {
	mu      sync.RWMutex
	plugins []Plugin
	logger  *slog.Logger
	timeout time.Duration

	// Type-cached plugin lists for efficient dispatch
	onInit             []OnInit
	onShutdown         []OnShutdown
	onLocked           []OnLocked
	onConsumed         []OnConsumed
	onUnlocked         []OnUnlocked
	onTreasuryReceived []OnTreasuryReceived
	onReallocated      []OnReallocated
	onWithdrawn        []OnWithdrawn
	onQuotaExceeded    []OnQuotaExceeded
	onPeriodRolled     []OnPeriodRolled
	onServiceAdded     []OnServiceAdded
	onServiceUpdated   []OnServiceUpdated
	onCategoryAdded    []OnCategoryAdded
	onCategoryUpdated  []OnCategoryUpdated
	onAuthorityGranted []OnAuthorityGranted
	onAuthorityRevoked []OnAuthorityRevoked
}

// NewRegistry creates a new plugin registry.
func NewRegistry() *Registry {
	return &Registry{
		logger:  slog.Default(),
		timeout: 5 * time.Second,
	}
}

// WithLogger sets the logger for the registry.
func (r *Registry) WithLogger(logger *slog.Logger) *Registry {
	r.logger = logger
	return r
}

// Register adds a plugin to the registry and caches its interfaces.
func (r *Registry) Register(p Plugin) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.plugins {
		if existing.Name() == p.Name() {
			return fmt.Errorf("plugin: duplicate registration: %s", p.Name())
		}
	}

	r.plugins = append(r.plugins, p)

	// Type-switch to cache interfaces
	if v, ok := p.(OnInit); ok {
		r.onInit = append(r.onInit, v)
	}
	if v, ok := p.(OnShutdown); ok {
		r.onShutdown = append(r.onShutdown, v)
	}
	if v, ok := p.(OnLocked); ok {
		r.onLocked = append(r.onLocked, v)
	}
	if v, ok := p.(OnConsumed); ok {
		r.onConsumed = append(r.onConsumed, v)
	}
	if v, ok := p.(OnUnlocked); ok {
		r.onUnlocked = append(r.onUnlocked, v)
	}
	if v, ok := p.(OnTreasuryReceived); ok {
		r.onTreasuryReceived = append(r.onTreasuryReceived, v)
	}
	if v, ok := p.(OnReallocated); ok {
		r.onReallocated = append(r.onReallocated, v)
	}
	if v, ok := p.(OnWithdrawn); ok {
		r.onWithdrawn = append(r.onWithdrawn, v)
	}
	if v, ok := p.(OnQuotaExceeded); ok {
		r.onQuotaExceeded = append(r.onQuotaExceeded, v)
	}
	if v, ok := p.(OnPeriodRolled); ok {
		r.onPeriodRolled = append(r.onPeriodRolled, v)
	}
	if v, ok := p.(OnServiceAdded); ok {
		r.onServiceAdded = append(r.onServiceAdded, v)
	}
	if v, ok := p.(OnServiceUpdated); ok {
		r.onServiceUpdated = append(r.onServiceUpdated, v)
	}
	if v, ok := p.(OnCategoryAdded); ok {
		r.onCategoryAdded = append(r.onCategoryAdded, v)
	}
	if v, ok := p.(OnCategoryUpdated); ok {
		r.onCategoryUpdated = append(r.onCategoryUpdated, v)
	}
	if v, ok := p.(OnAuthorityGranted); ok {
		r.onAuthorityGranted = append(r.onAuthorityGranted, v)
	}
	if v, ok := p.(OnAuthorityRevoked); ok {
		r.onAuthorityRevoked = append(r.onAuthorityRevoked, v)
	}

	r.logger.Info("plugin registered", "name", p.Name())

	return nil
}

// Get returns a plugin by name.
func (r *Registry) Get(name string) Plugin {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, p := range r.plugins {
		if p.Name() == name {
			return p
		}
	}
	return nil
}

// List returns all registered plugins.
func (r *Registry) List() []Plugin {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]Plugin, len(r.plugins))
	copy(result, r.plugins)
	return result
}

// Count returns the number of registered plugins.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.plugins)
}

// ──────────────────────────────────────────────────
// Event emission methods
// ──────────────────────────────────────────────────

// EmitInit calls OnInit for all plugins that implement it.
func (r *Registry) EmitInit(ctx context.Context, vault interface{}) {
	r.mu.RLock()
	plugins := r.onInit
	r.mu.RUnlock()

	for _, p := range plugins {
		r.emit(ctx, p.Name(), "OnInit", func() error {
			return p.OnInit(ctx, vault)
		})
	}
}

// EmitShutdown calls OnShutdown for all plugins that implement it.
func (r *Registry) EmitShutdown(ctx context.Context) {
	r.mu.RLock()
	plugins := r.onShutdown
	r.mu.RUnlock()

	for _, p := range plugins {
		r.emit(ctx, p.Name(), "OnShutdown", func() error {
			return p.OnShutdown(ctx)
		})
	}
}

// EmitLocked emits a lock created event.
func (r *Registry) EmitLocked(ctx context.Context, lock interface{}) {
	r.mu.RLock()
	plugins := r.onLocked
	r.mu.RUnlock()

	for _, p := range plugins {
		r.emit(ctx, p.Name(), "OnLocked", func() error {
			return p.OnLocked(ctx, lock)
		})
	}
}

// EmitConsumed emits a consumption event.
func (r *Registry) EmitConsumed(ctx context.Context, event interface{}) {
	r.mu.RLock()
	plugins := r.onConsumed
	r.mu.RUnlock()

	for _, p := range plugins {
		r.emit(ctx, p.Name(), "OnConsumed", func() error {
			return p.OnConsumed(ctx, event)
		})
	}
}

// EmitUnlocked emits a lock unlocked event.
func (r *Registry) EmitUnlocked(ctx context.Context, lock interface{}, refund int64) {
	r.mu.RLock()
	plugins := r.onUnlocked
	r.mu.RUnlock()

	for _, p := range plugins {
		r.emit(ctx, p.Name(), "OnUnlocked", func() error {
			return p.OnUnlocked(ctx, lock, refund)
		})
	}
}

// EmitTreasuryReceived emits a treasury inbound event.
func (r *Registry) EmitTreasuryReceived(ctx context.Context, amount int64) {
	r.mu.RLock()
	plugins := r.onTreasuryReceived
	r.mu.RUnlock()

	for _, p := range plugins {
		r.emit(ctx, p.Name(), "OnTreasuryReceived", func() error {
			return p.OnTreasuryReceived(ctx, amount)
		})
	}
}

// EmitReallocated emits a reallocation event.
func (r *Registry) EmitReallocated(ctx context.Context, allocation interface{}) {
	r.mu.RLock()
	plugins := r.onReallocated
	r.mu.RUnlock()

	for _, p := range plugins {
		r.emit(ctx, p.Name(), "OnReallocated", func() error {
			return p.OnReallocated(ctx, allocation)
		})
	}
}

// EmitWithdrawn emits an operational withdrawal event.
func (r *Registry) EmitWithdrawn(ctx context.Context, withdrawal interface{}) {
	r.mu.RLock()
	plugins := r.onWithdrawn
	r.mu.RUnlock()

	for _, p := range plugins {
		r.emit(ctx, p.Name(), "OnWithdrawn", func() error {
			return p.OnWithdrawn(ctx, withdrawal)
		})
	}
}

// EmitQuotaExceeded emits a quota denial event.
func (r *Registry) EmitQuotaExceeded(ctx context.Context, categoryKey string, requested, allocated, limit int64) {
	r.mu.RLock()
	plugins := r.onQuotaExceeded
	r.mu.RUnlock()

	for _, p := range plugins {
		r.emit(ctx, p.Name(), "OnQuotaExceeded", func() error {
			return p.OnQuotaExceeded(ctx, categoryKey, requested, allocated, limit)
		})
	}
}

// EmitPeriodRolled emits a period rollover event.
func (r *Registry) EmitPeriodRolled(ctx context.Context, oldPeriod, newPeriod uint64) {
	r.mu.RLock()
	plugins := r.onPeriodRolled
	r.mu.RUnlock()

	for _, p := range plugins {
		r.emit(ctx, p.Name(), "OnPeriodRolled", func() error {
			return p.OnPeriodRolled(ctx, oldPeriod, newPeriod)
		})
	}
}

// EmitServiceAdded emits a service registered event.
func (r *Registry) EmitServiceAdded(ctx context.Context, service interface{}) {
	r.mu.RLock()
	plugins := r.onServiceAdded
	r.mu.RUnlock()

	for _, p := range plugins {
		r.emit(ctx, p.Name(), "OnServiceAdded", func() error {
			return p.OnServiceAdded(ctx, service)
		})
	}
}

// EmitServiceUpdated emits a service changed event.
func (r *Registry) EmitServiceUpdated(ctx context.Context, service interface{}) {
	r.mu.RLock()
	plugins := r.onServiceUpdated
	r.mu.RUnlock()

	for _, p := range plugins {
		r.emit(ctx, p.Name(), "OnServiceUpdated", func() error {
			return p.OnServiceUpdated(ctx, service)
		})
	}
}

// EmitCategoryAdded emits a category registered event.
func (r *Registry) EmitCategoryAdded(ctx context.Context, category interface{}) {
	r.mu.RLock()
	plugins := r.onCategoryAdded
	r.mu.RUnlock()

	for _, p := range plugins {
		r.emit(ctx, p.Name(), "OnCategoryAdded", func() error {
			return p.OnCategoryAdded(ctx, category)
		})
	}
}

// EmitCategoryUpdated emits a category changed event.
func (r *Registry) EmitCategoryUpdated(ctx context.Context, category interface{}) {
	r.mu.RLock()
	plugins := r.onCategoryUpdated
	r.mu.RUnlock()

	for _, p := range plugins {
		r.emit(ctx, p.Name(), "OnCategoryUpdated", func() error {
			return p.OnCategoryUpdated(ctx, category)
		})
	}
}

// EmitAuthorityGranted emits an authority grant event.
func (r *Registry) EmitAuthorityGranted(ctx context.Context, role, principal string) {
	r.mu.RLock()
	plugins := r.onAuthorityGranted
	r.mu.RUnlock()

	for _, p := range plugins {
		r.emit(ctx, p.Name(), "OnAuthorityGranted", func() error {
			return p.OnAuthorityGranted(ctx, role, principal)
		})
	}
}

// EmitAuthorityRevoked emits an authority revocation event.
func (r *Registry) EmitAuthorityRevoked(ctx context.Context, role, principal string) {
	r.mu.RLock()
	plugins := r.onAuthorityRevoked
	r.mu.RUnlock()

	for _, p := range plugins {
		r.emit(ctx, p.Name(), "OnAuthorityRevoked", func() error {
			return p.OnAuthorityRevoked(ctx, role, principal)
		})
	}
}

// emit calls one plugin hook with a timeout and logs failures.
// Plugins must never block or fail the engine pipeline.
func (r *Registry) emit(ctx context.Context, pluginName, hook string, fn func() error) {
	if err := r.callWithTimeout(ctx, pluginName, fn); err != nil {
		r.logger.Warn("plugin hook failed",
			"plugin", pluginName,
			"hook", hook,
			"error", err,
		)
	}
}

// callWithTimeout calls a plugin function with a timeout.
func (r *Registry) callWithTimeout(ctx context.Context, pluginName string, fn func() error) error {
	done := make(chan error, 1)

	go func() {
		done <- fn()
	}()

	select {
	case err := <-done:
		return err
	case <-time.After(r.timeout):
		return fmt.Errorf("plugin timeout: %s", pluginName)
	case <-ctx.Done():
		return ctx.Err()
	}
}
