// Package observability provides a metrics extension for Vault that records
// lifecycle event counts via go-utils MetricFactory.
package observability

import (
	"context"

	"github.com/xraph/vault/plugin"
)

// Ensure MetricsExtension implements required interfaces.
var (
	_ plugin.Plugin             = (*MetricsExtension)(nil)
	_ plugin.OnInit             = (*MetricsExtension)(nil)
	_ plugin.OnLocked           = (*MetricsExtension)(nil)
	_ plugin.OnConsumed         = (*MetricsExtension)(nil)
	_ plugin.OnUnlocked         = (*MetricsExtension)(nil)
	_ plugin.OnTreasuryReceived = (*MetricsExtension)(nil)
	_ plugin.OnReallocated      = (*MetricsExtension)(nil)
	_ plugin.OnWithdrawn        = (*MetricsExtension)(nil)
	_ plugin.OnQuotaExceeded    = (*MetricsExtension)(nil)
	_ plugin.OnPeriodRolled     = (*MetricsExtension)(nil)
	_ plugin.OnServiceAdded     = (*MetricsExtension)(nil)
	_ plugin.OnServiceUpdated   = (*MetricsExtension)(nil)
	_ plugin.OnCategoryAdded    = (*MetricsExtension)(nil)
	_ plugin.OnCategoryUpdated  = (*MetricsExtension)(nil)
	_ plugin.OnAuthorityGranted = (*MetricsExtension)(nil)
	_ plugin.OnAuthorityRevoked = (*MetricsExtension)(nil)
)

// Counter interface for metric counters.
type Counter interface {
	Inc()
	Add(float64)
}

// Histogram interface for metric histograms.
type Histogram interface {
	Observe(float64)
}

// MetricFactory creates metrics.
type MetricFactory interface {
	Counter(name string) Counter
	Histogram(name string) Histogram
}

// MetricsExtension records system-wide lifecycle metrics.
// Register it as a Vault plugin to automatically track token economy metrics.
type MetricsExtension struct {
	factory MetricFactory

	// Escrow metrics
	LocksCreated Counter
	LockVolume   Histogram
	Consumptions Counter
	Unlocks      Counter
	RefundVolume Histogram

	// Treasury metrics
	TreasuryReceived Counter
	TreasuryInflow   Histogram
	Reallocations    Counter
	Withdrawals      Counter
	QuotaDenials     Counter
	PeriodRolls      Counter

	// Catalog metrics
	ServicesAdded   Counter
	ServiceUpdates  Counter
	CategoriesAdded Counter
	CategoryUpdates Counter

	// Authority metrics
	AuthorityGrants  Counter
	AuthorityRevokes Counter

	// Error metrics
	StoreErrors  Counter
	PluginErrors Counter
}

// NewMetricsExtension creates a MetricsExtension with the provided MetricFactory.
// Use app.Metrics() in forge extensions.
func NewMetricsExtension(factory MetricFactory) *MetricsExtension {
	return &MetricsExtension{
		factory: factory,

		// Escrow metrics
		LocksCreated: factory.Counter("vault.lock.created"),
		LockVolume:   factory.Histogram("vault.lock.amount"),
		Consumptions: factory.Counter("vault.lock.consumed"),
		Unlocks:      factory.Counter("vault.lock.unlocked"),
		RefundVolume: factory.Histogram("vault.unlock.refund_amount"),

		// Treasury metrics
		TreasuryReceived: factory.Counter("vault.treasury.received"),
		TreasuryInflow:   factory.Histogram("vault.treasury.inflow_amount"),
		Reallocations:    factory.Counter("vault.treasury.reallocated"),
		Withdrawals:      factory.Counter("vault.treasury.withdrawn"),
		QuotaDenials:     factory.Counter("vault.quota.denied"),
		PeriodRolls:      factory.Counter("vault.period.rolled"),

		// Catalog metrics
		ServicesAdded:   factory.Counter("vault.service.added"),
		ServiceUpdates:  factory.Counter("vault.service.updated"),
		CategoriesAdded: factory.Counter("vault.category.added"),
		CategoryUpdates: factory.Counter("vault.category.updated"),

		// Authority metrics
		AuthorityGrants:  factory.Counter("vault.authority.granted"),
		AuthorityRevokes: factory.Counter("vault.authority.revoked"),

		// Error metrics
		StoreErrors:  factory.Counter("vault.store.errors"),
		PluginErrors: factory.Counter("vault.plugin.errors"),
	}
}

// Name implements plugin.Plugin.
func (m *MetricsExtension) Name() string { return "observability-metrics" }

// OnInit implements plugin.OnInit.
func (m *MetricsExtension) OnInit(_ context.Context, _ interface{}) error {
	// No initialization needed
	return nil
}

// ──────────────────────────────────────────────────
// Escrow lifecycle hooks
// ──────────────────────────────────────────────────

// OnLocked implements plugin.OnLocked.
func (m *MetricsExtension) OnLocked(_ context.Context, _ interface{}) error {
	m.LocksCreated.Inc()
	return nil
}

// OnConsumed implements plugin.OnConsumed.
func (m *MetricsExtension) OnConsumed(_ context.Context, _ interface{}) error {
	m.Consumptions.Inc()
	return nil
}

// OnUnlocked implements plugin.OnUnlocked.
func (m *MetricsExtension) OnUnlocked(_ context.Context, _ interface{}, refund int64) error {
	m.Unlocks.Inc()
	m.RefundVolume.Observe(float64(refund))
	return nil
}

// ──────────────────────────────────────────────────
// Treasury lifecycle hooks
// ──────────────────────────────────────────────────

// OnTreasuryReceived implements plugin.OnTreasuryReceived.
func (m *MetricsExtension) OnTreasuryReceived(_ context.Context, amount int64) error {
	m.TreasuryReceived.Inc()
	m.TreasuryInflow.Observe(float64(amount))
	return nil
}

// OnReallocated implements plugin.OnReallocated.
func (m *MetricsExtension) OnReallocated(_ context.Context, _ interface{}) error {
	m.Reallocations.Inc()
	return nil
}

// OnWithdrawn implements plugin.OnWithdrawn.
func (m *MetricsExtension) OnWithdrawn(_ context.Context, _ interface{}) error {
	m.Withdrawals.Inc()
	return nil
}

// OnQuotaExceeded implements plugin.OnQuotaExceeded.
func (m *MetricsExtension) OnQuotaExceeded(_ context.Context, _ string, _, _, _ int64) error {
	m.QuotaDenials.Inc()
	return nil
}

// OnPeriodRolled implements plugin.OnPeriodRolled.
func (m *MetricsExtension) OnPeriodRolled(_ context.Context, _, _ uint64) error {
	m.PeriodRolls.Inc()
	return nil
}

// ──────────────────────────────────────────────────
// Administrative hooks
// ──────────────────────────────────────────────────

// OnServiceAdded implements plugin.OnServiceAdded.
func (m *MetricsExtension) OnServiceAdded(_ context.Context, _ interface{}) error {
	m.ServicesAdded.Inc()
	return nil
}

// OnServiceUpdated implements plugin.OnServiceUpdated.
func (m *MetricsExtension) OnServiceUpdated(_ context.Context, _ interface{}) error {
	m.ServiceUpdates.Inc()
	return nil
}

// OnCategoryAdded implements plugin.OnCategoryAdded.
func (m *MetricsExtension) OnCategoryAdded(_ context.Context, _ interface{}) error {
	m.CategoriesAdded.Inc()
	return nil
}

// OnCategoryUpdated implements plugin.OnCategoryUpdated.
func (m *MetricsExtension) OnCategoryUpdated(_ context.Context, _ interface{}) error {
	m.CategoryUpdates.Inc()
	return nil
}

// OnAuthorityGranted implements plugin.OnAuthorityGranted.
func (m *MetricsExtension) OnAuthorityGranted(_ context.Context, _, _ string) error {
	m.AuthorityGrants.Inc()
	return nil
}

// OnAuthorityRevoked implements plugin.OnAuthorityRevoked.
func (m *MetricsExtension) OnAuthorityRevoked(_ context.Context, _, _ string) error {
	m.AuthorityRevokes.Inc()
	return nil
}
