// Package audithook bridges Vault lifecycle events to an audit trail backend.
//
// It defines a local Recorder interface so the package does not import any
// audit backend directly. Callers inject a RecorderFunc adapter that bridges
// to their backend at wiring time.
package audithook

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/xraph/vault/plugin"
)

// Compile-time interface checks.
var (
	_ plugin.Plugin             = (*Extension)(nil)
	_ plugin.OnLocked           = (*Extension)(nil)
	_ plugin.OnConsumed         = (*Extension)(nil)
	_ plugin.OnUnlocked         = (*Extension)(nil)
	_ plugin.OnTreasuryReceived = (*Extension)(nil)
	_ plugin.OnReallocated      = (*Extension)(nil)
	_ plugin.OnWithdrawn        = (*Extension)(nil)
	_ plugin.OnQuotaExceeded    = (*Extension)(nil)
	_ plugin.OnPeriodRolled     = (*Extension)(nil)
	_ plugin.OnServiceAdded     = (*Extension)(nil)
	_ plugin.OnServiceUpdated   = (*Extension)(nil)
	_ plugin.OnCategoryAdded    = (*Extension)(nil)
	_ plugin.OnCategoryUpdated  = (*Extension)(nil)
	_ plugin.OnAuthorityGranted = (*Extension)(nil)
	_ plugin.OnAuthorityRevoked = (*Extension)(nil)
)

// Recorder is the interface that audit backends must implement.
// It is defined locally so that the audit_hook package does not depend on
// a concrete audit module — callers inject theirs at wiring time.
type Recorder interface {
	Record(ctx context.Context, event *AuditEvent) error
}

// AuditEvent is a local representation of an audit event.
type AuditEvent struct {
	Action     string         `json:"action"`
	Resource   string         `json:"resource"`
	Category   string         `json:"category"`
	ResourceID string         `json:"resource_id,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	Outcome    string         `json:"outcome"`
	Severity   string         `json:"severity"`
	Reason     string         `json:"reason,omitempty"`
}

// RecorderFunc is an adapter to use a plain function as a Recorder.
type RecorderFunc func(ctx context.Context, event *AuditEvent) error

// Record implements Recorder.
func (f RecorderFunc) Record(ctx context.Context, event *AuditEvent) error {
	return f(ctx, event)
}

// Extension bridges Vault lifecycle events to an audit trail backend.
type Extension struct {
	recorder Recorder
	enabled  map[string]bool // nil = all enabled
	logger   *slog.Logger
}

// New creates an Extension that emits audit events through the provided Recorder.
func New(r Recorder, opts ...Option) *Extension {
	e := &Extension{
		recorder: r,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Name implements plugin.Plugin.
func (e *Extension) Name() string { return "audit-hook" }

// ──────────────────────────────────────────────────
// Escrow lifecycle hooks
// ──────────────────────────────────────────────────

// OnLocked implements plugin.OnLocked.
func (e *Extension) OnLocked(ctx context.Context, _ interface{}) error {
	return e.record(ctx, ActionLockCreated, SeverityInfo, OutcomeSuccess,
		ResourceLock, "", CategoryEscrow, nil,
		"event", "lock_created",
	)
}

// OnConsumed implements plugin.OnConsumed.
func (e *Extension) OnConsumed(ctx context.Context, _ interface{}) error {
	return e.record(ctx, ActionLockConsumed, SeverityInfo, OutcomeSuccess,
		ResourceUsage, "", CategoryEscrow, nil,
		"event", "lock_consumed",
	)
}

// OnUnlocked implements plugin.OnUnlocked.
func (e *Extension) OnUnlocked(ctx context.Context, _ interface{}, refund int64) error {
	return e.record(ctx, ActionLockUnlocked, SeverityInfo, OutcomeSuccess,
		ResourceLock, "", CategoryEscrow, nil,
		"event", "lock_unlocked",
		"refund", refund,
	)
}

// ──────────────────────────────────────────────────
// Treasury lifecycle hooks
// ──────────────────────────────────────────────────

// OnTreasuryReceived implements plugin.OnTreasuryReceived.
func (e *Extension) OnTreasuryReceived(ctx context.Context, amount int64) error {
	return e.record(ctx, ActionTreasuryReceived, SeverityInfo, OutcomeSuccess,
		ResourceTreasury, "", CategoryTreasury, nil,
		"amount", amount,
	)
}

// OnReallocated implements plugin.OnReallocated.
func (e *Extension) OnReallocated(ctx context.Context, _ interface{}) error {
	return e.record(ctx, ActionTreasuryReallocated, SeverityInfo, OutcomeSuccess,
		ResourceTreasury, "", CategoryTreasury, nil,
		"event", "treasury_reallocated",
	)
}

// OnWithdrawn implements plugin.OnWithdrawn.
func (e *Extension) OnWithdrawn(ctx context.Context, _ interface{}) error {
	return e.record(ctx, ActionTreasuryWithdrawn, SeverityWarning, OutcomeSuccess,
		ResourceTreasury, "", CategoryTreasury, nil,
		"event", "treasury_withdrawn",
	)
}

// OnQuotaExceeded implements plugin.OnQuotaExceeded.
func (e *Extension) OnQuotaExceeded(ctx context.Context, categoryKey string, requested, allocated, limit int64) error {
	return e.record(ctx, ActionQuotaExceeded, SeverityWarning, OutcomeFailure,
		ResourceCategory, categoryKey, CategoryTreasury, nil,
		"category", categoryKey,
		"requested", requested,
		"allocated", allocated,
		"limit", limit,
	)
}

// OnPeriodRolled implements plugin.OnPeriodRolled.
func (e *Extension) OnPeriodRolled(ctx context.Context, oldPeriod, newPeriod uint64) error {
	return e.record(ctx, ActionPeriodRolled, SeverityInfo, OutcomeSuccess,
		ResourceTreasury, "", CategoryTreasury, nil,
		"old_period", oldPeriod,
		"new_period", newPeriod,
	)
}

// ──────────────────────────────────────────────────
// Administrative hooks
// ──────────────────────────────────────────────────

// OnServiceAdded implements plugin.OnServiceAdded.
func (e *Extension) OnServiceAdded(ctx context.Context, _ interface{}) error {
	return e.record(ctx, ActionServiceAdded, SeverityInfo, OutcomeSuccess,
		ResourceService, "", CategoryCatalog, nil,
		"event", "service_added",
	)
}

// OnServiceUpdated implements plugin.OnServiceUpdated.
func (e *Extension) OnServiceUpdated(ctx context.Context, _ interface{}) error {
	return e.record(ctx, ActionServiceUpdated, SeverityInfo, OutcomeSuccess,
		ResourceService, "", CategoryCatalog, nil,
		"event", "service_updated",
	)
}

// OnCategoryAdded implements plugin.OnCategoryAdded.
func (e *Extension) OnCategoryAdded(ctx context.Context, _ interface{}) error {
	return e.record(ctx, ActionCategoryAdded, SeverityInfo, OutcomeSuccess,
		ResourceCategory, "", CategoryTreasury, nil,
		"event", "category_added",
	)
}

// OnCategoryUpdated implements plugin.OnCategoryUpdated.
func (e *Extension) OnCategoryUpdated(ctx context.Context, _ interface{}) error {
	return e.record(ctx, ActionCategoryUpdated, SeverityInfo, OutcomeSuccess,
		ResourceCategory, "", CategoryTreasury, nil,
		"event", "category_updated",
	)
}

// OnAuthorityGranted implements plugin.OnAuthorityGranted.
func (e *Extension) OnAuthorityGranted(ctx context.Context, role, principal string) error {
	return e.record(ctx, ActionAuthorityGranted, SeverityWarning, OutcomeSuccess,
		ResourceAuthority, principal, CategoryAccess, nil,
		"role", role,
		"principal", principal,
	)
}

// OnAuthorityRevoked implements plugin.OnAuthorityRevoked.
func (e *Extension) OnAuthorityRevoked(ctx context.Context, role, principal string) error {
	return e.record(ctx, ActionAuthorityRevoked, SeverityWarning, OutcomeSuccess,
		ResourceAuthority, principal, CategoryAccess, nil,
		"role", role,
		"principal", principal,
	)
}

// ──────────────────────────────────────────────────
// Internal helpers
// ──────────────────────────────────────────────────

// record builds and sends an audit event if the action is enabled.
func (e *Extension) record(
	ctx context.Context,
	action, severity, outcome string,
	resource, resourceID, category string,
	err error,
	kvPairs ...any,
) error {
	if e.enabled != nil && !e.enabled[action] {
		return nil
	}

	meta := make(map[string]any, len(kvPairs)/2+1)
	for i := 0; i+1 < len(kvPairs); i += 2 {
		key, ok := kvPairs[i].(string)
		if !ok {
			key = fmt.Sprintf("%v", kvPairs[i])
		}
		meta[key] = kvPairs[i+1]
	}

	var reason string
	if err != nil {
		reason = err.Error()
		meta["error"] = err.Error()
	}

	evt := &AuditEvent{
		Action:     action,
		Resource:   resource,
		Category:   category,
		ResourceID: resourceID,
		Metadata:   meta,
		Outcome:    outcome,
		Severity:   severity,
		Reason:     reason,
	}

	if recErr := e.recorder.Record(ctx, evt); recErr != nil {
		e.logger.Warn("audit_hook: failed to record audit event",
			"action", action,
			"resource_id", resourceID,
			"error", recErr,
		)
	}
	return nil
}
