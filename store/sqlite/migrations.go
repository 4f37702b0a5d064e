package sqlite

import (
	"context"
	"fmt"
)

// migrations are applied in order; each entry runs at most once, tracked
// in schema_migrations. Timestamps are stored as unix nanoseconds and
// amounts as integer base units, so every column scans as int64.
var migrations = []string{
	`
CREATE TABLE locks (
    owner       TEXT NOT NULL,
    idx         INTEGER NOT NULL,
    id          TEXT NOT NULL,
    amount      INTEGER NOT NULL,
    consumed    INTEGER NOT NULL DEFAULT 0,
    active      INTEGER NOT NULL DEFAULT 1,
    external_id TEXT NOT NULL DEFAULT '',
    created_at  INTEGER NOT NULL,
    updated_at  INTEGER NOT NULL,
    PRIMARY KEY (owner, idx)
);
CREATE INDEX idx_locks_owner_active ON locks(owner, active);

CREATE TABLE escrow_settings (
    id           INTEGER PRIMARY KEY CHECK (id = 1),
    minimum_lock INTEGER NOT NULL,
    created_at   INTEGER NOT NULL,
    updated_at   INTEGER NOT NULL
);

CREATE TABLE services (
    key            TEXT PRIMARY KEY,
    id             TEXT NOT NULL,
    unit_cost      INTEGER NOT NULL,
    active         INTEGER NOT NULL DEFAULT 1,
    total_consumed INTEGER NOT NULL DEFAULT 0,
    created_at     INTEGER NOT NULL,
    updated_at     INTEGER NOT NULL
);

CREATE TABLE usage_events (
    id          TEXT PRIMARY KEY,
    owner       TEXT NOT NULL,
    lock_idx    INTEGER NOT NULL,
    service_key TEXT NOT NULL,
    units       INTEGER NOT NULL,
    cost        INTEGER NOT NULL,
    backend     TEXT NOT NULL,
    external_id TEXT NOT NULL DEFAULT '',
    ts          INTEGER NOT NULL
);
CREATE INDEX idx_usage_owner ON usage_events(owner);
CREATE INDEX idx_usage_service ON usage_events(service_key);
CREATE INDEX idx_usage_ts ON usage_events(ts);

CREATE TABLE treasury_state (
    id                INTEGER PRIMARY KEY CHECK (id = 1),
    total_received    INTEGER NOT NULL DEFAULT 0,
    total_reallocated INTEGER NOT NULL DEFAULT 0,
    total_withdrawn   INTEGER NOT NULL DEFAULT 0,
    period_index      INTEGER NOT NULL DEFAULT 0,
    period_start      INTEGER NOT NULL,
    period_duration   INTEGER NOT NULL,
    paused            INTEGER NOT NULL DEFAULT 0,
    emergency_stopped INTEGER NOT NULL DEFAULT 0,
    escrow_source     TEXT NOT NULL DEFAULT '',
    created_at        INTEGER NOT NULL,
    updated_at        INTEGER NOT NULL
);

CREATE TABLE categories (
    key             TEXT PRIMARY KEY,
    id              TEXT NOT NULL,
    period_limit    INTEGER NOT NULL,
    total_allocated INTEGER NOT NULL DEFAULT 0,
    active          INTEGER NOT NULL DEFAULT 1,
    created_at      INTEGER NOT NULL,
    updated_at      INTEGER NOT NULL
);

CREATE TABLE period_allocations (
    period       INTEGER NOT NULL,
    category_key TEXT NOT NULL,
    allocated    INTEGER NOT NULL DEFAULT 0,
    PRIMARY KEY (period, category_key)
);

CREATE TABLE allocations (
    id           TEXT PRIMARY KEY,
    allocator    TEXT NOT NULL,
    recipient    TEXT NOT NULL,
    amount       INTEGER NOT NULL,
    category_key TEXT NOT NULL,
    period_index INTEGER NOT NULL,
    reason       TEXT NOT NULL DEFAULT '',
    ts           INTEGER NOT NULL
);
CREATE INDEX idx_allocations_category ON allocations(category_key);
CREATE INDEX idx_allocations_ts ON allocations(ts);

CREATE TABLE withdrawals (
    id          TEXT PRIMARY KEY,
    owner       TEXT NOT NULL,
    destination TEXT NOT NULL,
    amount      INTEGER NOT NULL,
    purpose     TEXT NOT NULL DEFAULT '',
    ts          INTEGER NOT NULL
);
CREATE INDEX idx_withdrawals_ts ON withdrawals(ts);

CREATE TABLE authority_grants (
    role       TEXT NOT NULL,
    principal  TEXT NOT NULL,
    id         TEXT NOT NULL,
    created_at INTEGER NOT NULL,
    updated_at INTEGER NOT NULL,
    PRIMARY KEY (role, principal)
);
`,
}

// Migrate applies pending migrations.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `
CREATE TABLE IF NOT EXISTS schema_migrations (
    version    INTEGER PRIMARY KEY,
    applied_at INTEGER NOT NULL
)`); err != nil {
		return fmt.Errorf("sqlite: create migrations table: %w", err)
	}

	var current int
	if err := s.db.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(version), 0) FROM schema_migrations`).Scan(&current); err != nil {
		return fmt.Errorf("sqlite: read migration version: %w", err)
	}

	for i := current; i < len(migrations); i++ {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, migrations[i]); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("sqlite: apply migration %d: %w", i+1, err)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO schema_migrations (version, applied_at) VALUES (?, ?)`,
			i+1, nowNanos()); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("sqlite: record migration %d: %w", i+1, err)
		}
		if err := tx.Commit(); err != nil {
			return err
		}
	}

	return nil
}
