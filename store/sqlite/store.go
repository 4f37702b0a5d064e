// Package sqlite provides a SQLite-backed Store implementation using the
// pure-Go modernc.org/sqlite driver.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/xraph/vault"
	"github.com/xraph/vault/authority"
	"github.com/xraph/vault/catalog"
	"github.com/xraph/vault/escrow"
	"github.com/xraph/vault/store"
	"github.com/xraph/vault/treasury"
	"github.com/xraph/vault/types"
	"github.com/xraph/vault/usage"
)

// compile-time interface check
var _ store.Store = (*Store)(nil)

// Store is a SQLite implementation of store.Store.
type Store struct {
	db *sql.DB
}

// New opens a SQLite database at the given DSN. Use ":memory:" for an
// ephemeral database. Call Migrate before first use.
func New(dsn string) (*Store, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open database: %w", err)
	}

	// The engine serializes writes itself; a single connection keeps the
	// sqlite driver away from SQLITE_BUSY and makes :memory: databases
	// behave (each pooled connection would otherwise get its own).
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite: enable foreign keys: %w", err)
	}

	return &Store{db: db}, nil
}

func nowNanos() int64 {
	return time.Now().UTC().UnixNano()
}

func nanosToTime(n int64) time.Time {
	return time.Unix(0, n).UTC()
}

// ==================== Escrow Store ====================

func (s *Store) AppendLock(ctx context.Context, l *escrow.Lock) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	var count uint64
	if err := tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM locks WHERE owner = ?`, l.Owner).Scan(&count); err != nil {
		return err
	}
	l.Index = count

	if _, err := tx.ExecContext(ctx, `
INSERT INTO locks (owner, idx, id, amount, consumed, active, external_id, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		l.Owner, l.Index, l.ID.String(), l.Amount.Int64(), l.Consumed.Int64(),
		boolToInt(l.Active), l.ExternalID, l.CreatedAt.UnixNano(), l.UpdatedAt.UnixNano(),
	); err != nil {
		return err
	}

	return tx.Commit()
}

func (s *Store) GetLock(ctx context.Context, owner string, index uint64) (*escrow.Lock, error) {
	row := s.db.QueryRowContext(ctx, `
SELECT owner, idx, id, amount, consumed, active, external_id, created_at, updated_at
FROM locks WHERE owner = ? AND idx = ?`, owner, index)

	l, err := scanLock(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, vault.ErrLockNotFound
	}
	return l, err
}

func (s *Store) ListLocks(ctx context.Context, owner string, opts escrow.ListOpts) ([]*escrow.Lock, error) {
	query := `
SELECT owner, idx, id, amount, consumed, active, external_id, created_at, updated_at
FROM locks WHERE owner = ?`
	args := []any{owner}

	if opts.ActiveOnly {
		query += ` AND active = 1`
	}
	query += ` ORDER BY idx`
	query, args = applyPaging(query, args, opts.Limit, opts.Offset)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make([]*escrow.Lock, 0)
	for rows.Next() {
		l, err := scanLock(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, l)
	}
	return result, rows.Err()
}

func (s *Store) UpdateLock(ctx context.Context, l *escrow.Lock) error {
	res, err := s.db.ExecContext(ctx, `
UPDATE locks SET amount = ?, consumed = ?, active = ?, external_id = ?, updated_at = ?
WHERE owner = ? AND idx = ?`,
		l.Amount.Int64(), l.Consumed.Int64(), boolToInt(l.Active), l.ExternalID,
		l.UpdatedAt.UnixNano(), l.Owner, l.Index,
	)
	if err != nil {
		return err
	}
	return requireRowAffected(res, vault.ErrLockNotFound)
}

func (s *Store) GetEscrowSettings(ctx context.Context) (*escrow.Settings, error) {
	var (
		minimum              int64
		createdAt, updatedAt int64
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT minimum_lock, created_at, updated_at FROM escrow_settings WHERE id = 1`).
		Scan(&minimum, &createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, vault.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	return &escrow.Settings{
		Entity:      entityAt(createdAt, updatedAt),
		MinimumLock: types.Amount(minimum),
	}, nil
}

func (s *Store) SaveEscrowSettings(ctx context.Context, settings *escrow.Settings) error {
	_, err := s.db.ExecContext(ctx, `
INSERT INTO escrow_settings (id, minimum_lock, created_at, updated_at)
VALUES (1, ?, ?, ?)
ON CONFLICT (id) DO UPDATE SET minimum_lock = excluded.minimum_lock, updated_at = excluded.updated_at`,
		settings.MinimumLock.Int64(), settings.CreatedAt.UnixNano(), settings.UpdatedAt.UnixNano(),
	)
	return err
}

// ==================== Catalog Store ====================

func (s *Store) CreateService(ctx context.Context, svc *catalog.Service) error {
	_, err := s.db.ExecContext(ctx, `
INSERT INTO services (key, id, unit_cost, active, total_consumed, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?)`,
		svc.Key, svc.ID.String(), svc.UnitCost.Int64(), boolToInt(svc.Active),
		svc.TotalConsumed.Int64(), svc.CreatedAt.UnixNano(), svc.UpdatedAt.UnixNano(),
	)
	if isUniqueViolation(err) {
		return vault.ErrAlreadyExists
	}
	return err
}

func (s *Store) GetService(ctx context.Context, key string) (*catalog.Service, error) {
	row := s.db.QueryRowContext(ctx, `
SELECT key, id, unit_cost, active, total_consumed, created_at, updated_at
FROM services WHERE key = ?`, key)

	svc, err := scanService(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, vault.ErrServiceNotFound
	}
	return svc, err
}

func (s *Store) ListServices(ctx context.Context, opts catalog.ListOpts) ([]*catalog.Service, error) {
	query := `
SELECT key, id, unit_cost, active, total_consumed, created_at, updated_at
FROM services`
	if opts.ActiveOnly {
		query += ` WHERE active = 1`
	}
	query += ` ORDER BY key`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make([]*catalog.Service, 0)
	for rows.Next() {
		svc, err := scanService(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, svc)
	}
	return result, rows.Err()
}

func (s *Store) UpdateService(ctx context.Context, svc *catalog.Service) error {
	res, err := s.db.ExecContext(ctx, `
UPDATE services SET unit_cost = ?, active = ?, total_consumed = ?, updated_at = ?
WHERE key = ?`,
		svc.UnitCost.Int64(), boolToInt(svc.Active), svc.TotalConsumed.Int64(),
		svc.UpdatedAt.UnixNano(), svc.Key,
	)
	if err != nil {
		return err
	}
	return requireRowAffected(res, vault.ErrServiceNotFound)
}

// ==================== Consumption log ====================

func (s *Store) AppendUsage(ctx context.Context, e *usage.Event) error {
	_, err := s.db.ExecContext(ctx, `
INSERT INTO usage_events (id, owner, lock_idx, service_key, units, cost, backend, external_id, ts)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID.String(), e.Owner, e.LockIndex, e.ServiceKey, e.Units,
		e.Cost.Int64(), e.Backend, e.ExternalID, e.Timestamp.UnixNano(),
	)
	return err
}

func (s *Store) QueryUsage(ctx context.Context, opts usage.QueryOpts) ([]*usage.Event, error) {
	query := `
SELECT id, owner, lock_idx, service_key, units, cost, backend, external_id, ts
FROM usage_events`
	var (
		conds []string
		args  []any
	)
	if opts.Owner != "" {
		conds = append(conds, `owner = ?`)
		args = append(args, opts.Owner)
	}
	if opts.ServiceKey != "" {
		conds = append(conds, `service_key = ?`)
		args = append(args, opts.ServiceKey)
	}
	if !opts.Start.IsZero() {
		conds = append(conds, `ts >= ?`)
		args = append(args, opts.Start.UnixNano())
	}
	if !opts.End.IsZero() {
		conds = append(conds, `ts < ?`)
		args = append(args, opts.End.UnixNano())
	}
	if len(conds) > 0 {
		query += ` WHERE ` + strings.Join(conds, ` AND `)
	}
	query += ` ORDER BY ts`
	query, args = applyPaging(query, args, opts.Limit, opts.Offset)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make([]*usage.Event, 0)
	for rows.Next() {
		var (
			e  usage.Event
			id string
			ts int64
		)
		var cost int64
		if err := rows.Scan(&id, &e.Owner, &e.LockIndex, &e.ServiceKey, &e.Units,
			&cost, &e.Backend, &e.ExternalID, &ts); err != nil {
			return nil, err
		}
		if err := e.ID.Scan(id); err != nil {
			return nil, err
		}
		e.Cost = types.Amount(cost)
		e.Timestamp = nanosToTime(ts)
		result = append(result, &e)
	}
	return result, rows.Err()
}

// ==================== Treasury Store ====================

func (s *Store) GetTreasuryState(ctx context.Context) (*treasury.State, error) {
	var (
		received, reallocated, withdrawn int64
		periodIndex                      uint64
		periodStart, periodDuration      int64
		paused, stopped                  int
		source                           string
		createdAt, updatedAt             int64
	)
	err := s.db.QueryRowContext(ctx, `
SELECT total_received, total_reallocated, total_withdrawn, period_index,
       period_start, period_duration, paused, emergency_stopped, escrow_source,
       created_at, updated_at
FROM treasury_state WHERE id = 1`).Scan(
		&received, &reallocated, &withdrawn, &periodIndex,
		&periodStart, &periodDuration, &paused, &stopped, &source,
		&createdAt, &updatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, vault.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	return &treasury.State{
		Entity:           entityAt(createdAt, updatedAt),
		TotalReceived:    types.Amount(received),
		TotalReallocated: types.Amount(reallocated),
		TotalWithdrawn:   types.Amount(withdrawn),
		PeriodIndex:      periodIndex,
		PeriodStart:      nanosToTime(periodStart),
		PeriodDuration:   time.Duration(periodDuration),
		Paused:           paused != 0,
		EmergencyStopped: stopped != 0,
		EscrowSource:     source,
	}, nil
}

func (s *Store) SaveTreasuryState(ctx context.Context, st *treasury.State) error {
	_, err := s.db.ExecContext(ctx, `
INSERT INTO treasury_state (id, total_received, total_reallocated, total_withdrawn,
    period_index, period_start, period_duration, paused, emergency_stopped,
    escrow_source, created_at, updated_at)
VALUES (1, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT (id) DO UPDATE SET
    total_received = excluded.total_received,
    total_reallocated = excluded.total_reallocated,
    total_withdrawn = excluded.total_withdrawn,
    period_index = excluded.period_index,
    period_start = excluded.period_start,
    period_duration = excluded.period_duration,
    paused = excluded.paused,
    emergency_stopped = excluded.emergency_stopped,
    escrow_source = excluded.escrow_source,
    updated_at = excluded.updated_at`,
		st.TotalReceived.Int64(), st.TotalReallocated.Int64(), st.TotalWithdrawn.Int64(),
		st.PeriodIndex, st.PeriodStart.UnixNano(), int64(st.PeriodDuration),
		boolToInt(st.Paused), boolToInt(st.EmergencyStopped), st.EscrowSource,
		st.CreatedAt.UnixNano(), st.UpdatedAt.UnixNano(),
	)
	return err
}

func (s *Store) CreateCategory(ctx context.Context, c *treasury.Category) error {
	_, err := s.db.ExecContext(ctx, `
INSERT INTO categories (key, id, period_limit, total_allocated, active, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?)`,
		c.Key, c.ID.String(), c.PeriodLimit.Int64(), c.TotalAllocated.Int64(),
		boolToInt(c.Active), c.CreatedAt.UnixNano(), c.UpdatedAt.UnixNano(),
	)
	if isUniqueViolation(err) {
		return vault.ErrAlreadyExists
	}
	return err
}

func (s *Store) GetCategory(ctx context.Context, key string) (*treasury.Category, error) {
	row := s.db.QueryRowContext(ctx, `
SELECT key, id, period_limit, total_allocated, active, created_at, updated_at
FROM categories WHERE key = ?`, key)

	c, err := scanCategory(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, vault.ErrCategoryNotFound
	}
	return c, err
}

func (s *Store) ListCategories(ctx context.Context, opts treasury.CategoryListOpts) ([]*treasury.Category, error) {
	query := `
SELECT key, id, period_limit, total_allocated, active, created_at, updated_at
FROM categories`
	if opts.ActiveOnly {
		query += ` WHERE active = 1`
	}
	query += ` ORDER BY key`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make([]*treasury.Category, 0)
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, c)
	}
	return result, rows.Err()
}

func (s *Store) UpdateCategory(ctx context.Context, c *treasury.Category) error {
	res, err := s.db.ExecContext(ctx, `
UPDATE categories SET period_limit = ?, total_allocated = ?, active = ?, updated_at = ?
WHERE key = ?`,
		c.PeriodLimit.Int64(), c.TotalAllocated.Int64(), boolToInt(c.Active),
		c.UpdatedAt.UnixNano(), c.Key,
	)
	if err != nil {
		return err
	}
	return requireRowAffected(res, vault.ErrCategoryNotFound)
}

func (s *Store) PeriodAllocated(ctx context.Context, period uint64, categoryKey string) (types.Amount, error) {
	var allocated int64
	err := s.db.QueryRowContext(ctx,
		`SELECT allocated FROM period_allocations WHERE period = ? AND category_key = ?`,
		period, categoryKey).Scan(&allocated)
	if errors.Is(err, sql.ErrNoRows) {
		return types.Zero, nil
	}
	if err != nil {
		return types.Zero, err
	}
	return types.Amount(allocated), nil
}

func (s *Store) AddPeriodAllocated(ctx context.Context, period uint64, categoryKey string, amount types.Amount) error {
	_, err := s.db.ExecContext(ctx, `
INSERT INTO period_allocations (period, category_key, allocated)
VALUES (?, ?, ?)
ON CONFLICT (period, category_key) DO UPDATE SET allocated = allocated + excluded.allocated`,
		period, categoryKey, amount.Int64(),
	)
	return err
}

func (s *Store) AppendAllocation(ctx context.Context, a *treasury.Allocation) error {
	_, err := s.db.ExecContext(ctx, `
INSERT INTO allocations (id, allocator, recipient, amount, category_key, period_index, reason, ts)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID.String(), a.Allocator, a.Recipient, a.Amount.Int64(),
		a.CategoryKey, a.PeriodIndex, a.Reason, a.Timestamp.UnixNano(),
	)
	return err
}

func (s *Store) ListAllocations(ctx context.Context, opts treasury.RecordOpts) ([]*treasury.Allocation, error) {
	query := `
SELECT id, allocator, recipient, amount, category_key, period_index, reason, ts
FROM allocations`
	var (
		conds []string
		args  []any
	)
	if opts.CategoryKey != "" {
		conds = append(conds, `category_key = ?`)
		args = append(args, opts.CategoryKey)
	}
	if !opts.Start.IsZero() {
		conds = append(conds, `ts >= ?`)
		args = append(args, opts.Start.UnixNano())
	}
	if !opts.End.IsZero() {
		conds = append(conds, `ts < ?`)
		args = append(args, opts.End.UnixNano())
	}
	if len(conds) > 0 {
		query += ` WHERE ` + strings.Join(conds, ` AND `)
	}
	query += ` ORDER BY ts`
	query, args = applyPaging(query, args, opts.Limit, opts.Offset)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make([]*treasury.Allocation, 0)
	for rows.Next() {
		var (
			a      treasury.Allocation
			id     string
			amount int64
			ts     int64
		)
		if err := rows.Scan(&id, &a.Allocator, &a.Recipient, &amount,
			&a.CategoryKey, &a.PeriodIndex, &a.Reason, &ts); err != nil {
			return nil, err
		}
		if err := a.ID.Scan(id); err != nil {
			return nil, err
		}
		a.Amount = types.Amount(amount)
		a.Timestamp = nanosToTime(ts)
		result = append(result, &a)
	}
	return result, rows.Err()
}

func (s *Store) AppendWithdrawal(ctx context.Context, w *treasury.Withdrawal) error {
	_, err := s.db.ExecContext(ctx, `
INSERT INTO withdrawals (id, owner, destination, amount, purpose, ts)
VALUES (?, ?, ?, ?, ?, ?)`,
		w.ID.String(), w.Owner, w.Destination, w.Amount.Int64(), w.Purpose, w.Timestamp.UnixNano(),
	)
	return err
}

func (s *Store) ListWithdrawals(ctx context.Context, opts treasury.RecordOpts) ([]*treasury.Withdrawal, error) {
	query := `
SELECT id, owner, destination, amount, purpose, ts
FROM withdrawals`
	var (
		conds []string
		args  []any
	)
	if !opts.Start.IsZero() {
		conds = append(conds, `ts >= ?`)
		args = append(args, opts.Start.UnixNano())
	}
	if !opts.End.IsZero() {
		conds = append(conds, `ts < ?`)
		args = append(args, opts.End.UnixNano())
	}
	if len(conds) > 0 {
		query += ` WHERE ` + strings.Join(conds, ` AND `)
	}
	query += ` ORDER BY ts`
	query, args = applyPaging(query, args, opts.Limit, opts.Offset)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make([]*treasury.Withdrawal, 0)
	for rows.Next() {
		var (
			w      treasury.Withdrawal
			id     string
			amount int64
			ts     int64
		)
		if err := rows.Scan(&id, &w.Owner, &w.Destination, &amount, &w.Purpose, &ts); err != nil {
			return nil, err
		}
		if err := w.ID.Scan(id); err != nil {
			return nil, err
		}
		w.Amount = types.Amount(amount)
		w.Timestamp = nanosToTime(ts)
		result = append(result, &w)
	}
	return result, rows.Err()
}

// ==================== Authority Store ====================

func (s *Store) GrantAuthority(ctx context.Context, g *authority.Grant) error {
	_, err := s.db.ExecContext(ctx, `
INSERT INTO authority_grants (role, principal, id, created_at, updated_at)
VALUES (?, ?, ?, ?, ?)
ON CONFLICT (role, principal) DO UPDATE SET updated_at = excluded.updated_at`,
		string(g.Role), g.Principal, g.ID.String(), g.CreatedAt.UnixNano(), g.UpdatedAt.UnixNano(),
	)
	return err
}

func (s *Store) RevokeAuthority(ctx context.Context, role authority.Role, principal string) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM authority_grants WHERE role = ? AND principal = ?`,
		string(role), principal)
	return err
}

func (s *Store) HasAuthority(ctx context.Context, role authority.Role, principal string) (bool, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM authority_grants WHERE role = ? AND principal = ?`,
		string(role), principal).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (s *Store) ListAuthorities(ctx context.Context, role authority.Role) ([]*authority.Grant, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT role, principal, id, created_at, updated_at
FROM authority_grants WHERE role = ? ORDER BY principal`, string(role))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make([]*authority.Grant, 0)
	for rows.Next() {
		var (
			g                    authority.Grant
			roleStr, id          string
			createdAt, updatedAt int64
		)
		if err := rows.Scan(&roleStr, &g.Principal, &id, &createdAt, &updatedAt); err != nil {
			return nil, err
		}
		if err := g.ID.Scan(id); err != nil {
			return nil, err
		}
		g.Role = authority.Role(roleStr)
		g.Entity = entityAt(createdAt, updatedAt)
		result = append(result, &g)
	}
	return result, rows.Err()
}

// ==================== Store management ====================

func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) Close() error {
	return s.db.Close()
}

// ==================== Helpers ====================

type rowScanner interface {
	Scan(dest ...any) error
}

func scanLock(row rowScanner) (*escrow.Lock, error) {
	var (
		l                    escrow.Lock
		id                   string
		amount, consumed     int64
		active               int
		createdAt, updatedAt int64
	)
	if err := row.Scan(&l.Owner, &l.Index, &id, &amount, &consumed, &active,
		&l.ExternalID, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	if err := l.ID.Scan(id); err != nil {
		return nil, err
	}
	l.Amount = types.Amount(amount)
	l.Consumed = types.Amount(consumed)
	l.Active = active != 0
	l.Entity = entityAt(createdAt, updatedAt)
	return &l, nil
}

func scanService(row rowScanner) (*catalog.Service, error) {
	var (
		svc                  catalog.Service
		id                   string
		unitCost, total      int64
		active               int
		createdAt, updatedAt int64
	)
	if err := row.Scan(&svc.Key, &id, &unitCost, &active, &total, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	if err := svc.ID.Scan(id); err != nil {
		return nil, err
	}
	svc.UnitCost = types.Amount(unitCost)
	svc.Active = active != 0
	svc.TotalConsumed = types.Amount(total)
	svc.Entity = entityAt(createdAt, updatedAt)
	return &svc, nil
}

func scanCategory(row rowScanner) (*treasury.Category, error) {
	var (
		c                    treasury.Category
		id                   string
		limit, total         int64
		active               int
		createdAt, updatedAt int64
	)
	if err := row.Scan(&c.Key, &id, &limit, &total, &active, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	if err := c.ID.Scan(id); err != nil {
		return nil, err
	}
	c.PeriodLimit = types.Amount(limit)
	c.TotalAllocated = types.Amount(total)
	c.Active = active != 0
	c.Entity = entityAt(createdAt, updatedAt)
	return &c, nil
}

func entityAt(createdAt, updatedAt int64) types.Entity {
	return types.Entity{
		CreatedAt: nanosToTime(createdAt),
		UpdatedAt: nanosToTime(updatedAt),
	}
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func applyPaging(query string, args []any, limit, offset int) (string, []any) {
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
		if offset > 0 {
			query += ` OFFSET ?`
			args = append(args, offset)
		}
	} else if offset > 0 {
		// SQLite requires a LIMIT clause before OFFSET.
		query += ` LIMIT -1 OFFSET ?`
		args = append(args, offset)
	}
	return query, args
}

func requireRowAffected(res sql.Result, sentinel error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sentinel
	}
	return nil
}

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
