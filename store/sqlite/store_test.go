package sqlite_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/xraph/vault"
	"github.com/xraph/vault/catalog"
	"github.com/xraph/vault/escrow"
	"github.com/xraph/vault/id"
	"github.com/xraph/vault/store/sqlite"
	"github.com/xraph/vault/token"
	"github.com/xraph/vault/treasury"
	"github.com/xraph/vault/types"
	"github.com/xraph/vault/usage"
)

func newStore(t *testing.T) *sqlite.Store {
	t.Helper()
	s, err := sqlite.New(":memory:")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = s.Close() })
	if err := s.Migrate(context.Background()); err != nil {
		t.Fatal(err)
	}
	return s
}

func TestMigrateIsIdempotent(t *testing.T) {
	s := newStore(t)
	if err := s.Migrate(context.Background()); err != nil {
		t.Fatal(err)
	}
	if err := s.Ping(context.Background()); err != nil {
		t.Fatal(err)
	}
}

func TestLockRoundTrip(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	l := &escrow.Lock{
		Entity:     types.NewEntity(),
		ID:         id.NewLockID(),
		Owner:      "alice",
		Amount:     types.Tokens(100),
		Active:     true,
		ExternalID: "order-1",
	}
	if err := s.AppendLock(ctx, l); err != nil {
		t.Fatal(err)
	}
	if l.Index != 0 {
		t.Errorf("index: got %d, want 0", l.Index)
	}

	second := &escrow.Lock{Entity: types.NewEntity(), ID: id.NewLockID(), Owner: "alice", Amount: types.Tokens(5), Active: true}
	if err := s.AppendLock(ctx, second); err != nil {
		t.Fatal(err)
	}
	if second.Index != 1 {
		t.Errorf("second index: got %d, want 1", second.Index)
	}

	got, err := s.GetLock(ctx, "alice", 0)
	if err != nil {
		t.Fatal(err)
	}
	if got.ID != l.ID {
		t.Errorf("id: got %s, want %s", got.ID, l.ID)
	}
	if got.Amount != types.Tokens(100) || got.ExternalID != "order-1" || !got.Active {
		t.Errorf("round trip mismatch: %+v", got)
	}

	got.Consumed = types.Tokens(40)
	got.Touch()
	if err := s.UpdateLock(ctx, got); err != nil {
		t.Fatal(err)
	}
	fresh, err := s.GetLock(ctx, "alice", 0)
	if err != nil {
		t.Fatal(err)
	}
	if fresh.Remainder() != types.Tokens(60) {
		t.Errorf("remainder: got %s, want %s", fresh.Remainder(), types.Tokens(60))
	}

	if _, err := s.GetLock(ctx, "alice", 9); !errors.Is(err, vault.ErrLockNotFound) {
		t.Errorf("missing lock: got %v, want ErrLockNotFound", err)
	}

	active, err := s.ListLocks(ctx, "alice", escrow.ListOpts{ActiveOnly: true})
	if err != nil {
		t.Fatal(err)
	}
	if len(active) != 2 {
		t.Errorf("active locks: got %d, want 2", len(active))
	}
}

func TestEscrowSettingsUpsert(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	if _, err := s.GetEscrowSettings(ctx); !errors.Is(err, vault.ErrNotFound) {
		t.Fatalf("empty store: got %v, want ErrNotFound", err)
	}

	settings := &escrow.Settings{Entity: types.NewEntity(), MinimumLock: types.Tokens(1)}
	if err := s.SaveEscrowSettings(ctx, settings); err != nil {
		t.Fatal(err)
	}

	settings.MinimumLock = types.Tokens(2)
	settings.Touch()
	if err := s.SaveEscrowSettings(ctx, settings); err != nil {
		t.Fatal(err)
	}

	got, err := s.GetEscrowSettings(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if got.MinimumLock != types.Tokens(2) {
		t.Errorf("minimum lock: got %s, want %s", got.MinimumLock, types.Tokens(2))
	}
}

func TestServiceUniqueKey(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	svc := &catalog.Service{Entity: types.NewEntity(), ID: id.NewServiceID(), Key: "inference", UnitCost: types.Tokens(1), Active: true}
	if err := s.CreateService(ctx, svc); err != nil {
		t.Fatal(err)
	}

	dup := &catalog.Service{Entity: types.NewEntity(), ID: id.NewServiceID(), Key: "inference", UnitCost: types.Tokens(2), Active: true}
	if err := s.CreateService(ctx, dup); !errors.Is(err, vault.ErrAlreadyExists) {
		t.Errorf("duplicate: got %v, want ErrAlreadyExists", err)
	}

	if _, err := s.GetService(ctx, "missing"); !errors.Is(err, vault.ErrServiceNotFound) {
		t.Errorf("missing: got %v, want ErrServiceNotFound", err)
	}
}

func TestTreasuryStateRoundTrip(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	state := &treasury.State{
		Entity:         types.NewEntity(),
		TotalReceived:  types.Tokens(500),
		PeriodIndex:    3,
		PeriodStart:    start,
		PeriodDuration: 30 * 24 * time.Hour,
		Paused:         true,
		EscrowSource:   "vault:escrow",
	}
	if err := s.SaveTreasuryState(ctx, state); err != nil {
		t.Fatal(err)
	}

	got, err := s.GetTreasuryState(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if got.TotalReceived != types.Tokens(500) || got.PeriodIndex != 3 {
		t.Errorf("counters mismatch: %+v", got)
	}
	if !got.PeriodStart.Equal(start) {
		t.Errorf("period start: got %s, want %s", got.PeriodStart, start)
	}
	if got.PeriodDuration != 30*24*time.Hour {
		t.Errorf("period duration: got %s", got.PeriodDuration)
	}
	if !got.Paused || got.EmergencyStopped {
		t.Errorf("flags mismatch: %+v", got)
	}
}

func TestPeriodAllocationsAccumulate(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	if err := s.AddPeriodAllocated(ctx, 0, "welcome", types.Tokens(30)); err != nil {
		t.Fatal(err)
	}
	if err := s.AddPeriodAllocated(ctx, 0, "welcome", types.Tokens(20)); err != nil {
		t.Fatal(err)
	}

	got, err := s.PeriodAllocated(ctx, 0, "welcome")
	if err != nil {
		t.Fatal(err)
	}
	if got != types.Tokens(50) {
		t.Errorf("allocated: got %s, want %s", got, types.Tokens(50))
	}

	// Untouched period/category pairs read as zero.
	got, err = s.PeriodAllocated(ctx, 1, "welcome")
	if err != nil {
		t.Fatal(err)
	}
	if !got.IsZero() {
		t.Errorf("fresh period: got %s, want 0", got)
	}
}

func TestUsageQueryWindow(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	base := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)

	for i := 0; i < 3; i++ {
		e := &usage.Event{
			ID:         id.NewUsageID(),
			Owner:      "alice",
			ServiceKey: "inference",
			Units:      1,
			Cost:       types.Tokens(1),
			Backend:    "backend-1",
			Timestamp:  base.Add(time.Duration(i) * time.Hour),
		}
		if err := s.AppendUsage(ctx, e); err != nil {
			t.Fatal(err)
		}
	}

	events, err := s.QueryUsage(ctx, usage.QueryOpts{
		Owner: "alice",
		Start: base.Add(30 * time.Minute),
		End:   base.Add(150 * time.Minute),
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(events) != 2 {
		t.Fatalf("windowed events: got %d, want 2", len(events))
	}
	if !events[0].Timestamp.Equal(base.Add(time.Hour)) {
		t.Errorf("ordering: first event at %s", events[0].Timestamp)
	}
}

func TestAllocationRecords(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	a := &treasury.Allocation{
		ID:          id.NewAllocationID(),
		Allocator:   "allocator-1",
		Recipient:   "bob",
		Amount:      types.Tokens(10),
		CategoryKey: "welcome",
		PeriodIndex: 0,
		Reason:      "signup grant",
		Timestamp:   time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC),
	}
	if err := s.AppendAllocation(ctx, a); err != nil {
		t.Fatal(err)
	}

	records, err := s.ListAllocations(ctx, treasury.RecordOpts{CategoryKey: "welcome"})
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 1 {
		t.Fatalf("records: got %d, want 1", len(records))
	}
	if records[0].Reason != "signup grant" || records[0].Amount != types.Tokens(10) {
		t.Errorf("record mismatch: %+v", records[0])
	}

	none, err := s.ListAllocations(ctx, treasury.RecordOpts{CategoryKey: "referral"})
	if err != nil {
		t.Fatal(err)
	}
	if len(none) != 0 {
		t.Errorf("filtered records: got %d, want 0", len(none))
	}
}

func TestVaultOnSQLite(t *testing.T) {
	// The full engine runs unchanged on the SQLite store.
	s := newStore(t)
	ctx := context.Background()

	bank := token.NewBank()
	v := vault.New(s, bank, vault.WithOwner("admin"))
	if err := v.Start(ctx); err != nil {
		t.Fatal(err)
	}

	if err := v.AuthorizeBackend(ctx, "admin", "backend-1"); err != nil {
		t.Fatal(err)
	}
	if _, err := v.AddService(ctx, "admin", "inference", types.Tokens(1)); err != nil {
		t.Fatal(err)
	}

	bank.Mint("alice", types.Tokens(100))
	lock, err := v.Lock(ctx, "alice", types.Tokens(100), "order-1")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := v.Consume(ctx, "backend-1", "alice", lock.Index, "inference", 25, ""); err != nil {
		t.Fatal(err)
	}

	refund, err := v.Unlock(ctx, "alice", lock.Index)
	if err != nil {
		t.Fatal(err)
	}
	if refund != types.Tokens(75) {
		t.Errorf("refund: got %s, want %s", refund, types.Tokens(75))
	}

	state, err := v.TreasuryState(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if state.TotalReceived != types.Tokens(25) {
		t.Errorf("treasury received: got %s, want %s", state.TotalReceived, types.Tokens(25))
	}
}
