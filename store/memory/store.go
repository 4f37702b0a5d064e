// Package memory provides an in-memory Store implementation.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

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

// Store is a mutex-guarded in-memory implementation of store.Store.
// All reads return copies so callers can stage mutations and persist them
// explicitly through the update methods.
type Store struct {
	mu sync.RWMutex

	// Escrow storage: dense per-owner lock lists
	locks    map[string][]escrow.Lock
	settings *escrow.Settings

	// Catalog storage
	services map[string]catalog.Service

	// Consumption log
	usageEvents []usage.Event

	// Treasury storage
	state           *treasury.State
	categories      map[string]treasury.Category
	periodAllocated map[string]types.Amount
	allocations     []treasury.Allocation
	withdrawals     []treasury.Withdrawal

	// Authority grants, keyed role -> principal
	grants map[authority.Role]map[string]authority.Grant
}

// New creates an empty in-memory store.
func New() *Store {
	return &Store{
		locks:           make(map[string][]escrow.Lock),
		services:        make(map[string]catalog.Service),
		usageEvents:     make([]usage.Event, 0),
		categories:      make(map[string]treasury.Category),
		periodAllocated: make(map[string]types.Amount),
		allocations:     make([]treasury.Allocation, 0),
		withdrawals:     make([]treasury.Withdrawal, 0),
		grants:          make(map[authority.Role]map[string]authority.Grant),
	}
}

// ==================== Escrow Store ====================

func (s *Store) AppendLock(_ context.Context, l *escrow.Lock) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	l.Index = uint64(len(s.locks[l.Owner]))
	s.locks[l.Owner] = append(s.locks[l.Owner], *l)
	return nil
}

func (s *Store) GetLock(_ context.Context, owner string, index uint64) (*escrow.Lock, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	list := s.locks[owner]
	if index >= uint64(len(list)) {
		return nil, vault.ErrLockNotFound
	}
	l := list[index]
	return &l, nil
}

func (s *Store) ListLocks(_ context.Context, owner string, opts escrow.ListOpts) ([]*escrow.Lock, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*escrow.Lock, 0)
	for i := range s.locks[owner] {
		l := s.locks[owner][i]
		if opts.ActiveOnly && !l.Active {
			continue
		}
		result = append(result, &l)
	}
	return paginate(result, opts.Offset, opts.Limit), nil
}

func (s *Store) UpdateLock(_ context.Context, l *escrow.Lock) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	list := s.locks[l.Owner]
	if l.Index >= uint64(len(list)) {
		return vault.ErrLockNotFound
	}
	list[l.Index] = *l
	return nil
}

func (s *Store) GetEscrowSettings(_ context.Context) (*escrow.Settings, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.settings == nil {
		return nil, vault.ErrNotFound
	}
	cp := *s.settings
	return &cp, nil
}

func (s *Store) SaveEscrowSettings(_ context.Context, settings *escrow.Settings) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *settings
	s.settings = &cp
	return nil
}

// ==================== Catalog Store ====================

func (s *Store) CreateService(_ context.Context, svc *catalog.Service) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.services[svc.Key]; exists {
		return vault.ErrAlreadyExists
	}
	s.services[svc.Key] = *svc
	return nil
}

func (s *Store) GetService(_ context.Context, key string) (*catalog.Service, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if svc, ok := s.services[key]; ok {
		return &svc, nil
	}
	return nil, vault.ErrServiceNotFound
}

func (s *Store) ListServices(_ context.Context, opts catalog.ListOpts) ([]*catalog.Service, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*catalog.Service, 0, len(s.services))
	for key := range s.services {
		svc := s.services[key]
		if opts.ActiveOnly && !svc.Active {
			continue
		}
		result = append(result, &svc)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Key < result[j].Key })
	return result, nil
}

func (s *Store) UpdateService(_ context.Context, svc *catalog.Service) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.services[svc.Key]; !exists {
		return vault.ErrServiceNotFound
	}
	s.services[svc.Key] = *svc
	return nil
}

// ==================== Consumption log ====================

func (s *Store) AppendUsage(_ context.Context, e *usage.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.usageEvents = append(s.usageEvents, *e)
	return nil
}

func (s *Store) QueryUsage(_ context.Context, opts usage.QueryOpts) ([]*usage.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*usage.Event, 0)
	for i := range s.usageEvents {
		e := s.usageEvents[i]
		if opts.Owner != "" && e.Owner != opts.Owner {
			continue
		}
		if opts.ServiceKey != "" && e.ServiceKey != opts.ServiceKey {
			continue
		}
		if !opts.Start.IsZero() && e.Timestamp.Before(opts.Start) {
			continue
		}
		if !opts.End.IsZero() && !e.Timestamp.Before(opts.End) {
			continue
		}
		result = append(result, &e)
	}
	return paginate(result, opts.Offset, opts.Limit), nil
}

// ==================== Treasury Store ====================

func (s *Store) GetTreasuryState(_ context.Context) (*treasury.State, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.state == nil {
		return nil, vault.ErrNotFound
	}
	cp := *s.state
	return &cp, nil
}

func (s *Store) SaveTreasuryState(_ context.Context, st *treasury.State) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *st
	s.state = &cp
	return nil
}

func (s *Store) CreateCategory(_ context.Context, c *treasury.Category) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.categories[c.Key]; exists {
		return vault.ErrAlreadyExists
	}
	s.categories[c.Key] = *c
	return nil
}

func (s *Store) GetCategory(_ context.Context, key string) (*treasury.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if c, ok := s.categories[key]; ok {
		return &c, nil
	}
	return nil, vault.ErrCategoryNotFound
}

func (s *Store) ListCategories(_ context.Context, opts treasury.CategoryListOpts) ([]*treasury.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*treasury.Category, 0, len(s.categories))
	for key := range s.categories {
		c := s.categories[key]
		if opts.ActiveOnly && !c.Active {
			continue
		}
		result = append(result, &c)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Key < result[j].Key })
	return result, nil
}

func (s *Store) UpdateCategory(_ context.Context, c *treasury.Category) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.categories[c.Key]; !exists {
		return vault.ErrCategoryNotFound
	}
	s.categories[c.Key] = *c
	return nil
}

func (s *Store) PeriodAllocated(_ context.Context, period uint64, categoryKey string) (types.Amount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.periodAllocated[periodKey(period, categoryKey)], nil
}

func (s *Store) AddPeriodAllocated(_ context.Context, period uint64, categoryKey string, amount types.Amount) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := periodKey(period, categoryKey)
	s.periodAllocated[key] = s.periodAllocated[key].Add(amount)
	return nil
}

func (s *Store) AppendAllocation(_ context.Context, a *treasury.Allocation) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.allocations = append(s.allocations, *a)
	return nil
}

func (s *Store) ListAllocations(_ context.Context, opts treasury.RecordOpts) ([]*treasury.Allocation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*treasury.Allocation, 0)
	for i := range s.allocations {
		a := s.allocations[i]
		if opts.CategoryKey != "" && a.CategoryKey != opts.CategoryKey {
			continue
		}
		if !opts.Start.IsZero() && a.Timestamp.Before(opts.Start) {
			continue
		}
		if !opts.End.IsZero() && !a.Timestamp.Before(opts.End) {
			continue
		}
		result = append(result, &a)
	}
	return paginate(result, opts.Offset, opts.Limit), nil
}

func (s *Store) AppendWithdrawal(_ context.Context, w *treasury.Withdrawal) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.withdrawals = append(s.withdrawals, *w)
	return nil
}

func (s *Store) ListWithdrawals(_ context.Context, opts treasury.RecordOpts) ([]*treasury.Withdrawal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*treasury.Withdrawal, 0)
	for i := range s.withdrawals {
		w := s.withdrawals[i]
		if !opts.Start.IsZero() && w.Timestamp.Before(opts.Start) {
			continue
		}
		if !opts.End.IsZero() && !w.Timestamp.Before(opts.End) {
			continue
		}
		result = append(result, &w)
	}
	return paginate(result, opts.Offset, opts.Limit), nil
}

// ==================== Authority Store ====================

func (s *Store) GrantAuthority(_ context.Context, g *authority.Grant) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.grants[g.Role] == nil {
		s.grants[g.Role] = make(map[string]authority.Grant)
	}
	s.grants[g.Role][g.Principal] = *g
	return nil
}

func (s *Store) RevokeAuthority(_ context.Context, role authority.Role, principal string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.grants[role], principal)
	return nil
}

func (s *Store) HasAuthority(_ context.Context, role authority.Role, principal string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.grants[role][principal]
	return ok, nil
}

func (s *Store) ListAuthorities(_ context.Context, role authority.Role) ([]*authority.Grant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*authority.Grant, 0, len(s.grants[role]))
	for principal := range s.grants[role] {
		g := s.grants[role][principal]
		result = append(result, &g)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Principal < result[j].Principal })
	return result, nil
}

// ==================== Store management ====================

func (s *Store) Migrate(_ context.Context) error {
	return nil // No migration needed for memory store
}

func (s *Store) Ping(_ context.Context) error {
	return nil // Always available
}

func (s *Store) Close() error {
	return nil // Nothing to close
}

// ==================== Helpers ====================

func periodKey(period uint64, categoryKey string) string {
	return fmt.Sprintf("%d:%s", period, categoryKey)
}

func paginate[T any](items []T, offset, limit int) []T {
	start := offset
	if start > len(items) {
		start = len(items)
	}
	end := start + limit
	if limit == 0 || end > len(items) {
		end = len(items)
	}
	return items[start:end]
}
