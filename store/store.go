// Package store defines the unified storage interface for all Vault entities.
package store

import (
	"context"

	"github.com/xraph/vault/authority"
	"github.com/xraph/vault/catalog"
	"github.com/xraph/vault/escrow"
	"github.com/xraph/vault/treasury"
	"github.com/xraph/vault/types"
	"github.com/xraph/vault/usage"
)

// Store is the unified storage interface for all Vault entities.
// Instead of embedding the sub-interfaces, we explicitly declare all methods
// to avoid naming conflicts.
type Store interface {
	// Escrow methods
	AppendLock(ctx context.Context, l *escrow.Lock) error
	GetLock(ctx context.Context, owner string, index uint64) (*escrow.Lock, error)
	ListLocks(ctx context.Context, owner string, opts escrow.ListOpts) ([]*escrow.Lock, error)
	UpdateLock(ctx context.Context, l *escrow.Lock) error
	GetEscrowSettings(ctx context.Context) (*escrow.Settings, error)
	SaveEscrowSettings(ctx context.Context, s *escrow.Settings) error

	// Catalog methods
	CreateService(ctx context.Context, s *catalog.Service) error
	GetService(ctx context.Context, key string) (*catalog.Service, error)
	ListServices(ctx context.Context, opts catalog.ListOpts) ([]*catalog.Service, error)
	UpdateService(ctx context.Context, s *catalog.Service) error

	// Consumption log methods
	AppendUsage(ctx context.Context, e *usage.Event) error
	QueryUsage(ctx context.Context, opts usage.QueryOpts) ([]*usage.Event, error)

	// Treasury methods
	GetTreasuryState(ctx context.Context) (*treasury.State, error)
	SaveTreasuryState(ctx context.Context, s *treasury.State) error
	CreateCategory(ctx context.Context, c *treasury.Category) error
	GetCategory(ctx context.Context, key string) (*treasury.Category, error)
	ListCategories(ctx context.Context, opts treasury.CategoryListOpts) ([]*treasury.Category, error)
	UpdateCategory(ctx context.Context, c *treasury.Category) error
	PeriodAllocated(ctx context.Context, period uint64, categoryKey string) (types.Amount, error)
	AddPeriodAllocated(ctx context.Context, period uint64, categoryKey string, amount types.Amount) error
	AppendAllocation(ctx context.Context, a *treasury.Allocation) error
	ListAllocations(ctx context.Context, opts treasury.RecordOpts) ([]*treasury.Allocation, error)
	AppendWithdrawal(ctx context.Context, w *treasury.Withdrawal) error
	ListWithdrawals(ctx context.Context, opts treasury.RecordOpts) ([]*treasury.Withdrawal, error)

	// Authority methods
	GrantAuthority(ctx context.Context, g *authority.Grant) error
	RevokeAuthority(ctx context.Context, role authority.Role, principal string) error
	HasAuthority(ctx context.Context, role authority.Role, principal string) (bool, error)
	ListAuthorities(ctx context.Context, role authority.Role) ([]*authority.Grant, error)

	// Core methods
	Migrate(ctx context.Context) error
	Ping(ctx context.Context) error
	Close() error
}
