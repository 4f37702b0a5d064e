package treasury

import (
	"context"

	"github.com/xraph/vault/types"
)

// Store is the persistence interface for the treasury ledger.
type Store interface {
	GetTreasuryState(ctx context.Context) (*State, error)
	SaveTreasuryState(ctx context.Context, s *State) error

	CreateCategory(ctx context.Context, c *Category) error
	GetCategory(ctx context.Context, key string) (*Category, error)
	ListCategories(ctx context.Context, opts CategoryListOpts) ([]*Category, error)
	UpdateCategory(ctx context.Context, c *Category) error

	// PeriodAllocated returns the amount committed under a category within
	// one period. A period/category pair never written reads as zero; the
	// sparse counter is conceptually reset by advancing the period index,
	// never physically cleared.
	PeriodAllocated(ctx context.Context, period uint64, categoryKey string) (types.Amount, error)
	AddPeriodAllocated(ctx context.Context, period uint64, categoryKey string, amount types.Amount) error

	AppendAllocation(ctx context.Context, a *Allocation) error
	ListAllocations(ctx context.Context, opts RecordOpts) ([]*Allocation, error)
	AppendWithdrawal(ctx context.Context, w *Withdrawal) error
	ListWithdrawals(ctx context.Context, opts RecordOpts) ([]*Withdrawal, error)
}
