// Package treasury defines the categorized, period-rolling quota allocator
// entities.
package treasury

import (
	"time"

	"github.com/xraph/vault/id"
	"github.com/xraph/vault/types"
)

// State is the treasury aggregate: process-wide counters, the period
// clock, the gating flags, and the registered escrow inbound source.
// It is mutated only through the engine's own methods.
type State struct {
	types.Entity
	TotalReceived    types.Amount  `json:"total_received"`
	TotalReallocated types.Amount  `json:"total_reallocated"`
	TotalWithdrawn   types.Amount  `json:"total_withdrawn"`
	PeriodIndex      uint64        `json:"period_index"`
	PeriodStart      time.Time     `json:"period_start"`
	PeriodDuration   time.Duration `json:"period_duration"`
	Paused           bool          `json:"paused"`
	EmergencyStopped bool          `json:"emergency_stopped"`
	EscrowSource     string        `json:"escrow_source"`
}

// Balance returns the tokens the treasury should currently hold:
// everything received minus everything paid back out.
func (s *State) Balance() types.Amount {
	return s.TotalReceived.Subtract(s.TotalReallocated).Subtract(s.TotalWithdrawn)
}

// Gated reports whether quota-gated outbound operations are blocked.
// Pause and emergency stop are independent flags with the same blocking
// scope; either one suffices. The inbound ReceiveConsumed path is never
// gated.
func (s *State) Gated() bool {
	return s.Paused || s.EmergencyStopped
}

// Category is a named reallocation budget line. The per-period limit
// bounds how much may be reallocated under this category within one
// period; TotalAllocated accumulates across all periods and never resets.
type Category struct {
	types.Entity
	ID             id.CategoryID `json:"id"`
	Key            string        `json:"key"`
	PeriodLimit    types.Amount  `json:"period_limit"`
	TotalAllocated types.Amount  `json:"total_allocated"`
	Active         bool          `json:"active"`
}

// Allocation records one quota-gated outbound treasury transfer.
// The log is append-only.
type Allocation struct {
	ID          id.AllocationID `json:"id"`
	Allocator   string          `json:"allocator"`
	Recipient   string          `json:"recipient"`
	Amount      types.Amount    `json:"amount"`
	CategoryKey string          `json:"category_key"`
	PeriodIndex uint64          `json:"period_index"`
	Reason      string          `json:"reason"`
	Timestamp   time.Time       `json:"timestamp"`
}

// Withdrawal records one operational outbound treasury transfer.
// Withdrawals bypass category quotas. The log is append-only.
type Withdrawal struct {
	ID          id.WithdrawalID `json:"id"`
	Owner       string          `json:"owner"`
	Destination string          `json:"destination"`
	Amount      types.Amount    `json:"amount"`
	Purpose     string          `json:"purpose"`
	Timestamp   time.Time       `json:"timestamp"`
}

// RecordOpts filters allocation and withdrawal queries.
type RecordOpts struct {
	CategoryKey string
	Start       time.Time
	End         time.Time
	Limit       int
	Offset      int
}

// CategoryListOpts filters category listings.
type CategoryListOpts struct {
	ActiveOnly bool
}
