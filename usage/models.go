// Package usage defines the append-only consumption event log.
package usage

import (
	"time"

	"github.com/xraph/vault/id"
	"github.com/xraph/vault/types"
)

// Event records one metered debit against a lock. Events are immutable
// once written.
type Event struct {
	ID         id.UsageID   `json:"id"`
	Owner      string       `json:"owner"`
	LockIndex  uint64       `json:"lock_index"`
	ServiceKey string       `json:"service_key"`
	Units      int64        `json:"units"`
	Cost       types.Amount `json:"cost"`
	Backend    string       `json:"backend"`
	ExternalID string       `json:"external_id"`
	Timestamp  time.Time    `json:"timestamp"`
}

// QueryOpts filters consumption event queries.
type QueryOpts struct {
	Owner      string
	ServiceKey string
	Start      time.Time
	End        time.Time
	Limit      int
	Offset     int
}
