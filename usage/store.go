package usage

import "context"

// Store is the persistence interface for consumption events.
// The log is append-only; there is no update or delete.
type Store interface {
	AppendUsage(ctx context.Context, e *Event) error
	QueryUsage(ctx context.Context, opts QueryOpts) ([]*Event, error)
}
