package escrow

import "context"

// Store is the persistence interface for escrow locks.
type Store interface {
	// AppendLock appends a lock to its owner's list, assigning the next
	// dense per-owner index. The assigned index is written back to the lock.
	AppendLock(ctx context.Context, l *Lock) error
	GetLock(ctx context.Context, owner string, index uint64) (*Lock, error)
	ListLocks(ctx context.Context, owner string, opts ListOpts) ([]*Lock, error)
	UpdateLock(ctx context.Context, l *Lock) error

	GetEscrowSettings(ctx context.Context) (*Settings, error)
	SaveEscrowSettings(ctx context.Context, s *Settings) error
}
