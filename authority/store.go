package authority

import "context"

// Store is the persistence interface for authority grants.
type Store interface {
	GrantAuthority(ctx context.Context, g *Grant) error
	RevokeAuthority(ctx context.Context, role Role, principal string) error
	HasAuthority(ctx context.Context, role Role, principal string) (bool, error)
	ListAuthorities(ctx context.Context, role Role) ([]*Grant, error)
}
