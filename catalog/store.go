package catalog

import "context"

// Store is the persistence interface for the service catalog.
type Store interface {
	CreateService(ctx context.Context, s *Service) error
	GetService(ctx context.Context, key string) (*Service, error)
	ListServices(ctx context.Context, opts ListOpts) ([]*Service, error)
	UpdateService(ctx context.Context, s *Service) error
}
