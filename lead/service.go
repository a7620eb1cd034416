package lead

import "context"

// Reader abstracts the read-side of the lead repository for the
// listing/detail HTTP surface.
type Reader interface {
	GetByID(ctx context.Context, id string) (Lead, error)
	List(ctx context.Context, filters Filters) ([]WithAssignment, error)
}

// Service exposes the read-only lead surface. Ingestion is driven
// directly by the webhook handler together with the assignment
// engine, inside one transaction — see assignment.Engine.Assign.
type Service struct {
	reader Reader
}

// NewService builds a Service backed by reader.
func NewService(reader Reader) *Service {
	return &Service{reader: reader}
}

// Get returns a single lead.
func (s *Service) Get(ctx context.Context, id string) (Lead, error) {
	return s.reader.GetByID(ctx, id)
}

// List returns leads matching filters.
func (s *Service) List(ctx context.Context, filters Filters) ([]WithAssignment, error) {
	return s.reader.List(ctx, filters)
}
