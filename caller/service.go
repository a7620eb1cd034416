package caller

import (
	"context"
	"fmt"
)

// Store abstracts the repository for the service layer.
type Store interface {
	Create(ctx context.Context, params CreateParams) (Caller, error)
	GetByID(ctx context.Context, id string) (Caller, error)
	List(ctx context.Context, filters ListFilters) ([]Caller, error)
	Update(ctx context.Context, id string, params UpdateParams) (Caller, error)
	SetStatus(ctx context.Context, id string, status Status) (Caller, error)
}

// Service exposes validated caller management operations.
type Service struct {
	store Store
}

// NewService builds a Service backed by store.
func NewService(store Store) *Service {
	return &Service{store: store}
}

// Create validates and inserts a new caller.
func (s *Service) Create(ctx context.Context, params CreateParams) (Caller, error) {
	if params.Name == "" {
		return Caller{}, fmt.Errorf("caller: name is required")
	}
	if params.DailyLimit < 0 {
		return Caller{}, fmt.Errorf("caller: invalid daily limit")
	}
	return s.store.Create(ctx, params)
}

// Get returns a single caller by id.
func (s *Service) Get(ctx context.Context, id string) (Caller, error) {
	return s.store.GetByID(ctx, id)
}

// List returns callers matching filters.
func (s *Service) List(ctx context.Context, filters ListFilters) ([]Caller, error) {
	return s.store.List(ctx, filters)
}

// Update validates and applies a partial update.
func (s *Service) Update(ctx context.Context, id string, params UpdateParams) (Caller, error) {
	if params.DailyLimit != nil && *params.DailyLimit < 0 {
		return Caller{}, fmt.Errorf("caller: invalid daily limit")
	}
	return s.store.Update(ctx, id, params)
}

// Pause marks a caller inactive; it stops receiving new assignments
// but its history is untouched. This is what the CRUD surface calls
// "delete".
func (s *Service) Pause(ctx context.Context, id string) (Caller, error) {
	return s.store.SetStatus(ctx, id, StatusPaused)
}

// Activate marks a caller active again.
func (s *Service) Activate(ctx context.Context, id string) (Caller, error) {
	return s.store.SetStatus(ctx, id, StatusActive)
}
