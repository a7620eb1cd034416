package caller

import (
	"context"
	"fmt"
	"testing"
	"time"
)

func TestService_CreateValidation(t *testing.T) {
	svc := NewService(newFakeStore())

	if _, err := svc.Create(context.Background(), CreateParams{Name: "", DailyLimit: 0}); err == nil {
		t.Fatal("expected error for missing name")
	}
	if _, err := svc.Create(context.Background(), CreateParams{Name: "Alice", DailyLimit: -1}); err == nil {
		t.Fatal("expected error for negative daily limit")
	}
}

func TestService_CreateAndGet(t *testing.T) {
	svc := NewService(newFakeStore())

	c, err := svc.Create(context.Background(), CreateParams{Name: "Alice", DailyLimit: 10, States: []string{"CA"}})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if c.Status != StatusActive {
		t.Fatalf("expected new caller active, got %s", c.Status)
	}

	got, err := svc.Get(context.Background(), c.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Name != "Alice" {
		t.Fatalf("expected name Alice got %s", got.Name)
	}
}

func TestService_Pause(t *testing.T) {
	svc := NewService(newFakeStore())
	c, _ := svc.Create(context.Background(), CreateParams{Name: "Alice", DailyLimit: 10})

	paused, err := svc.Pause(context.Background(), c.ID)
	if err != nil {
		t.Fatalf("pause: %v", err)
	}
	if paused.Status != StatusPaused {
		t.Fatalf("expected paused status, got %s", paused.Status)
	}
}

type fakeStore struct {
	byID   map[string]Caller
	nextID int
}

func newFakeStore() *fakeStore {
	return &fakeStore{byID: make(map[string]Caller), nextID: 1}
}

func (f *fakeStore) Create(ctx context.Context, params CreateParams) (Caller, error) {
	id := fmt.Sprintf("caller-%d", f.nextID)
	f.nextID++
	c := Caller{
		ID:         id,
		Name:       params.Name,
		Role:       params.Role,
		Languages:  params.Languages,
		States:     params.States,
		DailyLimit: params.DailyLimit,
		Status:     StatusActive,
		CreatedAt:  time.Now().UTC(),
		UpdatedAt:  time.Now().UTC(),
	}
	f.byID[id] = c
	return c, nil
}

func (f *fakeStore) GetByID(ctx context.Context, id string) (Caller, error) {
	c, ok := f.byID[id]
	if !ok {
		return Caller{}, ErrNotFound
	}
	return c, nil
}

func (f *fakeStore) List(ctx context.Context, filters ListFilters) ([]Caller, error) {
	out := []Caller{}
	for _, c := range f.byID {
		out = append(out, c)
	}
	return out, nil
}

func (f *fakeStore) Update(ctx context.Context, id string, params UpdateParams) (Caller, error) {
	c, ok := f.byID[id]
	if !ok {
		return Caller{}, ErrNotFound
	}
	if params.Name != nil {
		c.Name = *params.Name
	}
	if params.DailyLimit != nil {
		c.DailyLimit = *params.DailyLimit
	}
	if params.States != nil {
		c.States = params.States
	}
	f.byID[id] = c
	return c, nil
}

func (f *fakeStore) SetStatus(ctx context.Context, id string, status Status) (Caller, error) {
	c, ok := f.byID[id]
	if !ok {
		return Caller{}, ErrNotFound
	}
	c.Status = status
	f.byID[id] = c
	return c, nil
}
