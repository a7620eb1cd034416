package operator

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"
)

func TestService_RegisterAndLogin(t *testing.T) {
	repo := newFakeRepository()
	svc := NewService(repo, "test-secret")

	req := RegisterRequest{
		Email:    "alice@example.com",
		Password: "supersafe",
		FullName: "Alice Operator",
	}

	ctx := context.Background()
	op, err := svc.Register(ctx, req)
	if err != nil {
		t.Fatalf("register: unexpected error: %v", err)
	}
	if op.Role != RoleDashboardViewer {
		t.Fatalf("register: expected default role %s got %s", RoleDashboardViewer, op.Role)
	}

	resp, err := svc.Login(ctx, LoginRequest{Email: req.Email, Password: req.Password})
	if err != nil {
		t.Fatalf("login: unexpected error: %v", err)
	}
	if resp.Token == "" {
		t.Fatal("login: expected token, got empty string")
	}

	id, role, err := svc.VerifyToken(resp.Token)
	if err != nil {
		t.Fatalf("verify token: %v", err)
	}
	if id != op.ID {
		t.Fatalf("verify token: expected %q got %q", op.ID, id)
	}
	if role != RoleDashboardViewer {
		t.Fatalf("verify token: expected role %s got %s", RoleDashboardViewer, role)
	}
}

func TestService_RegisterValidation(t *testing.T) {
	repo := newFakeRepository()
	svc := NewService(repo, "test-secret")

	_, err := svc.Register(context.Background(), RegisterRequest{
		Email:    "alice@example.com",
		Password: "short",
		FullName: "Alice Operator",
	})
	if !errors.Is(err, ErrWeakPassword) {
		t.Fatalf("expected ErrWeakPassword, got %v", err)
	}
}

func TestService_DuplicateEmail(t *testing.T) {
	repo := newFakeRepository()
	svc := NewService(repo, "test-secret")

	req := RegisterRequest{Email: "alice@example.com", Password: "strongpassword", FullName: "Alice"}
	if _, err := svc.Register(context.Background(), req); err != nil {
		t.Fatalf("first register: %v", err)
	}
	if _, err := svc.Register(context.Background(), req); !errors.Is(err, ErrDuplicateEmail) {
		t.Fatalf("expected ErrDuplicateEmail, got %v", err)
	}
}

func TestService_LoginInvalidCredentials(t *testing.T) {
	repo := newFakeRepository()
	svc := NewService(repo, "test-secret")

	if _, err := svc.Login(context.Background(), LoginRequest{Email: "missing@example.com", Password: "whatever"}); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}

	req := RegisterRequest{Email: "bob@example.com", Password: "strongpassword", FullName: "Bob"}
	if _, err := svc.Register(context.Background(), req); err != nil {
		t.Fatalf("register: %v", err)
	}
	if _, err := svc.Login(context.Background(), LoginRequest{Email: req.Email, Password: "wrongpassword"}); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

type fakeRepository struct {
	byEmail map[string]Operator
	byID    map[string]Operator
	nextID  int
}

func newFakeRepository() *fakeRepository {
	return &fakeRepository{
		byEmail: make(map[string]Operator),
		byID:    make(map[string]Operator),
		nextID:  1,
	}
}

func (f *fakeRepository) Create(ctx context.Context, params CreateParams) (Operator, error) {
	if _, exists := f.byEmail[strings.ToLower(params.Email)]; exists {
		return Operator{}, ErrDuplicateEmail
	}

	id := fmt.Sprintf("operator-%d", f.nextID)
	f.nextID++

	op := Operator{
		ID:           id,
		Email:        params.Email,
		FullName:     params.FullName,
		PasswordHash: params.PasswordHash,
		Role:         params.Role,
		CreatedAt:    time.Now().UTC(),
		UpdatedAt:    time.Now().UTC(),
	}

	f.byEmail[strings.ToLower(op.Email)] = op
	f.byID[op.ID] = op
	return op, nil
}

func (f *fakeRepository) GetByEmail(ctx context.Context, email string) (Operator, error) {
	op, ok := f.byEmail[strings.ToLower(email)]
	if !ok {
		return Operator{}, ErrNotFound
	}
	return op, nil
}

func (f *fakeRepository) GetByID(ctx context.Context, id string) (Operator, error) {
	op, ok := f.byID[id]
	if !ok {
		return Operator{}, ErrNotFound
	}
	return op, nil
}
