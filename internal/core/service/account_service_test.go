package service

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"

	"github.com/greenleaf/storefront/internal/core/domain"
	"github.com/greenleaf/storefront/internal/core/ports"
)

type stubAccountAPI struct {
	registerFn func(ctx context.Context, in ports.RegisterInput) (*domain.User, error)
	loginFn    func(ctx context.Context, email, password string) (*ports.AuthResult, error)
	ordersFn   func(ctx context.Context, token string) ([]domain.Order, error)
}

func (s *stubAccountAPI) Register(ctx context.Context, in ports.RegisterInput) (*domain.User, error) {
	return s.registerFn(ctx, in)
}

func (s *stubAccountAPI) Login(ctx context.Context, email, password string) (*ports.AuthResult, error) {
	return s.loginFn(ctx, email, password)
}

func (s *stubAccountAPI) ListOrders(ctx context.Context, token string) ([]domain.Order, error) {
	return s.ordersFn(ctx, token)
}

func openProfile(t *testing.T) *Profile {
	t.Helper()
	reg := NewProfiles(newStubStorage(), Policy{}, nil, zerolog.Nop())
	p, err := reg.Open(context.Background(), "p1")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	return p
}

func TestAccountService_Login(t *testing.T) {
	api := &stubAccountAPI{
		loginFn: func(_ context.Context, email, password string) (*ports.AuthResult, error) {
			if email != "alice@example.com" || password != "secret" {
				t.Fatalf("unexpected args %s %s", email, password)
			}
			return &ports.AuthResult{User: testUser(), Token: "tok"}, nil
		},
	}
	svc := NewAccountService(api, zerolog.Nop())
	p := openProfile(t)

	user, err := svc.Login(context.Background(), p, "alice@example.com", "secret")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if user.ID != "user_1" || p.Session.Token() != "tok" {
		t.Fatalf("session not started: %+v", p.Session.Session())
	}
}

func TestAccountService_LoginFailureLeavesSession(t *testing.T) {
	api := &stubAccountAPI{
		loginFn: func(context.Context, string, string) (*ports.AuthResult, error) {
			return nil, domain.ErrInvalidCredentials
		},
	}
	svc := NewAccountService(api, zerolog.Nop())
	p := openProfile(t)

	if _, err := svc.Login(context.Background(), p, "a@b.c", "bad"); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if _, err := svc.Login(context.Background(), p, "", ""); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for blank form, got %v", err)
	}
	if p.Session.IsAuthenticated() {
		t.Fatalf("session must stay anonymous")
	}
}

func TestAccountService_LoginEmptyTokenFromUpstream(t *testing.T) {
	api := &stubAccountAPI{
		loginFn: func(context.Context, string, string) (*ports.AuthResult, error) {
			return &ports.AuthResult{User: testUser()}, nil
		},
	}
	svc := NewAccountService(api, zerolog.Nop())
	if _, err := svc.Login(context.Background(), openProfile(t), "a@b.c", "pw"); !errors.Is(err, domain.ErrEmptyToken) {
		t.Fatalf("expected ErrEmptyToken, got %v", err)
	}
}

func TestAccountService_RegisterThenLogin(t *testing.T) {
	var calls []string
	api := &stubAccountAPI{
		registerFn: func(_ context.Context, in ports.RegisterInput) (*domain.User, error) {
			calls = append(calls, "register:"+in.Email)
			u := testUser()
			return &u, nil
		},
		loginFn: func(_ context.Context, email, _ string) (*ports.AuthResult, error) {
			calls = append(calls, "login:"+email)
			return &ports.AuthResult{User: testUser(), Token: "tok"}, nil
		},
	}
	svc := NewAccountService(api, zerolog.Nop())
	p := openProfile(t)

	_, err := svc.Register(context.Background(), p, ports.RegisterInput{Name: "Alice", Email: "alice@example.com", Password: "secret"})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if len(calls) != 2 || calls[0] != "register:alice@example.com" || calls[1] != "login:alice@example.com" {
		t.Fatalf("unexpected call sequence %v", calls)
	}
	if !p.Session.IsAuthenticated() {
		t.Fatalf("expected session after register")
	}
}

func TestAccountService_RegisterConflict(t *testing.T) {
	api := &stubAccountAPI{
		registerFn: func(context.Context, ports.RegisterInput) (*domain.User, error) {
			return nil, domain.ErrUserExists
		},
		loginFn: func(context.Context, string, string) (*ports.AuthResult, error) {
			t.Fatalf("login should not be attempted")
			return nil, nil
		},
	}
	svc := NewAccountService(api, zerolog.Nop())
	if _, err := svc.Register(context.Background(), openProfile(t), ports.RegisterInput{Email: "a@b.c", Password: "x"}); !errors.Is(err, domain.ErrUserExists) {
		t.Fatalf("expected ErrUserExists, got %v", err)
	}
}

func TestAccountService_Orders(t *testing.T) {
	api := &stubAccountAPI{
		ordersFn: func(_ context.Context, token string) ([]domain.Order, error) {
			if token != "tok" {
				t.Fatalf("unexpected token %q", token)
			}
			return []domain.Order{{ID: "o1", Status: domain.OrderShipped}}, nil
		},
	}
	svc := NewAccountService(api, zerolog.Nop())
	p := openProfile(t)

	if _, err := svc.Orders(context.Background(), p); !errors.Is(err, domain.ErrNotAuthenticated) {
		t.Fatalf("expected ErrNotAuthenticated, got %v", err)
	}

	_ = p.Session.Login(context.Background(), testUser(), "tok")
	orders, err := svc.Orders(context.Background(), p)
	if err != nil || len(orders) != 1 {
		t.Fatalf("orders: %v %v", orders, err)
	}
}
