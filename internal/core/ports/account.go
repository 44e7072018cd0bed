package ports

import (
	"context"

	"github.com/greenleaf/storefront/internal/core/domain"
)

// RegisterInput is the sign-up form payload.
type RegisterInput struct {
	Name     string
	Email    string
	Phone    string
	Password string
}

// AuthResult is what the remote login endpoint returns.
type AuthResult struct {
	User  domain.User `json:"user"`
	Token string      `json:"token"`
}

// AccountAPI is the remote authentication and order-history API.
type AccountAPI interface {
	Register(ctx context.Context, in RegisterInput) (*domain.User, error)
	Login(ctx context.Context, email, password string) (*AuthResult, error)
	ListOrders(ctx context.Context, token string) ([]domain.Order, error)
}
