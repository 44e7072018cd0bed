package service

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/greenleaf/storefront/internal/core/domain"
	"github.com/greenleaf/storefront/internal/core/ports"
)

// AccountService is the page-level glue between the remote account API and
// a profile's session: it authenticates remotely, then hands the result to
// AuthSession.Login.
type AccountService struct {
	api ports.AccountAPI
	log zerolog.Logger
}

func NewAccountService(api ports.AccountAPI, log zerolog.Logger) *AccountService {
	return &AccountService{api: api, log: log}
}

// Login authenticates against the remote API and starts the profile session.
func (s *AccountService) Login(ctx context.Context, p *Profile, email, password string) (*domain.User, error) {
	if email == "" || password == "" {
		return nil, domain.ErrInvalidCredentials
	}

	res, err := s.api.Login(ctx, email, password)
	if err != nil {
		return nil, err
	}
	if err := p.Session.Login(ctx, res.User, res.Token); err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}

	s.log.Info().Str("profile_id", p.ID).Str("user_id", res.User.ID).Msg("user logged in")
	return &res.User, nil
}

// Register creates the account and logs straight in with the same
// credentials.
func (s *AccountService) Register(ctx context.Context, p *Profile, in ports.RegisterInput) (*domain.User, error) {
	if _, err := s.api.Register(ctx, in); err != nil {
		return nil, err
	}
	return s.Login(ctx, p, in.Email, in.Password)
}

// Logout ends the profile session.
func (s *AccountService) Logout(ctx context.Context, p *Profile) error {
	if err := p.Logout(ctx); err != nil {
		return fmt.Errorf("logout: %w", err)
	}
	s.log.Info().Str("profile_id", p.ID).Msg("user logged out")
	return nil
}

// Orders lists the past orders of the logged-in user.
func (s *AccountService) Orders(ctx context.Context, p *Profile) ([]domain.Order, error) {
	token := p.Session.Token()
	if token == "" {
		return nil, domain.ErrNotAuthenticated
	}
	return s.api.ListOrders(ctx, token)
}
