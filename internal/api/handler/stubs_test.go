package handler

import (
	"context"
	"errors"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/greenleaf/storefront/internal/core/domain"
	"github.com/greenleaf/storefront/internal/core/ports"
	"github.com/greenleaf/storefront/internal/core/service"
	"github.com/greenleaf/storefront/internal/infrastructure/storage"
)

type stubCatalog struct {
	products map[string]domain.Product
	listFn   func(q ports.ProductQuery) (*ports.ProductPage, error)
	err      error
}

func (s *stubCatalog) GetProduct(_ context.Context, id string) (*domain.Product, error) {
	if s.err != nil {
		return nil, s.err
	}
	p, ok := s.products[id]
	if !ok {
		return nil, domain.ErrProductNotFound
	}
	return &p, nil
}

func (s *stubCatalog) ListProducts(_ context.Context, q ports.ProductQuery) (*ports.ProductPage, error) {
	if s.listFn != nil {
		return s.listFn(q)
	}
	return &ports.ProductPage{}, nil
}

func product(id, price string, stock int) domain.Product {
	return domain.Product{
		ID:       id,
		Name:     "Plant " + id,
		Category: domain.CategoryPlants,
		Price:    decimal.RequireFromString(price),
		Stock:    stock,
		Status:   domain.ProductActive,
	}
}

// testEnv is one profile over in-memory storage plus an echo instance with
// the production validator.
type testEnv struct {
	e        *echo.Echo
	store    *storage.Memory
	profiles *service.Profiles
	profile  *service.Profile
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	store := storage.NewMemory()
	profiles := service.NewProfiles(store, service.Policy{}, nil, zerolog.Nop())
	p, err := profiles.Open(context.Background(), "3f1c1b1e-8a53-4c55-9a41-6f4d3c2b1a00")
	if err != nil {
		t.Fatalf("open profile: %v", err)
	}
	e := echo.New()
	e.Validator = NewValidator()
	return &testEnv{e: e, store: store, profiles: profiles, profile: p}
}

// call runs h against a request carrying body and returns the recorder and
// the handler error.
func (env *testEnv) call(h echo.HandlerFunc, method, target string, body io.Reader, params ...string) (*httptest.ResponseRecorder, error) {
	req := httptest.NewRequest(method, target, body)
	if body != nil {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	c := env.e.NewContext(req, rec)
	c.Set("profile", env.profile)
	if len(params) > 0 {
		names := make([]string, 0, len(params)/2)
		values := make([]string, 0, len(params)/2)
		for i := 0; i+1 < len(params); i += 2 {
			names = append(names, params[i])
			values = append(values, params[i+1])
		}
		c.SetParamNames(names...)
		c.SetParamValues(values...)
	}
	return rec, h(c)
}

func httpCode(t *testing.T, err error) int {
	t.Helper()
	var he *echo.HTTPError
	if !errors.As(err, &he) {
		t.Fatalf("expected *echo.HTTPError, got %v", err)
	}
	return he.Code
}

func expectStatus(t *testing.T, rec *httptest.ResponseRecorder, err error, want int) {
	t.Helper()
	if err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != want {
		t.Fatalf("expected %d, got %d: %s", want, rec.Code, rec.Body.String())
	}
}

