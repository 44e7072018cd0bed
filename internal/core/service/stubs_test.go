package service

import (
	"context"
	"errors"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/greenleaf/storefront/internal/core/domain"
	"github.com/greenleaf/storefront/internal/core/ports"
)

// ---------------------------------------------------------------------------
// Stubs
// ---------------------------------------------------------------------------

var errStorageDown = errors.New("storage down")

type stubStorage struct {
	mu      sync.Mutex
	data    map[string]string
	sets    []string
	deletes []string
	getErr  error
	setErr  error
	delErr  error
}

func newStubStorage() *stubStorage {
	return &stubStorage{data: make(map[string]string)}
}

func (s *stubStorage) Get(_ context.Context, key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.getErr != nil {
		return "", false, s.getErr
	}
	v, ok := s.data[key]
	return v, ok, nil
}

func (s *stubStorage) Set(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.setErr != nil {
		return s.setErr
	}
	s.sets = append(s.sets, key)
	s.data[key] = value
	return nil
}

func (s *stubStorage) Delete(_ context.Context, keys ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.delErr != nil {
		return s.delErr
	}
	for _, k := range keys {
		s.deletes = append(s.deletes, k)
		delete(s.data, k)
	}
	return nil
}

func (s *stubStorage) has(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.data[key]
	return ok
}

type recordingObserver struct {
	mu          sync.Mutex
	mutations   []string
	transitions []string
	rehydrated  []string
	failures    []string
	evicted     map[string]int
}

func (o *recordingObserver) Mutation(store, op string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.mutations = append(o.mutations, store+":"+op)
}

func (o *recordingObserver) SessionTransition(from, to domain.SessionState) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.transitions = append(o.transitions, string(from)+"->"+string(to))
}

func (o *recordingObserver) Rehydrated(store, result string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.rehydrated = append(o.rehydrated, store+":"+result)
}

func (o *recordingObserver) StorageFailed(store, op string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.failures = append(o.failures, store+":"+op)
}

func (o *recordingObserver) ProfilesEvicted(reason string, n int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.evicted == nil {
		o.evicted = make(map[string]int)
	}
	o.evicted[reason] += n
}

type stubCatalog struct {
	products map[string]domain.Product
	err      error
}

func (c *stubCatalog) GetProduct(_ context.Context, id string) (*domain.Product, error) {
	if c.err != nil {
		return nil, c.err
	}
	p, ok := c.products[id]
	if !ok {
		return nil, domain.ErrProductNotFound
	}
	return &p, nil
}

func (c *stubCatalog) ListProducts(context.Context, ports.ProductQuery) (*ports.ProductPage, error) {
	return nil, nil
}

// ---------------------------------------------------------------------------
// Fixtures
// ---------------------------------------------------------------------------

func testProduct(id, price string) domain.Product {
	return domain.Product{
		ID:       id,
		Name:     "Product " + id,
		Category: domain.CategoryPlants,
		Price:    decimal.RequireFromString(price),
		Stock:    50,
		SKU:      "SKU-" + id,
		Status:   domain.ProductActive,
	}
}

func testUser() domain.User {
	return domain.User{
		ID:       "user_1",
		Name:     "Alice",
		Email:    "alice@example.com",
		Role:     domain.RoleCustomer,
		IsActive: true,
	}
}
