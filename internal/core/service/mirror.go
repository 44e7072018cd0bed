package service

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/greenleaf/storefront/internal/core/domain"
	"github.com/greenleaf/storefront/internal/core/ports"
)

// command is a single store mutation. apply derives the next state from the
// current one; persist mirrors that state into durable storage.
type command[T any] struct {
	name    string
	apply   func(current T) T
	persist func(ctx context.Context, next T) error
}

// mirror owns an in-memory state value and runs every mutation through one
// mutate-then-persist path, so each command is persisted exactly once.
//
// Subscribers are notified while the lock is held, which keeps notification
// order identical to mutation order. They must not call back into the store.
type mirror[T any] struct {
	store    string
	observer ports.Observer
	log      zerolog.Logger

	mu          sync.Mutex
	state       T
	initialized bool // set by the first rehydration or mutation

	subs subscribers[T]
	copy func(T) T
}

func newMirror[T any](store string, initial T, copyFn func(T) T, observer ports.Observer, log zerolog.Logger) *mirror[T] {
	if observer == nil {
		observer = ports.NopObserver{}
	}
	if copyFn == nil {
		copyFn = func(v T) T { return v }
	}
	return &mirror[T]{
		store:    store,
		observer: observer,
		log:      log.With().Str("store", store).Logger(),
		state:    initial,
		copy:     copyFn,
	}
}

// run applies cmd and persists the result. The in-memory state keeps the
// mutation even when persisting fails; the storage error is returned wrapped.
func (m *mirror[T]) run(ctx context.Context, cmd command[T]) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	next := cmd.apply(m.state)
	m.state = next
	m.initialized = true

	var err error
	if perr := cmd.persist(ctx, next); perr != nil {
		m.observer.StorageFailed(m.store, cmd.name)
		m.log.Error().Err(perr).Str("op", cmd.name).Msg("failed to persist state")
		err = fmt.Errorf("%s %s: %w: %w", m.store, cmd.name, domain.ErrNotPersisted, perr)
	}
	m.observer.Mutation(m.store, cmd.name)

	m.subs.notify(m.copy(next))
	return err
}

// restore replaces the state without persisting. Used by rehydration.
// Callers must hold m.mu.
func (m *mirror[T]) restore(state T) {
	m.state = state
	m.initialized = true
	m.subs.notify(m.copy(state))
}

func (m *mirror[T]) get() T {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.copy(m.state)
}

// subscribers is a set of change callbacks.
type subscribers[T any] struct {
	mu   sync.Mutex
	next int
	fns  map[int]func(T)
}

func (s *subscribers[T]) add(fn func(T)) (unsubscribe func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fns == nil {
		s.fns = make(map[int]func(T))
	}
	id := s.next
	s.next++
	s.fns[id] = fn

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.fns, id)
			s.mu.Unlock()
		})
	}
}

func (s *subscribers[T]) notify(v T) {
	s.mu.Lock()
	fns := make([]func(T), 0, len(s.fns))
	for _, fn := range s.fns {
		fns = append(fns, fn)
	}
	s.mu.Unlock()

	for _, fn := range fns {
		fn(v)
	}
}
