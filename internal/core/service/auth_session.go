package service

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/greenleaf/storefront/internal/core/domain"
	"github.com/greenleaf/storefront/internal/core/ports"
)

const sessionStore = "session"

// AuthSession holds at most one authenticated session and mirrors it into
// durable storage under the token and user keys.
type AuthSession struct {
	storage  ports.Storage
	observer ports.Observer
	log      zerolog.Logger
	m        *mirror[domain.Session]
}

// NewAuthSession returns an uninitialized session; call Rehydrate once
// before first use.
func NewAuthSession(storage ports.Storage, observer ports.Observer, log zerolog.Logger) *AuthSession {
	if observer == nil {
		observer = ports.NopObserver{}
	}
	return &AuthSession{
		storage:  storage,
		observer: observer,
		log:      log,
		m:        newMirror(sessionStore, domain.Session{}, nil, observer, log),
	}
}

// Login replaces the session with {user, token}. It performs no remote
// authentication; callers pass the result of the remote login.
func (s *AuthSession) Login(ctx context.Context, user domain.User, token string) error {
	if token == "" {
		return domain.ErrEmptyToken
	}
	raw, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("session login: encode user: %w", err)
	}

	return s.m.run(ctx, command[domain.Session]{
		name: "login",
		apply: func(cur domain.Session) domain.Session {
			s.observer.SessionTransition(s.stateOf(cur), domain.SessionAuthenticated)
			return domain.Session{User: &user, Token: token}
		},
		persist: func(ctx context.Context, _ domain.Session) error {
			if err := s.storage.Set(ctx, ports.KeyToken, token); err != nil {
				return err
			}
			return s.storage.Set(ctx, ports.KeyUser, string(raw))
		},
	})
}

// Logout clears the session and deletes both durable keys. Calling it on an
// empty session is harmless.
func (s *AuthSession) Logout(ctx context.Context) error {
	return s.m.run(ctx, command[domain.Session]{
		name: "logout",
		apply: func(cur domain.Session) domain.Session {
			if from := s.stateOf(cur); from != domain.SessionAnonymous {
				s.observer.SessionTransition(from, domain.SessionAnonymous)
			}
			return domain.Session{}
		},
		persist: func(ctx context.Context, _ domain.Session) error {
			return s.storage.Delete(ctx, ports.KeyToken, ports.KeyUser)
		},
	})
}

// Rehydrate primes the session from durable storage. It is a no-op once the
// session has been rehydrated or mutated.
//
// A user value that cannot be parsed is treated as corrupt: both keys are
// discarded and the session stays empty. That case is logged, not returned.
// An error is returned only when the storage backend itself fails.
func (s *AuthSession) Rehydrate(ctx context.Context) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	if s.m.initialized {
		return nil
	}

	token, hasToken, err := s.storage.Get(ctx, ports.KeyToken)
	if err != nil {
		s.m.restore(domain.Session{})
		s.observer.Rehydrated(sessionStore, ports.RehydrateFailed)
		return fmt.Errorf("session rehydrate: read token: %w", err)
	}
	raw, hasUser, err := s.storage.Get(ctx, ports.KeyUser)
	if err != nil {
		s.m.restore(domain.Session{})
		s.observer.Rehydrated(sessionStore, ports.RehydrateFailed)
		return fmt.Errorf("session rehydrate: read user: %w", err)
	}

	if !hasToken || !hasUser || token == "" {
		s.m.restore(domain.Session{})
		s.observer.Rehydrated(sessionStore, ports.RehydrateEmpty)
		s.observer.SessionTransition(domain.SessionUninitialized, domain.SessionAnonymous)
		return nil
	}

	var user *domain.User
	if err := json.Unmarshal([]byte(raw), &user); err != nil || user == nil {
		s.log.Warn().Err(err).Msg("discarding corrupt user snapshot")
		if derr := s.storage.Delete(ctx, ports.KeyToken, ports.KeyUser); derr != nil {
			s.observer.StorageFailed(sessionStore, "rehydrate")
			s.log.Error().Err(derr).Msg("failed to delete corrupt session keys")
		}
		s.m.restore(domain.Session{})
		s.observer.Rehydrated(sessionStore, ports.RehydrateCorrupt)
		s.observer.SessionTransition(domain.SessionUninitialized, domain.SessionAnonymous)
		return nil
	}

	s.m.restore(domain.Session{User: user, Token: token})
	s.observer.Rehydrated(sessionStore, ports.RehydrateRestored)
	s.observer.SessionTransition(domain.SessionUninitialized, domain.SessionAuthenticated)
	return nil
}

// Subscribe registers fn to be called with the new session after every
// change. The returned func removes the subscription.
func (s *AuthSession) Subscribe(fn func(domain.Session)) (unsubscribe func()) {
	return s.m.subs.add(fn)
}

// State reports the lifecycle state, including Uninitialized before the
// first rehydration.
func (s *AuthSession) State() domain.SessionState {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	return s.stateOf(s.m.state)
}

// Session returns a snapshot of the current session.
func (s *AuthSession) Session() domain.Session {
	return s.m.get()
}

// User returns the logged-in user, or nil.
func (s *AuthSession) User() *domain.User {
	return s.m.get().User
}

// Token returns the session token, or "".
func (s *AuthSession) Token() string {
	return s.m.get().Token
}

func (s *AuthSession) IsAuthenticated() bool {
	return s.m.get().IsAuthenticated()
}

// stateOf must be called with s.m.mu held.
func (s *AuthSession) stateOf(cur domain.Session) domain.SessionState {
	if !s.m.initialized {
		return domain.SessionUninitialized
	}
	return cur.State()
}
