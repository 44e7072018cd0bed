package service

import (
	"container/list"
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/greenleaf/storefront/internal/core/ports"
)

// Registry limits applied when Policy leaves them zero.
const (
	DefaultMaxOpenProfiles    = 10000
	DefaultProfileIdleTimeout = 30 * time.Minute
)

// Policy holds the storefront choices the stores leave open.
type Policy struct {
	// ClearCartOnLogout empties the cart when the session logs out. The
	// default keeps the cart, so a cart outlives the session that filled it.
	ClearCartOnLogout bool

	// MaxOpen caps the profiles held in memory. Opening one more evicts the
	// least recently used.
	MaxOpen int
	// IdleTimeout is how long an unused profile stays in memory before Sweep
	// evicts it.
	IdleTimeout time.Duration
}

// Profile is one browser profile: its session and its cart, each mirrored
// into the profile's own slice of durable storage.
type Profile struct {
	ID      string
	Session *AuthSession
	Cart    *CartStore

	policy Policy
	once   sync.Once
	err    error

	// guarded by Profiles.mu
	elem     *list.Element
	lastUsed time.Time
}

// Logout ends the session and applies the logout policy to the cart.
func (p *Profile) Logout(ctx context.Context) error {
	err := p.Session.Logout(ctx)
	if p.policy.ClearCartOnLogout {
		err = errors.Join(err, p.Cart.ClearCart(ctx))
	}
	return err
}

func (p *Profile) rehydrate(ctx context.Context) error {
	p.once.Do(func() {
		p.err = errors.Join(p.Session.Rehydrate(ctx), p.Cart.Rehydrate(ctx))
	})
	return p.err
}

// Profiles is the registry of open browser profiles. Each profile is
// created and rehydrated on first Open and stays in memory until it is
// evicted, either because the registry is full or because it sat idle.
// Every mutation is already in durable storage, so an evicted profile
// rehydrates unchanged on its next Open.
type Profiles struct {
	storage  ports.Storage
	observer ports.Observer
	policy   Policy
	log      zerolog.Logger
	now      func() time.Time

	mu       sync.Mutex
	profiles map[string]*Profile
	lru      *list.List // front = most recently used
	hooks    []func(*Profile)
}

func NewProfiles(storage ports.Storage, policy Policy, observer ports.Observer, log zerolog.Logger) *Profiles {
	if observer == nil {
		observer = ports.NopObserver{}
	}
	if policy.MaxOpen <= 0 {
		policy.MaxOpen = DefaultMaxOpenProfiles
	}
	if policy.IdleTimeout <= 0 {
		policy.IdleTimeout = DefaultProfileIdleTimeout
	}
	return &Profiles{
		storage:  storage,
		observer: observer,
		policy:   policy,
		log:      log,
		now:      time.Now,
		profiles: make(map[string]*Profile),
		lru:      list.New(),
	}
}

// OnOpen registers fn to run for every profile created after the call,
// before it is rehydrated. It is used to attach subscribers.
func (r *Profiles) OnOpen(fn func(*Profile)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.hooks = append(r.hooks, fn)
}

// Open returns the profile for id, creating and rehydrating it on first use.
// When rehydration fails because storage is unreachable the profile is
// dropped, so the next Open retries.
func (r *Profiles) Open(ctx context.Context, id string) (*Profile, error) {
	if id == "" {
		return nil, fmt.Errorf("open profile: empty id")
	}

	r.mu.Lock()
	p, ok := r.profiles[id]
	if ok {
		r.lru.MoveToFront(p.elem)
	} else {
		p = r.newProfile(id)
		p.elem = r.lru.PushFront(p)
		r.profiles[id] = p
		for _, hook := range r.hooks {
			hook(p)
		}
		evicted := 0
		for r.lru.Len() > r.policy.MaxOpen {
			r.removeLocked(r.lru.Back().Value.(*Profile))
			evicted++
		}
		if evicted > 0 {
			r.observer.ProfilesEvicted(EvictCapacity, evicted)
		}
	}
	p.lastUsed = r.now()
	r.mu.Unlock()

	if err := p.rehydrate(ctx); err != nil {
		r.mu.Lock()
		if r.profiles[id] == p {
			r.removeLocked(p)
		}
		r.mu.Unlock()
		r.log.Error().Err(err).Str("profile_id", id).Msg("profile rehydration failed")
		return nil, fmt.Errorf("open profile %s: %w", id, err)
	}
	return p, nil
}

// Loaded reports whether the profile id is currently open.
func (r *Profiles) Loaded(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.profiles[id]
	return ok
}

// Eviction reasons reported to the Observer.
const (
	EvictCapacity = "capacity"
	EvictIdle     = "idle"
)

// Sweep evicts every profile unused for longer than the idle timeout and
// returns how many it dropped.
func (r *Profiles) Sweep() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	cutoff := r.now().Add(-r.policy.IdleTimeout)
	evicted := 0
	for e := r.lru.Back(); e != nil; {
		p := e.Value.(*Profile)
		if !p.lastUsed.Before(cutoff) {
			break // the rest were used more recently
		}
		prev := e.Prev()
		r.removeLocked(p)
		evicted++
		e = prev
	}
	if evicted > 0 {
		r.observer.ProfilesEvicted(EvictIdle, evicted)
		r.log.Debug().Int("evicted", evicted).Int("open", len(r.profiles)).Msg("swept idle profiles")
	}
	return evicted
}

// RunSweeper calls Sweep every interval until ctx is cancelled.
func (r *Profiles) RunSweeper(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			r.Sweep()
		case <-ctx.Done():
			return
		}
	}
}

// removeLocked drops p from the registry. Callers must hold r.mu.
func (r *Profiles) removeLocked(p *Profile) {
	delete(r.profiles, p.ID)
	if p.elem != nil {
		r.lru.Remove(p.elem)
		p.elem = nil
	}
}

// Len reports how many profiles are open.
func (r *Profiles) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.profiles)
}

func (r *Profiles) newProfile(id string) *Profile {
	scoped := scopedStorage{inner: r.storage, prefix: ProfileKeyPrefix(id)}
	log := r.log.With().Str("profile_id", id).Logger()
	return &Profile{
		ID:      id,
		Session: NewAuthSession(scoped, r.observer, log),
		Cart:    NewCartStore(scoped, r.observer, log),
		policy:  r.policy,
	}
}

// ProfileKeyPrefix is the durable key prefix of a profile's entries.
func ProfileKeyPrefix(id string) string {
	return "profile:" + id + ":"
}

// scopedStorage confines a profile to its own key prefix, the way browser
// local storage is scoped to one browser profile.
type scopedStorage struct {
	inner  ports.Storage
	prefix string
}

func (s scopedStorage) Get(ctx context.Context, key string) (string, bool, error) {
	return s.inner.Get(ctx, s.prefix+key)
}

func (s scopedStorage) Set(ctx context.Context, key, value string) error {
	return s.inner.Set(ctx, s.prefix+key, value)
}

func (s scopedStorage) Delete(ctx context.Context, keys ...string) error {
	scoped := make([]string, len(keys))
	for i, k := range keys {
		scoped[i] = s.prefix + k
	}
	return s.inner.Delete(ctx, scoped...)
}
