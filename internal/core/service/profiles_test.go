package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/greenleaf/storefront/internal/core/domain"
	"github.com/greenleaf/storefront/internal/core/ports"
)

func TestProfiles_IsolatesStorage(t *testing.T) {
	ctx := context.Background()
	storage := newStubStorage()
	reg := NewProfiles(storage, Policy{}, nil, zerolog.Nop())

	alice, err := reg.Open(ctx, "alice")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	bob, _ := reg.Open(ctx, "bob")

	_ = alice.Cart.AddItem(ctx, testProduct("A", "1"), 1)
	if bob.Cart.TotalItems() != 0 {
		t.Fatalf("profiles must not share carts")
	}
	if !storage.has(ProfileKeyPrefix("alice") + ports.KeyCart) {
		t.Fatalf("expected namespaced cart key, got %v", storage.data)
	}
}

func TestProfiles_OpenReturnsSameProfile(t *testing.T) {
	ctx := context.Background()
	reg := NewProfiles(newStubStorage(), Policy{}, nil, zerolog.Nop())

	var wg sync.WaitGroup
	got := make([]*Profile, 8)
	for i := range got {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			got[i], _ = reg.Open(ctx, "p1")
		}(i)
	}
	wg.Wait()

	for _, p := range got {
		if p != got[0] {
			t.Fatalf("expected a single profile instance")
		}
	}
	if reg.Len() != 1 {
		t.Fatalf("expected 1 open profile, got %d", reg.Len())
	}
}

func TestProfiles_RehydratesFromExistingState(t *testing.T) {
	ctx := context.Background()
	storage := newStubStorage()

	first := NewProfiles(storage, Policy{}, nil, zerolog.Nop())
	p, _ := first.Open(ctx, "p1")
	_ = p.Session.Login(ctx, testUser(), "tok")
	_ = p.Cart.AddItem(ctx, testProduct("A", "2"), 3)

	restarted := NewProfiles(storage, Policy{}, nil, zerolog.Nop())
	p2, err := restarted.Open(ctx, "p1")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if !p2.Session.IsAuthenticated() || p2.Cart.TotalItems() != 3 {
		t.Fatalf("expected state restored after restart")
	}
}

func TestProfiles_OpenFailureIsRetried(t *testing.T) {
	ctx := context.Background()
	storage := newStubStorage()
	storage.getErr = errStorageDown
	reg := NewProfiles(storage, Policy{}, nil, zerolog.Nop())

	if _, err := reg.Open(ctx, "p1"); !errors.Is(err, errStorageDown) {
		t.Fatalf("expected storage error, got %v", err)
	}
	if reg.Len() != 0 || reg.Loaded("p1") {
		t.Fatalf("failed profile must be dropped")
	}

	storage.getErr = nil
	if _, err := reg.Open(ctx, "p1"); err != nil {
		t.Fatalf("retry: %v", err)
	}
	if !reg.Loaded("p1") {
		t.Fatalf("expected p1 loaded after retry")
	}
}

func TestProfiles_OpenEmptyID(t *testing.T) {
	reg := NewProfiles(newStubStorage(), Policy{}, nil, zerolog.Nop())
	if _, err := reg.Open(context.Background(), ""); err == nil {
		t.Fatalf("expected error for empty id")
	}
}

func TestProfiles_OnOpenHook(t *testing.T) {
	ctx := context.Background()
	reg := NewProfiles(newStubStorage(), Policy{}, nil, zerolog.Nop())

	var notified []string
	reg.OnOpen(func(p *Profile) {
		p.Cart.Subscribe(func(c domain.Cart) {
			notified = append(notified, p.ID)
		})
	})

	p, _ := reg.Open(ctx, "p1")
	_ = p.Cart.AddItem(ctx, testProduct("A", "1"), 1)

	// One notification from rehydration, one from the add.
	if len(notified) != 2 {
		t.Fatalf("expected 2 notifications, got %v", notified)
	}
}

func TestProfile_LogoutKeepsCartByDefault(t *testing.T) {
	ctx := context.Background()
	reg := NewProfiles(newStubStorage(), Policy{}, nil, zerolog.Nop())
	p, _ := reg.Open(ctx, "p1")
	_ = p.Session.Login(ctx, testUser(), "tok")
	_ = p.Cart.AddItem(ctx, testProduct("A", "1"), 2)

	if err := p.Logout(ctx); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if p.Session.IsAuthenticated() {
		t.Fatalf("expected logged out")
	}
	if p.Cart.TotalItems() != 2 {
		t.Fatalf("cart should outlive the session by default")
	}
}

func TestProfile_LogoutClearsCartWhenConfigured(t *testing.T) {
	ctx := context.Background()
	storage := newStubStorage()
	reg := NewProfiles(storage, Policy{ClearCartOnLogout: true}, nil, zerolog.Nop())
	p, _ := reg.Open(ctx, "p1")
	_ = p.Session.Login(ctx, testUser(), "tok")
	_ = p.Cart.AddItem(ctx, testProduct("A", "1"), 2)

	if err := p.Logout(ctx); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if p.Cart.TotalItems() != 0 {
		t.Fatalf("expected cart cleared on logout")
	}
	if storage.has(ProfileKeyPrefix("p1") + ports.KeyCart) {
		t.Fatalf("expected cart key deleted")
	}
}

func TestProfiles_CapacityEvictsLeastRecentlyUsed(t *testing.T) {
	ctx := context.Background()
	obs := &recordingObserver{}
	reg := NewProfiles(newStubStorage(), Policy{MaxOpen: 2}, obs, zerolog.Nop())

	_, _ = reg.Open(ctx, "a")
	_, _ = reg.Open(ctx, "b")
	_, _ = reg.Open(ctx, "a") // a is now the most recent
	_, _ = reg.Open(ctx, "c")

	if reg.Len() != 2 {
		t.Fatalf("expected 2 open profiles, got %d", reg.Len())
	}
	if reg.Loaded("b") || !reg.Loaded("a") || !reg.Loaded("c") {
		t.Fatalf("expected b evicted, a and c kept")
	}
	if obs.evicted[EvictCapacity] != 1 {
		t.Fatalf("evictions = %v", obs.evicted)
	}
}

func TestProfiles_ManyAnonymousOpensStayBounded(t *testing.T) {
	ctx := context.Background()
	reg := NewProfiles(newStubStorage(), Policy{MaxOpen: 100}, nil, zerolog.Nop())

	for i := 0; i < 5000; i++ {
		if _, err := reg.Open(ctx, fmt.Sprintf("visitor-%d", i)); err != nil {
			t.Fatalf("open: %v", err)
		}
	}
	if reg.Len() != 100 {
		t.Fatalf("expected registry capped at 100, got %d", reg.Len())
	}
}

func TestProfiles_SweepEvictsIdle(t *testing.T) {
	ctx := context.Background()
	obs := &recordingObserver{}
	reg := NewProfiles(newStubStorage(), Policy{IdleTimeout: time.Minute}, obs, zerolog.Nop())
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	reg.now = func() time.Time { return now }

	_, _ = reg.Open(ctx, "old")
	now = now.Add(45 * time.Second)
	_, _ = reg.Open(ctx, "recent")
	now = now.Add(30 * time.Second)

	if n := reg.Sweep(); n != 1 {
		t.Fatalf("expected 1 evicted, got %d", n)
	}
	if reg.Loaded("old") || !reg.Loaded("recent") {
		t.Fatalf("expected only the idle profile evicted")
	}
	if obs.evicted[EvictIdle] != 1 {
		t.Fatalf("evictions = %v", obs.evicted)
	}
	if n := reg.Sweep(); n != 0 {
		t.Fatalf("second sweep evicted %d", n)
	}
}

func TestProfiles_EvictedProfileRehydratesFromStorage(t *testing.T) {
	ctx := context.Background()
	storage := newStubStorage()
	reg := NewProfiles(storage, Policy{MaxOpen: 1}, nil, zerolog.Nop())

	p, _ := reg.Open(ctx, "p1")
	_ = p.Session.Login(ctx, testUser(), "tok")
	_ = p.Cart.AddItem(ctx, testProduct("A", "2"), 3)

	_, _ = reg.Open(ctx, "p2")
	if reg.Loaded("p1") {
		t.Fatalf("expected p1 evicted")
	}

	back, err := reg.Open(ctx, "p1")
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	if back == p {
		t.Fatalf("expected a fresh instance after eviction")
	}
	if !back.Session.IsAuthenticated() || back.Session.Token() != "tok" {
		t.Fatalf("session not restored: %+v", back.Session.Session())
	}
	if back.Cart.TotalItems() != 3 || back.Cart.Lines()[0].Product.ID != "A" {
		t.Fatalf("cart not restored: %+v", back.Cart.Lines())
	}
}

func TestProfiles_RunSweeperStopsOnCancel(t *testing.T) {
	reg := NewProfiles(newStubStorage(), Policy{}, nil, zerolog.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		reg.RunSweeper(ctx, time.Millisecond)
		close(done)
	}()
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("sweeper did not stop")
	}
}
