package sqlite

import (
	"context"
	"path/filepath"
	"reflect"
	"testing"
)

func newTestStorage(t *testing.T) (*Storage, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "nested", "storefront.db")
	s, err := Open(context.Background(), path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s, path
}

func TestStorage_SetGetDelete(t *testing.T) {
	s, _ := newTestStorage(t)
	ctx := context.Background()

	if _, ok, err := s.Get(ctx, "token"); err != nil || ok {
		t.Fatalf("Get missing = %v, %v", ok, err)
	}
	if err := s.Set(ctx, "token", "abc"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := s.Set(ctx, "token", "def"); err != nil {
		t.Fatalf("Set overwrite: %v", err)
	}
	v, ok, err := s.Get(ctx, "token")
	if err != nil || !ok || v != "def" {
		t.Fatalf("Get = %q, %v, %v", v, ok, err)
	}

	if err := s.Set(ctx, "user", "{}"); err != nil {
		t.Fatalf("Set user: %v", err)
	}
	if err := s.Delete(ctx, "token", "user", "absent"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	for _, k := range []string{"token", "user"} {
		if _, ok, _ := s.Get(ctx, k); ok {
			t.Errorf("%s still present", k)
		}
	}
}

func TestStorage_SurvivesReopen(t *testing.T) {
	s, path := newTestStorage(t)
	ctx := context.Background()

	if err := s.Set(ctx, "profile:p1:cart", `[{"quantity":3}]`); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	reopened, err := Open(ctx, path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()

	v, ok, err := reopened.Get(ctx, "profile:p1:cart")
	if err != nil || !ok || v != `[{"quantity":3}]` {
		t.Fatalf("Get after reopen = %q, %v, %v", v, ok, err)
	}
}

func TestStorage_Keys(t *testing.T) {
	s, _ := newTestStorage(t)
	ctx := context.Background()

	for _, k := range []string{"profile:b:user", "profile:a:token", "profile:b:cart", "other"} {
		if err := s.Set(ctx, k, "x"); err != nil {
			t.Fatalf("Set %s: %v", k, err)
		}
	}
	got, err := s.Keys(ctx, "profile:b:")
	if err != nil {
		t.Fatalf("Keys: %v", err)
	}
	want := []string{"profile:b:cart", "profile:b:user"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Keys = %v, want %v", got, want)
	}
}

func TestOpen_InMemory(t *testing.T) {
	s, err := Open(context.Background(), ":memory:")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer s.Close()
	if err := s.Ping(context.Background()); err != nil {
		t.Fatalf("Ping: %v", err)
	}
}
