package cache_test

import (
	"context"
	"testing"
	"time"

	"github.com/Strob0t/PropDesk/internal/port/cache"
)

type mapCache map[string][]byte

func (m mapCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	v, ok := m[key]
	return v, ok, nil
}

func (m mapCache) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	m[key] = value
	return nil
}

func (m mapCache) Delete(_ context.Context, key string) error {
	delete(m, key)
	return nil
}

func TestPrefixed(t *testing.T) {
	ctx := context.Background()
	backing := mapCache{}
	tenants := cache.Prefixed(backing, "propdesk")

	if err := tenants.Set(ctx, "tenant.id.T1", []byte("v"), time.Minute); err != nil {
		t.Fatal(err)
	}
	if _, ok := backing["propdesk.tenant.id.T1"]; !ok {
		t.Fatalf("expected prefixed key in backing store, got %v", backing)
	}

	val, found, err := tenants.Get(ctx, "tenant.id.T1")
	if err != nil {
		t.Fatal(err)
	}
	if !found || string(val) != "v" {
		t.Fatalf("expected v, got %q (found=%v)", val, found)
	}

	if _, found, _ := cache.Prefixed(backing, "other").Get(ctx, "tenant.id.T1"); found {
		t.Fatal("expected miss under another prefix")
	}

	if err := tenants.Delete(ctx, "tenant.id.T1"); err != nil {
		t.Fatal(err)
	}
	if len(backing) != 0 {
		t.Fatalf("expected empty backing store, got %v", backing)
	}
}
