package ristretto_test

import (
	"context"
	"testing"
	"time"

	"github.com/Strob0t/PropDesk/internal/adapter/ristretto"
)

func newCache(t *testing.T) *ristretto.Cache {
	t.Helper()
	c, err := ristretto.NewMB(1)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(c.Close)
	return c
}

func TestCache_SetGetDelete(t *testing.T) {
	c := newCache(t)
	ctx := context.Background()

	if err := c.Set(ctx, "tenant.id.T1", []byte(`{"id":"T1"}`), time.Minute); err != nil {
		t.Fatal(err)
	}
	c.Wait()

	val, found, err := c.Get(ctx, "tenant.id.T1")
	if err != nil {
		t.Fatal(err)
	}
	if !found {
		t.Fatal("expected hit after Set")
	}
	if string(val) != `{"id":"T1"}` {
		t.Fatalf("unexpected value %s", val)
	}

	if err := c.Delete(ctx, "tenant.id.T1"); err != nil {
		t.Fatal(err)
	}
	if _, found, _ := c.Get(ctx, "tenant.id.T1"); found {
		t.Fatal("expected miss after Delete")
	}
}

func TestCache_Miss(t *testing.T) {
	c := newCache(t)
	_, found, err := c.Get(context.Background(), "tenant.id.none")
	if err != nil {
		t.Fatal(err)
	}
	if found {
		t.Fatal("expected miss")
	}
}

func TestCache_DeleteMissingKey(t *testing.T) {
	c := newCache(t)
	if err := c.Delete(context.Background(), "never-set"); err != nil {
		t.Fatalf("Delete of missing key: %v", err)
	}
}
