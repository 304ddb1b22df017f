package tiered_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Strob0t/PropDesk/internal/adapter/tiered"
)

// memCache is a map-backed cache that can be told to fail.
type memCache struct {
	data map[string][]byte
	err  error
}

func newMemCache() *memCache {
	return &memCache{data: make(map[string][]byte)}
}

func (m *memCache) Get(_ context.Context, key string) (data []byte, ok bool, err error) {
	if m.err != nil {
		return nil, false, m.err
	}
	v, ok := m.data[key]
	return v, ok, nil
}

func (m *memCache) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	if m.err != nil {
		return m.err
	}
	m.data[key] = value
	return nil
}

func (m *memCache) Delete(_ context.Context, key string) error {
	if m.err != nil {
		return m.err
	}
	delete(m.data, key)
	return nil
}

var errDown = errors.New("nats: no responders available for request")

func TestTiered_L1Hit(t *testing.T) {
	l1, l2 := newMemCache(), newMemCache()
	c := tiered.New(l1, l2, time.Minute)
	l1.data["tenant.id.T1"] = []byte("one")

	val, found, err := c.Get(context.Background(), "tenant.id.T1")
	if err != nil {
		t.Fatal(err)
	}
	if !found || string(val) != "one" {
		t.Fatalf("expected L1 hit with one, got %q (found=%v)", val, found)
	}
}

func TestTiered_L2HitBackfillsL1(t *testing.T) {
	l1, l2 := newMemCache(), newMemCache()
	c := tiered.New(l1, l2, time.Minute)
	l2.data["tenant.domain.acme"] = []byte("acme")

	val, found, err := c.Get(context.Background(), "tenant.domain.acme")
	if err != nil {
		t.Fatal(err)
	}
	if !found || string(val) != "acme" {
		t.Fatalf("expected L2 hit with acme, got %q (found=%v)", val, found)
	}
	if string(l1.data["tenant.domain.acme"]) != "acme" {
		t.Fatal("expected L1 backfill")
	}
}

func TestTiered_Miss(t *testing.T) {
	c := tiered.New(newMemCache(), newMemCache(), time.Minute)
	_, found, err := c.Get(context.Background(), "missing")
	if err != nil {
		t.Fatal(err)
	}
	if found {
		t.Fatal("expected miss")
	}
}

func TestTiered_L2ReadFailureIsMiss(t *testing.T) {
	l2 := newMemCache()
	l2.err = errDown
	c := tiered.New(newMemCache(), l2, time.Minute)

	_, found, err := c.Get(context.Background(), "tenant.id.T1")
	if err != nil {
		t.Fatalf("expected L2 failure to be absorbed, got %v", err)
	}
	if found {
		t.Fatal("expected miss")
	}
}

func TestTiered_SetWritesBoth(t *testing.T) {
	l1, l2 := newMemCache(), newMemCache()
	c := tiered.New(l1, l2, time.Minute)

	if err := c.Set(context.Background(), "tenant.id.T2", []byte("two"), time.Minute); err != nil {
		t.Fatal(err)
	}
	if _, ok := l1.data["tenant.id.T2"]; !ok {
		t.Fatal("expected key in L1")
	}
	if _, ok := l2.data["tenant.id.T2"]; !ok {
		t.Fatal("expected key in L2")
	}
}

func TestTiered_SetSurvivesL2Failure(t *testing.T) {
	l1, l2 := newMemCache(), newMemCache()
	l2.err = errDown
	c := tiered.New(l1, l2, time.Minute)

	if err := c.Set(context.Background(), "tenant.id.T2", []byte("two"), time.Minute); err != nil {
		t.Fatalf("expected L2 write failure to be absorbed, got %v", err)
	}
	if _, ok := l1.data["tenant.id.T2"]; !ok {
		t.Fatal("expected key in L1")
	}
}

func TestTiered_DeleteBoth(t *testing.T) {
	l1, l2 := newMemCache(), newMemCache()
	c := tiered.New(l1, l2, time.Minute)
	l1.data["k"] = []byte("v")
	l2.data["k"] = []byte("v")

	if err := c.Delete(context.Background(), "k"); err != nil {
		t.Fatal(err)
	}
	if _, ok := l1.data["k"]; ok {
		t.Fatal("expected k deleted from L1")
	}
	if _, ok := l2.data["k"]; ok {
		t.Fatal("expected k deleted from L2")
	}
}

func TestTiered_DeleteReportsL2Failure(t *testing.T) {
	l1, l2 := newMemCache(), newMemCache()
	c := tiered.New(l1, l2, time.Minute)
	l1.data["k"] = []byte("v")
	l2.err = errDown

	if err := c.Delete(context.Background(), "k"); !errors.Is(err, errDown) {
		t.Fatalf("expected L2 error, got %v", err)
	}
	if _, ok := l1.data["k"]; ok {
		t.Fatal("expected k deleted from L1 even when L2 fails")
	}
}
