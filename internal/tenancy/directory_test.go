package tenancy

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Strob0t/PropDesk/internal/adapter/memory"
	"github.com/Strob0t/PropDesk/internal/domain"
	"github.com/Strob0t/PropDesk/internal/domain/tenant"
	"github.com/Strob0t/PropDesk/internal/port/database"
	"github.com/Strob0t/PropDesk/internal/resilience"
)

type mapCache struct {
	mu   sync.Mutex
	data map[string][]byte
}

func newMapCache() *mapCache { return &mapCache{data: make(map[string][]byte)} }

func (c *mapCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.data[key]
	return v, ok, nil
}

func (c *mapCache) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = value
	return nil
}

func (c *mapCache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.data, key)
	return nil
}

// countingStore counts FindFirst calls and can be switched to fail.
type countingStore struct {
	database.Repository[tenant.Tenant]
	calls int
	fail  error
}

func (s *countingStore) FindFirst(ctx context.Context, q database.Query) (*tenant.Tenant, error) {
	s.calls++
	if s.fail != nil {
		return nil, s.fail
	}
	return s.Repository.FindFirst(ctx, q)
}

func seedTenants(t *testing.T) *countingStore {
	t.Helper()
	ctx := context.Background()
	tbl := memory.NewTable[tenant.Tenant]("tenants", memory.WithUnique("domain"), memory.WithDefaults(database.Record{"is_active": true}))
	for _, r := range []database.Record{
		{"id": "T1", "name": "One", "domain": "one.example.com"},
		{"id": "T2", "name": "Two", "domain": "two"},
		{"id": "T3", "name": "Gone", "domain": "gone.example.com", "is_active": false},
	} {
		_, err := tbl.Create(ctx, r)
		require.NoError(t, err)
	}
	return &countingStore{Repository: tbl}
}

func TestDirectory_FindByID(t *testing.T) {
	dir := NewDirectory(seedTenants(t))
	ctx := context.Background()

	got, err := dir.FindByID(ctx, "T1")
	require.NoError(t, err)
	assert.Equal(t, "One", got.Name)

	_, err = dir.FindByID(ctx, "T3")
	assert.ErrorIs(t, err, domain.ErrNotFound, "inactive tenants are absent")

	_, err = dir.FindByID(ctx, "nope")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = dir.FindByID(ctx, "")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestDirectory_FindByDomainOrSubdomain(t *testing.T) {
	dir := NewDirectory(seedTenants(t))
	ctx := context.Background()

	got, err := dir.FindByDomainOrSubdomain(ctx, "one.example.com", "one")
	require.NoError(t, err)
	assert.Equal(t, "T1", got.ID)

	got, err = dir.FindByDomainOrSubdomain(ctx, "two.propdesk.io", "two")
	require.NoError(t, err)
	assert.Equal(t, "T2", got.ID)

	_, err = dir.FindByDomainOrSubdomain(ctx, "gone.example.com", "gone")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = dir.FindByDomainOrSubdomain(ctx, "", "")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestDirectory_CachesPositiveLookups(t *testing.T) {
	store := seedTenants(t)
	c := newMapCache()
	dir := NewDirectory(store, WithCache(c, time.Minute))
	ctx := context.Background()

	_, err := dir.FindByID(ctx, "T1")
	require.NoError(t, err)
	_, err = dir.FindByID(ctx, "T1")
	require.NoError(t, err)
	assert.Equal(t, 1, store.calls)

	// Cached by domain too.
	got, err := dir.FindByDomainOrSubdomain(ctx, "one.example.com", "one")
	require.NoError(t, err)
	assert.Equal(t, "T1", got.ID)
	assert.Equal(t, 1, store.calls)

	_, err = dir.FindByID(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = dir.FindByID(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.Equal(t, 3, store.calls, "misses are not cached")
}

func TestDirectory_Invalidate(t *testing.T) {
	store := seedTenants(t)
	c := newMapCache()
	dir := NewDirectory(store, WithCache(c, time.Minute))
	ctx := context.Background()

	got, err := dir.FindByID(ctx, "T1")
	require.NoError(t, err)
	require.Len(t, c.data, 2)

	dir.Invalidate(ctx, got)
	assert.Empty(t, c.data)

	_, err = dir.FindByID(ctx, "T1")
	require.NoError(t, err)
	assert.Equal(t, 2, store.calls)
}

func TestDirectory_StoreFailure(t *testing.T) {
	store := seedTenants(t)
	store.fail = errors.New("connection refused")
	dir := NewDirectory(store)

	_, err := dir.FindByID(context.Background(), "T1")
	assert.ErrorIs(t, err, ErrDirectoryUnavailable)
	assert.NotErrorIs(t, err, domain.ErrNotFound)
}

func TestDirectory_BreakerOpensOnFailures(t *testing.T) {
	store := seedTenants(t)
	store.fail = errors.New("connection refused")
	b := resilience.NewBreaker(2, time.Hour, resilience.IgnoreErrors(domain.ErrNotFound))
	dir := NewDirectory(store, WithBreaker(b))
	ctx := context.Background()

	for range 3 {
		_, err := dir.FindByID(ctx, "T1")
		assert.ErrorIs(t, err, ErrDirectoryUnavailable)
	}
	assert.Equal(t, 2, store.calls, "open breaker must short-circuit")
	assert.Equal(t, resilience.StateOpen, b.State())
}

func TestDirectory_BreakerIgnoresNotFound(t *testing.T) {
	store := seedTenants(t)
	b := resilience.NewBreaker(1, time.Hour, resilience.IgnoreErrors(domain.ErrNotFound))
	dir := NewDirectory(store, WithBreaker(b))
	ctx := context.Background()

	for range 3 {
		_, err := dir.FindByID(ctx, "missing")
		assert.ErrorIs(t, err, domain.ErrNotFound)
	}
	assert.Equal(t, resilience.StateClosed, b.State())
}
