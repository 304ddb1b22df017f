package tenancy

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	sq "github.com/Masterminds/squirrel"

	cfotel "github.com/Strob0t/PropDesk/internal/adapter/otel"
	"github.com/Strob0t/PropDesk/internal/domain"
	"github.com/Strob0t/PropDesk/internal/domain/tenant"
	"github.com/Strob0t/PropDesk/internal/port/cache"
	"github.com/Strob0t/PropDesk/internal/port/database"
	"github.com/Strob0t/PropDesk/internal/resilience"
)

// Directory looks up active tenants by id or domain. Inactive tenants are
// reported as domain.ErrNotFound. Backend failures are returned wrapped in
// ErrDirectoryUnavailable.
type Directory struct {
	store   database.Repository[tenant.Tenant]
	cache   cache.Cache
	ttl     time.Duration
	breaker *resilience.Breaker
	metrics *cfotel.Metrics
}

// DirectoryOption configures a Directory.
type DirectoryOption func(*Directory)

// WithCache enables a read-through cache of positive lookups.
func WithCache(c cache.Cache, ttl time.Duration) DirectoryOption {
	return func(d *Directory) {
		d.cache = c
		d.ttl = ttl
	}
}

// WithBreaker guards store lookups with a circuit breaker.
func WithBreaker(b *resilience.Breaker) DirectoryOption {
	return func(d *Directory) { d.breaker = b }
}

// WithDirectoryMetrics records cache hit ratios.
func WithDirectoryMetrics(m *cfotel.Metrics) DirectoryOption {
	return func(d *Directory) { d.metrics = m }
}

// NewDirectory creates a Directory over the tenants repository.
func NewDirectory(store database.Repository[tenant.Tenant], opts ...DirectoryOption) *Directory {
	d := &Directory{store: store}
	for _, o := range opts {
		o(d)
	}
	return d
}

// FindByID returns the active tenant with the given id.
func (d *Directory) FindByID(ctx context.Context, id string) (*tenant.Tenant, error) {
	if id == "" {
		return nil, fmt.Errorf("find tenant: empty id: %w", domain.ErrNotFound)
	}
	ctx, span := cfotel.StartDirectorySpan(ctx, "id")
	defer span.End()

	key := idKey(id)
	if t := d.cached(ctx, key); t != nil {
		return t, nil
	}
	t, err := d.lookup(ctx, sq.Eq{"id": id, "is_active": true})
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("find tenant by id: %w", err)
	}
	d.remember(ctx, t)
	return t, nil
}

// FindByDomainOrSubdomain returns the first active tenant whose domain equals
// either non-empty candidate.
func (d *Directory) FindByDomainOrSubdomain(ctx context.Context, domainName, subdomain string) (*tenant.Tenant, error) {
	var candidates []string
	for _, c := range []string{domainName, subdomain} {
		if c != "" {
			candidates = append(candidates, c)
		}
	}
	if len(candidates) == 0 {
		return nil, fmt.Errorf("find tenant: no domain candidates: %w", domain.ErrNotFound)
	}
	ctx, span := cfotel.StartDirectorySpan(ctx, "domain")
	defer span.End()

	for _, c := range candidates {
		if t := d.cached(ctx, domainKey(c)); t != nil {
			return t, nil
		}
	}
	t, err := d.lookup(ctx, sq.And{
		sq.Eq{"domain": candidates},
		sq.Eq{"is_active": true},
	})
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("find tenant by domain: %w", err)
	}
	d.remember(ctx, t)
	return t, nil
}

// Invalidate drops cached entries for t. Call it after t changes.
func (d *Directory) Invalidate(ctx context.Context, t *tenant.Tenant) {
	if d.cache == nil || t == nil {
		return
	}
	keys := []string{idKey(t.ID)}
	if t.Domain != nil {
		keys = append(keys, domainKey(*t.Domain))
	}
	for _, k := range keys {
		if err := d.cache.Delete(ctx, k); err != nil {
			slog.WarnContext(ctx, "tenant cache invalidation failed", "key", k, "error", err)
		}
	}
}

func (d *Directory) lookup(ctx context.Context, where sq.Sqlizer) (*tenant.Tenant, error) {
	q := database.Query{Where: where, OrderBy: []string{"created_at ASC"}}
	if d.breaker == nil {
		return d.classify(d.store.FindFirst(ctx, q))
	}
	var t *tenant.Tenant
	err := d.breaker.Execute(func() error {
		var err error
		t, err = d.store.FindFirst(ctx, q)
		return err
	})
	return d.classify(t, err)
}

func (d *Directory) classify(t *tenant.Tenant, err error) (*tenant.Tenant, error) {
	switch {
	case err == nil:
		return t, nil
	case errors.Is(err, domain.ErrNotFound), errors.Is(err, context.Canceled):
		return nil, err
	default:
		return nil, fmt.Errorf("%w: %w", ErrDirectoryUnavailable, err)
	}
}

func (d *Directory) cached(ctx context.Context, key string) *tenant.Tenant {
	if d.cache == nil {
		return nil
	}
	data, ok, err := d.cache.Get(ctx, key)
	if err != nil {
		slog.DebugContext(ctx, "tenant cache read failed", "key", key, "error", err)
		return nil
	}
	d.metrics.CacheLookup(ctx, ok)
	if !ok {
		return nil
	}
	var t tenant.Tenant
	if err := json.Unmarshal(data, &t); err != nil {
		return nil
	}
	return &t
}

func (d *Directory) remember(ctx context.Context, t *tenant.Tenant) {
	if d.cache == nil {
		return
	}
	data, err := json.Marshal(t)
	if err != nil {
		return
	}
	keys := []string{idKey(t.ID)}
	if t.Domain != nil {
		keys = append(keys, domainKey(*t.Domain))
	}
	for _, k := range keys {
		if err := d.cache.Set(ctx, k, data, d.ttl); err != nil {
			slog.DebugContext(ctx, "tenant cache write failed", "key", k, "error", err)
		}
	}
}

func idKey(id string) string       { return "tenant.id." + id }
func domainKey(name string) string { return "tenant.domain." + name }
