package tenancy

import (
	"context"
	"fmt"
	"log/slog"

	sq "github.com/Masterminds/squirrel"

	cfotel "github.com/Strob0t/PropDesk/internal/adapter/otel"
	"github.com/Strob0t/PropDesk/internal/port/database"
)

// Gateway wraps a repository of tenant-owned entities and confines every
// operation to one tenant. An unscoped Gateway passes calls through.
type Gateway[T database.TenantOwned] struct {
	repo     database.Repository[T]
	entity   string
	tenantID string
	strict   bool
	metrics  *cfotel.Metrics
}

var _ database.Repository[gatewayProbe] = (*Gateway[gatewayProbe])(nil)

type gatewayProbe struct{}

func (gatewayProbe) OwningTenant() string { return "" }

// GatewayOption configures a Gateway.
type GatewayOption func(*gatewayConfig)

type gatewayConfig struct {
	strict  bool
	metrics *cfotel.Metrics
}

// WithStrictMode makes scoped Update and Delete fail with
// ErrEntityNotInTenant when nothing in scope matches.
func WithStrictMode(strict bool) GatewayOption {
	return func(c *gatewayConfig) { c.strict = strict }
}

// WithGatewayMetrics records operation counts.
func WithGatewayMetrics(m *cfotel.Metrics) GatewayOption {
	return func(c *gatewayConfig) { c.metrics = m }
}

func newGateway[T database.TenantOwned](repo database.Repository[T], entity, tenantID string, opts []GatewayOption) *Gateway[T] {
	var cfg gatewayConfig
	for _, o := range opts {
		o(&cfg)
	}
	return &Gateway[T]{
		repo:     repo,
		entity:   entity,
		tenantID: tenantID,
		strict:   cfg.strict,
		metrics:  cfg.metrics,
	}
}

// Scoped returns a gateway confined to tenantID. An empty tenantID is
// rejected with ErrTenantRequired; use Unscoped for administrative access.
func Scoped[T database.TenantOwned](repo database.Repository[T], entity, tenantID string, opts ...GatewayOption) (*Gateway[T], error) {
	if tenantID == "" {
		return nil, fmt.Errorf("%s gateway: %w", entity, ErrTenantRequired)
	}
	return newGateway(repo, entity, tenantID, opts), nil
}

// Unscoped returns a pass-through gateway for administrators operating
// without tenant restriction.
func Unscoped[T database.TenantOwned](repo database.Repository[T], entity string, opts ...GatewayOption) *Gateway[T] {
	return newGateway(repo, entity, "", opts)
}

// ForRequest picks the gateway for the request in ctx. The effective tenant
// (resolved, else the principal's home tenant) scopes it. An administrator
// without an effective tenant gets an unscoped gateway. Anyone else gets
// ErrTenantRequired.
func ForRequest[T database.TenantOwned](ctx context.Context, repo database.Repository[T], entity string, opts ...GatewayOption) (*Gateway[T], error) {
	rc := FromContext(ctx)
	if rc == nil {
		return nil, fmt.Errorf("%s gateway: %w", entity, ErrTenantRequired)
	}
	if id := rc.EffectiveTenantID(); id != "" {
		return Scoped(repo, entity, id, opts...)
	}
	if rc.Principal.IsAdmin() {
		return Unscoped(repo, entity, opts...), nil
	}
	return nil, fmt.Errorf("%s gateway: %w", entity, ErrTenantRequired)
}

// TenantID returns the scope, or "" for an unscoped gateway.
func (g *Gateway[T]) TenantID() string { return g.tenantID }

// IsScoped reports whether operations are confined to a tenant.
func (g *Gateway[T]) IsScoped() bool { return g.tenantID != "" }

func (g *Gateway[T]) scope(where sq.Sqlizer) sq.Sqlizer {
	if !g.IsScoped() {
		return where
	}
	own := sq.Eq{database.TenantColumn: g.tenantID}
	if where == nil {
		return own
	}
	return sq.And{where, own}
}

func (g *Gateway[T]) begin(ctx context.Context, op string) (context.Context, func()) {
	g.metrics.GatewayOp(ctx, g.entity, op, g.IsScoped())
	ctx, span := cfotel.StartGatewaySpan(ctx, g.entity, op, g.IsScoped(), g.strict)
	return ctx, func() { span.End() }
}

// FindMany returns matching records within scope.
func (g *Gateway[T]) FindMany(ctx context.Context, q database.Query) ([]T, error) {
	ctx, end := g.begin(ctx, "find_many")
	defer end()
	q.Where = g.scope(q.Where)
	return g.repo.FindMany(ctx, q)
}

// FindFirst returns the first matching record within scope.
func (g *Gateway[T]) FindFirst(ctx context.Context, q database.Query) (*T, error) {
	ctx, end := g.begin(ctx, "find_first")
	defer end()
	q.Where = g.scope(q.Where)
	return g.repo.FindFirst(ctx, q)
}

// FindUnique looks up by a unique key. When scoped it runs as FindFirst
// under the scope, so a matching record in another tenant is not found.
func (g *Gateway[T]) FindUnique(ctx context.Context, key sq.Eq) (*T, error) {
	ctx, end := g.begin(ctx, "find_unique")
	defer end()
	if !g.IsScoped() {
		return g.repo.FindUnique(ctx, key)
	}
	return g.repo.FindFirst(ctx, database.Query{Where: g.scope(key)})
}

// Create inserts data. A scoped gateway overwrites tenant_id with its scope.
func (g *Gateway[T]) Create(ctx context.Context, data database.Record) (*T, error) {
	ctx, end := g.begin(ctx, "create")
	defer end()
	if g.IsScoped() {
		data = data.Clone()
		data[database.TenantColumn] = g.tenantID
	}
	return g.repo.Create(ctx, data)
}

// Update modifies matching records within scope. tenant_id is never
// changed by a scoped gateway.
func (g *Gateway[T]) Update(ctx context.Context, where sq.Sqlizer, data database.Record) (int64, error) {
	ctx, end := g.begin(ctx, "update")
	defer end()
	if g.IsScoped() {
		data = data.Clone()
		delete(data, database.TenantColumn)
		if err := g.checkInScope(ctx, where); err != nil {
			return 0, err
		}
	}
	return g.repo.Update(ctx, g.scope(where), data)
}

// Delete removes matching records within scope.
func (g *Gateway[T]) Delete(ctx context.Context, where sq.Sqlizer) (int64, error) {
	ctx, end := g.begin(ctx, "delete")
	defer end()
	if g.IsScoped() {
		if err := g.checkInScope(ctx, where); err != nil {
			return 0, err
		}
	}
	return g.repo.Delete(ctx, g.scope(where))
}

// Count counts matching records within scope.
func (g *Gateway[T]) Count(ctx context.Context, where sq.Sqlizer) (int64, error) {
	ctx, end := g.begin(ctx, "count")
	defer end()
	return g.repo.Count(ctx, g.scope(where))
}

// Aggregate applies agg over matching records within scope.
func (g *Gateway[T]) Aggregate(ctx context.Context, where sq.Sqlizer, agg database.Aggregation) (float64, error) {
	ctx, end := g.begin(ctx, "aggregate")
	defer end()
	return g.repo.Aggregate(ctx, g.scope(where), agg)
}

func (g *Gateway[T]) checkInScope(ctx context.Context, where sq.Sqlizer) error {
	if !g.strict {
		return nil
	}
	n, err := g.repo.Count(ctx, g.scope(where))
	if err != nil {
		return err
	}
	if n == 0 {
		g.metrics.StrictRejected(ctx, g.entity)
		slog.DebugContext(ctx, "strict gateway rejected mutation", "entity", g.entity)
		return fmt.Errorf("%s: %w", g.entity, ErrEntityNotInTenant)
	}
	return nil
}
