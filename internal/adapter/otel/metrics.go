package otel

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "propdesk"

// Metrics holds all PropDesk metric instruments. A nil *Metrics is valid
// and records nothing.
type Metrics struct {
	Resolutions       metric.Int64Counter
	ResolutionErrors  metric.Int64Counter
	CrossTenantDenied metric.Int64Counter
	CrossTenantAdmin  metric.Int64Counter
	DirectoryCache    metric.Int64Counter
	GatewayOps        metric.Int64Counter
	StrictRejections  metric.Int64Counter
	ResolveDuration   metric.Float64Histogram
}

// NewMetrics creates all metric instruments.
func NewMetrics() (*Metrics, error) {
	meter := otel.Meter(meterName)
	m := &Metrics{}
	var err error

	m.Resolutions, err = meter.Int64Counter("propdesk.tenant.resolutions",
		metric.WithDescription("Tenant resolutions by winning source"))
	if err != nil {
		return nil, err
	}

	m.ResolutionErrors, err = meter.Int64Counter("propdesk.tenant.resolution_errors",
		metric.WithDescription("Directory errors absorbed by the resolver"))
	if err != nil {
		return nil, err
	}

	m.CrossTenantDenied, err = meter.Int64Counter("propdesk.tenant.cross_denied",
		metric.WithDescription("Requests rejected for crossing tenants"))
	if err != nil {
		return nil, err
	}

	m.CrossTenantAdmin, err = meter.Int64Counter("propdesk.tenant.cross_admin",
		metric.WithDescription("Administrative cross-tenant accesses"))
	if err != nil {
		return nil, err
	}

	m.DirectoryCache, err = meter.Int64Counter("propdesk.tenant.directory_cache",
		metric.WithDescription("Tenant directory cache lookups by result"))
	if err != nil {
		return nil, err
	}

	m.GatewayOps, err = meter.Int64Counter("propdesk.gateway.operations",
		metric.WithDescription("Gateway operations by entity, operation and scope"))
	if err != nil {
		return nil, err
	}

	m.StrictRejections, err = meter.Int64Counter("propdesk.gateway.strict_rejections",
		metric.WithDescription("Strict-mode mutations rejected as not in tenant"))
	if err != nil {
		return nil, err
	}

	m.ResolveDuration, err = meter.Float64Histogram("propdesk.tenant.resolve_duration_seconds",
		metric.WithDescription("Tenant resolution latency in seconds"))
	if err != nil {
		return nil, err
	}

	return m, nil
}

// Resolved records a resolution outcome. source is "header", "principal", "host" or "none".
func (m *Metrics) Resolved(ctx context.Context, source string, seconds float64) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(attribute.String("source", source))
	m.Resolutions.Add(ctx, 1, attrs)
	m.ResolveDuration.Record(ctx, seconds, attrs)
}

// ResolutionFailed counts a directory error absorbed during resolution.
func (m *Metrics) ResolutionFailed(ctx context.Context, source string) {
	if m == nil {
		return
	}
	m.ResolutionErrors.Add(ctx, 1, metric.WithAttributes(attribute.String("source", source)))
}

// CrossTenant counts a cross-tenant decision.
func (m *Metrics) CrossTenant(ctx context.Context, allowed bool) {
	if m == nil {
		return
	}
	if allowed {
		m.CrossTenantAdmin.Add(ctx, 1)
		return
	}
	m.CrossTenantDenied.Add(ctx, 1)
}

// CacheLookup counts a directory cache hit or miss.
func (m *Metrics) CacheLookup(ctx context.Context, hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.DirectoryCache.Add(ctx, 1, metric.WithAttributes(attribute.String("result", result)))
}

// GatewayOp counts one gateway operation.
func (m *Metrics) GatewayOp(ctx context.Context, entity, op string, scoped bool) {
	if m == nil {
		return
	}
	m.GatewayOps.Add(ctx, 1, metric.WithAttributes(
		attribute.String("entity", entity),
		attribute.String("op", op),
		attribute.Bool("scoped", scoped),
	))
}

// StrictRejected counts a strict-mode rejection.
func (m *Metrics) StrictRejected(ctx context.Context, entity string) {
	if m == nil {
		return
	}
	m.StrictRejections.Add(ctx, 1, metric.WithAttributes(attribute.String("entity", entity)))
}
