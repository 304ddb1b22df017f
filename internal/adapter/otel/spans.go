package otel

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "propdesk"

// StartResolveSpan starts a span for one tenant resolution.
func StartResolveSpan(ctx context.Context, host string, hasHeader, hasPrincipalTenant bool) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, "tenant.resolve",
		trace.WithAttributes(
			attribute.String("http.host", host),
			attribute.Bool("tenant.selector_header", hasHeader),
			attribute.Bool("tenant.principal_home", hasPrincipalTenant),
		),
	)
}

// StartDirectorySpan starts a span for a tenant directory lookup.
func StartDirectorySpan(ctx context.Context, lookup string) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, "tenant.directory",
		trace.WithAttributes(attribute.String("tenant.lookup", lookup)),
	)
}

// StartGatewaySpan starts a span for a gateway operation on entity.
func StartGatewaySpan(ctx context.Context, entity, op string, scoped, strict bool) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, "tenant.gateway."+op,
		trace.WithAttributes(
			attribute.String("db.entity", entity),
			attribute.Bool("tenant.scoped", scoped),
			attribute.Bool("tenant.strict", strict),
		),
	)
}
