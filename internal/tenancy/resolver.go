package tenancy

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	cfotel "github.com/Strob0t/PropDesk/internal/adapter/otel"
	"github.com/Strob0t/PropDesk/internal/domain"
	"github.com/Strob0t/PropDesk/internal/domain/tenant"
	"github.com/Strob0t/PropDesk/internal/domain/user"
	"github.com/Strob0t/PropDesk/internal/logger"
)

// Lookup is the directory surface the resolver needs. *Directory implements it.
type Lookup interface {
	FindByID(ctx context.Context, id string) (*tenant.Tenant, error)
	FindByDomainOrSubdomain(ctx context.Context, domainName, subdomain string) (*tenant.Tenant, error)
}

// Request carries the request-level inputs to tenant resolution.
type Request struct {
	Host           string
	SelectorHeader string
	Principal      *user.Principal
}

// Source names the input a tenant was resolved from.
type Source string

const (
	SourceHeader    Source = "header"
	SourcePrincipal Source = "principal"
	SourceHost      Source = "host"
	SourceNone      Source = "none"
)

// Resolution is the outcome of Resolve. Tenant is nil when nothing matched.
type Resolution struct {
	Tenant *tenant.Tenant
	Source Source
}

// Resolver determines which tenant a request pertains to.
type Resolver struct {
	dir      Lookup
	reserved []string
	log      *slog.Logger
	metrics  *cfotel.Metrics
}

// ResolverOption configures a Resolver.
type ResolverOption func(*Resolver)

// WithReservedSubdomains replaces the default reserved subdomain list.
func WithReservedSubdomains(reserved []string) ResolverOption {
	return func(r *Resolver) {
		if len(reserved) > 0 {
			r.reserved = reserved
		}
	}
}

// WithResolverLogger sets the logger used for absorbed lookup failures.
func WithResolverLogger(l *slog.Logger) ResolverOption {
	return func(r *Resolver) { r.log = l }
}

// WithResolverMetrics records resolution counts and latency.
func WithResolverMetrics(m *cfotel.Metrics) ResolverOption {
	return func(r *Resolver) { r.metrics = m }
}

// NewResolver creates a Resolver backed by dir.
func NewResolver(dir Lookup, opts ...ResolverOption) *Resolver {
	r := &Resolver{
		dir:      dir,
		reserved: DefaultReservedSubdomains,
		log:      slog.Default(),
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

// Resolve picks the request tenant. The selector header is consulted first,
// then the principal's home tenant, then the host. Only the first present
// input is looked up. Lookup failures are logged and resolve to no tenant;
// Resolve never fails.
func (r *Resolver) Resolve(ctx context.Context, req Request) Resolution {
	start := time.Now()
	home := req.Principal.HomeTenant()
	ctx, span := cfotel.StartResolveSpan(ctx, req.Host, req.SelectorHeader != "", home != "")
	defer span.End()

	var (
		t      *tenant.Tenant
		err    error
		source Source
	)
	switch {
	case req.SelectorHeader != "":
		source = SourceHeader
		t, err = r.dir.FindByID(ctx, req.SelectorHeader)
	case home != "":
		source = SourcePrincipal
		t, err = r.dir.FindByID(ctx, home)
	default:
		info := extractHostInfo(req.Host, r.reserved)
		if info.Domain == "" {
			break
		}
		source = SourceHost
		t, err = r.dir.FindByDomainOrSubdomain(ctx, info.Domain, info.Subdomain)
	}

	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			err = fmt.Errorf("%w: %w", ErrResolution, err)
			span.RecordError(err)
			r.metrics.ResolutionFailed(ctx, string(source))
			r.log.WarnContext(ctx, "tenant resolution failed",
				"source", string(source),
				"request_id", logger.RequestID(ctx),
				"error", err,
			)
		}
		t = nil
	}
	if t == nil {
		source = SourceNone
	}
	r.metrics.Resolved(ctx, string(source), time.Since(start).Seconds())
	return Resolution{Tenant: t, Source: source}
}
