package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/Strob0t/PropDesk/internal/middleware"
	"github.com/Strob0t/PropDesk/internal/tenancy"
)

const requestTimeout = 30 * time.Second

// Pipeline holds what the router needs to authenticate a request and run it
// through tenant resolution and the cross-tenant guard.
type Pipeline struct {
	Tokens       middleware.TokenValidator
	Resolver     *tenancy.Resolver
	Validator    *tenancy.Validator
	TenantHeader string
	CORSOrigin   string
	Log          *slog.Logger

	// Outer wraps the whole router, e.g. for tracing. Optional.
	Outer func(http.Handler) http.Handler

	Routes RouteMiddleware
}

// NewRouter builds the PropDesk HTTP handler. Middleware order:
// request id, client info, recovery, security headers, authentication,
// tenant resolution, access log, cross-tenant guard.
func NewRouter(h *Handlers, p Pipeline) chi.Router {
	header := p.TenantHeader
	if header == "" {
		header = middleware.DefaultTenantHeader
	}
	log := p.Log
	if log == nil {
		log = slog.Default()
	}

	r := chi.NewRouter()
	if p.Outer != nil {
		r.Use(p.Outer)
	}
	r.Use(middleware.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.ClientInfo)
	r.Use(chimw.Recoverer)
	r.Use(chimw.Timeout(requestTimeout))
	r.Use(SecurityHeaders)
	r.Use(CORS(p.CORSOrigin, header))
	r.Use(middleware.Auth(p.Tokens))
	r.Use(middleware.ResolveTenant(p.Resolver, header))
	r.Use(Logger(log))
	r.Use(middleware.GuardCrossTenant(p.Validator))

	MountRoutes(r, h, p.Routes)
	return r
}
