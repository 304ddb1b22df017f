package middleware

import (
	"errors"
	"net/http"

	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/Strob0t/PropDesk/internal/logger"
	"github.com/Strob0t/PropDesk/internal/tenancy"
)

// DefaultTenantHeader selects a tenant explicitly when the request carries it.
const DefaultTenantHeader = "X-Tenant-ID"

const crossTenantMessage = "access to another tenant's data is not permitted"

// ResolveTenant starts the tenant pipeline for every request. It resolves
// the request tenant from the selector header, the principal's home tenant
// or the host, and stores the result as a tenancy.RequestContext. Requests
// always proceed, with or without a tenant.
func ResolveTenant(resolver *tenancy.Resolver, header string) func(http.Handler) http.Handler {
	if header == "" {
		header = DefaultTenantHeader
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p := PrincipalFromContext(r.Context())
			rc := tenancy.NewRequestContext(p)
			res := resolver.Resolve(r.Context(), tenancy.Request{
				Host:           r.Host,
				SelectorHeader: r.Header.Get(header),
				Principal:      p,
			})
			rc.Resolved(res.Tenant)

			ctx := tenancy.WithRequestContext(r.Context(), rc)
			if id := rc.TenantID(); id != "" {
				ctx = logger.WithTenantID(ctx, id)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GuardCrossTenant rejects non-admin principals whose home tenant differs
// from the resolved tenant with 403. Administrators pass and the crossing
// is recorded. Passing requests are tracked through HANDLING to COMPLETE,
// or ERROR when the handler answers with a 4xx/5xx status.
func GuardCrossTenant(v *tenancy.Validator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rc := tenancy.FromContext(r.Context())
			if rc == nil {
				next.ServeHTTP(w, r)
				return
			}
			if err := v.GuardCrossTenant(r.Context(), rc.Principal, rc.Tenant); err != nil {
				rc.Fail(err)
				writeError(w, http.StatusForbidden, crossTenantMessage)
				return
			}
			rc.Advance(tenancy.StageAccessChecked)
			rc.Advance(tenancy.StageHandling)

			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)
			if status := ww.Status(); status >= http.StatusBadRequest {
				rc.Fail(errors.New(http.StatusText(status)))
				return
			}
			rc.Advance(tenancy.StageComplete)
		})
	}
}

// RequireTenant rejects requests with no effective tenant unless the
// principal is an administrator.
func RequireTenant(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rc := tenancy.FromContext(r.Context())
		if rc.EffectiveTenantID() == "" && !PrincipalFromContext(r.Context()).IsAdmin() {
			if rc != nil {
				rc.Fail(tenancy.ErrTenantRequired)
			}
			writeError(w, http.StatusBadRequest, tenancy.ErrTenantRequired.Error())
			return
		}
		next.ServeHTTP(w, r)
	})
}
