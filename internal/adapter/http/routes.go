package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Strob0t/PropDesk/internal/domain/user"
	"github.com/Strob0t/PropDesk/internal/middleware"
)

// RouteMiddleware carries optional per-route middleware built by the caller.
// Nil entries are skipped.
type RouteMiddleware struct {
	// LoginLimiter throttles POST /api/auth/login per client address.
	LoginLimiter func(http.Handler) http.Handler
	// Idempotency replays mutating requests that repeat an Idempotency-Key.
	Idempotency func(http.Handler) http.Handler
}

func passThrough(next http.Handler) http.Handler { return next }

func orPass(mw func(http.Handler) http.Handler) func(http.Handler) http.Handler {
	if mw == nil {
		return passThrough
	}
	return mw
}

// MountRoutes registers all API routes on the given chi router. The router
// must already run authentication and the tenant pipeline.
func MountRoutes(r chi.Router, h *Handlers, mw RouteMiddleware) {
	r.Get("/health", h.Health)
	r.Get("/health/ready", h.ReadyCheck)

	managers := middleware.RequireRole(user.RoleAdmin, user.RoleManager, user.RolePropertyOwner)
	accounting := middleware.RequireRole(user.RoleAdmin, user.RoleManager, user.RoleAccountant)

	r.Route("/api", func(r chi.Router) {
		r.Use(orPass(mw.Idempotency))

		// Auth
		r.With(orPass(mw.LoginLimiter)).Post("/auth/login", h.Login)
		r.Get("/auth/me", h.Me)

		// Organization tenants (platform administration)
		r.Route("/org-tenants", func(r chi.Router) {
			r.Use(middleware.RequireRole(user.RoleAdmin))
			r.Get("/", h.ListTenants)
			r.Post("/", h.CreateTenant)
			r.Get("/{id}", h.GetTenant)
			r.Put("/{id}", h.UpdateTenant)
			r.Delete("/{id}", h.DeleteTenant)
			r.Get("/{id}/stats", h.TenantStats)
		})

		// Tenant-scoped resources
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireTenant)

			r.Route("/buildings", func(r chi.Router) {
				r.Get("/", h.ListBuildings)
				r.Get("/{id}", h.GetBuilding)
				r.With(managers).Post("/", h.CreateBuilding)
				r.With(managers).Put("/{id}", h.UpdateBuilding)
				r.With(managers).Delete("/{id}", h.DeleteBuilding)
			})

			r.Route("/properties", func(r chi.Router) {
				r.Get("/", h.ListProperties)
				r.Get("/{id}", h.GetProperty)
				r.With(managers).Post("/", h.CreateProperty)
				r.With(managers).Put("/{id}", h.UpdateProperty)
				r.With(managers).Delete("/{id}", h.DeleteProperty)

				r.Get("/{id}/documents", h.ListPropertyDocuments)
				r.With(managers).Post("/{id}/documents", h.AddPropertyDocument)
				r.Get("/{id}/maintenance", h.ListPropertyMaintenance)
				r.With(managers).Post("/{id}/maintenance", h.AddPropertyMaintenance)
			})

			r.Route("/contracts", func(r chi.Router) {
				r.Get("/", h.ListContracts)
				r.Get("/{id}", h.GetContract)
				r.With(managers).Post("/", h.CreateContract)
				r.With(managers).Put("/{id}", h.UpdateContract)
				r.With(managers).Delete("/{id}", h.DeleteContract)
				r.With(managers).Post("/{id}/terminate", h.TerminateContract)

				r.Get("/{id}/payments", h.ListPayments)
				r.With(accounting).Post("/{id}/payments", h.AddPayment)
			})

			r.Route("/users", func(r chi.Router) {
				r.Use(middleware.RequireRole(user.RoleAdmin, user.RoleManager))
				r.Get("/", h.ListUsers)
				r.Post("/", h.CreateUser)
				r.Get("/{id}", h.GetUser)
				r.Put("/{id}", h.UpdateUser)
				r.Delete("/{id}", h.DeleteUser)
			})

			r.With(accounting).Get("/audit-logs", h.ListAuditLogs)
		})
	})
}
