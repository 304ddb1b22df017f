package http

import (
	"net/http"

	"github.com/Strob0t/PropDesk/internal/domain/tenant"
)

func parseTenantFilter(r *http.Request) tenant.ListFilter {
	limit, offset := pageParams(r)
	return tenant.ListFilter{
		Search:   r.URL.Query().Get("search"),
		IsActive: queryBool(r, "is_active"),
		Limit:    limit,
		Offset:   offset,
	}
}

// ListTenants handles GET /api/org-tenants
func (h *Handlers) ListTenants(w http.ResponseWriter, r *http.Request) {
	handleList(parseTenantFilter, h.Tenants.List)(w, r)
}

// GetTenant handles GET /api/org-tenants/{id}
func (h *Handlers) GetTenant(w http.ResponseWriter, r *http.Request) {
	handleGet(h.Tenants.Get, "tenant not found")(w, r)
}

// CreateTenant handles POST /api/org-tenants
func (h *Handlers) CreateTenant(w http.ResponseWriter, r *http.Request) {
	handleCreate(h.bodyLimit(), h.Tenants.Create)(w, r)
}

// UpdateTenant handles PUT /api/org-tenants/{id}
func (h *Handlers) UpdateTenant(w http.ResponseWriter, r *http.Request) {
	handleUpdate(h.bodyLimit(), h.Tenants.Update, "tenant not found")(w, r)
}

// DeleteTenant handles DELETE /api/org-tenants/{id}
func (h *Handlers) DeleteTenant(w http.ResponseWriter, r *http.Request) {
	handleDelete(h.Tenants.Delete, "tenant not found")(w, r)
}

// TenantStats handles GET /api/org-tenants/{id}/stats
func (h *Handlers) TenantStats(w http.ResponseWriter, r *http.Request) {
	handleGet(h.Tenants.Stats, "tenant not found")(w, r)
}
