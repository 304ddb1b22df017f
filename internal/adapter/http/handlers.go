package http

import (
	"context"
	"net/http"
	"time"

	"github.com/Strob0t/PropDesk/internal/service"
)

// DefaultBodyLimit caps JSON request bodies when Handlers.BodyLimit is unset.
const DefaultBodyLimit = 1 << 20 // 1 MB

const readyTimeout = 2 * time.Second

// Handlers holds the HTTP handler dependencies.
type Handlers struct {
	Tenants    *service.TenantService
	Buildings  *service.BuildingService
	Properties *service.PropertyService
	Contracts  *service.ContractService
	Users      *service.UserService
	Auth       *service.AuthService
	Audit      *service.AuditService

	// Ready reports whether the backing store accepts queries.
	// Nil means the in-memory store, which is always ready.
	Ready func(ctx context.Context) error

	BodyLimit int64
}

func (h *Handlers) bodyLimit() int64 {
	if h.BodyLimit > 0 {
		return h.BodyLimit
	}
	return DefaultBodyLimit
}

// Health handles GET /health.
func (h *Handlers) Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// ReadyCheck handles GET /health/ready.
func (h *Handlers) ReadyCheck(w http.ResponseWriter, r *http.Request) {
	if h.Ready != nil {
		ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
		defer cancel()
		if err := h.Ready(ctx); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable", "database": "down"})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "database": "up"})
}
