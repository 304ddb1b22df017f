package http

import (
	"net/http"
	"strings"

	"github.com/Strob0t/PropDesk/internal/domain/audit"
)

func parseAuditFilter(r *http.Request) audit.ListFilter {
	q := r.URL.Query()
	limit, offset := pageParams(r)
	return audit.ListFilter{
		Action:     strings.ToUpper(q.Get("action")),
		EntityType: q.Get("entity_type"),
		EntityID:   q.Get("entity_id"),
		UserID:     q.Get("user_id"),
		Limit:      limit,
		Offset:     offset,
	}
}

// ListAuditLogs handles GET /api/audit-logs
func (h *Handlers) ListAuditLogs(w http.ResponseWriter, r *http.Request) {
	handleList(parseAuditFilter, h.Audit.List)(w, r)
}
