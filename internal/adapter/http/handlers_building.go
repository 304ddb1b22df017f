package http

import (
	"net/http"

	"github.com/Strob0t/PropDesk/internal/domain/building"
)

func parseBuildingFilter(r *http.Request) building.ListFilter {
	q := r.URL.Query()
	limit, offset := pageParams(r)
	return building.ListFilter{
		Search:   q.Get("search"),
		City:     q.Get("city"),
		District: q.Get("district"),
		IsActive: queryBool(r, "is_active"),
		Limit:    limit,
		Offset:   offset,
	}
}

// ListBuildings handles GET /api/buildings
func (h *Handlers) ListBuildings(w http.ResponseWriter, r *http.Request) {
	handleList(parseBuildingFilter, h.Buildings.List)(w, r)
}

// GetBuilding handles GET /api/buildings/{id}
func (h *Handlers) GetBuilding(w http.ResponseWriter, r *http.Request) {
	handleGet(h.Buildings.Get, "building not found")(w, r)
}

// CreateBuilding handles POST /api/buildings
func (h *Handlers) CreateBuilding(w http.ResponseWriter, r *http.Request) {
	handleCreate(h.bodyLimit(), h.Buildings.Create)(w, r)
}

// UpdateBuilding handles PUT /api/buildings/{id}
func (h *Handlers) UpdateBuilding(w http.ResponseWriter, r *http.Request) {
	handleUpdate(h.bodyLimit(), h.Buildings.Update, "building not found")(w, r)
}

// DeleteBuilding handles DELETE /api/buildings/{id}
func (h *Handlers) DeleteBuilding(w http.ResponseWriter, r *http.Request) {
	handleDelete(h.Buildings.Delete, "building not found")(w, r)
}
