package http

import (
	"net/http"
	"strings"

	"github.com/Strob0t/PropDesk/internal/domain/property"
)

func parsePropertyFilter(r *http.Request) property.ListFilter {
	q := r.URL.Query()
	limit, offset := pageParams(r)
	return property.ListFilter{
		Search:     q.Get("search"),
		Status:     property.Status(strings.ToUpper(q.Get("status"))),
		Type:       property.Type(strings.ToUpper(q.Get("type"))),
		City:       q.Get("city"),
		BuildingID: q.Get("building_id"),
		MinArea:    queryFloat(r, "min_area"),
		MaxArea:    queryFloat(r, "max_area"),
		Limit:      limit,
		Offset:     offset,
	}
}

// ListProperties handles GET /api/properties
func (h *Handlers) ListProperties(w http.ResponseWriter, r *http.Request) {
	handleList(parsePropertyFilter, h.Properties.List)(w, r)
}

// GetProperty handles GET /api/properties/{id}
func (h *Handlers) GetProperty(w http.ResponseWriter, r *http.Request) {
	handleGet(h.Properties.Get, "property not found")(w, r)
}

// CreateProperty handles POST /api/properties
func (h *Handlers) CreateProperty(w http.ResponseWriter, r *http.Request) {
	handleCreate(h.bodyLimit(), h.Properties.Create)(w, r)
}

// UpdateProperty handles PUT /api/properties/{id}
func (h *Handlers) UpdateProperty(w http.ResponseWriter, r *http.Request) {
	handleUpdate(h.bodyLimit(), h.Properties.Update, "property not found")(w, r)
}

// DeleteProperty handles DELETE /api/properties/{id}
func (h *Handlers) DeleteProperty(w http.ResponseWriter, r *http.Request) {
	handleDelete(h.Properties.Delete, "property not found")(w, r)
}

// ListPropertyDocuments handles GET /api/properties/{id}/documents
func (h *Handlers) ListPropertyDocuments(w http.ResponseWriter, r *http.Request) {
	handleListByParam(h.Properties.Documents, "property not found")(w, r)
}

// AddPropertyDocument handles POST /api/properties/{id}/documents
func (h *Handlers) AddPropertyDocument(w http.ResponseWriter, r *http.Request) {
	handleCreateUnder(h.bodyLimit(), h.Properties.AddDocument, "property not found")(w, r)
}

// ListPropertyMaintenance handles GET /api/properties/{id}/maintenance
func (h *Handlers) ListPropertyMaintenance(w http.ResponseWriter, r *http.Request) {
	handleListByParam(h.Properties.Maintenance, "property not found")(w, r)
}

// AddPropertyMaintenance handles POST /api/properties/{id}/maintenance
func (h *Handlers) AddPropertyMaintenance(w http.ResponseWriter, r *http.Request) {
	handleCreateUnder(h.bodyLimit(), h.Properties.AddMaintenance, "property not found")(w, r)
}
