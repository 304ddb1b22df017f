package http

import (
	"context"
	"net/http"
	"strings"

	"github.com/Strob0t/PropDesk/internal/domain/user"
)

func parseUserFilter(r *http.Request) user.ListFilter {
	limit, offset := pageParams(r)
	return user.ListFilter{
		Search: r.URL.Query().Get("search"),
		Role:   user.Role(strings.ToUpper(r.URL.Query().Get("role"))),
		Limit:  limit,
		Offset: offset,
	}
}

// ListUsers handles GET /api/users
func (h *Handlers) ListUsers(w http.ResponseWriter, r *http.Request) {
	handleList(parseUserFilter, h.Users.List)(w, r)
}

// GetUser handles GET /api/users/{id}
func (h *Handlers) GetUser(w http.ResponseWriter, r *http.Request) {
	handleGet(h.Users.Get, "user not found")(w, r)
}

// CreateUser handles POST /api/users
func (h *Handlers) CreateUser(w http.ResponseWriter, r *http.Request) {
	handleCreate(h.bodyLimit(), h.Users.Create)(w, r)
}

// UpdateUser handles PUT /api/users/{id}
func (h *Handlers) UpdateUser(w http.ResponseWriter, r *http.Request) {
	handleUpdate(h.bodyLimit(), h.Users.Update, "user not found")(w, r)
}

// DeleteUser handles DELETE /api/users/{id}. Users are always removed.
func (h *Handlers) DeleteUser(w http.ResponseWriter, r *http.Request) {
	handleDelete(func(ctx context.Context, id string, _ bool) error {
		return h.Users.Delete(ctx, id)
	}, "user not found")(w, r)
}
