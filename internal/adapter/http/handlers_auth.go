package http

import (
	"log/slog"
	"net/http"

	"github.com/Strob0t/PropDesk/internal/domain/user"
)

// Login handles POST /api/auth/login
func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	req, ok := readJSON[user.LoginRequest](w, r, h.bodyLimit())
	if !ok {
		return
	}

	resp, err := h.Auth.Login(r.Context(), &req)
	if err != nil {
		slog.DebugContext(r.Context(), "login failed", "email", req.Email, "error", err)
		writeDomainError(w, err, "user not found")
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// Me handles GET /api/auth/me
func (h *Handlers) Me(w http.ResponseWriter, r *http.Request) {
	u, err := h.Auth.Me(r.Context())
	if err != nil {
		writeDomainError(w, err, "user not found")
		return
	}
	writeJSON(w, http.StatusOK, u)
}
