package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Strob0t/PropDesk/internal/domain/user"
	"github.com/Strob0t/PropDesk/internal/middleware"
)

func serveAs(h http.Handler, p *user.Principal) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/api/users", http.NoBody)
	if p != nil {
		req = req.WithContext(middleware.WithPrincipal(req.Context(), p))
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestRequireRole(t *testing.T) {
	handler := middleware.RequireRole(user.RoleAdmin, user.RoleManager)(http.HandlerFunc(okHandler))

	tests := []struct {
		name      string
		principal *user.Principal
		want      int
	}{
		{name: "admin allowed", principal: &user.Principal{ID: "a", Role: user.RoleAdmin}, want: http.StatusOK},
		{name: "manager allowed", principal: &user.Principal{ID: "m", Role: user.RoleManager}, want: http.StatusOK},
		{name: "accountant forbidden", principal: &user.Principal{ID: "c", Role: user.RoleAccountant}, want: http.StatusForbidden},
		{name: "renter forbidden", principal: &user.Principal{ID: "r", Role: user.RoleTenant}, want: http.StatusForbidden},
		{name: "anonymous", principal: nil, want: http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if rec := serveAs(handler, tt.principal); rec.Code != tt.want {
				t.Errorf("status = %d, want %d", rec.Code, tt.want)
			}
		})
	}
}
