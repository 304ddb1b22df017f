package middleware

import (
	"net/http"

	"github.com/Strob0t/PropDesk/internal/service"
)

// ClientInfo stores the caller's IP address and user agent for audit entries.
func ClientInfo(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := service.WithClient(r.Context(), clientIP(r), r.UserAgent())
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
