package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/Strob0t/PropDesk/internal/domain/user"
)

type principalCtxKey struct{}

// TokenValidator turns a bearer token into the principal it names.
// *service.AuthService implements it.
type TokenValidator interface {
	ValidateToken(raw string) (*user.Principal, error)
}

// publicPaths are exempt from authentication.
var publicPaths = map[string]bool{
	"/health":          true,
	"/health/ready":    true,
	"/api/auth/login":  true,
	"/api/auth/login/": true,
}

// Auth returns middleware that validates the Authorization bearer token and
// stores the resulting principal in the request context.
func Auth(tokens TokenValidator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if publicPaths[r.URL.Path] {
				next.ServeHTTP(w, r)
				return
			}

			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				writeError(w, http.StatusUnauthorized, "authorization required")
				return
			}

			token := strings.TrimPrefix(authHeader, "Bearer ")
			if token == authHeader || token == "" {
				writeError(w, http.StatusUnauthorized, "invalid authorization header")
				return
			}

			p, err := tokens.ValidateToken(token)
			if err != nil {
				writeError(w, http.StatusUnauthorized, "invalid or expired token")
				return
			}

			next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), p)))
		})
	}
}

// WithPrincipal stores p in ctx.
func WithPrincipal(ctx context.Context, p *user.Principal) context.Context {
	return context.WithValue(ctx, principalCtxKey{}, p)
}

// PrincipalFromContext returns the authenticated principal, or nil on public routes.
func PrincipalFromContext(ctx context.Context) *user.Principal {
	p, _ := ctx.Value(principalCtxKey{}).(*user.Principal)
	return p
}
