package middleware

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/Strob0t/PropDesk/internal/port/cache"
	"github.com/Strob0t/PropDesk/internal/tenancy"
)

const (
	headerIdempotencyKey = "Idempotency-Key"
	maxIdempotencyBody   = 1 << 20 // 1 MB
)

// idempotencyEntry stores a replayable HTTP response.
type idempotencyEntry struct {
	StatusCode int                 `json:"status_code"`
	Headers    map[string][]string `json:"headers"`
	Body       []byte              `json:"body"`
}

// Idempotency returns middleware that replays the stored response of a
// mutating request carrying an Idempotency-Key header the caller already
// used. Keys are private to the principal and tenant that sent them and
// bound to the request body. Anonymous requests are never replayed. Only
// successful responses are stored, so a failed attempt can be retried.
func Idempotency(store cache.Cache, ttl time.Duration, log *slog.Logger) func(http.Handler) http.Handler {
	if log == nil {
		log = slog.Default()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodGet || r.Method == http.MethodHead || r.Method == http.MethodOptions {
				next.ServeHTTP(w, r)
				return
			}
			key := r.Header.Get(headerIdempotencyKey)
			if key == "" || PrincipalFromContext(r.Context()) == nil {
				next.ServeHTTP(w, r)
				return
			}
			ctx := r.Context()
			body, err := io.ReadAll(io.LimitReader(r.Body, maxIdempotencyBody+1))
			if err != nil {
				writeError(w, http.StatusBadRequest, "invalid request body")
				return
			}
			r.Body = io.NopCloser(bytes.NewReader(body))
			if len(body) > maxIdempotencyBody {
				next.ServeHTTP(w, r)
				return
			}
			id := idempotencyID(r, key, body)

			if raw, ok, err := store.Get(ctx, id); err != nil {
				log.WarnContext(ctx, "idempotency: lookup failed", "error", err)
			} else if ok {
				var cached idempotencyEntry
				if err := json.Unmarshal(raw, &cached); err == nil {
					for k, vals := range cached.Headers {
						w.Header()[k] = vals
					}
					w.Header().Set("Idempotent-Replayed", "true")
					w.WriteHeader(cached.StatusCode)
					_, _ = w.Write(cached.Body)
					return
				}
				log.WarnContext(ctx, "idempotency: corrupt cache entry")
			}

			rec := &responseRecorder{ResponseWriter: w, statusCode: http.StatusOK, body: &bytes.Buffer{}}
			next.ServeHTTP(rec, r)

			if rec.statusCode >= http.StatusBadRequest || rec.body.Len() > maxIdempotencyBody {
				return
			}
			data, err := json.Marshal(idempotencyEntry{
				StatusCode: rec.statusCode,
				Headers:    w.Header().Clone(),
				Body:       rec.body.Bytes(),
			})
			if err != nil {
				return
			}
			if err := store.Set(ctx, id, data, ttl); err != nil {
				log.WarnContext(ctx, "idempotency: failed to store response", "error", err)
			}
		})
	}
}

// idempotencyID derives a store key from the caller, tenant, route, client
// key and body.
func idempotencyID(r *http.Request, key string, body []byte) string {
	h := sha256.New()
	rc := tenancy.FromContext(r.Context())
	var who string
	if p := PrincipalFromContext(r.Context()); p != nil {
		who = p.ID
	}
	for _, part := range []string{who, rc.EffectiveTenantID(), r.Method, r.URL.Path, key} {
		h.Write([]byte(part))
		h.Write([]byte{0})
	}
	bodySum := sha256.Sum256(body)
	h.Write(bodySum[:])
	return "idem." + hex.EncodeToString(h.Sum(nil))
}

// responseRecorder wraps http.ResponseWriter to capture the response.
type responseRecorder struct {
	http.ResponseWriter
	statusCode int
	body       *bytes.Buffer
}

func (r *responseRecorder) WriteHeader(code int) {
	r.statusCode = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *responseRecorder) Write(b []byte) (int, error) {
	r.body.Write(b)
	return r.ResponseWriter.Write(b)
}
