package middleware

import (
	"context"
	"log/slog"
	"math"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/Strob0t/PropDesk/internal/logger"
)

const maxTrackedClients = 100_000

// RateLimiter is a per-client-IP token bucket. PropDesk puts it in front of
// the login endpoint to slow down password guessing.
type RateLimiter struct {
	mu      sync.Mutex
	clients map[string]*client
	rate    rate.Limit
	burst   int
	log     *slog.Logger
	now     func() time.Time
}

type client struct {
	lim  *rate.Limiter
	seen time.Time
}

// NewRateLimiter creates a limiter with the given sustained rate (requests
// per second) and burst size. A nil log uses slog.Default.
func NewRateLimiter(perSecond float64, burst int, log *slog.Logger) *RateLimiter {
	if log == nil {
		log = slog.Default()
	}
	return &RateLimiter{
		clients: make(map[string]*client),
		rate:    rate.Limit(perSecond),
		burst:   burst,
		log:     log,
		now:     time.Now,
	}
}

// Handler returns HTTP middleware that rejects clients over their budget with 429.
func (rl *RateLimiter) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := clientIP(r)
		remaining, wait, ok := rl.take(ip)
		w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
		if !ok {
			rl.log.WarnContext(r.Context(), "rate limit exceeded",
				"client_ip", ip,
				"path", r.URL.Path,
				"request_id", logger.RequestID(r.Context()),
			)
			w.Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(wait.Seconds()))))
			writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// take spends one token for ip. It returns the tokens left, how long until
// the next token when refused, and whether the request may proceed.
func (rl *RateLimiter) take(ip string) (int, time.Duration, bool) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	c, ok := rl.clients[ip]
	if !ok {
		if len(rl.clients) >= maxTrackedClients {
			return 0, time.Duration(float64(time.Second) / float64(rl.rate)), false
		}
		c = &client{lim: rate.NewLimiter(rl.rate, rl.burst)}
		rl.clients[ip] = c
	}
	c.seen = now

	res := c.lim.ReserveN(now, 1)
	if !res.OK() {
		return 0, time.Duration(float64(time.Second) / float64(rl.rate)), false
	}
	if wait := res.DelayFrom(now); wait > 0 {
		res.CancelAt(now)
		return 0, wait, false
	}
	return int(c.lim.TokensAt(now)), 0, true
}

// StartCleanup forgets clients idle for longer than maxIdle, checking every
// interval until ctx is done.
func (rl *RateLimiter) StartCleanup(ctx context.Context, interval, maxIdle time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				rl.forget(maxIdle)
			}
		}
	}()
}

func (rl *RateLimiter) forget(maxIdle time.Duration) {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	cutoff := rl.now().Add(-maxIdle)
	for ip, c := range rl.clients {
		if c.seen.Before(cutoff) {
			delete(rl.clients, ip)
		}
	}
}

// Len returns the number of tracked clients.
func (rl *RateLimiter) Len() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.clients)
}

// clientIP returns the host part of RemoteAddr. Run chi's RealIP first when
// PropDesk sits behind a trusted proxy.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
