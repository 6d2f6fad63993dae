package middleware

import (
	"context"
	"net"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/iho/bankledger/internal/domain"
)

// RateLimitObserver is told about every rejected request.
type RateLimitObserver interface {
	RateLimited()
}

type client struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter implements per-caller rate limiting. Authenticated callers are
// keyed by user id, anonymous ones by client IP.
type RateLimiter struct {
	mu       sync.Mutex
	clients  map[string]*client
	rate     rate.Limit
	burst    int
	observer RateLimitObserver
	now      func() time.Time
}

// NewRateLimiter creates a new rate limiter allowing rps requests per second
// with bursts of burst. observer may be nil.
func NewRateLimiter(rps float64, burst int, observer RateLimitObserver) *RateLimiter {
	return &RateLimiter{
		clients:  make(map[string]*client),
		rate:     rate.Limit(rps),
		burst:    burst,
		observer: observer,
		now:      time.Now,
	}
}

func (rl *RateLimiter) allow(key string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	c, ok := rl.clients[key]
	if !ok {
		c = &client{limiter: rate.NewLimiter(rl.rate, rl.burst)}
		rl.clients[key] = c
	}
	c.lastSeen = rl.now()

	return c.limiter.AllowN(c.lastSeen, 1)
}

// Limit is a middleware that enforces the limit.
func (rl *RateLimiter) Limit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !rl.allow(callerKey(r)) {
			if rl.observer != nil {
				rl.observer.RateLimited()
			}
			w.Header().Set("Retry-After", "1")
			writeError(w, domain.ErrRateLimited)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// Cleanup forgets callers idle for longer than idle.
func (rl *RateLimiter) Cleanup(idle time.Duration) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	cutoff := rl.now().Add(-idle)
	for key, c := range rl.clients {
		if c.lastSeen.Before(cutoff) {
			delete(rl.clients, key)
		}
	}
}

// Run calls Cleanup every interval until ctx is done.
func (rl *RateLimiter) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			rl.Cleanup(interval)
		}
	}
}

func (rl *RateLimiter) size() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.clients)
}

// callerKey relies on chi's RealIP middleware having rewritten RemoteAddr.
func callerKey(r *http.Request) string {
	if p, ok := domain.PrincipalFromContext(r.Context()); ok {
		return "user:" + p.UserID
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	return "ip:" + host
}
