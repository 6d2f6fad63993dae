package middleware

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
)

// HTTPObserver records request metrics.
type HTTPObserver interface {
	ObserveHTTP(method, route string, status int, duration time.Duration)
	InFlight(delta float64)
}

// Metrics records HTTP metrics labelled by the chi route pattern, so ids in
// paths never reach the label set.
func Metrics(obs HTTPObserver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			obs.InFlight(1)
			defer obs.InFlight(-1)

			rec := newStatusRecorder(w)
			next.ServeHTTP(rec, r)

			obs.ObserveHTTP(r.Method, routePattern(r), rec.statusCode, time.Since(start))
		})
	}
}

func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if pattern := rctx.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	return "unmatched"
}
