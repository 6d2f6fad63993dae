package handler

import (
	"context"
	"net/http"
	"time"
)

// Checker reports whether a dependency is reachable.
type Checker func(ctx context.Context) error

// HealthHandler handles health check requests.
type HealthHandler struct {
	checks map[string]Checker
}

// NewHealthHandler creates a new HealthHandler. checks is keyed by the
// dependency name reported in the readiness body.
func NewHealthHandler(checks map[string]Checker) *HealthHandler {
	return &HealthHandler{checks: checks}
}

// Liveness returns 200 if the service is alive.
func (h *HealthHandler) Liveness(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Readiness returns 200 if every dependency answers, 503 otherwise.
func (h *HealthHandler) Readiness(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	body := map[string]string{"status": "ready"}
	status := http.StatusOK
	for name, check := range h.checks {
		if err := check(ctx); err != nil {
			body[name] = err.Error()
			body["status"] = "unavailable"
			status = http.StatusServiceUnavailable
			continue
		}
		body[name] = "ok"
	}

	writeJSON(w, status, body)
}
