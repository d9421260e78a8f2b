package handlers

import (
	"net/http"
	"sync"
	"time"
)

// HealthResponse is the body of the health endpoint.
type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
}

// ReadyResponse is the body of the ready endpoint.
type ReadyResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

// CheckFunc reports whether a dependency is ready.
type CheckFunc func() bool

// HealthHandler serves liveness and readiness.
type HealthHandler struct {
	mu     sync.RWMutex
	ready  bool
	checks map[string]CheckFunc
}

// NewHealthHandler creates a HealthHandler that starts ready.
func NewHealthHandler() *HealthHandler {
	return &HealthHandler{
		ready:  true,
		checks: make(map[string]CheckFunc),
	}
}

// RegisterCheck adds a named readiness check.
func (h *HealthHandler) RegisterCheck(name string, check CheckFunc) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.checks[name] = check
}

// SetReady flips the overall readiness flag, used during shutdown.
func (h *HealthHandler) SetReady(ready bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.ready = ready
}

// Health handles GET /health.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

// Ready handles GET /ready.
func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	allReady := h.ready
	checks := make(map[string]string, len(h.checks))
	for name, check := range h.checks {
		if check() {
			checks[name] = "ok"
		} else {
			checks[name] = "failing"
			allReady = false
		}
	}

	resp := ReadyResponse{Status: "ready", Checks: checks}
	status := http.StatusOK
	if !allReady {
		resp.Status = "not ready"
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, resp)
}
