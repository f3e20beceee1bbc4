package handlers

import (
	"log/slog"
	"net/http"
)

// ReadinessChecker reports whether skill vectors are computed. Implemented by
// service.ExtractionService.
type ReadinessChecker interface {
	SkillVectorsReady() bool
}

// HealthHandler handles health check requests.
type HealthHandler struct {
	readiness ReadinessChecker
}

// NewHealthHandler creates a new health handler. readiness may be nil, in which case Ready
// always reports ready.
func NewHealthHandler(readiness ReadinessChecker) *HealthHandler {
	return &HealthHandler{readiness: readiness}
}

// Check handles GET /health. It reports process liveness only; the embedding provider is
// not contacted.
func (h *HealthHandler) Check(w http.ResponseWriter, r *http.Request) {
	writeText(w, r, http.StatusOK, "OK")
}

// Ready handles GET /ready: 200 once skill vectors are cached, 503 while the first
// computation is pending. A request sent before then pays for the catalog batch.
func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	if h.readiness != nil && !h.readiness.SkillVectorsReady() {
		writeText(w, r, http.StatusServiceUnavailable, "warming up")

		return
	}

	writeText(w, r, http.StatusOK, "ready")
}

func writeText(w http.ResponseWriter, r *http.Request, status int, body string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)

	if _, err := w.Write([]byte(body)); err != nil {
		slog.ErrorContext(r.Context(), "Failed to write health check response", "error", err)
	}
}
