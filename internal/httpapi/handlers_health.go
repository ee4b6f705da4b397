package httpapi

import (
	"net/http"
	"time"
)

// handleHealthCheck implements health_check (GET): liveness plus each
// provider's last-known quota state (internal/providers/quota), the
// supplemental diagnostics feature recovered from the original's operator
// quota-check scripts. A provider absent from quota_state has not yet made
// a call this process's lifetime.
func (s *server) handleHealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":      "healthy",
		"timestamp":   s.now().UTC().Format(time.RFC3339),
		"quota_state": s.deps.Quota.Snapshot(),
	})
}
