package httpapi

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/brightfeed/newsbrief/internal/errs"
)

// writeOK writes {success: true, ...fields, timestamp}. fields may be nil.
func writeOK(w http.ResponseWriter, now time.Time, fields map[string]any) {
	body := map[string]any{"success": true, "timestamp": now.UTC().Format(time.RFC3339)}
	for k, v := range fields {
		body[k] = v
	}
	writeJSON(w, http.StatusOK, body)
}

// writeErr writes {success: false, error, timestamp} per §7's propagation
// policy, at the status code implied by err's Kind.
func writeErr(w http.ResponseWriter, now time.Time, err error) {
	writeJSON(w, statusForErr(err), map[string]any{
		"success":   false,
		"error":     err.Error(),
		"timestamp": now.UTC().Format(time.RFC3339),
	})
}

func writeBadRequest(w http.ResponseWriter, now time.Time, message string) {
	writeErr(w, now, errs.New(errs.InvalidInput, message, nil))
}

func statusForErr(err error) int {
	switch {
	case errs.Is(err, errs.InvalidInput):
		return http.StatusBadRequest
	case errs.Is(err, errs.NotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, body map[string]any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func decodeJSON(r *http.Request, dst any) error {
	return json.NewDecoder(r.Body).Decode(dst)
}
