package http

import (
	"encoding/json"
	"net/http"

	"github.com/charmbracelet/log"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error("Failed to write response", "error", err)
	}
}

// writeError writes err as a JSON error body. Server errors are logged and
// replaced by a generic message.
func writeError(w http.ResponseWriter, err error, status int) {
	msg := err.Error()
	if status >= http.StatusInternalServerError {
		log.Error("Request failed", "error", err)
		msg = http.StatusText(status)
	}
	writeJSON(w, status, errorResponse{Error: msg})
}

// respondErr writes err with the status its kind maps to.
func respondErr(w http.ResponseWriter, err error) {
	writeError(w, err, statusFor(err))
}

func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}
