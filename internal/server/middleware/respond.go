package middleware

import (
	"encoding/json"
	"net/http"

	"github.com/mandatohub/mandato/internal/model"
)

// writeError emits the standard flat error envelope. Middleware has its own
// copy of this helper to avoid importing the handler package.
func writeError(w http.ResponseWriter, status int, body model.ErrorBody) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body) //nolint:errcheck
}
