package middleware

import (
	"log/slog"
	"net/http"

	"github.com/mandatohub/mandato/internal/model"
)

// Recover returns middleware that converts panics into a generic 500 JSON
// response. Internal detail is logged, never sent to the client.
func Recover(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					logger.Error("panic recovered",
						"panic", rec,
						"method", r.Method,
						"path", r.URL.Path,
						"request_id", GetRequestID(r.Context()),
					)
					writeError(w, http.StatusInternalServerError,
						model.ErrorBody{Error: "Erro interno do servidor"})
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}
