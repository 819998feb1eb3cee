package middleware

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/mandatohub/mandato/internal/model"
	"github.com/mandatohub/mandato/internal/ratelimit"
)

// KeyVerifier resolves a raw API key secret to an active key record.
type KeyVerifier interface {
	ValidateAPIKey(ctx context.Context, rawKey string) (*model.APIKey, error)
}

// UsageRecorder accepts usage entries for asynchronous persistence.
type UsageRecorder interface {
	Record(rec model.UsageRecord)
}

// APIKeyAuth returns middleware for machine routes. It authenticates the
// "Bearer pk_..." credential, applies the per-key fixed-window limiter, and
// after the response is written enqueues a usage record for the resolved key.
//
// Header-shape failures are rejected before any store lookup. Invalid keys
// produce no usage record: there is no key id to attribute the attempt to.
func APIKeyAuth(verifier KeyVerifier, limiter *ratelimit.Limiter, recorder UsageRecorder) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if !strings.HasPrefix(header, "Bearer "+model.APIKeyPrefix) {
				writeError(w, http.StatusUnauthorized, model.ErrorBody{Error: "Chave de API ausente ou malformada"})
				return
			}
			rawKey := strings.TrimPrefix(header, "Bearer ")

			key, err := verifier.ValidateAPIKey(r.Context(), rawKey)
			if err != nil {
				writeError(w, http.StatusUnauthorized, model.ErrorBody{Error: "Chave de API inválida ou expirada"})
				return
			}

			res := limiter.Allow(strconv.FormatInt(key.ID, 10))
			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(res.Limit))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(res.Remaining))
			w.Header().Set("X-RateLimit-Reset", res.ResetAt.UTC().Format(time.RFC3339))
			if !res.Allowed {
				w.Header().Set("Retry-After", strconv.Itoa(res.RetryAfter))
				writeError(w, http.StatusTooManyRequests, model.ErrorBody{
					Error:      "Limite de requisições excedido",
					RetryAfter: res.RetryAfter,
				})
				return
			}

			ww := &responseWriter{ResponseWriter: w, status: http.StatusOK}
			ctx := context.WithValue(r.Context(), APIKeyKey, key)
			next.ServeHTTP(ww, r.WithContext(ctx))

			recorder.Record(model.UsageRecord{
				APIKeyID:   key.ID,
				Endpoint:   r.URL.Path,
				Method:     r.Method,
				StatusCode: ww.status,
				IPAddress:  clientIP(r),
				UserAgent:  r.Header.Get("User-Agent"),
			})
		})
	}
}

// clientIP extracts the caller address, honoring proxy headers when present.
func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		if idx := strings.Index(xff, ","); idx != -1 {
			return strings.TrimSpace(xff[:idx])
		}
		return strings.TrimSpace(xff)
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}
	if idx := strings.LastIndex(r.RemoteAddr, ":"); idx != -1 {
		return r.RemoteAddr[:idx]
	}
	return r.RemoteAddr
}
