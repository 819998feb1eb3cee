package middleware

import (
	"net/http"
	"time"

	"github.com/go-chi/httprate"
)

// LoginRateLimit returns an IP-keyed limiter for the unauthenticated login
// and registration endpoints, slowing down credential-stuffing attempts.
// Per-API-key limiting on machine routes is handled separately by
// APIKeyAuth, which needs the fixed-window header contract httprate does
// not expose.
func LoginRateLimit(requestsPerMinute int) func(http.Handler) http.Handler {
	return httprate.LimitByIP(requestsPerMinute, time.Minute)
}
