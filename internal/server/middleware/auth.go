package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/mandatohub/mandato/internal/model"
	"github.com/mandatohub/mandato/internal/service"
)

type contextKeyAuth string

const (
	// CurrentUserKey is the context key for the authenticated user.
	CurrentUserKey contextKeyAuth = "current_user"
	// APIKeyKey is the context key for the resolved API key on machine routes.
	APIKeyKey contextKeyAuth = "api_key"
)

// SessionVerifier verifies a session token and re-reads its subject.
type SessionVerifier interface {
	CurrentUser(ctx context.Context, token string) (*model.User, error)
}

// SessionAuth returns middleware that authenticates human sessions from the
// Authorization header ("Bearer <jwt>"). On success the user record — with
// the role as currently stored, not the one embedded in the token — is
// attached to the request context. Every failure terminates the request with
// a JSON error; handlers past this point never re-check identity.
func SessionAuth(verifier SessionVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if !strings.HasPrefix(header, "Bearer ") {
				writeError(w, http.StatusUnauthorized, model.ErrorBody{Error: "Token não fornecido"})
				return
			}
			token := strings.TrimPrefix(header, "Bearer ")

			user, err := verifier.CurrentUser(r.Context(), token)
			if err != nil {
				switch {
				case errors.Is(err, service.ErrUserNotFound):
					writeError(w, http.StatusForbidden, model.ErrorBody{Error: "Usuário não encontrado"})
				case errors.Is(err, service.ErrUserDisabled):
					writeError(w, http.StatusForbidden, model.ErrorBody{Error: "Usuário desativado"})
				case errors.Is(err, service.ErrInvalidToken):
					writeError(w, http.StatusUnauthorized, model.ErrorBody{Error: "Token inválido ou expirado"})
				default:
					writeError(w, http.StatusInternalServerError, model.ErrorBody{Error: "Erro interno de autenticação"})
				}
				return
			}

			ctx := context.WithValue(r.Context(), CurrentUserKey, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetUser extracts the authenticated user from the context. Returns nil on
// unauthenticated requests.
func GetUser(ctx context.Context) *model.User {
	if u, ok := ctx.Value(CurrentUserKey).(*model.User); ok {
		return u
	}
	return nil
}

// GetAPIKey extracts the resolved API key from the context. Returns nil
// outside API-key-authenticated routes.
func GetAPIKey(ctx context.Context) *model.APIKey {
	if k, ok := ctx.Value(APIKeyKey).(*model.APIKey); ok {
		return k
	}
	return nil
}
