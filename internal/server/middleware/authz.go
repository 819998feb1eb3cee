package middleware

import (
	"net/http"

	"github.com/mandatohub/mandato/internal/model"
)

// RequireRole returns middleware that rejects callers whose hierarchy level
// is below every role in the allow-list. Meeting the least-privileged listed
// role is sufficient: RequireRole("coordenador") admits coordenador and
// admin callers alike. An unknown or empty caller role counts as the lowest
// level, never more.
//
// Must be used after SessionAuth in the chain.
func RequireRole(roles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user := GetUser(r.Context())
			if user == nil {
				writeError(w, http.StatusUnauthorized, model.ErrorBody{Error: "Não autenticado"})
				return
			}

			callerLevel := model.RoleLevel(user.Role)
			for _, role := range roles {
				if callerLevel >= model.RoleLevel(role) {
					next.ServeHTTP(w, r)
					return
				}
			}

			writeError(w, http.StatusForbidden, model.ErrorBody{
				Error: "Acesso negado",
				Code:  "FORBIDDEN",
			})
		})
	}
}

// RequirePermission returns middleware that checks a named feature flag in
// the authenticated user's permission set, falling back to the role-derived
// defaults when the user stores no explicit permissions. Independent of the
// role hierarchy.
func RequirePermission(flag string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user := GetUser(r.Context())
			if user == nil {
				writeError(w, http.StatusUnauthorized, model.ErrorBody{Error: "Não autenticado"})
				return
			}

			if !user.EffectivePermissions().Has(flag) {
				writeError(w, http.StatusForbidden, model.ErrorBody{
					Error: "Permissão negada: " + flag,
					Code:  "PERMISSION_DENIED",
				})
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
