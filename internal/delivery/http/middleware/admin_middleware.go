package middleware

import (
	"net/http"

	"settlement-engine/internal/domain"
	"settlement-engine/pkg/utils"
)

// RequireRoles lets the request through only for the listed roles.
// MUST be used AFTER AuthMiddleware.
func RequireRoles(roles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user := UserFromContext(r.Context())
			if user == nil {
				utils.WriteError(w, http.StatusUnauthorized, "Unauthorized: No user found in context")
				return
			}
			for _, role := range roles {
				if user.Role == role {
					next.ServeHTTP(w, r)
					return
				}
			}
			utils.WriteError(w, http.StatusForbidden, "Forbidden")
		})
	}
}

// AdminMiddleware ensures the authenticated user has the 'admin' role.
func AdminMiddleware(next http.Handler) http.Handler {
	return RequireRoles(domain.RoleAdmin)(next)
}
