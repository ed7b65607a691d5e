package middleware

import (
	"context"
	"net/http"

	"settlement-engine/internal/domain"
	"settlement-engine/pkg/utils"
)

// AuthMiddleware rejects requests without a valid token.
func AuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, err := utils.ExtractClaims(r)
		if err != nil {
			utils.WriteError(w, http.StatusUnauthorized, "Unauthorized: "+err.Error())
			return
		}
		next.ServeHTTP(w, r.WithContext(withUser(r.Context(), claims)))
	})
}

// OptionalAuth attaches the user when a valid token is present and lets
// anonymous requests through. Guest checkout uses this.
func OptionalAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if claims, err := utils.ExtractClaims(r); err == nil {
			r = r.WithContext(withUser(r.Context(), claims))
		}
		next.ServeHTTP(w, r)
	})
}

// We construct a partial user from the token claims to avoid a DB hit on
// every request. Tags are loaded by the promotion engine when needed.
func withUser(ctx context.Context, claims *utils.Claims) context.Context {
	user := &domain.User{
		ID:    claims.UserID,
		Email: claims.Email,
		Role:  claims.Role,
	}
	return context.WithValue(ctx, domain.UserContextKey, user)
}

// UserFromContext returns the authenticated user, or nil.
func UserFromContext(ctx context.Context) *domain.User {
	user, _ := ctx.Value(domain.UserContextKey).(*domain.User)
	return user
}
