// ============================================================================
// internal/gateway/middleware.go
// Authentication and permission middleware
// ============================================================================

package gateway

import (
	"net/http"

	"classflow/internal/auth"
	"classflow/internal/gateway/util"
	"classflow/internal/permissions"
)

// AuthMiddleware validates the bearer token and injects the authenticated
// user into the request context.
func AuthMiddleware(authService *auth.Service) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenStr, err := util.ExtractToken(r)
			if err != nil {
				util.WriteJSONError(w, http.StatusUnauthorized, "Authorization token required")
				return
			}

			user, err := authService.ValidateToken(r.Context(), tokenStr)
			if err != nil {
				util.WriteJSONError(w, http.StatusUnauthorized, "Invalid or expired token")
				return
			}

			next.ServeHTTP(w, r.WithContext(util.WithUser(r.Context(), user)))
		})
	}
}

// RequirePermission rejects the request unless the authenticated user's role
// allows op on resource. This is the proactive gate: a request without
// permission never reaches a handler or the backend.
func RequirePermission(resource permissions.Resource, op permissions.Operation) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user := util.UserFromContext(r.Context())
			if user == nil {
				util.WriteJSONError(w, http.StatusUnauthorized, "Authorization token required")
				return
			}
			if !permissions.Check(user.Role, resource, op) {
				util.WriteJSONError(w, http.StatusForbidden, "permission denied")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
