// ============================================================================
// internal/gateway/handlers/auth_handler.go
// /auth endpoints: login, logout, validate, change-password
// ============================================================================

package handlers

import (
	"net/http"

	"classflow/internal/auth"
	"classflow/internal/gateway/util"
)

// AuthHandler serves the authentication endpoints.
type AuthHandler struct {
	Auth *auth.Service
}

// Login handles POST /auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var reqBody RESTLoginRequest
	if !decodeAndValidate(w, r, &reqBody) {
		return
	}

	result, err := h.Auth.Login(r.Context(), reqBody.Email, reqBody.Password)
	if err != nil {
		util.HandleStoreError(w, err)
		return
	}
	util.WriteJSON(w, http.StatusOK, result)
}

// Logout handles POST /auth/logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	token, err := util.ExtractToken(r)
	if err != nil {
		util.WriteJSONError(w, http.StatusUnauthorized, "Authorization token required")
		return
	}

	if err := h.Auth.Logout(r.Context(), token); err != nil {
		util.HandleStoreError(w, err)
		return
	}
	util.WriteJSON(w, http.StatusOK, map[string]string{"message": "logout successful"})
}

// ValidateToken handles GET /auth/validate
func (h *AuthHandler) ValidateToken(w http.ResponseWriter, r *http.Request) {
	// The auth middleware already validated; just return the current user.
	user := util.UserFromContext(r.Context())
	if user == nil {
		util.WriteJSONError(w, http.StatusUnauthorized, "Invalid or expired token")
		return
	}
	util.WriteJSON(w, http.StatusOK, user)
}

// ChangePassword handles POST /auth/change-password
func (h *AuthHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	var reqBody RESTChangePasswordRequest
	if !decodeAndValidate(w, r, &reqBody) {
		return
	}

	user := util.UserFromContext(r.Context())
	if user == nil {
		util.WriteJSONError(w, http.StatusUnauthorized, "Authorization token required")
		return
	}
	token, _ := util.ExtractToken(r)

	err := h.Auth.ChangePassword(r.Context(), user.ID, reqBody.OldPassword, reqBody.NewPassword, token)
	if err != nil {
		util.HandleStoreError(w, err)
		return
	}
	util.WriteJSON(w, http.StatusOK, map[string]string{"message": "password changed, please login again"})
}
