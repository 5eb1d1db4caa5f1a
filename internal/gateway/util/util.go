// Package util holds the JSON response helpers shared by every gateway
// handler.
package util

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"

	"classflow/internal/auth"
	"classflow/internal/shared"
)

// JSONResponse structure for successful responses
type JSONResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Message string      `json:"message,omitempty"`
}

// JSONError structure for error responses
type JSONError struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// WriteJSON writes a success-wrapped JSON response.
func WriteJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	response := JSONResponse{Success: true, Data: payload}
	if err := json.NewEncoder(w).Encode(response); err != nil {
		log.Printf("Error writing JSON response: %v", err)
	}
}

// WriteJSONError writes a standardized error JSON response.
func WriteJSONError(w http.ResponseWriter, status int, message string) {
	log.Printf("HTTP Error %d: %s", status, message)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(JSONError{Success: false, Message: message}); err != nil {
		log.Printf("Error writing JSON error response: %v", err)
	}
}

// ExtractToken pulls the bearer token from the Authorization header.
func ExtractToken(r *http.Request) (string, error) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return "", errors.New("authorization header missing")
	}

	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
		return "", errors.New("invalid authorization header format")
	}
	return parts[1], nil
}

// HandleStoreError maps the shared error kinds to HTTP responses. This is the
// single place backend errors turn into status codes.
func HandleStoreError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, shared.ErrNotFound):
		WriteJSONError(w, http.StatusNotFound, "record not found")
	case errors.Is(err, shared.ErrPermissionDenied):
		WriteJSONError(w, http.StatusForbidden, "permission denied")
	case errors.Is(err, auth.ErrInvalidCredentials):
		WriteJSONError(w, http.StatusUnauthorized, "invalid credentials")
	case errors.Is(err, auth.ErrInvalidToken):
		WriteJSONError(w, http.StatusUnauthorized, "invalid or expired token")
	case shared.IsValidation(err):
		WriteJSONError(w, http.StatusBadRequest, err.Error())
	case shared.IsWriteFailure(err):
		WriteJSONError(w, http.StatusBadGateway, err.Error())
	case errors.Is(err, shared.ErrStaleScope):
		WriteJSONError(w, http.StatusConflict, err.Error())
	default:
		WriteJSONError(w, http.StatusInternalServerError, "internal server error")
	}
}
