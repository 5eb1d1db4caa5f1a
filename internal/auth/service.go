// ============================================================================
// internal/auth/service.go
// Login, token validation, logout, password change
// ============================================================================

// Package auth issues and validates login tokens. A login produces both a
// signed JWT and a server-side session record; validation requires both, so
// logout and password changes revoke access immediately even for tokens that
// have not expired.
package auth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"classflow/internal/shared"
	"classflow/internal/store"
)

var (
	// ErrInvalidCredentials covers unknown emails, wrong passwords, and
	// deactivated accounts alike; callers never learn which.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrInvalidToken covers malformed, expired, and revoked tokens.
	ErrInvalidToken = errors.New("invalid or expired token")
)

// Claims are the JWT token claims.
type Claims struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// Service implements authentication over a DataAccess backend.
type Service struct {
	da         store.DataAccess
	jwtSecret  []byte
	tokenTTL   time.Duration
	bcryptCost int
}

// NewService creates an auth Service from the security configuration.
func NewService(da store.DataAccess, security shared.SecurityConfig) *Service {
	ttl := time.Duration(security.JWTExpirationHours) * time.Hour
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	cost := security.BCryptCost
	if cost < bcrypt.MinCost {
		cost = bcrypt.DefaultCost
	}
	return &Service{
		da:         da,
		jwtSecret:  []byte(security.JWTSecret),
		tokenTTL:   ttl,
		bcryptCost: cost,
	}
}

// LoginResult is a successful authentication.
type LoginResult struct {
	Token     string      `json:"token"`
	ExpiresAt time.Time   `json:"expiresAt"`
	User      shared.User `json:"user"`
}

// Login authenticates email/password and returns a token plus the user.
func (s *Service) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return nil, ErrInvalidCredentials
	}

	user, err := s.da.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		log.Printf("Error finding user during login: %v", err)
		return nil, fmt.Errorf("authentication failed: %w", err)
	}
	if !user.IsActive {
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	token, expiresAt, err := s.generateJWT(user)
	if err != nil {
		log.Printf("Error generating JWT: %v", err)
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}

	sessionID, err := generateSessionID()
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	session := shared.AuthSession{
		ID:        sessionID,
		UserID:    user.ID,
		Token:     token,
		ExpiresAt: expiresAt,
		CreatedAt: time.Now(),
	}
	if err := s.da.CreateAuthSession(ctx, session); err != nil {
		log.Printf("Warning: failed to create session record: %v", err)
		// Session tracking is not critical for login; the JWT still works
		// until its own expiry check fails at validation.
	}

	log.Printf("User logged in: %s (%s)", user.Email, user.Role)

	sanitized := *user
	sanitized.PasswordHash = ""
	return &LoginResult{Token: token, ExpiresAt: expiresAt, User: sanitized}, nil
}

// ValidateToken verifies the JWT signature, the server-side session, and the
// user account, returning the current user on success.
func (s *Service) ValidateToken(ctx context.Context, token string) (*shared.User, error) {
	if token == "" {
		return nil, ErrInvalidToken
	}

	claims, err := s.parseJWT(token)
	if err != nil {
		return nil, ErrInvalidToken
	}

	session, err := s.da.GetAuthSessionByToken(ctx, token)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, ErrInvalidToken
		}
		log.Printf("Error checking session: %v", err)
		return nil, fmt.Errorf("validation failed: %w", err)
	}
	if time.Now().After(session.ExpiresAt) {
		return nil, ErrInvalidToken
	}

	user, err := s.da.GetUser(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, ErrInvalidToken
		}
		log.Printf("Error fetching user during validation: %v", err)
		return nil, fmt.Errorf("validation failed: %w", err)
	}
	if !user.IsActive {
		return nil, ErrInvalidToken
	}
	return user, nil
}

// Logout revokes the session for token. Revoking an already-revoked token
// succeeds silently.
func (s *Service) Logout(ctx context.Context, token string) error {
	if token == "" {
		return ErrInvalidToken
	}
	return s.da.DeleteAuthSessionByToken(ctx, token)
}

// ChangePassword verifies the old password, stores the new hash, and revokes
// the presented session so the user signs in again.
func (s *Service) ChangePassword(ctx context.Context, userID, oldPassword, newPassword, token string) error {
	if userID == "" || oldPassword == "" || newPassword == "" {
		return shared.NewValidationError("password", "old and new passwords are required")
	}
	if len(newPassword) < 8 {
		return shared.NewValidationError("newPassword", "must be at least 8 characters long")
	}
	if oldPassword == newPassword {
		return shared.NewValidationError("newPassword", "must be different from old password")
	}

	user, err := s.da.GetUser(ctx, userID)
	if err != nil {
		return err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(oldPassword)); err != nil {
		return ErrInvalidCredentials
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), s.bcryptCost)
	if err != nil {
		log.Printf("Error hashing new password: %v", err)
		return fmt.Errorf("password change failed: %w", err)
	}

	updated := *user
	updated.PasswordHash = string(hash)
	if _, err := s.da.UpdateUser(ctx, userID, updated); err != nil {
		return fmt.Errorf("password change failed: %w", err)
	}

	if token != "" {
		if err := s.da.DeleteAuthSessionByToken(ctx, token); err != nil {
			log.Printf("Warning: failed to revoke session after password change: %v", err)
		}
	}

	log.Printf("Password changed for user: %s", userID)
	return nil
}

// ============================================================================
// Helper Functions
// ============================================================================

func (s *Service) generateJWT(user *shared.User) (string, time.Time, error) {
	now := time.Now()
	expiresAt := now.Add(s.tokenTTL)

	claims := Claims{
		UserID: user.ID,
		Email:  user.Email,
		Role:   string(user.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    "classflow",
			Subject:   user.ID,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, expiresAt, nil
}

func (s *Service) parseJWT(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.jwtSecret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}
	if claims, ok := token.Claims.(*Claims); ok && token.Valid {
		return claims, nil
	}
	return nil, fmt.Errorf("invalid token claims")
}

func generateSessionID() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate session ID: %w", err)
	}
	return base64.URLEncoding.EncodeToString(b), nil
}
