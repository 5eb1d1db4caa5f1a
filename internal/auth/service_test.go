package auth

import (
	"context"
	"errors"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"classflow/internal/shared"
	"classflow/internal/store"
)

func newTestService(t *testing.T) (*Service, *store.Memory) {
	t.Helper()

	m := store.NewMemory()
	svc := NewService(m, shared.SecurityConfig{
		JWTSecret:          "test-secret",
		JWTExpirationHours: 1,
		BCryptCost:         bcrypt.MinCost,
	})

	hash, err := bcrypt.GenerateFromPassword([]byte("admin123"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	_, err = m.CreateUser(context.Background(), shared.User{
		Email:        "admin@classflow.com",
		PasswordHash: string(hash),
		Role:         shared.RoleAdmin,
		Name:         "Admin User",
		IsActive:     true,
	})
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	return svc, m
}

func TestLogin_Success(t *testing.T) {
	svc, _ := newTestService(t)

	result, err := svc.Login(context.Background(), "admin@classflow.com", "admin123")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if result.Token == "" {
		t.Error("expected a token")
	}
	if result.User.Role != shared.RoleAdmin {
		t.Errorf("Role = %s, want admin", result.User.Role)
	}
	if result.User.PasswordHash != "" {
		t.Error("password hash leaked in login result")
	}
}

func TestLogin_Failures(t *testing.T) {
	svc, m := newTestService(t)
	ctx := context.Background()

	cases := []struct {
		name            string
		email, password string
	}{
		{"wrong password", "admin@classflow.com", "nope"},
		{"unknown email", "ghost@classflow.com", "admin123"},
		{"empty password", "admin@classflow.com", ""},
		{"empty email", "", "admin123"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := svc.Login(ctx, tc.email, tc.password); !errors.Is(err, ErrInvalidCredentials) {
				t.Errorf("err = %v, want ErrInvalidCredentials", err)
			}
		})
	}

	t.Run("inactive account", func(t *testing.T) {
		hash, _ := bcrypt.GenerateFromPassword([]byte("pw123456"), bcrypt.MinCost)
		m.CreateUser(ctx, shared.User{
			Email:        "inactive@classflow.com",
			PasswordHash: string(hash),
			Role:         shared.RoleTeacher,
			IsActive:     false,
		})
		if _, err := svc.Login(ctx, "inactive@classflow.com", "pw123456"); !errors.Is(err, ErrInvalidCredentials) {
			t.Errorf("err = %v, want ErrInvalidCredentials for inactive account", err)
		}
	})
}

func TestValidateToken_RoundTrip(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	result, err := svc.Login(ctx, "admin@classflow.com", "admin123")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}

	user, err := svc.ValidateToken(ctx, result.Token)
	if err != nil {
		t.Fatalf("ValidateToken: %v", err)
	}
	if user.Email != "admin@classflow.com" {
		t.Errorf("Email = %q, want admin@classflow.com", user.Email)
	}
}

func TestValidateToken_Rejections(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	t.Run("garbage token", func(t *testing.T) {
		if _, err := svc.ValidateToken(ctx, "not.a.jwt"); !errors.Is(err, ErrInvalidToken) {
			t.Errorf("err = %v, want ErrInvalidToken", err)
		}
	})

	t.Run("empty token", func(t *testing.T) {
		if _, err := svc.ValidateToken(ctx, ""); !errors.Is(err, ErrInvalidToken) {
			t.Errorf("err = %v, want ErrInvalidToken", err)
		}
	})

	t.Run("revoked after logout", func(t *testing.T) {
		result, err := svc.Login(ctx, "admin@classflow.com", "admin123")
		if err != nil {
			t.Fatalf("Login: %v", err)
		}
		if err := svc.Logout(ctx, result.Token); err != nil {
			t.Fatalf("Logout: %v", err)
		}
		if _, err := svc.ValidateToken(ctx, result.Token); !errors.Is(err, ErrInvalidToken) {
			t.Errorf("err = %v, want ErrInvalidToken after logout", err)
		}
	})

	t.Run("wrong signing key", func(t *testing.T) {
		other := NewService(store.NewMemory(), shared.SecurityConfig{
			JWTSecret:          "different-secret",
			JWTExpirationHours: 1,
			BCryptCost:         bcrypt.MinCost,
		})
		result, err := svc.Login(ctx, "admin@classflow.com", "admin123")
		if err != nil {
			t.Fatalf("Login: %v", err)
		}
		if _, err := other.ValidateToken(ctx, result.Token); !errors.Is(err, ErrInvalidToken) {
			t.Errorf("err = %v, want ErrInvalidToken for foreign signature", err)
		}
	})
}

func TestChangePassword(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	result, err := svc.Login(ctx, "admin@classflow.com", "admin123")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	userID := result.User.ID

	t.Run("rejects short password", func(t *testing.T) {
		err := svc.ChangePassword(ctx, userID, "admin123", "short", result.Token)
		if !shared.IsValidation(err) {
			t.Errorf("err = %v, want validation error", err)
		}
	})

	t.Run("rejects unchanged password", func(t *testing.T) {
		err := svc.ChangePassword(ctx, userID, "admin123", "admin123", result.Token)
		if !shared.IsValidation(err) {
			t.Errorf("err = %v, want validation error", err)
		}
	})

	t.Run("rejects wrong old password", func(t *testing.T) {
		err := svc.ChangePassword(ctx, userID, "wrong", "newpassword1", result.Token)
		if !errors.Is(err, ErrInvalidCredentials) {
			t.Errorf("err = %v, want ErrInvalidCredentials", err)
		}
	})

	t.Run("changes and revokes session", func(t *testing.T) {
		if err := svc.ChangePassword(ctx, userID, "admin123", "newpassword1", result.Token); err != nil {
			t.Fatalf("ChangePassword: %v", err)
		}
		if _, err := svc.ValidateToken(ctx, result.Token); !errors.Is(err, ErrInvalidToken) {
			t.Errorf("old session survived password change: %v", err)
		}
		if _, err := svc.Login(ctx, "admin@classflow.com", "admin123"); !errors.Is(err, ErrInvalidCredentials) {
			t.Error("old password still accepted")
		}
		if _, err := svc.Login(ctx, "admin@classflow.com", "newpassword1"); err != nil {
			t.Errorf("new password rejected: %v", err)
		}
	})
}
