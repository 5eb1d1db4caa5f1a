package util

import (
	"context"

	"classflow/internal/shared"
)

type contextKey string

const userContextKey contextKey = "user"

// WithUser injects the authenticated user into ctx.
func WithUser(ctx context.Context, user *shared.User) context.Context {
	return context.WithValue(ctx, userContextKey, user)
}

// UserFromContext returns the authenticated user, or nil when the request
// did not pass the auth middleware.
func UserFromContext(ctx context.Context) *shared.User {
	user, _ := ctx.Value(userContextKey).(*shared.User)
	return user
}
