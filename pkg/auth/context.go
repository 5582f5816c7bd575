package auth

import (
	"context"
	"errors"
)

type contextKey string

const userContextKey contextKey = "user_context"

// UserContext is the authenticated identity carried through a request
type UserContext struct {
	UserID string
	Email  string
	Roles  []string
}

// WithUser attaches the authenticated user to the context
func WithUser(ctx context.Context, user *UserContext) context.Context {
	return context.WithValue(ctx, userContextKey, user)
}

// GetUserFromContext extracts the authenticated user from the context
func GetUserFromContext(ctx context.Context) (*UserContext, error) {
	user, ok := ctx.Value(userContextKey).(*UserContext)
	if !ok || user == nil {
		return nil, errors.New("no authenticated user in context")
	}
	return user, nil
}
