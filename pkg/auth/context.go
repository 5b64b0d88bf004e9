package auth

import (
	"context"

	pkgerrors "stuffmd/pkg/errors"
)

type contextKey string

const (
	userContextKey contextKey = "user_context"
	tokenKey       contextKey = "auth_token"
)

// UserContext carries the authenticated caller's identity through the
// request
type UserContext struct {
	UserID string
	Email  string
	Roles  []string
}

// SetUserInContext stores the authenticated user on the context
func SetUserInContext(ctx context.Context, user *UserContext) context.Context {
	return context.WithValue(ctx, userContextKey, user)
}

// GetUserFromContext retrieves the authenticated user, failing with an
// unauthorized error when the request never passed authentication
func GetUserFromContext(ctx context.Context) (*UserContext, error) {
	user, ok := ctx.Value(userContextKey).(*UserContext)
	if !ok || user == nil {
		return nil, pkgerrors.NewAuthRequiredError("")
	}
	return user, nil
}

// SetTokenInContext stores the raw bearer token. The store gateway
// needs the original credential, not the parsed claims.
func SetTokenInContext(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, tokenKey, token)
}

// GetTokenFromContext retrieves the raw bearer token, empty when absent
func GetTokenFromContext(ctx context.Context) string {
	token, _ := ctx.Value(tokenKey).(string)
	return token
}
