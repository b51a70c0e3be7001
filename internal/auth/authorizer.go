// Package auth is the request authentication boundary: session token
// verification and per-resource ownership checks. Handlers never see raw
// tokens; they read the authenticated user from the request context.
package auth

import (
	"context"

	"github.com/deskhub/deskhub/internal/apperr"
)

// UserInfo identifies an authenticated user.
type UserInfo struct {
	UserID string `json:"user_id"`
	Email  string `json:"email,omitempty"`
}

// Authorizer validates a session token and resolves the acting user.
type Authorizer interface {
	Authorize(ctx context.Context, token string) (*UserInfo, error)
}

type contextKey struct{}

// WithUser returns a context carrying the authenticated user.
func WithUser(ctx context.Context, u *UserInfo) context.Context {
	return context.WithValue(ctx, contextKey{}, u)
}

// UserFromContext returns the authenticated user placed by the middleware.
func UserFromContext(ctx context.Context) (*UserInfo, error) {
	u, ok := ctx.Value(contextKey{}).(*UserInfo)
	if !ok || u == nil {
		return nil, apperr.New(apperr.AuthRequired, "no authenticated user in request")
	}
	return u, nil
}

// VerifyOwnership fails with AccessDenied unless the authenticated user owns
// the addressed resource. Authenticated-but-wrong-user is deliberately
// distinct from unauthenticated.
func VerifyOwnership(ctx context.Context, resourceUserID string) error {
	u, err := UserFromContext(ctx)
	if err != nil {
		return err
	}
	if u.UserID != resourceUserID {
		return apperr.New(apperr.AccessDenied, "resource belongs to another user")
	}
	return nil
}
