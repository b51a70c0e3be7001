package auth

import (
	"context"

	"github.com/golang-jwt/jwt/v5"

	"github.com/deskhub/deskhub/internal/apperr"
)

// JWTAuthorizer verifies HS256 session tokens minted by the web frontend.
// The subject claim carries the user id.
type JWTAuthorizer struct {
	secret []byte
}

func NewJWTAuthorizer(secret string) (*JWTAuthorizer, error) {
	if secret == "" {
		return nil, apperr.New(apperr.InvalidInput, "jwt secret must not be empty")
	}
	return &JWTAuthorizer{secret: []byte(secret)}, nil
}

type sessionClaims struct {
	Email string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

func (a *JWTAuthorizer) Authorize(ctx context.Context, token string) (*UserInfo, error) {
	var claims sessionClaims
	parsed, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, apperr.Newf(apperr.AuthRequired, "unexpected signing method %v", t.Header["alg"])
		}
		return a.secret, nil
	})
	if err != nil || !parsed.Valid {
		return nil, apperr.Wrap(apperr.AuthRequired, "invalid session token", err)
	}
	if claims.Subject == "" {
		return nil, apperr.New(apperr.AuthRequired, "session token has no subject")
	}
	return &UserInfo{UserID: claims.Subject, Email: claims.Email}, nil
}

// StaticAuthorizer accepts any non-empty token as a fixed user. Development
// only; never constructed in production configuration.
type StaticAuthorizer struct {
	User UserInfo
}

func (a *StaticAuthorizer) Authorize(ctx context.Context, token string) (*UserInfo, error) {
	if token == "" {
		return nil, apperr.New(apperr.AuthRequired, "missing session token")
	}
	u := a.User
	return &u, nil
}
