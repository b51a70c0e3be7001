package auth

import (
	"net/http"
	"strings"

	"github.com/deskhub/deskhub/internal/api/respond"
	"github.com/deskhub/deskhub/internal/apperr"
)

// ExtractBearerToken pulls the session token from the Authorization header.
func ExtractBearerToken(r *http.Request) (string, error) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return "", apperr.New(apperr.AuthRequired, "missing Authorization header")
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
		return "", apperr.New(apperr.AuthRequired, "invalid Authorization header format, expected 'Bearer <token>'")
	}
	return parts[1], nil
}

// Middleware authenticates every request and stores the resolved user in the
// request context.
func Middleware(authorizer Authorizer) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, err := ExtractBearerToken(r)
			if err != nil {
				respond.Error(w, err)
				return
			}
			u, err := authorizer.Authorize(r.Context(), token)
			if err != nil {
				respond.Error(w, err)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), u)))
		})
	}
}
