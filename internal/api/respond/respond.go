// Package respond centralizes JSON response writing and the mapping from the
// service error taxonomy to HTTP status codes.
package respond

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/deskhub/deskhub/internal/apperr"
)

// ErrorResponse is the wire shape of every error.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code"`
	Message string `json:"message,omitempty"`
}

// WriteJSON writes a JSON response with the given status code.
func WriteJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

// statusFor maps error kinds to HTTP status codes.
func statusFor(kind apperr.Kind) int {
	switch kind {
	case apperr.AuthRequired:
		return http.StatusUnauthorized
	case apperr.AccessDenied:
		return http.StatusForbidden
	case apperr.NotFound, apperr.InvalidID:
		return http.StatusNotFound
	case apperr.Validation, apperr.InvalidInput:
		return http.StatusBadRequest
	case apperr.Conflict:
		return http.StatusConflict
	case apperr.NoCredential, apperr.TokenRefreshFailed:
		return http.StatusUnauthorized
	case apperr.RateLimited:
		return http.StatusTooManyRequests
	case apperr.Upstream:
		return http.StatusBadGateway
	case apperr.Database, apperr.DecryptionFailed, apperr.Internal:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}

// Error writes an error using the taxonomy mapping. Storage and crypto
// failure details are redacted from the body; clients get the stable code
// only, the log gets the cause.
func Error(w http.ResponseWriter, err error) {
	kind := apperr.KindOf(err)
	status := statusFor(kind)

	msg := err.Error()
	switch kind {
	case apperr.Database:
		msg = "service temporarily unavailable"
	case apperr.DecryptionFailed, apperr.Internal:
		msg = "internal server error"
	}
	if status >= http.StatusInternalServerError {
		log.Error().Err(err).Str("code", kind.String()).Msg("request failed")
	}

	WriteJSON(w, status, ErrorResponse{
		Error:   http.StatusText(status),
		Code:    kind.String(),
		Message: msg,
	})
}

// WriteBadRequest writes a 400 with the VALIDATION code.
func WriteBadRequest(w http.ResponseWriter, message string) {
	Error(w, apperr.New(apperr.Validation, message))
}

// WriteNotFound writes a 404 with the NOT_FOUND code.
func WriteNotFound(w http.ResponseWriter, message string) {
	Error(w, apperr.New(apperr.NotFound, message))
}
