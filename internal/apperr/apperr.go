// Package apperr defines the closed set of error kinds surfaced by the
// service. Components return *Error values; the HTTP layer maps each Kind to
// a status code and a stable machine-readable code string. Callers match on
// Kind (via KindOf or errors.As), never on message text.
package apperr

import (
	"errors"
	"fmt"
)

// Kind enumerates every failure class the service can report.
type Kind int

const (
	Internal Kind = iota
	AuthRequired
	AccessDenied
	NotFound
	InvalidID
	Validation
	InvalidInput
	Conflict
	Database
	NoCredential
	TokenRefreshFailed
	RateLimited
	Upstream
	DecryptionFailed
)

// String returns the stable wire code for the kind.
func (k Kind) String() string {
	switch k {
	case AuthRequired:
		return "AUTH_REQUIRED"
	case AccessDenied:
		return "ACCESS_DENIED"
	case NotFound:
		return "NOT_FOUND"
	case InvalidID:
		return "INVALID_ID"
	case Validation:
		return "VALIDATION_ERROR"
	case InvalidInput:
		return "INVALID_INPUT"
	case Conflict:
		return "CONSTRAINT_VIOLATION"
	case Database:
		return "DATABASE_ERROR"
	case NoCredential:
		return "NO_CREDENTIAL"
	case TokenRefreshFailed:
		return "TOKEN_REFRESH_FAILED"
	case RateLimited:
		return "RATE_LIMITED"
	case Upstream:
		return "EXTERNAL_SERVICE_ERROR"
	case DecryptionFailed:
		return "DECRYPTION_FAILED"
	default:
		return "INTERNAL_ERROR"
	}
}

// Error is the tagged error type propagated through the core.
type Error struct {
	Kind    Kind
	Message string
	Details map[string]string
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.cause }

// New constructs an Error with the given kind and message.
func New(k Kind, msg string) *Error {
	return &Error{Kind: k, Message: msg}
}

// Newf constructs an Error with a formatted message.
func Newf(k Kind, format string, args ...any) *Error {
	return &Error{Kind: k, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a cause to a new Error. The cause is preserved for logging
// but never serialized to clients.
func Wrap(k Kind, msg string, cause error) *Error {
	return &Error{Kind: k, Message: msg, cause: cause}
}

// WithDetails returns a copy carrying field-level detail for clients.
func (e *Error) WithDetails(details map[string]string) *Error {
	out := *e
	out.Details = details
	return &out
}

// KindOf extracts the Kind from err, or Internal when err is not an *Error.
func KindOf(err error) Kind {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return Internal
}

// Is reports whether err carries the given kind anywhere in its chain.
func Is(err error, k Kind) bool {
	var ae *Error
	return errors.As(err, &ae) && ae.Kind == k
}
