// Package provider defines the remote-provider boundary: the Mail and
// Calendar capabilities obtainable for a user with a valid credential, plus
// the token-refresh endpoint. Implementations live under
// internal/provider/google.
package provider

import (
	"context"
	"time"
)

// MessageDetail is the provider-side shape of one mail message.
type MessageDetail struct {
	ID         string
	ThreadID   string
	From       string
	To         []string
	Subject    string
	Snippet    string
	LabelIDs   []string
	ReceivedAt time.Time
}

// EventDetail is the provider-side shape of one calendar event.
type EventDetail struct {
	ID          string
	Title       string
	Description string
	Location    string
	Start       time.Time
	End         time.Time
	Attendees   []string
}

// EventPayload is the shape accepted when creating a remote event.
type EventPayload struct {
	Title       string
	Description *string
	Location    *string
	Start       time.Time
	End         time.Time
	Attendees   []string
}

// Mail is the message capability of a provider account.
type Mail interface {
	ListMessages(ctx context.Context, query string, maxResults int) ([]string, error)
	GetMessage(ctx context.Context, id string) (*MessageDetail, error)
	ModifyLabels(ctx context.Context, id string, add, remove []string) error
}

// Calendar is the event capability of a provider account.
type Calendar interface {
	ListEvents(ctx context.Context, timeMin, timeMax time.Time, maxResults int) ([]EventDetail, error)
	InsertEvent(ctx context.Context, p EventPayload) (string, error)
}

// RefreshResult is the provider's answer to a token refresh. RefreshSecret is
// empty unless the provider rotated it.
type RefreshResult struct {
	AccessSecret  string
	RefreshSecret string
	ExpiresAt     time.Time
}

// TokenRefresher exchanges a refresh secret for a fresh access secret.
type TokenRefresher interface {
	Refresh(ctx context.Context, refreshSecret string) (*RefreshResult, error)
}

// ClientFactory builds capability handles for a user, obtaining a valid
// credential first. Pure composition over the token lifecycle.
type ClientFactory interface {
	Mail(ctx context.Context, userID string) (Mail, error)
	Calendar(ctx context.Context, userID string) (Calendar, error)
}
