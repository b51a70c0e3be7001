// Package store exposes persistence operations required by services.
// Implementations live under internal/store/<driver>/ (postgres, memstore).
package store

import (
	"context"

	"github.com/deskhub/deskhub/internal/model"
)

// Store is the aggregate persistence interface.
type Store interface {
	Users() Users
	Credentials() Credentials
	Emails() Emails
	Events() Events
	Tasks() Tasks
	Notes() Notes
}

type Users interface {
	Create(ctx context.Context, u *model.User) (*model.User, error)
	Get(ctx context.Context, userID string) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
}

// Credentials enforces the one-credential-per-(user,provider) invariant.
// Upsert is atomic: a concurrent refresh and read never observe a duplicate
// row, only last-writer-wins field values.
type Credentials interface {
	Get(ctx context.Context, userID string, provider model.Provider) (*model.Credential, error)
	Upsert(ctx context.Context, c *model.Credential) (*model.Credential, error)
}

// Emails and Events upsert by their external idempotency keys
// (userId, gmailId) and (userId, googleEventId) respectively.
// UpdateMeta writes only the locally owned fields (isStarred, linkedTaskId);
// provider-owned fields are written by Upsert and SetReadState alone.
type Emails interface {
	Upsert(ctx context.Context, e *model.Email) (*model.Email, error)
	Get(ctx context.Context, userID, emailID string) (*model.Email, error)
	GetByGmailID(ctx context.Context, userID, gmailID string) (*model.Email, error)
	SetReadState(ctx context.Context, userID, gmailID string, isRead bool) (*model.Email, error)
	UpdateMeta(ctx context.Context, e *model.Email) (*model.Email, error)
	Delete(ctx context.Context, userID, emailID string) error
	List(ctx context.Context, req model.ListEmailsRequest) ([]*model.Email, error)
}

type Events interface {
	Upsert(ctx context.Context, e *model.CalendarEvent) (*model.CalendarEvent, error)
	GetByGoogleID(ctx context.Context, userID, googleEventID string) (*model.CalendarEvent, error)
	List(ctx context.Context, req model.ListEventsRequest) ([]*model.CalendarEvent, error)
}

type Tasks interface {
	Create(ctx context.Context, t *model.Task) (*model.Task, error)
	Get(ctx context.Context, userID, taskID string) (*model.Task, error)
	List(ctx context.Context, req model.ListTasksRequest) ([]*model.Task, error)
	Update(ctx context.Context, t *model.Task) (*model.Task, error)
	Delete(ctx context.Context, userID, taskID string) error
}

type Notes interface {
	Create(ctx context.Context, n *model.Note) (*model.Note, error)
	Get(ctx context.Context, userID, noteID string) (*model.Note, error)
	List(ctx context.Context, userID string) ([]*model.Note, error)
	Update(ctx context.Context, n *model.Note) (*model.Note, error)
	Delete(ctx context.Context, userID, noteID string) error
}
