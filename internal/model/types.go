package model

import "time"

// Provider identifies an external account provider. Google is the only
// supported vendor today.
type Provider string

const ProviderGoogle Provider = "google"

// User represents an account in the system.
type User struct {
	UserID      string    `json:"userId"`
	Email       string    `json:"email"`
	DisplayName *string   `json:"displayName,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// Credential is the locally stored OAuth credential set for one user and one
// provider. AccessCipher and RefreshCipher hold ciphertext blobs produced by
// secrets.Cipher; plaintext secrets never touch the store.
type Credential struct {
	UserID        string    `json:"userId"`
	Provider      Provider  `json:"provider"`
	AccessCipher  string    `json:"-"`
	RefreshCipher string    `json:"-"`
	ExpiresAt     time.Time `json:"expiresAt"`
	Scopes        []string  `json:"scopes"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// Email mirrors one Gmail message. (UserID, GmailID) is the idempotency key
// for sync; re-observing a message refreshes the mutable fields.
type Email struct {
	EmailID      string     `json:"emailId"`
	UserID       string     `json:"userId"`
	GmailID      string     `json:"gmailId"`
	ThreadID     string     `json:"threadId"`
	From         string     `json:"from"`
	To           []string   `json:"to"`
	Subject      string     `json:"subject"`
	Snippet      string     `json:"snippet"`
	Body         *string    `json:"body,omitempty"`
	IsRead       bool       `json:"isRead"`
	IsStarred    bool       `json:"isStarred"`
	Labels       []string   `json:"labels"`
	ReceivedAt   time.Time  `json:"receivedAt"`
	LinkedTaskID *string    `json:"linkedTaskId,omitempty"`
	SyncedAt     time.Time  `json:"syncedAt"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
}

// CalendarEvent mirrors one Google Calendar event, keyed by
// (UserID, GoogleEventID).
type CalendarEvent struct {
	EventID       string    `json:"eventId"`
	UserID        string    `json:"userId"`
	GoogleEventID string    `json:"googleEventId"`
	Title         string    `json:"title"`
	Description   *string   `json:"description,omitempty"`
	StartTime     time.Time `json:"startTime"`
	EndTime       time.Time `json:"endTime"`
	Location      *string   `json:"location,omitempty"`
	Attendees     []string  `json:"attendees"`
	LinkedTaskID  *string   `json:"linkedTaskId,omitempty"`
	SyncedAt      time.Time `json:"syncedAt"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// Task status and priority use closed value sets, validated on create and
// update alike.
const (
	TaskStatusTodo       = "todo"
	TaskStatusInProgress = "in_progress"
	TaskStatusDone       = "done"

	TaskPriorityLow    = "low"
	TaskPriorityMedium = "medium"
	TaskPriorityHigh   = "high"
)

// Task is a user-owned todo item with optional links into the mirrors.
type Task struct {
	TaskID        string     `json:"taskId"`
	UserID        string     `json:"userId"`
	Title         string     `json:"title"`
	Description   *string    `json:"description,omitempty"`
	Status        string     `json:"status"`
	Priority      string     `json:"priority"`
	DueDate       *time.Time `json:"dueDate,omitempty"`
	Tags          []string   `json:"tags"`
	LinkedEmailID *string    `json:"linkedEmailId,omitempty"`
	LinkedNoteID  *string    `json:"linkedNoteId,omitempty"`
	LinkedEventID *string    `json:"linkedEventId,omitempty"`
	CreatedAt     time.Time  `json:"createdAt"`
	UpdatedAt     time.Time  `json:"updatedAt"`
}

// Note is a user-owned free-form note.
type Note struct {
	NoteID    string    `json:"noteId"`
	UserID    string    `json:"userId"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	Tags      []string  `json:"tags"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// SyncResult is the aggregate outcome of one sync pass. Per-item detail is
// intentionally not reported.
type SyncResult struct {
	Synced    int       `json:"synced"`
	Errors    int       `json:"errors"`
	Timestamp time.Time `json:"timestamp"`
}

// UpdateEmailMetaRequest carries the locally owned email fields a client may
// change. Provider-owned fields are only written by sync. An empty
// LinkedTaskID clears the task link.
type UpdateEmailMetaRequest struct {
	IsStarred    *bool   `json:"isStarred"`
	LinkedTaskID *string `json:"linkedTaskId"`
}

// ListEmailsRequest captures filters used when listing emails.
type ListEmailsRequest struct {
	UserID    string
	IsRead    *bool
	IsStarred *bool
	Label     string
	Limit     int
}

// ListEventsRequest captures the window used when listing calendar events.
type ListEventsRequest struct {
	UserID  string
	From    *time.Time
	To      *time.Time
	Limit   int
}

// ListTasksRequest captures filters used when listing tasks.
type ListTasksRequest struct {
	UserID   string
	Status   string
	Priority string
	Tag      string
}
