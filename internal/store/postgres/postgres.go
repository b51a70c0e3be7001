package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/rs/zerolog/log"

	"github.com/deskhub/deskhub/internal/apperr"
	"github.com/deskhub/deskhub/internal/model"
	"github.com/deskhub/deskhub/internal/store"
)

const maxPoolSize = 10

// Open opens a PostgreSQL connection using the pgx stdlib driver and verifies
// connectivity, retrying the initial ping with bounded exponential backoff.
// After a successful open, individual queries are never retried here.
func Open(ctx context.Context, dsn string) (*sql.DB, error) {
	if dsn == "" {
		return nil, apperr.New(apperr.Database, "postgres DSN is empty")
	}
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, apperr.Wrap(apperr.Database, "open failed", err)
	}
	db.SetMaxOpenConns(maxPoolSize)
	db.SetMaxIdleConns(2)
	db.SetConnMaxIdleTime(time.Minute)

	policy := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), 5), ctx)
	ping := func() error {
		pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		defer cancel()
		return db.PingContext(pingCtx)
	}
	notify := func(err error, wait time.Duration) {
		log.Warn().Err(err).Dur("retry_in", wait).Msg("postgres not reachable yet")
	}
	if err := backoff.RetryNotify(ping, policy, notify); err != nil {
		_ = db.Close()
		return nil, apperr.Wrap(apperr.Database, "connect failed", err)
	}
	return db, nil
}

// New constructs a Postgres-backed store over an open database handle.
func New(db *sql.DB) store.Store { return &pgStore{db: db} }

type pgStore struct{ db *sql.DB }

func (s *pgStore) Users() store.Users             { return &users{db: s.db} }
func (s *pgStore) Credentials() store.Credentials { return &credentials{db: s.db} }
func (s *pgStore) Emails() store.Emails           { return &emails{db: s.db} }
func (s *pgStore) Events() store.Events           { return &events{db: s.db} }
func (s *pgStore) Tasks() store.Tasks             { return &tasks{db: s.db} }
func (s *pgStore) Notes() store.Notes             { return &notes{db: s.db} }

// HealthPing implements health.HealthPinger.
func (s *pgStore) HealthPing(ctx context.Context) error { return s.db.PingContext(ctx) }

// mapErr converts driver errors to the service taxonomy. Raw driver detail is
// kept as the wrapped cause for logs but never reaches clients.
func mapErr(err error, notFoundMsg string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return apperr.New(apperr.NotFound, notFoundMsg)
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return apperr.Wrap(apperr.Conflict, "data conflict", err)
	}
	return apperr.Wrap(apperr.Database, "service temporarily unavailable", err)
}

// --- Users ---

type users struct{ db *sql.DB }

func (u *users) Create(ctx context.Context, m *model.User) (*model.User, error) {
	out := *m
	if out.UserID == "" {
		out.UserID = uuid.New().String()
	}
	row := u.db.QueryRowContext(ctx, `
        INSERT INTO users (user_id, email, display_name)
        VALUES ($1,$2,$3)
        RETURNING created_at, updated_at
    `, out.UserID, out.Email, out.DisplayName)
	if err := row.Scan(&out.CreatedAt, &out.UpdatedAt); err != nil {
		return nil, mapErr(err, "user not found")
	}
	return &out, nil
}

func (u *users) Get(ctx context.Context, userID string) (*model.User, error) {
	var out model.User
	row := u.db.QueryRowContext(ctx, `
        SELECT user_id, email, display_name, created_at, updated_at
        FROM users WHERE user_id=$1
    `, userID)
	if err := row.Scan(&out.UserID, &out.Email, &out.DisplayName, &out.CreatedAt, &out.UpdatedAt); err != nil {
		return nil, mapErr(err, "user not found")
	}
	return &out, nil
}

func (u *users) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	var out model.User
	row := u.db.QueryRowContext(ctx, `
        SELECT user_id, email, display_name, created_at, updated_at
        FROM users WHERE email=$1
    `, email)
	if err := row.Scan(&out.UserID, &out.Email, &out.DisplayName, &out.CreatedAt, &out.UpdatedAt); err != nil {
		return nil, mapErr(err, "user not found")
	}
	return &out, nil
}

// --- Credentials ---

type credentials struct{ db *sql.DB }

func (c *credentials) Get(ctx context.Context, userID string, provider model.Provider) (*model.Credential, error) {
	var out model.Credential
	row := c.db.QueryRowContext(ctx, `
        SELECT user_id, provider, access_cipher, refresh_cipher, expires_at, scopes, created_at, updated_at
        FROM credentials WHERE user_id=$1 AND provider=$2
    `, userID, string(provider))
	var scopes []byte
	if err := row.Scan(&out.UserID, &out.Provider, &out.AccessCipher, &out.RefreshCipher,
		&out.ExpiresAt, &scopes, &out.CreatedAt, &out.UpdatedAt); err != nil {
		return nil, mapErr(err, "credential not found")
	}
	out.Scopes = decodeStrings(scopes)
	return &out, nil
}

// Upsert is a single atomic INSERT .. ON CONFLICT so a refresh racing a
// concurrent read can only produce last-writer-wins field values, never a
// duplicate row.
func (c *credentials) Upsert(ctx context.Context, m *model.Credential) (*model.Credential, error) {
	out := *m
	row := c.db.QueryRowContext(ctx, `
        INSERT INTO credentials (user_id, provider, access_cipher, refresh_cipher, expires_at, scopes)
        VALUES ($1,$2,$3,$4,$5,$6)
        ON CONFLICT (user_id, provider) DO UPDATE SET
            access_cipher  = EXCLUDED.access_cipher,
            refresh_cipher = EXCLUDED.refresh_cipher,
            expires_at     = EXCLUDED.expires_at,
            scopes         = EXCLUDED.scopes,
            updated_at     = NOW()
        RETURNING created_at, updated_at
    `, out.UserID, string(out.Provider), out.AccessCipher, out.RefreshCipher, out.ExpiresAt, encodeStrings(out.Scopes))
	if err := row.Scan(&out.CreatedAt, &out.UpdatedAt); err != nil {
		return nil, mapErr(err, "credential not found")
	}
	return &out, nil
}

// --- Emails ---

type emails struct{ db *sql.DB }

func (e *emails) Upsert(ctx context.Context, m *model.Email) (*model.Email, error) {
	out := *m
	if out.EmailID == "" {
		out.EmailID = uuid.New().String()
	}
	// linked_task_id is deliberately absent from the update set; sync never
	// touches the task link.
	row := e.db.QueryRowContext(ctx, `
        INSERT INTO emails (email_id, user_id, gmail_id, thread_id, from_addr, to_addrs,
                            subject, snippet, body, is_read, is_starred, labels, received_at,
                            linked_task_id, synced_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,NOW())
        ON CONFLICT (user_id, gmail_id) DO UPDATE SET
            thread_id   = EXCLUDED.thread_id,
            from_addr   = EXCLUDED.from_addr,
            to_addrs    = EXCLUDED.to_addrs,
            subject     = EXCLUDED.subject,
            snippet     = EXCLUDED.snippet,
            is_read     = EXCLUDED.is_read,
            is_starred  = EXCLUDED.is_starred,
            labels      = EXCLUDED.labels,
            received_at = EXCLUDED.received_at,
            synced_at   = NOW(),
            updated_at  = NOW()
        RETURNING email_id, body, linked_task_id, synced_at, created_at, updated_at
    `, out.EmailID, out.UserID, out.GmailID, out.ThreadID, out.From, encodeStrings(out.To),
		out.Subject, out.Snippet, out.Body, out.IsRead, out.IsStarred, encodeStrings(out.Labels),
		out.ReceivedAt, out.LinkedTaskID)
	if err := row.Scan(&out.EmailID, &out.Body, &out.LinkedTaskID, &out.SyncedAt, &out.CreatedAt, &out.UpdatedAt); err != nil {
		return nil, mapErr(err, "email not found")
	}
	return &out, nil
}

func (e *emails) Get(ctx context.Context, userID, emailID string) (*model.Email, error) {
	row := e.db.QueryRowContext(ctx, `
        SELECT email_id, user_id, gmail_id, thread_id, from_addr, to_addrs, subject, snippet,
               body, is_read, is_starred, labels, received_at, linked_task_id, synced_at,
               created_at, updated_at
        FROM emails WHERE user_id=$1 AND email_id=$2
    `, userID, emailID)
	return scanEmail(row)
}

func (e *emails) GetByGmailID(ctx context.Context, userID, gmailID string) (*model.Email, error) {
	row := e.db.QueryRowContext(ctx, `
        SELECT email_id, user_id, gmail_id, thread_id, from_addr, to_addrs, subject, snippet,
               body, is_read, is_starred, labels, received_at, linked_task_id, synced_at,
               created_at, updated_at
        FROM emails WHERE user_id=$1 AND gmail_id=$2
    `, userID, gmailID)
	return scanEmail(row)
}

func (e *emails) SetReadState(ctx context.Context, userID, gmailID string, isRead bool) (*model.Email, error) {
	row := e.db.QueryRowContext(ctx, `
        UPDATE emails SET is_read=$3, updated_at=NOW()
        WHERE user_id=$1 AND gmail_id=$2
        RETURNING email_id, user_id, gmail_id, thread_id, from_addr, to_addrs, subject, snippet,
                  body, is_read, is_starred, labels, received_at, linked_task_id, synced_at,
                  created_at, updated_at
    `, userID, gmailID, isRead)
	return scanEmail(row)
}

func (e *emails) UpdateMeta(ctx context.Context, m *model.Email) (*model.Email, error) {
	row := e.db.QueryRowContext(ctx, `
        UPDATE emails SET is_starred=$3, linked_task_id=$4, updated_at=NOW()
        WHERE user_id=$1 AND email_id=$2
        RETURNING email_id, user_id, gmail_id, thread_id, from_addr, to_addrs, subject, snippet,
                  body, is_read, is_starred, labels, received_at, linked_task_id, synced_at,
                  created_at, updated_at
    `, m.UserID, m.EmailID, m.IsStarred, m.LinkedTaskID)
	return scanEmail(row)
}

func (e *emails) Delete(ctx context.Context, userID, emailID string) error {
	res, err := e.db.ExecContext(ctx, `DELETE FROM emails WHERE user_id=$1 AND email_id=$2`, userID, emailID)
	if err != nil {
		return mapErr(err, "email not found")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperr.New(apperr.NotFound, "email not found")
	}
	return nil
}

func (e *emails) List(ctx context.Context, req model.ListEmailsRequest) ([]*model.Email, error) {
	limit := req.Limit
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	rows, err := e.db.QueryContext(ctx, `
        SELECT email_id, user_id, gmail_id, thread_id, from_addr, to_addrs, subject, snippet,
               body, is_read, is_starred, labels, received_at, linked_task_id, synced_at,
               created_at, updated_at
        FROM emails
        WHERE user_id=$1
          AND ($2::boolean IS NULL OR is_read=$2)
          AND ($3::boolean IS NULL OR is_starred=$3)
          AND ($4::text = '' OR labels::jsonb ? $4)
        ORDER BY received_at DESC
        LIMIT $5
    `, req.UserID, req.IsRead, req.IsStarred, req.Label, limit)
	if err != nil {
		return nil, mapErr(err, "email not found")
	}
	defer rows.Close()

	out := []*model.Email{}
	for rows.Next() {
		m, err := scanEmail(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, mapErr(err, "email not found")
	}
	return out, nil
}

// --- Events ---

type events struct{ db *sql.DB }

func (ev *events) Upsert(ctx context.Context, m *model.CalendarEvent) (*model.CalendarEvent, error) {
	out := *m
	if out.EventID == "" {
		out.EventID = uuid.New().String()
	}
	row := ev.db.QueryRowContext(ctx, `
        INSERT INTO calendar_events (event_id, user_id, google_event_id, title, description,
                                     start_time, end_time, location, attendees, linked_task_id, synced_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,NOW())
        ON CONFLICT (user_id, google_event_id) DO UPDATE SET
            title       = EXCLUDED.title,
            description = EXCLUDED.description,
            start_time  = EXCLUDED.start_time,
            end_time    = EXCLUDED.end_time,
            location    = EXCLUDED.location,
            attendees   = EXCLUDED.attendees,
            synced_at   = NOW(),
            updated_at  = NOW()
        RETURNING event_id, linked_task_id, synced_at, created_at, updated_at
    `, out.EventID, out.UserID, out.GoogleEventID, out.Title, out.Description,
		out.StartTime, out.EndTime, out.Location, encodeStrings(out.Attendees), out.LinkedTaskID)
	if err := row.Scan(&out.EventID, &out.LinkedTaskID, &out.SyncedAt, &out.CreatedAt, &out.UpdatedAt); err != nil {
		return nil, mapErr(err, "event not found")
	}
	return &out, nil
}

func (ev *events) GetByGoogleID(ctx context.Context, userID, googleEventID string) (*model.CalendarEvent, error) {
	row := ev.db.QueryRowContext(ctx, `
        SELECT event_id, user_id, google_event_id, title, description, start_time, end_time,
               location, attendees, linked_task_id, synced_at, created_at, updated_at
        FROM calendar_events WHERE user_id=$1 AND google_event_id=$2
    `, userID, googleEventID)
	return scanEvent(row)
}

func (ev *events) List(ctx context.Context, req model.ListEventsRequest) ([]*model.CalendarEvent, error) {
	limit := req.Limit
	if limit <= 0 || limit > 500 {
		limit = 250
	}
	rows, err := ev.db.QueryContext(ctx, `
        SELECT event_id, user_id, google_event_id, title, description, start_time, end_time,
               location, attendees, linked_task_id, synced_at, created_at, updated_at
        FROM calendar_events
        WHERE user_id=$1
          AND ($2::timestamptz IS NULL OR end_time >= $2)
          AND ($3::timestamptz IS NULL OR start_time <= $3)
        ORDER BY start_time ASC
        LIMIT $4
    `, req.UserID, req.From, req.To, limit)
	if err != nil {
		return nil, mapErr(err, "event not found")
	}
	defer rows.Close()

	out := []*model.CalendarEvent{}
	for rows.Next() {
		m, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, mapErr(err, "event not found")
	}
	return out, nil
}

// --- Tasks ---

type tasks struct{ db *sql.DB }

func (t *tasks) Create(ctx context.Context, m *model.Task) (*model.Task, error) {
	out := *m
	if out.TaskID == "" {
		out.TaskID = uuid.New().String()
	}
	row := t.db.QueryRowContext(ctx, `
        INSERT INTO tasks (task_id, user_id, title, description, status, priority, due_date,
                           tags, linked_email_id, linked_note_id, linked_event_id)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
        RETURNING created_at, updated_at
    `, out.TaskID, out.UserID, out.Title, out.Description, out.Status, out.Priority,
		out.DueDate, encodeStrings(out.Tags), out.LinkedEmailID, out.LinkedNoteID, out.LinkedEventID)
	if err := row.Scan(&out.CreatedAt, &out.UpdatedAt); err != nil {
		return nil, mapErr(err, "task not found")
	}
	return &out, nil
}

func (t *tasks) Get(ctx context.Context, userID, taskID string) (*model.Task, error) {
	row := t.db.QueryRowContext(ctx, `
        SELECT task_id, user_id, title, description, status, priority, due_date, tags,
               linked_email_id, linked_note_id, linked_event_id, created_at, updated_at
        FROM tasks WHERE user_id=$1 AND task_id=$2
    `, userID, taskID)
	return scanTask(row)
}

func (t *tasks) List(ctx context.Context, req model.ListTasksRequest) ([]*model.Task, error) {
	rows, err := t.db.QueryContext(ctx, `
        SELECT task_id, user_id, title, description, status, priority, due_date, tags,
               linked_email_id, linked_note_id, linked_event_id, created_at, updated_at
        FROM tasks
        WHERE user_id=$1
          AND ($2::text = '' OR status=$2)
          AND ($3::text = '' OR priority=$3)
          AND ($4::text = '' OR tags::jsonb ? $4)
        ORDER BY created_at DESC
    `, req.UserID, req.Status, req.Priority, req.Tag)
	if err != nil {
		return nil, mapErr(err, "task not found")
	}
	defer rows.Close()

	out := []*model.Task{}
	for rows.Next() {
		m, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, mapErr(err, "task not found")
	}
	return out, nil
}

func (t *tasks) Update(ctx context.Context, m *model.Task) (*model.Task, error) {
	out := *m
	row := t.db.QueryRowContext(ctx, `
        UPDATE tasks SET title=$3, description=$4, status=$5, priority=$6, due_date=$7,
               tags=$8, linked_email_id=$9, linked_note_id=$10, linked_event_id=$11,
               updated_at=NOW()
        WHERE user_id=$1 AND task_id=$2
        RETURNING created_at, updated_at
    `, out.UserID, out.TaskID, out.Title, out.Description, out.Status, out.Priority,
		out.DueDate, encodeStrings(out.Tags), out.LinkedEmailID, out.LinkedNoteID, out.LinkedEventID)
	if err := row.Scan(&out.CreatedAt, &out.UpdatedAt); err != nil {
		return nil, mapErr(err, "task not found")
	}
	return &out, nil
}

func (t *tasks) Delete(ctx context.Context, userID, taskID string) error {
	res, err := t.db.ExecContext(ctx, `DELETE FROM tasks WHERE user_id=$1 AND task_id=$2`, userID, taskID)
	if err != nil {
		return mapErr(err, "task not found")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperr.New(apperr.NotFound, "task not found")
	}
	return nil
}

// --- Notes ---

type notes struct{ db *sql.DB }

func (n *notes) Create(ctx context.Context, m *model.Note) (*model.Note, error) {
	out := *m
	if out.NoteID == "" {
		out.NoteID = uuid.New().String()
	}
	row := n.db.QueryRowContext(ctx, `
        INSERT INTO notes (note_id, user_id, title, content, tags)
        VALUES ($1,$2,$3,$4,$5)
        RETURNING created_at, updated_at
    `, out.NoteID, out.UserID, out.Title, out.Content, encodeStrings(out.Tags))
	if err := row.Scan(&out.CreatedAt, &out.UpdatedAt); err != nil {
		return nil, mapErr(err, "note not found")
	}
	return &out, nil
}

func (n *notes) Get(ctx context.Context, userID, noteID string) (*model.Note, error) {
	row := n.db.QueryRowContext(ctx, `
        SELECT note_id, user_id, title, content, tags, created_at, updated_at
        FROM notes WHERE user_id=$1 AND note_id=$2
    `, userID, noteID)
	return scanNote(row)
}

func (n *notes) List(ctx context.Context, userID string) ([]*model.Note, error) {
	rows, err := n.db.QueryContext(ctx, `
        SELECT note_id, user_id, title, content, tags, created_at, updated_at
        FROM notes WHERE user_id=$1 ORDER BY updated_at DESC
    `, userID)
	if err != nil {
		return nil, mapErr(err, "note not found")
	}
	defer rows.Close()

	out := []*model.Note{}
	for rows.Next() {
		m, err := scanNote(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, mapErr(err, "note not found")
	}
	return out, nil
}

func (n *notes) Update(ctx context.Context, m *model.Note) (*model.Note, error) {
	out := *m
	row := n.db.QueryRowContext(ctx, `
        UPDATE notes SET title=$3, content=$4, tags=$5, updated_at=NOW()
        WHERE user_id=$1 AND note_id=$2
        RETURNING created_at, updated_at
    `, out.UserID, out.NoteID, out.Title, out.Content, encodeStrings(out.Tags))
	if err := row.Scan(&out.CreatedAt, &out.UpdatedAt); err != nil {
		return nil, mapErr(err, "note not found")
	}
	return &out, nil
}

func (n *notes) Delete(ctx context.Context, userID, noteID string) error {
	res, err := n.db.ExecContext(ctx, `DELETE FROM notes WHERE user_id=$1 AND note_id=$2`, userID, noteID)
	if err != nil {
		return mapErr(err, "note not found")
	}
	if rowCount, _ := res.RowsAffected(); rowCount == 0 {
		return apperr.New(apperr.NotFound, "note not found")
	}
	return nil
}
