// Package memstore is an in-memory store.Store implementation. It backs the
// development mode and unit tests; production always runs on postgres.
package memstore

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/deskhub/deskhub/internal/apperr"
	"github.com/deskhub/deskhub/internal/model"
	"github.com/deskhub/deskhub/internal/store"
)

// New returns an empty in-memory store.
func New() store.Store {
	return &memStore{
		users:       map[string]*model.User{},
		credentials: map[string]*model.Credential{},
		emails:      map[string]*model.Email{},
		events:      map[string]*model.CalendarEvent{},
		tasks:       map[string]*model.Task{},
		notes:       map[string]*model.Note{},
	}
}

type memStore struct {
	mu          sync.RWMutex
	users       map[string]*model.User          // userID
	credentials map[string]*model.Credential    // userID|provider
	emails      map[string]*model.Email         // userID|gmailID
	events      map[string]*model.CalendarEvent // userID|googleEventID
	tasks       map[string]*model.Task          // userID|taskID
	notes       map[string]*model.Note          // userID|noteID
}

func key(parts ...string) string { return strings.Join(parts, "|") }

// findEmail resolves a locally assigned email id; the map itself is keyed by
// the sync idempotency key. Caller holds the lock.
func (s *memStore) findEmail(userID, emailID string) *model.Email {
	for _, m := range s.emails {
		if m.UserID == userID && m.EmailID == emailID {
			return m
		}
	}
	return nil
}

func (s *memStore) Users() store.Users             { return &users{s} }
func (s *memStore) Credentials() store.Credentials { return &credentials{s} }
func (s *memStore) Emails() store.Emails           { return &emails{s} }
func (s *memStore) Events() store.Events           { return &events{s} }
func (s *memStore) Tasks() store.Tasks             { return &tasks{s} }
func (s *memStore) Notes() store.Notes             { return &notes{s} }

// HealthPing implements health.HealthPinger; the memory store is always up.
func (s *memStore) HealthPing(ctx context.Context) error { return nil }

// --- Users ---

type users struct{ p *memStore }

func (u *users) Create(_ context.Context, m *model.User) (*model.User, error) {
	u.p.mu.Lock()
	defer u.p.mu.Unlock()
	out := *m
	if out.UserID == "" {
		out.UserID = uuid.New().String()
	}
	if _, ok := u.p.users[out.UserID]; ok {
		return nil, apperr.New(apperr.Conflict, "data conflict")
	}
	for _, ex := range u.p.users {
		if ex.Email == out.Email {
			return nil, apperr.New(apperr.Conflict, "data conflict")
		}
	}
	now := time.Now().UTC()
	out.CreatedAt, out.UpdatedAt = now, now
	u.p.users[out.UserID] = &out
	cp := out
	return &cp, nil
}

func (u *users) Get(_ context.Context, userID string) (*model.User, error) {
	u.p.mu.RLock()
	defer u.p.mu.RUnlock()
	m, ok := u.p.users[userID]
	if !ok {
		return nil, apperr.New(apperr.NotFound, "user not found")
	}
	cp := *m
	return &cp, nil
}

func (u *users) GetByEmail(_ context.Context, email string) (*model.User, error) {
	u.p.mu.RLock()
	defer u.p.mu.RUnlock()
	for _, m := range u.p.users {
		if m.Email == email {
			cp := *m
			return &cp, nil
		}
	}
	return nil, apperr.New(apperr.NotFound, "user not found")
}

// --- Credentials ---

type credentials struct{ p *memStore }

func (c *credentials) Get(_ context.Context, userID string, provider model.Provider) (*model.Credential, error) {
	c.p.mu.RLock()
	defer c.p.mu.RUnlock()
	m, ok := c.p.credentials[key(userID, string(provider))]
	if !ok {
		return nil, apperr.New(apperr.NotFound, "credential not found")
	}
	cp := *m
	return &cp, nil
}

func (c *credentials) Upsert(_ context.Context, m *model.Credential) (*model.Credential, error) {
	c.p.mu.Lock()
	defer c.p.mu.Unlock()
	out := *m
	now := time.Now().UTC()
	k := key(out.UserID, string(out.Provider))
	if prev, ok := c.p.credentials[k]; ok {
		out.CreatedAt = prev.CreatedAt
	} else {
		out.CreatedAt = now
	}
	out.UpdatedAt = now
	c.p.credentials[k] = &out
	cp := out
	return &cp, nil
}

// --- Emails ---

type emails struct{ p *memStore }

func (e *emails) Upsert(_ context.Context, m *model.Email) (*model.Email, error) {
	e.p.mu.Lock()
	defer e.p.mu.Unlock()
	out := *m
	now := time.Now().UTC()
	k := key(out.UserID, out.GmailID)
	if prev, ok := e.p.emails[k]; ok {
		out.EmailID = prev.EmailID
		out.CreatedAt = prev.CreatedAt
		out.Body = prev.Body
		out.LinkedTaskID = prev.LinkedTaskID
	} else {
		if out.EmailID == "" {
			out.EmailID = uuid.New().String()
		}
		out.CreatedAt = now
	}
	out.SyncedAt = now
	out.UpdatedAt = now
	e.p.emails[k] = &out
	cp := out
	return &cp, nil
}

func (e *emails) Get(_ context.Context, userID, emailID string) (*model.Email, error) {
	e.p.mu.RLock()
	defer e.p.mu.RUnlock()
	m := e.p.findEmail(userID, emailID)
	if m == nil {
		return nil, apperr.New(apperr.NotFound, "email not found")
	}
	cp := *m
	return &cp, nil
}

func (e *emails) GetByGmailID(_ context.Context, userID, gmailID string) (*model.Email, error) {
	e.p.mu.RLock()
	defer e.p.mu.RUnlock()
	m, ok := e.p.emails[key(userID, gmailID)]
	if !ok {
		return nil, apperr.New(apperr.NotFound, "email not found")
	}
	cp := *m
	return &cp, nil
}

func (e *emails) SetReadState(_ context.Context, userID, gmailID string, isRead bool) (*model.Email, error) {
	e.p.mu.Lock()
	defer e.p.mu.Unlock()
	m, ok := e.p.emails[key(userID, gmailID)]
	if !ok {
		return nil, apperr.New(apperr.NotFound, "email not found")
	}
	m.IsRead = isRead
	m.UpdatedAt = time.Now().UTC()
	cp := *m
	return &cp, nil
}

func (e *emails) UpdateMeta(_ context.Context, m *model.Email) (*model.Email, error) {
	e.p.mu.Lock()
	defer e.p.mu.Unlock()
	cur := e.p.findEmail(m.UserID, m.EmailID)
	if cur == nil {
		return nil, apperr.New(apperr.NotFound, "email not found")
	}
	cur.IsStarred = m.IsStarred
	cur.LinkedTaskID = m.LinkedTaskID
	cur.UpdatedAt = time.Now().UTC()
	cp := *cur
	return &cp, nil
}

func (e *emails) Delete(_ context.Context, userID, emailID string) error {
	e.p.mu.Lock()
	defer e.p.mu.Unlock()
	for k, m := range e.p.emails {
		if m.UserID == userID && m.EmailID == emailID {
			delete(e.p.emails, k)
			return nil
		}
	}
	return apperr.New(apperr.NotFound, "email not found")
}

func (e *emails) List(_ context.Context, req model.ListEmailsRequest) ([]*model.Email, error) {
	e.p.mu.RLock()
	defer e.p.mu.RUnlock()
	limit := req.Limit
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	out := []*model.Email{}
	for _, m := range e.p.emails {
		if m.UserID != req.UserID {
			continue
		}
		if req.IsRead != nil && m.IsRead != *req.IsRead {
			continue
		}
		if req.IsStarred != nil && m.IsStarred != *req.IsStarred {
			continue
		}
		if req.Label != "" && !contains(m.Labels, req.Label) {
			continue
		}
		cp := *m
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ReceivedAt.After(out[j].ReceivedAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// --- Events ---

type events struct{ p *memStore }

func (ev *events) Upsert(_ context.Context, m *model.CalendarEvent) (*model.CalendarEvent, error) {
	ev.p.mu.Lock()
	defer ev.p.mu.Unlock()
	out := *m
	now := time.Now().UTC()
	k := key(out.UserID, out.GoogleEventID)
	if prev, ok := ev.p.events[k]; ok {
		out.EventID = prev.EventID
		out.CreatedAt = prev.CreatedAt
		out.LinkedTaskID = prev.LinkedTaskID
	} else {
		if out.EventID == "" {
			out.EventID = uuid.New().String()
		}
		out.CreatedAt = now
	}
	out.SyncedAt = now
	out.UpdatedAt = now
	ev.p.events[k] = &out
	cp := out
	return &cp, nil
}

func (ev *events) GetByGoogleID(_ context.Context, userID, googleEventID string) (*model.CalendarEvent, error) {
	ev.p.mu.RLock()
	defer ev.p.mu.RUnlock()
	m, ok := ev.p.events[key(userID, googleEventID)]
	if !ok {
		return nil, apperr.New(apperr.NotFound, "event not found")
	}
	cp := *m
	return &cp, nil
}

func (ev *events) List(_ context.Context, req model.ListEventsRequest) ([]*model.CalendarEvent, error) {
	ev.p.mu.RLock()
	defer ev.p.mu.RUnlock()
	limit := req.Limit
	if limit <= 0 || limit > 500 {
		limit = 250
	}
	out := []*model.CalendarEvent{}
	for _, m := range ev.p.events {
		if m.UserID != req.UserID {
			continue
		}
		if req.From != nil && m.EndTime.Before(*req.From) {
			continue
		}
		if req.To != nil && m.StartTime.After(*req.To) {
			continue
		}
		cp := *m
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartTime.Before(out[j].StartTime) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// --- Tasks ---

type tasks struct{ p *memStore }

func (t *tasks) Create(_ context.Context, m *model.Task) (*model.Task, error) {
	t.p.mu.Lock()
	defer t.p.mu.Unlock()
	out := *m
	if out.TaskID == "" {
		out.TaskID = uuid.New().String()
	}
	now := time.Now().UTC()
	out.CreatedAt, out.UpdatedAt = now, now
	t.p.tasks[key(out.UserID, out.TaskID)] = &out
	cp := out
	return &cp, nil
}

func (t *tasks) Get(_ context.Context, userID, taskID string) (*model.Task, error) {
	t.p.mu.RLock()
	defer t.p.mu.RUnlock()
	m, ok := t.p.tasks[key(userID, taskID)]
	if !ok {
		return nil, apperr.New(apperr.NotFound, "task not found")
	}
	cp := *m
	return &cp, nil
}

func (t *tasks) List(_ context.Context, req model.ListTasksRequest) ([]*model.Task, error) {
	t.p.mu.RLock()
	defer t.p.mu.RUnlock()
	out := []*model.Task{}
	for _, m := range t.p.tasks {
		if m.UserID != req.UserID {
			continue
		}
		if req.Status != "" && m.Status != req.Status {
			continue
		}
		if req.Priority != "" && m.Priority != req.Priority {
			continue
		}
		if req.Tag != "" && !contains(m.Tags, req.Tag) {
			continue
		}
		cp := *m
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (t *tasks) Update(_ context.Context, m *model.Task) (*model.Task, error) {
	t.p.mu.Lock()
	defer t.p.mu.Unlock()
	k := key(m.UserID, m.TaskID)
	prev, ok := t.p.tasks[k]
	if !ok {
		return nil, apperr.New(apperr.NotFound, "task not found")
	}
	out := *m
	out.CreatedAt = prev.CreatedAt
	out.UpdatedAt = time.Now().UTC()
	t.p.tasks[k] = &out
	cp := out
	return &cp, nil
}

func (t *tasks) Delete(_ context.Context, userID, taskID string) error {
	t.p.mu.Lock()
	defer t.p.mu.Unlock()
	k := key(userID, taskID)
	if _, ok := t.p.tasks[k]; !ok {
		return apperr.New(apperr.NotFound, "task not found")
	}
	delete(t.p.tasks, k)
	return nil
}

// --- Notes ---

type notes struct{ p *memStore }

func (n *notes) Create(_ context.Context, m *model.Note) (*model.Note, error) {
	n.p.mu.Lock()
	defer n.p.mu.Unlock()
	out := *m
	if out.NoteID == "" {
		out.NoteID = uuid.New().String()
	}
	now := time.Now().UTC()
	out.CreatedAt, out.UpdatedAt = now, now
	n.p.notes[key(out.UserID, out.NoteID)] = &out
	cp := out
	return &cp, nil
}

func (n *notes) Get(_ context.Context, userID, noteID string) (*model.Note, error) {
	n.p.mu.RLock()
	defer n.p.mu.RUnlock()
	m, ok := n.p.notes[key(userID, noteID)]
	if !ok {
		return nil, apperr.New(apperr.NotFound, "note not found")
	}
	cp := *m
	return &cp, nil
}

func (n *notes) List(_ context.Context, userID string) ([]*model.Note, error) {
	n.p.mu.RLock()
	defer n.p.mu.RUnlock()
	out := []*model.Note{}
	for _, m := range n.p.notes {
		if m.UserID != userID {
			continue
		}
		cp := *m
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UpdatedAt.After(out[j].UpdatedAt) })
	return out, nil
}

func (n *notes) Update(_ context.Context, m *model.Note) (*model.Note, error) {
	n.p.mu.Lock()
	defer n.p.mu.Unlock()
	k := key(m.UserID, m.NoteID)
	prev, ok := n.p.notes[k]
	if !ok {
		return nil, apperr.New(apperr.NotFound, "note not found")
	}
	out := *m
	out.CreatedAt = prev.CreatedAt
	out.UpdatedAt = time.Now().UTC()
	n.p.notes[k] = &out
	cp := out
	return &cp, nil
}

func (n *notes) Delete(_ context.Context, userID, noteID string) error {
	n.p.mu.Lock()
	defer n.p.mu.Unlock()
	k := key(userID, noteID)
	if _, ok := n.p.notes[k]; !ok {
		return apperr.New(apperr.NotFound, "note not found")
	}
	delete(n.p.notes, k)
	return nil
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
