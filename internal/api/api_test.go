package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/deskhub/deskhub/internal/apperr"
	"github.com/deskhub/deskhub/internal/auth"
	"github.com/deskhub/deskhub/internal/config"
	"github.com/deskhub/deskhub/internal/model"
	"github.com/deskhub/deskhub/internal/provider"
	"github.com/deskhub/deskhub/internal/secrets"
	"github.com/deskhub/deskhub/internal/store"
	"github.com/deskhub/deskhub/internal/store/memstore"
	"github.com/deskhub/deskhub/internal/tokens"
)

type fakeMail struct {
	order    []string
	messages map[string]*provider.MessageDetail
	modified []string
}

func (f *fakeMail) ListMessages(ctx context.Context, query string, maxResults int) ([]string, error) {
	if len(f.order) > maxResults {
		return f.order[:maxResults], nil
	}
	return f.order, nil
}

func (f *fakeMail) GetMessage(ctx context.Context, id string) (*provider.MessageDetail, error) {
	m, ok := f.messages[id]
	if !ok {
		return nil, apperr.New(apperr.NotFound, "get message: remote object not found")
	}
	return m, nil
}

func (f *fakeMail) ModifyLabels(ctx context.Context, id string, add, remove []string) error {
	f.modified = append(f.modified, id)
	return nil
}

type fakeCalendar struct {
	events []provider.EventDetail
}

func (f *fakeCalendar) ListEvents(ctx context.Context, timeMin, timeMax time.Time, maxResults int) ([]provider.EventDetail, error) {
	return f.events, nil
}

func (f *fakeCalendar) InsertEvent(ctx context.Context, p provider.EventPayload) (string, error) {
	return "goog-1", nil
}

type fakeFactory struct {
	mail provider.Mail
	cal  provider.Calendar
	err  error
}

func (f *fakeFactory) Mail(ctx context.Context, userID string) (provider.Mail, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.mail, nil
}

func (f *fakeFactory) Calendar(ctx context.Context, userID string) (provider.Calendar, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.cal, nil
}

type fakeRefresher struct{}

func (fakeRefresher) Refresh(ctx context.Context, refreshSecret string) (*provider.RefreshResult, error) {
	return &provider.RefreshResult{AccessSecret: "access", ExpiresAt: time.Now().Add(time.Hour)}, nil
}

type testEnv struct {
	router *mux.Router
	store  store.Store
	mail   *fakeMail
	cal    *fakeCalendar
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	st := memstore.New()
	cipher, err := secrets.NewCipher(bytes.Repeat([]byte{0x33}, 32))
	require.NoError(t, err)

	mail := &fakeMail{messages: map[string]*provider.MessageDetail{}}
	cal := &fakeCalendar{}
	factory := &fakeFactory{mail: mail, cal: cal}

	cfg := &config.Config{SyncMaxMessages: 100, SyncMaxEvents: 250}
	router := NewRouter(Deps{
		Config:     cfg,
		Store:      st,
		Authorizer: &auth.StaticAuthorizer{User: auth.UserInfo{UserID: "u-1", Email: "alice@example.test"}},
		Tokens:     tokens.NewService(st.Credentials(), cipher, fakeRefresher{}, zerolog.Nop()),
		Clients:    factory,
		Log:        zerolog.Nop(),
	})
	return &testEnv{router: router, store: st, mail: mail, cal: cal}
}

func (e *testEnv) do(t *testing.T, method, path string, body interface{}, authed bool) *httptest.ResponseRecorder {
	t.Helper()
	var rd *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		rd = bytes.NewReader(b)
	} else {
		rd = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, rd)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if authed {
		req.Header.Set("Authorization", "Bearer session-token")
	}
	rr := httptest.NewRecorder()
	e.router.ServeHTTP(rr, req)
	return rr
}

func TestHealthEndpoint(t *testing.T) {
	e := newTestEnv(t)

	BindServiceHealth(func() bool { return false })
	rr := e.do(t, "GET", "/api/health", nil, false)
	require.Equal(t, http.StatusServiceUnavailable, rr.Code)

	BindServiceHealth(func() bool { return true })
	rr = e.do(t, "GET", "/api/health", nil, false)
	require.Equal(t, http.StatusOK, rr.Code)
	require.Contains(t, rr.Body.String(), "healthy")
}

func TestAuthRequired(t *testing.T) {
	e := newTestEnv(t)
	for _, route := range []struct{ method, path string }{
		{"GET", "/api/tasks"},
		{"POST", "/api/gmail/sync"},
		{"GET", "/api/emails"},
		{"GET", "/api/calendar/events"},
		{"GET", "/api/notes"},
	} {
		rr := e.do(t, route.method, route.path, nil, false)
		require.Equalf(t, http.StatusUnauthorized, rr.Code, "%s %s", route.method, route.path)
		require.Contains(t, rr.Body.String(), "AUTH_REQUIRED")
	}
}

func TestUserOwnership(t *testing.T) {
	e := newTestEnv(t)
	rr := e.do(t, "GET", "/api/users/u-2", nil, true)
	require.Equal(t, http.StatusForbidden, rr.Code)
	require.Contains(t, rr.Body.String(), "ACCESS_DENIED")
}

func TestCreateUser(t *testing.T) {
	e := newTestEnv(t)

	rr := e.do(t, "POST", "/api/users", map[string]string{"email": "new@example.test"}, false)
	require.Equal(t, http.StatusCreated, rr.Code)

	var u model.User
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &u))
	require.NotEmpty(t, u.UserID)
	require.Equal(t, "new@example.test", u.Email)

	rr = e.do(t, "POST", "/api/users", map[string]string{"email": "not-an-email"}, false)
	require.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestTaskCRUD(t *testing.T) {
	e := newTestEnv(t)

	rr := e.do(t, "POST", "/api/tasks", map[string]interface{}{
		"title": "Write report",
		"tags":  []string{"work"},
	}, true)
	require.Equal(t, http.StatusCreated, rr.Code)

	var created model.Task
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &created))
	require.Equal(t, model.TaskStatusTodo, created.Status)
	require.Equal(t, model.TaskPriorityMedium, created.Priority)

	// Partial update keeps unnamed fields.
	rr = e.do(t, "PATCH", "/api/tasks/"+created.TaskID, map[string]string{"status": "done"}, true)
	require.Equal(t, http.StatusOK, rr.Code)
	var updated model.Task
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &updated))
	require.Equal(t, model.TaskStatusDone, updated.Status)
	require.Equal(t, "Write report", updated.Title)

	rr = e.do(t, "GET", "/api/tasks?status=done", nil, true)
	require.Equal(t, http.StatusOK, rr.Code)
	require.Contains(t, rr.Body.String(), created.TaskID)

	rr = e.do(t, "DELETE", "/api/tasks/"+created.TaskID, nil, true)
	require.Equal(t, http.StatusNoContent, rr.Code)

	rr = e.do(t, "GET", "/api/tasks/"+created.TaskID, nil, true)
	require.Equal(t, http.StatusNotFound, rr.Code)
}

func TestTaskValidation(t *testing.T) {
	e := newTestEnv(t)

	rr := e.do(t, "POST", "/api/tasks", map[string]string{"title": ""}, true)
	require.Equal(t, http.StatusBadRequest, rr.Code)

	rr = e.do(t, "POST", "/api/tasks", map[string]string{"title": "x", "status": "archived"}, true)
	require.Equal(t, http.StatusBadRequest, rr.Code)

	rr = e.do(t, "GET", "/api/tasks?priority=urgent", nil, true)
	require.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestNoteCRUD(t *testing.T) {
	e := newTestEnv(t)

	rr := e.do(t, "POST", "/api/notes", map[string]string{"title": "Ideas", "content": "first"}, true)
	require.Equal(t, http.StatusCreated, rr.Code)
	var n model.Note
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &n))

	rr = e.do(t, "PATCH", "/api/notes/"+n.NoteID, map[string]string{"content": "second"}, true)
	require.Equal(t, http.StatusOK, rr.Code)

	rr = e.do(t, "GET", "/api/notes/"+n.NoteID, nil, true)
	require.Equal(t, http.StatusOK, rr.Code)
	require.Contains(t, rr.Body.String(), "second")

	rr = e.do(t, "DELETE", "/api/notes/"+n.NoteID, nil, true)
	require.Equal(t, http.StatusNoContent, rr.Code)
}

func TestGmailSyncEndpoint(t *testing.T) {
	e := newTestEnv(t)
	e.mail.order = []string{"g-1", "g-2"}
	e.mail.messages["g-1"] = &provider.MessageDetail{ID: "g-1", ThreadID: "t-1", From: "a@b.c", Subject: "one", LabelIDs: []string{"INBOX", "UNREAD"}, ReceivedAt: time.Now().UTC()}
	e.mail.messages["g-2"] = &provider.MessageDetail{ID: "g-2", ThreadID: "t-2", From: "a@b.c", Subject: "two", LabelIDs: []string{"INBOX"}, ReceivedAt: time.Now().UTC()}

	rr := e.do(t, "POST", "/api/gmail/sync", nil, true)
	require.Equal(t, http.StatusOK, rr.Code)
	var res model.SyncResult
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &res))
	require.Equal(t, 2, res.Synced)
	require.Equal(t, 0, res.Errors)

	rr = e.do(t, "GET", "/api/emails?isRead=false", nil, true)
	require.Equal(t, http.StatusOK, rr.Code)
	require.Contains(t, rr.Body.String(), "g-1")
	require.NotContains(t, rr.Body.String(), "\"gmailId\":\"g-2\"")
}

func TestGmailSyncNoCredential(t *testing.T) {
	e := newTestEnv(t)
	factoryErr := apperr.New(apperr.NoCredential, "no credential for user")
	// Rebuild the router with a failing factory.
	st := memstore.New()
	cipher, err := secrets.NewCipher(bytes.Repeat([]byte{0x33}, 32))
	require.NoError(t, err)
	e.router = NewRouter(Deps{
		Config:     &config.Config{SyncMaxMessages: 100, SyncMaxEvents: 250},
		Store:      st,
		Authorizer: &auth.StaticAuthorizer{User: auth.UserInfo{UserID: "u-1"}},
		Tokens:     tokens.NewService(st.Credentials(), cipher, fakeRefresher{}, zerolog.Nop()),
		Clients:    &fakeFactory{err: factoryErr},
		Log:        zerolog.Nop(),
	})

	rr := e.do(t, "POST", "/api/gmail/sync", nil, true)
	require.Equal(t, http.StatusUnauthorized, rr.Code)
	require.Contains(t, rr.Body.String(), "NO_CREDENTIAL")
}

func TestGmailReadEndpoint(t *testing.T) {
	e := newTestEnv(t)
	_, err := e.store.Emails().Upsert(context.Background(), &model.Email{
		UserID: "u-1", GmailID: "g-1", ThreadID: "t-1", From: "a@b.c",
		Subject: "one", Labels: []string{"INBOX", "UNREAD"}, ReceivedAt: time.Now().UTC(),
	})
	require.NoError(t, err)

	rr := e.do(t, "PATCH", "/api/gmail/read", map[string]interface{}{"gmailId": "g-1", "isRead": true}, true)
	require.Equal(t, http.StatusOK, rr.Code)
	require.Equal(t, []string{"g-1"}, e.mail.modified)

	rr = e.do(t, "PATCH", "/api/gmail/read", map[string]interface{}{"gmailId": "g-missing", "isRead": true}, true)
	require.Equal(t, http.StatusNotFound, rr.Code)

	rr = e.do(t, "PATCH", "/api/gmail/read", map[string]interface{}{"gmailId": "g-1"}, true)
	require.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestEmailDetailEndpoints(t *testing.T) {
	e := newTestEnv(t)
	seeded, err := e.store.Emails().Upsert(context.Background(), &model.Email{
		UserID: "u-1", GmailID: "g-1", ThreadID: "t-1", From: "a@b.c",
		Subject: "one", Labels: []string{"INBOX", "UNREAD"}, ReceivedAt: time.Now().UTC(),
	})
	require.NoError(t, err)

	rr := e.do(t, "GET", "/api/emails/"+seeded.EmailID, nil, true)
	require.Equal(t, http.StatusOK, rr.Code)
	require.Contains(t, rr.Body.String(), "\"gmailId\":\"g-1\"")

	rr = e.do(t, "GET", "/api/emails/missing", nil, true)
	require.Equal(t, http.StatusNotFound, rr.Code)

	// Star and link in one patch.
	rr = e.do(t, "POST", "/api/tasks", map[string]string{"title": "Reply"}, true)
	require.Equal(t, http.StatusCreated, rr.Code)
	var tk model.Task
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &tk))

	rr = e.do(t, "PATCH", "/api/emails/"+seeded.EmailID, map[string]interface{}{
		"isStarred":    true,
		"linkedTaskId": tk.TaskID,
	}, true)
	require.Equal(t, http.StatusOK, rr.Code)
	var patched model.Email
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &patched))
	require.True(t, patched.IsStarred)
	require.NotNil(t, patched.LinkedTaskID)
	require.Equal(t, tk.TaskID, *patched.LinkedTaskID)
	require.Empty(t, e.mail.modified, "metadata patch must not call the provider")

	rr = e.do(t, "PATCH", "/api/emails/"+seeded.EmailID, map[string]interface{}{"linkedTaskId": "t-missing"}, true)
	require.Equal(t, http.StatusBadRequest, rr.Code)

	rr = e.do(t, "PATCH", "/api/emails/"+seeded.EmailID, map[string]interface{}{}, true)
	require.Equal(t, http.StatusBadRequest, rr.Code)

	rr = e.do(t, "DELETE", "/api/emails/"+seeded.EmailID, nil, true)
	require.Equal(t, http.StatusNoContent, rr.Code)
	rr = e.do(t, "GET", "/api/emails/"+seeded.EmailID, nil, true)
	require.Equal(t, http.StatusNotFound, rr.Code)
}

func TestCalendarEndpoints(t *testing.T) {
	e := newTestEnv(t)
	start := time.Now().Add(time.Hour).UTC().Truncate(time.Second)
	e.cal.events = []provider.EventDetail{
		{ID: "ev-1", Title: "Standup", Start: start, End: start.Add(30 * time.Minute)},
	}

	rr := e.do(t, "POST", "/api/calendar/sync", nil, true)
	require.Equal(t, http.StatusOK, rr.Code)
	var res model.SyncResult
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &res))
	require.Equal(t, 1, res.Synced)

	rr = e.do(t, "POST", "/api/calendar/create", map[string]interface{}{
		"title":     "Review",
		"startTime": start.Format(time.RFC3339),
		"endTime":   start.Add(time.Hour).Format(time.RFC3339),
	}, true)
	require.Equal(t, http.StatusCreated, rr.Code)
	require.Contains(t, rr.Body.String(), "goog-1")

	rr = e.do(t, "POST", "/api/calendar/create", map[string]interface{}{
		"title":     "Backwards",
		"startTime": start.Add(time.Hour).Format(time.RFC3339),
		"endTime":   start.Format(time.RFC3339),
	}, true)
	require.Equal(t, http.StatusBadRequest, rr.Code)

	rr = e.do(t, "GET", "/api/calendar/events", nil, true)
	require.Equal(t, http.StatusOK, rr.Code)
	require.Contains(t, rr.Body.String(), "ev-1")
}

func TestSaveGoogleCredential(t *testing.T) {
	e := newTestEnv(t)

	rr := e.do(t, "POST", "/api/auth/google", map[string]interface{}{
		"accessToken":  "access-1",
		"refreshToken": "refresh-1",
		"expiresAt":    time.Now().Add(time.Hour).UTC().Format(time.RFC3339),
		"scopes":       []string{"mail"},
	}, true)
	require.Equal(t, http.StatusNoContent, rr.Code)

	cred, err := e.store.Credentials().Get(context.Background(), "u-1", model.ProviderGoogle)
	require.NoError(t, err)
	require.NotEqual(t, "access-1", cred.AccessCipher)
	require.NotEqual(t, "refresh-1", cred.RefreshCipher)

	rr = e.do(t, "POST", "/api/auth/google", map[string]interface{}{"accessToken": "a"}, true)
	require.Equal(t, http.StatusBadRequest, rr.Code)
}
