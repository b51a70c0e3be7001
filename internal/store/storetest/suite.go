// Package storetest holds a compliance suite run against every store.Store
// implementation.
package storetest

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/deskhub/deskhub/internal/apperr"
	"github.com/deskhub/deskhub/internal/model"
	"github.com/deskhub/deskhub/internal/store"
)

// Run exercises the store contract. Implementations should provide a clean,
// isolated store from makeStore.
func Run(t *testing.T, makeStore func(t *testing.T) store.Store) {
	t.Helper()

	s := makeStore(t)
	ctx := context.Background()

	userID := "u-" + uuid.New().String()
	u, err := s.Users().Create(ctx, &model.User{UserID: userID, Email: userID + "@example.test"})
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	if got, err := s.Users().Get(ctx, u.UserID); err != nil || got.UserID != userID {
		t.Fatalf("GetUser: got=%v err=%v", got, err)
	}
	if _, err := s.Users().Get(ctx, "missing"); apperr.KindOf(err) != apperr.NotFound {
		t.Fatalf("GetUser missing: expected NotFound, got %v", err)
	}

	t.Run("credentials", func(t *testing.T) { testCredentials(t, ctx, s, userID) })
	t.Run("emails", func(t *testing.T) { testEmails(t, ctx, s, userID) })
	t.Run("events", func(t *testing.T) { testEvents(t, ctx, s, userID) })
	t.Run("tasks", func(t *testing.T) { testTasks(t, ctx, s, userID) })
	t.Run("notes", func(t *testing.T) { testNotes(t, ctx, s, userID) })
}

func testCredentials(t *testing.T, ctx context.Context, s store.Store, userID string) {
	if _, err := s.Credentials().Get(ctx, userID, model.ProviderGoogle); apperr.KindOf(err) != apperr.NotFound {
		t.Fatalf("Get before upsert: expected NotFound, got %v", err)
	}

	exp := time.Now().Add(time.Hour).UTC().Truncate(time.Second)
	c1, err := s.Credentials().Upsert(ctx, &model.Credential{
		UserID:        userID,
		Provider:      model.ProviderGoogle,
		AccessCipher:  "blob-a1",
		RefreshCipher: "blob-r1",
		ExpiresAt:     exp,
		Scopes:        []string{"mail", "calendar"},
	})
	if err != nil {
		t.Fatalf("Upsert 1: %v", err)
	}

	// Second upsert for the same (user, provider) must replace, not duplicate.
	exp2 := exp.Add(time.Hour)
	if _, err := s.Credentials().Upsert(ctx, &model.Credential{
		UserID:        userID,
		Provider:      model.ProviderGoogle,
		AccessCipher:  "blob-a2",
		RefreshCipher: "blob-r1",
		ExpiresAt:     exp2,
		Scopes:        []string{"mail"},
	}); err != nil {
		t.Fatalf("Upsert 2: %v", err)
	}

	got, err := s.Credentials().Get(ctx, userID, model.ProviderGoogle)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.AccessCipher != "blob-a2" {
		t.Fatalf("Upsert did not replace access cipher: %q", got.AccessCipher)
	}
	if !got.ExpiresAt.Equal(exp2) {
		t.Fatalf("ExpiresAt: want %v got %v", exp2, got.ExpiresAt)
	}
	if !got.CreatedAt.Equal(c1.CreatedAt) {
		t.Fatalf("Upsert must keep original created_at")
	}
	if len(got.Scopes) != 1 || got.Scopes[0] != "mail" {
		t.Fatalf("Scopes: got %v", got.Scopes)
	}
}

func testEmails(t *testing.T, ctx context.Context, s store.Store, userID string) {
	recv := time.Now().Add(-time.Hour).UTC().Truncate(time.Second)
	e := &model.Email{
		UserID:     userID,
		GmailID:    "g-1",
		ThreadID:   "t-1",
		From:       "alice@example.test",
		To:         []string{"bob@example.test"},
		Subject:    "hello",
		Snippet:    "hi there",
		IsRead:     false,
		IsStarred:  true,
		Labels:     []string{"INBOX", "UNREAD", "STARRED"},
		ReceivedAt: recv,
	}
	first, err := s.Emails().Upsert(ctx, e)
	if err != nil {
		t.Fatalf("Upsert: %v", err)
	}

	// Re-upsert with changed mutable fields: same row, refreshed fields.
	// receivedAt is provider-owned and refreshed like the rest.
	recv2 := recv.Add(time.Minute)
	e.IsRead = true
	e.Labels = []string{"INBOX", "STARRED"}
	e.ReceivedAt = recv2
	second, err := s.Emails().Upsert(ctx, e)
	if err != nil {
		t.Fatalf("Upsert 2: %v", err)
	}
	if second.EmailID != first.EmailID {
		t.Fatalf("Upsert created a duplicate: %s vs %s", second.EmailID, first.EmailID)
	}

	got, err := s.Emails().GetByGmailID(ctx, userID, "g-1")
	if err != nil || !got.IsRead || len(got.Labels) != 2 {
		t.Fatalf("GetByGmailID after update: got=%+v err=%v", got, err)
	}
	if !got.ReceivedAt.Equal(recv2) {
		t.Fatalf("Upsert must refresh received_at: want %v got %v", recv2, got.ReceivedAt)
	}

	if _, err := s.Emails().SetReadState(ctx, userID, "g-1", false); err != nil {
		t.Fatalf("SetReadState: %v", err)
	}
	if _, err := s.Emails().SetReadState(ctx, userID, "g-missing", true); apperr.KindOf(err) != apperr.NotFound {
		t.Fatalf("SetReadState missing: expected NotFound, got %v", err)
	}

	unread := false
	lst, err := s.Emails().List(ctx, model.ListEmailsRequest{UserID: userID, IsRead: &unread})
	if err != nil || len(lst) != 1 {
		t.Fatalf("List unread: n=%d err=%v", len(lst), err)
	}
	lst, err = s.Emails().List(ctx, model.ListEmailsRequest{UserID: userID, Label: "STARRED"})
	if err != nil || len(lst) != 1 {
		t.Fatalf("List by label: n=%d err=%v", len(lst), err)
	}

	byID, err := s.Emails().Get(ctx, userID, first.EmailID)
	if err != nil || byID.GmailID != "g-1" {
		t.Fatalf("Get by id: got=%+v err=%v", byID, err)
	}
	if _, err := s.Emails().Get(ctx, userID, "missing"); apperr.KindOf(err) != apperr.NotFound {
		t.Fatalf("Get missing id: expected NotFound, got %v", err)
	}

	// UpdateMeta writes only the locally owned fields.
	tk, err := s.Tasks().Create(ctx, &model.Task{
		UserID:   userID,
		Title:    "Follow up",
		Status:   model.TaskStatusTodo,
		Priority: model.TaskPriorityMedium,
	})
	if err != nil {
		t.Fatalf("Create link task: %v", err)
	}
	byID.IsStarred = false
	byID.LinkedTaskID = &tk.TaskID
	meta, err := s.Emails().UpdateMeta(ctx, byID)
	if err != nil {
		t.Fatalf("UpdateMeta: %v", err)
	}
	if meta.IsStarred || meta.LinkedTaskID == nil || *meta.LinkedTaskID != tk.TaskID {
		t.Fatalf("UpdateMeta result: %+v", meta)
	}
	if meta.GmailID != "g-1" || !meta.ReceivedAt.Equal(recv2) {
		t.Fatalf("UpdateMeta must not touch provider-owned fields: %+v", meta)
	}

	// A re-sync pass must not wipe the task link.
	if _, err := s.Emails().Upsert(ctx, e); err != nil {
		t.Fatalf("Upsert 3: %v", err)
	}
	relinked, err := s.Emails().Get(ctx, userID, first.EmailID)
	if err != nil || relinked.LinkedTaskID == nil || *relinked.LinkedTaskID != tk.TaskID {
		t.Fatalf("task link lost on re-sync: got=%+v err=%v", relinked, err)
	}

	if err := s.Emails().Delete(ctx, userID, first.EmailID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := s.Emails().Delete(ctx, userID, first.EmailID); apperr.KindOf(err) != apperr.NotFound {
		t.Fatalf("Delete twice: expected NotFound, got %v", err)
	}
}

func testEvents(t *testing.T, ctx context.Context, s store.Store, userID string) {
	start := time.Now().Add(24 * time.Hour).UTC().Truncate(time.Second)
	ev := &model.CalendarEvent{
		UserID:        userID,
		GoogleEventID: "ev-1",
		Title:         "Standup",
		StartTime:     start,
		EndTime:       start.Add(30 * time.Minute),
		Attendees:     []string{"bob@example.test"},
	}
	first, err := s.Events().Upsert(ctx, ev)
	if err != nil {
		t.Fatalf("Upsert: %v", err)
	}

	ev.Title = "Standup (moved)"
	ev.StartTime = start.Add(time.Hour)
	ev.EndTime = start.Add(90 * time.Minute)
	second, err := s.Events().Upsert(ctx, ev)
	if err != nil {
		t.Fatalf("Upsert 2: %v", err)
	}
	if second.EventID != first.EventID {
		t.Fatalf("Upsert created a duplicate event")
	}

	got, err := s.Events().GetByGoogleID(ctx, userID, "ev-1")
	if err != nil || got.Title != "Standup (moved)" {
		t.Fatalf("GetByGoogleID: got=%+v err=%v", got, err)
	}

	from := start.Add(30 * time.Minute)
	to := start.Add(3 * time.Hour)
	lst, err := s.Events().List(ctx, model.ListEventsRequest{UserID: userID, From: &from, To: &to})
	if err != nil || len(lst) != 1 {
		t.Fatalf("List window: n=%d err=%v", len(lst), err)
	}
}

func testTasks(t *testing.T, ctx context.Context, s store.Store, userID string) {
	tk, err := s.Tasks().Create(ctx, &model.Task{
		UserID:   userID,
		Title:    "Write report",
		Status:   model.TaskStatusTodo,
		Priority: model.TaskPriorityHigh,
		Tags:     []string{"work"},
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	tk.Status = model.TaskStatusDone
	if _, err := s.Tasks().Update(ctx, tk); err != nil {
		t.Fatalf("Update: %v", err)
	}
	got, err := s.Tasks().Get(ctx, userID, tk.TaskID)
	if err != nil || got.Status != model.TaskStatusDone {
		t.Fatalf("Get after update: got=%+v err=%v", got, err)
	}

	lst, err := s.Tasks().List(ctx, model.ListTasksRequest{UserID: userID, Tag: "work"})
	if err != nil || len(lst) != 1 {
		t.Fatalf("List by tag: n=%d err=%v", len(lst), err)
	}

	if err := s.Tasks().Delete(ctx, userID, tk.TaskID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := s.Tasks().Delete(ctx, userID, tk.TaskID); apperr.KindOf(err) != apperr.NotFound {
		t.Fatalf("Delete twice: expected NotFound, got %v", err)
	}
}

func testNotes(t *testing.T, ctx context.Context, s store.Store, userID string) {
	n, err := s.Notes().Create(ctx, &model.Note{UserID: userID, Title: "Ideas", Content: "..."})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	n.Content = "updated"
	if _, err := s.Notes().Update(ctx, n); err != nil {
		t.Fatalf("Update: %v", err)
	}
	lst, err := s.Notes().List(ctx, userID)
	if err != nil || len(lst) != 1 || lst[0].Content != "updated" {
		t.Fatalf("List: got=%v err=%v", lst, err)
	}
	if err := s.Notes().Delete(ctx, userID, n.NoteID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := s.Notes().Get(ctx, userID, n.NoteID); apperr.KindOf(err) != apperr.NotFound {
		t.Fatalf("Get after delete: expected NotFound, got %v", err)
	}
}
