package postgres

import (
	"encoding/json"

	"github.com/deskhub/deskhub/internal/model"
)

// scanner is satisfied by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

// String slices (labels, tags, recipients, scopes) are stored as jsonb.
func encodeStrings(v []string) []byte {
	if v == nil {
		v = []string{}
	}
	b, _ := json.Marshal(v)
	return b
}

func decodeStrings(b []byte) []string {
	out := []string{}
	if len(b) > 0 {
		_ = json.Unmarshal(b, &out)
	}
	return out
}

func scanEmail(s scanner) (*model.Email, error) {
	var m model.Email
	var to, labels []byte
	if err := s.Scan(&m.EmailID, &m.UserID, &m.GmailID, &m.ThreadID, &m.From, &to,
		&m.Subject, &m.Snippet, &m.Body, &m.IsRead, &m.IsStarred, &labels,
		&m.ReceivedAt, &m.LinkedTaskID, &m.SyncedAt, &m.CreatedAt, &m.UpdatedAt); err != nil {
		return nil, mapErr(err, "email not found")
	}
	m.To = decodeStrings(to)
	m.Labels = decodeStrings(labels)
	return &m, nil
}

func scanEvent(s scanner) (*model.CalendarEvent, error) {
	var m model.CalendarEvent
	var attendees []byte
	if err := s.Scan(&m.EventID, &m.UserID, &m.GoogleEventID, &m.Title, &m.Description,
		&m.StartTime, &m.EndTime, &m.Location, &attendees, &m.LinkedTaskID,
		&m.SyncedAt, &m.CreatedAt, &m.UpdatedAt); err != nil {
		return nil, mapErr(err, "event not found")
	}
	m.Attendees = decodeStrings(attendees)
	return &m, nil
}

func scanTask(s scanner) (*model.Task, error) {
	var m model.Task
	var tags []byte
	if err := s.Scan(&m.TaskID, &m.UserID, &m.Title, &m.Description, &m.Status, &m.Priority,
		&m.DueDate, &tags, &m.LinkedEmailID, &m.LinkedNoteID, &m.LinkedEventID,
		&m.CreatedAt, &m.UpdatedAt); err != nil {
		return nil, mapErr(err, "task not found")
	}
	m.Tags = decodeStrings(tags)
	return &m, nil
}

func scanNote(s scanner) (*model.Note, error) {
	var m model.Note
	var tags []byte
	if err := s.Scan(&m.NoteID, &m.UserID, &m.Title, &m.Content, &tags,
		&m.CreatedAt, &m.UpdatedAt); err != nil {
		return nil, mapErr(err, "note not found")
	}
	m.Tags = decodeStrings(tags)
	return &m, nil
}
