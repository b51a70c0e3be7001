package services

import (
	"context"
	"testing"
	"time"

	"github.com/deskhub/deskhub/internal/apperr"
	"github.com/deskhub/deskhub/internal/model"
	"github.com/deskhub/deskhub/internal/provider"
	"github.com/deskhub/deskhub/internal/store/memstore"
)

func TestCreateEventRemoteFirst(t *testing.T) {
	s := memstore.New()
	cal := &fakeCalendar{insertID: "goog-123"}
	svc := NewEventService(s, &fakeFactory{cal: cal})

	start := time.Date(2026, 9, 1, 9, 0, 0, 0, time.UTC)
	loc := "room 4"
	ev, err := svc.CreateEvent(context.Background(), "u-1", provider.EventPayload{
		Title:     "Review",
		Location:  &loc,
		Start:     start,
		End:       start.Add(time.Hour),
		Attendees: []string{"bob@example.test"},
	})
	if err != nil {
		t.Fatalf("CreateEvent: %v", err)
	}
	if ev.GoogleEventID != "goog-123" {
		t.Fatalf("mirror row must carry provider id, got %q", ev.GoogleEventID)
	}
	if len(cal.inserted) != 1 || cal.inserted[0].Title != "Review" {
		t.Fatalf("remote insert: %+v", cal.inserted)
	}

	got, err := s.Events().GetByGoogleID(context.Background(), "u-1", "goog-123")
	if err != nil || got.Title != "Review" || got.Location == nil || *got.Location != "room 4" {
		t.Fatalf("local mirror: got=%+v err=%v", got, err)
	}
}

func TestCreateEventRemoteFailureNoLocalRow(t *testing.T) {
	s := memstore.New()
	cal := &fakeCalendar{insertErr: apperr.New(apperr.Upstream, "insert event: provider request failed")}
	svc := NewEventService(s, &fakeFactory{cal: cal})

	start := time.Date(2026, 9, 1, 9, 0, 0, 0, time.UTC)
	_, err := svc.CreateEvent(context.Background(), "u-1", provider.EventPayload{
		Title: "Review",
		Start: start,
		End:   start.Add(time.Hour),
	})
	if apperr.KindOf(err) != apperr.Upstream {
		t.Fatalf("expected Upstream, got %v", err)
	}
	lst, _ := s.Events().List(context.Background(), model.ListEventsRequest{UserID: "u-1"})
	if len(lst) != 0 {
		t.Fatal("failed remote insert must not create a local row")
	}
}
