package sync

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/deskhub/deskhub/internal/apperr"
	"github.com/deskhub/deskhub/internal/model"
	"github.com/deskhub/deskhub/internal/provider"
	"github.com/deskhub/deskhub/internal/store"
)

const (
	// maxWindowEvents bounds one calendar sync.
	maxWindowEvents = 250

	untitledEvent = "Untitled Event"
)

// CalendarSyncer pulls a time window of events into the local table.
type CalendarSyncer struct {
	clients provider.ClientFactory
	events  store.Events
	max     int
	log     zerolog.Logger
	now     func() time.Time
}

// NewCalendarSyncer builds a syncer; maxEvents <= 0 or above the hard cap
// falls back to the cap.
func NewCalendarSyncer(clients provider.ClientFactory, events store.Events, maxEvents int, log zerolog.Logger) *CalendarSyncer {
	if maxEvents <= 0 || maxEvents > maxWindowEvents {
		maxEvents = maxWindowEvents
	}
	return &CalendarSyncer{clients: clients, events: events, max: maxEvents, log: log, now: time.Now}
}

// SyncWindow lists events in [timeMin, timeMax] and upserts them locally.
// Events the provider returns without usable times count as errors.
func (s *CalendarSyncer) SyncWindow(ctx context.Context, userID string, timeMin, timeMax time.Time) (*model.SyncResult, error) {
	if !timeMax.After(timeMin) {
		return nil, apperr.New(apperr.Validation, "end of sync window must be after start")
	}

	cal, err := s.clients.Calendar(ctx, userID)
	if err != nil {
		return nil, err
	}

	items, err := cal.ListEvents(ctx, timeMin, timeMax, s.max)
	if err != nil {
		return nil, err
	}

	res := &model.SyncResult{Timestamp: s.now().UTC()}
	for _, item := range items {
		ev, err := mapEvent(userID, item)
		if err != nil {
			res.Errors++
			s.log.Warn().Err(err).Str("user_id", userID).Str("google_event_id", item.ID).Msg("event skipped during sync")
			continue
		}
		if _, err := s.events.Upsert(ctx, ev); err != nil {
			res.Errors++
			s.log.Warn().Err(err).Str("user_id", userID).Str("google_event_id", item.ID).Msg("event upsert failed during sync")
			continue
		}
		res.Synced++
	}

	s.log.Info().
		Str("user_id", userID).
		Int("synced", res.Synced).
		Int("errors", res.Errors).
		Msg("calendar sync complete")
	return res, nil
}

func mapEvent(userID string, d provider.EventDetail) (*model.CalendarEvent, error) {
	if d.ID == "" {
		return nil, apperr.New(apperr.InvalidInput, "event has no id")
	}
	if d.Start.IsZero() || d.End.IsZero() {
		return nil, apperr.New(apperr.InvalidInput, "event has no usable start or end time")
	}
	ev := &model.CalendarEvent{
		UserID:        userID,
		GoogleEventID: d.ID,
		Title:         d.Title,
		StartTime:     d.Start,
		EndTime:       d.End,
		Attendees:     d.Attendees,
	}
	if ev.Title == "" {
		ev.Title = untitledEvent
	}
	if d.Description != "" {
		ev.Description = &d.Description
	}
	if d.Location != "" {
		ev.Location = &d.Location
	}
	return ev, nil
}
