package services

import (
	"context"

	"github.com/deskhub/deskhub/internal/model"
	"github.com/deskhub/deskhub/internal/provider"
	"github.com/deskhub/deskhub/internal/store"
)

// EventService serves the local calendar mirror and creates events remote-first.
type EventService struct {
	store   store.Store
	clients provider.ClientFactory
}

func NewEventService(s store.Store, clients provider.ClientFactory) *EventService {
	return &EventService{store: s, clients: clients}
}

func (s *EventService) ListEvents(ctx context.Context, req model.ListEventsRequest) ([]*model.CalendarEvent, error) {
	return s.store.Events().List(ctx, req)
}

// CreateEvent inserts the event on the provider calendar first, then mirrors
// it locally under the id the provider assigned. If the local write fails the
// remote event still exists; the next window sync repairs the mirror.
func (s *EventService) CreateEvent(ctx context.Context, userID string, p provider.EventPayload) (*model.CalendarEvent, error) {
	cal, err := s.clients.Calendar(ctx, userID)
	if err != nil {
		return nil, err
	}

	googleEventID, err := cal.InsertEvent(ctx, p)
	if err != nil {
		return nil, err
	}

	return s.store.Events().Upsert(ctx, &model.CalendarEvent{
		UserID:        userID,
		GoogleEventID: googleEventID,
		Title:         p.Title,
		Description:   p.Description,
		StartTime:     p.Start,
		EndTime:       p.End,
		Location:      p.Location,
		Attendees:     p.Attendees,
	})
}
