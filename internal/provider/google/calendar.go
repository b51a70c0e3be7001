package google

import (
	"context"
	"time"

	"golang.org/x/oauth2"
	calendar "google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"

	"github.com/deskhub/deskhub/internal/apperr"
	"github.com/deskhub/deskhub/internal/provider"
)

// calendarClient implements provider.Calendar over the Calendar API for one
// user's access secret. All calls target the primary calendar.
type calendarClient struct {
	svc *calendar.Service
}

func newCalendarClient(ctx context.Context, accessSecret, endpoint string) (*calendarClient, error) {
	opts := []option.ClientOption{
		option.WithTokenSource(oauth2.StaticTokenSource(&oauth2.Token{AccessToken: accessSecret})),
	}
	if endpoint != "" {
		opts = append(opts, option.WithEndpoint(endpoint))
	}
	svc, err := calendar.NewService(ctx, opts...)
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, "calendar client init failed", err)
	}
	return &calendarClient{svc: svc}, nil
}

func (c *calendarClient) ListEvents(ctx context.Context, timeMin, timeMax time.Time, maxResults int) ([]provider.EventDetail, error) {
	res, err := c.svc.Events.List("primary").
		TimeMin(timeMin.Format(time.RFC3339)).
		TimeMax(timeMax.Format(time.RFC3339)).
		MaxResults(int64(maxResults)).
		SingleEvents(true).
		OrderBy("startTime").
		Context(ctx).
		Do()
	if err != nil {
		return nil, mapAPIErr("list events", err)
	}

	out := make([]provider.EventDetail, 0, len(res.Items))
	for _, item := range res.Items {
		d := provider.EventDetail{
			ID:          item.Id,
			Title:       item.Summary,
			Description: item.Description,
			Location:    item.Location,
			Start:       parseEventTime(item.Start),
			End:         parseEventTime(item.End),
		}
		for _, a := range item.Attendees {
			if a.Email != "" {
				d.Attendees = append(d.Attendees, a.Email)
			}
		}
		out = append(out, d)
	}
	return out, nil
}

func (c *calendarClient) InsertEvent(ctx context.Context, p provider.EventPayload) (string, error) {
	ev := &calendar.Event{
		Summary: p.Title,
		Start:   &calendar.EventDateTime{DateTime: p.Start.Format(time.RFC3339)},
		End:     &calendar.EventDateTime{DateTime: p.End.Format(time.RFC3339)},
	}
	if p.Description != nil {
		ev.Description = *p.Description
	}
	if p.Location != nil {
		ev.Location = *p.Location
	}
	for _, email := range p.Attendees {
		ev.Attendees = append(ev.Attendees, &calendar.EventAttendee{Email: email})
	}

	created, err := c.svc.Events.Insert("primary", ev).Context(ctx).Do()
	if err != nil {
		return "", mapAPIErr("insert event", err)
	}
	return created.Id, nil
}

// parseEventTime handles both timed events (DateTime) and all-day events
// (Date only).
func parseEventTime(edt *calendar.EventDateTime) time.Time {
	if edt == nil {
		return time.Time{}
	}
	if edt.DateTime != "" {
		if t, err := time.Parse(time.RFC3339, edt.DateTime); err == nil {
			return t.UTC()
		}
	}
	if edt.Date != "" {
		if t, err := time.Parse("2006-01-02", edt.Date); err == nil {
			return t.UTC()
		}
	}
	return time.Time{}
}
