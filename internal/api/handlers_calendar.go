package api

import (
	"encoding/json"
	"net/http"
	"time"

	respond "github.com/deskhub/deskhub/internal/api/respond"
	"github.com/deskhub/deskhub/internal/api/validate"
	"github.com/deskhub/deskhub/internal/auth"
	"github.com/deskhub/deskhub/internal/model"
	"github.com/deskhub/deskhub/internal/provider"
	"github.com/deskhub/deskhub/internal/services"
	syncer "github.com/deskhub/deskhub/internal/sync"
)

// defaultSyncWindow is used when the sync request names no window.
const defaultSyncWindow = 30 * 24 * time.Hour

// CalendarHandler is the transport for calendar sync, event creation and the
// local event mirror.
type CalendarHandler struct {
	cal    *syncer.CalendarSyncer
	events *services.EventService
}

func NewCalendarHandler(cal *syncer.CalendarSyncer, events *services.EventService) *CalendarHandler {
	return &CalendarHandler{cal: cal, events: events}
}

// SyncWindow POST /api/calendar/sync
func (h *CalendarHandler) SyncWindow(w http.ResponseWriter, r *http.Request) {
	u, err := auth.UserFromContext(r.Context())
	if err != nil {
		respond.Error(w, err)
		return
	}
	var req struct {
		StartDate *time.Time `json:"startDate"`
		EndDate   *time.Time `json:"endDate"`
	}
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respond.WriteBadRequest(w, "Invalid JSON")
			return
		}
	}
	timeMin := time.Now().UTC()
	if req.StartDate != nil {
		timeMin = req.StartDate.UTC()
	}
	timeMax := timeMin.Add(defaultSyncWindow)
	if req.EndDate != nil {
		timeMax = req.EndDate.UTC()
	}

	res, err := h.cal.SyncWindow(r.Context(), u.UserID, timeMin, timeMax)
	if err != nil {
		respond.Error(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, res)
}

// CreateEvent POST /api/calendar/create
func (h *CalendarHandler) CreateEvent(w http.ResponseWriter, r *http.Request) {
	u, err := auth.UserFromContext(r.Context())
	if err != nil {
		respond.Error(w, err)
		return
	}
	var req struct {
		Title       string    `json:"title"`
		Description *string   `json:"description"`
		Location    *string   `json:"location"`
		StartTime   time.Time `json:"startTime"`
		EndTime     time.Time `json:"endTime"`
		Attendees   []string  `json:"attendees"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.WriteBadRequest(w, "Invalid JSON")
		return
	}
	if err := validate.Title(req.Title); err != nil {
		respond.WriteBadRequest(w, err.Error())
		return
	}
	if err := validate.TimeRange(req.StartTime, req.EndTime); err != nil {
		respond.WriteBadRequest(w, err.Error())
		return
	}

	out, err := h.events.CreateEvent(r.Context(), u.UserID, provider.EventPayload{
		Title:       req.Title,
		Description: req.Description,
		Location:    req.Location,
		Start:       req.StartTime.UTC(),
		End:         req.EndTime.UTC(),
		Attendees:   req.Attendees,
	})
	if err != nil {
		respond.Error(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusCreated, out)
}

// ListEvents GET /api/calendar/events
func (h *CalendarHandler) ListEvents(w http.ResponseWriter, r *http.Request) {
	u, err := auth.UserFromContext(r.Context())
	if err != nil {
		respond.Error(w, err)
		return
	}
	req := model.ListEventsRequest{UserID: u.UserID}
	if v := r.URL.Query().Get("from"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			respond.WriteBadRequest(w, "from must be RFC3339")
			return
		}
		req.From = &t
	}
	if v := r.URL.Query().Get("to"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			respond.WriteBadRequest(w, "to must be RFC3339")
			return
		}
		req.To = &t
	}
	lst, err := h.events.ListEvents(r.Context(), req)
	if err != nil {
		respond.Error(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, map[string]interface{}{"events": lst, "count": len(lst)})
}
