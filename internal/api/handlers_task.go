package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	respond "github.com/deskhub/deskhub/internal/api/respond"
	"github.com/deskhub/deskhub/internal/api/validate"
	"github.com/deskhub/deskhub/internal/auth"
	"github.com/deskhub/deskhub/internal/model"
	"github.com/deskhub/deskhub/internal/services"
)

// TaskHandler is the transport for task CRUD.
type TaskHandler struct {
	svc *services.TaskService
}

func NewTaskHandler(svc *services.TaskService) *TaskHandler { return &TaskHandler{svc: svc} }

// CreateTask POST /api/tasks
func (h *TaskHandler) CreateTask(w http.ResponseWriter, r *http.Request) {
	u, err := auth.UserFromContext(r.Context())
	if err != nil {
		respond.Error(w, err)
		return
	}
	var req struct {
		Title         string     `json:"title"`
		Description   *string    `json:"description"`
		Status        string     `json:"status"`
		Priority      string     `json:"priority"`
		DueDate       *time.Time `json:"dueDate"`
		Tags          []string   `json:"tags"`
		LinkedEmailID *string    `json:"linkedEmailId"`
		LinkedNoteID  *string    `json:"linkedNoteId"`
		LinkedEventID *string    `json:"linkedEventId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.WriteBadRequest(w, "Invalid JSON")
		return
	}
	if err := validate.Title(req.Title); err != nil {
		respond.WriteBadRequest(w, err.Error())
		return
	}
	if req.Status != "" {
		if err := validate.TaskStatus(req.Status); err != nil {
			respond.WriteBadRequest(w, err.Error())
			return
		}
	}
	if req.Priority != "" {
		if err := validate.TaskPriority(req.Priority); err != nil {
			respond.WriteBadRequest(w, err.Error())
			return
		}
	}

	out, err := h.svc.CreateTask(r.Context(), &model.Task{
		UserID:        u.UserID,
		Title:         req.Title,
		Description:   req.Description,
		Status:        req.Status,
		Priority:      req.Priority,
		DueDate:       req.DueDate,
		Tags:          req.Tags,
		LinkedEmailID: req.LinkedEmailID,
		LinkedNoteID:  req.LinkedNoteID,
		LinkedEventID: req.LinkedEventID,
	})
	if err != nil {
		respond.Error(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusCreated, out)
}

// ListTasks GET /api/tasks
func (h *TaskHandler) ListTasks(w http.ResponseWriter, r *http.Request) {
	u, err := auth.UserFromContext(r.Context())
	if err != nil {
		respond.Error(w, err)
		return
	}
	q := r.URL.Query()
	req := model.ListTasksRequest{
		UserID:   u.UserID,
		Status:   q.Get("status"),
		Priority: q.Get("priority"),
		Tag:      q.Get("tag"),
	}
	if req.Status != "" {
		if err := validate.TaskStatus(req.Status); err != nil {
			respond.WriteBadRequest(w, err.Error())
			return
		}
	}
	if req.Priority != "" {
		if err := validate.TaskPriority(req.Priority); err != nil {
			respond.WriteBadRequest(w, err.Error())
			return
		}
	}
	lst, err := h.svc.ListTasks(r.Context(), req)
	if err != nil {
		respond.Error(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, map[string]interface{}{"tasks": lst, "count": len(lst)})
}

// GetTask GET /api/tasks/{taskId}
func (h *TaskHandler) GetTask(w http.ResponseWriter, r *http.Request) {
	u, err := auth.UserFromContext(r.Context())
	if err != nil {
		respond.Error(w, err)
		return
	}
	out, err := h.svc.GetTask(r.Context(), u.UserID, mux.Vars(r)["taskId"])
	if err != nil {
		respond.Error(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, out)
}

// UpdateTask PATCH /api/tasks/{taskId}
// Partial update: absent fields keep their stored values.
func (h *TaskHandler) UpdateTask(w http.ResponseWriter, r *http.Request) {
	u, err := auth.UserFromContext(r.Context())
	if err != nil {
		respond.Error(w, err)
		return
	}
	cur, err := h.svc.GetTask(r.Context(), u.UserID, mux.Vars(r)["taskId"])
	if err != nil {
		respond.Error(w, err)
		return
	}

	var req struct {
		Title         *string    `json:"title"`
		Description   *string    `json:"description"`
		Status        *string    `json:"status"`
		Priority      *string    `json:"priority"`
		DueDate       *time.Time `json:"dueDate"`
		Tags          *[]string  `json:"tags"`
		LinkedEmailID *string    `json:"linkedEmailId"`
		LinkedNoteID  *string    `json:"linkedNoteId"`
		LinkedEventID *string    `json:"linkedEventId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.WriteBadRequest(w, "Invalid JSON")
		return
	}
	if req.Title != nil {
		if err := validate.Title(*req.Title); err != nil {
			respond.WriteBadRequest(w, err.Error())
			return
		}
		cur.Title = *req.Title
	}
	if req.Status != nil {
		if err := validate.TaskStatus(*req.Status); err != nil {
			respond.WriteBadRequest(w, err.Error())
			return
		}
		cur.Status = *req.Status
	}
	if req.Priority != nil {
		if err := validate.TaskPriority(*req.Priority); err != nil {
			respond.WriteBadRequest(w, err.Error())
			return
		}
		cur.Priority = *req.Priority
	}
	if req.Description != nil {
		cur.Description = req.Description
	}
	if req.DueDate != nil {
		cur.DueDate = req.DueDate
	}
	if req.Tags != nil {
		cur.Tags = *req.Tags
	}
	if req.LinkedEmailID != nil {
		cur.LinkedEmailID = req.LinkedEmailID
	}
	if req.LinkedNoteID != nil {
		cur.LinkedNoteID = req.LinkedNoteID
	}
	if req.LinkedEventID != nil {
		cur.LinkedEventID = req.LinkedEventID
	}

	out, err := h.svc.UpdateTask(r.Context(), cur)
	if err != nil {
		respond.Error(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, out)
}

// DeleteTask DELETE /api/tasks/{taskId}
func (h *TaskHandler) DeleteTask(w http.ResponseWriter, r *http.Request) {
	u, err := auth.UserFromContext(r.Context())
	if err != nil {
		respond.Error(w, err)
		return
	}
	if err := h.svc.DeleteTask(r.Context(), u.UserID, mux.Vars(r)["taskId"]); err != nil {
		respond.Error(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
