package api

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	respond "github.com/deskhub/deskhub/internal/api/respond"
	"github.com/deskhub/deskhub/internal/api/validate"
	"github.com/deskhub/deskhub/internal/auth"
	"github.com/deskhub/deskhub/internal/model"
	"github.com/deskhub/deskhub/internal/services"
)

// NoteHandler is the transport for note CRUD.
type NoteHandler struct {
	svc *services.NoteService
}

func NewNoteHandler(svc *services.NoteService) *NoteHandler { return &NoteHandler{svc: svc} }

// CreateNote POST /api/notes
func (h *NoteHandler) CreateNote(w http.ResponseWriter, r *http.Request) {
	u, err := auth.UserFromContext(r.Context())
	if err != nil {
		respond.Error(w, err)
		return
	}
	var req struct {
		Title   string   `json:"title"`
		Content string   `json:"content"`
		Tags    []string `json:"tags"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.WriteBadRequest(w, "Invalid JSON")
		return
	}
	if err := validate.Title(req.Title); err != nil {
		respond.WriteBadRequest(w, err.Error())
		return
	}
	out, err := h.svc.CreateNote(r.Context(), &model.Note{
		UserID:  u.UserID,
		Title:   req.Title,
		Content: req.Content,
		Tags:    req.Tags,
	})
	if err != nil {
		respond.Error(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusCreated, out)
}

// ListNotes GET /api/notes
func (h *NoteHandler) ListNotes(w http.ResponseWriter, r *http.Request) {
	u, err := auth.UserFromContext(r.Context())
	if err != nil {
		respond.Error(w, err)
		return
	}
	lst, err := h.svc.ListNotes(r.Context(), u.UserID)
	if err != nil {
		respond.Error(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, map[string]interface{}{"notes": lst, "count": len(lst)})
}

// GetNote GET /api/notes/{noteId}
func (h *NoteHandler) GetNote(w http.ResponseWriter, r *http.Request) {
	u, err := auth.UserFromContext(r.Context())
	if err != nil {
		respond.Error(w, err)
		return
	}
	out, err := h.svc.GetNote(r.Context(), u.UserID, mux.Vars(r)["noteId"])
	if err != nil {
		respond.Error(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, out)
}

// UpdateNote PATCH /api/notes/{noteId}
func (h *NoteHandler) UpdateNote(w http.ResponseWriter, r *http.Request) {
	u, err := auth.UserFromContext(r.Context())
	if err != nil {
		respond.Error(w, err)
		return
	}
	cur, err := h.svc.GetNote(r.Context(), u.UserID, mux.Vars(r)["noteId"])
	if err != nil {
		respond.Error(w, err)
		return
	}

	var req struct {
		Title   *string   `json:"title"`
		Content *string   `json:"content"`
		Tags    *[]string `json:"tags"`
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
	if req.Content != nil {
		cur.Content = *req.Content
	}
	if req.Tags != nil {
		cur.Tags = *req.Tags
	}

	out, err := h.svc.UpdateNote(r.Context(), cur)
	if err != nil {
		respond.Error(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, out)
}

// DeleteNote DELETE /api/notes/{noteId}
func (h *NoteHandler) DeleteNote(w http.ResponseWriter, r *http.Request) {
	u, err := auth.UserFromContext(r.Context())
	if err != nil {
		respond.Error(w, err)
		return
	}
	if err := h.svc.DeleteNote(r.Context(), u.UserID, mux.Vars(r)["noteId"]); err != nil {
		respond.Error(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
