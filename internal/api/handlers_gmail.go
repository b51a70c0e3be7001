package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	respond "github.com/deskhub/deskhub/internal/api/respond"
	"github.com/deskhub/deskhub/internal/auth"
	"github.com/deskhub/deskhub/internal/model"
	"github.com/deskhub/deskhub/internal/services"
	syncer "github.com/deskhub/deskhub/internal/sync"
)

// GmailHandler is the transport for mail sync and the local email mirror.
type GmailHandler struct {
	mail   *syncer.MailSyncer
	emails *services.EmailService
}

func NewGmailHandler(mail *syncer.MailSyncer, emails *services.EmailService) *GmailHandler {
	return &GmailHandler{mail: mail, emails: emails}
}

// SyncInbox POST /api/gmail/sync
// Per-message failures are reported in the aggregate, never as request errors.
func (h *GmailHandler) SyncInbox(w http.ResponseWriter, r *http.Request) {
	u, err := auth.UserFromContext(r.Context())
	if err != nil {
		respond.Error(w, err)
		return
	}
	var req struct {
		MaxResults int `json:"maxResults"`
	}
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respond.WriteBadRequest(w, "Invalid JSON")
			return
		}
	}
	res, err := h.mail.SyncInbox(r.Context(), u.UserID, req.MaxResults)
	if err != nil {
		respond.Error(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, res)
}

// SetReadState PATCH /api/gmail/read
func (h *GmailHandler) SetReadState(w http.ResponseWriter, r *http.Request) {
	u, err := auth.UserFromContext(r.Context())
	if err != nil {
		respond.Error(w, err)
		return
	}
	var req struct {
		GmailID string `json:"gmailId"`
		IsRead  *bool  `json:"isRead"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.WriteBadRequest(w, "Invalid JSON")
		return
	}
	if req.GmailID == "" || req.IsRead == nil {
		respond.WriteBadRequest(w, "gmailId and isRead are required")
		return
	}
	out, err := h.emails.SetReadState(r.Context(), u.UserID, req.GmailID, *req.IsRead)
	if err != nil {
		respond.Error(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, out)
}

// GetEmail GET /api/emails/{emailId}
func (h *GmailHandler) GetEmail(w http.ResponseWriter, r *http.Request) {
	u, err := auth.UserFromContext(r.Context())
	if err != nil {
		respond.Error(w, err)
		return
	}
	out, err := h.emails.GetEmail(r.Context(), u.UserID, mux.Vars(r)["emailId"])
	if err != nil {
		respond.Error(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, out)
}

// UpdateEmail PATCH /api/emails/{emailId}
// Only the locally owned metadata is writable here; read state goes through
// PATCH /api/gmail/read so the provider label stays in step.
func (h *GmailHandler) UpdateEmail(w http.ResponseWriter, r *http.Request) {
	u, err := auth.UserFromContext(r.Context())
	if err != nil {
		respond.Error(w, err)
		return
	}
	var req model.UpdateEmailMetaRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.WriteBadRequest(w, "Invalid JSON")
		return
	}
	if req.IsStarred == nil && req.LinkedTaskID == nil {
		respond.WriteBadRequest(w, "at least one of isStarred, linkedTaskId is required")
		return
	}
	out, err := h.emails.UpdateEmailMeta(r.Context(), u.UserID, mux.Vars(r)["emailId"], req)
	if err != nil {
		respond.Error(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, out)
}

// DeleteEmail DELETE /api/emails/{emailId}
func (h *GmailHandler) DeleteEmail(w http.ResponseWriter, r *http.Request) {
	u, err := auth.UserFromContext(r.Context())
	if err != nil {
		respond.Error(w, err)
		return
	}
	if err := h.emails.DeleteEmail(r.Context(), u.UserID, mux.Vars(r)["emailId"]); err != nil {
		respond.Error(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListEmails GET /api/emails
func (h *GmailHandler) ListEmails(w http.ResponseWriter, r *http.Request) {
	u, err := auth.UserFromContext(r.Context())
	if err != nil {
		respond.Error(w, err)
		return
	}
	req := model.ListEmailsRequest{UserID: u.UserID, Label: r.URL.Query().Get("label")}
	if v := r.URL.Query().Get("isRead"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			respond.WriteBadRequest(w, "isRead must be a boolean")
			return
		}
		req.IsRead = &b
	}
	if v := r.URL.Query().Get("isStarred"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			respond.WriteBadRequest(w, "isStarred must be a boolean")
			return
		}
		req.IsStarred = &b
	}
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			respond.WriteBadRequest(w, "limit must be a non-negative integer")
			return
		}
		req.Limit = n
	}
	lst, err := h.emails.ListEmails(r.Context(), req)
	if err != nil {
		respond.Error(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, map[string]interface{}{"emails": lst, "count": len(lst)})
}
