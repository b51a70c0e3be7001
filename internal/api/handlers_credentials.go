package api

import (
	"encoding/json"
	"net/http"
	"time"

	respond "github.com/deskhub/deskhub/internal/api/respond"
	"github.com/deskhub/deskhub/internal/auth"
	"github.com/deskhub/deskhub/internal/model"
	"github.com/deskhub/deskhub/internal/tokens"
)

// CredentialHandler stores the OAuth credential the web frontend captures at
// external sign-in. Plaintext secrets enter here, get encrypted in the token
// service, and are never echoed back.
type CredentialHandler struct {
	tokens *tokens.Service
}

func NewCredentialHandler(t *tokens.Service) *CredentialHandler { return &CredentialHandler{tokens: t} }

// SaveGoogleCredential POST /api/auth/google
func (h *CredentialHandler) SaveGoogleCredential(w http.ResponseWriter, r *http.Request) {
	u, err := auth.UserFromContext(r.Context())
	if err != nil {
		respond.Error(w, err)
		return
	}
	var req struct {
		AccessToken  string    `json:"accessToken"`
		RefreshToken string    `json:"refreshToken"`
		ExpiresAt    time.Time `json:"expiresAt"`
		Scopes       []string  `json:"scopes"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.WriteBadRequest(w, "Invalid JSON")
		return
	}
	if req.AccessToken == "" || req.RefreshToken == "" {
		respond.WriteBadRequest(w, "accessToken and refreshToken are required")
		return
	}
	if req.ExpiresAt.IsZero() {
		respond.WriteBadRequest(w, "expiresAt is required")
		return
	}

	if err := h.tokens.SaveSignIn(r.Context(), u.UserID, model.ProviderGoogle, req.AccessToken, req.RefreshToken, req.ExpiresAt.UTC(), req.Scopes); err != nil {
		respond.Error(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
