package services

import (
	"context"

	"github.com/deskhub/deskhub/internal/apperr"
	"github.com/deskhub/deskhub/internal/model"
	"github.com/deskhub/deskhub/internal/provider"
	"github.com/deskhub/deskhub/internal/store"
)

const labelUnread = "UNREAD"

// EmailService serves the local email mirror and pushes read-state changes
// back to the provider.
type EmailService struct {
	store   store.Store
	clients provider.ClientFactory
}

func NewEmailService(s store.Store, clients provider.ClientFactory) *EmailService {
	return &EmailService{store: s, clients: clients}
}

func (s *EmailService) ListEmails(ctx context.Context, req model.ListEmailsRequest) ([]*model.Email, error) {
	return s.store.Emails().List(ctx, req)
}

func (s *EmailService) GetEmail(ctx context.Context, userID, emailID string) (*model.Email, error) {
	return s.store.Emails().Get(ctx, userID, emailID)
}

// UpdateEmailMeta changes the locally owned fields of a mirror row. The task
// link must point at one of the user's tasks; an empty linkedTaskId clears it.
// Read state is not handled here because it has to go through the provider.
func (s *EmailService) UpdateEmailMeta(ctx context.Context, userID, emailID string, req model.UpdateEmailMetaRequest) (*model.Email, error) {
	cur, err := s.store.Emails().Get(ctx, userID, emailID)
	if err != nil {
		return nil, err
	}
	if req.IsStarred != nil {
		cur.IsStarred = *req.IsStarred
	}
	if req.LinkedTaskID != nil {
		if *req.LinkedTaskID == "" {
			cur.LinkedTaskID = nil
		} else {
			if _, err := s.store.Tasks().Get(ctx, userID, *req.LinkedTaskID); err != nil {
				return nil, apperr.New(apperr.Validation, "linked task not found")
			}
			cur.LinkedTaskID = req.LinkedTaskID
		}
	}
	return s.store.Emails().UpdateMeta(ctx, cur)
}

// DeleteEmail removes the local mirror row only; the provider copy is
// untouched and the message reappears on the next sync.
func (s *EmailService) DeleteEmail(ctx context.Context, userID, emailID string) error {
	return s.store.Emails().Delete(ctx, userID, emailID)
}

// SetReadState flips read state remote-first: the provider label change must
// succeed before the mirror row is touched, so a provider failure leaves
// local and remote consistent.
func (s *EmailService) SetReadState(ctx context.Context, userID, gmailID string, read bool) (*model.Email, error) {
	// Reject unknown ids before spending a provider call.
	if _, err := s.store.Emails().GetByGmailID(ctx, userID, gmailID); err != nil {
		return nil, err
	}

	mailer, err := s.clients.Mail(ctx, userID)
	if err != nil {
		return nil, err
	}

	var add, remove []string
	if read {
		remove = []string{labelUnread}
	} else {
		add = []string{labelUnread}
	}
	if err := mailer.ModifyLabels(ctx, gmailID, add, remove); err != nil {
		return nil, err
	}

	return s.store.Emails().SetReadState(ctx, userID, gmailID, read)
}
