// Package sync reconciles remote provider state into the local store. Sync is
// pull-only and idempotent: each remote object upserts by its provider id, so
// re-running against unchanged remote state adds no rows. Individual item
// failures are counted, never fatal for the batch.
package sync

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/deskhub/deskhub/internal/model"
	"github.com/deskhub/deskhub/internal/provider"
	"github.com/deskhub/deskhub/internal/store"
)

const (
	// maxInboxMessages bounds one inbox sync regardless of caller input.
	maxInboxMessages = 100

	labelUnread  = "UNREAD"
	labelStarred = "STARRED"
)

// MailSyncer pulls inbox messages into the local emails table.
type MailSyncer struct {
	clients provider.ClientFactory
	emails  store.Emails
	max     int
	log     zerolog.Logger
	now     func() time.Time
}

// NewMailSyncer builds a syncer; maxMessages <= 0 or above the hard cap falls
// back to the cap.
func NewMailSyncer(clients provider.ClientFactory, emails store.Emails, maxMessages int, log zerolog.Logger) *MailSyncer {
	if maxMessages <= 0 || maxMessages > maxInboxMessages {
		maxMessages = maxInboxMessages
	}
	return &MailSyncer{clients: clients, emails: emails, max: maxMessages, log: log, now: time.Now}
}

// SyncInbox lists up to maxResults inbox messages (capped), fetches each one
// and upserts it locally. Credential problems fail the whole call; per-message
// failures only increment the error count.
func (s *MailSyncer) SyncInbox(ctx context.Context, userID string, maxResults int) (*model.SyncResult, error) {
	if maxResults <= 0 || maxResults > s.max {
		maxResults = s.max
	}

	mailer, err := s.clients.Mail(ctx, userID)
	if err != nil {
		return nil, err
	}

	ids, err := mailer.ListMessages(ctx, "in:inbox", maxResults)
	if err != nil {
		return nil, err
	}

	res := &model.SyncResult{Timestamp: s.now().UTC()}
	for _, id := range ids {
		detail, err := mailer.GetMessage(ctx, id)
		if err != nil {
			res.Errors++
			s.log.Warn().Err(err).Str("user_id", userID).Str("gmail_id", id).Msg("message fetch failed during sync")
			continue
		}
		if _, err := s.emails.Upsert(ctx, mapMessage(userID, detail)); err != nil {
			res.Errors++
			s.log.Warn().Err(err).Str("user_id", userID).Str("gmail_id", id).Msg("message upsert failed during sync")
			continue
		}
		res.Synced++
	}

	s.log.Info().
		Str("user_id", userID).
		Int("synced", res.Synced).
		Int("errors", res.Errors).
		Msg("inbox sync complete")
	return res, nil
}

// mapMessage translates a provider message into the local row shape. Read
// state is the absence of the UNREAD label.
func mapMessage(userID string, d *provider.MessageDetail) *model.Email {
	e := &model.Email{
		UserID:     userID,
		GmailID:    d.ID,
		ThreadID:   d.ThreadID,
		From:       d.From,
		To:         d.To,
		Subject:    d.Subject,
		Snippet:    d.Snippet,
		IsRead:     true,
		Labels:     d.LabelIDs,
		ReceivedAt: d.ReceivedAt,
	}
	for _, l := range d.LabelIDs {
		switch l {
		case labelUnread:
			e.IsRead = false
		case labelStarred:
			e.IsStarred = true
		}
	}
	return e
}
