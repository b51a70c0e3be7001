package google

import (
	"context"
	"net/mail"
	"strings"
	"time"

	"golang.org/x/oauth2"
	gmail "google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"

	"github.com/deskhub/deskhub/internal/apperr"
	"github.com/deskhub/deskhub/internal/provider"
)

// gmailClient implements provider.Mail over the Gmail API for one user's
// access secret.
type gmailClient struct {
	svc *gmail.Service
}

func newGmailClient(ctx context.Context, accessSecret, endpoint string) (*gmailClient, error) {
	opts := []option.ClientOption{
		option.WithTokenSource(oauth2.StaticTokenSource(&oauth2.Token{AccessToken: accessSecret})),
	}
	if endpoint != "" {
		opts = append(opts, option.WithEndpoint(endpoint))
	}
	svc, err := gmail.NewService(ctx, opts...)
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, "gmail client init failed", err)
	}
	return &gmailClient{svc: svc}, nil
}

func (g *gmailClient) ListMessages(ctx context.Context, query string, maxResults int) ([]string, error) {
	call := g.svc.Users.Messages.List("me").MaxResults(int64(maxResults)).Context(ctx)
	if query != "" {
		call = call.Q(query)
	}
	res, err := call.Do()
	if err != nil {
		return nil, mapAPIErr("list messages", err)
	}
	ids := make([]string, 0, len(res.Messages))
	for _, m := range res.Messages {
		ids = append(ids, m.Id)
	}
	return ids, nil
}

func (g *gmailClient) GetMessage(ctx context.Context, id string) (*provider.MessageDetail, error) {
	msg, err := g.svc.Users.Messages.Get("me", id).
		Format("metadata").
		MetadataHeaders("From", "To", "Subject", "Date").
		Context(ctx).
		Do()
	if err != nil {
		return nil, mapAPIErr("get message", err)
	}

	d := &provider.MessageDetail{
		ID:       msg.Id,
		ThreadID: msg.ThreadId,
		Snippet:  msg.Snippet,
		LabelIDs: msg.LabelIds,
	}
	if msg.Payload != nil {
		for _, h := range msg.Payload.Headers {
			switch h.Name {
			case "From":
				d.From = h.Value
			case "To":
				d.To = splitAddresses(h.Value)
			case "Subject":
				d.Subject = h.Value
			case "Date":
				if t, err := mail.ParseDate(h.Value); err == nil {
					d.ReceivedAt = t.UTC()
				}
			}
		}
	}
	// InternalDate is authoritative when present; the Date header lies often
	// enough that it is only a fallback.
	if msg.InternalDate > 0 {
		d.ReceivedAt = time.UnixMilli(msg.InternalDate).UTC()
	}
	if d.ReceivedAt.IsZero() {
		d.ReceivedAt = time.Now().UTC()
	}
	return d, nil
}

func (g *gmailClient) ModifyLabels(ctx context.Context, id string, add, remove []string) error {
	if len(add) == 0 && len(remove) == 0 {
		return nil
	}
	_, err := g.svc.Users.Messages.Modify("me", id, &gmail.ModifyMessageRequest{
		AddLabelIds:    add,
		RemoveLabelIds: remove,
	}).Context(ctx).Do()
	if err != nil {
		return mapAPIErr("modify labels", err)
	}
	return nil
}

func splitAddresses(header string) []string {
	if header == "" {
		return nil
	}
	parts := strings.Split(header, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if addr := strings.TrimSpace(p); addr != "" {
			out = append(out, addr)
		}
	}
	return out
}
