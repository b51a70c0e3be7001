package google

import (
	"context"

	"github.com/deskhub/deskhub/internal/model"
	"github.com/deskhub/deskhub/internal/provider"
	"github.com/deskhub/deskhub/internal/tokens"
)

// Factory builds per-user Gmail and Calendar handles, going through the token
// lifecycle so every handle starts with a valid access secret. It implements
// provider.ClientFactory.
type Factory struct {
	tokens   *tokens.Service
	endpoint string
}

// NewFactory wires the factory to the token service. endpoint overrides the
// Google API base URL when non-empty (tests, mock providers).
func NewFactory(tokens *tokens.Service, endpoint string) *Factory {
	return &Factory{tokens: tokens, endpoint: endpoint}
}

func (f *Factory) Mail(ctx context.Context, userID string) (provider.Mail, error) {
	cred, err := f.tokens.GetValidCredential(ctx, userID, model.ProviderGoogle)
	if err != nil {
		return nil, err
	}
	return newGmailClient(ctx, cred.AccessSecret, f.endpoint)
}

func (f *Factory) Calendar(ctx context.Context, userID string) (provider.Calendar, error) {
	cred, err := f.tokens.GetValidCredential(ctx, userID, model.ProviderGoogle)
	if err != nil {
		return nil, err
	}
	return newCalendarClient(ctx, cred.AccessSecret, f.endpoint)
}
