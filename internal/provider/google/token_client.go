// Package google implements the provider boundary against Google's OAuth and
// Workspace APIs: a token-endpoint client for refresh, Gmail and Calendar
// wrappers over the official SDK, and a factory that ties them to the token
// lifecycle.
package google

import (
	"context"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/deskhub/deskhub/internal/apperr"
	"github.com/deskhub/deskhub/internal/provider"
)

const tokenTimeout = 15 * time.Second

// TokenClient exchanges refresh secrets at the OAuth token endpoint. It
// implements provider.TokenRefresher.
type TokenClient struct {
	http         *resty.Client
	tokenURL     string
	clientID     string
	clientSecret string
	now          func() time.Time
}

func NewTokenClient(tokenURL, clientID, clientSecret string) *TokenClient {
	return &TokenClient{
		http:         resty.New().SetTimeout(tokenTimeout),
		tokenURL:     tokenURL,
		clientID:     clientID,
		clientSecret: clientSecret,
		now:          time.Now,
	}
}

type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int    `json:"expires_in"`
	Scope        string `json:"scope"`
	TokenType    string `json:"token_type"`
}

type tokenErrorResponse struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
}

// Refresh posts a refresh_token grant. The refresh secret itself is never
// included in errors or logs.
func (c *TokenClient) Refresh(ctx context.Context, refreshSecret string) (*provider.RefreshResult, error) {
	var (
		ok  tokenResponse
		bad tokenErrorResponse
	)
	resp, err := c.http.R().
		SetContext(ctx).
		SetFormData(map[string]string{
			"grant_type":    "refresh_token",
			"refresh_token": refreshSecret,
			"client_id":     c.clientID,
			"client_secret": c.clientSecret,
		}).
		SetResult(&ok).
		SetError(&bad).
		Post(c.tokenURL)
	if err != nil {
		return nil, apperr.Wrap(apperr.Upstream, "token endpoint unreachable", err)
	}

	if resp.IsError() {
		switch {
		case resp.StatusCode() == http.StatusTooManyRequests:
			return nil, apperr.New(apperr.RateLimited, "token endpoint rate limited")
		case resp.StatusCode() >= http.StatusInternalServerError:
			return nil, apperr.Newf(apperr.Upstream, "token endpoint returned %d", resp.StatusCode())
		default:
			// 4xx: the grant itself was rejected (revoked, expired, wrong client).
			return nil, apperr.Newf(apperr.Upstream, "token refresh rejected: %s", bad.Error)
		}
	}

	if ok.AccessToken == "" || ok.ExpiresIn <= 0 {
		return nil, apperr.New(apperr.Upstream, "malformed token response")
	}

	return &provider.RefreshResult{
		AccessSecret:  ok.AccessToken,
		RefreshSecret: ok.RefreshToken,
		ExpiresAt:     c.now().Add(time.Duration(ok.ExpiresIn) * time.Second),
	}, nil
}
