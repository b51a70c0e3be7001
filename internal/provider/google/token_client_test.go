package google

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/deskhub/deskhub/internal/apperr"
)

func TestTokenClientRefresh(t *testing.T) {
	var gotForm map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			t.Errorf("ParseForm: %v", err)
		}
		gotForm = map[string]string{
			"grant_type":    r.PostFormValue("grant_type"),
			"refresh_token": r.PostFormValue("refresh_token"),
			"client_id":     r.PostFormValue("client_id"),
			"client_secret": r.PostFormValue("client_secret"),
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"access_token": "ya29.new",
			"expires_in":   3600,
			"token_type":   "Bearer",
		})
	}))
	defer srv.Close()

	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	c := NewTokenClient(srv.URL, "client-id", "client-secret")
	c.now = func() time.Time { return now }

	res, err := c.Refresh(context.Background(), "refresh-1")
	if err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if res.AccessSecret != "ya29.new" {
		t.Fatalf("AccessSecret: %q", res.AccessSecret)
	}
	if !res.ExpiresAt.Equal(now.Add(time.Hour)) {
		t.Fatalf("ExpiresAt: %v", res.ExpiresAt)
	}
	if res.RefreshSecret != "" {
		t.Fatalf("no rotation expected, got %q", res.RefreshSecret)
	}
	want := map[string]string{
		"grant_type":    "refresh_token",
		"refresh_token": "refresh-1",
		"client_id":     "client-id",
		"client_secret": "client-secret",
	}
	for k, v := range want {
		if gotForm[k] != v {
			t.Fatalf("form[%s]: want %q got %q", k, v, gotForm[k])
		}
	}
}

func TestTokenClientRefreshRotation(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"access_token":  "ya29.new",
			"refresh_token": "refresh-2",
			"expires_in":    3600,
		})
	}))
	defer srv.Close()

	res, err := NewTokenClient(srv.URL, "id", "secret").Refresh(context.Background(), "refresh-1")
	if err != nil {
		t.Fatal(err)
	}
	if res.RefreshSecret != "refresh-2" {
		t.Fatalf("rotated refresh secret not returned: %q", res.RefreshSecret)
	}
}

func TestTokenClientRefreshErrors(t *testing.T) {
	cases := []struct {
		name   string
		status int
		body   string
		kind   apperr.Kind
	}{
		{"invalid grant", http.StatusBadRequest, `{"error":"invalid_grant"}`, apperr.Upstream},
		{"rate limited", http.StatusTooManyRequests, `{}`, apperr.RateLimited},
		{"server error", http.StatusInternalServerError, `{}`, apperr.Upstream},
		{"malformed ok", http.StatusOK, `{"token_type":"Bearer"}`, apperr.Upstream},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tc.status)
				_, _ = w.Write([]byte(tc.body))
			}))
			defer srv.Close()

			_, err := NewTokenClient(srv.URL, "id", "secret").Refresh(context.Background(), "refresh-1")
			if apperr.KindOf(err) != tc.kind {
				t.Fatalf("expected %v, got %v", tc.kind, err)
			}
		})
	}
}

func TestTokenClientUnreachable(t *testing.T) {
	_, err := NewTokenClient("http://127.0.0.1:1/token", "id", "secret").Refresh(context.Background(), "refresh-1")
	if apperr.KindOf(err) != apperr.Upstream {
		t.Fatalf("expected Upstream, got %v", err)
	}
}
