package tokens

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/deskhub/deskhub/internal/apperr"
	"github.com/deskhub/deskhub/internal/model"
	"github.com/deskhub/deskhub/internal/provider"
	"github.com/deskhub/deskhub/internal/secrets"
)

type fakeCreds struct {
	cred    *model.Credential
	upserts int
	getErr  error
}

func (f *fakeCreds) Get(ctx context.Context, userID string, p model.Provider) (*model.Credential, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	if f.cred == nil || f.cred.UserID != userID || f.cred.Provider != p {
		return nil, apperr.New(apperr.NotFound, "credential not found")
	}
	c := *f.cred
	return &c, nil
}

func (f *fakeCreds) Upsert(ctx context.Context, c *model.Credential) (*model.Credential, error) {
	f.upserts++
	cp := *c
	f.cred = &cp
	out := cp
	return &out, nil
}

type fakeRefresher struct {
	calls int
	res   *provider.RefreshResult
	err   error
}

func (f *fakeRefresher) Refresh(ctx context.Context, refreshSecret string) (*provider.RefreshResult, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.res, nil
}

func testCipher(t *testing.T) *secrets.Cipher {
	t.Helper()
	c, err := secrets.NewCipher(bytes.Repeat([]byte{0x11}, 32))
	if err != nil {
		t.Fatalf("NewCipher: %v", err)
	}
	return c
}

func seedCredential(t *testing.T, c *secrets.Cipher, expiresAt time.Time) *model.Credential {
	t.Helper()
	access, err := c.Encrypt("access-1")
	if err != nil {
		t.Fatal(err)
	}
	refresh, err := c.Encrypt("refresh-1")
	if err != nil {
		t.Fatal(err)
	}
	return &model.Credential{
		UserID:        "u-1",
		Provider:      model.ProviderGoogle,
		AccessCipher:  access,
		RefreshCipher: refresh,
		ExpiresAt:     expiresAt,
		Scopes:        []string{"mail"},
	}
}

func TestGetValidCredentialFresh(t *testing.T) {
	cipher := testCipher(t)
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	creds := &fakeCreds{cred: seedCredential(t, cipher, now.Add(time.Hour))}
	ref := &fakeRefresher{}

	svc := NewService(creds, cipher, ref, zerolog.Nop()).WithClock(func() time.Time { return now })
	got, err := svc.GetValidCredential(context.Background(), "u-1", model.ProviderGoogle)
	if err != nil {
		t.Fatalf("GetValidCredential: %v", err)
	}
	if got.AccessSecret != "access-1" || got.RefreshSecret != "refresh-1" {
		t.Fatalf("decrypted secrets: %+v", got)
	}
	if ref.calls != 0 {
		t.Fatalf("fresh credential must not be refreshed, got %d calls", ref.calls)
	}
	if creds.upserts != 0 {
		t.Fatalf("fresh credential must not be rewritten, got %d upserts", creds.upserts)
	}
}

func TestGetValidCredentialRefreshesNearExpiry(t *testing.T) {
	cipher := testCipher(t)
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	ref := &fakeRefresher{res: &provider.RefreshResult{
		AccessSecret: "access-2",
		ExpiresAt:    now.Add(time.Hour),
	}}

	// Expiring inside the 5-minute threshold and already expired both refresh.
	for name, exp := range map[string]time.Time{
		"inside threshold": now.Add(2 * time.Minute),
		"already expired":  now.Add(-time.Minute),
		"exactly now":      now,
	} {
		creds := &fakeCreds{cred: seedCredential(t, cipher, exp)}
		ref.calls = 0
		svc := NewService(creds, cipher, ref, zerolog.Nop()).WithClock(func() time.Time { return now })

		got, err := svc.GetValidCredential(context.Background(), "u-1", model.ProviderGoogle)
		if err != nil {
			t.Fatalf("%s: %v", name, err)
		}
		if got.AccessSecret != "access-2" {
			t.Fatalf("%s: want refreshed access secret, got %q", name, got.AccessSecret)
		}
		if got.RefreshSecret != "refresh-1" {
			t.Fatalf("%s: refresh secret must carry over, got %q", name, got.RefreshSecret)
		}
		if ref.calls != 1 {
			t.Fatalf("%s: want exactly one refresh, got %d", name, ref.calls)
		}
		if creds.upserts != 1 {
			t.Fatalf("%s: refreshed credential must be stored once, got %d", name, creds.upserts)
		}

		stored, err := cipher.Decrypt(creds.cred.AccessCipher)
		if err != nil || stored != "access-2" {
			t.Fatalf("%s: stored cipher must hold new secret: %q err=%v", name, stored, err)
		}
		if !creds.cred.ExpiresAt.Equal(now.Add(time.Hour)) {
			t.Fatalf("%s: stored expiry not updated: %v", name, creds.cred.ExpiresAt)
		}
	}
}

func TestGetValidCredentialRotatedRefreshSecret(t *testing.T) {
	cipher := testCipher(t)
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	creds := &fakeCreds{cred: seedCredential(t, cipher, now)}
	ref := &fakeRefresher{res: &provider.RefreshResult{
		AccessSecret:  "access-2",
		RefreshSecret: "refresh-2",
		ExpiresAt:     now.Add(time.Hour),
	}}

	svc := NewService(creds, cipher, ref, zerolog.Nop()).WithClock(func() time.Time { return now })
	got, err := svc.GetValidCredential(context.Background(), "u-1", model.ProviderGoogle)
	if err != nil {
		t.Fatal(err)
	}
	if got.RefreshSecret != "refresh-2" {
		t.Fatalf("rotated refresh secret not picked up: %q", got.RefreshSecret)
	}
	stored, err := cipher.Decrypt(creds.cred.RefreshCipher)
	if err != nil || stored != "refresh-2" {
		t.Fatalf("stored refresh cipher must hold rotated secret: %q err=%v", stored, err)
	}
}

func TestGetValidCredentialRefreshFailureKeepsStored(t *testing.T) {
	cipher := testCipher(t)
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	seed := seedCredential(t, cipher, now)
	creds := &fakeCreds{cred: seed}
	ref := &fakeRefresher{err: apperr.New(apperr.Upstream, "invalid_grant")}

	svc := NewService(creds, cipher, ref, zerolog.Nop()).WithClock(func() time.Time { return now })
	_, err := svc.GetValidCredential(context.Background(), "u-1", model.ProviderGoogle)
	if apperr.KindOf(err) != apperr.TokenRefreshFailed {
		t.Fatalf("expected TokenRefreshFailed, got %v", err)
	}
	if creds.upserts != 0 {
		t.Fatalf("failed refresh must not overwrite stored credential")
	}
	if creds.cred.AccessCipher != seed.AccessCipher || creds.cred.RefreshCipher != seed.RefreshCipher {
		t.Fatalf("stored ciphers changed after failed refresh")
	}
}

func TestGetValidCredentialMissing(t *testing.T) {
	cipher := testCipher(t)
	svc := NewService(&fakeCreds{}, cipher, &fakeRefresher{}, zerolog.Nop())
	_, err := svc.GetValidCredential(context.Background(), "u-nobody", model.ProviderGoogle)
	if apperr.KindOf(err) != apperr.NoCredential {
		t.Fatalf("expected NoCredential, got %v", err)
	}
}

func TestGetValidCredentialUndecryptable(t *testing.T) {
	cipher := testCipher(t)
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	cred := seedCredential(t, cipher, now.Add(time.Hour))
	cred.RefreshCipher = "bm90IGEgcmVhbCBibG9i" // valid base64, not a valid blob
	creds := &fakeCreds{cred: cred}

	svc := NewService(creds, cipher, &fakeRefresher{}, zerolog.Nop()).WithClock(func() time.Time { return now })
	_, err := svc.GetValidCredential(context.Background(), "u-1", model.ProviderGoogle)
	if apperr.KindOf(err) != apperr.TokenRefreshFailed {
		t.Fatalf("undecryptable credential: expected TokenRefreshFailed, got %v", err)
	}
}

func TestSaveSignIn(t *testing.T) {
	cipher := testCipher(t)
	creds := &fakeCreds{}
	svc := NewService(creds, cipher, &fakeRefresher{}, zerolog.Nop())

	exp := time.Now().Add(time.Hour).UTC()
	if err := svc.SaveSignIn(context.Background(), "u-1", model.ProviderGoogle, "access-x", "refresh-x", exp, []string{"mail", "calendar"}); err != nil {
		t.Fatalf("SaveSignIn: %v", err)
	}
	if creds.cred == nil {
		t.Fatal("credential not stored")
	}
	if creds.cred.AccessCipher == "access-x" || creds.cred.RefreshCipher == "refresh-x" {
		t.Fatal("secrets stored in plaintext")
	}
	if got, _ := cipher.Decrypt(creds.cred.AccessCipher); got != "access-x" {
		t.Fatalf("access cipher round trip: %q", got)
	}
	if got, _ := cipher.Decrypt(creds.cred.RefreshCipher); got != "refresh-x" {
		t.Fatalf("refresh cipher round trip: %q", got)
	}
}
