// Package tokens owns the OAuth credential lifecycle: expiry detection,
// refresh-before-use, and persistence of refreshed secrets. Secrets leave the
// store only in decrypted form and only through this package; token values
// are never logged.
package tokens

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/deskhub/deskhub/internal/apperr"
	"github.com/deskhub/deskhub/internal/model"
	"github.com/deskhub/deskhub/internal/provider"
	"github.com/deskhub/deskhub/internal/secrets"
	"github.com/deskhub/deskhub/internal/store"
)

// refreshThreshold is how close to expiry an access secret may get before a
// refresh is forced.
const refreshThreshold = 5 * time.Minute

// DecryptedCredential carries plaintext secrets for immediate use. It is
// never persisted.
type DecryptedCredential struct {
	UserID        string
	Provider      model.Provider
	AccessSecret  string
	RefreshSecret string
	ExpiresAt     time.Time
	Scopes        []string
}

// Service is the token lifecycle manager.
type Service struct {
	creds     store.Credentials
	cipher    *secrets.Cipher
	refresher provider.TokenRefresher
	log       zerolog.Logger
	now       func() time.Time
}

func NewService(creds store.Credentials, cipher *secrets.Cipher, refresher provider.TokenRefresher, log zerolog.Logger) *Service {
	return &Service{creds: creds, cipher: cipher, refresher: refresher, log: log, now: time.Now}
}

// WithClock overrides the time source. Test hook.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// GetValidCredential returns a usable decrypted credential for the user,
// refreshing it first when the stored access secret expires within the
// threshold. A failed refresh never overwrites stored fields.
func (s *Service) GetValidCredential(ctx context.Context, userID string, p model.Provider) (*DecryptedCredential, error) {
	cred, err := s.creds.Get(ctx, userID, p)
	if err != nil {
		if apperr.Is(err, apperr.NotFound) {
			return nil, apperr.New(apperr.NoCredential, "no credential for user")
		}
		return nil, err
	}

	refreshSecret, err := s.cipher.Decrypt(cred.RefreshCipher)
	if err != nil {
		// A credential we cannot decrypt is unusable; the caller should
		// trigger re-authentication, same as a rejected refresh.
		return nil, apperr.Wrap(apperr.TokenRefreshFailed, "stored credential unusable", err)
	}

	if cred.ExpiresAt.After(s.now().Add(refreshThreshold)) {
		accessSecret, err := s.cipher.Decrypt(cred.AccessCipher)
		if err != nil {
			return nil, apperr.Wrap(apperr.TokenRefreshFailed, "stored credential unusable", err)
		}
		return &DecryptedCredential{
			UserID:        cred.UserID,
			Provider:      cred.Provider,
			AccessSecret:  accessSecret,
			RefreshSecret: refreshSecret,
			ExpiresAt:     cred.ExpiresAt,
			Scopes:        cred.Scopes,
		}, nil
	}

	return s.refresh(ctx, cred, refreshSecret)
}

func (s *Service) refresh(ctx context.Context, cred *model.Credential, refreshSecret string) (*DecryptedCredential, error) {
	res, err := s.refresher.Refresh(ctx, refreshSecret)
	if err != nil {
		// Not retried here; callers decide whether to surface re-auth.
		return nil, apperr.Wrap(apperr.TokenRefreshFailed, "provider refresh failed", err)
	}

	accessCipher, err := s.cipher.Encrypt(res.AccessSecret)
	if err != nil {
		return nil, apperr.Wrap(apperr.TokenRefreshFailed, "invalid refresh response", err)
	}

	// Carry the refresh secret over unless the provider rotated it.
	newRefreshSecret := refreshSecret
	refreshCipher := cred.RefreshCipher
	if res.RefreshSecret != "" && res.RefreshSecret != refreshSecret {
		newRefreshSecret = res.RefreshSecret
		refreshCipher, err = s.cipher.Encrypt(res.RefreshSecret)
		if err != nil {
			return nil, apperr.Wrap(apperr.TokenRefreshFailed, "invalid refresh response", err)
		}
	}

	updated, err := s.creds.Upsert(ctx, &model.Credential{
		UserID:        cred.UserID,
		Provider:      cred.Provider,
		AccessCipher:  accessCipher,
		RefreshCipher: refreshCipher,
		ExpiresAt:     res.ExpiresAt,
		Scopes:        cred.Scopes,
	})
	if err != nil {
		return nil, err
	}

	s.log.Info().
		Str("user_id", cred.UserID).
		Str("provider", string(cred.Provider)).
		Time("expires_at", updated.ExpiresAt).
		Msg("oauth credential refreshed")

	return &DecryptedCredential{
		UserID:        updated.UserID,
		Provider:      updated.Provider,
		AccessSecret:  res.AccessSecret,
		RefreshSecret: newRefreshSecret,
		ExpiresAt:     updated.ExpiresAt,
		Scopes:        updated.Scopes,
	}, nil
}

// SaveSignIn persists the credential captured at external sign-in, encrypting
// both secrets. Upsert keeps the one-credential-per-(user,provider) invariant
// when a user signs in again.
func (s *Service) SaveSignIn(ctx context.Context, userID string, p model.Provider, accessSecret, refreshSecret string, expiresAt time.Time, scopes []string) error {
	accessCipher, err := s.cipher.Encrypt(accessSecret)
	if err != nil {
		return err
	}
	refreshCipher, err := s.cipher.Encrypt(refreshSecret)
	if err != nil {
		return err
	}
	_, err = s.creds.Upsert(ctx, &model.Credential{
		UserID:        userID,
		Provider:      p,
		AccessCipher:  accessCipher,
		RefreshCipher: refreshCipher,
		ExpiresAt:     expiresAt,
		Scopes:        scopes,
	})
	return err
}
