// Package secrets implements authenticated encryption for OAuth secrets at
// rest. Blobs are self-contained: nonce(12) || tag(16) || ciphertext, base64
// encoded so they are safe to store in a text column. Token values themselves
// must never be logged.
package secrets

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"

	"github.com/deskhub/deskhub/internal/apperr"
)

const (
	nonceLength = 12
	tagLength   = 16
	keyLength   = 32
)

// Cipher performs AES-256-GCM encryption of opaque secret strings.
type Cipher struct {
	aead cipher.AEAD
}

// NewCipher builds a Cipher from a 256-bit key.
func NewCipher(key []byte) (*Cipher, error) {
	if len(key) != keyLength {
		return nil, apperr.Newf(apperr.InvalidInput, "encryption key must be %d bytes, got %d", keyLength, len(key))
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, "cipher init failed", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, "cipher init failed", err)
	}
	return &Cipher{aead: aead}, nil
}

// Encrypt seals plaintext under a fresh random nonce. The nonce is generated
// from crypto/rand on every call and is never reused for this key.
func (c *Cipher) Encrypt(plaintext string) (string, error) {
	if plaintext == "" {
		return "", apperr.New(apperr.InvalidInput, "plaintext must be a non-empty string")
	}

	nonce := make([]byte, nonceLength)
	if _, err := rand.Read(nonce); err != nil {
		return "", apperr.Wrap(apperr.Internal, "nonce generation failed", err)
	}

	// Seal returns ciphertext||tag; the stored layout is nonce||tag||ciphertext.
	sealed := c.aead.Seal(nil, nonce, []byte(plaintext), nil)
	ct := sealed[:len(sealed)-tagLength]
	tag := sealed[len(sealed)-tagLength:]

	blob := make([]byte, 0, nonceLength+tagLength+len(ct))
	blob = append(blob, nonce...)
	blob = append(blob, tag...)
	blob = append(blob, ct...)

	return base64.StdEncoding.EncodeToString(blob), nil
}

// Decrypt opens a blob produced by Encrypt. Malformed, truncated or tampered
// input fails with DecryptionFailed; garbage is never returned.
func (c *Cipher) Decrypt(blob string) (string, error) {
	if blob == "" {
		return "", apperr.New(apperr.DecryptionFailed, "encrypted data must be a non-empty string")
	}

	data, err := base64.StdEncoding.DecodeString(blob)
	if err != nil {
		return "", apperr.Wrap(apperr.DecryptionFailed, "invalid encrypted data encoding", err)
	}
	if len(data) < nonceLength+tagLength {
		return "", apperr.New(apperr.DecryptionFailed, "invalid encrypted data format")
	}

	nonce := data[:nonceLength]
	tag := data[nonceLength : nonceLength+tagLength]
	ct := data[nonceLength+tagLength:]

	sealed := make([]byte, 0, len(ct)+tagLength)
	sealed = append(sealed, ct...)
	sealed = append(sealed, tag...)

	plaintext, err := c.aead.Open(nil, nonce, sealed, nil)
	if err != nil {
		return "", apperr.Wrap(apperr.DecryptionFailed, "authentication failed", err)
	}
	return string(plaintext), nil
}

// GenerateKey returns a fresh random 256-bit key, hex encoded for config use.
func GenerateKey() (string, error) {
	key := make([]byte, keyLength)
	if _, err := rand.Read(key); err != nil {
		return "", apperr.Wrap(apperr.Internal, "key generation failed", err)
	}
	return hex.EncodeToString(key), nil
}
