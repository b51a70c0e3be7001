package config

import (
	"encoding/base64"
	"encoding/hex"
	"fmt"

	"github.com/kelseyhightower/envconfig"
	"github.com/rs/zerolog/log"
)

// Environment represents different deployment environments.
type Environment string

const (
	EnvDevelopment Environment = "development"
	EnvProduction  Environment = "production"
)

// defaultEncryptionKey is the development-only fallback key (32 bytes hex).
// Validate rejects it outright in production.
const defaultEncryptionKey = "0123456789abcdef0123456789abcdef0123456789abcdef0123456789abcdef"

// Config holds the configuration for the dashboard service.
// Environment variables are parsed from the DESKHUB_ prefix,
// e.g. DESKHUB_HTTP_PORT, DESKHUB_POSTGRES_DSN.
type Config struct {
	Environment Environment `envconfig:"ENVIRONMENT" default:"development"`

	// HTTP Configuration
	HTTPPort int `envconfig:"HTTP_PORT" default:"8080"`

	// Store configuration. Driver is "postgres" or "memory"; memory is only
	// permitted in development.
	StoreDriver string `envconfig:"STORE_DRIVER" default:"postgres"`
	PostgresDSN string `envconfig:"POSTGRES_DSN" default:""`

	// EncryptionKey protects OAuth secrets at rest. 32 bytes, hex (64 chars)
	// or std base64 (44 chars) encoded.
	EncryptionKey string `envconfig:"ENCRYPTION_KEY" default:""`

	// Session token verification secret for the auth boundary.
	JWTSecret string `envconfig:"JWT_SECRET" default:""`

	// Google integration
	GoogleClientID     string `envconfig:"GOOGLE_CLIENT_ID" default:""`
	GoogleClientSecret string `envconfig:"GOOGLE_CLIENT_SECRET" default:""`
	// GoogleTokenURL and GoogleAPIEndpoint are overridable so tests and mock
	// providers can stand in for the real endpoints.
	GoogleTokenURL    string `envconfig:"GOOGLE_TOKEN_URL" default:"https://oauth2.googleapis.com/token"`
	GoogleAPIEndpoint string `envconfig:"GOOGLE_API_ENDPOINT" default:""`

	// Sync caps. Remote pages are bounded regardless of caller input.
	SyncMaxMessages int `envconfig:"SYNC_MAX_MESSAGES" default:"100"`
	SyncMaxEvents   int `envconfig:"SYNC_MAX_EVENTS" default:"250"`
}

// New creates a Config by parsing environment variables and validating it.
func New() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("DESKHUB", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process environment variables: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	log.Info().
		Str("environment", string(cfg.Environment)).
		Str("store_driver", cfg.StoreDriver).
		Int("http_port", cfg.HTTPPort).
		Bool("postgres_dsn_present", cfg.PostgresDSN != "").
		Bool("encryption_key_present", cfg.EncryptionKey != "").
		Msg("Configuration loaded")

	return &cfg, nil
}

// Validate applies the startup rules. Production hard-fails on any missing
// secret; development may fall back to the fixed insecure key.
func (c *Config) Validate() error {
	switch c.Environment {
	case EnvDevelopment, EnvProduction:
	default:
		return fmt.Errorf("unsupported ENVIRONMENT: %s", c.Environment)
	}

	switch c.StoreDriver {
	case "postgres":
		if c.PostgresDSN == "" && c.IsProduction() {
			return fmt.Errorf("POSTGRES_DSN is required in production")
		}
	case "memory":
		if c.IsProduction() {
			return fmt.Errorf("memory store is not permitted in production")
		}
	default:
		return fmt.Errorf("unsupported STORE_DRIVER: %s", c.StoreDriver)
	}

	if c.EncryptionKey == "" {
		if c.IsProduction() {
			return fmt.Errorf("ENCRYPTION_KEY is required in production")
		}
		log.Warn().Msg("Using default encryption key; set DESKHUB_ENCRYPTION_KEY outside development")
		c.EncryptionKey = defaultEncryptionKey
	}
	if _, err := c.EncryptionKeyBytes(); err != nil {
		return err
	}

	if c.JWTSecret == "" && c.IsProduction() {
		return fmt.Errorf("JWT_SECRET is required in production")
	}

	return nil
}

// EncryptionKeyBytes decodes the configured key and enforces the 32-byte length.
func (c *Config) EncryptionKeyBytes() ([]byte, error) {
	var (
		key []byte
		err error
	)
	switch len(c.EncryptionKey) {
	case 64:
		key, err = hex.DecodeString(c.EncryptionKey)
	case 44:
		key, err = base64.StdEncoding.DecodeString(c.EncryptionKey)
	default:
		return nil, fmt.Errorf("ENCRYPTION_KEY must be 32 bytes, hex or base64 encoded")
	}
	if err != nil {
		return nil, fmt.Errorf("invalid ENCRYPTION_KEY format: %w", err)
	}
	if len(key) != 32 {
		return nil, fmt.Errorf("ENCRYPTION_KEY must decode to exactly 32 bytes")
	}
	return key, nil
}

// IsProduction returns true if the environment is set to production.
func (c *Config) IsProduction() bool { return c.Environment == EnvProduction }

// GetHTTPAddr returns the HTTP server address.
func (c *Config) GetHTTPAddr() string { return fmt.Sprintf(":%d", c.HTTPPort) }
