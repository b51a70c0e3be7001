package config

import (
	"strings"
	"testing"
)

func base() *Config {
	return &Config{
		Environment: EnvDevelopment,
		HTTPPort:    8080,
		StoreDriver: "postgres",
	}
}

func TestValidateDevelopmentDefaults(t *testing.T) {
	cfg := base()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if cfg.EncryptionKey != defaultEncryptionKey {
		t.Fatal("development must fall back to the default key")
	}
	key, err := cfg.EncryptionKeyBytes()
	if err != nil || len(key) != 32 {
		t.Fatalf("EncryptionKeyBytes: len=%d err=%v", len(key), err)
	}
}

func TestValidateProductionRequirements(t *testing.T) {
	cases := map[string]func(*Config){
		"missing encryption key": func(c *Config) { c.EncryptionKey = "" },
		"missing dsn":            func(c *Config) { c.PostgresDSN = "" },
		"missing jwt secret":     func(c *Config) { c.JWTSecret = "" },
		"memory store":           func(c *Config) { c.StoreDriver = "memory" },
	}
	for name, mutate := range cases {
		cfg := base()
		cfg.Environment = EnvProduction
		cfg.PostgresDSN = "postgres://localhost/deskhub"
		cfg.EncryptionKey = strings.Repeat("ab", 32)
		cfg.JWTSecret = "secret"
		mutate(cfg)
		if err := cfg.Validate(); err == nil {
			t.Fatalf("%s: expected validation failure", name)
		}
	}
}

func TestValidateRejectsUnknownValues(t *testing.T) {
	cfg := base()
	cfg.Environment = "staging"
	if err := cfg.Validate(); err == nil {
		t.Fatal("unknown environment must fail")
	}

	cfg = base()
	cfg.StoreDriver = "sqlite"
	if err := cfg.Validate(); err == nil {
		t.Fatal("unknown store driver must fail")
	}
}

func TestEncryptionKeyBytesFormats(t *testing.T) {
	cfg := base()

	cfg.EncryptionKey = strings.Repeat("0f", 32) // 64 hex chars
	if key, err := cfg.EncryptionKeyBytes(); err != nil || len(key) != 32 {
		t.Fatalf("hex key: len=%d err=%v", len(key), err)
	}

	cfg.EncryptionKey = "AAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA=" // 44 chars, 32 bytes
	if key, err := cfg.EncryptionKeyBytes(); err != nil || len(key) != 32 {
		t.Fatalf("base64 key: len=%d err=%v", len(key), err)
	}

	cfg.EncryptionKey = "tooshort"
	if _, err := cfg.EncryptionKeyBytes(); err == nil {
		t.Fatal("short key must fail")
	}

	cfg.EncryptionKey = strings.Repeat("zz", 32)
	if _, err := cfg.EncryptionKeyBytes(); err == nil {
		t.Fatal("non-hex key must fail")
	}
}
