package authcore

import (
	"errors"
	"testing"
	"time"
)

func validConfig() Config {
	cfg := DefaultConfig()
	cfg.Token.SigningSecret = []byte("config-test-signing-secret")
	cfg.Secrets.EncryptionKey = []byte("config-test-encryption-key")
	return cfg
}

func TestDefaultConfigValidatesWithSecrets(t *testing.T) {
	cfg := validConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
}

func TestValidateMissingSecrets(t *testing.T) {
	cfg := validConfig()
	cfg.Token.SigningSecret = nil
	if err := cfg.Validate(); !errors.Is(err, ErrMissingSigningSecret) {
		t.Fatalf("expected ErrMissingSigningSecret, got %v", err)
	}

	cfg = validConfig()
	cfg.Secrets.EncryptionKey = nil
	if err := cfg.Validate(); !errors.Is(err, ErrMissingEncryptionKey) {
		t.Fatalf("expected ErrMissingEncryptionKey, got %v", err)
	}
}

func TestValidateRefreshOrdering(t *testing.T) {
	// The result cache must expire before any waiter exhausts its poll
	// budget, and the lock must outlive the whole budget.
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"result ttl covers poll budget", func(c *Config) {
			c.Refresh.ResultTTL = 10 * time.Second
			c.Refresh.PollInterval = 100 * time.Millisecond
			c.Refresh.PollAttempts = 10 // budget 1s < ResultTTL
		}},
		{"poll budget exceeds lock ttl", func(c *Config) {
			c.Refresh.LockTTL = time.Second
			c.Refresh.ResultTTL = 500 * time.Millisecond
			c.Refresh.PollInterval = 500 * time.Millisecond
			c.Refresh.PollAttempts = 10 // budget 5s > LockTTL
		}},
		{"zero lock ttl", func(c *Config) { c.Refresh.LockTTL = 0 }},
		{"zero result ttl", func(c *Config) { c.Refresh.ResultTTL = 0 }},
		{"zero poll interval", func(c *Config) { c.Refresh.PollInterval = 0 }},
		{"zero poll attempts", func(c *Config) { c.Refresh.PollAttempts = 0 }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := validConfig()
			tc.mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Fatal("expected rejection")
			}
		})
	}
}

func TestValidateFieldBounds(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty access expiry", func(c *Config) { c.Token.AccessExpiresIn = "" }},
		{"zero refresh ttl", func(c *Config) { c.Token.RefreshTTL = 0 }},
		{"negative leeway", func(c *Config) { c.Token.Leeway = -time.Second }},
		{"zero otp ttl", func(c *Config) { c.OTP.TTL = 0 }},
		{"otp too short", func(c *Config) { c.OTP.Length = 3 }},
		{"otp too long", func(c *Config) { c.OTP.Length = 17 }},
		{"empty totp issuer", func(c *Config) { c.TOTP.Issuer = "" }},
		{"odd totp digits", func(c *Config) { c.TOTP.Digits = 7 }},
		{"short totp period", func(c *Config) { c.TOTP.Period = 10 }},
		{"negative totp skew", func(c *Config) { c.TOTP.Skew = -1 }},
		{"bad totp algorithm", func(c *Config) { c.TOTP.Algorithm = "MD5" }},
		{"weak password memory", func(c *Config) { c.Password.Memory = 1024 }},
		{"zero password time", func(c *Config) { c.Password.Time = 0 }},
		{"zero password parallelism", func(c *Config) { c.Password.Parallelism = 0 }},
		{"short salt", func(c *Config) { c.Password.SaltLength = 8 }},
		{"short key", func(c *Config) { c.Password.KeyLength = 8 }},
		{"audit enabled zero buffer", func(c *Config) {
			c.Audit.Enabled = true
			c.Audit.BufferSize = 0
		}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := validConfig()
			tc.mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Fatal("expected rejection")
			}
		})
	}
}

func TestValidateAcceptsEmptyTOTPAlgorithm(t *testing.T) {
	cfg := validConfig()
	cfg.TOTP.Algorithm = ""
	if err := cfg.Validate(); err != nil {
		t.Fatalf("empty algorithm must default to SHA1: %v", err)
	}
}

func TestCloneConfigDetachesSecrets(t *testing.T) {
	cfg := validConfig()
	clone := cloneConfig(cfg)

	cfg.Token.SigningSecret[0] ^= 0xff
	cfg.Secrets.EncryptionKey[0] ^= 0xff

	if clone.Token.SigningSecret[0] == cfg.Token.SigningSecret[0] {
		t.Fatal("signing secret aliased")
	}
	if clone.Secrets.EncryptionKey[0] == cfg.Secrets.EncryptionKey[0] {
		t.Fatal("encryption key aliased")
	}
}
