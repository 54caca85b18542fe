package authcore

import (
	"errors"
	"strings"
	"time"
)

// Config defines a public type used by authcore APIs.
//
// Config instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Config struct {
	Token    TokenConfig
	Secrets  SecretsConfig
	Refresh  RefreshConfig
	OTP      OTPConfig
	TOTP     TOTPConfig
	Password PasswordConfig
	Audit    AuditConfig
	Metrics  MetricsConfig
}

/*
====================================
TOKEN CONFIG
====================================
*/

// TokenConfig defines a public type used by authcore APIs.
//
// TokenConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type TokenConfig struct {
	SigningSecret []byte
	// AccessExpiresIn is a duration spec with a trailing unit, e.g. "1h",
	// "30m", "7d". It drives both the JWT exp claim and the store TTL.
	AccessExpiresIn string
	RefreshTTL      time.Duration
	Issuer          string
	Leeway          time.Duration
}

/*
====================================
SECRETS CONFIG
====================================
*/

// SecretsConfig defines a public type used by authcore APIs.
//
// SecretsConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type SecretsConfig struct {
	// EncryptionKey is the secret behind at-rest encryption of TOTP seeds.
	// Any length is accepted; the cipher key is derived from it.
	EncryptionKey []byte
}

/*
====================================
REFRESH CONFIG
====================================
*/

// RefreshConfig defines a public type used by authcore APIs.
//
// RefreshConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type RefreshConfig struct {
	LockTTL      time.Duration
	ResultTTL    time.Duration
	PollInterval time.Duration
	PollAttempts int
}

// OTPConfig defines a public type used by authcore APIs.
//
// OTPConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type OTPConfig struct {
	TTL    time.Duration
	Length int
}

// TOTPConfig defines a public type used by authcore APIs.
//
// TOTPConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type TOTPConfig struct {
	Issuer    string
	Digits    int
	Period    int
	Skew      int
	Algorithm string
}

// PasswordConfig defines a public type used by authcore APIs.
//
// PasswordConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type PasswordConfig struct {
	Memory      uint32 // in KB
	Time        uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32
}

// AuditConfig defines a public type used by authcore APIs.
//
// AuditConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
}

// MetricsConfig defines a public type used by authcore APIs.
//
// MetricsConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type MetricsConfig struct {
	Enabled                 bool
	EnableLatencyHistograms bool
}

/*
====================================
DEFAULT CONFIG
====================================
*/

// DefaultConfig returns the baseline configuration. Callers set secrets and
// override what they need before Build.
func DefaultConfig() Config {
	return Config{
		Token: TokenConfig{
			AccessExpiresIn: "1h",
			RefreshTTL:      7 * 24 * time.Hour,
			Issuer:          "authcore",
			Leeway:          30 * time.Second,
		},
		Refresh: RefreshConfig{
			LockTTL:      10 * time.Second,
			ResultTTL:    5 * time.Second,
			PollInterval: 200 * time.Millisecond,
			PollAttempts: 30,
		},
		OTP: OTPConfig{
			TTL:    15 * time.Minute,
			Length: 6,
		},
		TOTP: TOTPConfig{
			Issuer:    "authcore",
			Digits:    6,
			Period:    30,
			Skew:      1,
			Algorithm: "SHA1",
		},
		Password: PasswordConfig{
			Memory:      65536,
			Time:        3,
			Parallelism: 2,
			SaltLength:  16,
			KeyLength:   32,
		},
		Audit: AuditConfig{
			Enabled:    false,
			BufferSize: 1024,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled:                 false,
			EnableLatencyHistograms: false,
		},
	}
}

func cloneConfig(cfg Config) Config {
	out := cfg
	out.Token.SigningSecret = cloneBytes(cfg.Token.SigningSecret)
	out.Secrets.EncryptionKey = cloneBytes(cfg.Secrets.EncryptionKey)
	return out
}

func cloneBytes(b []byte) []byte {
	if len(b) == 0 {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}

/*
====================================
VALIDATION
====================================
*/

// Validate describes the validate operation and its observable behavior.
//
// Validate may return an error when input validation, dependency calls, or security checks fail.
// Validate does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (c *Config) Validate() error {
	// Token
	if len(c.Token.SigningSecret) == 0 {
		return ErrMissingSigningSecret
	}
	if c.Token.AccessExpiresIn == "" {
		return errors.New("Token AccessExpiresIn must be set")
	}
	if c.Token.RefreshTTL <= 0 {
		return errors.New("Token RefreshTTL must be > 0")
	}
	if c.Token.Leeway < 0 {
		return errors.New("Token Leeway must be >= 0")
	}

	// Secrets
	if len(c.Secrets.EncryptionKey) == 0 {
		return ErrMissingEncryptionKey
	}

	// Refresh coordination. The result cache must outlive no waiter: a
	// waiter that gives up after its poll budget must never later be served
	// a stale cached result, and the lock TTL must cover the whole wait.
	if c.Refresh.LockTTL <= 0 {
		return errors.New("Refresh LockTTL must be > 0")
	}
	if c.Refresh.ResultTTL <= 0 {
		return errors.New("Refresh ResultTTL must be > 0")
	}
	if c.Refresh.PollInterval <= 0 {
		return errors.New("Refresh PollInterval must be > 0")
	}
	if c.Refresh.PollAttempts <= 0 {
		return errors.New("Refresh PollAttempts must be > 0")
	}
	pollBudget := c.Refresh.PollInterval * time.Duration(c.Refresh.PollAttempts)
	if c.Refresh.ResultTTL >= pollBudget {
		return errors.New("Refresh ResultTTL must be < PollInterval * PollAttempts")
	}
	if pollBudget > c.Refresh.LockTTL {
		return errors.New("Refresh PollInterval * PollAttempts must be <= LockTTL")
	}

	// OTP
	if c.OTP.TTL <= 0 {
		return errors.New("OTP TTL must be > 0")
	}
	if c.OTP.Length < 4 || c.OTP.Length > 16 {
		return errors.New("OTP Length must be between 4 and 16")
	}

	// TOTP
	if c.TOTP.Issuer == "" {
		return errors.New("TOTP Issuer must be set")
	}
	if c.TOTP.Digits != 6 && c.TOTP.Digits != 8 {
		return errors.New("TOTP Digits must be 6 or 8")
	}
	if c.TOTP.Period < 15 {
		return errors.New("TOTP Period must be >= 15 seconds")
	}
	if c.TOTP.Skew < 0 {
		return errors.New("TOTP Skew must be >= 0")
	}
	switch strings.ToUpper(c.TOTP.Algorithm) {
	case "", "SHA1", "SHA256", "SHA512":
		// valid (empty treated as SHA1)
	default:
		return errors.New("TOTP Algorithm must be SHA1, SHA256, or SHA512")
	}

	// Password
	if c.Password.Memory < 8*1024 {
		return errors.New("Password Memory must be >= 8192 KB")
	}
	if c.Password.Time < 1 {
		return errors.New("Password Time must be >= 1")
	}
	if c.Password.Parallelism < 1 {
		return errors.New("Password Parallelism must be >= 1")
	}
	if c.Password.SaltLength < 16 {
		return errors.New("Password SaltLength must be >= 16")
	}
	if c.Password.KeyLength < 16 {
		return errors.New("Password KeyLength must be >= 16")
	}

	// Audit
	if c.Audit.Enabled && c.Audit.BufferSize <= 0 {
		return errors.New("Audit BufferSize must be > 0 when audit is enabled")
	}

	return nil
}
