package authcore

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/MrEthical07/authcore/internal"
	"github.com/MrEthical07/authcore/internal/audit"
	"github.com/MrEthical07/authcore/internal/flows"
	"github.com/MrEthical07/authcore/jwt"
	"github.com/MrEthical07/authcore/kv"
	"github.com/MrEthical07/authcore/password"
	"github.com/MrEthical07/authcore/secrets"
)

// Builder defines a public type used by authcore APIs.
//
// Builder instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Builder struct {
	config Config
	redis  redis.UniversalClient
	store  kv.Store

	userProvider UserProvider
	auditSink    AuditSink
	logger       *zap.Logger

	built bool
}

// New describes the new operation and its observable behavior.
//
// New may return an error when input validation, dependency calls, or security checks fail.
// New does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func New() *Builder {
	return &Builder{
		config: DefaultConfig(),
	}
}

// WithConfig describes the withconfig operation and its observable behavior.
//
// WithConfig may return an error when input validation, dependency calls, or security checks fail.
// WithConfig does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithRedis describes the withredis operation and its observable behavior.
//
// WithRedis may return an error when input validation, dependency calls, or security checks fail.
// WithRedis does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithRedis(client redis.UniversalClient) *Builder {
	b.redis = client
	return b
}

// WithStore overrides the token store. Takes precedence over WithRedis;
// intended for tests and alternative backends.
func (b *Builder) WithStore(store kv.Store) *Builder {
	b.store = store
	return b
}

// WithUserProvider describes the withuserprovider operation and its observable behavior.
//
// WithUserProvider may return an error when input validation, dependency calls, or security checks fail.
// WithUserProvider does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithUserProvider(up UserProvider) *Builder {
	b.userProvider = up
	return b
}

// WithAuditSink describes the withauditsink operation and its observable behavior.
//
// WithAuditSink may return an error when input validation, dependency calls, or security checks fail.
// WithAuditSink does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	return b
}

// WithLogger describes the withlogger operation and its observable behavior.
//
// WithLogger may return an error when input validation, dependency calls, or security checks fail.
// WithLogger does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithLogger(logger *zap.Logger) *Builder {
	b.logger = logger
	return b
}

// WithMetricsEnabled describes the withmetricsenabled operation and its observable behavior.
//
// WithMetricsEnabled may return an error when input validation, dependency calls, or security checks fail.
// WithMetricsEnabled does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

// WithLatencyHistograms describes the withlatencyhistograms operation and its observable behavior.
//
// WithLatencyHistograms may return an error when input validation, dependency calls, or security checks fail.
// WithLatencyHistograms does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithLatencyHistograms(enabled bool) *Builder {
	b.config.Metrics.EnableLatencyHistograms = enabled
	return b
}

// Build describes the build operation and its observable behavior.
//
// Build may return an error when input validation, dependency calls, or security checks fail.
// Build does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) Build() (*Engine, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}

	cfg := cloneConfig(b.config)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	store := b.store
	if store == nil {
		if b.redis == nil {
			return nil, errors.New("redis client or store required")
		}
		store = kv.NewRedisStore(b.redis)
	}

	if b.userProvider == nil {
		return nil, errors.New("user provider required")
	}

	logger := b.logger
	if logger == nil {
		logger = zap.NewNop()
	}

	accessTTL, err := jwt.ParseExpiry(cfg.Token.AccessExpiresIn)
	if err != nil {
		return nil, err
	}

	jm, err := jwt.NewManager(jwt.Config{
		SigningSecret: cloneBytes(cfg.Token.SigningSecret),
		AccessTTL:     accessTTL,
		Issuer:        cfg.Token.Issuer,
		Leeway:        cfg.Token.Leeway,
	})
	if err != nil {
		return nil, err
	}

	ph, err := password.NewHasher(password.Config{
		Memory:      cfg.Password.Memory,
		Time:        cfg.Password.Time,
		Parallelism: cfg.Password.Parallelism,
		SaltLength:  cfg.Password.SaltLength,
		KeyLength:   cfg.Password.KeyLength,
	})
	if err != nil {
		return nil, err
	}

	engine := &Engine{
		config:       cfg,
		store:        store,
		jwtManager:   jm,
		passwordHash: ph,
		totp:         newTOTPManager(cfg.TOTP),
		userProvider: b.userProvider,
		logger:       logger,
		accessTTL:    accessTTL,
	}
	engine.audit = audit.NewDispatcher(audit.Config{
		Enabled:    cfg.Audit.Enabled,
		BufferSize: cfg.Audit.BufferSize,
		DropIfFull: cfg.Audit.DropIfFull,
	}, b.auditSink)
	engine.metrics = NewMetrics(cfg.Metrics)
	engine.service = flows.New(engine.flowDeps())

	b.built = true

	return engine, nil
}

func (e *Engine) flowDeps() flows.Deps {
	encryptionKey := string(e.config.Secrets.EncryptionKey)

	findByID := func(ctx context.Context, id string) (*flows.UserRecord, *flows.AccountRecord, error) {
		user, account, err := e.userProvider.FindUserByID(ctx, id)
		return toRecords(user, account, err)
	}
	issueAccess := func(u *flows.UserRecord) (string, int64, error) {
		return e.jwtManager.Issue(u.ID, u.Email, u.Name, u.Role)
	}
	warn := func(msg string, args ...any) {
		e.logger.Sugar().Warnw(msg, args...)
	}

	return flows.Deps{
		Login: flows.LoginDeps{
			Store: e.store,
			FindUserByEmail: func(ctx context.Context, email string) (*flows.UserRecord, *flows.AccountRecord, error) {
				user, account, err := e.userProvider.FindUserByEmail(ctx, email)
				return toRecords(user, account, err)
			},
			VerifyPassword:  e.passwordHash.Verify,
			IssueAccess:     issueAccess,
			NewRefreshToken: secrets.OpaqueToken,
			AccessTTL:       e.accessTTL,
			RefreshTTL:      e.config.Token.RefreshTTL,
		},
		Logout: flows.LogoutDeps{
			Store: e.store,
		},
		Refresh: flows.RefreshDeps{
			Store:           e.store,
			FindUserByID:    findByID,
			IssueAccess:     issueAccess,
			NewRefreshToken: secrets.OpaqueToken,
			AccessTTL:       e.accessTTL,
			RefreshTTL:      e.config.Token.RefreshTTL,
			LockTTL:         e.config.Refresh.LockTTL,
			ResultTTL:       e.config.Refresh.ResultTTL,
			PollInterval:    e.config.Refresh.PollInterval,
			PollAttempts:    e.config.Refresh.PollAttempts,
			Now:             time.Now,
			Sleep:           flows.SleepCtx,
			Warn:            warn,
		},
		OTP: flows.OTPDeps{
			Store: e.store,
			NewOTP: func() (string, error) {
				return internal.NewOTP(e.config.OTP.Length)
			},
			NewVerificationID: internal.NewVerificationID,
			TTL:               e.config.OTP.TTL,
			MarkVerified: func(ctx context.Context, userID string) error {
				verified := true
				return e.userProvider.UpdateAccount(ctx, userID, AccountUpdate{Verified: &verified})
			},
		},
		TOTP: flows.TOTPDeps{
			FindUserByID:   findByID,
			GenerateSecret: e.totp.GenerateSecret,
			ProvisionURI:   e.totp.ProvisionURI,
			VerifyCode:     e.totp.VerifyCode,
			Encrypt: func(plaintext string) (string, error) {
				return secrets.Encrypt(plaintext, encryptionKey)
			},
			Decrypt: func(ciphertext string) (string, error) {
				return secrets.Decrypt(ciphertext, encryptionKey)
			},
			SaveSecret: func(ctx context.Context, userID, encrypted string) error {
				return e.userProvider.UpdateAccount(ctx, userID, AccountUpdate{TOTPSecret: &encrypted})
			},
			Now: time.Now,
		},
	}
}

func toRecords(user *User, account *Account, err error) (*flows.UserRecord, *flows.AccountRecord, error) {
	if err != nil || user == nil {
		return nil, nil, err
	}
	record := &flows.UserRecord{ID: user.ID, Email: user.Email, Name: user.Name, Role: user.Role}
	if account == nil {
		return record, nil, nil
	}
	return record, &flows.AccountRecord{
		PasswordHash: account.PasswordHash,
		Verified:     account.Verified,
		TOTPSecret:   account.TOTPSecret,
	}, nil
}
