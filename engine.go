package authcore

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/MrEthical07/authcore/internal/audit"
	"github.com/MrEthical07/authcore/internal/flows"
	"github.com/MrEthical07/authcore/internal/keys"
	"github.com/MrEthical07/authcore/jwt"
	"github.com/MrEthical07/authcore/kv"
	"github.com/MrEthical07/authcore/password"
)

// Engine defines a public type used by authcore APIs.
//
// Engine instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Engine struct {
	config       Config
	store        kv.Store
	service      *flows.Service
	jwtManager   *jwt.Manager
	passwordHash *password.Hasher
	totp         *totpManager
	audit        *audit.Dispatcher
	metrics      *Metrics
	userProvider UserProvider
	logger       *zap.Logger
	accessTTL    time.Duration
}

// Close describes the close operation and its observable behavior.
//
// Close may return an error when input validation, dependency calls, or security checks fail.
// Close does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) Close() {
	if e == nil {
		return
	}
	if e.audit != nil {
		e.audit.Close()
	}
}

// AuditDropped describes the auditdropped operation and its observable behavior.
//
// AuditDropped may return an error when input validation, dependency calls, or security checks fail.
// AuditDropped does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) AuditDropped() uint64 {
	if e == nil || e.audit == nil {
		return 0
	}
	return e.audit.Dropped()
}

// MetricsSnapshot describes the metricssnapshot operation and its observable behavior.
//
// MetricsSnapshot may return an error when input validation, dependency calls, or security checks fail.
// MetricsSnapshot does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) MetricsSnapshot() MetricsSnapshot {
	if e == nil || e.metrics == nil {
		return MetricsSnapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}
	return e.metrics.Snapshot()
}

func (e *Engine) metricInc(id MetricID) {
	if e == nil || e.metrics == nil {
		return
	}
	e.metrics.Inc(id)
}

// Login describes the login operation and its observable behavior.
//
// Login may return an error when input validation, dependency calls, or security checks fail.
// Login does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) Login(ctx context.Context, email, plaintext string) (*TokenBundle, error) {
	if e == nil || e.service == nil {
		return nil, ErrEngineNotReady
	}
	if email == "" || plaintext == "" {
		e.metricInc(MetricLoginFailure)
		return nil, ErrInvalidCredentials
	}

	result := e.service.Login(ctx, email, plaintext)
	if result.Failure != flows.LoginFailureNone {
		err := e.mapLoginFailure(result)
		e.metricInc(MetricLoginFailure)
		e.emitAudit(auditEventLoginFailure, false, result.UserID, err, func() map[string]string {
			return map[string]string{"identifier": email}
		})
		return nil, err
	}

	e.metricInc(MetricLoginSuccess)
	e.emitAudit(auditEventLoginSuccess, true, result.UserID, nil, nil)
	e.logger.Debug("login succeeded", zap.String("userID", result.UserID))

	return toBundle(result.Bundle), nil
}

func (e *Engine) mapLoginFailure(result flows.LoginResult) error {
	switch result.Failure {
	case flows.LoginFailureUserNotFound:
		return ErrUserNotFound
	case flows.LoginFailureBadPassword:
		return ErrInvalidCredentials
	case flows.LoginFailureAccountNotFound:
		return ErrAccountNotFound
	case flows.LoginFailureUnverified:
		return ErrAccountUnverified
	case flows.LoginFailurePersist:
		e.logger.Error("login token persist failed", zap.String("userID", result.UserID), zap.Error(result.Err))
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, result.Err)
	default:
		e.logger.Error("login failed", zap.String("userID", result.UserID), zap.Error(result.Err))
		return result.Err
	}
}

// Refresh describes the refresh operation and its observable behavior.
//
// Refresh rotates refreshToken into a fresh pair. Duplicate retries of the
// same token inside the idempotency window receive the identical bundle.
// Refresh may return an error when input validation, dependency calls, or security checks fail.
// Refresh does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) Refresh(ctx context.Context, userID, refreshToken, accessToken string) (*TokenBundle, error) {
	if e == nil || e.service == nil {
		return nil, ErrEngineNotReady
	}
	if userID == "" || refreshToken == "" {
		e.metricInc(MetricRefreshFailure)
		return nil, ErrRefreshInvalid
	}

	start := time.Now()
	result := e.service.Refresh(ctx, userID, refreshToken, accessToken)
	if e.metrics.LatencyEnabled() {
		e.metrics.Observe(MetricRefreshLatency, time.Since(start))
	}
	if result.LockContended {
		e.metricInc(MetricRefreshLockContended)
	}

	if result.Failure != flows.RefreshFailureNone {
		err := e.mapRefreshFailure(userID, result)
		e.metricInc(MetricRefreshFailure)
		if result.Failure == flows.RefreshFailureTimeout {
			e.metricInc(MetricRefreshTimeout)
			e.emitAudit(auditEventRefreshTimeout, false, userID, err, nil)
		} else {
			e.emitAudit(auditEventRefreshInvalid, false, userID, err, nil)
		}
		return nil, err
	}

	if result.IdempotentHit {
		e.metricInc(MetricRefreshIdempotentHit)
	}
	e.metricInc(MetricRefreshSuccess)
	e.emitAudit(auditEventRefreshSuccess, true, userID, nil, func() map[string]string {
		if !result.IdempotentHit {
			return nil
		}
		return map[string]string{"idempotent": "true"}
	})
	e.logger.Debug("refresh succeeded",
		zap.String("userID", userID),
		zap.Bool("idempotentHit", result.IdempotentHit),
		zap.Bool("lockContended", result.LockContended))

	return toBundle(result.Bundle), nil
}

func (e *Engine) mapRefreshFailure(userID string, result flows.RefreshResult) error {
	switch result.Failure {
	case flows.RefreshFailureTokenInvalid:
		return ErrRefreshInvalid
	case flows.RefreshFailureUserVanished:
		// The consumed token pointed at a principal that no longer exists.
		// That is a server-side consistency fault, not a lookup miss.
		e.logger.Error("refresh principal vanished", zap.String("userID", userID))
		return fmt.Errorf("refresh: principal vanished during rotation")
	case flows.RefreshFailureTimeout:
		e.logger.Warn("refresh coordination timed out", zap.String("userID", userID))
		return ErrRefreshTimeout
	case flows.RefreshFailureCanceled:
		return result.Err
	case flows.RefreshFailureStore, flows.RefreshFailurePersist:
		e.logger.Error("refresh store failure", zap.String("userID", userID), zap.Error(result.Err))
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, result.Err)
	default:
		e.logger.Error("refresh failed", zap.String("userID", userID), zap.Error(result.Err))
		return result.Err
	}
}

// Logout describes the logout operation and its observable behavior.
//
// Logout revokes the given token pair. Idempotent: unknown or expired
// tokens are not an error.
// Logout does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) Logout(ctx context.Context, userID, accessToken, refreshToken string) error {
	if e == nil || e.service == nil {
		return ErrEngineNotReady
	}
	if userID == "" {
		return ErrUnauthorized
	}

	if err := e.service.Logout(ctx, userID, accessToken, refreshToken); err != nil {
		e.logger.Error("logout failed", zap.String("userID", userID), zap.Error(err))
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	e.metricInc(MetricLogout)
	e.emitAudit(auditEventLogout, true, userID, nil, nil)
	return nil
}

// LogoutAll describes the logoutall operation and its observable behavior.
//
// LogoutAll revokes every token the user holds, across all devices.
// LogoutAll does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) LogoutAll(ctx context.Context, userID string) error {
	if e == nil || e.service == nil {
		return ErrEngineNotReady
	}
	if userID == "" {
		return ErrUnauthorized
	}

	if err := e.service.LogoutAll(ctx, userID); err != nil {
		e.logger.Error("logout all failed", zap.String("userID", userID), zap.Error(err))
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	e.metricInc(MetricLogoutAll)
	e.emitAudit(auditEventLogoutAll, true, userID, nil, nil)
	return nil
}

// ValidateAccess describes the validateaccess operation and its observable behavior.
//
// ValidateAccess verifies the token signature and expiry, then confirms the
// token is still live in the store, so revocation by logout takes effect
// before the JWT itself expires.
// ValidateAccess does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) ValidateAccess(ctx context.Context, token string) (*jwt.AccessClaims, error) {
	if e == nil || e.jwtManager == nil {
		return nil, ErrEngineNotReady
	}
	if token == "" {
		e.metricInc(MetricValidateFailure)
		return nil, ErrTokenInvalid
	}

	claims, err := e.jwtManager.Parse(token)
	if err != nil {
		e.metricInc(MetricValidateFailure)
		e.emitAudit(auditEventValidateFailure, false, "", ErrTokenInvalid, nil)
		return nil, ErrTokenInvalid
	}

	n, err := e.store.Exists(ctx, keys.AccessToken(claims.UserID, token))
	if err != nil {
		e.logger.Error("validate store failure", zap.String("userID", claims.UserID), zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	if n == 0 {
		e.metricInc(MetricValidateFailure)
		e.emitAudit(auditEventValidateFailure, false, claims.UserID, ErrUnauthorized, nil)
		return nil, ErrUnauthorized
	}

	e.metricInc(MetricValidateSuccess)
	return claims, nil
}
