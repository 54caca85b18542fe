package authcore

import (
	"errors"
	"time"
)

const (
	auditEventLoginSuccess     = "login_success"
	auditEventLoginFailure     = "login_failure"
	auditEventRefreshSuccess   = "refresh_success"
	auditEventRefreshInvalid   = "refresh_invalid"
	auditEventRefreshTimeout   = "refresh_timeout"
	auditEventLogout           = "logout"
	auditEventLogoutAll        = "logout_all"
	auditEventOTPIssued        = "email_otp_issued"
	auditEventOTPVerified      = "email_otp_verified"
	auditEventOTPFailure       = "email_otp_failure"
	auditEventTOTPEnrolled     = "totp_enrolled"
	auditEventTOTPSuccess      = "totp_success"
	auditEventTOTPFailure      = "totp_failure"
	auditEventValidateFailure  = "validate_failure"
	auditEventStoreUnavailable = "store_unavailable"
)

// AuditErrorCode defines a public type used by authcore APIs.
//
// AuditErrorCode instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type AuditErrorCode string

const (
	auditErrUnauthorized       AuditErrorCode = "unauthorized"
	auditErrInvalidCredentials AuditErrorCode = "invalid_credentials"
	auditErrInvalidToken       AuditErrorCode = "invalid_token"
	auditErrUserNotFound       AuditErrorCode = "user_not_found"
	auditErrAccountNotFound    AuditErrorCode = "account_not_found"
	auditErrAccountUnverified  AuditErrorCode = "account_unverified"
	auditErrVerification       AuditErrorCode = "verification_invalid"
	auditErrTOTPInvalid        AuditErrorCode = "totp_invalid"
	auditErrTimeout            AuditErrorCode = "refresh_timeout"
	auditErrUnavailable        AuditErrorCode = "backend_unavailable"
	auditErrInternal           AuditErrorCode = "internal_error"
)

func (e *Engine) emitAudit(
	eventType string,
	success bool,
	userID string,
	err error,
	metadataBuilder func() map[string]string,
) {
	if e == nil || e.audit == nil {
		return
	}

	var metadata map[string]string
	if metadataBuilder != nil {
		metadata = metadataBuilder()
	}

	event := AuditEvent{
		Timestamp: time.Now().UTC(),
		EventType: eventType,
		UserID:    userID,
		Success:   success,
		Metadata:  metadata,
	}
	if code := auditErrorCode(err); code != "" {
		event.Error = string(code)
	}

	e.audit.Emit(event)
}

func auditErrorCode(err error) AuditErrorCode {
	if err == nil {
		return ""
	}

	switch {
	case errors.Is(err, ErrInvalidCredentials):
		return auditErrInvalidCredentials
	case errors.Is(err, ErrUnauthorized):
		return auditErrUnauthorized
	case errors.Is(err, ErrTokenInvalid), errors.Is(err, ErrRefreshInvalid):
		return auditErrInvalidToken
	case errors.Is(err, ErrUserNotFound):
		return auditErrUserNotFound
	case errors.Is(err, ErrAccountNotFound):
		return auditErrAccountNotFound
	case errors.Is(err, ErrAccountUnverified):
		return auditErrAccountUnverified
	case errors.Is(err, ErrVerificationInvalid):
		return auditErrVerification
	case errors.Is(err, ErrTOTPInvalid):
		return auditErrTOTPInvalid
	case errors.Is(err, ErrRefreshTimeout):
		return auditErrTimeout
	case errors.Is(err, ErrStoreUnavailable):
		return auditErrUnavailable
	default:
		return auditErrInternal
	}
}
