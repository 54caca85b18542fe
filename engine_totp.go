package authcore

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/MrEthical07/authcore/internal/flows"
)

// EnrollTOTP describes the enrolltotp operation and its observable behavior.
//
// EnrollTOTP generates a fresh seed for the user, stores it encrypted, and
// returns the seed plus its otpauth:// URI. The seed is shown exactly once.
// EnrollTOTP may return an error when input validation, dependency calls, or security checks fail.
// EnrollTOTP does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) EnrollTOTP(ctx context.Context, userID, email string) (*TOTPEnrollment, error) {
	if e == nil || e.service == nil {
		return nil, ErrEngineNotReady
	}
	if userID == "" {
		return nil, ErrUnauthorized
	}

	result := e.service.EnrollTOTP(ctx, userID, email)
	switch result.Failure {
	case flows.TOTPFailureNone:
	case flows.TOTPFailureUserNotFound:
		return nil, ErrUserNotFound
	default:
		e.metricInc(MetricTOTPFailure)
		e.logger.Error("totp enroll failed", zap.String("userID", userID), zap.Error(result.Err))
		return nil, fmt.Errorf("totp enroll: %w", result.Err)
	}

	e.metricInc(MetricTOTPEnrolled)
	e.emitAudit(auditEventTOTPEnrolled, true, userID, nil, nil)

	return &TOTPEnrollment{
		Secret:        result.Enrollment.Secret,
		EnrollmentURI: result.Enrollment.EnrollmentURI,
	}, nil
}

// VerifyTOTP describes the verifytotp operation and its observable behavior.
//
// VerifyTOTP checks the code against the user's enrolled seed and reports
// the outcome as a boolean. Missing enrollment, an undecryptable seed, and
// a wrong code all report false with a nil error; nothing distinguishes
// the cases. Errors are reserved for provider failures.
// VerifyTOTP does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) VerifyTOTP(ctx context.Context, userID, code string) (bool, error) {
	if e == nil || e.service == nil {
		return false, ErrEngineNotReady
	}
	if userID == "" {
		return false, ErrUnauthorized
	}

	ok, failure, err := e.service.VerifyTOTP(ctx, userID, code)
	if failure == flows.TOTPFailureProvider {
		e.metricInc(MetricTOTPFailure)
		e.logger.Error("totp verify provider failure", zap.String("userID", userID), zap.Error(err))
		return false, fmt.Errorf("totp verify: %w", err)
	}
	if !ok {
		e.metricInc(MetricTOTPFailure)
		e.emitAudit(auditEventTOTPFailure, false, userID, ErrTOTPInvalid, nil)
		return false, nil
	}

	e.metricInc(MetricTOTPSuccess)
	e.emitAudit(auditEventTOTPSuccess, true, userID, nil, nil)
	return true, nil
}
