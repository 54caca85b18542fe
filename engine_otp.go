package authcore

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/MrEthical07/authcore/internal/flows"
)

// RequestEmailOTP describes the requestemailotp operation and its observable behavior.
//
// RequestEmailOTP opens a verification session for the user and returns the
// code plus session identifier. Delivery of the code is the host's job.
// RequestEmailOTP may return an error when input validation, dependency calls, or security checks fail.
// RequestEmailOTP does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) RequestEmailOTP(ctx context.Context, userID string) (*OTPChallenge, error) {
	if e == nil || e.service == nil {
		return nil, ErrEngineNotReady
	}
	if userID == "" {
		return nil, ErrUnauthorized
	}

	result := e.service.IssueEmailOTP(ctx, userID)
	if result.Failure != flows.OTPFailureNone {
		e.metricInc(MetricOTPFailure)
		e.logger.Error("email otp issue failed", zap.String("userID", userID), zap.Error(result.Err))
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, result.Err)
	}

	e.metricInc(MetricOTPIssued)
	e.emitAudit(auditEventOTPIssued, true, userID, nil, func() map[string]string {
		return map[string]string{"verificationId": result.Challenge.VerificationID}
	})

	return &OTPChallenge{
		OTP:            result.Challenge.OTP,
		VerificationID: result.Challenge.VerificationID,
	}, nil
}

// VerifyEmailOTP describes the verifyemailotp operation and its observable behavior.
//
// VerifyEmailOTP checks the code against the session and marks the account
// verified on success. Unknown sessions, expired sessions, and wrong codes
// all fail identically.
// VerifyEmailOTP may return an error when input validation, dependency calls, or security checks fail.
// VerifyEmailOTP does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) VerifyEmailOTP(ctx context.Context, verificationID, otp string) error {
	if e == nil || e.service == nil {
		return ErrEngineNotReady
	}
	if verificationID == "" || otp == "" {
		e.metricInc(MetricOTPFailure)
		return ErrVerificationInvalid
	}

	result := e.service.VerifyEmailOTP(ctx, verificationID, otp)
	switch result.Failure {
	case flows.OTPFailureNone:
		e.metricInc(MetricOTPVerified)
		e.emitAudit(auditEventOTPVerified, true, result.UserID, nil, nil)
		return nil
	case flows.OTPFailureInvalid:
		e.metricInc(MetricOTPFailure)
		e.emitAudit(auditEventOTPFailure, false, result.UserID, ErrVerificationInvalid, nil)
		return ErrVerificationInvalid
	case flows.OTPFailureUpdate:
		e.metricInc(MetricOTPFailure)
		e.logger.Error("email otp account update failed", zap.String("userID", result.UserID), zap.Error(result.Err))
		return result.Err
	default:
		e.metricInc(MetricOTPFailure)
		e.logger.Error("email otp store failure", zap.String("userID", result.UserID), zap.Error(result.Err))
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, result.Err)
	}
}
