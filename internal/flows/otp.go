package flows

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"time"

	"github.com/MrEthical07/authcore/internal/keys"
	"github.com/MrEthical07/authcore/kv"
)

// OTPFailureKind classifies email-OTP flow failures for root-level mapping.
type OTPFailureKind int

const (
	OTPFailureNone OTPFailureKind = iota
	// OTPFailureInvalid: unknown verification session, expired session, or
	// code mismatch. Deliberately indistinguishable to the caller.
	OTPFailureInvalid
	OTPFailureStore
	OTPFailureUpdate
)

// OTPChallenge is returned to the caller of the issue flow; the code
// itself is delivered out-of-band.
type OTPChallenge struct {
	OTP            string `json:"otp"`
	VerificationID string `json:"verificationId"`
}

// OTPResult carries either the challenge or failure metadata.
type OTPResult struct {
	Failure   OTPFailureKind
	Err       error
	UserID    string
	Challenge *OTPChallenge
}

// OTPDeps captures email verification flow dependencies.
type OTPDeps struct {
	Store kv.Store

	NewOTP            func() (string, error)
	NewVerificationID func() string
	TTL               time.Duration

	// MarkVerified flips the account's verified flag in the user store.
	MarkVerified func(ctx context.Context, userID string) error
}

// verifySessionRecord is the stored challenge payload.
type verifySessionRecord struct {
	OTP    string `json:"otp"`
	UserID string `json:"userId"`
}

// RunIssueEmailOTP creates a verification session for the user and returns
// the code plus the session identifier.
func RunIssueEmailOTP(ctx context.Context, userID string, deps OTPDeps) OTPResult {
	otp, err := deps.NewOTP()
	if err != nil {
		return OTPResult{Failure: OTPFailureStore, Err: err, UserID: userID}
	}
	verificationID := deps.NewVerificationID()

	record, err := json.Marshal(verifySessionRecord{OTP: otp, UserID: userID})
	if err != nil {
		return OTPResult{Failure: OTPFailureStore, Err: err, UserID: userID}
	}
	if err := deps.Store.Set(ctx, keys.VerifySession(verificationID), string(record), deps.TTL); err != nil {
		return OTPResult{Failure: OTPFailureStore, Err: err, UserID: userID}
	}

	return OTPResult{
		UserID:    userID,
		Challenge: &OTPChallenge{OTP: otp, VerificationID: verificationID},
	}
}

// RunVerifyEmailOTP checks the supplied code against the stored session,
// marks the account verified, and consumes the session. A session is
// consumed exactly once: only on success.
func RunVerifyEmailOTP(ctx context.Context, verificationID, suppliedOTP string, deps OTPDeps) OTPResult {
	key := keys.VerifySession(verificationID)

	raw, err := deps.Store.Get(ctx, key)
	if err != nil {
		if errors.Is(err, kv.ErrNotFound) {
			return OTPResult{Failure: OTPFailureInvalid}
		}
		return OTPResult{Failure: OTPFailureStore, Err: err}
	}

	var record verifySessionRecord
	if err := json.Unmarshal([]byte(raw), &record); err != nil {
		return OTPResult{Failure: OTPFailureInvalid}
	}

	if len(suppliedOTP) != len(record.OTP) ||
		subtle.ConstantTimeCompare([]byte(suppliedOTP), []byte(record.OTP)) != 1 {
		return OTPResult{Failure: OTPFailureInvalid, UserID: record.UserID}
	}

	if err := deps.MarkVerified(ctx, record.UserID); err != nil {
		return OTPResult{Failure: OTPFailureUpdate, Err: err, UserID: record.UserID}
	}
	if _, err := deps.Store.Del(ctx, key); err != nil {
		return OTPResult{Failure: OTPFailureStore, Err: err, UserID: record.UserID}
	}

	return OTPResult{UserID: record.UserID}
}
