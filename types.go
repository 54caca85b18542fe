package authcore

import (
	"context"

	"github.com/MrEthical07/authcore/internal/audit"
	"github.com/MrEthical07/authcore/internal/flows"
)

// User defines a public type used by authcore APIs.
//
// User is the public identity projection embedded in access claims and
// returned inside token bundles.
type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
	Role  string `json:"role"`
}

// Account defines a public type used by authcore APIs.
//
// Account carries credential material for a user. TOTPSecret is the
// encrypted seed as persisted; the engine never stores it in plaintext.
type Account struct {
	PasswordHash string
	Verified     bool
	TOTPSecret   string
}

// AccountUpdate defines a public type used by authcore APIs.
//
// Nil fields are left untouched by UpdateAccount.
type AccountUpdate struct {
	Verified   *bool
	TOTPSecret *string
}

// UserProvider defines a public type used by authcore APIs.
//
// UserProvider is the persistence boundary the host application implements.
// Find methods return (nil, nil, nil) when no user matches; an error means
// the backend failed, not that the user is absent.
type UserProvider interface {
	FindUserByEmail(ctx context.Context, email string) (*User, *Account, error)
	FindUserByID(ctx context.Context, id string) (*User, *Account, error)
	UpdateAccount(ctx context.Context, userID string, update AccountUpdate) error
}

// TokenBundle defines a public type used by authcore APIs.
//
// TokenBundle is what login and refresh return: the identity plus a fresh
// token pair. AccessTokenExpiresAt is Unix seconds.
type TokenBundle struct {
	User                 User   `json:"user"`
	AccessToken          string `json:"accessToken"`
	RefreshToken         string `json:"refreshToken"`
	AccessTokenExpiresAt int64  `json:"accessTokenExpiresAt"`
}

// OTPChallenge defines a public type used by authcore APIs.
//
// The OTP is returned so the host can deliver it out-of-band; it is never
// delivered to the end user by this library.
type OTPChallenge struct {
	OTP            string `json:"otp"`
	VerificationID string `json:"verificationId"`
}

// TOTPEnrollment defines a public type used by authcore APIs.
//
// Secret is the base32 seed shown once at enrollment; EnrollmentURI is the
// otpauth:// URI for QR rendering.
type TOTPEnrollment struct {
	Secret        string `json:"secret"`
	EnrollmentURI string `json:"enrollmentUri"`
}

// AuditEvent is an exported alias so hosts can implement sinks without
// importing internal packages.
type AuditEvent = audit.Event

// AuditSink is an exported alias so hosts can implement sinks without
// importing internal packages.
type AuditSink = audit.Sink

func toUser(u *flows.UserRecord) User {
	return User{ID: u.ID, Email: u.Email, Name: u.Name, Role: u.Role}
}

func toBundle(b *flows.Bundle) *TokenBundle {
	if b == nil {
		return nil
	}
	return &TokenBundle{
		User:                 User(b.User),
		AccessToken:          b.AccessToken,
		RefreshToken:         b.RefreshToken,
		AccessTokenExpiresAt: b.AccessTokenExpiresAt,
	}
}
