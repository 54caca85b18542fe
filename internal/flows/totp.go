package flows

import (
	"context"
	"time"
)

// TOTPFailureKind classifies TOTP flow failures for root-level mapping.
type TOTPFailureKind int

const (
	TOTPFailureNone TOTPFailureKind = iota
	TOTPFailureUserNotFound
	TOTPFailureProvider
	TOTPFailureCrypto
)

// TOTPEnrollment is returned by the enroll flow. Secret is the base32 seed
// shown to the user once; the persisted copy is encrypted.
type TOTPEnrollment struct {
	Secret        string `json:"secret"`
	EnrollmentURI string `json:"enrollmentUri"`
}

// TOTPResult carries enrollment output or failure metadata.
type TOTPResult struct {
	Failure    TOTPFailureKind
	Err        error
	Enrollment *TOTPEnrollment
}

// TOTPDeps captures second-factor flow dependencies. Encrypt/Decrypt are
// closures over the configured secret-encryption key.
type TOTPDeps struct {
	FindUserByID FindUser

	GenerateSecret func() (secretBase32 string, err error)
	ProvisionURI   func(secretBase32, account string) string
	VerifyCode     func(secretBase32, code string, now time.Time) (bool, error)

	Encrypt    func(plaintext string) (string, error)
	Decrypt    func(ciphertext string) (string, error)
	SaveSecret func(ctx context.Context, userID, encrypted string) error

	Now func() time.Time
}

// RunEnrollTOTP generates a fresh seed, persists it encrypted against the
// account, and returns the enrollment URI for QR rendering.
func RunEnrollTOTP(ctx context.Context, userID, email string, deps TOTPDeps) TOTPResult {
	user, _, err := deps.FindUserByID(ctx, userID)
	if err != nil {
		return TOTPResult{Failure: TOTPFailureProvider, Err: err}
	}
	if user == nil {
		return TOTPResult{Failure: TOTPFailureUserNotFound}
	}

	secret, err := deps.GenerateSecret()
	if err != nil {
		return TOTPResult{Failure: TOTPFailureCrypto, Err: err}
	}
	encrypted, err := deps.Encrypt(secret)
	if err != nil {
		return TOTPResult{Failure: TOTPFailureCrypto, Err: err}
	}
	if err := deps.SaveSecret(ctx, userID, encrypted); err != nil {
		return TOTPResult{Failure: TOTPFailureProvider, Err: err}
	}

	return TOTPResult{Enrollment: &TOTPEnrollment{
		Secret:        secret,
		EnrollmentURI: deps.ProvisionURI(secret, email),
	}}
}

// RunVerifyTOTP checks a code against the stored seed. Missing enrollment
// and undecryptable seeds report false, not an error: the caller learns
// nothing about why verification failed. The seed exists in plaintext only
// inside this call.
func RunVerifyTOTP(ctx context.Context, userID, code string, deps TOTPDeps) (bool, TOTPFailureKind, error) {
	_, account, err := deps.FindUserByID(ctx, userID)
	if err != nil {
		return false, TOTPFailureProvider, err
	}
	if account == nil || account.TOTPSecret == "" {
		return false, TOTPFailureNone, nil
	}

	secret, err := deps.Decrypt(account.TOTPSecret)
	if err != nil {
		return false, TOTPFailureNone, nil
	}

	ok, err := deps.VerifyCode(secret, code, deps.Now())
	if err != nil {
		return false, TOTPFailureNone, nil
	}
	return ok, TOTPFailureNone, nil
}
