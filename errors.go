package authcore

import (
	"errors"
	"net/http"
)

var (
	// ErrUnauthorized is an exported constant or variable used by the authentication engine.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrInvalidCredentials is an exported constant or variable used by the authentication engine.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrUserNotFound is an exported constant or variable used by the authentication engine.
	ErrUserNotFound = errors.New("user not found")
	// ErrAccountNotFound is an exported constant or variable used by the authentication engine.
	ErrAccountNotFound = errors.New("account not found")
	// ErrAccountUnverified is an exported constant or variable used by the authentication engine.
	ErrAccountUnverified = errors.New("account unverified")
	// ErrTokenInvalid is an exported constant or variable used by the authentication engine.
	ErrTokenInvalid = errors.New("invalid token")
	// ErrRefreshInvalid is an exported constant or variable used by the authentication engine.
	ErrRefreshInvalid = errors.New("invalid refresh token")
	// ErrRefreshTimeout is an exported constant or variable used by the authentication engine.
	ErrRefreshTimeout = errors.New("refresh coordination timeout")
	// ErrVerificationInvalid is an exported constant or variable used by the authentication engine.
	ErrVerificationInvalid = errors.New("verification challenge invalid")
	// ErrTOTPInvalid is an exported constant or variable used by the authentication engine.
	ErrTOTPInvalid = errors.New("invalid totp code")
	// ErrStoreUnavailable is an exported constant or variable used by the authentication engine.
	ErrStoreUnavailable = errors.New("token store unavailable")
	// ErrMissingSigningSecret is an exported constant or variable used by the authentication engine.
	ErrMissingSigningSecret = errors.New("signing secret is required")
	// ErrMissingEncryptionKey is an exported constant or variable used by the authentication engine.
	ErrMissingEncryptionKey = errors.New("encryption key is required")
	// ErrEngineNotReady is an exported constant or variable used by the authentication engine.
	ErrEngineNotReady = errors.New("engine not initialized")
)

// ErrorKind defines a public type used by authcore APIs.
//
// ErrorKind buckets the sentinel errors into transport-agnostic categories
// so callers can map failures without matching every sentinel themselves.
type ErrorKind int

const (
	// KindInternal is an exported constant or variable used by the authentication engine.
	KindInternal ErrorKind = iota
	// KindUnauthorized is an exported constant or variable used by the authentication engine.
	KindUnauthorized
	// KindNotFound is an exported constant or variable used by the authentication engine.
	KindNotFound
	// KindForbidden is an exported constant or variable used by the authentication engine.
	KindForbidden
	// KindBadRequest is an exported constant or variable used by the authentication engine.
	KindBadRequest
	// KindUnavailable is an exported constant or variable used by the authentication engine.
	KindUnavailable
	// KindConfiguration is an exported constant or variable used by the authentication engine.
	KindConfiguration
)

// Kind describes the kind operation and its observable behavior.
//
// Kind classifies err against the package sentinels using errors.Is, so
// wrapped errors classify the same as the sentinel they wrap. Unknown
// errors classify as KindInternal, as does ErrRefreshTimeout: a
// coordination timeout is a server-side fault, not a caller mistake.
func Kind(err error) ErrorKind {
	switch {
	case err == nil:
		return KindInternal
	case errors.Is(err, ErrInvalidCredentials),
		errors.Is(err, ErrUnauthorized),
		errors.Is(err, ErrTokenInvalid),
		errors.Is(err, ErrRefreshInvalid),
		errors.Is(err, ErrTOTPInvalid):
		return KindUnauthorized
	case errors.Is(err, ErrUserNotFound), errors.Is(err, ErrAccountNotFound):
		return KindNotFound
	case errors.Is(err, ErrAccountUnverified):
		return KindForbidden
	case errors.Is(err, ErrVerificationInvalid):
		// A missing or mismatched verification session is a malformed
		// request, not an authentication failure.
		return KindBadRequest
	case errors.Is(err, ErrStoreUnavailable):
		return KindUnavailable
	case errors.Is(err, ErrMissingSigningSecret),
		errors.Is(err, ErrMissingEncryptionKey),
		errors.Is(err, ErrEngineNotReady):
		return KindConfiguration
	default:
		return KindInternal
	}
}

// HTTPStatus describes the httpstatus operation and its observable behavior.
//
// HTTPStatus maps the kind onto the conventional HTTP status code.
func (k ErrorKind) HTTPStatus() int {
	switch k {
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindNotFound:
		return http.StatusNotFound
	case KindForbidden:
		return http.StatusForbidden
	case KindBadRequest:
		return http.StatusBadRequest
	case KindUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
