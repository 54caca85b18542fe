package authcore

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestKindClassification(t *testing.T) {
	cases := []struct {
		err  error
		want ErrorKind
	}{
		{nil, KindInternal},
		{errors.New("arbitrary"), KindInternal},
		{ErrInvalidCredentials, KindUnauthorized},
		{ErrUnauthorized, KindUnauthorized},
		{ErrTokenInvalid, KindUnauthorized},
		{ErrRefreshInvalid, KindUnauthorized},
		{ErrVerificationInvalid, KindBadRequest},
		{ErrTOTPInvalid, KindUnauthorized},
		{ErrUserNotFound, KindNotFound},
		{ErrAccountNotFound, KindNotFound},
		{ErrAccountUnverified, KindForbidden},
		{ErrRefreshTimeout, KindInternal},
		{ErrStoreUnavailable, KindUnavailable},
		{ErrMissingSigningSecret, KindConfiguration},
		{ErrMissingEncryptionKey, KindConfiguration},
		{ErrEngineNotReady, KindConfiguration},
	}
	for _, tc := range cases {
		if got := Kind(tc.err); got != tc.want {
			t.Fatalf("Kind(%v): got %d want %d", tc.err, got, tc.want)
		}
	}
}

func TestKindSeesThroughWrapping(t *testing.T) {
	wrapped := fmt.Errorf("%w: dial tcp: connection refused", ErrStoreUnavailable)
	if got := Kind(wrapped); got != KindUnavailable {
		t.Fatalf("wrapped error misclassified: %d", got)
	}
}

func TestHTTPStatusMapping(t *testing.T) {
	cases := []struct {
		kind ErrorKind
		want int
	}{
		{KindUnauthorized, http.StatusUnauthorized},
		{KindNotFound, http.StatusNotFound},
		{KindForbidden, http.StatusForbidden},
		{KindBadRequest, http.StatusBadRequest},
		{KindUnavailable, http.StatusServiceUnavailable},
		{KindInternal, http.StatusInternalServerError},
		{KindConfiguration, http.StatusInternalServerError},
	}
	for _, tc := range cases {
		if got := tc.kind.HTTPStatus(); got != tc.want {
			t.Fatalf("kind %d: got %d want %d", tc.kind, got, tc.want)
		}
	}
}
