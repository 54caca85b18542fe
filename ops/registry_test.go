package ops

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	authcore "github.com/MrEthical07/authcore"
	"github.com/MrEthical07/authcore/password"
)

const (
	testEmail    = "alice@example.com"
	testPassword = "correct-horse"
)

type memRecord struct {
	user    authcore.User
	account authcore.Account
}

type memProvider struct {
	mu      sync.RWMutex
	byID    map[string]*memRecord
	byEmail map[string]string
}

func newMemProvider() *memProvider {
	return &memProvider{
		byID:    make(map[string]*memRecord),
		byEmail: make(map[string]string),
	}
}

func (p *memProvider) Put(u authcore.User, a authcore.Account) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.byID[u.ID] = &memRecord{user: u, account: a}
	p.byEmail[u.Email] = u.ID
}

func (p *memProvider) FindUserByEmail(_ context.Context, email string) (*authcore.User, *authcore.Account, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	id, ok := p.byEmail[email]
	if !ok {
		return nil, nil, nil
	}
	return p.find(id)
}

func (p *memProvider) FindUserByID(_ context.Context, id string) (*authcore.User, *authcore.Account, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.find(id)
}

func (p *memProvider) find(id string) (*authcore.User, *authcore.Account, error) {
	rec, ok := p.byID[id]
	if !ok {
		return nil, nil, nil
	}
	user := rec.user
	account := rec.account
	return &user, &account, nil
}

func (p *memProvider) UpdateAccount(_ context.Context, userID string, update authcore.AccountUpdate) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	rec, ok := p.byID[userID]
	if !ok {
		return authcore.ErrAccountNotFound
	}
	if update.Verified != nil {
		rec.account.Verified = *update.Verified
	}
	if update.TOTPSecret != nil {
		rec.account.TOTPSecret = *update.TOTPSecret
	}
	return nil
}

func newTestRegistry(t *testing.T) *Registry {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis start failed: %v", err)
	}
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	cfg := authcore.DefaultConfig()
	cfg.Token.SigningSecret = []byte("registry-test-signing-secret-012")
	cfg.Secrets.EncryptionKey = []byte("registry-test-encryption-key-012")
	cfg.Password.Memory = 8 * 1024
	cfg.Password.Time = 1
	cfg.Password.Parallelism = 1

	hasher, err := password.NewHasher(password.Config{
		Memory:      cfg.Password.Memory,
		Time:        cfg.Password.Time,
		Parallelism: cfg.Password.Parallelism,
		SaltLength:  cfg.Password.SaltLength,
		KeyLength:   cfg.Password.KeyLength,
	})
	if err != nil {
		t.Fatalf("hasher init failed: %v", err)
	}
	hash, err := hasher.Hash(testPassword)
	if err != nil {
		t.Fatalf("hash failed: %v", err)
	}

	provider := newMemProvider()
	provider.Put(
		authcore.User{ID: "user-1", Email: testEmail, Name: "Alice", Role: "admin"},
		authcore.Account{PasswordHash: hash, Verified: true},
	)

	engine, err := authcore.New().
		WithConfig(cfg).
		WithRedis(client).
		WithUserProvider(provider).
		Build()
	if err != nil {
		t.Fatalf("engine build failed: %v", err)
	}
	t.Cleanup(engine.Close)

	registry, err := NewRegistry(engine)
	if err != nil {
		t.Fatalf("registry init failed: %v", err)
	}
	return registry
}

func loginBundle(t *testing.T, registry *Registry) *authcore.TokenBundle {
	t.Helper()

	result, err := registry.Invoke(context.Background(), "login", "",
		json.RawMessage(`{"email":"alice@example.com","password":"correct-horse"}`))
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	bundle, ok := result.(*authcore.TokenBundle)
	if !ok {
		t.Fatalf("unexpected result type %T", result)
	}
	return bundle
}

func TestInvokeUnknownOperation(t *testing.T) {
	registry := newTestRegistry(t)

	_, err := registry.Invoke(context.Background(), "nosuch", "", json.RawMessage(`{}`))
	if !errors.Is(err, ErrUnknownOperation) {
		t.Fatalf("expected ErrUnknownOperation, got %v", err)
	}
	if got := HTTPStatus(err); got != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", got)
	}
}

func TestInvokeLogin(t *testing.T) {
	registry := newTestRegistry(t)

	bundle := loginBundle(t, registry)
	if bundle.AccessToken == "" || bundle.RefreshToken == "" {
		t.Fatalf("incomplete bundle: %+v", bundle)
	}
	if bundle.User.Email != testEmail {
		t.Fatalf("user mismatch: %+v", bundle.User)
	}
}

func TestInvokeLoginInputValidation(t *testing.T) {
	registry := newTestRegistry(t)
	ctx := context.Background()

	cases := []string{
		``,
		`{not json`,
		`{"email":"no-at-sign","password":"pw"}`,
		`{"email":"a@b.c","password":""}`,
		`{"email":"a@b.c","password":"pw","extra":true}`,
	}
	for _, input := range cases {
		_, err := registry.Invoke(ctx, "login", "", json.RawMessage(input))
		if !errors.Is(err, ErrInvalidInput) {
			t.Fatalf("input %q: expected ErrInvalidInput, got %v", input, err)
		}
		if got := HTTPStatus(err); got != http.StatusBadRequest {
			t.Fatalf("input %q: expected 400, got %d", input, got)
		}
	}
}

func TestInvokeLoginBadCredentials(t *testing.T) {
	registry := newTestRegistry(t)

	_, err := registry.Invoke(context.Background(), "login", "",
		json.RawMessage(`{"email":"alice@example.com","password":"wrong"}`))
	if !errors.Is(err, authcore.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if got := HTTPStatus(err); got != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", got)
	}
}

func TestInvokeRefreshToken(t *testing.T) {
	registry := newTestRegistry(t)
	ctx := context.Background()

	bundle := loginBundle(t, registry)
	input, _ := json.Marshal(map[string]string{
		"userId":       bundle.User.ID,
		"refreshToken": bundle.RefreshToken,
		"accessToken":  bundle.AccessToken,
	})

	result, err := registry.Invoke(ctx, "refreshToken", "", json.RawMessage(input))
	if err != nil {
		t.Fatalf("refresh failed: %v", err)
	}
	rotated, ok := result.(*authcore.TokenBundle)
	if !ok {
		t.Fatalf("unexpected result type %T", result)
	}
	if rotated.RefreshToken == bundle.RefreshToken {
		t.Fatal("refresh did not rotate")
	}
}

func TestInvokeAuthRequiredWithoutToken(t *testing.T) {
	registry := newTestRegistry(t)
	ctx := context.Background()

	for _, name := range []string{"issueEmailOtp", "enrollTotp", "verifyTotp"} {
		_, err := registry.Invoke(ctx, name, "", json.RawMessage(`{}`))
		if err == nil {
			t.Fatalf("%s: expected auth failure", name)
		}
		if got := HTTPStatus(err); got != http.StatusUnauthorized {
			t.Fatalf("%s: expected 401, got %d", name, got)
		}
	}
}

func TestInvokeLogout(t *testing.T) {
	registry := newTestRegistry(t)
	ctx := context.Background()

	bundle := loginBundle(t, registry)
	input, _ := json.Marshal(map[string]any{
		"userId":       bundle.User.ID,
		"refreshToken": bundle.RefreshToken,
		"accessToken":  bundle.AccessToken,
	})

	// No bearer token: the tokens in the payload are the credential, so a
	// client whose access token expired can still revoke its refresh token.
	result, err := registry.Invoke(ctx, "logout", "", json.RawMessage(input))
	if err != nil {
		t.Fatalf("logout failed: %v", err)
	}
	status, ok := result.(statusResult)
	if !ok || !status.Success {
		t.Fatalf("unexpected result: %#v", result)
	}

	// Both halves of the pair are revoked.
	_, err = registry.Invoke(ctx, "issueEmailOtp", bundle.AccessToken, nil)
	if !errors.Is(err, authcore.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized after logout, got %v", err)
	}
	refreshIn, _ := json.Marshal(map[string]string{
		"userId":       bundle.User.ID,
		"refreshToken": bundle.RefreshToken,
	})
	_, err = registry.Invoke(ctx, "refreshToken", "", json.RawMessage(refreshIn))
	if !errors.Is(err, authcore.ErrRefreshInvalid) {
		t.Fatalf("expected ErrRefreshInvalid after logout, got %v", err)
	}
}

func TestInvokeLogoutRequiresUserID(t *testing.T) {
	registry := newTestRegistry(t)

	_, err := registry.Invoke(context.Background(), "logout", "", json.RawMessage(`{"refreshToken":"r"}`))
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestInvokeLogoutAll(t *testing.T) {
	registry := newTestRegistry(t)
	ctx := context.Background()

	first := loginBundle(t, registry)
	second := loginBundle(t, registry)

	input, _ := json.Marshal(map[string]any{"userId": first.User.ID, "all": true})
	if _, err := registry.Invoke(ctx, "logout", "", json.RawMessage(input)); err != nil {
		t.Fatalf("logout all failed: %v", err)
	}

	for _, bundle := range []*authcore.TokenBundle{first, second} {
		if _, err := registry.Invoke(ctx, "issueEmailOtp", bundle.AccessToken, nil); !errors.Is(err, authcore.ErrUnauthorized) {
			t.Fatalf("expected ErrUnauthorized, got %v", err)
		}
	}
}

func TestInvokeEmailOTPRoundTrip(t *testing.T) {
	registry := newTestRegistry(t)
	ctx := context.Background()

	bundle := loginBundle(t, registry)

	result, err := registry.Invoke(ctx, "issueEmailOtp", bundle.AccessToken, nil)
	if err != nil {
		t.Fatalf("issue failed: %v", err)
	}
	challenge, ok := result.(*authcore.OTPChallenge)
	if !ok {
		t.Fatalf("unexpected result type %T", result)
	}

	// A mismatched code is the caller's mistake, surfaced as a 400.
	wrongIn, _ := json.Marshal(map[string]string{
		"verificationId": challenge.VerificationID,
		"otp":            "WRONG0",
	})
	_, err = registry.Invoke(ctx, "verifyEmailOtp", "", json.RawMessage(wrongIn))
	if !errors.Is(err, authcore.ErrVerificationInvalid) {
		t.Fatalf("expected ErrVerificationInvalid, got %v", err)
	}
	if got := HTTPStatus(err); got != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", got)
	}

	input, _ := json.Marshal(map[string]string{
		"verificationId": challenge.VerificationID,
		"otp":            challenge.OTP,
	})
	result, err = registry.Invoke(ctx, "verifyEmailOtp", "", json.RawMessage(input))
	if err != nil {
		t.Fatalf("verify failed: %v", err)
	}
	if status, ok := result.(statusResult); !ok || !status.Success {
		t.Fatalf("unexpected result: %#v", result)
	}
}

func TestInvokeEnrollTotp(t *testing.T) {
	registry := newTestRegistry(t)
	ctx := context.Background()

	bundle := loginBundle(t, registry)

	result, err := registry.Invoke(ctx, "enrollTotp", bundle.AccessToken, nil)
	if err != nil {
		t.Fatalf("enroll failed: %v", err)
	}
	enrollment, ok := result.(*authcore.TOTPEnrollment)
	if !ok {
		t.Fatalf("unexpected result type %T", result)
	}
	if enrollment.Secret == "" || enrollment.EnrollmentURI == "" {
		t.Fatalf("incomplete enrollment: %+v", enrollment)
	}

	// Wrong length always fails verification regardless of the current
	// code, and the outcome is a boolean, not an error.
	result, err = registry.Invoke(ctx, "verifyTotp", bundle.AccessToken, json.RawMessage(`{"code":"0000000000"}`))
	if err != nil {
		t.Fatalf("verify failed: %v", err)
	}
	if verified, ok := result.(bool); !ok || verified {
		t.Fatalf("expected false result, got %#v", result)
	}
}

func TestOperationsListsAll(t *testing.T) {
	registry := newTestRegistry(t)

	names := registry.Operations()
	want := map[string]bool{
		"login": true, "refreshToken": true, "logout": true,
		"issueEmailOtp": true, "verifyEmailOtp": true,
		"enrollTotp": true, "verifyTotp": true,
	}
	if len(names) != len(want) {
		t.Fatalf("expected %d operations, got %d: %v", len(want), len(names), names)
	}
	for _, name := range names {
		if !want[name] {
			t.Fatalf("unexpected operation %q", name)
		}
	}
}

func TestHTTPStatusMapping(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{nil, http.StatusOK},
		{ErrUnknownOperation, http.StatusNotFound},
		{ErrInvalidInput, http.StatusBadRequest},
		{authcore.ErrUnauthorized, http.StatusUnauthorized},
		{authcore.ErrInvalidCredentials, http.StatusUnauthorized},
		{authcore.ErrRefreshInvalid, http.StatusUnauthorized},
		{authcore.ErrUserNotFound, http.StatusNotFound},
		{authcore.ErrStoreUnavailable, http.StatusServiceUnavailable},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		if got := HTTPStatus(tc.err); got != tc.want {
			t.Fatalf("err %v: expected %d, got %d", tc.err, tc.want, got)
		}
	}
}

func TestNewRegistryRequiresEngine(t *testing.T) {
	if _, err := NewRegistry(nil); !errors.Is(err, authcore.ErrEngineNotReady) {
		t.Fatalf("expected ErrEngineNotReady, got %v", err)
	}
}
