package flows

import (
	"context"
	"time"

	"github.com/MrEthical07/authcore/internal/keys"
	"github.com/MrEthical07/authcore/kv"
)

// LoginFailureKind classifies login flow failures for root-level mapping.
type LoginFailureKind int

const (
	LoginFailureNone LoginFailureKind = iota
	LoginFailureUserNotFound
	LoginFailureAccountNotFound
	LoginFailureUnverified
	LoginFailureBadPassword
	LoginFailureProvider
	LoginFailureIssue
	LoginFailurePersist
)

// LoginResult carries either the issued bundle or failure metadata.
type LoginResult struct {
	Failure LoginFailureKind
	Err     error
	UserID  string
	Bundle  *Bundle
}

// LoginDeps captures login flow dependencies.
type LoginDeps struct {
	Store kv.Store

	FindUserByEmail func(ctx context.Context, email string) (*UserRecord, *AccountRecord, error)
	VerifyPassword  func(plaintext, hash string) (bool, error)
	IssueAccess     func(u *UserRecord) (token string, expiresAt int64, err error)
	NewRefreshToken func() (string, error)

	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

// RunLogin authenticates the credentials and issues a fresh token pair.
// Both store entries are written before the bundle is returned, so a
// refresh immediately after login never races the login's own writes.
func RunLogin(ctx context.Context, email, plaintext string, deps LoginDeps) LoginResult {
	user, account, err := deps.FindUserByEmail(ctx, email)
	if err != nil {
		return LoginResult{Failure: LoginFailureProvider, Err: err}
	}
	if user == nil {
		return LoginResult{Failure: LoginFailureUserNotFound}
	}
	if account == nil {
		return LoginResult{Failure: LoginFailureAccountNotFound, UserID: user.ID}
	}
	if !account.Verified {
		return LoginResult{Failure: LoginFailureUnverified, UserID: user.ID}
	}

	ok, err := deps.VerifyPassword(plaintext, account.PasswordHash)
	if err != nil {
		return LoginResult{Failure: LoginFailureProvider, Err: err, UserID: user.ID}
	}
	if !ok {
		return LoginResult{Failure: LoginFailureBadPassword, UserID: user.ID}
	}

	access, expiresAt, err := deps.IssueAccess(user)
	if err != nil {
		return LoginResult{Failure: LoginFailureIssue, Err: err, UserID: user.ID}
	}
	refresh, err := deps.NewRefreshToken()
	if err != nil {
		return LoginResult{Failure: LoginFailureIssue, Err: err, UserID: user.ID}
	}

	if err := deps.Store.Set(ctx, keys.AccessToken(user.ID, access), access, deps.AccessTTL); err != nil {
		return LoginResult{Failure: LoginFailurePersist, Err: err, UserID: user.ID}
	}
	if err := deps.Store.Set(ctx, keys.RefreshToken(user.ID, refresh), user.ID, deps.RefreshTTL); err != nil {
		return LoginResult{Failure: LoginFailurePersist, Err: err, UserID: user.ID}
	}

	return LoginResult{
		UserID: user.ID,
		Bundle: &Bundle{
			User:                 *user,
			AccessToken:          access,
			RefreshToken:         refresh,
			AccessTokenExpiresAt: expiresAt,
		},
	}
}
