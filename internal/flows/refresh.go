package flows

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/MrEthical07/authcore/internal/keys"
	"github.com/MrEthical07/authcore/kv"
)

// RefreshFailureKind classifies refresh flow failures for root-level mapping.
type RefreshFailureKind int

const (
	RefreshFailureNone RefreshFailureKind = iota
	// RefreshFailureTokenInvalid: the old refresh token did not exist —
	// already consumed by a non-duplicate rotation, expired, or forged.
	RefreshFailureTokenInvalid
	// RefreshFailureUserVanished: the token was valid but its principal is
	// gone from the user store.
	RefreshFailureUserVanished
	RefreshFailureIssue
	RefreshFailurePersist
	RefreshFailureStore
	RefreshFailureTimeout
	RefreshFailureCanceled
)

// RefreshResult carries either the rotated bundle or failure metadata.
type RefreshResult struct {
	Failure RefreshFailureKind
	Err     error
	Bundle  *Bundle

	// IdempotentHit is set when the bundle was served from the result cache
	// rather than produced by this call's own rotation.
	IdempotentHit bool
	// LockContended is set when this call found the rotation lock taken at
	// least once.
	LockContended bool
}

// RefreshDeps captures refresh coordinator dependencies.
type RefreshDeps struct {
	Store kv.Store

	FindUserByID    FindUser
	IssueAccess     func(u *UserRecord) (token string, expiresAt int64, err error)
	NewRefreshToken func() (string, error)

	AccessTTL  time.Duration
	RefreshTTL time.Duration

	LockTTL      time.Duration
	ResultTTL    time.Duration
	PollInterval time.Duration
	PollAttempts int

	Now   func() time.Time
	Sleep func(ctx context.Context, d time.Duration) error
	Warn  func(msg string, args ...any)
}

// cachedBundle is the result-cache payload. StoredAt (Unix milliseconds) is
// internal and stripped before the bundle is returned to callers.
type cachedBundle struct {
	Bundle
	StoredAt int64 `json:"storedAt"`
}

// RunRefresh rotates oldRefresh into a fresh token pair for userID,
// serialized per user by a TTL lock and made idempotent for duplicate
// retries by a short-lived result cache. oldAccess may be empty.
//
// States: result-cache fast path; lock acquisition (NX); double-check;
// rotation inside the critical section; bounded poll for non-holders.
func RunRefresh(ctx context.Context, userID, oldRefresh, oldAccess string, deps RefreshDeps) RefreshResult {
	resultKey := keys.RefreshResult(userID, oldRefresh)
	lockKey := keys.RefreshLock(userID)

	// Fast idempotent path: a duplicate retry of a rotation that just
	// finished gets the identical bundle without consuming anything.
	if bundle, err := checkResultCache(ctx, resultKey, deps); err != nil {
		return RefreshResult{Failure: RefreshFailureStore, Err: err}
	} else if bundle != nil {
		return RefreshResult{Bundle: bundle, IdempotentHit: true}
	}

	contended := false
	attempts := deps.PollAttempts

	for {
		acquired, err := deps.Store.SetNX(ctx, lockKey, oldRefresh, deps.LockTTL)
		if err != nil {
			return RefreshResult{Failure: RefreshFailureStore, Err: err, LockContended: contended}
		}
		if acquired {
			result := runLocked(ctx, userID, oldRefresh, oldAccess, resultKey, deps)
			result.LockContended = contended

			// Compare-and-delete: never release a lock that a later request
			// acquired after ours silently expired. Release failure is
			// tolerated — the TTL is the real safety net.
			if _, err := deps.Store.DelIfEquals(ctx, lockKey, oldRefresh); err != nil && deps.Warn != nil {
				deps.Warn("refresh lock release failed", "userID", userID, "error", err)
			}
			return result
		}

		// Another rotation for this user is in flight. Wait for its result
		// in bounded increments; a duplicate will find the cached bundle,
		// a distinct token gets its turn at the lock.
		contended = true
		if attempts <= 0 {
			return RefreshResult{Failure: RefreshFailureTimeout, Err: errors.New("refresh timeout"), LockContended: true}
		}
		attempts--

		if err := deps.Sleep(ctx, deps.PollInterval); err != nil {
			return RefreshResult{Failure: RefreshFailureCanceled, Err: err, LockContended: true}
		}

		if bundle, err := checkResultCache(ctx, resultKey, deps); err != nil {
			return RefreshResult{Failure: RefreshFailureStore, Err: err, LockContended: true}
		} else if bundle != nil {
			return RefreshResult{Bundle: bundle, IdempotentHit: true, LockContended: true}
		}
	}
}

// runLocked is the critical section. The caller holds the rotation lock.
func runLocked(ctx context.Context, userID, oldRefresh, oldAccess, resultKey string, deps RefreshDeps) RefreshResult {
	// Double-check: a racing duplicate may have finished between our fast
	// path and our lock acquisition.
	if bundle, err := checkResultCache(ctx, resultKey, deps); err != nil {
		return RefreshResult{Failure: RefreshFailureStore, Err: err}
	} else if bundle != nil {
		return RefreshResult{Bundle: bundle, IdempotentHit: true}
	}

	// Validate-and-consume. GetDel closes the single-use window as tightly
	// as the store's primitives allow: no second reader can observe the
	// token once we have it.
	owner, err := deps.Store.GetDel(ctx, keys.RefreshToken(userID, oldRefresh))
	if err != nil {
		if errors.Is(err, kv.ErrNotFound) {
			return RefreshResult{Failure: RefreshFailureTokenInvalid, Err: err}
		}
		return RefreshResult{Failure: RefreshFailureStore, Err: err}
	}
	if owner != userID {
		// Key namespace makes this near-impossible; treat as forged.
		return RefreshResult{Failure: RefreshFailureTokenInvalid, Err: errors.New("refresh token owner mismatch")}
	}
	if oldAccess != "" {
		_, _ = deps.Store.Del(ctx, keys.AccessToken(userID, oldAccess))
	}

	user, _, err := deps.FindUserByID(ctx, userID)
	if err != nil {
		return RefreshResult{Failure: RefreshFailureStore, Err: err}
	}
	if user == nil {
		return RefreshResult{Failure: RefreshFailureUserVanished, Err: errors.New("refresh principal vanished")}
	}

	access, expiresAt, err := deps.IssueAccess(user)
	if err != nil {
		return RefreshResult{Failure: RefreshFailureIssue, Err: err}
	}
	refresh, err := deps.NewRefreshToken()
	if err != nil {
		return RefreshResult{Failure: RefreshFailureIssue, Err: err}
	}

	if err := deps.Store.Set(ctx, keys.AccessToken(userID, access), access, deps.AccessTTL); err != nil {
		return RefreshResult{Failure: RefreshFailurePersist, Err: err}
	}
	if err := deps.Store.Set(ctx, keys.RefreshToken(userID, refresh), userID, deps.RefreshTTL); err != nil {
		return RefreshResult{Failure: RefreshFailurePersist, Err: err}
	}

	bundle := &Bundle{
		User:                 *user,
		AccessToken:          access,
		RefreshToken:         refresh,
		AccessTokenExpiresAt: expiresAt,
	}

	// Result cache is advisory: losing it costs duplicate retries their
	// idempotency window, not correctness.
	cached, err := json.Marshal(cachedBundle{Bundle: *bundle, StoredAt: deps.Now().UnixMilli()})
	if err == nil {
		err = deps.Store.Set(ctx, resultKey, string(cached), deps.ResultTTL)
	}
	if err != nil && deps.Warn != nil {
		deps.Warn("refresh result cache write failed", "userID", userID, "error", err)
	}

	return RefreshResult{Bundle: bundle}
}

func checkResultCache(ctx context.Context, resultKey string, deps RefreshDeps) (*Bundle, error) {
	raw, err := deps.Store.Get(ctx, resultKey)
	if err != nil {
		if errors.Is(err, kv.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}

	var cached cachedBundle
	if err := json.Unmarshal([]byte(raw), &cached); err != nil {
		// A corrupt cache entry must not fail the rotation; ignore it.
		return nil, nil
	}

	// Freshness guard on top of the key TTL: a result older than the
	// window is never served, even if the store was slow to expire it.
	age := deps.Now().UnixMilli() - cached.StoredAt
	if age < 0 || age > deps.ResultTTL.Milliseconds() {
		return nil, nil
	}

	bundle := cached.Bundle
	return &bundle, nil
}
