package flows

import (
	"context"

	"github.com/MrEthical07/authcore/internal/keys"
	"github.com/MrEthical07/authcore/kv"
)

// LogoutDeps captures logout flow dependencies.
type LogoutDeps struct {
	Store kv.Store
}

// RunLogout deletes both token entries. Idempotent: logging out with
// already-expired or already-deleted tokens succeeds.
func RunLogout(ctx context.Context, userID, accessToken, refreshToken string, deps LogoutDeps) error {
	targets := make([]string, 0, 2)
	if accessToken != "" {
		targets = append(targets, keys.AccessToken(userID, accessToken))
	}
	if refreshToken != "" {
		targets = append(targets, keys.RefreshToken(userID, refreshToken))
	}
	_, err := deps.Store.Del(ctx, targets...)
	return err
}

// RunLogoutAll revokes every token the user holds, across all devices.
func RunLogoutAll(ctx context.Context, userID string, deps LogoutDeps) error {
	for _, pattern := range []string{keys.UserAccessPattern(userID), keys.UserRefreshPattern(userID)} {
		found, err := deps.Store.Scan(ctx, pattern)
		if err != nil {
			return err
		}
		if _, err := deps.Store.Del(ctx, found...); err != nil {
			return err
		}
	}
	return nil
}
