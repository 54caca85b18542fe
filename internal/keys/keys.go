// Package keys defines the store key layout. Every key is namespaced by
// purpose and owner so components can never collide across users or with
// each other; only the refresh coordinator may touch lock and result keys.
package keys

// AccessToken is the existence marker that makes a signed access token
// revocable before its embedded expiry.
func AccessToken(userID, token string) string {
	return "accesstoken:" + userID + ":" + token
}

// RefreshToken maps an opaque refresh token to its owning user.
func RefreshToken(userID, token string) string {
	return "refreshtoken:" + userID + ":" + token
}

// RefreshLock is the per-user rotation lock. Value: the refresh token
// attempting rotation.
func RefreshLock(userID string) string {
	return "token_refresh_lock:" + userID
}

// RefreshResult caches a finished rotation so duplicate retries of the
// same old token are idempotent.
func RefreshResult(userID, oldToken string) string {
	return "refresh_result:" + userID + ":" + oldToken
}

// VerifySession holds a pending email OTP challenge.
func VerifySession(verificationID string) string {
	return "verify-session:" + verificationID
}

// UserAccessPattern matches every access-token marker of one user.
func UserAccessPattern(userID string) string {
	return "accesstoken:" + userID + ":*"
}

// UserRefreshPattern matches every refresh token of one user.
func UserRefreshPattern(userID string) string {
	return "refreshtoken:" + userID + ":*"
}
