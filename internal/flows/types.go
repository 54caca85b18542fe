package flows

import "context"

// UserRecord is the flow-local identity model. JSON tags match the wire
// shape of the token bundle.
type UserRecord struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
	Role  string `json:"role"`
}

// AccountRecord carries the credential side of a principal.
type AccountRecord struct {
	PasswordHash string
	Verified     bool
	TOTPSecret   string // AEAD ciphertext, hex; empty when not enrolled
}

// Bundle is the token pair handed to callers after login and refresh.
type Bundle struct {
	User                 UserRecord `json:"user"`
	AccessToken          string     `json:"accessToken"`
	RefreshToken         string     `json:"refreshToken"`
	AccessTokenExpiresAt int64      `json:"accessTokenExpiresAt"`
}

// FindUser resolves a principal together with its linked account. A nil
// user with a nil error means "no such principal".
type FindUser func(ctx context.Context, id string) (*UserRecord, *AccountRecord, error)
