// Package jwt issues and verifies the signed, self-contained access tokens
// used by the engine. Tokens are HS256-signed compact JWTs carrying the
// user's identity claims plus issued-at and expiry.
//
// The package also owns [ParseExpiry], the human-readable duration syntax
// ("15m", "1h", "7d") used by the access-token configuration.
package jwt
