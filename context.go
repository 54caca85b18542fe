package authcore

import (
	"context"

	"github.com/MrEthical07/authcore/jwt"
)

type claimsContextKey struct{}

// ContextWithClaims attaches verified access claims to ctx. Middleware calls
// this after ValidateAccess so downstream handlers can read the identity.
func ContextWithClaims(ctx context.Context, claims *jwt.AccessClaims) context.Context {
	return context.WithValue(ctx, claimsContextKey{}, claims)
}

// ClaimsFromContext returns the claims attached by ContextWithClaims, or
// false when the request was never validated.
func ClaimsFromContext(ctx context.Context) (*jwt.AccessClaims, bool) {
	if ctx == nil {
		return nil, false
	}

	claims, ok := ctx.Value(claimsContextKey{}).(*jwt.AccessClaims)
	if !ok || claims == nil {
		return nil, false
	}
	return claims, true
}
