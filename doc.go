// Package authcore provides a credential and token-lifecycle engine with JWT
// access tokens, rotating opaque refresh tokens, and a Redis-backed
// coordination layer that serializes concurrent refreshes per user.
//
// The package is designed for concurrent server workloads: Engine methods are
// safe to call from multiple goroutines after initialization through
// [Builder.Build].
//
// # Architecture boundaries
//
// authcore is the public surface. It exposes [Engine], [Builder], [Config],
// and value types (TokenBundle, OTPChallenge, MetricsSnapshot, etc.). All
// internal coordination — flow orchestration, refresh locking, audit
// dispatch — lives under internal/ and is never exported.
//
// # What this package must NOT do
//
//   - Expose Redis clients, internal stores, or key layouts in its public API.
//   - Perform I/O outside of Engine methods (construction via Builder is
//     allocation-only until Build).
//   - Persist plaintext TOTP seeds or refresh tokens anywhere but the TTL
//     store.
//
// # Refresh contract
//
// Refresh is serialized per user: concurrent duplicates of one refresh token
// receive the identical bundle from a short-lived result cache, and distinct
// valid tokens take turns at a TTL lock. A refresh token is consumed at most
// once.
package authcore
