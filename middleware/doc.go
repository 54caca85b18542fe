// Package middleware exposes an HTTP middleware adapter for access token
// enforcement built on top of authcore.Engine validation.
//
// # Guards
//
//   - [Guard] — verifies the bearer token via Engine.ValidateAccess and
//     injects the validated claims into the request context.
//
// # Architecture boundaries
//
// This package translates HTTP semantics into Engine calls. It does NOT
// implement authentication logic itself — all decisions are delegated to
// Engine.ValidateAccess.
//
// # What this package must NOT do
//
//   - Parse or create JWTs directly (delegates to Engine).
//   - Access Redis (Engine handles I/O).
//   - Make authorization decisions beyond pass/reject from ValidateAccess.
package middleware
