// Package ops exposes the engine's operations as a named, transport-agnostic
// registry: each operation takes a JSON payload and returns a JSON-encodable
// result, so a host can mount the whole surface behind one dispatch point.
//
// # Architecture boundaries
//
// ops validates input shape and authentication requirements, then delegates
// to [authcore.Engine]. It owns no business logic and no storage.
//
// # What this package must NOT do
//
//   - Touch Redis or the user store directly.
//   - Interpret tokens beyond passing them to Engine.ValidateAccess.
package ops
