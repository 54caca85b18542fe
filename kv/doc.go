// Package kv defines the narrow TTL key-value contract the engine
// coordinates through, and its Redis implementation.
//
// The engine never talks to Redis directly: every store interaction goes
// through [Store], which is small enough to fake in tests and to satisfy
// with any backend offering atomic single-key operations with per-key
// expiry. [Store.SetNX] and [Store.DelIfEquals] are the two conditional
// primitives the refresh coordinator builds its locking on.
package kv
