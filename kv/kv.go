package kv

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned by Get and GetDel when the key does not exist.
var ErrNotFound = errors.New("kv: key not found")

// Store is the coordination surface consumed by the engine. Implementations
// must guarantee that every method is atomic with respect to the single key
// it touches; no multi-key transactionality is assumed anywhere above this
// interface.
type Store interface {
	// Get returns the value at key, or ErrNotFound.
	Get(ctx context.Context, key string) (string, error)

	// GetDel atomically reads and removes key. Returns ErrNotFound when the
	// key was absent; in that case nothing was deleted.
	GetDel(ctx context.Context, key string) (string, error)

	// Set writes value under key. A ttl of zero means no expiry.
	Set(ctx context.Context, key, value string, ttl time.Duration) error

	// SetNX writes value under key only if the key is absent. Reports
	// whether the write happened.
	SetNX(ctx context.Context, key, value string, ttl time.Duration) (bool, error)

	// Del removes the given keys and returns how many existed. Deleting
	// absent keys is not an error.
	Del(ctx context.Context, keys ...string) (int64, error)

	// DelIfEquals removes key only while its current value equals expected.
	// Reports whether the delete happened.
	DelIfEquals(ctx context.Context, key, expected string) (bool, error)

	// Exists returns how many of the given keys exist.
	Exists(ctx context.Context, keys ...string) (int64, error)

	// Scan returns all keys matching the glob pattern.
	Scan(ctx context.Context, pattern string) ([]string, error)
}
