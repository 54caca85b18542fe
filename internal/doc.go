// Package internal holds helpers shared by the engine and its flows that
// must not become part of the public API surface.
package internal
