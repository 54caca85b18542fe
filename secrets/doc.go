// Package secrets holds the non-password cryptographic primitives: opaque
// token generation, token fingerprinting, and authenticated encryption for
// secrets persisted at rest (currently only TOTP seeds).
//
// The AEAD wire format is nonce || tag || ciphertext, hex-encoded, with the
// AES-256 key derived as SHA-256 of the configured secret. Decrypt fails
// closed: any malformed or tampered input yields ErrDecryptFailed and never
// a panic or partial plaintext.
package secrets
