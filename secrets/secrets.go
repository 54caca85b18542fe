package secrets

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"io"
)

const (
	nonceLength = 16
	tagLength   = 16

	opaqueTokenBytes = 40
)

// ErrDecryptFailed is returned for any undecryptable input: wrong key,
// truncated payload, bad hex, or failed tag verification. Callers must not
// be able to distinguish the cases.
var ErrDecryptFailed = errors.New("secrets: decrypt failed")

// Fingerprint returns the hex SHA-256 digest of token. One-way; used to
// persist token references without persisting the token.
func Fingerprint(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// VerifyFingerprint reports whether token hashes to digest, in constant
// time once lengths match.
func VerifyFingerprint(token, digest string) bool {
	computed := Fingerprint(token)
	if len(computed) != len(digest) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(computed), []byte(digest)) == 1
}

// OpaqueToken returns a fresh high-entropy credential: 40 random bytes,
// hex-encoded. Its only meaning is as a store lookup key.
func OpaqueToken() (string, error) {
	raw := make([]byte, opaqueTokenBytes)
	if _, err := io.ReadFull(rand.Reader, raw); err != nil {
		return "", err
	}
	return hex.EncodeToString(raw), nil
}

// Encrypt seals plaintext under AES-256-GCM with a fresh random nonce.
// The key is SHA-256 of secretKey, so any passphrase-like secret works.
func Encrypt(plaintext, secretKey string) (string, error) {
	aead, err := newAEAD(secretKey)
	if err != nil {
		return "", err
	}

	nonce := make([]byte, nonceLength)
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", err
	}

	// Seal appends the tag after the ciphertext; the wire format wants
	// nonce || tag || ciphertext.
	sealed := aead.Seal(nil, nonce, []byte(plaintext), nil)
	ct := sealed[:len(sealed)-tagLength]
	tag := sealed[len(sealed)-tagLength:]

	out := make([]byte, 0, nonceLength+tagLength+len(ct))
	out = append(out, nonce...)
	out = append(out, tag...)
	out = append(out, ct...)

	return hex.EncodeToString(out), nil
}

// Decrypt reverses Encrypt. Returns ErrDecryptFailed on any failure.
func Decrypt(encryptedHex, secretKey string) (string, error) {
	raw, err := hex.DecodeString(encryptedHex)
	if err != nil {
		return "", ErrDecryptFailed
	}
	if len(raw) < nonceLength+tagLength {
		return "", ErrDecryptFailed
	}

	aead, err := newAEAD(secretKey)
	if err != nil {
		return "", ErrDecryptFailed
	}

	nonce := raw[:nonceLength]
	tag := raw[nonceLength : nonceLength+tagLength]
	ct := raw[nonceLength+tagLength:]

	sealed := make([]byte, 0, len(ct)+tagLength)
	sealed = append(sealed, ct...)
	sealed = append(sealed, tag...)

	plaintext, err := aead.Open(nil, nonce, sealed, nil)
	if err != nil {
		return "", ErrDecryptFailed
	}
	return string(plaintext), nil
}

func newAEAD(secretKey string) (cipher.AEAD, error) {
	key := sha256.Sum256([]byte(secretKey))
	block, err := aes.NewCipher(key[:])
	if err != nil {
		return nil, err
	}
	return cipher.NewGCMWithNonceSize(block, nonceLength)
}
