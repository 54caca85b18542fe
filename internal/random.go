package internal

import (
	"crypto/rand"
	"errors"
	"math/big"
	"strings"

	"github.com/google/uuid"
)

// otpAlphabet keeps codes shoutable over the phone: uppercase letters and
// digits only.
const otpAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// NewOTP returns a random uppercase-alphanumeric one-time code.
func NewOTP(length int) (string, error) {
	if length < 4 || length > 16 {
		return "", errors.New("invalid otp length")
	}

	var b strings.Builder
	b.Grow(length)

	max := big.NewInt(int64(len(otpAlphabet)))
	for i := 0; i < length; i++ {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		b.WriteByte(otpAlphabet[n.Int64()])
	}
	return b.String(), nil
}

// NewVerificationID returns the identifier under which a verification
// session is stored. UUIDs keep it unguessable and collision-free across
// instances.
func NewVerificationID() string {
	return uuid.NewString()
}
