package jwt

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrBadExpirySpec is returned by ParseExpiry for an empty spec, a
// non-numeric prefix, or an unrecognized unit.
var ErrBadExpirySpec = errors.New("jwt: invalid expiry spec")

// ErrTokenInvalid covers every verification failure: malformed input, bad
// signature, wrong algorithm, expired token. Callers never see a
// partially-trusted payload.
var ErrTokenInvalid = errors.New("jwt: invalid token")

// Config carries the signing material and token lifetime.
//
// Config instances are intended to be configured during initialization and
// then treated as immutable.
type Config struct {
	SigningSecret []byte
	AccessTTL     time.Duration
	Issuer        string
	Leeway        time.Duration
}

// Manager builds and validates access tokens. Safe for concurrent use.
type Manager struct {
	config Config
}

// AccessClaims is the payload embedded in every access token.
type AccessClaims struct {
	UserID string `json:"userId"`
	Email  string `json:"email"`
	Name   string `json:"name"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// NewManager validates the config and returns a ready Manager.
func NewManager(cfg Config) (*Manager, error) {
	if len(cfg.SigningSecret) == 0 {
		return nil, errors.New("hs256 requires signing secret")
	}
	if cfg.AccessTTL <= 0 {
		return nil, errors.New("invalid TTL configuration")
	}
	if cfg.Leeway < 0 || cfg.Leeway > 2*time.Minute {
		return nil, errors.New("invalid leeway configuration")
	}
	return &Manager{config: cfg}, nil
}

// Issue signs a fresh access token for the given identity and returns it
// with its expiry as a Unix timestamp in seconds.
func (m *Manager) Issue(userID, email, name, role string) (string, int64, error) {
	now := time.Now()
	expiresAt := now.Add(m.config.AccessTTL)

	claims := AccessClaims{
		UserID: userID,
		Email:  email,
		Name:   name,
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}
	if m.config.Issuer != "" {
		claims.Issuer = m.config.Issuer
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.config.SigningSecret)
	if err != nil {
		return "", 0, err
	}
	return token, expiresAt.Unix(), nil
}

// Parse verifies signature and expiry and returns the claims, or
// ErrTokenInvalid on any verification failure.
func (m *Manager) Parse(tokenStr string) (*AccessClaims, error) {
	options := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	}
	if m.config.Leeway > 0 {
		options = append(options, jwt.WithLeeway(m.config.Leeway))
	}
	if m.config.Issuer != "" {
		options = append(options, jwt.WithIssuer(m.config.Issuer))
	}

	parser := jwt.NewParser(options...)
	token, err := parser.ParseWithClaims(tokenStr, &AccessClaims{}, func(t *jwt.Token) (interface{}, error) {
		if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, fmt.Errorf("unexpected signing algorithm: %s", t.Method.Alg())
		}
		return m.config.SigningSecret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}

	claims, ok := token.Claims.(*AccessClaims)
	if !ok || !token.Valid {
		return nil, ErrTokenInvalid
	}
	return claims, nil
}

// ParseExpiry converts a duration spec with a trailing unit (s, m, h, d)
// and a positive numeric prefix into a time.Duration.
func ParseExpiry(spec string) (time.Duration, error) {
	if len(spec) < 2 {
		return 0, fmt.Errorf("%w: %q", ErrBadExpirySpec, spec)
	}

	unit := spec[len(spec)-1]
	n, err := strconv.Atoi(strings.TrimSpace(spec[:len(spec)-1]))
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("%w: %q", ErrBadExpirySpec, spec)
	}

	switch unit {
	case 's':
		return time.Duration(n) * time.Second, nil
	case 'm':
		return time.Duration(n) * time.Minute, nil
	case 'h':
		return time.Duration(n) * time.Hour, nil
	case 'd':
		return time.Duration(n) * 24 * time.Hour, nil
	default:
		return 0, fmt.Errorf("%w: unknown unit in %q", ErrBadExpirySpec, spec)
	}
}
