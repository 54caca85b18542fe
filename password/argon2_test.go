package password

import (
	"strings"
	"testing"
)

func testConfig() Config {
	// Cheap parameters keep test runs fast; production defaults are higher.
	return Config{
		Memory:      8 * 1024,
		Time:        1,
		Parallelism: 1,
		SaltLength:  16,
		KeyLength:   16,
	}
}

func newTestHasher(t *testing.T) *Hasher {
	t.Helper()
	h, err := NewHasher(testConfig())
	if err != nil {
		t.Fatalf("hasher init failed: %v", err)
	}
	return h
}

func TestHashVerifyRoundTrip(t *testing.T) {
	h := newTestHasher(t)

	encoded, err := h.Hash("correct-horse")
	if err != nil {
		t.Fatalf("hash failed: %v", err)
	}

	ok, err := h.Verify("correct-horse", encoded)
	if err != nil {
		t.Fatalf("verify failed: %v", err)
	}
	if !ok {
		t.Fatal("matching password rejected")
	}
}

func TestVerifyWrongPassword(t *testing.T) {
	h := newTestHasher(t)

	encoded, err := h.Hash("correct-horse")
	if err != nil {
		t.Fatalf("hash failed: %v", err)
	}

	ok, err := h.Verify("battery-staple", encoded)
	if err != nil {
		t.Fatalf("verify failed: %v", err)
	}
	if ok {
		t.Fatal("wrong password accepted")
	}
}

func TestHashPHCShape(t *testing.T) {
	h := newTestHasher(t)

	encoded, err := h.Hash("pw")
	if err != nil {
		t.Fatalf("hash failed: %v", err)
	}
	if !strings.HasPrefix(encoded, "$argon2id$") {
		t.Fatalf("unexpected prefix: %q", encoded)
	}
	if parts := strings.Split(encoded, "$"); len(parts) != 6 {
		t.Fatalf("expected 6 PHC segments, got %d", len(parts))
	}
}

func TestHashesAreSalted(t *testing.T) {
	h := newTestHasher(t)

	a, err := h.Hash("same-password")
	if err != nil {
		t.Fatalf("hash failed: %v", err)
	}
	b, err := h.Hash("same-password")
	if err != nil {
		t.Fatalf("hash failed: %v", err)
	}
	if a == b {
		t.Fatal("two hashes of the same password must differ")
	}
}

func TestVerifyUsesEmbeddedParameters(t *testing.T) {
	strong, err := NewHasher(Config{
		Memory:      16 * 1024,
		Time:        2,
		Parallelism: 2,
		SaltLength:  16,
		KeyLength:   32,
	})
	if err != nil {
		t.Fatalf("hasher init failed: %v", err)
	}
	encoded, err := strong.Hash("pw")
	if err != nil {
		t.Fatalf("hash failed: %v", err)
	}

	// A hasher configured with different costs must still verify hashes
	// produced under the stronger parameters.
	weak := newTestHasher(t)
	ok, err := weak.Verify("pw", encoded)
	if err != nil {
		t.Fatalf("verify failed: %v", err)
	}
	if !ok {
		t.Fatal("cross-parameter verification failed")
	}
}

func TestNewHasherRejectsWeakParameters(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"low memory", func(c *Config) { c.Memory = 1024 }},
		{"zero time", func(c *Config) { c.Time = 0 }},
		{"zero parallelism", func(c *Config) { c.Parallelism = 0 }},
		{"short salt", func(c *Config) { c.SaltLength = 8 }},
		{"short key", func(c *Config) { c.KeyLength = 8 }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := testConfig()
			tc.mutate(&cfg)
			if _, err := NewHasher(cfg); err == nil {
				t.Fatal("expected config rejection")
			}
		})
	}
}

func TestVerifyMalformedHash(t *testing.T) {
	h := newTestHasher(t)

	inputs := []string{
		"",
		"not-a-phc-hash",
		"$argon2i$v=19$m=8192,t=1,p=1$c2FsdHNhbHRzYWx0c2FsdA$aGFzaA",
		"$argon2id$v=18$m=8192,t=1,p=1$c2FsdHNhbHRzYWx0c2FsdA$aGFzaA",
		"$argon2id$v=19$m=8192,t=1$c2FsdHNhbHRzYWx0c2FsdA$aGFzaA",
		"$argon2id$v=19$m=8192,t=1,p=1$!!!$aGFzaA",
	}
	for _, input := range inputs {
		if _, err := h.Verify("pw", input); err == nil {
			t.Fatalf("input %q: expected parse error", input)
		}
	}
}
