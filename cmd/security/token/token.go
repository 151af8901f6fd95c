package token

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"os"
	"strings"
)

// HMACEnvKey is the env var name for the token HMAC secret.
// #nosec G101 -- not a credential; it's an environment variable name.
const HMACEnvKey = "NRA_TOKEN_HMAC_KEY"

// NewOpaque returns a URL-safe random token of nBytes entropy (32 when nBytes <= 0).
func NewOpaque(nBytes int) (string, error) {
	if nBytes <= 0 {
		nBytes = 32
	}
	b := make([]byte, nBytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// HashSHA256Hex returns a SHA-256 hex digest of s.
func HashSHA256Hex(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}

// HashHMACSHA256Hex returns an HMAC-SHA256 hex digest of s using key.
func HashHMACSHA256Hex(s string, key []byte) string {
	m := hmac.New(sha256.New, key)
	_, _ = m.Write([]byte(s))
	return hex.EncodeToString(m.Sum(nil))
}

// Hasher hashes tokens for storage. The zero value hashes with plain SHA-256.
type Hasher struct {
	key []byte
}

// NewHasher returns a Hasher using HMAC-SHA256 when key is non-empty.
func NewHasher(key []byte) Hasher {
	if len(key) == 0 {
		return Hasher{}
	}
	return Hasher{key: append([]byte(nil), key...)}
}

// HasherFromEnv builds a Hasher from NRA_TOKEN_HMAC_KEY.
// With requireHMAC set, a missing or short key is an error instead of a SHA-256 fallback.
func HasherFromEnv(requireHMAC bool, minBytes int) (Hasher, error) {
	key, err := HMACKeyFromEnv(minBytes)
	switch {
	case err == nil:
		return NewHasher(key), nil
	case requireHMAC:
		return Hasher{}, err
	case err == ErrHMACKeyTooShort:
		return Hasher{}, err
	default:
		return Hasher{}, nil
	}
}

// HMAC reports whether the hasher is keyed.
func (h Hasher) HMAC() bool { return len(h.key) > 0 }

// Hex hashes s and returns 64 hex chars.
func (h Hasher) Hex(s string) string {
	if len(h.key) == 0 {
		return HashSHA256Hex(s)
	}
	return HashHMACSHA256Hex(s, h.key)
}

// HMACKeyFromEnv returns the configured HMAC key bytes (trimmed), enforcing a minimum byte length.
func HMACKeyFromEnv(minBytes int) ([]byte, error) {
	raw := strings.TrimSpace(os.Getenv(HMACEnvKey))
	if raw == "" {
		return nil, ErrHMACKeyMissing
	}
	b := []byte(raw)
	if minBytes > 0 && len(b) < minBytes {
		return nil, ErrHMACKeyTooShort
	}
	return b, nil
}
