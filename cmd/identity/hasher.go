package identity

import (
	"fmt"

	"github.com/rasedprogrammer/national-recruiting-agency/cmd/security/password"
	"github.com/rasedprogrammer/national-recruiting-agency/cmd/security/token"
)

// Hasher applies the password policy and hashing parameters shared by all stores.
type Hasher struct {
	cfg     password.Config
	relaxed password.Config
	dummy   string
}

// maxRehashRunes bounds secrets re-hashed outside the policy (accepted under an older one).
const maxRehashRunes = 4096

// NewHasher precomputes a dummy hash with the same parameters as real ones.
func NewHasher(cfg password.Config) (*Hasher, error) {
	seed, err := token.NewOpaque(24)
	if err != nil {
		return nil, fmt.Errorf("identity: dummy seed: %w", err)
	}
	relaxed := cfg
	relaxed.Policy = password.Policy{MinLength: 1, MaxLength: maxRehashRunes}
	dummy, err := relaxed.Hash(seed)
	if err != nil {
		return nil, fmt.Errorf("identity: dummy hash: %w", err)
	}
	return &Hasher{cfg: cfg, relaxed: relaxed, dummy: dummy}, nil
}

// Hash validates plain against the policy and returns its encoded hash.
func (h *Hasher) Hash(plain string) (string, error) {
	return h.cfg.Hash(plain)
}

// VerifySecret compares candidate with u.PasswordHash.
func (h *Hasher) VerifySecret(u User, candidate string) (bool, error) {
	if u.PasswordHash == "" {
		_, _ = h.cfg.Verify(h.dummy, candidate)
		return false, nil
	}
	return h.cfg.Verify(u.PasswordHash, candidate)
}

// NeedsRehash reports whether u's stored hash uses bcrypt or weaker argon2id parameters.
func (h *Hasher) NeedsRehash(u User) bool {
	return u.PasswordHash != "" && h.cfg.NeedsRehash(u.PasswordHash)
}

// rehash hashes a secret that already verified, with current parameters and no policy check.
func (h *Hasher) rehash(plain string) (string, error) {
	return h.relaxed.Hash(plain)
}
