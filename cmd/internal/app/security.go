package app

import (
	"errors"
	"fmt"

	"github.com/rasedprogrammer/national-recruiting-agency/cmd/security/token"
)

// minHMACKeyBytes is the shortest NRA_TOKEN_HMAC_KEY accepted under the HMAC policy.
const minHMACKeyBytes = 32

// codeHasher returns the hasher for verification codes, enforcing the HMAC
// policy when cfg.RequireTokenHMAC is set. Startup fails rather than falling
// back to plain SHA-256 under that policy.
func codeHasher(cfg Config) (token.Hasher, error) {
	h, err := token.HasherFromEnv(cfg.RequireTokenHMAC, minHMACKeyBytes)
	switch {
	case errors.Is(err, token.ErrHMACKeyMissing):
		return token.Hasher{}, fmt.Errorf("security policy: NRA_REQUIRE_TOKEN_HMAC=true but %s is missing", token.HMACEnvKey)
	case errors.Is(err, token.ErrHMACKeyTooShort):
		return token.Hasher{}, fmt.Errorf("security policy: %s is too short (min %d bytes)", token.HMACEnvKey, minHMACKeyBytes)
	case err != nil:
		return token.Hasher{}, err
	}

	if cfg.RequireTokenHMAC && !h.HMAC() {
		return token.Hasher{}, errors.New("security policy: NRA_REQUIRE_TOKEN_HMAC=true but code hasher is not in HMAC mode")
	}
	return h, nil
}
