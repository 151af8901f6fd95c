package password

import (
	"fmt"
	"runtime"

	"github.com/caarlos0/env/v10"
)

// Argon2idParams controls Argon2id hashing cost.
// MemoryKiB is in KiB as required by argon2.IDKey.
type Argon2idParams struct {
	MemoryKiB   uint32 `env:"ARGON2_MEMORY_KIB"`
	Iterations  uint32 `env:"ARGON2_ITERATIONS"`
	Parallelism uint8  `env:"ARGON2_PARALLELISM"`
	SaltLength  uint32 `env:"ARGON2_SALT_LEN"`
	KeyLength   uint32 `env:"ARGON2_KEY_LEN"`
}

// Policy controls password validation on the create path.
type Policy struct {
	MinLength      int  `env:"PASSWORD_MIN_LEN"`
	MaxLength      int  `env:"PASSWORD_MAX_LEN"`
	RejectVeryWeak bool `env:"PASSWORD_REJECT_VERY_WEAK"`
}

// Config is the single configuration surface for this package.
type Config struct {
	Params Argon2idParams
	Policy Policy
}

// DefaultConfig returns the baseline used when no env overrides are present.
func DefaultConfig() Config {
	threads := runtime.NumCPU()
	if threads <= 0 {
		threads = 1
	}
	if threads > 4 {
		threads = 4
	}

	return Config{
		Params: Argon2idParams{
			MemoryKiB:   64 * 1024,
			Iterations:  3,
			Parallelism: uint8(threads), // #nosec G115 -- clamped to [1..4] above.
			SaltLength:  16,
			KeyLength:   32,
		},
		Policy: Policy{
			MinLength: 8,
			MaxLength: 255,
		},
	}
}

// FromEnv loads config from NRA_-prefixed environment variables on top of DefaultConfig.
//
// Env surface:
//   - NRA_PASSWORD_MIN_LEN, NRA_PASSWORD_MAX_LEN, NRA_PASSWORD_REJECT_VERY_WEAK
//   - NRA_ARGON2_MEMORY_KIB, NRA_ARGON2_ITERATIONS, NRA_ARGON2_PARALLELISM
//   - NRA_ARGON2_SALT_LEN, NRA_ARGON2_KEY_LEN
func FromEnv() (Config, error) {
	cfg := DefaultConfig()
	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: "NRA_"}); err != nil {
		return Config{}, err
	}
	if err := cfg.check(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) check() error {
	p := c.Params
	switch {
	case p.MemoryKiB < 8*1024 || p.MemoryKiB > 1024*1024:
		return fmt.Errorf("NRA_ARGON2_MEMORY_KIB: out of range [%d..%d]", 8*1024, 1024*1024)
	case p.Iterations < 1 || p.Iterations > 20:
		return fmt.Errorf("NRA_ARGON2_ITERATIONS: out of range [1..20]")
	case p.Parallelism < 1 || p.Parallelism > 64:
		return fmt.Errorf("NRA_ARGON2_PARALLELISM: out of range [1..64]")
	case p.SaltLength < 8 || p.SaltLength > 64:
		return fmt.Errorf("NRA_ARGON2_SALT_LEN: out of range [8..64]")
	case p.KeyLength < 16 || p.KeyLength > 64:
		return fmt.Errorf("NRA_ARGON2_KEY_LEN: out of range [16..64]")
	}

	if c.Policy.MinLength < 1 || c.Policy.MaxLength < 1 {
		return fmt.Errorf("password policy invalid: lengths must be positive")
	}
	if c.Policy.MinLength > c.Policy.MaxLength {
		return fmt.Errorf(
			"password policy invalid: min_len(%d) > max_len(%d)",
			c.Policy.MinLength,
			c.Policy.MaxLength,
		)
	}
	return nil
}
