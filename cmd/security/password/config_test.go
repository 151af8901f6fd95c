package password

import (
	"os"
	"testing"
)

func TestFromEnv_Defaults(t *testing.T) {
	for _, k := range []string{
		"NRA_PASSWORD_MIN_LEN",
		"NRA_PASSWORD_MAX_LEN",
		"NRA_PASSWORD_REJECT_VERY_WEAK",
		"NRA_ARGON2_MEMORY_KIB",
		"NRA_ARGON2_ITERATIONS",
		"NRA_ARGON2_PARALLELISM",
		"NRA_ARGON2_SALT_LEN",
		"NRA_ARGON2_KEY_LEN",
	} {
		_ = os.Unsetenv(k)
	}

	cfg, err := FromEnv()
	if err != nil {
		t.Fatalf("FromEnv error: %v", err)
	}

	def := DefaultConfig()
	if cfg.Policy != def.Policy {
		t.Fatalf("policy mismatch: %+v", cfg.Policy)
	}
	if cfg.Params != def.Params {
		t.Fatalf("params mismatch: %+v", cfg.Params)
	}
}

func TestFromEnv_Override(t *testing.T) {
	t.Setenv("NRA_PASSWORD_MIN_LEN", "10")
	t.Setenv("NRA_PASSWORD_MAX_LEN", "200")
	t.Setenv("NRA_PASSWORD_REJECT_VERY_WEAK", "true")
	t.Setenv("NRA_ARGON2_MEMORY_KIB", "32768")
	t.Setenv("NRA_ARGON2_ITERATIONS", "4")
	t.Setenv("NRA_ARGON2_PARALLELISM", "2")
	t.Setenv("NRA_ARGON2_SALT_LEN", "24")
	t.Setenv("NRA_ARGON2_KEY_LEN", "32")

	cfg, err := FromEnv()
	if err != nil {
		t.Fatalf("FromEnv error: %v", err)
	}

	if cfg.Policy.MinLength != 10 || cfg.Policy.MaxLength != 200 || !cfg.Policy.RejectVeryWeak {
		t.Fatalf("policy override failed: %+v", cfg.Policy)
	}
	if cfg.Params.MemoryKiB != 32768 || cfg.Params.Iterations != 4 || cfg.Params.Parallelism != 2 {
		t.Fatalf("argon2 override failed: %+v", cfg.Params)
	}
	if cfg.Params.SaltLength != 24 || cfg.Params.KeyLength != 32 {
		t.Fatalf("len override failed: %+v", cfg.Params)
	}
}

func TestFromEnv_Invalid(t *testing.T) {
	cases := map[string]map[string]string{
		"min over max":   {"NRA_PASSWORD_MIN_LEN": "20", "NRA_PASSWORD_MAX_LEN": "10"},
		"tiny memory":    {"NRA_ARGON2_MEMORY_KIB": "1024"},
		"not a number":   {"NRA_ARGON2_ITERATIONS": "many"},
		"zero key bytes": {"NRA_ARGON2_KEY_LEN": "0"},
	}

	for name, vars := range cases {
		t.Run(name, func(t *testing.T) {
			for k, v := range vars {
				t.Setenv(k, v)
			}
			if _, err := FromEnv(); err == nil {
				t.Fatalf("expected error")
			}
		})
	}
}
