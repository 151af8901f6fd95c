package password

import (
	"testing"

	"golang.org/x/crypto/bcrypt"
)

const benchSecret = "correct horse battery staple"

func BenchmarkHash(b *testing.B) {
	cfg := DefaultConfig()
	for b.Loop() {
		if _, err := cfg.Hash(benchSecret); err != nil {
			b.Fatalf("Hash: %v", err)
		}
	}
}

func BenchmarkVerify(b *testing.B) {
	cases := map[string]func(Config) (string, error){
		"argon2id": func(cfg Config) (string, error) { return cfg.Hash(benchSecret) },
		"bcrypt": func(Config) (string, error) {
			h, err := bcrypt.GenerateFromPassword([]byte(benchSecret), bcrypt.DefaultCost)
			return string(h), err
		},
	}

	for name, mk := range cases {
		b.Run(name, func(b *testing.B) {
			cfg := DefaultConfig()
			encoded, err := mk(cfg)
			if err != nil {
				b.Fatalf("prepare hash: %v", err)
			}
			for b.Loop() {
				ok, err := cfg.Verify(encoded, benchSecret)
				if err != nil || !ok {
					b.Fatalf("Verify: ok=%v err=%v", ok, err)
				}
			}
		})
	}
}
