package identity

import (
	"context"
	"time"
)

// CreateUserInput describes a registration. Password is plaintext and is hashed by the store.
type CreateUserInput struct {
	Name     string
	Email    string
	Password string
	Now      time.Time
}

// Store is the credential persistence boundary.
type Store interface {
	// Exists reports whether a user with the (normalized) email exists.
	Exists(ctx context.Context, email string) (bool, error)

	// Create hashes in.Password and persists a new user with default preferences.
	// A duplicate email yields ConflictError{Field: "email"}; a password rejected by
	// the policy yields one of the password package errors.
	Create(ctx context.Context, in CreateUserInput) (User, error)

	FindByEmail(ctx context.Context, email string) (User, error)
	FindByID(ctx context.Context, id string) (User, error)

	// VerifySecret compares candidate against u.PasswordHash.
	// A user with an empty hash burns a dummy verification and reports false,
	// so unknown-account lookups cost the same as wrong passwords.
	VerifySecret(u User, candidate string) (bool, error)

	// UpgradeSecret re-hashes candidate, which must already have verified against u,
	// when u's hash uses outdated parameters. The write only applies if the stored
	// hash still equals u.PasswordHash. It reports whether the hash was replaced.
	UpgradeSecret(ctx context.Context, u User, candidate string, now time.Time) (bool, error)
}
