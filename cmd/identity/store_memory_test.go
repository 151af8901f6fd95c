package identity

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/rasedprogrammer/national-recruiting-agency/cmd/security/password"
)

func TestMemoryStore_CreateAndFind(t *testing.T) {
	s := NewMemoryStore(testHasher(t))
	ctx := context.Background()
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	u, err := s.Create(ctx, CreateUserInput{
		Name:     "  Alice ",
		Email:    "Alice@Example.com",
		Password: "correct horse battery staple",
		Now:      now,
	})
	require.NoError(t, err)
	assert.Len(t, u.ID, 26)
	assert.Equal(t, "Alice", u.Name)
	assert.Equal(t, "alice@example.com", u.Email)
	assert.NotEqual(t, "correct horse battery staple", u.PasswordHash)
	assert.True(t, u.Preferences.EmailNotification)
	assert.False(t, u.Preferences.Enable2FA)
	assert.False(t, u.IsEmailVerified)
	assert.Equal(t, now, u.CreatedAt)
	assert.Equal(t, now, u.UpdatedAt)

	exists, err := s.Exists(ctx, "ALICE@example.com ")
	require.NoError(t, err)
	assert.True(t, exists)

	byEmail, err := s.FindByEmail(ctx, "alice@EXAMPLE.com")
	require.NoError(t, err)
	assert.Equal(t, u.ID, byEmail.ID)

	byID, err := s.FindByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, u.Email, byID.Email)

	ok, err := s.VerifySecret(byID, "correct horse battery staple")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestMemoryStore_DuplicateEmail(t *testing.T) {
	s := NewMemoryStore(testHasher(t))
	ctx := context.Background()

	_, err := s.Create(ctx, CreateUserInput{Name: "A", Email: "a@example.com", Password: "correct horse battery"})
	require.NoError(t, err)

	_, err = s.Create(ctx, CreateUserInput{Name: "B", Email: " A@Example.com", Password: "correct horse battery"})
	require.Error(t, err)

	var ce ConflictError
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, "email", ce.Field)
	assert.True(t, errors.Is(err, ErrConflict))
}

func TestMemoryStore_NotFound(t *testing.T) {
	s := NewMemoryStore(testHasher(t))
	ctx := context.Background()

	_, err := s.FindByEmail(ctx, "nobody@example.com")
	assert.True(t, IsNotFound(err))

	_, err = s.FindByID(ctx, "missing")
	assert.True(t, IsNotFound(err))

	exists, err := s.Exists(ctx, "nobody@example.com")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestMemoryStore_CreateValidation(t *testing.T) {
	s := NewMemoryStore(testHasher(t))
	ctx := context.Background()

	_, err := s.Create(ctx, CreateUserInput{Name: " ", Email: "a@example.com", Password: "correct horse battery"})
	assert.True(t, IsInvalidInput(err))

	_, err = s.Create(ctx, CreateUserInput{Name: "A", Email: "a@example.com", Password: "short"})
	assert.ErrorIs(t, err, password.ErrPasswordTooShort)

	exists, err := s.Exists(ctx, "a@example.com")
	require.NoError(t, err)
	assert.False(t, exists, "rejected users must not be persisted")
}

func TestMemoryStore_UpgradeSecret(t *testing.T) {
	s := NewMemoryStore(testHasher(t))
	ctx := context.Background()
	const secret = "correct horse battery"

	u, err := s.Create(ctx, CreateUserInput{Name: "Ann", Email: "ann@example.com", Password: secret})
	require.NoError(t, err)

	upgraded, err := s.UpgradeSecret(ctx, u, secret, time.Now().UTC())
	require.NoError(t, err)
	assert.False(t, upgraded, "current argon2id hash must be left alone")

	legacy, err := bcrypt.GenerateFromPassword([]byte(secret), bcrypt.MinCost)
	require.NoError(t, err)
	u.PasswordHash = string(legacy)
	s.byID[u.ID] = u

	ok, err := s.VerifySecret(u, secret)
	require.NoError(t, err)
	require.True(t, ok)

	now := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	upgraded, err = s.UpgradeSecret(ctx, u, secret, now)
	require.NoError(t, err)
	assert.True(t, upgraded)

	got, err := s.FindByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Contains(t, got.PasswordHash, "$argon2id$")
	assert.Equal(t, now, got.UpdatedAt)
	ok, err = s.VerifySecret(got, secret)
	require.NoError(t, err)
	assert.True(t, ok)

	// A stale read must not overwrite the newer hash.
	upgraded, err = s.UpgradeSecret(ctx, u, secret, now)
	require.NoError(t, err)
	assert.False(t, upgraded)
}
