package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/rasedprogrammer/national-recruiting-agency/cmd/identity/ids"
	"github.com/rasedprogrammer/national-recruiting-agency/cmd/internal/dbx"
)

// PostgresStore implements Store over PostgreSQL.
//
// Notes:
// - The pgx pool is owned by the caller; this store must NOT close it.
// - Schema/table identifiers are safely quoted.
// - Email uniqueness is enforced by uq_users_email_norm, not by a prior read.
type PostgresStore struct {
	db     dbx.DB
	hasher *Hasher
	schema string
}

// PostgresOption configures the store.
type PostgresOption func(*PostgresStore) error

// WithSchema sets the Postgres schema used by the store (default "nra").
func WithSchema(schema string) PostgresOption {
	return func(s *PostgresStore) error {
		v, err := dbx.ValidSchema(schema)
		if err != nil {
			return fmt.Errorf("identity: %w", err)
		}
		s.schema = v
		return nil
	}
}

// NewPostgresStore constructs a PostgresStore.
func NewPostgresStore(db dbx.DB, hasher *Hasher, opts ...PostgresOption) (*PostgresStore, error) {
	st := &PostgresStore{
		db:     db,
		hasher: hasher,
		schema: dbx.DefaultSchema,
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(st); err != nil {
			return nil, err
		}
	}
	if st.db == nil {
		return nil, fmt.Errorf("identity: nil db")
	}
	if st.hasher == nil {
		return nil, fmt.Errorf("identity: nil hasher")
	}
	return st, nil
}

const userColumns = `id, name, email, password_hash,
	enable_2fa, email_notification, COALESCE(two_factor_secret, ''),
	is_email_verified, created_at, updated_at`

// Exists reports whether a user with email exists.
func (s *PostgresStore) Exists(ctx context.Context, email string) (bool, error) {
	email = NormalizeEmail(email)
	if email == "" {
		return false, nil
	}

	var ok bool
	err := s.db.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM `+s.users()+` WHERE email = $1)`,
		email,
	).Scan(&ok)
	if err != nil {
		return false, fmt.Errorf("identity.Exists: %w", err)
	}
	return ok, nil
}

// Create hashes the password and inserts a new user.
func (s *PostgresStore) Create(ctx context.Context, in CreateUserInput) (User, error) {
	const op = "identity.Create"

	u, err := prepareUser(op, s.hasher, in)
	if err != nil {
		return User{}, err
	}
	if err := ctx.Err(); err != nil {
		return User{}, err
	}

	_, err = s.db.Exec(ctx,
		`INSERT INTO `+s.users()+` (
		     id, name, email, password_hash,
		     enable_2fa, email_notification, is_email_verified,
		     created_at, updated_at
		   ) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		u.ID,
		u.Name,
		u.Email,
		u.PasswordHash,
		u.Preferences.Enable2FA,
		u.Preferences.EmailNotification,
		u.IsEmailVerified,
		u.CreatedAt,
		u.UpdatedAt,
	)
	if err != nil {
		if constraint, ok := dbx.UniqueViolation(err); ok {
			return User{}, ConflictError{Op: op, Field: conflictField(constraint)}
		}
		return User{}, fmt.Errorf("%s: %w", op, err)
	}
	return u, nil
}

// FindByEmail returns the user with email, or NotFoundError.
func (s *PostgresStore) FindByEmail(ctx context.Context, email string) (User, error) {
	const op = "identity.FindByEmail"

	email = NormalizeEmail(email)
	if email == "" {
		return User{}, NotFoundError{Op: op, Resource: "user"}
	}
	return s.findOne(ctx, op, `SELECT `+userColumns+` FROM `+s.users()+` WHERE email = $1`, email)
}

// FindByID returns the user with id, or NotFoundError.
func (s *PostgresStore) FindByID(ctx context.Context, id string) (User, error) {
	const op = "identity.FindByID"

	id = strings.TrimSpace(id)
	if id == "" {
		return User{}, NotFoundError{Op: op, Resource: "user"}
	}
	return s.findOne(ctx, op, `SELECT `+userColumns+` FROM `+s.users()+` WHERE id = $1`, id)
}

// VerifySecret compares candidate against u's stored hash.
func (s *PostgresStore) VerifySecret(u User, candidate string) (bool, error) {
	return s.hasher.VerifySecret(u, candidate)
}

// UpgradeSecret replaces an outdated hash, guarded by the previously read hash.
func (s *PostgresStore) UpgradeSecret(ctx context.Context, u User, candidate string, now time.Time) (bool, error) {
	const op = "identity.UpgradeSecret"

	if !s.hasher.NeedsRehash(u) {
		return false, nil
	}
	hash, err := s.hasher.rehash(candidate)
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}

	tag, err := s.db.Exec(ctx,
		`UPDATE `+s.users()+` SET password_hash = $1, updated_at = $2
		  WHERE id = $3 AND password_hash = $4`,
		hash, now, u.ID, u.PasswordHash,
	)
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return tag.RowsAffected() == 1, nil
}

func (s *PostgresStore) findOne(ctx context.Context, op, query string, arg any) (User, error) {
	var (
		u      User
		secret string
	)
	err := s.db.QueryRow(ctx, query, arg).Scan(
		&u.ID,
		&u.Name,
		&u.Email,
		&u.PasswordHash,
		&u.Preferences.Enable2FA,
		&u.Preferences.EmailNotification,
		&secret,
		&u.IsEmailVerified,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return User{}, NotFoundError{Op: op, Resource: "user"}
		}
		return User{}, fmt.Errorf("%s: %w", op, err)
	}
	if secret != "" {
		u.Preferences.TwoFactorSecret = &secret
	}
	return u, nil
}

func (s *PostgresStore) users() string { return dbx.Ident(s.schema, "users") }

// prepareUser validates and normalizes in, hashes the password and assigns an id.
func prepareUser(op string, h *Hasher, in CreateUserInput) (User, error) {
	name := NormalizeName(in.Name)
	email := NormalizeEmail(in.Email)
	if name == "" {
		return User{}, invalid(op, "name", "name is required")
	}
	if email == "" {
		return User{}, invalid(op, "email", "email is required")
	}
	if in.Password == "" {
		return User{}, invalid(op, "password", "password is required")
	}

	now := in.Now
	if now.IsZero() {
		now = time.Now().UTC()
	}

	hash, err := h.Hash(in.Password)
	if err != nil {
		return User{}, fmt.Errorf("%s: %w", op, err)
	}

	id, err := ids.NewULID(now)
	if err != nil {
		return User{}, fmt.Errorf("%s: %w", op, err)
	}

	return User{
		ID:           id,
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Preferences:  DefaultPreferences(),
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

func conflictField(constraint string) string {
	switch {
	case constraint == "uq_users_email_norm", strings.Contains(constraint, "email"):
		return "email"
	default:
		return "unique"
	}
}
