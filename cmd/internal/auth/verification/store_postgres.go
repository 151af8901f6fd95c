package verification

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/rasedprogrammer/national-recruiting-agency/cmd/internal/dbx"
)

// PostgresStore implements Store using PostgreSQL (nra.verification_codes).
type PostgresStore struct {
	db     dbx.DB
	schema string
}

func NewPostgresStore(db dbx.DB, schema string) (*PostgresStore, error) {
	if db == nil {
		return nil, fmt.Errorf("verification: nil db")
	}
	if schema == "" {
		schema = dbx.DefaultSchema
	}
	schema, err := dbx.ValidSchema(schema)
	if err != nil {
		return nil, fmt.Errorf("verification: %w", err)
	}
	return &PostgresStore{db: db, schema: schema}, nil
}

func (s *PostgresStore) Insert(ctx context.Context, c Code) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO `+s.table()+` (id, user_id, type, code_hash, created_at, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, c.ID, c.UserID, string(c.Type), c.CodeHash, c.CreatedAt, c.ExpiresAt)
	if err != nil {
		return fmt.Errorf("verification.Insert: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByHash(ctx context.Context, hash string) (Code, error) {
	var (
		c   Code
		typ string
	)
	err := s.db.QueryRow(ctx, `
		SELECT id, user_id, type, code_hash, created_at, expires_at
		FROM `+s.table()+`
		WHERE code_hash = $1
	`, hash).Scan(&c.ID, &c.UserID, &typ, &c.CodeHash, &c.CreatedAt, &c.ExpiresAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Code{}, ErrNotFound
	}
	if err != nil {
		return Code{}, fmt.Errorf("verification.FindByHash: %w", err)
	}
	c.Type = Type(typ)
	return c, nil
}

func (s *PostgresStore) table() string { return dbx.Ident(s.schema, "verification_codes") }
