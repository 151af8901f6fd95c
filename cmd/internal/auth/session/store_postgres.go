package session

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

// PostgresStore implements Store using PostgreSQL (nra.sessions).
type PostgresStore struct {
	db     dbx.DB
	ttl    time.Duration
	schema string
}

// NewPostgresStore creates a Postgres-backed session store.
func NewPostgresStore(db dbx.DB, cfg Config, schema string) (*PostgresStore, error) {
	if db == nil {
		return nil, fmt.Errorf("session: nil db")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if schema == "" {
		schema = dbx.DefaultSchema
	}
	schema, err := dbx.ValidSchema(schema)
	if err != nil {
		return nil, fmt.Errorf("session: %w", err)
	}
	return &PostgresStore{db: db, ttl: cfg.TTL, schema: schema}, nil
}

// Create inserts a new session row and returns it.
func (s *PostgresStore) Create(ctx context.Context, userID, userAgent string, now time.Time) (Session, error) {
	sess, err := newSession(userID, userAgent, now, s.ttl)
	if err != nil {
		return Session{}, err
	}

	_, err = s.db.Exec(ctx, `
		INSERT INTO `+s.table()+` (id, user_id, user_agent, created_at, expires_at)
		VALUES ($1, $2, $3, $4, $5)
	`, sess.ID, sess.UserID, sess.UserAgent, sess.CreatedAt, sess.ExpiresAt)
	if err != nil {
		if dbx.ForeignKeyViolation(err) {
			return Session{}, ErrUnknownUser
		}
		return Session{}, fmt.Errorf("session.Create: %w", err)
	}
	return sess, nil
}

// FindByID loads a session row by ID.
func (s *PostgresStore) FindByID(ctx context.Context, id string) (Session, error) {
	var sess Session

	err := s.db.QueryRow(ctx, `
		SELECT id, user_id, user_agent, created_at, expires_at
		FROM `+s.table()+`
		WHERE id = $1
	`, id).Scan(
		&sess.ID,
		&sess.UserID,
		&sess.UserAgent,
		&sess.CreatedAt,
		&sess.ExpiresAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return Session{}, ErrSessionNotFound
	}
	if err != nil {
		return Session{}, fmt.Errorf("session.FindByID: %w", err)
	}
	return sess, nil
}

// UpdateExpiry sets expires_at for a session.
func (s *PostgresStore) UpdateExpiry(ctx context.Context, id string, expiresAt time.Time) error {
	tag, err := s.db.Exec(ctx, `
		UPDATE `+s.table()+`
		SET expires_at = $2
		WHERE id = $1
	`, id, expiresAt)
	if err != nil {
		return fmt.Errorf("session.UpdateExpiry: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrSessionNotFound
	}
	return nil
}

// Delete removes a session (idempotent).
func (s *PostgresStore) Delete(ctx context.Context, id string) error {
	_, err := s.db.Exec(ctx, `DELETE FROM `+s.table()+` WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("session.Delete: %w", err)
	}
	return nil
}

// ListByUser returns all sessions of a user, newest first.
func (s *PostgresStore) ListByUser(ctx context.Context, userID string) ([]Session, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, user_id, user_agent, created_at, expires_at
		FROM `+s.table()+`
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("session.ListByUser: %w", err)
	}
	defer rows.Close()

	out := make([]Session, 0)
	for rows.Next() {
		var sess Session
		if err := rows.Scan(&sess.ID, &sess.UserID, &sess.UserAgent, &sess.CreatedAt, &sess.ExpiresAt); err != nil {
			return nil, fmt.Errorf("session.ListByUser: %w", err)
		}
		out = append(out, sess)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("session.ListByUser: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) table() string { return dbx.Ident(s.schema, "sessions") }

func newSession(userID, userAgent string, now time.Time, ttl time.Duration) (Session, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return Session{}, ErrUnknownUser
	}
	if now.IsZero() {
		now = time.Now().UTC()
	}
	id, err := ids.NewULID(now)
	if err != nil {
		return Session{}, fmt.Errorf("session.Create: %w", err)
	}
	return Session{
		ID:        id,
		UserID:    userID,
		UserAgent: strings.TrimSpace(userAgent),
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
	}, nil
}
