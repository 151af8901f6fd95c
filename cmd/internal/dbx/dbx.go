// Package dbx holds the small pgx abstractions shared by the Postgres stores.
package dbx

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DB is the subset of pgx used by the stores.
// *pgxpool.Pool, pgx.Tx and pgxmock pools all satisfy it.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// DefaultSchema is the schema created by the embedded migrations.
const DefaultSchema = "nra"

var identRe = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// ValidSchema trims and validates a Postgres schema identifier.
func ValidSchema(schema string) (string, error) {
	schema = strings.TrimSpace(schema)
	if schema == "" {
		return "", fmt.Errorf("dbx: empty schema")
	}
	if !identRe.MatchString(schema) {
		return "", fmt.Errorf("dbx: invalid schema identifier %q", schema)
	}
	return schema, nil
}

// Ident safely quotes a schema-qualified identifier: "schema"."name".
func Ident(schema, name string) string {
	return pgx.Identifier{schema, name}.Sanitize()
}

// UniqueViolation reports the constraint name of a unique_violation (23505).
func UniqueViolation(err error) (constraint string, ok bool) {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != "23505" {
		return "", false
	}
	return strings.ToLower(strings.TrimSpace(pgErr.ConstraintName)), true
}

// ForeignKeyViolation reports whether err is a foreign_key_violation (23503).
func ForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	return pgErr.Code == "23503"
}
