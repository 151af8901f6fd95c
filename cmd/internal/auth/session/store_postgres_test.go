package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newPostgresFixture(t *testing.T) (*PostgresStore, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	s, err := NewPostgresStore(mock, DefaultConfig(), "")
	require.NoError(t, err)
	return s, mock
}

func sessionColumns() []string {
	return []string{"id", "user_id", "user_agent", "created_at", "expires_at"}
}

func TestNewPostgresStore_Validation(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	_, err = NewPostgresStore(nil, DefaultConfig(), "")
	assert.Error(t, err)

	_, err = NewPostgresStore(mock, DefaultConfig(), "drop table;")
	assert.Error(t, err)

	bad := DefaultConfig()
	bad.RotationThreshold = bad.TTL
	_, err = NewPostgresStore(mock, bad, "")
	assert.True(t, errors.Is(err, ErrConfig))
}

func TestPostgresStore_Create(t *testing.T) {
	s, mock := newPostgresFixture(t)
	defer mock.Close()

	now := time.Now().UTC().Truncate(time.Microsecond)
	mock.ExpectExec(`INSERT INTO "nra"."sessions"`).
		WithArgs(pgxmock.AnyArg(), "u1", "agent/1.0", now, now.Add(30*24*time.Hour)).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	sess, err := s.Create(context.Background(), "u1", "agent/1.0", now)
	require.NoError(t, err)
	assert.Len(t, sess.ID, 26)
	assert.Equal(t, now.Add(30*24*time.Hour), sess.ExpiresAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_Create_UnknownUser(t *testing.T) {
	s, mock := newPostgresFixture(t)
	defer mock.Close()

	mock.ExpectExec(`INSERT INTO "nra"."sessions"`).
		WithArgs(pgxmock.AnyArg(), "ghost", "", pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnError(&pgconn.PgError{Code: "23503"})

	_, err := s.Create(context.Background(), "ghost", "", time.Now().UTC())
	assert.True(t, errors.Is(err, ErrUnknownUser), "got %v", err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_FindByID(t *testing.T) {
	s, mock := newPostgresFixture(t)
	defer mock.Close()

	now := time.Now().UTC().Truncate(time.Microsecond)
	mock.ExpectQuery(`(?s)SELECT .+ FROM "nra"."sessions".+WHERE id = \$1`).
		WithArgs("s1").
		WillReturnRows(pgxmock.NewRows(sessionColumns()).AddRow("s1", "u1", "", now, now.Add(time.Hour)))

	sess, err := s.FindByID(context.Background(), "s1")
	require.NoError(t, err)
	assert.Equal(t, "u1", sess.UserID)
	assert.Equal(t, now.Add(time.Hour), sess.ExpiresAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_FindByID_NotFound(t *testing.T) {
	s, mock := newPostgresFixture(t)
	defer mock.Close()

	mock.ExpectQuery(`(?s)SELECT .+ FROM "nra"."sessions"`).
		WithArgs("missing").
		WillReturnError(pgx.ErrNoRows)

	_, err := s.FindByID(context.Background(), "missing")
	assert.True(t, errors.Is(err, ErrSessionNotFound))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_UpdateExpiry(t *testing.T) {
	s, mock := newPostgresFixture(t)
	defer mock.Close()

	exp := time.Now().UTC().Add(48 * time.Hour).Truncate(time.Microsecond)
	mock.ExpectExec(`(?s)UPDATE "nra"."sessions".+SET expires_at = \$2`).
		WithArgs("s1", exp).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectExec(`(?s)UPDATE "nra"."sessions"`).
		WithArgs("missing", exp).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	require.NoError(t, s.UpdateExpiry(context.Background(), "s1", exp))
	err := s.UpdateExpiry(context.Background(), "missing", exp)
	assert.True(t, errors.Is(err, ErrSessionNotFound))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_Delete_Idempotent(t *testing.T) {
	s, mock := newPostgresFixture(t)
	defer mock.Close()

	mock.ExpectExec(`DELETE FROM "nra"."sessions" WHERE id = \$1`).
		WithArgs("s1").
		WillReturnResult(pgxmock.NewResult("DELETE", 1))
	mock.ExpectExec(`DELETE FROM "nra"."sessions" WHERE id = \$1`).
		WithArgs("s1").
		WillReturnResult(pgxmock.NewResult("DELETE", 0))

	require.NoError(t, s.Delete(context.Background(), "s1"))
	require.NoError(t, s.Delete(context.Background(), "s1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_ListByUser(t *testing.T) {
	s, mock := newPostgresFixture(t)
	defer mock.Close()

	now := time.Now().UTC().Truncate(time.Microsecond)
	mock.ExpectQuery(`(?s)SELECT .+ WHERE user_id = \$1.+ORDER BY created_at DESC`).
		WithArgs("u1").
		WillReturnRows(pgxmock.NewRows(sessionColumns()).
			AddRow("s2", "u1", "b", now, now.Add(time.Hour)).
			AddRow("s1", "u1", "a", now.Add(-time.Hour), now.Add(time.Hour)))

	list, err := s.ListByUser(context.Background(), "u1")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "s2", list[0].ID)
	assert.Equal(t, "a", list[1].UserAgent)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_ListByUser_QueryError(t *testing.T) {
	s, mock := newPostgresFixture(t)
	defer mock.Close()

	mock.ExpectQuery(`(?s)SELECT .+ WHERE user_id = \$1`).
		WithArgs("u1").
		WillReturnError(errors.New("connection reset"))

	_, err := s.ListByUser(context.Background(), "u1")
	require.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
