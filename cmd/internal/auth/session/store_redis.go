package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore implements Store on Redis.
//
// Layout:
//   - <prefix>session:<id>        JSON record, TTL = remaining lifetime + retention
//   - <prefix>user_sessions:<uid> set of session ids (stale members pruned on read)
type RedisStore struct {
	rdb       redis.UniversalClient
	prefix    string
	ttl       time.Duration
	retention time.Duration
	now       func() time.Time
}

// RedisOption configures a RedisStore.
type RedisOption func(*RedisStore)

// WithRedisPrefix overrides the key prefix (default "nra:").
func WithRedisPrefix(prefix string) RedisOption {
	return func(s *RedisStore) {
		if prefix != "" {
			s.prefix = prefix
		}
	}
}

// WithRedisClock overrides the time source used to compute key TTLs.
func WithRedisClock(now func() time.Time) RedisOption {
	return func(s *RedisStore) {
		if now != nil {
			s.now = now
		}
	}
}

// NewRedisStore creates a Redis-backed session store.
func NewRedisStore(rdb redis.UniversalClient, cfg Config, opts ...RedisOption) (*RedisStore, error) {
	if rdb == nil {
		return nil, fmt.Errorf("session: nil redis client")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	s := &RedisStore{
		rdb:       rdb,
		prefix:    "nra:",
		ttl:       cfg.TTL,
		retention: cfg.RedisRetention,
		now:       func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s, nil
}

type redisRecord struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	UserAgent string    `json:"userAgent"`
	CreatedAt time.Time `json:"createdAt"`
	ExpiresAt time.Time `json:"expiresAt"`
}

func (s *RedisStore) key(id string) string         { return s.prefix + "session:" + id }
func (s *RedisStore) userKey(userID string) string { return s.prefix + "user_sessions:" + userID }
func (s *RedisStore) keyTTL(expiresAt time.Time) time.Duration {
	d := expiresAt.Sub(s.now()) + s.retention
	if d < time.Second {
		return time.Second
	}
	return d
}

// The user index only ever has its TTL lengthened, so it outlives every
// session it lists. A key with no TTL yet (fresh SADD) always gets one.
const extendIndexSnippet = `
local cur = redis.call("PTTL", KEYS[IDX])
local want = tonumber(ARGV[TTL])
if cur < 0 or cur < want then
  redis.call("PEXPIRE", KEYS[IDX], want)
end
`

const createSessionScript = `
redis.call("SET", KEYS[1], ARGV[1], "PX", ARGV[2])
redis.call("SADD", KEYS[2], ARGV[3])
local IDX, TTL = 2, 2
` + extendIndexSnippet

const extendIndexScript = `
local IDX, TTL = 1, 1
` + extendIndexSnippet

var (
	createSessionLua = redis.NewScript(createSessionScript)
	extendIndexLua   = redis.NewScript(extendIndexScript)
)

// Create stores the record and indexes it under the user atomically.
func (s *RedisStore) Create(ctx context.Context, userID, userAgent string, now time.Time) (Session, error) {
	sess, err := newSession(userID, userAgent, now, s.ttl)
	if err != nil {
		return Session{}, err
	}
	blob, err := json.Marshal(redisRecord(sess))
	if err != nil {
		return Session{}, fmt.Errorf("session.Create: %w", err)
	}

	ttl := s.keyTTL(sess.ExpiresAt)
	keys := []string{s.key(sess.ID), s.userKey(sess.UserID)}
	err = createSessionLua.Run(ctx, s.rdb, keys, blob, ttl.Milliseconds(), sess.ID).Err()
	if err != nil && !errors.Is(err, redis.Nil) {
		return Session{}, fmt.Errorf("session.Create: %w", err)
	}
	return sess, nil
}

// FindByID loads a session record.
func (s *RedisStore) FindByID(ctx context.Context, id string) (Session, error) {
	blob, err := s.rdb.Get(ctx, s.key(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return Session{}, ErrSessionNotFound
	}
	if err != nil {
		return Session{}, fmt.Errorf("session.FindByID: %w", err)
	}
	return decodeRecord(blob)
}

// UpdateExpiry rewrites the record only if it still exists (SET XX).
func (s *RedisStore) UpdateExpiry(ctx context.Context, id string, expiresAt time.Time) error {
	sess, err := s.FindByID(ctx, id)
	if err != nil {
		return err
	}
	sess.ExpiresAt = expiresAt

	blob, err := json.Marshal(redisRecord(sess))
	if err != nil {
		return fmt.Errorf("session.UpdateExpiry: %w", err)
	}

	ttl := s.keyTTL(expiresAt)
	err = s.rdb.SetArgs(ctx, s.key(id), blob, redis.SetArgs{Mode: "XX", TTL: ttl}).Err()
	if errors.Is(err, redis.Nil) {
		return ErrSessionNotFound
	}
	if err != nil {
		return fmt.Errorf("session.UpdateExpiry: %w", err)
	}
	err = extendIndexLua.Run(ctx, s.rdb, []string{s.userKey(sess.UserID)}, ttl.Milliseconds()).Err()
	if err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("session.UpdateExpiry: %w", err)
	}
	return nil
}

const deleteSessionScript = `
local existed = redis.call("EXISTS", KEYS[1])
redis.call("SREM", KEYS[2], ARGV[1])
if existed == 1 then
  redis.call("DEL", KEYS[1])
end
return existed
`

var deleteSessionLua = redis.NewScript(deleteSessionScript)

// Delete removes the record and its index entry (idempotent).
func (s *RedisStore) Delete(ctx context.Context, id string) error {
	sess, err := s.FindByID(ctx, id)
	if errors.Is(err, ErrSessionNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	err = deleteSessionLua.Run(ctx, s.rdb, []string{s.key(id), s.userKey(sess.UserID)}, id).Err()
	if err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("session.Delete: %w", err)
	}
	return nil
}

// ListByUser returns the user's sessions newest first, pruning index entries whose record is gone.
func (s *RedisStore) ListByUser(ctx context.Context, userID string) ([]Session, error) {
	ids, err := s.rdb.SMembers(ctx, s.userKey(userID)).Result()
	if err != nil {
		return nil, fmt.Errorf("session.ListByUser: %w", err)
	}
	out := make([]Session, 0, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = s.key(id)
	}
	vals, err := s.rdb.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("session.ListByUser: %w", err)
	}

	var stale []any
	for i, v := range vals {
		raw, ok := v.(string)
		if !ok {
			stale = append(stale, ids[i])
			continue
		}
		sess, err := decodeRecord([]byte(raw))
		if err != nil {
			return nil, err
		}
		out = append(out, sess)
	}
	if len(stale) > 0 {
		_ = s.rdb.SRem(ctx, s.userKey(userID), stale...).Err()
	}

	sortNewestFirst(out)
	return out, nil
}

func decodeRecord(blob []byte) (Session, error) {
	var rec redisRecord
	if err := json.Unmarshal(blob, &rec); err != nil {
		return Session{}, fmt.Errorf("session: corrupt redis record: %w", err)
	}
	return Session(rec), nil
}
