package verification

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore keeps codes under <prefix>verification:<hash> until they expire.
type RedisStore struct {
	rdb    redis.UniversalClient
	prefix string
	now    func() time.Time
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

func NewRedisStore(rdb redis.UniversalClient, opts ...RedisOption) (*RedisStore, error) {
	if rdb == nil {
		return nil, fmt.Errorf("verification: nil redis client")
	}
	s := &RedisStore{
		rdb:    rdb,
		prefix: "nra:",
		now:    func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s, nil
}

type redisCode struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	Type      Type      `json:"type"`
	CodeHash  string    `json:"codeHash"`
	CreatedAt time.Time `json:"createdAt"`
	ExpiresAt time.Time `json:"expiresAt"`
}

func (s *RedisStore) key(hash string) string { return s.prefix + "verification:" + hash }

// Insert stores c with a TTL matching its remaining lifetime; SET NX refuses to overwrite.
func (s *RedisStore) Insert(ctx context.Context, c Code) error {
	ttl := c.ExpiresAt.Sub(s.now())
	if ttl < time.Second {
		ttl = time.Second
	}
	blob, err := json.Marshal(redisCode(c))
	if err != nil {
		return fmt.Errorf("verification.Insert: %w", err)
	}
	ok, err := s.rdb.SetNX(ctx, s.key(c.CodeHash), blob, ttl).Result()
	if err != nil {
		return fmt.Errorf("verification.Insert: %w", err)
	}
	if !ok {
		return fmt.Errorf("verification.Insert: duplicate code hash")
	}
	return nil
}

func (s *RedisStore) FindByHash(ctx context.Context, hash string) (Code, error) {
	blob, err := s.rdb.Get(ctx, s.key(hash)).Bytes()
	if errors.Is(err, redis.Nil) {
		return Code{}, ErrNotFound
	}
	if err != nil {
		return Code{}, fmt.Errorf("verification.FindByHash: %w", err)
	}
	var rc redisCode
	if err := json.Unmarshal(blob, &rc); err != nil {
		return Code{}, fmt.Errorf("verification: corrupt redis record: %w", err)
	}
	return Code(rc), nil
}

var (
	_ Store = (*MemoryStore)(nil)
	_ Store = (*PostgresStore)(nil)
	_ Store = (*RedisStore)(nil)
)
