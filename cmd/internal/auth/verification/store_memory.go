package verification

import (
	"context"
	"sync"
)

// MemoryStore is an in-process Store.
type MemoryStore struct {
	mu     sync.RWMutex
	byHash map[string]Code
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{byHash: make(map[string]Code)}
}

func (s *MemoryStore) Insert(ctx context.Context, c Code) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.byHash[c.CodeHash] = c
	return nil
}

func (s *MemoryStore) FindByHash(ctx context.Context, hash string) (Code, error) {
	if err := ctx.Err(); err != nil {
		return Code{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.byHash[hash]
	if !ok {
		return Code{}, ErrNotFound
	}
	return c, nil
}

// Len reports the number of stored codes.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byHash)
}
