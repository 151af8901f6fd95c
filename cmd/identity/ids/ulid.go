// Package ids generates the sortable identifiers used for users, sessions and
// verification codes.
package ids

import (
	"crypto/rand"
	"fmt"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

var (
	mu      sync.Mutex
	entropy = ulid.Monotonic(rand.Reader, 0)
)

// NewULID returns a 26-char ULID stamped with now (current time when zero).
// IDs minted in the same millisecond increase monotonically.
func NewULID(now time.Time) (string, error) {
	if now.IsZero() {
		now = time.Now().UTC()
	}

	mu.Lock()
	id, err := ulid.New(ulid.Timestamp(now), entropy)
	mu.Unlock()
	if err != nil {
		return "", fmt.Errorf("ids: ulid: %w", err)
	}
	return id.String(), nil
}
