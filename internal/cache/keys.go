package cache

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// KeyGenerator produces the key a stored value is written under.
type KeyGenerator interface {
	Generate() (string, error)
}

// RandomGenerator generates random (version 4) UUID keys: 122 random bits
// in the canonical 36-character hyphenated form. Collisions are not
// checked for.
//
// Thread-safety: RandomGenerator is stateless and safe for concurrent use.
type RandomGenerator struct{}

// Generate returns a fresh key such as "550e8400-e29b-41d4-a716-446655440000".
func (RandomGenerator) Generate() (string, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return "", fmt.Errorf("generate key: %w", err)
	}
	return id.String(), nil
}

// SequenceGenerator returns predictable keys for tests and golden files:
// "<prefix>-1", "<prefix>-2", ...
//
// Thread-safety: SequenceGenerator is safe for concurrent use.
type SequenceGenerator struct {
	mu     sync.Mutex
	prefix string
	n      int
}

// NewSequenceGenerator creates a generator whose keys start with prefix.
// An empty prefix defaults to "key".
func NewSequenceGenerator(prefix string) *SequenceGenerator {
	if prefix == "" {
		prefix = "key"
	}
	return &SequenceGenerator{prefix: prefix}
}

func (g *SequenceGenerator) Generate() (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n++
	return fmt.Sprintf("%s-%d", g.prefix, g.n), nil
}
