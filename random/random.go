// Package random wraps random number generation behind an interface so
// game logic that picks a first player can be driven deterministically
// in tests.
package random

import (
	"math/rand"
	"sync"
	"time"
)

// Source provides random integers.
type Source interface {
	// Intn returns a random int in [0, n).
	Intn(n int) int
}

// LockedRand is a Source backed by math/rand, safe for concurrent use.
type LockedRand struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// New creates a LockedRand seeded from the current time.
func New() *LockedRand {
	return &LockedRand{rng: rand.New(rand.NewSource(time.Now().UnixNano()))}
}

func (r *LockedRand) Intn(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rng.Intn(n)
}
