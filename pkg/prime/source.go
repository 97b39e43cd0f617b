package prime

import (
	"math/rand/v2"
	"sync"
)

// Source supplies the random starting probe for Generate.
type Source interface {
	// Uint64N returns a uniform value in [0, n). n is always positive.
	Uint64N(n uint64) uint64
}

type globalSource struct{}

func (globalSource) Uint64N(n uint64) uint64 {
	return rand.Uint64N(n)
}

// GlobalSource returns a Source backed by the math/rand/v2 top-level
// generator. It is safe for concurrent use.
func GlobalSource() Source {
	return globalSource{}
}

// SeededSource is a reproducible Source. It is safe for concurrent use.
type SeededSource struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewSeededSource returns a PCG-backed Source seeded with seed.
func NewSeededSource(seed uint64) *SeededSource {
	return &SeededSource{
		rng: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
	}
}

// Uint64N implements Source.
func (s *SeededSource) Uint64N(n uint64) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rng.Uint64N(n)
}
