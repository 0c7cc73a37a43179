// Package entropy provides the single random stream that drives a realization.
// Every stochastic decision of a run draws from one Stream in a fixed order,
// so a seed fully determines the outcome.
package entropy

import (
	"crypto/rand"
	"encoding/binary"
	mrand "math/rand"
)

// Stream is the source of randomness threaded through the engine.
type Stream interface {
	// Float returns a uniform value in [0, 1).
	Float() float64
	// Intn returns a uniform integer in [0, n). n must be positive.
	Intn(n int) int
}

// Source is a seeded pseudorandom Stream. It counts draws so runs can log
// how much of the stream they consumed.
type Source struct {
	seed  int64
	rng   *mrand.Rand
	draws uint64
}

// NewSource creates a Stream seeded once with seed.
func NewSource(seed int64) *Source {
	return &Source{
		seed: seed,
		rng:  mrand.New(mrand.NewSource(seed)),
	}
}

// Float returns a uniform value in [0, 1).
func (s *Source) Float() float64 {
	s.draws++
	return s.rng.Float64()
}

// Intn returns a uniform integer in [0, n).
func (s *Source) Intn(n int) int {
	s.draws++
	return s.rng.Intn(n)
}

// Seed returns the seed the source was created with.
func (s *Source) Seed() int64 {
	return s.seed
}

// Draws returns the number of values consumed so far.
func (s *Source) Draws() uint64 {
	return s.draws
}

// Shuffle permutes idx in place (Fisher-Yates), consuming len(idx)-1 draws.
func Shuffle(s Stream, idx []int) {
	for i := len(idx) - 1; i > 0; i-- {
		j := s.Intn(i + 1)
		idx[i], idx[j] = idx[j], idx[i]
	}
}

// MaxSeed is the largest seed a run accepts. Realization k runs with
// seed+k-1, so the headroom below MaxInt64 keeps every derived seed positive.
const MaxSeed = 1<<62 - 1

// RandomSeed returns a seed in [1, MaxSeed] from crypto/rand, for runs
// configured with seed 0.
func RandomSeed() int64 {
	var buf [8]byte
	if _, err := rand.Read(buf[:]); err != nil {
		// This should never happen; fall back to a fixed seed.
		return 1
	}
	seed := int64(binary.LittleEndian.Uint64(buf[:]) & MaxSeed)
	if seed == 0 {
		return 1
	}
	return seed
}
