// Package rng provides the random sources used by the simulation.
//
// Single-player sessions draw from platform randomness. Multiplayer sessions
// use a linear congruential generator seeded from the room id so every client
// derives the same traffic and event sequence given the same call order.
package rng

import (
	"hash/fnv"
	"math/rand/v2"
)

// Source is a uniform random source in [0,1).
type Source interface {
	Next() float64
}

// Chance returns true with probability p.
func Chance(s Source, p float64) bool {
	return s.Next() < p
}

// Range returns a float in [lo,hi).
func Range(s Source, lo, hi float64) float64 {
	if hi <= lo {
		return lo
	}
	return lo + s.Next()*(hi-lo)
}

// Intn returns an int in [0,n). Returns 0 when n <= 0.
func Intn(s Source, n int) int {
	if n <= 0 {
		return 0
	}
	i := int(s.Next() * float64(n))
	if i >= n {
		i = n - 1
	}
	return i
}

// IntRange returns an int in [lo,hi] inclusive.
func IntRange(s Source, lo, hi int) int {
	if hi <= lo {
		return lo
	}
	return lo + Intn(s, hi-lo+1)
}

// Pick returns a random element of list, or the zero value if list is empty.
func Pick[T any](s Source, list []T) T {
	if len(list) == 0 {
		var zero T
		return zero
	}
	return list[Intn(s, len(list))]
}

// Unseeded wraps the runtime's random generator.
type Unseeded struct{}

// NewUnseeded returns a source backed by math/rand/v2.
func NewUnseeded() *Unseeded {
	return &Unseeded{}
}

func (*Unseeded) Next() float64 {
	return rand.Float64()
}

// LCG constants (Numerical Recipes).
const (
	lcgMultiplier = 1664525
	lcgIncrement  = 1013904223
)

// Seeded is a deterministic 32-bit linear congruential generator.
type Seeded struct {
	state uint32
}

// NewSeeded returns a generator keyed by a stable string such as a room id.
func NewSeeded(key string) *Seeded {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return &Seeded{state: h.Sum32()}
}

func (s *Seeded) Next() float64 {
	s.state = s.state*lcgMultiplier + lcgIncrement
	return float64(s.state) / (1 << 32)
}

// ForSession selects the seeded generator when a multiplayer room id is
// present and platform randomness otherwise.
func ForSession(roomID string) Source {
	if roomID != "" {
		return NewSeeded(roomID)
	}
	return NewUnseeded()
}

// Sequence replays fixed values, cycling when exhausted. Intended for tests
// that need to force stochastic outcomes.
type Sequence struct {
	values []float64
	pos    int
}

// NewSequence returns a Sequence over values. With no values it always returns 0.
func NewSequence(values ...float64) *Sequence {
	return &Sequence{values: values}
}

func (s *Sequence) Next() float64 {
	if len(s.values) == 0 {
		return 0
	}
	v := s.values[s.pos%len(s.values)]
	s.pos++
	return v
}
