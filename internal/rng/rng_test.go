package rng

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSeeded_SameKeySameSequence(t *testing.T) {
	a := NewSeeded("ROOM42")
	b := NewSeeded("ROOM42")

	for i := 0; i < 100; i++ {
		assert.Equal(t, a.Next(), b.Next(), "draw %d diverged", i)
	}
}

func TestSeeded_DifferentKeysDiverge(t *testing.T) {
	a := NewSeeded("ROOM42")
	b := NewSeeded("ROOM43")

	same := 0
	for i := 0; i < 20; i++ {
		if a.Next() == b.Next() {
			same++
		}
	}
	assert.Less(t, same, 20)
}

func TestSeeded_UnitInterval(t *testing.T) {
	s := NewSeeded("bounds")
	for i := 0; i < 10000; i++ {
		v := s.Next()
		assert.GreaterOrEqual(t, v, 0.0)
		assert.Less(t, v, 1.0)
	}
}

func TestForSession(t *testing.T) {
	_, seeded := ForSession("ABC123").(*Seeded)
	assert.True(t, seeded)

	_, unseeded := ForSession("").(*Unseeded)
	assert.True(t, unseeded)
}

func TestHelpers(t *testing.T) {
	s := NewSequence(0.1, 0.5, 0.99)

	assert.True(t, Chance(s, 0.8))           // 0.1
	assert.Equal(t, 15.0, Range(s, 10, 20)) // 0.5
	assert.Equal(t, 4, Intn(s, 5))          // 0.99
}

func TestIntRange_Inclusive(t *testing.T) {
	assert.Equal(t, 0, IntRange(NewSequence(0), 0, 10))
	assert.Equal(t, 10, IntRange(NewSequence(0.999), 0, 10))
	assert.Equal(t, 3, IntRange(NewSequence(0.5), 3, 3))
}

func TestPick(t *testing.T) {
	assert.Equal(t, "c", Pick(NewSequence(0.9), []string{"a", "b", "c"}))
	assert.Equal(t, "", Pick(NewSequence(0.9), []string(nil)))
}

func TestSequence_Cycles(t *testing.T) {
	s := NewSequence(0.2, 0.4)
	assert.Equal(t, 0.2, s.Next())
	assert.Equal(t, 0.4, s.Next())
	assert.Equal(t, 0.2, s.Next())
	assert.Equal(t, 0.0, NewSequence().Next())
}
