package police

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matatu-hustle/simcore/internal/rng"
	"github.com/matatu-hustle/simcore/pkg/core"
)

func TestDecide_OverloadedAlwaysStops(t *testing.T) {
	src := rng.NewSeeded("overloaded")
	for i := 0; i < 200; i++ {
		enc := Decide(src, 16, 14, false)
		require.NotNil(t, enc)
		assert.True(t, enc.Overloaded)
		assert.GreaterOrEqual(t, enc.Bribe, 2000.0)
		assert.LessOrEqual(t, enc.Bribe, 5000.0)
		assert.Equal(t, MessageOverloaded, enc.Message)
	}
}

func TestDecide_OverloadBribeBounds(t *testing.T) {
	assert.Equal(t, 2000.0, Decide(rng.NewSequence(0), 16, 14, false).Bribe)
	assert.Equal(t, 5000.0, Decide(rng.NewSequence(0.999), 16, 14, false).Bribe)
}

func TestDecide_Routine(t *testing.T) {
	enc := Decide(rng.NewSequence(0.1), 10, 14, false)
	require.NotNil(t, enc)
	assert.False(t, enc.Overloaded)
	assert.Equal(t, RoutineBribe, enc.Bribe)

	enc = Decide(rng.NewSequence(0.1), 2, 4, true)
	require.NotNil(t, enc)
	assert.Equal(t, PersonalBribe, enc.Bribe)
}

func TestDecide_WaveThrough(t *testing.T) {
	assert.Nil(t, Decide(rng.NewSequence(0.5), 14, 14, false))
	assert.Nil(t, Decide(rng.NewSequence(0.9), 0, 14, false))
}

func TestResolve_Pay(t *testing.T) {
	enc := core.PoliceEncounter{Bribe: 100}
	out := Resolve(rng.NewSequence(0), enc, core.PolicePay, 150)
	assert.Equal(t, Outcome{Closed: true, Paid: 100}, out)
}

func TestResolve_PayUnaffordable(t *testing.T) {
	enc := core.PoliceEncounter{Bribe: 3000, Overloaded: true}
	out := Resolve(rng.NewSequence(0), enc, core.PolicePay, 2999)
	assert.Equal(t, Outcome{}, out)
}

func TestResolve_RefuseOverloadedArrested(t *testing.T) {
	enc := core.PoliceEncounter{Bribe: 3000, Overloaded: true}
	out := Resolve(rng.NewSequence(0.1), enc, core.PoliceRefuse, 0)
	assert.True(t, out.Closed)
	assert.True(t, out.Arrested)
	assert.Zero(t, out.Paid)

	out = Resolve(rng.NewSequence(0.85), enc, core.PoliceRefuse, 0)
	assert.True(t, out.Closed)
	assert.False(t, out.Arrested)
}

func TestResolve_RefuseRoutine(t *testing.T) {
	enc := core.PoliceEncounter{Bribe: 100}
	assert.True(t, Resolve(rng.NewSequence(0.1), enc, core.PoliceRefuse, 0).Arrested)
	assert.False(t, Resolve(rng.NewSequence(0.5), enc, core.PoliceRefuse, 0).Arrested)
}

func TestResolve_UnknownChoice(t *testing.T) {
	out := Resolve(rng.NewSequence(0), core.PoliceEncounter{Bribe: 100}, "BEG", 1000)
	assert.Equal(t, Outcome{}, out)
}
