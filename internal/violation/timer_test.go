package violation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUpdate_ArrestOnTheCrossingTick(t *testing.T) {
	timer := &Timer{Overlap: 7.5}
	out := timer.Update(1.0, true)
	assert.Equal(t, 8.5, timer.Overlap)
	assert.True(t, out.Arrest)
}

func TestUpdate_NoArrestAtCeiling(t *testing.T) {
	timer := &Timer{Overlap: 7.5}
	out := timer.Update(0.5, true)
	assert.Equal(t, 8.0, timer.Overlap)
	assert.False(t, out.Arrest)
}

func TestUpdate_HappinessSampled(t *testing.T) {
	timer := &Timer{}
	var total float64
	for i := 0; i < 8; i++ {
		total += timer.Update(0.125, true).HappinessDelta
	}
	// 1.0s of dwell -> 2 samples
	assert.InDelta(t, -6.0, total, 1e-9)
}

func TestUpdate_WarningsOnWholeSecondsAfterThreshold(t *testing.T) {
	timer := &Timer{}
	var warnings []float64
	for i := 0; i < 50; i++ {
		if timer.Update(0.125, true).Warn {
			warnings = append(warnings, timer.Overlap)
		}
	}
	// dwell reaches 6.25s; warnings at 3, 4, 5, 6
	assert.Equal(t, []float64{3, 4, 5, 6}, warnings)
}

func TestUpdate_WarnWhenCrossingTwo(t *testing.T) {
	timer := &Timer{Overlap: 1.9}
	assert.True(t, timer.Update(0.2, true).Warn)
}

func TestUpdate_DecaysTwiceAsFast(t *testing.T) {
	timer := &Timer{Overlap: 3}
	out := timer.Update(1, false)
	assert.Equal(t, 1.0, timer.Overlap)
	assert.Equal(t, Outcome{}, out)

	timer.Update(5, false)
	assert.Zero(t, timer.Overlap)
}

func TestUpdate_ZeroDT(t *testing.T) {
	timer := &Timer{Overlap: 3}
	assert.Equal(t, Outcome{}, timer.Update(0, true))
	assert.Equal(t, 3.0, timer.Overlap)
}

func TestReset(t *testing.T) {
	timer := &Timer{Overlap: 4}
	timer.Update(0.3, true)
	timer.Reset()
	assert.Zero(t, timer.Overlap)
	assert.Zero(t, timer.Update(0.3, true).HappinessDelta)
}
