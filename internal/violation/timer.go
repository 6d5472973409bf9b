// Package violation tracks how long the driver stays in an illegal lane.
package violation

import "math"

const (
	// Ceiling is the dwell time after which the driver is arrested.
	Ceiling = 8.0
	// WarnAfter is the dwell time after which each whole second plays a warning.
	WarnAfter        = 2.0
	SampleInterval   = 0.5
	HappinessPenalty = 3.0 // per sample
	RecoveryRate     = 2.0 // decay multiple of the accrual rate
)

// Timer accumulates illegal-lane dwell time.
type Timer struct {
	Overlap float64
	sample  float64
}

// Outcome is what a single update produced.
type Outcome struct {
	HappinessDelta float64
	Warn           bool
	Arrest         bool
}

// Update advances the timer by dt. active reports whether the driver is
// currently violating the route's rule.
func (t *Timer) Update(dt float64, active bool) Outcome {
	if dt <= 0 {
		return Outcome{}
	}
	if !active {
		t.Overlap = math.Max(0, t.Overlap-RecoveryRate*dt)
		t.sample = 0
		return Outcome{}
	}

	var out Outcome
	prev := t.Overlap
	t.Overlap += dt

	t.sample += dt
	for t.sample >= SampleInterval {
		t.sample -= SampleInterval
		out.HappinessDelta -= HappinessPenalty
	}

	if t.Overlap > WarnAfter && math.Floor(t.Overlap) > math.Floor(prev) {
		out.Warn = true
	}
	out.Arrest = t.Overlap > Ceiling
	return out
}

// Reset clears the timer.
func (t *Timer) Reset() {
	*t = Timer{}
}
