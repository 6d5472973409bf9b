// Package route tracks progress along a route and schedules its stage and
// police triggers.
package route

import (
	"math"

	"github.com/matatu-hustle/simcore/internal/economy"
	"github.com/matatu-hustle/simcore/internal/rng"
	"github.com/matatu-hustle/simcore/pkg/core"
)

// Trigger distances in units, measured from the current position.
const (
	StageGapMin      = 2000.0
	StageGapMax      = 3000.0
	FirstPoliceMin   = 3500.0
	FirstPoliceMax   = 5500.0
	PoliceGapMin     = 3000.0
	PoliceGapMax     = 5000.0
	StopGapLookahead = 300.0
)

// Event is what a distance update ran into.
type Event int

const (
	EventNone Event = iota
	EventCompleted
	EventPolice
	EventStage
)

func (e Event) String() string {
	switch e {
	case EventCompleted:
		return "completed"
	case EventPolice:
		return "police"
	case EventStage:
		return "stage"
	default:
		return "none"
	}
}

// Tracker owns distance travelled and the upcoming trigger points.
type Tracker struct {
	Distance   float64
	Total      float64
	NextStage  float64
	NextPolice float64

	triggers bool
	src      rng.Source
}

// NewTracker starts at distance 0. RACE routes never schedule triggers.
func NewTracker(r core.Route, src rng.Source) *Tracker {
	t := &Tracker{
		Total:      r.DistanceKm * economy.UnitsPerKm,
		NextStage:  math.Inf(1),
		NextPolice: math.Inf(1),
		triggers:   r.Mode != core.ModeRace,
		src:        src,
	}
	if t.triggers {
		t.NextStage = rng.Range(src, StageGapMin, StageGapMax)
		t.NextPolice = rng.Range(src, FirstPoliceMin, FirstPoliceMax)
	}
	return t
}

// Triggers reports whether stage and police encounters are enabled.
func (t *Tracker) Triggers() bool {
	return t.triggers
}

// Advance applies delta units unless an encounter is open. Completion is
// checked first, then police, then stage; a crossed trigger clamps the
// distance to the trigger point.
func (t *Tracker) Advance(delta float64, modalOpen bool) Event {
	if modalOpen || delta < 0 {
		return EventNone
	}
	target := t.Distance + delta
	if target >= t.Total {
		t.Distance = t.Total
		return EventCompleted
	}
	if t.triggers {
		policeHit := target >= t.NextPolice
		stageHit := target >= t.NextStage
		if policeHit && (!stageHit || t.NextPolice <= t.NextStage) {
			t.Distance = t.NextPolice
			return EventPolice
		}
		if stageHit {
			t.Distance = t.NextStage
			return EventStage
		}
	}
	t.Distance = target
	return EventNone
}

// StopGap returns the distance to the nearest trigger that lies strictly
// ahead within StopGapLookahead, or -1.
func (t *Tracker) StopGap() float64 {
	gap := -1.0
	for _, next := range []float64{t.NextStage, t.NextPolice} {
		d := next - t.Distance
		if d > 0 && d <= StopGapLookahead && (gap < 0 || d < gap) {
			gap = d
		}
	}
	return gap
}

// RescheduleStage moves the next stage ahead of the current position, or
// of the pending stage when that has not been reached yet. It never moves
// backwards.
func (t *Tracker) RescheduleStage() {
	if t.triggers {
		t.NextStage = max(t.Distance, t.NextStage) + rng.Range(t.src, StageGapMin, StageGapMax)
	}
}

// ReschedulePolice moves the next police check forward, like RescheduleStage.
func (t *Tracker) ReschedulePolice() {
	if t.triggers {
		t.NextPolice = max(t.Distance, t.NextPolice) + rng.Range(t.src, PoliceGapMin, PoliceGapMax)
	}
}

// Progress is the completed fraction of the route.
func (t *Tracker) Progress() float64 {
	if t.Total <= 0 {
		return 0
	}
	return math.Min(1, t.Distance/t.Total)
}

// Complete reports whether the end of the route has been reached.
func (t *Tracker) Complete() bool {
	return t.Distance >= t.Total
}
