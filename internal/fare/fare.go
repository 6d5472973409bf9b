// Package fare computes stage crowds, fares and boarding.
package fare

import (
	"math"

	"github.com/matatu-hustle/simcore/internal/economy"
	"github.com/matatu-hustle/simcore/internal/rng"
	"github.com/matatu-hustle/simcore/pkg/core"
)

const (
	MinFare        = 10.0
	FareRounding   = 10.0
	MarketLow      = 0.9
	MarketHigh     = 1.3
	EmptyStopOdds  = 0.10
	FullStopOdds   = 0.20
	TypicalLoad    = 0.6
	UpgradeBias    = 0.05 // extra crowd share per earnings upgrade level
	LegalPickupJoy = 2.0
	OverloadAnger  = 5.0
	MaxHappiness   = 100.0
)

// PerPassenger returns the fare for one boarding passenger at a stage.
func PerPassenger(src rng.Source, earningCap, earningsMult float64, legal int, totalUnits float64) float64 {
	if earningCap <= 0 || legal <= 0 {
		return MinFare
	}
	if earningsMult <= 0 {
		earningsMult = 1
	}
	stops := economy.EstimatedStops(totalUnits)
	avgLoad := economy.AverageLoadFactor * float64(legal)
	raw := earningCap * earningsMult / (stops * avgLoad) * rng.Range(src, MarketLow, MarketHigh)
	fare := math.Ceil(raw/FareRounding) * FareRounding
	return math.Max(MinFare, fare)
}

// Alighting draws how many of the current passengers leave at a stage.
func Alighting(src rng.Source, current int) int {
	if current <= 0 {
		return 0
	}
	return rng.IntRange(src, 0, current)
}

// Boarding returns how many waiting passengers board for choice, given the
// count on board after alighting.
func Boarding(choice core.StageChoice, onBoard, waiting, legal, capacity int) int {
	var room int
	switch choice {
	case core.StagePickupLegal:
		room = legal - onBoard
	case core.StagePickupOverload:
		room = capacity - onBoard
	default:
		return 0
	}
	if room <= 0 || waiting <= 0 {
		return 0
	}
	return min(room, waiting)
}

// NextWaiting draws the crowd waiting at the following stage. Unhappy
// passengers thin the crowd; earnings upgrades draw a slightly bigger one.
func NextWaiting(src rng.Source, legal, capacity int, happiness float64, earningsLevel int) int {
	if legal <= 0 {
		return 0
	}
	var base float64
	roll := src.Next()
	switch {
	case roll < EmptyStopOdds:
		base = float64(rng.IntRange(src, 0, max(1, legal/5)))
	case roll < EmptyStopOdds+FullStopOdds:
		base = float64(legal + rng.IntRange(src, 0, max(0, capacity-legal)))
	default:
		base = float64(legal) * TypicalLoad
	}
	scale := math.Max(0, math.Min(MaxHappiness, happiness)) / MaxHappiness
	bias := 1 + UpgradeBias*float64(earningsLevel)
	return int(math.Round(base * scale * bias))
}

// Happiness returns the mood after a stage decision.
func Happiness(h float64, choice core.StageChoice, boarded int) float64 {
	if boarded > 0 {
		switch choice {
		case core.StagePickupLegal:
			h += LegalPickupJoy
		case core.StagePickupOverload:
			h -= OverloadAnger
		}
	}
	return math.Max(0, math.Min(MaxHappiness, h))
}
