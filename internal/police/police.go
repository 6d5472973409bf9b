// Package police decides checkpoint stops and resolves the driver's response.
package police

import (
	"github.com/matatu-hustle/simcore/internal/rng"
	"github.com/matatu-hustle/simcore/pkg/core"
)

const (
	StopChance          = 0.5
	RoutineBribe        = 100.0
	PersonalBribe       = 200.0
	OverloadBribeMin    = 2000
	OverloadBribeMax    = 5000
	OverloadBribeStep   = 100
	OverloadArrestOdds  = 0.8
	RoutineArrestOdds   = 0.2
	MessageOverloaded   = "Overloaded! That will cost you."
	MessageRoutineCheck = "Routine check. Licence and insurance?"
)

// Decide returns the encounter for a police check, or nil when the officer
// waves the vehicle through.
func Decide(src rng.Source, passengers, legal int, personal bool) *core.PoliceEncounter {
	if passengers > legal {
		steps := rng.IntRange(src, OverloadBribeMin/OverloadBribeStep, OverloadBribeMax/OverloadBribeStep)
		return &core.PoliceEncounter{
			Bribe:      float64(steps * OverloadBribeStep),
			Overloaded: true,
			Message:    MessageOverloaded,
		}
	}
	if !rng.Chance(src, StopChance) {
		return nil
	}
	bribe := RoutineBribe
	if personal {
		bribe = PersonalBribe
	}
	return &core.PoliceEncounter{Bribe: bribe, Message: MessageRoutineCheck}
}

// Outcome is the effect of a police decision.
type Outcome struct {
	Closed   bool
	Paid     float64
	Arrested bool
}

// Resolve applies choice to an open encounter. Paying without enough cash
// leaves the encounter open.
func Resolve(src rng.Source, enc core.PoliceEncounter, choice core.PoliceChoice, cash float64) Outcome {
	switch choice {
	case core.PolicePay:
		if cash < enc.Bribe {
			return Outcome{}
		}
		return Outcome{Closed: true, Paid: enc.Bribe}
	case core.PoliceRefuse:
		odds := RoutineArrestOdds
		if enc.Overloaded {
			odds = OverloadArrestOdds
		}
		return Outcome{Closed: true, Arrested: rng.Chance(src, odds)}
	default:
		return Outcome{}
	}
}
