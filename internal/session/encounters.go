package session

import (
	"github.com/google/uuid"

	"github.com/matatu-hustle/simcore/internal/economy"
	"github.com/matatu-hustle/simcore/internal/fare"
	"github.com/matatu-hustle/simcore/internal/police"
	"github.com/matatu-hustle/simcore/pkg/core"
)

func newTripID() string {
	return uuid.NewString()
}

func (e *Engine) openStage() {
	enc := &core.StageEncounter{
		Waiting:   e.nextWaiting,
		Alighting: fare.Alighting(e.src, e.passengers),
		FarePerPassenger: fare.PerPassenger(e.src,
			economy.EarningCap(e.route.ID, e.vehicle.Type),
			e.earnings,
			e.vehicle.LegalCapacity,
			e.tracker.Total),
	}
	e.modal = core.ModalStage
	e.stage = enc
	e.cue(core.CueStageArrival)
	e.log.Debug("stage reached",
		"distance", e.tracker.Distance,
		"waiting", enc.Waiting,
		"alighting", enc.Alighting,
		"fare", enc.FarePerPassenger)
}

func (e *Engine) openPolice() {
	enc := police.Decide(e.src, e.passengers, e.vehicle.LegalCapacity, e.vehicle.Personal)
	if enc == nil {
		e.tracker.ReschedulePolice()
		e.cue(core.CuePoliceWaved)
		e.log.Debug("waved through checkpoint", "distance", e.tracker.Distance)
		return
	}
	e.motion.Speed = 0
	e.modal = core.ModalPolice
	e.police = enc
	e.cue(core.CuePoliceSiren)
	e.log.Debug("police stop",
		"distance", e.tracker.Distance,
		"overloaded", enc.Overloaded,
		"bribe", enc.Bribe)
}

func (e *Engine) closeModal() {
	e.modal = core.ModalNone
	e.stage = nil
	e.police = nil
}

// ResolveStage applies the player's choice at an open stage. Alighting
// passengers leave regardless of the choice.
func (e *Engine) ResolveStage(choice core.StageChoice) bool {
	if e.status != core.StatusPlaying || e.modal != core.ModalStage || e.stage == nil {
		return false
	}
	switch choice {
	case core.StagePickupLegal, core.StagePickupOverload, core.StageDepart:
	default:
		return false
	}

	enc := e.stage
	onBoard := max(0, e.passengers-enc.Alighting)
	boarded := fare.Boarding(choice, onBoard, enc.Waiting, e.vehicle.LegalCapacity, e.vehicle.MaxCapacity)
	e.passengers = onBoard + boarded
	e.cash += float64(boarded) * enc.FarePerPassenger
	e.happiness = fare.Happiness(e.happiness, choice, boarded)
	e.stages++

	e.nextWaiting = fare.NextWaiting(e.src, e.vehicle.LegalCapacity, e.vehicle.MaxCapacity, e.happiness, e.earningsLevel)
	e.closeModal()
	e.tracker.RescheduleStage()
	e.log.Debug("stage resolved",
		"choice", choice,
		"boarded", boarded,
		"passengers", e.passengers,
		"cash", e.cash)
	return true
}

// ResolvePolice applies the player's response at an open police stop.
// Paying without enough cash keeps the stop open.
func (e *Engine) ResolvePolice(choice core.PoliceChoice) bool {
	if e.status != core.StatusPlaying || e.modal != core.ModalPolice || e.police == nil {
		return false
	}
	out := police.Resolve(e.src, *e.police, choice, e.cash)
	if !out.Closed {
		return false
	}
	e.cash -= out.Paid
	e.bribes += out.Paid
	if out.Arrested {
		e.log.Info("arrested at checkpoint", "route", e.route.ID, "overloaded", e.police.Overloaded)
		e.finish(core.ReasonArrested)
		return true
	}
	e.closeModal()
	e.tracker.ReschedulePolice()
	e.log.Debug("police resolved", "choice", choice, "paid", out.Paid)
	return true
}
