package session

import "github.com/matatu-hustle/simcore/pkg/core"

// HUD returns the read model for the rendering layer.
func (e *Engine) HUD() core.HUD {
	h := core.HUD{
		Status:      e.status,
		Reason:      e.reason,
		BankBalance: e.prog.Balance(),
		Modal:       e.modal,
		Lane:        e.lane,
	}
	if e.status == core.StatusIdle || e.tracker == nil {
		return h
	}

	h.RouteID = e.route.ID
	h.Vehicle = e.vehicle.Type
	h.Speed = e.motion.Speed
	h.Distance = e.tracker.Distance
	h.TotalDistance = e.tracker.Total
	h.Progress = e.tracker.Progress()
	if e.line != nil {
		h.Position = e.line.PointAt(h.Progress)
	}
	h.Fuel = e.motion.Fuel
	h.FuelUsedLiters = e.motion.FuelUsedLiters
	h.BrakeTemp = e.motion.BrakeTemp
	h.Passengers = e.passengers
	h.LegalCapacity = e.vehicle.LegalCapacity
	h.MaxCapacity = e.vehicle.MaxCapacity
	h.Happiness = e.happiness
	h.OverlapTimer = e.overlap.Overlap
	h.TimeRemaining = e.remaining
	h.Cash = e.cash
	h.Night = e.night
	h.NextStageWaiting = e.nextWaiting
	if e.stage != nil {
		s := *e.stage
		h.Stage = &s
	}
	if e.police != nil {
		p := *e.police
		h.Police = &p
	}
	return h
}
