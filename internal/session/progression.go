package session

import "github.com/matatu-hustle/simcore/pkg/core"

// PurchaseVehicle unlocks a vehicle and persists the result.
func (e *Engine) PurchaseVehicle(v core.VehicleType) bool {
	if !e.prog.PurchaseVehicle(v) {
		return false
	}
	e.persister.SaveSnapshot(e.prog.Snapshot())
	e.log.Info("vehicle purchased", "vehicle", v, "balance", e.prog.Balance())
	return true
}

// PurchaseUpgrade raises an upgrade track by one level. Running sessions keep
// the effects they started with.
func (e *Engine) PurchaseUpgrade(track core.UpgradeTrack, v core.VehicleType) bool {
	if !e.prog.PurchaseUpgrade(track, v) {
		return false
	}
	e.persister.SaveSnapshot(e.prog.Snapshot())
	e.log.Info("upgrade purchased",
		"track", track,
		"vehicle", v,
		"level", e.prog.Level(track, v),
		"balance", e.prog.Balance())
	return true
}

// AddFunds tops up the bank balance.
func (e *Engine) AddFunds(amount float64) bool {
	if !e.prog.AddFunds(amount) {
		return false
	}
	e.persister.SaveSnapshot(e.prog.Snapshot())
	return true
}

// UpdateSettings changes player preferences.
func (e *Engine) UpdateSettings(sound bool, displayName string) {
	e.prog.UpdateSettings(sound, displayName)
	e.persister.SaveSnapshot(e.prog.Snapshot())
}
