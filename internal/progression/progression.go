// Package progression owns the persistent player economy: bank balance,
// vehicle unlocks, upgrade levels and lifetime stats.
package progression

import (
	"math"
	"slices"
	"time"

	"github.com/matatu-hustle/simcore/internal/economy"
	"github.com/matatu-hustle/simcore/pkg/core"
)

// Progression wraps a snapshot with the operations allowed to change it.
// Every method that returns false left the state untouched.
type Progression struct {
	snap core.Snapshot
	now  func() time.Time
}

// Default returns the initial progression of a new profile.
func Default(profileID string) core.Snapshot {
	return core.Snapshot{
		ProfileID:        profileID,
		UnlockedVehicles: []core.VehicleType{core.StarterVehicle},
		Upgrades:         emptyUpgrades(),
		Settings:         core.Settings{SoundEnabled: true},
	}
}

func emptyUpgrades() map[core.UpgradeTrack]core.UpgradeMap {
	m := make(map[core.UpgradeTrack]core.UpgradeMap, len(core.AllTracks))
	for _, t := range core.AllTracks {
		m[t] = core.UpgradeMap{}
	}
	return m
}

// New creates a fresh progression.
func New(profileID, displayName string, guest bool) *Progression {
	s := Default(profileID)
	s.DisplayName = displayName
	s.Guest = guest
	return &Progression{snap: s, now: time.Now}
}

// FromSnapshot restores a progression, repairing anything out of range.
func FromSnapshot(s core.Snapshot) *Progression {
	return &Progression{snap: normalize(s), now: time.Now}
}

func normalize(s core.Snapshot) core.Snapshot {
	if s.BankBalance < 0 || math.IsNaN(s.BankBalance) || math.IsInf(s.BankBalance, 0) {
		s.BankBalance = 0
	}

	unlocked := []core.VehicleType{core.StarterVehicle}
	for _, v := range s.UnlockedVehicles {
		if v.Valid() && !slices.Contains(unlocked, v) {
			unlocked = append(unlocked, v)
		}
	}
	s.UnlockedVehicles = unlocked

	upgrades := emptyUpgrades()
	for track, levels := range s.Upgrades {
		if !track.Valid() {
			continue
		}
		for v, level := range levels {
			if !v.Valid() || level <= 0 {
				continue
			}
			upgrades[track][v] = min(level, core.MaxUpgradeLevel)
		}
	}
	s.Upgrades = upgrades

	if s.Stats.TotalCashEarned < 0 {
		s.Stats.TotalCashEarned = 0
	}
	if s.Stats.TotalDistanceKm < 0 {
		s.Stats.TotalDistanceKm = 0
	}
	if s.Stats.TotalBribesPaid < 0 {
		s.Stats.TotalBribesPaid = 0
	}
	if s.Stats.TripsCompleted < 0 {
		s.Stats.TripsCompleted = 0
	}
	return s
}

// Snapshot returns a deep copy for persistence.
func (p *Progression) Snapshot() core.Snapshot {
	s := p.snap
	s.UnlockedVehicles = slices.Clone(p.snap.UnlockedVehicles)
	s.Upgrades = make(map[core.UpgradeTrack]core.UpgradeMap, len(p.snap.Upgrades))
	for track, levels := range p.snap.Upgrades {
		cp := make(core.UpgradeMap, len(levels))
		for v, l := range levels {
			cp[v] = l
		}
		s.Upgrades[track] = cp
	}
	return s
}

func (p *Progression) touch() {
	p.snap.UpdatedAt = p.now().UTC()
}

func (p *Progression) ProfileID() string {
	return p.snap.ProfileID
}

// Guest profiles are never credited with profit.
func (p *Progression) Guest() bool {
	return p.snap.Guest
}

func (p *Progression) Balance() float64 {
	return p.snap.BankBalance
}

func (p *Progression) Stats() core.LifetimeStats {
	return p.snap.Stats
}

func (p *Progression) Settings() core.Settings {
	return p.snap.Settings
}

// Owns reports whether vehicle is unlocked.
func (p *Progression) Owns(vehicle core.VehicleType) bool {
	return slices.Contains(p.snap.UnlockedVehicles, vehicle)
}

// Level returns the upgrade level of track for vehicle.
func (p *Progression) Level(track core.UpgradeTrack, vehicle core.VehicleType) int {
	return p.snap.Upgrades[track][vehicle]
}

// Multiplier returns the effect of track for vehicle.
func (p *Progression) Multiplier(track core.UpgradeTrack, vehicle core.VehicleType) float64 {
	return economy.UpgradeMultiplier(p.Level(track, vehicle))
}

// UpgradeCost is the price of the next level, 0 once maxed.
func (p *Progression) UpgradeCost(track core.UpgradeTrack, vehicle core.VehicleType) float64 {
	return economy.UpgradeCost(track, vehicle, p.Level(track, vehicle))
}

// PurchaseVehicle unlocks vehicle if it is not owned and affordable.
func (p *Progression) PurchaseVehicle(vehicle core.VehicleType) bool {
	spec, err := economy.Vehicle(vehicle)
	if err != nil || p.Owns(vehicle) || p.snap.BankBalance < spec.UnlockPrice {
		return false
	}
	p.snap.BankBalance -= spec.UnlockPrice
	p.snap.UnlockedVehicles = append(p.snap.UnlockedVehicles, vehicle)
	p.touch()
	return true
}

// PurchaseUpgrade raises track for vehicle by one level.
func (p *Progression) PurchaseUpgrade(track core.UpgradeTrack, vehicle core.VehicleType) bool {
	if !track.Valid() || !vehicle.Valid() {
		return false
	}
	level := p.Level(track, vehicle)
	if level >= core.MaxUpgradeLevel {
		return false
	}
	cost := economy.UpgradeCost(track, vehicle, level)
	if cost <= 0 || p.snap.BankBalance < cost {
		return false
	}
	p.snap.BankBalance -= cost
	p.snap.Upgrades[track][vehicle] = level + 1
	p.touch()
	return true
}

// AddFunds tops up the bank.
func (p *Progression) AddFunds(amount float64) bool {
	if amount <= 0 || math.IsInf(amount, 0) || math.IsNaN(amount) {
		return false
	}
	p.snap.BankBalance += amount
	p.touch()
	return true
}

// UpdateSettings changes the player's preferences. An empty name keeps the
// current one.
func (p *Progression) UpdateSettings(sound bool, displayName string) {
	p.snap.Settings.SoundEnabled = sound
	if displayName != "" {
		p.snap.DisplayName = displayName
	}
	p.touch()
}

// Run is the result of a session offered for banking.
type Run struct {
	Reason     core.EndReason
	Cash       float64
	FuelLiters float64
	DistanceKm float64
	Bribes     float64
}

// Banked is what Bank did with a run.
type Banked struct {
	FuelCost float64
	Profit   float64
	Credited bool // profit added to the bank balance
}

// Bank merges a completed run. Runs that did not complete are rejected.
// Guests keep their stats but are never credited.
func (p *Progression) Bank(run Run) (Banked, bool) {
	if run.Reason != core.ReasonCompleted {
		return Banked{}, false
	}
	fuelCost := run.FuelLiters * economy.FuelPricePerLiter
	res := Banked{
		FuelCost: fuelCost,
		Profit:   math.Max(0, run.Cash-fuelCost),
	}
	if !p.snap.Guest {
		p.snap.BankBalance += res.Profit
		res.Credited = true
	}
	p.snap.Stats.TotalCashEarned += run.Cash
	p.snap.Stats.TotalDistanceKm += run.DistanceKm
	p.snap.Stats.TotalBribesPaid += run.Bribes
	p.snap.Stats.TripsCompleted++
	p.touch()
	return res, true
}
