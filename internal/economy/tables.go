// Package economy holds the static tuning tables of the game economy.
package economy

import (
	"errors"
	"fmt"

	"github.com/matatu-hustle/simcore/pkg/core"
)

var (
	ErrUnknownVehicle = errors.New("unknown vehicle type")
	ErrUnknownRoute   = errors.New("unknown route")
)

const (
	// UnitsPerKm converts route kilometres to simulation distance units.
	UnitsPerKm = 1000.0

	// FuelPricePerLiter is charged against session cash when banking.
	FuelPricePerLiter = 182.0

	// UpgradeStep is the multiplier gained per upgrade level on any track.
	UpgradeStep = 0.15

	// StarterUpgradeBase is used in place of the unlock price for free vehicles.
	StarterUpgradeBase = 20000.0

	// AverageStageGap is the mean distance between stages, used to estimate
	// how many stops a route has.
	AverageStageGap = 2500.0

	// AverageLoadFactor is the expected share of legal capacity on board.
	AverageLoadFactor = 0.7
)

var vehicleSpecs = map[core.VehicleType]core.VehicleSpec{
	core.VehicleBoda: {
		Type: core.VehicleBoda, DisplayName: "Boda Boda",
		TopSpeed: 90, Acceleration: 30, BrakeRate: 60, TimeMultiplier: 0.8,
		UnlockPrice: 0, FuelEfficiency: 35, TankCapacity: 12,
		LegalCapacity: 1, MaxCapacity: 3,
	},
	core.VehicleTuktuk: {
		Type: core.VehicleTuktuk, DisplayName: "Tuk Tuk",
		TopSpeed: 70, Acceleration: 18, BrakeRate: 45, TimeMultiplier: 0.9,
		UnlockPrice: 50000, FuelEfficiency: 25, TankCapacity: 8,
		LegalCapacity: 3, MaxCapacity: 6,
	},
	core.VehiclePersonalCar: {
		Type: core.VehiclePersonalCar, DisplayName: "Personal Car",
		TopSpeed: 140, Acceleration: 25, BrakeRate: 55, TimeMultiplier: 1.0,
		UnlockPrice: 120000, FuelEfficiency: 14, TankCapacity: 45,
		LegalCapacity: 4, MaxCapacity: 6, Personal: true,
	},
	core.Vehicle14Seater: {
		Type: core.Vehicle14Seater, DisplayName: "14-Seater Matatu",
		TopSpeed: 120, Acceleration: 16, BrakeRate: 45, TimeMultiplier: 1.1,
		UnlockPrice: 250000, FuelEfficiency: 9, TankCapacity: 70,
		LegalCapacity: 14, MaxCapacity: 18,
	},
	core.Vehicle32Seater: {
		Type: core.Vehicle32Seater, DisplayName: "32-Seater Minibus",
		TopSpeed: 100, Acceleration: 11, BrakeRate: 38, TimeMultiplier: 1.25,
		UnlockPrice: 600000, FuelEfficiency: 6, TankCapacity: 150,
		LegalCapacity: 32, MaxCapacity: 45,
	},
	core.Vehicle52Seater: {
		Type: core.Vehicle52Seater, DisplayName: "52-Seater Bus",
		TopSpeed: 90, Acceleration: 8, BrakeRate: 32, TimeMultiplier: 1.4,
		UnlockPrice: 1200000, FuelEfficiency: 4, TankCapacity: 250,
		LegalCapacity: 52, MaxCapacity: 70,
	},
}

// Vehicle returns the spec of a vehicle type.
func Vehicle(t core.VehicleType) (core.VehicleSpec, error) {
	spec, ok := vehicleSpecs[t]
	if !ok {
		return core.VehicleSpec{}, fmt.Errorf("%w: %q", ErrUnknownVehicle, t)
	}
	return spec, nil
}

// upgradeCostFactors are fractions of the vehicle price per level (0..3).
var upgradeCostFactors = map[core.UpgradeTrack][core.MaxUpgradeLevel]float64{
	core.TrackEarnings:    {0.20, 0.35, 0.50, 0.75},
	core.TrackFuel:        {0.10, 0.15, 0.25, 0.40},
	core.TrackPerformance: {0.15, 0.25, 0.40, 0.60},
}

// UpgradeCost returns the price of raising track from level to level+1.
// It returns 0 when the track is maxed or the inputs are unknown.
func UpgradeCost(track core.UpgradeTrack, vehicle core.VehicleType, level int) float64 {
	factors, ok := upgradeCostFactors[track]
	if !ok || level < 0 || level >= core.MaxUpgradeLevel {
		return 0
	}
	spec, ok := vehicleSpecs[vehicle]
	if !ok {
		return 0
	}
	base := spec.UnlockPrice
	if base <= 0 {
		base = StarterUpgradeBase
	}
	return factors[level] * base
}

// UpgradeMultiplier is the effect of a track at the given level.
func UpgradeMultiplier(level int) float64 {
	if level < 0 {
		level = 0
	}
	if level > core.MaxUpgradeLevel {
		level = core.MaxUpgradeLevel
	}
	return 1 + UpgradeStep*float64(level)
}
