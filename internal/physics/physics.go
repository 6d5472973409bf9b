// Package physics integrates vehicle speed, brake heat and fuel burn.
package physics

import (
	"math"

	"github.com/matatu-hustle/simcore/pkg/core"
)

// State is the motion part of a session.
type State struct {
	Speed          float64
	BrakeTemp      float64
	Fuel           float64 // percent
	FuelUsedLiters float64
}

// Input is everything one tick needs besides State.
type Input struct {
	DT           float64
	Accelerating bool
	Braking      bool
	Vehicle      core.VehicleSpec
	Performance  float64 // upgrade multiplier on top speed and acceleration
	FuelEconomy  float64 // upgrade multiplier on fuel efficiency
	Gravity      bool
	BrakeFade    bool
	// StopGap is the distance to the nearest mandatory stop, or a negative
	// value when none is within StopLookahead.
	StopGap float64
}

// Result reports what a tick produced.
type Result struct {
	Delta       float64 // distance units travelled
	Liters      float64
	Limit       float64
	FadeStarted bool
}

func mult(m float64) float64 {
	if m <= 0 {
		return 1
	}
	return m
}

// EffectiveMax is the top speed after upgrades and terrain.
func EffectiveMax(v core.VehicleSpec, performance float64, gravity bool) float64 {
	top := v.TopSpeed * mult(performance)
	if gravity {
		top *= GravityOverspeed
	}
	return top
}

// SpeedLimit returns the speed cap imposed by an upcoming stop gap units away.
func SpeedLimit(top, gap float64) float64 {
	if gap < 0 || gap > StopLookahead || gap >= SlowdownBand {
		return top
	}
	crawl := CrawlSpeed
	if gap < FinalCrawlDistance {
		crawl = FinalCrawlSpeed
	}
	if top <= crawl {
		return top
	}
	return crawl + gap/SlowdownBand*(top-crawl)
}

// BrakeEfficiency is the share of brake force available at temp.
func BrakeEfficiency(temp float64) float64 {
	if temp <= BrakeFadeThreshold {
		return 1
	}
	over := math.Min(temp, BrakeMaxTemp) - BrakeFadeThreshold
	return 1 - over/(BrakeMaxTemp-BrakeFadeThreshold)*(1-BrakeMinEfficiency)
}

// FuelBurn returns the liters used to cover delta units at speed.
func FuelBurn(v core.VehicleSpec, fuelEconomy, speed, delta float64, accelerating bool) float64 {
	if delta <= 0 || v.FuelEfficiency <= 0 {
		return 0
	}
	speedPenalty := 1.0
	if speed > SpeedPenaltyFrom {
		speedPenalty += (speed - SpeedPenaltyFrom) * SpeedPenaltyPerKmh
	}
	accelPenalty := 1.0
	if accelerating {
		accelPenalty = AccelFuelPenalty
	}
	realEfficiency := v.FuelEfficiency * mult(fuelEconomy) / (speedPenalty * accelPenalty)
	return (delta / 1000) / realEfficiency
}

// Step advances s by one tick.
func Step(s *State, in Input) Result {
	dt := in.DT
	if dt <= 0 {
		return Result{Limit: EffectiveMax(in.Vehicle, in.Performance, in.Gravity)}
	}

	top := EffectiveMax(in.Vehicle, in.Performance, in.Gravity)
	limit := SpeedLimit(top, in.StopGap)
	wasFaded := s.BrakeTemp > BrakeFadeThreshold

	switch {
	case in.Accelerating:
		s.Speed += in.Vehicle.Acceleration * mult(in.Performance) * dt
		s.BrakeTemp -= BrakeCoolRate * dt
	case in.Braking:
		eff := 1.0
		if in.BrakeFade {
			eff = BrakeEfficiency(s.BrakeTemp)
			s.BrakeTemp += BrakeHeatRate * dt
		} else {
			s.BrakeTemp -= BrakeCoolRate * dt
		}
		s.Speed -= in.Vehicle.BrakeRate * eff * dt
	default:
		s.BrakeTemp -= BrakeCoolRate * dt
		if in.Gravity {
			s.Speed += GravityAccel * dt
		} else if s.Speed > CreepSpeed {
			s.Speed = math.Max(CreepSpeed, s.Speed-FrictionDecel*dt)
		} else {
			s.Speed = math.Min(CreepSpeed, s.Speed+FrictionDecel*dt)
		}
	}
	s.BrakeTemp = math.Max(0, math.Min(BrakeMaxTemp, s.BrakeTemp))

	if s.Speed > limit {
		s.Speed = math.Max(limit, s.Speed-in.Vehicle.BrakeRate*OverrideBrakeMult*dt)
	}
	s.Speed = math.Max(0, math.Min(top, s.Speed))

	delta := s.Speed * dt
	liters := FuelBurn(in.Vehicle, in.FuelEconomy, s.Speed, delta, in.Accelerating)
	s.FuelUsedLiters += liters
	if in.Vehicle.TankCapacity > 0 {
		s.Fuel = math.Max(0, s.Fuel-liters/in.Vehicle.TankCapacity*100)
	}

	return Result{
		Delta:       delta,
		Liters:      liters,
		Limit:       limit,
		FadeStarted: !wasFaded && s.BrakeTemp > BrakeFadeThreshold,
	}
}
