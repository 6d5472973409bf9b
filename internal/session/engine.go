// Package session runs one player's game: it owns the ephemeral session
// state, drives physics and triggers each frame, and merges completed runs
// into the persistent progression.
//
// An Engine is not safe for concurrent use. The loop package serializes all
// calls onto one goroutine.
package session

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"time"

	"github.com/matatu-hustle/simcore/internal/economy"
	"github.com/matatu-hustle/simcore/internal/fare"
	"github.com/matatu-hustle/simcore/internal/geo"
	"github.com/matatu-hustle/simcore/internal/physics"
	"github.com/matatu-hustle/simcore/internal/progression"
	"github.com/matatu-hustle/simcore/internal/rng"
	"github.com/matatu-hustle/simcore/internal/route"
	"github.com/matatu-hustle/simcore/internal/violation"
	"github.com/matatu-hustle/simcore/pkg/core"
)

var (
	// ErrNotReady is returned when a session is started without a route or vehicle.
	ErrNotReady = errors.New("route and vehicle must be selected")
	// ErrVehicleLocked is returned when starting with a vehicle the player does not own.
	ErrVehicleLocked = errors.New("vehicle is locked")
	// ErrSessionActive is returned when starting while a session is running.
	ErrSessionActive = errors.New("session already active")
)

const (
	// NightChance is the probability that a session starts at night.
	NightChance = 0.3
	// StartingHappiness is the passengers' mood at session start.
	StartingHappiness = 100.0

	DefaultCrashPause   = 2 * time.Second
	DefaultRespawnDelay = 3 * time.Second
)

// Persister receives progression snapshots and trip records. Implementations
// must not block.
type Persister interface {
	SaveSnapshot(core.Snapshot)
	RecordTrip(core.TripRecord)
}

type nopPersister struct{}

func (nopPersister) SaveSnapshot(core.Snapshot) {}
func (nopPersister) RecordTrip(core.TripRecord) {}

// Options configure an Engine.
type Options struct {
	// RoomID marks a multiplayer session. It seeds the random source and
	// switches crashes to the respawn path.
	RoomID string
	// Source overrides the random source selected from RoomID.
	Source       rng.Source
	CrashPause   time.Duration
	RespawnDelay time.Duration
	Persister    Persister
	Logger       *slog.Logger
	Now          func() time.Time
}

// Engine is the session state machine.
type Engine struct {
	prog      *progression.Progression
	src       rng.Source
	persister Persister
	log       *slog.Logger
	now       func() time.Time
	roomID    string

	crashPause   float64
	respawnDelay float64

	status  core.GameStatus
	reason  core.EndReason
	route   core.Route
	vehicle core.VehicleSpec
	line    *geo.Line

	// upgrade effects captured at session start
	performance   float64
	fuelEconomy   float64
	earnings      float64
	earningsLevel int

	tracker     *route.Tracker
	motion      physics.State
	overlap     violation.Timer
	gas         bool
	brake       bool
	lane        core.Lane
	passengers  int
	happiness   float64
	remaining   int
	cash        float64
	bribes      float64
	stages      int
	night       bool
	modal       core.ModalType
	stage       *core.StageEncounter
	police      *core.PoliceEncounter
	nextWaiting int
	crashTimer  float64
	finishedAt  time.Time
	pendingTrip bool

	cues []core.Cue
}

// New creates an idle engine for a player's progression.
func New(prog *progression.Progression, opts Options) *Engine {
	e := &Engine{
		prog:         prog,
		src:          opts.Source,
		persister:    opts.Persister,
		log:          opts.Logger,
		now:          opts.Now,
		roomID:       opts.RoomID,
		crashPause:   opts.CrashPause.Seconds(),
		respawnDelay: opts.RespawnDelay.Seconds(),
		status:       core.StatusIdle,
		modal:        core.ModalNone,
		lane:         core.LaneNormal,
	}
	if e.src == nil {
		e.src = rng.ForSession(opts.RoomID)
	}
	if e.persister == nil {
		e.persister = nopPersister{}
	}
	if e.log == nil {
		e.log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if e.now == nil {
		e.now = time.Now
	}
	if opts.CrashPause <= 0 {
		e.crashPause = DefaultCrashPause.Seconds()
	}
	if opts.RespawnDelay <= 0 {
		e.respawnDelay = DefaultRespawnDelay.Seconds()
	}
	return e
}

// Status is the current lifecycle state.
func (e *Engine) Status() core.GameStatus { return e.status }

// Reason is why the last session ended, or ReasonNone while one is running.
func (e *Engine) Reason() core.EndReason { return e.reason }

// Progression exposes the player's persistent state.
func (e *Engine) Progression() *progression.Progression { return e.prog }

// Multiplayer reports whether the engine runs inside a room.
func (e *Engine) Multiplayer() bool { return e.roomID != "" }

// Start begins a session on routeID with vehicle. Starting from GAME_OVER
// abandons the finished run without banking it.
func (e *Engine) Start(routeID string, vehicle core.VehicleType) error {
	if routeID == "" || vehicle == "" {
		return ErrNotReady
	}
	switch e.status {
	case core.StatusPlaying, core.StatusPaused, core.StatusCrashing:
		return ErrSessionActive
	}
	r, err := economy.RouteByID(routeID)
	if err != nil {
		return err
	}
	spec, err := economy.Vehicle(vehicle)
	if err != nil {
		return err
	}
	if !e.prog.Owns(vehicle) {
		return fmt.Errorf("%w: %s", ErrVehicleLocked, vehicle)
	}

	e.closeRun(progression.Banked{}, false)
	e.route = r
	e.vehicle = spec
	e.line = nil
	if line, err := geo.NewLine(r.Waypoints); err == nil {
		e.line = line
	} else {
		e.log.Warn("route has no usable geometry", "route", r.ID, "error", err)
	}
	e.reset()
	e.log.Info("session started",
		"route", r.ID,
		"vehicle", spec.Type,
		"timeBudget", e.remaining,
		"multiplayer", e.Multiplayer())
	return nil
}

// reset initializes all session state for the selected route and vehicle.
func (e *Engine) reset() {
	v := e.vehicle.Type
	e.performance = e.prog.Multiplier(core.TrackPerformance, v)
	e.fuelEconomy = e.prog.Multiplier(core.TrackFuel, v)
	e.earnings = e.prog.Multiplier(core.TrackEarnings, v)
	e.earningsLevel = e.prog.Level(core.TrackEarnings, v)

	e.status = core.StatusPlaying
	e.reason = core.ReasonNone
	e.tracker = route.NewTracker(e.route, e.src)
	e.motion = physics.State{Fuel: physics.FuelFull}
	e.overlap.Reset()
	e.gas, e.brake = false, false
	e.lane = core.LaneNormal
	e.passengers = 0
	e.happiness = StartingHappiness
	e.remaining = economy.TimeBudget(e.route.TimeLabel, e.vehicle.TimeMultiplier)
	e.cash, e.bribes = 0, 0
	e.stages = 0
	e.closeModal()
	e.crashTimer = 0
	e.finishedAt = time.Time{}
	e.pendingTrip = false
	e.cues = nil
	e.night = rng.Chance(e.src, NightChance)
	e.nextWaiting = 0
	if e.tracker.Triggers() {
		e.nextWaiting = fare.NextWaiting(e.src, e.vehicle.LegalCapacity, e.vehicle.MaxCapacity, e.happiness, e.earningsLevel)
	}
}

// Pause suspends a running session.
func (e *Engine) Pause() bool {
	if e.status != core.StatusPlaying {
		return false
	}
	e.status = core.StatusPaused
	e.gas, e.brake = false, false
	return true
}

// Resume continues a paused session.
func (e *Engine) Resume() bool {
	if e.status != core.StatusPaused {
		return false
	}
	e.status = core.StatusPlaying
	return true
}

// Quit discards the session without banking.
func (e *Engine) Quit() bool {
	if e.status == core.StatusIdle {
		return false
	}
	e.closeRun(progression.Banked{}, false)
	e.status = core.StatusIdle
	e.reason = core.ReasonNone
	e.closeModal()
	e.tracker = nil
	e.log.Info("session quit", "route", e.route.ID)
	return true
}

// Retry restarts a finished session on the same route and vehicle.
func (e *Engine) Retry() bool {
	if e.status != core.StatusGameOver {
		return false
	}
	e.closeRun(progression.Banked{}, false)
	e.reset()
	e.log.Info("session retried", "route", e.route.ID, "vehicle", e.vehicle.Type)
	return true
}

// BankAndExit merges a completed run into progression and returns to IDLE.
// It is a no-op for any other outcome.
func (e *Engine) BankAndExit() bool {
	if e.status != core.StatusGameOver || e.reason != core.ReasonCompleted {
		return false
	}
	res, ok := e.prog.Bank(progression.Run{
		Reason:     e.reason,
		Cash:       e.cash,
		FuelLiters: e.motion.FuelUsedLiters,
		DistanceKm: e.distanceKm(),
		Bribes:     e.bribes,
	})
	if !ok {
		return false
	}
	e.persister.SaveSnapshot(e.prog.Snapshot())
	e.closeRun(res, true)
	e.status = core.StatusIdle
	e.reason = core.ReasonNone
	e.tracker = nil
	e.log.Info("run banked",
		"route", e.route.ID,
		"profit", res.Profit,
		"fuelCost", res.FuelCost,
		"credited", res.Credited,
		"balance", e.prog.Balance())
	return true
}

// SetControl presses or releases a pedal.
func (e *Engine) SetControl(c core.Control, on bool) bool {
	if e.status == core.StatusIdle {
		return false
	}
	switch c {
	case core.ControlGas:
		e.gas = on
	case core.ControlBrake:
		e.brake = on
	default:
		return false
	}
	return true
}

// ReportLaneChange records the lane the render layer placed the vehicle in.
func (e *Engine) ReportLaneChange(lane core.Lane) bool {
	if e.status == core.StatusIdle {
		return false
	}
	switch lane {
	case core.LaneNormal, core.LaneShoulder, core.LaneSidewalk, core.LaneOncoming:
		e.lane = lane
		return true
	}
	return false
}

// ReportCollision signals a crash detected by the render layer.
func (e *Engine) ReportCollision() bool {
	if e.status != core.StatusPlaying {
		return false
	}
	e.status = core.StatusCrashing
	e.crashTimer = 0
	e.motion.Speed = 0
	e.gas, e.brake = false, false
	e.cue(core.CueCrash)
	e.log.Info("collision", "route", e.route.ID, "distance", e.tracker.Distance)
	return true
}

// Tick advances the simulation by dt seconds of frame time.
func (e *Engine) Tick(dt float64) {
	if dt <= 0 {
		return
	}
	switch e.status {
	case core.StatusCrashing:
		e.crashTimer += dt
		if e.Multiplayer() {
			if e.crashTimer >= e.respawnDelay {
				e.status = core.StatusPlaying
				e.crashTimer = 0
				e.log.Debug("respawned", "route", e.route.ID)
			}
		} else if e.crashTimer >= e.crashPause {
			e.finish(core.ReasonCrash)
		}
	case core.StatusPlaying:
		e.step(dt)
	}
}

func (e *Engine) step(dt float64) {
	if e.modal != core.ModalNone {
		return
	}

	if e.route.Violation != core.ViolationNone {
		out := e.overlap.Update(dt, e.route.Violation.Violates(e.lane))
		e.adjustHappiness(out.HappinessDelta)
		if out.Warn {
			e.cue(core.CueOverlapWarning)
		}
		if out.Arrest {
			e.log.Info("arrested for illegal driving", "route", e.route.ID, "overlap", e.overlap.Overlap)
			e.finish(core.ReasonArrested)
			return
		}
	}

	res := physics.Step(&e.motion, physics.Input{
		DT:           dt,
		Accelerating: e.gas,
		Braking:      e.brake,
		Vehicle:      e.vehicle,
		Performance:  e.performance,
		FuelEconomy:  e.fuelEconomy,
		Gravity:      e.route.Gravity(),
		BrakeFade:    e.route.BrakeFade(),
		StopGap:      e.tracker.StopGap(),
	})
	if res.FadeStarted {
		e.cue(core.CueBrakeFade)
	}

	switch e.tracker.Advance(res.Delta, false) {
	case route.EventCompleted:
		e.finish(core.ReasonCompleted)
	case route.EventPolice:
		e.openPolice()
	case route.EventStage:
		e.motion.Speed = 0
		e.openStage()
	}
}

// TickSecond runs the one second countdown. It keeps running while an
// encounter is open and stops while paused.
func (e *Engine) TickSecond() {
	if e.status != core.StatusPlaying && e.status != core.StatusCrashing {
		return
	}
	if e.remaining > 0 {
		e.remaining--
	}
	if e.status == core.StatusPlaying && e.remaining <= 0 {
		e.finish(core.ReasonTimeUp)
	}
}

func (e *Engine) finish(reason core.EndReason) {
	e.status = core.StatusGameOver
	e.reason = reason
	e.closeModal()
	e.motion.Speed = 0
	e.gas, e.brake = false, false
	e.finishedAt = e.now().UTC()
	e.pendingTrip = true

	switch reason {
	case core.ReasonCompleted:
		e.cue(core.CueCompleted)
	case core.ReasonTimeUp:
		e.cue(core.CueTimeUp)
	case core.ReasonArrested:
		e.cue(core.CueArrested)
	}
	e.log.Info("session over",
		"route", e.route.ID,
		"reason", reason,
		"cash", e.cash,
		"distanceKm", e.distanceKm())
}

// closeRun emits the trip record of a finished session once.
func (e *Engine) closeRun(res progression.Banked, banked bool) {
	if !e.pendingTrip {
		return
	}
	e.pendingTrip = false
	fuelCost := res.FuelCost
	profit := res.Profit
	if !banked {
		fuelCost = e.motion.FuelUsedLiters * economy.FuelPricePerLiter
		profit = 0
	}
	e.persister.RecordTrip(core.TripRecord{
		ID:          newTripID(),
		ProfileID:   e.prog.ProfileID(),
		RouteID:     e.route.ID,
		Vehicle:     e.vehicle.Type,
		Reason:      e.reason,
		Cash:        e.cash,
		FuelLiters:  e.motion.FuelUsedLiters,
		FuelCost:    fuelCost,
		Profit:      profit,
		DistanceKm:  e.distanceKm(),
		BribesPaid:  e.bribes,
		Stages:      e.stages,
		Banked:      banked && res.Credited,
		Multiplayer: e.Multiplayer(),
		FinishedAt:  e.finishedAt,
	})
}

func (e *Engine) distanceKm() float64 {
	if e.tracker == nil {
		return 0
	}
	return e.tracker.Distance / economy.UnitsPerKm
}

func (e *Engine) adjustHappiness(delta float64) {
	e.happiness = math.Max(0, math.Min(fare.MaxHappiness, e.happiness+delta))
}

func (e *Engine) cue(c core.Cue) {
	e.cues = append(e.cues, c)
}

// DrainCues returns and clears the pending cues.
func (e *Engine) DrainCues() []core.Cue {
	out := e.cues
	e.cues = nil
	return out
}
