package handlers

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/matatu-hustle/simcore/internal/dispatcher"
	"github.com/matatu-hustle/simcore/internal/session"
	"github.com/matatu-hustle/simcore/pkg/core"
)

// Player commands. Event.Source names the session the command targets.
const (
	CmdStart      = ":SESSION:START:"
	CmdPause      = ":SESSION:PAUSE:"
	CmdResume     = ":SESSION:RESUME:"
	CmdQuit       = ":SESSION:QUIT:"
	CmdRetry      = ":SESSION:RETRY:"
	CmdBank       = ":SESSION:BANK:"
	CmdControl    = ":INPUT:CONTROL:"
	CmdLane       = ":INPUT:LANE:"
	CmdCollision  = ":INPUT:COLLISION:"
	CmdStage      = ":STAGE:RESOLVE:"
	CmdPolice     = ":POLICE:RESOLVE:"
	CmdBuyVehicle = ":SHOP:VEHICLE:"
	CmdBuyUpgrade = ":SHOP:UPGRADE:"
	CmdAddFunds   = ":BANK:ADD_FUNDS:"
	CmdSettings   = ":SETTINGS:UPDATE:"
	CmdHUD        = ":HUD:GET:"
	CmdProfile    = ":PROFILE:GET:"
	CmdTrips      = ":TRIPS:LIST:"
)

// Commands lists every command a player connection may issue.
func Commands() []string {
	return []string{
		CmdStart, CmdPause, CmdResume, CmdQuit, CmdRetry, CmdBank,
		CmdControl, CmdLane, CmdCollision, CmdStage, CmdPolice,
		CmdBuyVehicle, CmdBuyUpgrade, CmdAddFunds, CmdSettings,
		CmdHUD, CmdProfile, CmdTrips,
	}
}

const (
	defaultTimeout   = 2 * time.Second
	defaultTripLimit = 20
	maxTripLimit     = 200
)

// ErrUnknownSession is returned for a command whose source has no session.
var ErrUnknownSession = errors.New("unknown session")

// Executor runs a function against a session engine on its owning goroutine.
type Executor interface {
	Do(ctx context.Context, fn func(*session.Engine) any) (any, error)
}

// TripLister returns a player's finished trips, newest first.
type TripLister interface {
	TripHistory(profileID string, limit int) ([]core.TripRecord, error)
}

// Registry maps sources to their session executors.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]Executor
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{sessions: make(map[string]Executor)}
}

// Add binds source to ex, replacing any previous binding.
func (r *Registry) Add(source string, ex Executor) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[source] = ex
}

// Remove drops the binding for source.
func (r *Registry) Remove(source string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, source)
}

// Lookup returns the executor bound to source.
func (r *Registry) Lookup(source string) (Executor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ex, ok := r.sessions[source]
	return ex, ok
}

// Len reports the number of bound sessions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// Dependencies holds all dependencies needed by handlers
type Dependencies struct {
	Registry *Registry
	Trips    TripLister
	// Timeout bounds how long a command waits for its session loop.
	Timeout time.Duration
}

// Service translates dispatched commands into session engine calls.
type Service struct {
	deps Dependencies
}

// NewService creates a new handler service
func NewService(deps Dependencies) *Service {
	if deps.Registry == nil {
		deps.Registry = NewRegistry()
	}
	if deps.Timeout <= 0 {
		deps.Timeout = defaultTimeout
	}
	return &Service{deps: deps}
}

// Registry returns the session registry the service resolves sources in.
func (s *Service) Registry() *Registry {
	return s.deps.Registry
}

// RegisterHandlers registers every player command with d.
func (s *Service) RegisterHandlers(d *dispatcher.Dispatcher) {
	d.Register(CmdStart, s.handleStart, dispatcher.Logged())
	d.Register(CmdPause, s.simple(func(e *session.Engine) bool { return e.Pause() }), dispatcher.Logged())
	d.Register(CmdResume, s.simple(func(e *session.Engine) bool { return e.Resume() }), dispatcher.Logged())
	d.Register(CmdQuit, s.simple(func(e *session.Engine) bool { return e.Quit() }), dispatcher.Logged())
	d.Register(CmdRetry, s.simple(func(e *session.Engine) bool { return e.Retry() }), dispatcher.Logged())
	d.Register(CmdBank, s.simple(func(e *session.Engine) bool { return e.BankAndExit() }), dispatcher.Logged())
	d.Register(CmdControl, s.handleControl)
	d.Register(CmdLane, s.handleLane)
	d.Register(CmdCollision, s.simple(func(e *session.Engine) bool { return e.ReportCollision() }), dispatcher.Logged())
	d.Register(CmdStage, s.handleStage, dispatcher.Logged())
	d.Register(CmdPolice, s.handlePolice, dispatcher.Logged())
	d.Register(CmdBuyVehicle, s.handleBuyVehicle, dispatcher.Logged())
	d.Register(CmdBuyUpgrade, s.handleBuyUpgrade, dispatcher.Logged())
	d.Register(CmdAddFunds, s.handleAddFunds, dispatcher.Logged())
	d.Register(CmdSettings, s.handleSettings, dispatcher.Logged())
	d.Register(CmdHUD, s.handleHUD)
	d.Register(CmdProfile, s.handleProfile)
	d.Register(CmdTrips, s.handleTrips, dispatcher.Logged())
}

// run executes fn on the session bound to e.Source.
func (s *Service) run(e dispatcher.Event, fn func(*session.Engine) any) (any, error) {
	ex, ok := s.deps.Registry.Lookup(e.Source)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownSession, e.Source)
	}
	ctx, cancel := context.WithTimeout(context.Background(), s.deps.Timeout)
	defer cancel()
	return ex.Do(ctx, fn)
}

func (s *Service) simple(op func(*session.Engine) bool) dispatcher.HandlerFunc {
	return func(e dispatcher.Event) (any, error) {
		return s.run(e, func(eng *session.Engine) any { return op(eng) })
	}
}

func requireArgs(e dispatcher.Event, n int) error {
	if len(e.Args) < n {
		return fmt.Errorf("%s: expected %d args, got %d", e.Command, n, len(e.Args))
	}
	return nil
}

func parseBool(e dispatcher.Event, i int) (bool, error) {
	v, err := strconv.ParseBool(strings.TrimSpace(e.Arg(i)))
	if err != nil {
		return false, fmt.Errorf("%s: arg %d: %w", e.Command, i, err)
	}
	return v, nil
}

// handleStart args: [routeID, vehicle]
func (s *Service) handleStart(e dispatcher.Event) (any, error) {
	if err := requireArgs(e, 2); err != nil {
		return nil, err
	}
	routeID, vehicle := e.Arg(0), core.VehicleType(e.Arg(1))
	v, err := s.run(e, func(eng *session.Engine) any {
		if err := eng.Start(routeID, vehicle); err != nil {
			return err
		}
		return eng.HUD()
	})
	if err != nil {
		return nil, err
	}
	if startErr, ok := v.(error); ok {
		return nil, startErr
	}
	return v, nil
}

// handleControl args: [GAS|BRAKE, pressed]
func (s *Service) handleControl(e dispatcher.Event) (any, error) {
	if err := requireArgs(e, 2); err != nil {
		return nil, err
	}
	on, err := parseBool(e, 1)
	if err != nil {
		return nil, err
	}
	c := core.Control(strings.ToUpper(e.Arg(0)))
	return s.run(e, func(eng *session.Engine) any { return eng.SetControl(c, on) })
}

// handleLane args: [lane]
func (s *Service) handleLane(e dispatcher.Event) (any, error) {
	if err := requireArgs(e, 1); err != nil {
		return nil, err
	}
	lane := core.Lane(strings.ToLower(e.Arg(0)))
	return s.run(e, func(eng *session.Engine) any { return eng.ReportLaneChange(lane) })
}

// handleStage args: [PICKUP_LEGAL|PICKUP_OVERLOAD|DEPART]
func (s *Service) handleStage(e dispatcher.Event) (any, error) {
	if err := requireArgs(e, 1); err != nil {
		return nil, err
	}
	choice := core.StageChoice(strings.ToUpper(e.Arg(0)))
	return s.run(e, func(eng *session.Engine) any { return eng.ResolveStage(choice) })
}

// handlePolice args: [PAY|REFUSE]
func (s *Service) handlePolice(e dispatcher.Event) (any, error) {
	if err := requireArgs(e, 1); err != nil {
		return nil, err
	}
	choice := core.PoliceChoice(strings.ToUpper(e.Arg(0)))
	return s.run(e, func(eng *session.Engine) any { return eng.ResolvePolice(choice) })
}

// handleBuyVehicle args: [vehicle]
func (s *Service) handleBuyVehicle(e dispatcher.Event) (any, error) {
	if err := requireArgs(e, 1); err != nil {
		return nil, err
	}
	v := core.VehicleType(e.Arg(0))
	return s.run(e, func(eng *session.Engine) any { return eng.PurchaseVehicle(v) })
}

// handleBuyUpgrade args: [track, vehicle]
func (s *Service) handleBuyUpgrade(e dispatcher.Event) (any, error) {
	if err := requireArgs(e, 2); err != nil {
		return nil, err
	}
	track, v := core.UpgradeTrack(e.Arg(0)), core.VehicleType(e.Arg(1))
	return s.run(e, func(eng *session.Engine) any { return eng.PurchaseUpgrade(track, v) })
}

// handleAddFunds args: [amount]
func (s *Service) handleAddFunds(e dispatcher.Event) (any, error) {
	if err := requireArgs(e, 1); err != nil {
		return nil, err
	}
	amount, err := strconv.ParseFloat(strings.TrimSpace(e.Arg(0)), 64)
	if err != nil {
		return nil, fmt.Errorf("%s: amount: %w", e.Command, err)
	}
	return s.run(e, func(eng *session.Engine) any { return eng.AddFunds(amount) })
}

// handleSettings args: [soundEnabled, displayName?]
func (s *Service) handleSettings(e dispatcher.Event) (any, error) {
	if err := requireArgs(e, 1); err != nil {
		return nil, err
	}
	sound, err := parseBool(e, 0)
	if err != nil {
		return nil, err
	}
	name := strings.TrimSpace(e.Arg(1))
	return s.run(e, func(eng *session.Engine) any {
		eng.UpdateSettings(sound, name)
		return eng.Progression().Settings()
	})
}

func (s *Service) handleHUD(e dispatcher.Event) (any, error) {
	return s.run(e, func(eng *session.Engine) any { return eng.HUD() })
}

func (s *Service) handleProfile(e dispatcher.Event) (any, error) {
	return s.run(e, func(eng *session.Engine) any { return eng.Progression().Snapshot() })
}

// handleTrips args: [limit?]
func (s *Service) handleTrips(e dispatcher.Event) (any, error) {
	if s.deps.Trips == nil {
		return nil, errors.New("trip history not available")
	}
	limit := defaultTripLimit
	if raw := strings.TrimSpace(e.Arg(0)); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			return nil, fmt.Errorf("%s: invalid limit %q", e.Command, raw)
		}
		limit = min(n, maxTripLimit)
	}
	v, err := s.run(e, func(eng *session.Engine) any { return eng.Progression().ProfileID() })
	if err != nil {
		return nil, err
	}
	return s.deps.Trips.TripHistory(v.(string), limit)
}
