package worker

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/matatu-hustle/simcore/internal/progression"
	"github.com/matatu-hustle/simcore/internal/storage"
	"github.com/matatu-hustle/simcore/pkg/core"
)

// TripWriter receives finished trips for telemetry.
type TripWriter interface {
	WriteTrip(t core.TripRecord)
}

// Dependencies holds all dependencies for the worker manager
type Dependencies struct {
	// Primary is read from and written to.
	Primary storage.Backend
	// Mirrors only receive writes. Their failures are logged and ignored.
	Mirrors   []storage.Backend
	Telemetry TripWriter
	Logger    *slog.Logger
}

// Manager owns the persistence side of the game: it loads progression when a
// session starts and writes snapshots and trips off the simulation goroutine.
type Manager struct {
	deps Dependencies
	log  *slog.Logger
	// dispatch is set by RegisterHandlers
	dispatch func(cmd string, args ...string) error
}

// NewManager creates a new worker manager
func NewManager(deps Dependencies) (*Manager, error) {
	if deps.Primary == nil {
		return nil, errors.New("worker: primary storage backend is required")
	}
	log := deps.Logger
	if log == nil {
		log = slog.Default()
	}
	return &Manager{deps: deps, log: log}, nil
}

// LoadProgression returns the stored progression for profileID, or a fresh
// one when nothing usable is stored. Storage failures never block play.
func (m *Manager) LoadProgression(profileID, displayName string, guest bool) *progression.Progression {
	if !storage.ValidProfileID(profileID) {
		return progression.New(profileID, displayName, guest)
	}

	snap, err := m.deps.Primary.LoadProfile(profileID)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		m.log.Info("New profile", "profileId", profileID)
		return progression.New(profileID, displayName, guest)
	case err != nil:
		m.log.Error("Failed to load profile, starting fresh", "profileId", profileID, "error", err)
		return progression.New(profileID, displayName, guest)
	}

	if snap.DisplayName == "" {
		snap.DisplayName = displayName
	}
	// the mode is chosen per session, not stored
	snap.Guest = guest
	return progression.FromSnapshot(snap)
}

// TripHistory returns recent trips when the primary backend keeps history.
func (m *Manager) TripHistory(profileID string, limit int) ([]core.TripRecord, error) {
	lister, ok := m.deps.Primary.(storage.TripLister)
	if !ok {
		return nil, fmt.Errorf("storage backend does not keep trip history")
	}
	return lister.ListTrips(profileID, limit)
}
