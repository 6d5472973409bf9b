// Package memory is the default storage backend. Profiles are written to
// one JSON file each so they survive restarts; trip history is held in
// memory and exported as a single document on Close.
package memory

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/matatu-hustle/simcore/internal/config"
	"github.com/matatu-hustle/simcore/internal/progression"
	"github.com/matatu-hustle/simcore/internal/storage"
	"github.com/matatu-hustle/simcore/pkg/core"
)

const (
	profilesDir = "profiles"
	tripsFile   = "trips"
	jsonExt     = ".json"
	gzipJSONExt = ".json.gz"
)

// Backend stores profiles as JSON files and trips in memory.
type Backend struct {
	cfg config.MemoryConfig

	mu      sync.RWMutex
	trips   map[string][]core.TripRecord // keyed by profile id, oldest first
	lastExp string
}

// New creates a new memory backend
func New(cfg config.MemoryConfig) *Backend {
	return &Backend{
		cfg:   cfg,
		trips: make(map[string][]core.TripRecord),
	}
}

// Init creates the output directories.
func (b *Backend) Init() error {
	if err := os.MkdirAll(filepath.Join(b.cfg.OutputDir, profilesDir), 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	return nil
}

// Close exports the trip history collected since Init.
func (b *Backend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if len(b.trips) == 0 {
		return nil
	}
	path, err := b.exportTrips()
	if err != nil {
		return err
	}
	b.lastExp = path
	return nil
}

func (b *Backend) ext() string {
	if b.cfg.CompressOutput {
		return gzipJSONExt
	}
	return jsonExt
}

func (b *Backend) profilePath(id, ext string) string {
	return filepath.Join(b.cfg.OutputDir, profilesDir, id+ext)
}

// SaveProfile writes the snapshot, replacing any earlier file for the id.
func (b *Backend) SaveProfile(s core.Snapshot) error {
	if !storage.ValidProfileID(s.ProfileID) {
		return fmt.Errorf("%w: %q", storage.ErrInvalidProfileID, s.ProfileID)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if err := writeFile(b.profilePath(s.ProfileID, b.ext()), s, b.cfg.CompressOutput); err != nil {
		return fmt.Errorf("save profile %s: %w", s.ProfileID, err)
	}

	// a profile saved under the other encoding is now stale
	stale := jsonExt
	if !b.cfg.CompressOutput {
		stale = gzipJSONExt
	}
	if err := os.Remove(b.profilePath(s.ProfileID, stale)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove stale profile %s: %w", s.ProfileID, err)
	}
	return nil
}

// LoadProfile reads the snapshot for id from either encoding.
func (b *Backend) LoadProfile(id string) (core.Snapshot, error) {
	if !storage.ValidProfileID(id) {
		return core.Snapshot{}, fmt.Errorf("%w: %q", storage.ErrInvalidProfileID, id)
	}

	b.mu.RLock()
	defer b.mu.RUnlock()

	for _, ext := range []string{b.ext(), jsonExt, gzipJSONExt} {
		data, err := readFile(b.profilePath(id, ext), ext == gzipJSONExt)
		if errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err != nil {
			slog.Warn("Unreadable profile file, using defaults", "profile", id, "error", err)
			return progression.Default(id), nil
		}
		snap, bad := progression.DecodeSnapshot(data, id)
		if len(bad) > 0 {
			slog.Warn("Profile fields reset to defaults", "profile", id, "fields", bad)
		}
		return snap, nil
	}
	return core.Snapshot{}, storage.ErrNotFound
}

// RecordTrip appends a trip to the in-memory history.
func (b *Backend) RecordTrip(t core.TripRecord) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.trips[t.ProfileID] = append(b.trips[t.ProfileID], t)
	return nil
}

// ListTrips returns up to limit trips for the profile, newest first. A
// non-positive limit returns all of them.
func (b *Backend) ListTrips(profileID string, limit int) ([]core.TripRecord, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	src := b.trips[profileID]
	out := make([]core.TripRecord, 0, len(src))
	for i := len(src) - 1; i >= 0; i-- {
		out = append(out, src[i])
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

// ExportedPath returns the trip export written by the last Close.
func (b *Backend) ExportedPath() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.lastExp
}

func (b *Backend) allTrips() []core.TripRecord {
	var all []core.TripRecord
	for _, list := range b.trips {
		all = append(all, list...)
	}
	sort.SliceStable(all, func(i, j int) bool {
		return all[i].FinishedAt.Before(all[j].FinishedAt)
	})
	return all
}
