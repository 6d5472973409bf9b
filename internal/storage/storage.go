// Package storage defines the persistence contract for player progression
// and trip history. Backends live in the sub-packages.
package storage

import (
	"errors"
	"regexp"

	"github.com/matatu-hustle/simcore/pkg/core"
)

var (
	// ErrNotFound is returned by LoadProfile when no profile is stored under the id.
	ErrNotFound = errors.New("profile not found")
	// ErrInvalidProfileID is returned for ids that cannot be used as storage keys.
	ErrInvalidProfileID = errors.New("invalid profile id")
)

var profileIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)

// ValidProfileID reports whether id is usable as a storage key.
func ValidProfileID(id string) bool {
	return profileIDPattern.MatchString(id)
}

// Backend is the interface all storage implementations must satisfy
type Backend interface {
	Init() error
	Close() error

	// SaveProfile replaces the stored snapshot for s.ProfileID.
	SaveProfile(s core.Snapshot) error
	// LoadProfile returns ErrNotFound when nothing is stored. Partially
	// corrupt records load with defaults for the unreadable fields.
	LoadProfile(profileID string) (core.Snapshot, error)

	RecordTrip(t core.TripRecord) error
}

// TripLister is an optional interface for backends that can return trip
// history, newest first.
type TripLister interface {
	ListTrips(profileID string, limit int) ([]core.TripRecord, error)
}
