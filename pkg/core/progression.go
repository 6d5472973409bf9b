package core

import "time"

// UpgradeTrack is one of the three independent per-vehicle upgrade paths.
type UpgradeTrack string

const (
	TrackEarnings    UpgradeTrack = "earnings"
	TrackFuel        UpgradeTrack = "fuel"
	TrackPerformance UpgradeTrack = "performance"
)

// AllTracks lists the upgrade tracks.
var AllTracks = []UpgradeTrack{TrackEarnings, TrackFuel, TrackPerformance}

// Valid reports whether t is a known track.
func (t UpgradeTrack) Valid() bool {
	return t == TrackEarnings || t == TrackFuel || t == TrackPerformance
}

// MaxUpgradeLevel is the highest level on any track.
const MaxUpgradeLevel = 4

// LifetimeStats aggregates results across all sessions.
type LifetimeStats struct {
	TotalCashEarned float64 `json:"totalCashEarned"`
	TotalDistanceKm float64 `json:"totalDistanceKm"`
	TotalBribesPaid float64 `json:"totalBribesPaid"`
	TripsCompleted  int     `json:"tripsCompleted"`
}

// Settings are player preferences persisted with the profile.
type Settings struct {
	SoundEnabled bool `json:"soundEnabled"`
}

// Snapshot is the flat persisted form of a player's progression.
type Snapshot struct {
	ProfileID        string                      `json:"profileId"`
	DisplayName      string                      `json:"displayName"`
	Guest            bool                        `json:"guest"`
	BankBalance      float64                     `json:"bankBalance"`
	UnlockedVehicles []VehicleType               `json:"unlockedVehicles"`
	Upgrades         map[UpgradeTrack]UpgradeMap `json:"upgrades"`
	Stats            LifetimeStats               `json:"stats"`
	Settings         Settings                    `json:"settings"`
	UpdatedAt        time.Time                   `json:"updatedAt"`
}

// UpgradeMap holds the level of one track per vehicle.
type UpgradeMap map[VehicleType]int

// TripRecord summarises one finished session for history and telemetry.
type TripRecord struct {
	ID          string      `json:"id"`
	ProfileID   string      `json:"profileId"`
	RouteID     string      `json:"routeId"`
	Vehicle     VehicleType `json:"vehicle"`
	Reason      EndReason   `json:"reason"`
	Cash        float64     `json:"cash"`
	FuelLiters  float64     `json:"fuelLiters"`
	FuelCost    float64     `json:"fuelCost"`
	Profit      float64     `json:"profit"`
	DistanceKm  float64     `json:"distanceKm"`
	BribesPaid  float64     `json:"bribesPaid"`
	Stages      int         `json:"stages"`
	Banked      bool        `json:"banked"`
	Multiplayer bool        `json:"multiplayer"`
	FinishedAt  time.Time   `json:"finishedAt"`
}
