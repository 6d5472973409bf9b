// Package model holds the GORM records persisted by the database backends.
package model

import (
	"time"

	"gorm.io/datatypes"
)

// DatabaseModels lists every table migrated by the database backends.
var DatabaseModels = []any{
	&Profile{},
	&Trip{},
}

// Profile is the persisted progression of one player.
type Profile struct {
	ID        string    `json:"id" gorm:"primaryKey;size:64"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	DisplayName string  `json:"displayName" gorm:"size:64"`
	Guest       bool    `json:"guest"`
	BankBalance float64 `json:"bankBalance"`

	// JSON arrays/objects keyed by vehicle type
	UnlockedVehicles datatypes.JSON `json:"unlockedVehicles"`
	Upgrades         datatypes.JSON `json:"upgrades"`

	SoundEnabled bool `json:"soundEnabled"`

	TotalCashEarned float64 `json:"totalCashEarned"`
	TotalDistanceKm float64 `json:"totalDistanceKm"`
	TotalBribesPaid float64 `json:"totalBribesPaid"`
	TripsCompleted  int     `json:"tripsCompleted"`

	// SavedAt is the snapshot's own modification time.
	SavedAt time.Time `json:"savedAt"`
}

func (*Profile) TableName() string {
	return "profiles"
}

// Trip is one finished session.
type Trip struct {
	ID          string    `json:"id" gorm:"primaryKey;size:36"`
	ProfileID   string    `json:"profileId" gorm:"index;size:64"`
	RouteID     string    `json:"routeId" gorm:"size:64"`
	Vehicle     string    `json:"vehicle" gorm:"size:32"`
	Reason      string    `json:"reason" gorm:"size:16"`
	Cash        float64   `json:"cash"`
	FuelLiters  float64   `json:"fuelLiters"`
	FuelCost    float64   `json:"fuelCost"`
	Profit      float64   `json:"profit"`
	DistanceKm  float64   `json:"distanceKm"`
	BribesPaid  float64   `json:"bribesPaid"`
	Stages      int       `json:"stages"`
	Banked      bool      `json:"banked"`
	Multiplayer bool      `json:"multiplayer"`
	FinishedAt  time.Time `json:"finishedAt" gorm:"index"`
}

func (*Trip) TableName() string {
	return "trips"
}
