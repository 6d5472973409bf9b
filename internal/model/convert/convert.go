// Package convert maps between core snapshots/trips and GORM records.
package convert

import (
	"encoding/json"

	"gorm.io/datatypes"

	"github.com/matatu-hustle/simcore/internal/model"
	"github.com/matatu-hustle/simcore/internal/progression"
	"github.com/matatu-hustle/simcore/pkg/core"
)

// toJSON encodes v for a JSON column, falling back to fallback on error.
func toJSON(v any, fallback string) datatypes.JSON {
	data, err := json.Marshal(v)
	if err != nil {
		return datatypes.JSON(fallback)
	}
	return datatypes.JSON(data)
}

// SnapshotToProfile flattens a snapshot into a Profile row.
func SnapshotToProfile(s core.Snapshot) model.Profile {
	return model.Profile{
		ID:               s.ProfileID,
		DisplayName:      s.DisplayName,
		Guest:            s.Guest,
		BankBalance:      s.BankBalance,
		UnlockedVehicles: toJSON(s.UnlockedVehicles, "[]"),
		Upgrades:         toJSON(s.Upgrades, "{}"),
		SoundEnabled:     s.Settings.SoundEnabled,
		TotalCashEarned:  s.Stats.TotalCashEarned,
		TotalDistanceKm:  s.Stats.TotalDistanceKm,
		TotalBribesPaid:  s.Stats.TotalBribesPaid,
		TripsCompleted:   s.Stats.TripsCompleted,
		SavedAt:          s.UpdatedAt,
	}
}

// ProfileToSnapshot rebuilds a snapshot. JSON columns that do not parse
// fall back to their defaults and are named in bad.
func ProfileToSnapshot(p model.Profile) (snap core.Snapshot, bad []string) {
	doc := map[string]any{
		"profileId":   p.ID,
		"displayName": p.DisplayName,
		"guest":       p.Guest,
		"bankBalance": p.BankBalance,
		"stats": core.LifetimeStats{
			TotalCashEarned: p.TotalCashEarned,
			TotalDistanceKm: p.TotalDistanceKm,
			TotalBribesPaid: p.TotalBribesPaid,
			TripsCompleted:  p.TripsCompleted,
		},
		"settings":  core.Settings{SoundEnabled: p.SoundEnabled},
		"updatedAt": p.SavedAt,
	}
	columns := []struct {
		key string
		raw datatypes.JSON
	}{
		{"unlockedVehicles", p.UnlockedVehicles},
		{"upgrades", p.Upgrades},
	}
	for _, col := range columns {
		if len(col.raw) == 0 {
			continue
		}
		if !json.Valid(col.raw) {
			bad = append(bad, col.key)
			continue
		}
		doc[col.key] = json.RawMessage(col.raw)
	}

	data, err := json.Marshal(doc)
	if err != nil {
		return progression.Default(p.ID), []string{"*"}
	}
	snap, more := progression.DecodeSnapshot(data, p.ID)
	return snap, append(bad, more...)
}

// TripToModel converts a trip record to its row.
func TripToModel(t core.TripRecord) model.Trip {
	return model.Trip{
		ID:          t.ID,
		ProfileID:   t.ProfileID,
		RouteID:     t.RouteID,
		Vehicle:     string(t.Vehicle),
		Reason:      string(t.Reason),
		Cash:        t.Cash,
		FuelLiters:  t.FuelLiters,
		FuelCost:    t.FuelCost,
		Profit:      t.Profit,
		DistanceKm:  t.DistanceKm,
		BribesPaid:  t.BribesPaid,
		Stages:      t.Stages,
		Banked:      t.Banked,
		Multiplayer: t.Multiplayer,
		FinishedAt:  t.FinishedAt,
	}
}

// TripToCore converts a trip row back to a record.
func TripToCore(t model.Trip) core.TripRecord {
	return core.TripRecord{
		ID:          t.ID,
		ProfileID:   t.ProfileID,
		RouteID:     t.RouteID,
		Vehicle:     core.VehicleType(t.Vehicle),
		Reason:      core.EndReason(t.Reason),
		Cash:        t.Cash,
		FuelLiters:  t.FuelLiters,
		FuelCost:    t.FuelCost,
		Profit:      t.Profit,
		DistanceKm:  t.DistanceKm,
		BribesPaid:  t.BribesPaid,
		Stages:      t.Stages,
		Banked:      t.Banked,
		Multiplayer: t.Multiplayer,
		FinishedAt:  t.FinishedAt,
	}
}
