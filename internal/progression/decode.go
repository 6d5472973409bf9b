package progression

import (
	"encoding/json"

	"github.com/matatu-hustle/simcore/pkg/core"
)

// DecodeSnapshot parses a saved snapshot. Fields that fail to decode keep
// their default value and are reported in bad; a document that is not a JSON
// object yields the defaults.
func DecodeSnapshot(data []byte, profileID string) (core.Snapshot, []string) {
	snap := Default(profileID)

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return snap, []string{"*"}
	}

	var bad []string
	field(fields, "profileId", &snap.ProfileID, &bad)
	field(fields, "displayName", &snap.DisplayName, &bad)
	field(fields, "guest", &snap.Guest, &bad)
	field(fields, "bankBalance", &snap.BankBalance, &bad)
	field(fields, "unlockedVehicles", &snap.UnlockedVehicles, &bad)
	field(fields, "upgrades", &snap.Upgrades, &bad)
	field(fields, "stats", &snap.Stats, &bad)
	field(fields, "settings", &snap.Settings, &bad)
	field(fields, "updatedAt", &snap.UpdatedAt, &bad)

	if snap.ProfileID == "" {
		snap.ProfileID = profileID
	}
	return normalize(snap), bad
}

func field[T any](fields map[string]json.RawMessage, key string, dst *T, bad *[]string) {
	raw, ok := fields[key]
	if !ok || string(raw) == "null" {
		return
	}
	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		*bad = append(*bad, key)
		return
	}
	*dst = v
}
