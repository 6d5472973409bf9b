package economy

import (
	"fmt"
	"slices"

	"github.com/matatu-hustle/simcore/pkg/core"
)

var routes = []core.Route{
	{
		ID: "cbd-westlands", Name: "CBD to Westlands",
		DistanceKm: 12, TimeLabel: "8 mins", Traffic: "heavy", Danger: "low",
		Mode: core.ModeHustle, Terrain: core.TerrainFlat, Violation: core.ViolationSidewalk,
		Waypoints: []core.Waypoint{{Lon: 36.8219, Lat: -1.2864}, {Lon: 36.8065, Lat: -1.2697}, {Lon: 36.8030, Lat: -1.2630}},
	},
	{
		ID: "thika-road", Name: "Thika Superhighway",
		DistanceKm: 45, TimeLabel: "20 mins", Traffic: "heavy", Danger: "medium",
		Mode: core.ModeHustle, Terrain: core.TerrainFlat, Violation: core.ViolationShoulder,
		Waypoints: []core.Waypoint{{Lon: 36.8300, Lat: -1.2800}, {Lon: 36.8900, Lat: -1.2190}, {Lon: 37.0693, Lat: -1.0388}},
	},
	{
		ID: "mai-mahiu", Name: "Mai Mahiu Escarpment",
		DistanceKm: 60, TimeLabel: "25 mins", Traffic: "medium", Danger: "high",
		Mode: core.ModeHustle, Terrain: core.TerrainEscarpment, Violation: core.ViolationOverlap,
		Waypoints: []core.Waypoint{{Lon: 36.6500, Lat: -1.1500}, {Lon: 36.5900, Lat: -1.0200}, {Lon: 36.5800, Lat: -0.9800}},
	},
	{
		ID: "mombasa-road", Name: "Mombasa Road",
		DistanceKm: 80, TimeLabel: "30 mins", Traffic: "medium", Danger: "medium",
		Mode: core.ModeHustle, Terrain: core.TerrainFlat, Violation: core.ViolationNone,
		Waypoints: []core.Waypoint{{Lon: 36.8400, Lat: -1.3100}, {Lon: 36.9200, Lat: -1.3900}, {Lon: 37.1000, Lat: -1.5200}},
	},
	{
		ID: "nakuru-sprint", Name: "Nairobi to Nakuru Sprint",
		DistanceKm: 160, TimeLabel: "1h 10m", Traffic: "light", Danger: "medium",
		Mode: core.ModeRace, Terrain: core.TerrainFlat, Violation: core.ViolationNone,
		Waypoints: []core.Waypoint{{Lon: 36.8219, Lat: -1.2864}, {Lon: 36.4300, Lat: -0.7200}, {Lon: 36.0800, Lat: -0.3031}},
	},
}

// earningCaps is the maximum fare revenue per route per vehicle before
// upgrades, assuming an average load at every stop.
var earningCaps = map[string]map[core.VehicleType]float64{
	"cbd-westlands": {
		core.VehicleBoda: 800, core.VehicleTuktuk: 1500, core.VehiclePersonalCar: 1800,
		core.Vehicle14Seater: 4200, core.Vehicle32Seater: 8000, core.Vehicle52Seater: 12000,
	},
	"thika-road": {
		core.VehicleBoda: 1500, core.VehicleTuktuk: 2600, core.VehiclePersonalCar: 3500,
		core.Vehicle14Seater: 9000, core.Vehicle32Seater: 17000, core.Vehicle52Seater: 26000,
	},
	"mai-mahiu": {
		core.VehicleBoda: 2000, core.VehicleTuktuk: 3200, core.VehiclePersonalCar: 4500,
		core.Vehicle14Seater: 12500, core.Vehicle32Seater: 24000, core.Vehicle52Seater: 36000,
	},
	"mombasa-road": {
		core.VehicleBoda: 2400, core.VehicleTuktuk: 4000, core.VehiclePersonalCar: 5500,
		core.Vehicle14Seater: 15000, core.Vehicle32Seater: 29000, core.Vehicle52Seater: 44000,
	},
}

// Routes returns the route catalog.
func Routes() []core.Route {
	out := make([]core.Route, len(routes))
	for i, r := range routes {
		out[i] = cloneRoute(r)
	}
	return out
}

func cloneRoute(r core.Route) core.Route {
	r.Waypoints = slices.Clone(r.Waypoints)
	return r
}

// RouteByID looks up a route.
func RouteByID(id string) (core.Route, error) {
	for _, r := range routes {
		if r.ID == id {
			return cloneRoute(r), nil
		}
	}
	return core.Route{}, fmt.Errorf("%w: %q", ErrUnknownRoute, id)
}

// EarningCap returns the base earning cap for a vehicle on a route, or 0 when
// the route pays no fares.
func EarningCap(routeID string, vehicle core.VehicleType) float64 {
	return earningCaps[routeID][vehicle]
}

// EstimatedStops is how many stages a route of totalUnits is expected to have.
func EstimatedStops(totalUnits float64) float64 {
	stops := totalUnits / AverageStageGap
	if stops < 1 {
		return 1
	}
	return stops
}
