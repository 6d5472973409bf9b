package core

// GameMode selects the ruleset of a route.
type GameMode string

const (
	// ModeHustle enables passengers, fares and police checks.
	ModeHustle GameMode = "HUSTLE"
	// ModeRace is a pure time attack with no stage or police triggers.
	ModeRace GameMode = "RACE"
)

// Terrain describes how the road surface affects motion.
type Terrain string

const (
	TerrainFlat Terrain = "flat"
	// TerrainEscarpment is a long descent: gravity assists coasting and
	// brakes accumulate heat and fade.
	TerrainEscarpment Terrain = "escarpment"
)

// Lane is the player's current lateral position as reported by the render layer.
type Lane string

const (
	LaneNormal   Lane = "normal"
	LaneShoulder Lane = "shoulder"
	LaneSidewalk Lane = "sidewalk"
	LaneOncoming Lane = "oncoming"
)

// ViolationRule names the lane that counts as an illegal maneuver on a route.
type ViolationRule string

const (
	ViolationNone     ViolationRule = ""
	ViolationShoulder ViolationRule = "shoulder"
	ViolationSidewalk ViolationRule = "sidewalk"
	ViolationOverlap  ViolationRule = "overlap"
)

// Violates reports whether driving in lane breaks the rule.
func (r ViolationRule) Violates(lane Lane) bool {
	switch r {
	case ViolationShoulder:
		return lane == LaneShoulder
	case ViolationSidewalk:
		return lane == LaneSidewalk
	case ViolationOverlap:
		return lane == LaneOncoming
	default:
		return false
	}
}

// Waypoint is a geographic point in EPSG:4326 (longitude, latitude).
type Waypoint struct {
	Lon float64 `json:"lon"`
	Lat float64 `json:"lat"`
}

// Route is a drivable route with its static descriptors.
type Route struct {
	ID         string        `json:"id"`
	Name       string        `json:"name"`
	DistanceKm float64       `json:"distanceKm"`
	TimeLabel  string        `json:"timeLabel"` // nominal time limit, e.g. "25 mins"
	Traffic    string        `json:"traffic"`
	Danger     string        `json:"danger"`
	Mode       GameMode      `json:"mode"`
	Terrain    Terrain       `json:"terrain"`
	Violation  ViolationRule `json:"violation"`
	Waypoints  []Waypoint    `json:"waypoints"`
}

// Gravity reports whether coasting accelerates the vehicle.
func (r Route) Gravity() bool {
	return r.Terrain == TerrainEscarpment
}

// BrakeFade reports whether braking accumulates heat.
func (r Route) BrakeFade() bool {
	return r.Terrain == TerrainEscarpment
}
