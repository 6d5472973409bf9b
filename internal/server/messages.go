package server

import (
	"github.com/matatu-hustle/simcore/internal/loop"
	"github.com/matatu-hustle/simcore/pkg/core"
)

// Frame types sent to clients.
const (
	FrameWelcome = "welcome"
	FrameUpdate  = "update"
	FrameResult  = "result"
)

// Request is a command sent by the client.
type Request struct {
	// ID is echoed back in the matching result frame.
	ID      string   `json:"id,omitempty"`
	Command string   `json:"command"`
	Args    []string `json:"args,omitempty"`
}

// Frame is the envelope of every message sent to the client. Only the
// fields relevant to Type are set.
type Frame struct {
	Type string `json:"type"`

	// welcome
	SessionID string         `json:"sessionId,omitempty"`
	Profile   *core.Snapshot `json:"profile,omitempty"`

	// update
	Update *loop.Update `json:"update,omitempty"`

	// result
	ID      string `json:"id,omitempty"`
	Command string `json:"command,omitempty"`
	Result  any    `json:"result,omitempty"`
	Error   string `json:"error,omitempty"`
}

// RouteInfo is one entry of the route catalogue.
type RouteInfo struct {
	core.Route
	// LengthKm is the ground length of the waypoint line.
	LengthKm float64 `json:"lengthKm"`
	// Geometry is the route line as WKT in EPSG:3857.
	Geometry string `json:"geometry,omitempty"`
}
