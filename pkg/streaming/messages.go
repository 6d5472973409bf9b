// Package streaming defines the messages a game server sends to a remote
// sync service to mirror player progression and trip history.
package streaming

import (
	"encoding/json"

	"github.com/matatu-hustle/simcore/pkg/core"
)

// Message type constants matching the sync protocol.
const (
	TypeHello       = "hello"
	TypeSaveProfile = "save_profile"
	TypeRecordTrip  = "record_trip"
)

// Envelope wraps all messages sent over the WebSocket.
type Envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// AckMessage is the server's acknowledgement response.
type AckMessage struct {
	Type string `json:"type"` // always "ack"
	For  string `json:"for"`  // the message type being acknowledged
}

// HelloPayload identifies the sending game server. It is replayed after
// every reconnect.
type HelloPayload struct {
	ServerID string `json:"serverId"`
	Version  string `json:"version"`
}

// SaveProfilePayload carries a full progression snapshot.
type SaveProfilePayload struct {
	Profile core.Snapshot `json:"profile"`
}

// RecordTripPayload carries one finished session.
type RecordTripPayload struct {
	Trip core.TripRecord `json:"trip"`
}
