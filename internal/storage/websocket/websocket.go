package websocket

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/matatu-hustle/simcore/internal/storage"
	"github.com/matatu-hustle/simcore/pkg/core"
	"github.com/matatu-hustle/simcore/pkg/streaming"
)

// Config holds WebSocket backend configuration.
type Config struct {
	URL      string
	Secret   string
	ServerID string
	Version  string
}

// Backend mirrors saved profiles and finished trips to a remote sync
// service. It is write-only: LoadProfile always reports ErrNotFound, so it
// is used next to a primary backend rather than instead of one.
type Backend struct {
	conn *connection
	cfg  Config
}

// New creates a new WebSocket storage backend.
func New(cfg Config, logger *slog.Logger) *Backend {
	if logger == nil {
		logger = slog.Default()
	}
	return &Backend{
		conn: newConnection(logger.With("component", "sync")),
		cfg:  cfg,
	}
}

// Init connects and waits for the server to acknowledge the hello.
func (b *Backend) Init() error {
	if err := b.conn.dial(b.cfg.URL, b.cfg.Secret); err != nil {
		return err
	}

	data, err := marshalEnvelope(streaming.TypeHello, streaming.HelloPayload{
		ServerID: b.cfg.ServerID,
		Version:  b.cfg.Version,
	})
	if err != nil {
		return err
	}

	// Cache for reconnect replay.
	b.conn.mu.Lock()
	b.conn.hello = data
	b.conn.mu.Unlock()

	return b.conn.sendAndWait(data, streaming.TypeHello, ackTimeout)
}

// Close disconnects from the WebSocket server.
func (b *Backend) Close() error {
	return b.conn.close()
}

// marshalEnvelope builds a JSON-encoded Envelope from a message type and payload.
func marshalEnvelope(msgType string, payload any) ([]byte, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal %s payload: %w", msgType, err)
	}
	env := streaming.Envelope{Type: msgType, Payload: raw}
	data, err := json.Marshal(env)
	if err != nil {
		return nil, fmt.Errorf("marshal %s envelope: %w", msgType, err)
	}
	return data, nil
}

// sendEnvelope marshals the payload into an Envelope and pushes it
// to the write loop (fire-and-forget).
func (b *Backend) sendEnvelope(msgType string, payload any) error {
	data, err := marshalEnvelope(msgType, payload)
	if err != nil {
		return err
	}
	b.conn.send(data)
	return nil
}

func (b *Backend) SaveProfile(s core.Snapshot) error {
	return b.sendEnvelope(streaming.TypeSaveProfile, streaming.SaveProfilePayload{Profile: s})
}

func (b *Backend) LoadProfile(string) (core.Snapshot, error) {
	return core.Snapshot{}, storage.ErrNotFound
}

func (b *Backend) RecordTrip(t core.TripRecord) error {
	return b.sendEnvelope(streaming.TypeRecordTrip, streaming.RecordTripPayload{Trip: t})
}

// Dropped counts messages discarded because the send buffer was full.
func (b *Backend) Dropped() uint64 {
	return b.conn.dropped.Load()
}
