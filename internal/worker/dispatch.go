package worker

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/matatu-hustle/simcore/internal/dispatcher"
	"github.com/matatu-hustle/simcore/internal/progression"
	"github.com/matatu-hustle/simcore/internal/session"
	"github.com/matatu-hustle/simcore/pkg/core"
)

// Commands handled by the worker.
const (
	CmdSaveProfile = ":SAVE:PROFILE:"
	CmdRecordTrip  = ":RECORD:TRIP:"
)

const queueSize = 256

// RegisterHandlers registers the persistence commands with the dispatcher.
// Both are buffered so the simulation never waits on storage.
func (m *Manager) RegisterHandlers(d *dispatcher.Dispatcher) {
	d.Register(CmdSaveProfile, m.handleSaveProfile, dispatcher.Buffered(queueSize), dispatcher.Logged())
	d.Register(CmdRecordTrip, m.handleRecordTrip, dispatcher.Buffered(queueSize), dispatcher.Logged())

	m.dispatch = func(cmd string, args ...string) error {
		_, err := d.Dispatch(dispatcher.Event{Command: cmd, Args: args, Source: "worker"})
		return err
	}
}

// handleSaveProfile expects [profileID, snapshot JSON].
func (m *Manager) handleSaveProfile(e dispatcher.Event) (any, error) {
	if len(e.Args) < 2 {
		return nil, fmt.Errorf("save profile: expected 2 args, got %d", len(e.Args))
	}
	snap, bad := progression.DecodeSnapshot([]byte(e.Args[1]), e.Args[0])
	if len(bad) > 0 {
		return nil, fmt.Errorf("save profile %s: unreadable fields %v", e.Args[0], bad)
	}

	if err := m.deps.Primary.SaveProfile(snap); err != nil {
		return nil, fmt.Errorf("save profile %s: %w", snap.ProfileID, err)
	}
	for _, mirror := range m.deps.Mirrors {
		if err := mirror.SaveProfile(snap); err != nil {
			m.log.Warn("Mirror failed to save profile", "profileId", snap.ProfileID, "error", err)
		}
	}
	return nil, nil
}

// handleRecordTrip expects [trip JSON].
func (m *Manager) handleRecordTrip(e dispatcher.Event) (any, error) {
	var trip core.TripRecord
	if err := json.Unmarshal([]byte(e.Arg(0)), &trip); err != nil {
		return nil, fmt.Errorf("record trip: %w", err)
	}

	if err := m.deps.Primary.RecordTrip(trip); err != nil {
		return nil, fmt.Errorf("record trip %s: %w", trip.ID, err)
	}
	for _, mirror := range m.deps.Mirrors {
		if err := mirror.RecordTrip(trip); err != nil {
			m.log.Warn("Mirror failed to record trip", "tripId", trip.ID, "error", err)
		}
	}
	if m.deps.Telemetry != nil {
		m.deps.Telemetry.WriteTrip(trip)
	}
	return nil, nil
}

// Persister adapts the manager to session.Persister. Calls never block; a
// write that cannot be queued is logged and lost.
func (m *Manager) Persister() session.Persister {
	return persister{m}
}

type persister struct {
	m *Manager
}

func (p persister) SaveSnapshot(s core.Snapshot) {
	data, err := json.Marshal(s)
	if err != nil {
		p.m.log.Error("Failed to encode snapshot", "profileId", s.ProfileID, "error", err)
		return
	}
	p.submit(CmdSaveProfile, s.ProfileID, string(data))
}

func (p persister) RecordTrip(t core.TripRecord) {
	data, err := json.Marshal(t)
	if err != nil {
		p.m.log.Error("Failed to encode trip", "tripId", t.ID, "error", err)
		return
	}
	p.submit(CmdRecordTrip, string(data))
}

func (p persister) submit(cmd string, args ...string) {
	if p.m.dispatch == nil {
		p.m.log.Error("Persistence handlers not registered", "command", cmd)
		return
	}
	if err := p.m.dispatch(cmd, args...); err != nil {
		if errors.Is(err, dispatcher.ErrQueueFull) {
			p.m.log.Warn("Persistence queue full, dropping write", "command", cmd)
			return
		}
		p.m.log.Error("Failed to queue write", "command", cmd, "error", err)
	}
}
