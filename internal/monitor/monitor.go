// Package monitor periodically records how busy the server is: live
// sessions, trips waiting to be flushed and messages the sync mirror had to
// drop. The latest status is kept in a JSON file next to the logs and
// exported as OTel gauges.
package monitor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

const instrumentationName = "github.com/matatu-hustle/simcore/internal/monitor"

// DefaultInterval is used when Dependencies.Interval is not set.
const DefaultInterval = 5 * time.Second

// SessionCounter reports the number of connected sessions.
type SessionCounter interface {
	Sessions() int
}

// PendingCounter is implemented by storage backends that batch trip writes.
type PendingCounter interface {
	Pending() int
}

// DropCounter is implemented by the sync mirror.
type DropCounter interface {
	Dropped() uint64
}

// Dependencies holds all dependencies for the monitor service
type Dependencies struct {
	Sessions SessionCounter
	// Storage is checked for PendingCounter; other backends report zero.
	Storage any
	// Mirrors are checked for DropCounter.
	Mirrors    []any
	StatusFile string
	Interval   time.Duration
	Logger     *slog.Logger
	Now        func() time.Time
}

// Status is one sample.
type Status struct {
	Time         time.Time `json:"time"`
	Uptime       string    `json:"uptime"`
	Sessions     int       `json:"sessions"`
	PendingTrips int       `json:"pendingTrips"`
	MirrorDrops  uint64    `json:"mirrorDrops"`
}

// Service manages status monitoring
type Service struct {
	deps      Dependencies
	log       *slog.Logger
	startedAt time.Time

	mu        sync.RWMutex
	isRunning bool
	stopChan  chan struct{}
	done      chan struct{}
}

// NewService creates a new monitor service and registers its gauges with
// the global meter provider.
func NewService(deps Dependencies) (*Service, error) {
	if deps.Sessions == nil {
		return nil, errors.New("monitor: session counter is required")
	}
	if deps.Interval <= 0 {
		deps.Interval = DefaultInterval
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	log := deps.Logger
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	s := &Service{
		deps:      deps,
		log:       log,
		startedAt: deps.Now(),
	}
	if err := s.registerGauges(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Service) registerGauges() error {
	m := otel.Meter(instrumentationName)

	sessions, err := m.Int64ObservableGauge(
		"server.sessions",
		metric.WithDescription("Connected player sessions"),
	)
	if err != nil {
		return fmt.Errorf("creating sessions gauge: %w", err)
	}
	pending, err := m.Int64ObservableGauge(
		"storage.trips.pending",
		metric.WithDescription("Trips queued for the next storage flush"),
	)
	if err != nil {
		return fmt.Errorf("creating pending trips gauge: %w", err)
	}

	_, err = m.RegisterCallback(
		func(ctx context.Context, o metric.Observer) error {
			st := s.Snapshot()
			o.ObserveInt64(sessions, int64(st.Sessions))
			o.ObserveInt64(pending, int64(st.PendingTrips))
			return nil
		},
		sessions, pending,
	)
	if err != nil {
		return fmt.Errorf("registering monitor callback: %w", err)
	}
	return nil
}

// Snapshot samples the current status.
func (s *Service) Snapshot() Status {
	now := s.deps.Now()
	st := Status{
		Time:     now,
		Uptime:   now.Sub(s.startedAt).Round(time.Second).String(),
		Sessions: s.deps.Sessions.Sessions(),
	}
	if p, ok := s.deps.Storage.(PendingCounter); ok {
		st.PendingTrips = p.Pending()
	}
	for _, m := range s.deps.Mirrors {
		if d, ok := m.(DropCounter); ok {
			st.MirrorDrops += d.Dropped()
		}
	}
	return st
}

// IsRunning returns whether the status monitor is running
func (s *Service) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// Start starts the status monitor goroutine. Calling it again while running
// is a no-op.
func (s *Service) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.isRunning {
		return
	}
	s.isRunning = true
	s.stopChan = make(chan struct{})
	s.done = make(chan struct{})
	go s.run(s.stopChan, s.done)
}

// Stop stops the status monitor and waits for the last status write.
func (s *Service) Stop() {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return
	}
	s.isRunning = false
	close(s.stopChan)
	done := s.done
	s.mu.Unlock()
	<-done
}

func (s *Service) run(stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)
	s.log.Debug("Starting status monitor", "interval", s.deps.Interval)

	ticker := time.NewTicker(s.deps.Interval)
	defer ticker.Stop()

	var last Status
	for {
		select {
		case <-stop:
			s.write(s.Snapshot())
			return
		case <-ticker.C:
			st := s.Snapshot()
			s.write(st)
			if st.MirrorDrops > last.MirrorDrops {
				s.log.Warn("Sync mirror dropped messages", "total", st.MirrorDrops, "new", st.MirrorDrops-last.MirrorDrops)
			}
			if st.Sessions != last.Sessions {
				s.log.Info("Sessions changed", "sessions", st.Sessions)
			}
			last = st
		}
	}
}

// write replaces the status file so readers never see a partial document.
func (s *Service) write(st Status) {
	if s.deps.StatusFile == "" {
		return
	}
	data, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		s.log.Error("Error encoding status", "error", err)
		return
	}
	tmp := s.deps.StatusFile + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		s.log.Error("Error writing status file", "error", err)
		return
	}
	if err := os.Rename(tmp, s.deps.StatusFile); err != nil {
		s.log.Error("Error replacing status file", "error", err)
	}
}
