// Package gormstorage implements storage.Backend on top of a *gorm.DB.
// Profiles are upserted synchronously; trips are queued and inserted in
// batches by a flush goroutine. The sqlite and postgres backends embed it.
package gormstorage

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/matatu-hustle/simcore/internal/database"
	"github.com/matatu-hustle/simcore/internal/model"
	"github.com/matatu-hustle/simcore/internal/model/convert"
	"github.com/matatu-hustle/simcore/internal/queue"
	"github.com/matatu-hustle/simcore/internal/storage"
	"github.com/matatu-hustle/simcore/pkg/core"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	defaultFlushInterval = 2 * time.Second
	defaultBatchSize     = 100
	defaultQueueLimit    = 10000
)

// profileUpdateColumns are overwritten when a profile row already exists.
var profileUpdateColumns = []string{
	"updated_at", "display_name", "guest", "bank_balance",
	"unlocked_vehicles", "upgrades", "sound_enabled",
	"total_cash_earned", "total_distance_km", "total_bribes_paid",
	"trips_completed", "saved_at",
}

// Dependencies configures a Backend.
type Dependencies struct {
	DB     *gorm.DB
	Logger *slog.Logger

	FlushInterval time.Duration
	BatchSize     int
	QueueLimit    int
}

// Backend persists profiles and trips through GORM.
type Backend struct {
	db    *gorm.DB
	log   *slog.Logger
	trips *queue.Queue[model.Trip]

	flushEvery time.Duration
	batchSize  int

	flushMu   sync.Mutex
	started   atomic.Bool
	stopChan  chan struct{}
	done      chan struct{}
	closeOnce sync.Once
}

// New creates a Backend. Zero values in deps take defaults.
func New(deps Dependencies) *Backend {
	b := &Backend{
		db:         deps.DB,
		log:        deps.Logger,
		flushEvery: deps.FlushInterval,
		batchSize:  deps.BatchSize,
		stopChan:   make(chan struct{}),
		done:       make(chan struct{}),
	}
	if b.log == nil {
		b.log = slog.Default()
	}
	if b.flushEvery <= 0 {
		b.flushEvery = defaultFlushInterval
	}
	if b.batchSize <= 0 {
		b.batchSize = defaultBatchSize
	}
	limit := deps.QueueLimit
	if limit <= 0 {
		limit = defaultQueueLimit
	}
	b.trips = queue.New[model.Trip](limit)
	return b
}

// DB exposes the underlying connection.
func (b *Backend) DB() *gorm.DB {
	return b.db
}

// Init migrates the schema and starts the flush goroutine.
func (b *Backend) Init() error {
	if b.db == nil {
		return errors.New("gorm backend has no database")
	}
	if err := database.Migrate(b.db); err != nil {
		return err
	}
	b.started.Store(true)
	go b.flushLoop()
	return nil
}

// Close stops the flush goroutine and writes any queued trips.
func (b *Backend) Close() error {
	b.closeOnce.Do(func() {
		close(b.stopChan)
	})
	if b.started.Load() {
		<-b.done
	}
	if b.db == nil {
		return nil
	}
	return b.Flush()
}

func (b *Backend) flushLoop() {
	defer close(b.done)
	ticker := time.NewTicker(b.flushEvery)
	defer ticker.Stop()

	for {
		select {
		case <-b.stopChan:
			return
		case <-ticker.C:
			if err := b.Flush(); err != nil {
				b.log.Error("Failed to flush trips", "error", err, "pending", b.trips.Len())
			}
		}
	}
}

// SaveProfile upserts the snapshot's row.
func (b *Backend) SaveProfile(s core.Snapshot) error {
	if !storage.ValidProfileID(s.ProfileID) {
		return fmt.Errorf("%w: %q", storage.ErrInvalidProfileID, s.ProfileID)
	}
	row := convert.SnapshotToProfile(s)
	err := b.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns(profileUpdateColumns),
	}).Create(&row).Error
	if err != nil {
		return fmt.Errorf("failed to save profile %s: %w", s.ProfileID, err)
	}
	return nil
}

// LoadProfile reads the profile row and rebuilds its snapshot.
func (b *Backend) LoadProfile(profileID string) (core.Snapshot, error) {
	if !storage.ValidProfileID(profileID) {
		return core.Snapshot{}, fmt.Errorf("%w: %q", storage.ErrInvalidProfileID, profileID)
	}

	var row model.Profile
	err := b.db.Where("id = ?", profileID).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return core.Snapshot{}, storage.ErrNotFound
	}
	if err != nil {
		return core.Snapshot{}, fmt.Errorf("failed to load profile %s: %w", profileID, err)
	}

	snap, bad := convert.ProfileToSnapshot(row)
	if len(bad) > 0 {
		b.log.Warn("Profile has unreadable fields, using defaults", "profileId", profileID, "fields", bad)
	}
	return snap, nil
}

// RecordTrip queues the trip for the next flush.
func (b *Backend) RecordTrip(t core.TripRecord) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	if dropped := b.trips.Push(convert.TripToModel(t)); dropped > 0 {
		b.log.Warn("Trip queue full, dropped oldest", "dropped", dropped)
	}
	return nil
}

// Flush inserts every queued trip. Batches that fail are put back.
func (b *Backend) Flush() error {
	b.flushMu.Lock()
	defer b.flushMu.Unlock()

	for {
		batch := b.trips.Drain(b.batchSize)
		if len(batch) == 0 {
			return nil
		}
		err := b.db.Clauses(clause.OnConflict{DoNothing: true}).Create(&batch).Error
		if err != nil {
			b.trips.Requeue(batch...)
			return fmt.Errorf("failed to insert %d trips: %w", len(batch), err)
		}
		b.log.Debug("Flushed trips", "count", len(batch))
	}
}

// Pending returns the number of queued trips.
func (b *Backend) Pending() int {
	return b.trips.Len()
}

// ListTrips flushes pending trips and returns the profile's history, newest
// first. limit <= 0 returns all.
func (b *Backend) ListTrips(profileID string, limit int) ([]core.TripRecord, error) {
	if err := b.Flush(); err != nil {
		return nil, err
	}

	q := b.db.Where("profile_id = ?", profileID).Order("finished_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	var rows []model.Trip
	if err := q.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list trips: %w", err)
	}

	out := make([]core.TripRecord, len(rows))
	for i, r := range rows {
		out[i] = convert.TripToCore(r)
	}
	return out, nil
}
