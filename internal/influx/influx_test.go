package influx

import (
	"compress/gzip"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	influxdb2_write "github.com/influxdata/influxdb-client-go/v2/api/write"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matatu-hustle/simcore/internal/config"
	"github.com/matatu-hustle/simcore/pkg/core"
)

func sampleTrip() core.TripRecord {
	return core.TripRecord{
		ID:         "t1",
		ProfileID:  "player-1",
		RouteID:    "thika-road",
		Vehicle:    core.Vehicle14Seater,
		Reason:     core.ReasonCompleted,
		Cash:       9000,
		Profit:     800,
		Stages:     12,
		Banked:     true,
		FinishedAt: time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestTripPoint(t *testing.T) {
	line := influxdb2_write.PointToLineProtocol(TripPoint(sampleTrip()), time.Nanosecond)

	assert.True(t, strings.HasPrefix(line, "trip,"))
	assert.Contains(t, line, "route=thika-road")
	assert.Contains(t, line, "vehicle=14-seater")
	assert.Contains(t, line, "reason=COMPLETED")
	assert.Contains(t, line, "multiplayer=false")
	assert.Contains(t, line, "profit=800")
	assert.Contains(t, line, "stages=12i")
	assert.Contains(t, line, "banked=true")
}

func TestConnect_Disabled(t *testing.T) {
	m := NewManager(zerolog.Nop(), config.InfluxConfig{Enabled: false}, "")
	assert.Error(t, m.Connect(context.Background()))
	assert.NoError(t, m.Close())
}

func TestWriteTrip_FallsBackToBackupFile(t *testing.T) {
	backup := filepath.Join(t.TempDir(), "influx_backup.log.gz")
	m := NewManager(zerolog.Nop(), config.InfluxConfig{
		Enabled:  true,
		Protocol: "http",
		Host:     "127.0.0.1",
		Port:     "1",
		Bucket:   "trips",
		Org:      "hustle-metrics",
	}, backup)

	require.NoError(t, m.Connect(context.Background()))
	assert.False(t, m.IsValid)

	m.WriteTrip(sampleTrip())
	require.NoError(t, m.Close())

	f, err := os.Open(backup)
	require.NoError(t, err)
	defer f.Close()
	gz, err := gzip.NewReader(f)
	require.NoError(t, err)
	data, err := io.ReadAll(gz)
	require.NoError(t, err)

	assert.Contains(t, string(data), "trip,")
	assert.Contains(t, string(data), "route=thika-road")
}

func TestWritePoint_NoSink(t *testing.T) {
	m := NewManager(zerolog.Nop(), config.InfluxConfig{Bucket: "trips"}, "")
	assert.Error(t, m.WritePoint("trips", TripPoint(sampleTrip())))
}
