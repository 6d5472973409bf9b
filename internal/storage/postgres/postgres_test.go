package postgres

import (
	"path/filepath"
	"testing"

	"github.com/matatu-hustle/simcore/internal/progression"
	"github.com/matatu-hustle/simcore/internal/storage"
	"github.com/matatu-hustle/simcore/pkg/core"
	"github.com/rs/zerolog"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Compile-time interface checks
var (
	_ storage.Backend    = (*Backend)(nil)
	_ storage.TripLister = (*Backend)(nil)
)

// unreachablePostgres points the db.* keys at a port nothing listens on.
func unreachablePostgres(t *testing.T) {
	t.Helper()
	viper.Set("db.host", "127.0.0.1")
	viper.Set("db.port", "1")
	viper.Set("db.username", "postgres")
	viper.Set("db.password", "postgres")
	viper.Set("db.database", "hustle")
	t.Cleanup(viper.Reset)
}

func TestNew_FallsBackToSQLite(t *testing.T) {
	unreachablePostgres(t)
	path := filepath.Join(t.TempDir(), "fallback.db")

	b, err := New(Dependencies{DBLogger: zerolog.Nop(), FallbackPath: path})
	require.NoError(t, err)
	require.NoError(t, b.Init())
	defer b.Close()

	assert.True(t, b.Local())
	assert.Equal(t, "sqlite", b.Dialect())
	assert.FileExists(t, path)
}

func TestFallback_SavesAndLoads(t *testing.T) {
	unreachablePostgres(t)

	b, err := New(Dependencies{DBLogger: zerolog.Nop(), FallbackPath: filepath.Join(t.TempDir(), "fallback.db")})
	require.NoError(t, err)
	require.NoError(t, b.Init())
	defer b.Close()

	s := progression.Default("player-9")
	s.BankBalance = 640
	require.NoError(t, b.SaveProfile(s))
	require.NoError(t, b.RecordTrip(core.TripRecord{ID: "t9", ProfileID: "player-9", Reason: core.ReasonArrested}))

	got, err := b.LoadProfile("player-9")
	require.NoError(t, err)
	assert.Equal(t, 640.0, got.BankBalance)

	trips, err := b.ListTrips("player-9", 10)
	require.NoError(t, err)
	require.Len(t, trips, 1)
	assert.Equal(t, core.ReasonArrested, trips[0].Reason)
}
