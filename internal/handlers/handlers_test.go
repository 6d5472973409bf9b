package handlers

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matatu-hustle/simcore/internal/dispatcher"
	"github.com/matatu-hustle/simcore/internal/progression"
	"github.com/matatu-hustle/simcore/internal/rng"
	"github.com/matatu-hustle/simcore/internal/session"
	"github.com/matatu-hustle/simcore/pkg/core"
)

// directExecutor runs functions on the caller's goroutine.
type directExecutor struct {
	mu  sync.Mutex
	eng *session.Engine
	err error
}

func (x *directExecutor) Do(_ context.Context, fn func(*session.Engine) any) (any, error) {
	if x.err != nil {
		return nil, x.err
	}
	x.mu.Lock()
	defer x.mu.Unlock()
	return fn(x.eng), nil
}

type mockTrips struct {
	profileID string
	limit     int
}

func (m *mockTrips) TripHistory(profileID string, limit int) ([]core.TripRecord, error) {
	m.profileID = profileID
	m.limit = limit
	return []core.TripRecord{{ID: "t1", ProfileID: profileID}}, nil
}

func newTestService(t *testing.T, trips TripLister) (*dispatcher.Dispatcher, *directExecutor) {
	t.Helper()
	ex := &directExecutor{eng: session.New(progression.New("player-1", "Achieng", false), session.Options{
		Source: rng.NewSeeded(t.Name()),
	})}
	svc := NewService(Dependencies{Trips: trips})
	svc.Registry().Add("conn-1", ex)

	d, err := dispatcher.New(nil)
	require.NoError(t, err)
	svc.RegisterHandlers(d)
	t.Cleanup(func() { _ = d.Close(context.Background()) })
	return d, ex
}

func dispatch(d *dispatcher.Dispatcher, cmd string, args ...string) (any, error) {
	return d.Dispatch(dispatcher.Event{Command: cmd, Args: args, Source: "conn-1"})
}

func TestRegisterHandlers(t *testing.T) {
	d, _ := newTestService(t, nil)
	require.Len(t, Commands(), 18)
	for _, cmd := range Commands() {
		assert.True(t, d.HasHandler(cmd), cmd)
	}
}

func TestRegistry(t *testing.T) {
	r := NewRegistry()
	r.Add("a", &directExecutor{})
	assert.Equal(t, 1, r.Len())
	_, ok := r.Lookup("a")
	assert.True(t, ok)

	r.Remove("a")
	_, ok = r.Lookup("a")
	assert.False(t, ok)
}

func TestUnknownSource(t *testing.T) {
	d, _ := newTestService(t, nil)
	_, err := d.Dispatch(dispatcher.Event{Command: CmdHUD, Source: "nobody"})
	assert.ErrorIs(t, err, ErrUnknownSession)
}

func TestStart(t *testing.T) {
	d, _ := newTestService(t, nil)

	_, err := dispatch(d, CmdStart, "thika-road")
	assert.Error(t, err)

	_, err = dispatch(d, CmdStart, "thika-road", string(core.Vehicle52Seater))
	assert.ErrorIs(t, err, session.ErrVehicleLocked)

	v, err := dispatch(d, CmdStart, "thika-road", string(core.VehicleBoda))
	require.NoError(t, err)
	hud, ok := v.(core.HUD)
	require.True(t, ok)
	assert.Equal(t, core.StatusPlaying, hud.Status)
	assert.Equal(t, "thika-road", hud.RouteID)

	_, err = dispatch(d, CmdStart, "thika-road", string(core.VehicleBoda))
	assert.ErrorIs(t, err, session.ErrSessionActive)
}

func TestLifecycleCommands(t *testing.T) {
	d, ex := newTestService(t, nil)

	v, err := dispatch(d, CmdPause)
	require.NoError(t, err)
	assert.Equal(t, false, v, "nothing to pause while idle")

	_, err = dispatch(d, CmdStart, "thika-road", "boda")
	require.NoError(t, err)

	v, err = dispatch(d, CmdPause)
	require.NoError(t, err)
	assert.Equal(t, true, v)
	assert.Equal(t, core.StatusPaused, ex.eng.Status())

	v, err = dispatch(d, CmdResume)
	require.NoError(t, err)
	assert.Equal(t, true, v)

	v, err = dispatch(d, CmdBank)
	require.NoError(t, err)
	assert.Equal(t, false, v)

	v, err = dispatch(d, CmdQuit)
	require.NoError(t, err)
	assert.Equal(t, true, v)
	assert.Equal(t, core.StatusIdle, ex.eng.Status())
}

func TestControlAndLane(t *testing.T) {
	d, _ := newTestService(t, nil)
	_, err := dispatch(d, CmdStart, "thika-road", "boda")
	require.NoError(t, err)

	v, err := dispatch(d, CmdControl, "gas", "true")
	require.NoError(t, err)
	assert.Equal(t, true, v)

	_, err = dispatch(d, CmdControl, "gas", "maybe")
	assert.Error(t, err)

	v, err = dispatch(d, CmdControl, "horn", "true")
	require.NoError(t, err)
	assert.Equal(t, false, v)

	v, err = dispatch(d, CmdLane, "SHOULDER")
	require.NoError(t, err)
	assert.Equal(t, true, v)

	v, err = dispatch(d, CmdLane, "sky")
	require.NoError(t, err)
	assert.Equal(t, false, v)
}

func TestEncounterCommandsWithoutModal(t *testing.T) {
	d, _ := newTestService(t, nil)
	_, err := dispatch(d, CmdStart, "thika-road", "boda")
	require.NoError(t, err)

	v, err := dispatch(d, CmdStage, "depart")
	require.NoError(t, err)
	assert.Equal(t, false, v)

	v, err = dispatch(d, CmdPolice, "pay")
	require.NoError(t, err)
	assert.Equal(t, false, v)

	_, err = dispatch(d, CmdStage)
	assert.Error(t, err)
}

func TestCollision(t *testing.T) {
	d, ex := newTestService(t, nil)
	_, err := dispatch(d, CmdStart, "thika-road", "boda")
	require.NoError(t, err)

	v, err := dispatch(d, CmdCollision)
	require.NoError(t, err)
	assert.Equal(t, true, v)
	assert.Equal(t, core.StatusCrashing, ex.eng.Status())
}

func TestShopAndFunds(t *testing.T) {
	d, _ := newTestService(t, nil)

	_, err := dispatch(d, CmdAddFunds, "lots")
	assert.Error(t, err)

	v, err := dispatch(d, CmdAddFunds, "-5")
	require.NoError(t, err)
	assert.Equal(t, false, v)

	v, err = dispatch(d, CmdBuyVehicle, string(core.VehicleTuktuk))
	require.NoError(t, err)
	assert.Equal(t, false, v, "cannot afford yet")

	v, err = dispatch(d, CmdAddFunds, "100000")
	require.NoError(t, err)
	assert.Equal(t, true, v)

	v, err = dispatch(d, CmdBuyVehicle, string(core.VehicleTuktuk))
	require.NoError(t, err)
	assert.Equal(t, true, v)

	v, err = dispatch(d, CmdBuyUpgrade, string(core.TrackFuel), string(core.VehicleTuktuk))
	require.NoError(t, err)
	assert.Equal(t, true, v)

	v, err = dispatch(d, CmdProfile)
	require.NoError(t, err)
	snap := v.(core.Snapshot)
	assert.Contains(t, snap.UnlockedVehicles, core.VehicleTuktuk)
	assert.Equal(t, 1, snap.Upgrades[core.TrackFuel][core.VehicleTuktuk])
	assert.Less(t, snap.BankBalance, 50000.0)
}

func TestSettings(t *testing.T) {
	d, ex := newTestService(t, nil)

	_, err := dispatch(d, CmdSettings)
	assert.Error(t, err)

	v, err := dispatch(d, CmdSettings, "false", "  Kamau ")
	require.NoError(t, err)
	assert.Equal(t, core.Settings{SoundEnabled: false}, v)
	assert.Equal(t, "Kamau", ex.eng.Progression().Snapshot().DisplayName)

	_, err = dispatch(d, CmdSettings, "true")
	require.NoError(t, err)
	assert.Equal(t, "Kamau", ex.eng.Progression().Snapshot().DisplayName)
}

func TestHUD(t *testing.T) {
	d, _ := newTestService(t, nil)
	v, err := dispatch(d, CmdHUD)
	require.NoError(t, err)
	assert.Equal(t, core.StatusIdle, v.(core.HUD).Status)
}

func TestTrips(t *testing.T) {
	d, _ := newTestService(t, nil)
	_, err := dispatch(d, CmdTrips)
	assert.Error(t, err)

	trips := &mockTrips{}
	d, _ = newTestService(t, trips)

	v, err := dispatch(d, CmdTrips)
	require.NoError(t, err)
	assert.Len(t, v.([]core.TripRecord), 1)
	assert.Equal(t, "player-1", trips.profileID)
	assert.Equal(t, defaultTripLimit, trips.limit)

	_, err = dispatch(d, CmdTrips, "5000")
	require.NoError(t, err)
	assert.Equal(t, maxTripLimit, trips.limit)

	_, err = dispatch(d, CmdTrips, "zero")
	assert.Error(t, err)
}

func TestExecutorErrorPropagates(t *testing.T) {
	d, ex := newTestService(t, nil)
	ex.err = errors.New("session loop stopped")

	_, err := dispatch(d, CmdPause)
	assert.ErrorContains(t, err, "stopped")
}
