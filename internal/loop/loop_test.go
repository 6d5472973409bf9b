package loop

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matatu-hustle/simcore/internal/logging"
	"github.com/matatu-hustle/simcore/internal/progression"
	"github.com/matatu-hustle/simcore/internal/rng"
	"github.com/matatu-hustle/simcore/internal/session"
	"github.com/matatu-hustle/simcore/pkg/core"
)

func newRunner(t *testing.T, deps Dependencies) *Runner {
	t.Helper()
	if deps.Engine == nil {
		deps.Engine = session.New(progression.New("player-1", "", false), session.Options{
			Source: rng.NewSeeded(t.Name()),
		})
	}
	if deps.FrameInterval == 0 {
		deps.FrameInterval = 5 * time.Millisecond
	}
	if deps.BroadcastInterval == 0 {
		deps.BroadcastInterval = 10 * time.Millisecond
	}
	r, err := New(deps)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	go r.Run(ctx)
	t.Cleanup(func() {
		cancel()
		<-r.Done()
	})
	return r
}

func start(t *testing.T, r *Runner) {
	t.Helper()
	v, err := r.Do(context.Background(), func(e *session.Engine) any {
		return e.Start("thika-road", core.VehicleBoda)
	})
	require.NoError(t, err)
	if v != nil {
		require.NoError(t, v.(error))
	}
}

func TestNew_RequiresEngine(t *testing.T) {
	_, err := New(Dependencies{})
	assert.Error(t, err)
}

func TestDo_RunsOnLoop(t *testing.T) {
	r := newRunner(t, Dependencies{})
	start(t, r)

	v, err := r.Do(context.Background(), func(e *session.Engine) any { return e.Status() })
	require.NoError(t, err)
	assert.Equal(t, core.StatusPlaying, v)
}

func TestPublish_SequencedUpdates(t *testing.T) {
	updates := make(chan Update, 64)
	r := newRunner(t, Dependencies{Publish: func(u Update) {
		select {
		case updates <- u:
		default:
		}
	}})
	start(t, r)

	var last uint64
	deadline := time.After(2 * time.Second)
	for seen := 0; seen < 3; {
		select {
		case u := <-updates:
			assert.Greater(t, u.Seq, last)
			last = u.Seq
			if u.HUD.Status == core.StatusPlaying {
				assert.Equal(t, "thika-road", u.HUD.RouteID)
				seen++
			}
		case <-deadline:
			t.Fatal("no updates published")
		}
	}
}

func TestFrames_AdvanceVehicle(t *testing.T) {
	r := newRunner(t, Dependencies{})
	start(t, r)

	_, err := r.Do(context.Background(), func(e *session.Engine) any {
		return e.SetControl(core.ControlGas, true)
	})
	require.NoError(t, err)

	assert.Eventually(t, func() bool {
		v, err := r.Do(context.Background(), func(e *session.Engine) any { return e.HUD().Speed })
		return err == nil && v.(float64) > 0
	}, 2*time.Second, 20*time.Millisecond)
}

func TestCuesDeliveredOnce(t *testing.T) {
	updates := make(chan Update, 256)
	r := newRunner(t, Dependencies{Publish: func(u Update) {
		select {
		case updates <- u:
		default:
		}
	}})
	start(t, r)

	_, err := r.Do(context.Background(), func(e *session.Engine) any { return e.ReportCollision() })
	require.NoError(t, err)

	crashes := 0
	deadline := time.After(300 * time.Millisecond)
	for done := false; !done; {
		select {
		case u := <-updates:
			for _, c := range u.Cues {
				if c == core.CueCrash {
					crashes++
				}
			}
		case <-deadline:
			done = true
		}
	}
	assert.Equal(t, 1, crashes)
}

func TestTag_FollowsStatus(t *testing.T) {
	tag := &logging.SessionTag{}
	r := newRunner(t, Dependencies{Tag: tag})
	start(t, r)

	attrs := map[string]string{}
	for _, a := range tag.Provider()() {
		attrs[a.Key] = a.Value.String()
	}
	assert.Equal(t, "thika-road", attrs["route"])
	assert.Equal(t, "boda", attrs["vehicle"])
	assert.Equal(t, "PLAYING", attrs["status"])

	_, err := r.Do(context.Background(), func(e *session.Engine) any { return e.Pause() })
	require.NoError(t, err)

	attrs = map[string]string{}
	for _, a := range tag.Provider()() {
		attrs[a.Key] = a.Value.String()
	}
	assert.Equal(t, "PAUSED", attrs["status"])
}

func TestDo_AfterStop(t *testing.T) {
	r := newRunner(t, Dependencies{})
	r.Stop()
	r.Stop()
	<-r.Done()

	_, err := r.Do(context.Background(), func(e *session.Engine) any { return nil })
	assert.True(t, errors.Is(err, ErrStopped))
}

func TestDo_ContextCancelled(t *testing.T) {
	r, err := New(Dependencies{Engine: session.New(progression.New("p", "", false), session.Options{})})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	// Run was never started, so only the context can end the call.
	_, err = r.Do(ctx, func(e *session.Engine) any { return nil })
	assert.ErrorIs(t, err, context.Canceled)
}
