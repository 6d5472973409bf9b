// Package loop runs one session engine on its own goroutine. Frames, the
// one second countdown and player commands are all serialized through a
// single select, so the engine itself needs no locking.
package loop

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/matatu-hustle/simcore/internal/logging"
	"github.com/matatu-hustle/simcore/internal/session"
	"github.com/matatu-hustle/simcore/pkg/core"
)

// ErrStopped is returned by Do once the loop has exited.
var ErrStopped = errors.New("session loop stopped")

const (
	// maxFrameDT caps the step after a stall so the vehicle never jumps.
	maxFrameDT = 0.1

	DefaultFrameInterval     = 16 * time.Millisecond
	DefaultBroadcastInterval = 100 * time.Millisecond
)

// Update is what a client receives at broadcast rate.
type Update struct {
	Seq  uint64     `json:"seq"`
	HUD  core.HUD   `json:"hud"`
	Cues []core.Cue `json:"cues,omitempty"`
}

// Dependencies configures a Runner.
type Dependencies struct {
	Engine            *session.Engine
	FrameInterval     time.Duration
	BroadcastInterval time.Duration
	// Publish receives every update. It runs on the loop goroutine and must
	// not block.
	Publish func(Update)

	// Tag, when set, is kept in sync with the session for log context.
	Tag    *logging.SessionTag
	Logger *slog.Logger
	Now    func() time.Time
}

type request struct {
	fn    func(*session.Engine) any
	reply chan any
}

// Runner owns a session engine.
type Runner struct {
	deps   Dependencies
	log    *slog.Logger
	inbox  chan request
	quit   chan struct{}
	stop   sync.Once
	done   chan struct{}
	seq    uint64
	status core.GameStatus
	cues   []core.Cue
}

// New creates a Runner. Call Run to start it.
func New(deps Dependencies) (*Runner, error) {
	if deps.Engine == nil {
		return nil, errors.New("loop: engine is required")
	}
	if deps.FrameInterval <= 0 {
		deps.FrameInterval = DefaultFrameInterval
	}
	if deps.BroadcastInterval <= 0 {
		deps.BroadcastInterval = DefaultBroadcastInterval
	}
	if deps.Publish == nil {
		deps.Publish = func(Update) {}
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	log := deps.Logger
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Runner{
		deps:  deps,
		log:   log,
		inbox: make(chan request, 64),
		quit:  make(chan struct{}),
		done:  make(chan struct{}),
	}, nil
}

// Run drives the engine until ctx is cancelled or Stop is called.
func (r *Runner) Run(ctx context.Context) {
	defer close(r.done)

	frame := time.NewTicker(r.deps.FrameInterval)
	defer frame.Stop()
	second := time.NewTicker(time.Second)
	defer second.Stop()
	broadcast := time.NewTicker(r.deps.BroadcastInterval)
	defer broadcast.Stop()

	last := r.deps.Now()
	r.syncStatus()

	for {
		select {
		case <-ctx.Done():
			r.log.Debug("session loop cancelled")
			return
		case <-r.quit:
			return
		case req := <-r.inbox:
			v := req.fn(r.deps.Engine)
			r.syncStatus()
			req.reply <- v
		case <-frame.C:
			now := r.deps.Now()
			dt := now.Sub(last).Seconds()
			last = now
			if dt > maxFrameDT {
				dt = maxFrameDT
			}
			r.deps.Engine.Tick(dt)
			r.syncStatus()
		case <-second.C:
			r.deps.Engine.TickSecond()
			r.syncStatus()
		case <-broadcast.C:
			r.publish()
		}
	}
}

// Stop ends Run. It is safe to call more than once.
func (r *Runner) Stop() {
	r.stop.Do(func() { close(r.quit) })
}

// Done is closed when Run returns.
func (r *Runner) Done() <-chan struct{} {
	return r.done
}

// Do runs fn on the loop goroutine and returns its result.
func (r *Runner) Do(ctx context.Context, fn func(*session.Engine) any) (any, error) {
	req := request{fn: fn, reply: make(chan any, 1)}
	select {
	case r.inbox <- req:
	case <-r.done:
		return nil, ErrStopped
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	select {
	case v := <-req.reply:
		return v, nil
	case <-r.done:
		return nil, ErrStopped
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// syncStatus collects cues and refreshes the log tag after a status change.
func (r *Runner) syncStatus() {
	r.cues = append(r.cues, r.deps.Engine.DrainCues()...)

	status := r.deps.Engine.Status()
	if status == r.status {
		return
	}
	r.status = status
	if r.deps.Tag == nil {
		return
	}
	hud := r.deps.Engine.HUD()
	r.deps.Tag.Set(hud.RouteID, string(hud.Vehicle), string(status))
}

func (r *Runner) publish() {
	r.seq++
	u := Update{Seq: r.seq, HUD: r.deps.Engine.HUD(), Cues: r.cues}
	r.cues = nil
	r.deps.Publish(u)
}
