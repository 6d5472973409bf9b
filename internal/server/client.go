package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/matatu-hustle/simcore/internal/logging"
	"github.com/matatu-hustle/simcore/internal/loop"
	"github.com/matatu-hustle/simcore/internal/progression"
	"github.com/matatu-hustle/simcore/internal/session"
	"github.com/matatu-hustle/simcore/pkg/core"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = 25 * time.Second
	maxMessageSize = 64 << 10
	sendBuffer     = 64
	// endWait bounds the final Quit on disconnect.
	endWait = time.Second
)

// client is one connected player and the session loop they drive.
type client struct {
	id     string
	srv    *Server
	conn   *websocket.Conn
	runner *loop.Runner
	log    *slog.Logger

	// profile is the progression as loaded, sent in the welcome frame.
	profile core.Snapshot

	send      chan []byte
	done      chan struct{}
	closeOnce sync.Once
	dropped   atomic.Int64
}

func (s *Server) newClient(conn *websocket.Conn, prog *progression.Progression, roomID string) (*client, error) {
	id := uuid.NewString()
	tag := &logging.SessionTag{}
	log := slog.New(logging.NewContextHandler(s.log.Handler(), tag.Provider())).
		With("session", id, "profile", prog.ProfileID())
	if roomID != "" {
		log = log.With("room", roomID)
	}

	c := &client{
		id:      id,
		srv:     s,
		conn:    conn,
		log:     log,
		profile: prog.Snapshot(),
		send:    make(chan []byte, sendBuffer),
		done:    make(chan struct{}),
	}

	eng := session.New(prog, session.Options{
		RoomID:       roomID,
		CrashPause:   s.deps.Game.CrashPause,
		RespawnDelay: s.deps.Game.RespawnDelay,
		Persister:    s.deps.Persister,
		Logger:       log,
	})
	runner, err := loop.New(loop.Dependencies{
		Engine:            eng,
		FrameInterval:     s.deps.Game.FrameInterval,
		BroadcastInterval: s.deps.Game.BroadcastInterval,
		Publish:           c.publishUpdate,
		Tag:               tag,
		Logger:            log,
	})
	if err != nil {
		return nil, err
	}
	c.runner = runner
	return c, nil
}

// serve runs the connection until the client disconnects or close is called.
func (c *client) serve(ctx context.Context) {
	c.enqueue(Frame{Type: FrameWelcome, SessionID: c.id, Profile: &c.profile})

	go c.writeLoop()
	go c.runner.Run(ctx)

	c.readLoop()
	c.close()
	<-c.runner.Done()
	if n := c.dropped.Load(); n > 0 {
		c.log.Debug("updates dropped for slow client", "count", n)
	}
}

func (c *client) readLoop() {
	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				c.log.Warn("read failed", "error", err)
			}
			return
		}

		var req Request
		if err := json.Unmarshal(data, &req); err != nil {
			c.enqueue(result(req, nil, errors.New("malformed request")))
			continue
		}
		if !c.enqueue(c.srv.dispatch(c.id, req)) {
			return
		}
	}
}

func (c *client) writeLoop() {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-c.done:
			return
		case msg := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				c.log.Debug("write failed", "error", err)
				c.close()
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.close()
				return
			}
		}
	}
}

// enqueue waits for room in the send buffer. It returns false once the
// client is closed.
func (c *client) enqueue(f Frame) bool {
	data, err := json.Marshal(f)
	if err != nil {
		c.log.Error("failed to encode frame", "type", f.Type, "error", err)
		return true
	}
	select {
	case c.send <- data:
		return true
	case <-c.done:
		return false
	}
}

// publishUpdate runs on the session loop and never blocks it. Updates that
// do not fit are dropped; the next one supersedes them.
func (c *client) publishUpdate(u loop.Update) {
	data, err := json.Marshal(Frame{Type: FrameUpdate, Update: &u})
	if err != nil {
		c.log.Error("failed to encode update", "error", err)
		return
	}
	select {
	case c.send <- data:
	default:
		c.dropped.Add(1)
	}
}

func (c *client) close() {
	c.closeOnce.Do(func() {
		close(c.done)
		c.endRun()
		c.runner.Stop()
		_ = c.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second))
		_ = c.conn.Close()
	})
}

// endRun quits whatever run is in progress so an unfinished or unbanked
// session still leaves its trip record.
func (c *client) endRun() {
	ctx, cancel := context.WithTimeout(context.Background(), endWait)
	defer cancel()
	if _, err := c.runner.Do(ctx, func(e *session.Engine) any { return e.Quit() }); err != nil && !errors.Is(err, loop.ErrStopped) {
		c.log.Debug("could not end run on disconnect", "error", err)
	}
}
