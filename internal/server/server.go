// Package server exposes sessions to browser clients over WebSocket. Each
// connection owns one session loop; commands arrive as JSON requests and
// HUD updates leave at broadcast rate.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/matatu-hustle/simcore/internal/config"
	"github.com/matatu-hustle/simcore/internal/dispatcher"
	"github.com/matatu-hustle/simcore/internal/economy"
	"github.com/matatu-hustle/simcore/internal/geo"
	"github.com/matatu-hustle/simcore/internal/handlers"
	"github.com/matatu-hustle/simcore/internal/progression"
	"github.com/matatu-hustle/simcore/internal/session"
	"github.com/matatu-hustle/simcore/internal/storage"
)

// ProgressionLoader resolves the persistent state for a connecting player.
type ProgressionLoader interface {
	LoadProgression(profileID, displayName string, guest bool) *progression.Progression
}

// Dependencies holds everything the server needs.
type Dependencies struct {
	Dispatcher *dispatcher.Dispatcher
	Registry   *handlers.Registry
	Profiles   ProgressionLoader
	Persister  session.Persister
	Game       config.GameConfig
	Logger     *slog.Logger
}

// Server accepts client connections and runs their sessions.
type Server struct {
	deps     Dependencies
	log      *slog.Logger
	upgrader websocket.Upgrader
	allowed  map[string]bool
	routes   []RouteInfo

	mu      sync.Mutex
	clients map[string]*client
	closed  bool
	wg      sync.WaitGroup
}

// New creates a Server.
func New(deps Dependencies) (*Server, error) {
	if deps.Dispatcher == nil {
		return nil, errors.New("server: dispatcher is required")
	}
	if deps.Registry == nil {
		return nil, errors.New("server: registry is required")
	}
	if deps.Profiles == nil {
		return nil, errors.New("server: progression loader is required")
	}
	log := deps.Logger
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	allowed := make(map[string]bool)
	for _, cmd := range handlers.Commands() {
		allowed[cmd] = true
	}

	return &Server{
		deps: deps,
		log:  log,
		upgrader: websocket.Upgrader{
			// Browser clients are served from other origins during development.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		allowed: allowed,
		routes:  routeCatalogue(log),
		clients: make(map[string]*client),
	}, nil
}

// Handler returns the HTTP routes of the server.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Get("/routes", s.handleRoutes)
	r.Get("/ws", s.handleWS)
	return r
}

// Sessions reports the number of connected clients.
func (s *Server) Sessions() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.clients)
}

// Close disconnects every client and waits for their sessions to stop.
func (s *Server) Close() {
	s.mu.Lock()
	s.closed = true
	clients := make([]*client, 0, len(s.clients))
	for _, c := range s.clients {
		clients = append(clients, c)
	}
	s.mu.Unlock()

	for _, c := range clients {
		c.close()
	}
	s.wg.Wait()
}

func (s *Server) handleRoutes(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	if err := json.NewEncoder(w).Encode(s.routes); err != nil {
		http.Error(w, "failed to encode", http.StatusInternalServerError)
	}
}

func routeCatalogue(log *slog.Logger) []RouteInfo {
	routes := economy.Routes()
	out := make([]RouteInfo, 0, len(routes))
	for _, r := range routes {
		info := RouteInfo{Route: r}
		line, err := geo.NewLine(r.Waypoints)
		if err != nil {
			log.Warn("route has no usable geometry", "route", r.ID, "error", err)
		} else {
			info.LengthKm = line.LengthKm()
			info.Geometry = line.WKT()
		}
		out = append(out, info)
	}
	return out
}

// handleWS upgrades the request and runs the connection until it drops.
// Query parameters: profile, name, room, guest.
func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	profileID := q.Get("profile")
	guest, _ := strconv.ParseBool(q.Get("guest"))
	if profileID == "" {
		profileID = "guest-" + uuid.NewString()[:8]
		guest = true
	}
	if !storage.ValidProfileID(profileID) {
		http.Error(w, "invalid profile id", http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	closed := s.closed
	s.mu.Unlock()
	if closed {
		http.Error(w, "server shutting down", http.StatusServiceUnavailable)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("websocket upgrade failed", "error", err)
		return
	}

	prog := s.deps.Profiles.LoadProgression(profileID, q.Get("name"), guest)
	c, err := s.newClient(conn, prog, q.Get("room"))
	if err != nil {
		s.log.Error("failed to create session", "profile", profileID, "error", err)
		_ = conn.Close()
		return
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		c.close()
		return
	}
	s.clients[c.id] = c
	s.wg.Add(1)
	s.mu.Unlock()
	s.deps.Registry.Add(c.id, c.runner)

	defer func() {
		s.deps.Registry.Remove(c.id)
		s.mu.Lock()
		delete(s.clients, c.id)
		s.mu.Unlock()
		s.wg.Done()
	}()

	c.log.Info("client connected", "guest", guest)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	c.serve(ctx)
	c.log.Info("client disconnected")
}

// result converts a dispatch outcome into a result frame.
func result(req Request, v any, err error) Frame {
	f := Frame{Type: FrameResult, ID: req.ID, Command: req.Command, Result: v}
	if err != nil {
		f.Result = nil
		f.Error = err.Error()
	}
	return f
}

func (s *Server) dispatch(source string, req Request) Frame {
	if !s.allowed[req.Command] {
		return result(req, nil, dispatcher.ErrUnknownCommand)
	}
	v, err := s.deps.Dispatcher.Dispatch(dispatcher.Event{
		Command:   req.Command,
		Args:      req.Args,
		Source:    source,
		Timestamp: time.Now(),
	})
	return result(req, v, err)
}
