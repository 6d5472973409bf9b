package logging

import (
	"context"
	"log/slog"
	"sync/atomic"
)

// ContextProvider returns attributes evaluated at log time.
type ContextProvider func() []slog.Attr

// ContextHandler wraps another handler and injects dynamic context attributes.
type ContextHandler struct {
	inner    slog.Handler
	provider ContextProvider
}

func NewContextHandler(inner slog.Handler, provider ContextProvider) *ContextHandler {
	return &ContextHandler{inner: inner, provider: provider}
}

func (h *ContextHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.inner.Enabled(ctx, level)
}

func (h *ContextHandler) Handle(ctx context.Context, r slog.Record) error {
	if h.provider != nil {
		r.AddAttrs(h.provider()...)
	}
	return h.inner.Handle(ctx, r)
}

func (h *ContextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &ContextHandler{inner: h.inner.WithAttrs(attrs), provider: h.provider}
}

func (h *ContextHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	return &ContextHandler{inner: h.inner.WithGroup(name), provider: h.provider}
}

// SessionTag holds the attributes of the session currently being driven.
// The simulation loop updates it on lifecycle transitions; log handlers on
// any goroutine read it.
type SessionTag struct {
	attrs atomic.Pointer[[]slog.Attr]
}

// Set replaces the session attributes. Empty values are omitted.
func (s *SessionTag) Set(route, vehicle, status string) {
	attrs := make([]slog.Attr, 0, 3)
	if route != "" {
		attrs = append(attrs, slog.String("route", route))
	}
	if vehicle != "" {
		attrs = append(attrs, slog.String("vehicle", vehicle))
	}
	if status != "" {
		attrs = append(attrs, slog.String("status", status))
	}
	s.attrs.Store(&attrs)
}

// Provider returns a ContextProvider reading the current attributes.
func (s *SessionTag) Provider() ContextProvider {
	return func() []slog.Attr {
		p := s.attrs.Load()
		if p == nil {
			return nil
		}
		return *p
	}
}
