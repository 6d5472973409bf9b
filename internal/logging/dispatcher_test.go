package logging

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matatu-hustle/simcore/internal/dispatcher"
)

var _ dispatcher.Logger = (*DispatcherLogger)(nil)

func decodeLine(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	return entry
}

func TestDispatcherLogger_Levels(t *testing.T) {
	tests := []struct {
		level string
		log   func(*DispatcherLogger)
	}{
		{"debug", func(l *DispatcherLogger) { l.Debug("msg", "command", "PAUSE") }},
		{"info", func(l *DispatcherLogger) { l.Info("msg", "command", "PAUSE") }},
		{"error", func(l *DispatcherLogger) { l.Error("msg", "command", "PAUSE") }},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			var buf bytes.Buffer
			dl := NewDispatcherLogger(zerolog.New(&buf).Level(zerolog.DebugLevel))
			tt.log(dl)

			entry := decodeLine(t, &buf)
			assert.Equal(t, tt.level, entry["level"])
			assert.Equal(t, "msg", entry["message"])
			assert.Equal(t, "PAUSE", entry["command"])
		})
	}
}

func TestDispatcherLogger_NumericValue(t *testing.T) {
	var buf bytes.Buffer
	dl := NewDispatcherLogger(zerolog.New(&buf))

	dl.Info("queued", "size", 42)

	entry := decodeLine(t, &buf)
	assert.Equal(t, float64(42), entry["size"])
}

func TestDispatcherLogger_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	dl := NewDispatcherLogger(zerolog.New(&buf).Level(zerolog.InfoLevel))

	dl.Debug("hidden")
	assert.Empty(t, buf.String())
}

func TestDispatcherLogger_SourceBecomesSession(t *testing.T) {
	var buf bytes.Buffer
	dl := NewDispatcherLogger(zerolog.New(&buf))

	dl.Info("handling command", "command", ":SESSION:PAUSE:", "source", "conn-7")

	entry := decodeLine(t, &buf)
	assert.Equal(t, "conn-7", entry["session"])
	assert.NotContains(t, entry, "source")
}

func TestDispatcherLogger_ErrorsAndDurations(t *testing.T) {
	var buf bytes.Buffer
	dl := NewDispatcherLogger(zerolog.New(&buf))

	dl.Error("command failed", "error", errors.New("vehicle is locked: tuktuk"), "duration", 1500*time.Microsecond)

	entry := decodeLine(t, &buf)
	assert.Equal(t, "vehicle is locked: tuktuk", entry["error"])
	assert.Equal(t, 1.5, entry["duration"])
}

func TestDispatcherLogger_DropsMalformedPairs(t *testing.T) {
	var buf bytes.Buffer
	dl := NewDispatcherLogger(zerolog.New(&buf))

	dl.Info("msg", "a", 1, 2, "skipped", "dangling")

	entry := decodeLine(t, &buf)
	assert.Equal(t, float64(1), entry["a"])
	assert.NotContains(t, entry, "dangling")
	assert.Len(t, entry, 3)
}
