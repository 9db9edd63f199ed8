package main

import (
	"bytes"
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// recordingObserver keeps every event for assertions.
type recordingObserver struct {
	events []Event
}

func (r *recordingObserver) OnEvent(_ context.Context, event Event) {
	r.events = append(r.events, event)
}

func (r *recordingObserver) types() []EventType {
	types := make([]EventType, 0, len(r.events))
	for _, e := range r.events {
		types = append(types, e.Type)
	}
	return types
}

func TestSlogObserver(t *testing.T) {
	tests := []struct {
		name     string
		verbose  bool
		level    slog.Level
		expected bool
	}{
		{"debug hidden by default", false, slog.LevelDebug, false},
		{"warn shown by default", false, slog.LevelWarn, true},
		{"debug shown when verbose", true, slog.LevelDebug, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			obs := newSlogObserver(newLogger(&buf, tt.verbose))

			obs.OnEvent(context.Background(), Event{
				Type:      EventTaskSaved,
				Level:     tt.level,
				Timestamp: time.Now(),
				Data:      map[string]any{"path": "docs/Atlas_PRD.md"},
			})

			if tt.expected {
				assert.Contains(t, buf.String(), "msg=task.saved")
				assert.Contains(t, buf.String(), "path=docs/Atlas_PRD.md")
			} else {
				assert.Empty(t, buf.String())
			}
		})
	}
}
