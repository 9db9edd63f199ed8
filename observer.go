package main

import (
	"context"
	"io"
	"log/slog"
	"time"
)

type EventType string

const (
	EventStateChange EventType = "workflow.state"
	EventTaskStart   EventType = "task.start"
	EventTaskSaved   EventType = "task.saved"
	EventChatInput   EventType = "chat.input"
	EventChatReply   EventType = "chat.reply"
	EventCommitDone  EventType = "commit.done"
	EventFailure     EventType = "workflow.error"
)

// Event carries a workflow step to whatever is watching. Data keys become log attributes.
type Event struct {
	Type      EventType
	Level     slog.Level
	Timestamp time.Time
	Data      map[string]any
}

type Observer interface {
	OnEvent(ctx context.Context, event Event)
}

type slogObserver struct {
	logger *slog.Logger
}

func newSlogObserver(logger *slog.Logger) *slogObserver {
	return &slogObserver{logger: logger}
}

func (o *slogObserver) OnEvent(ctx context.Context, event Event) {
	attrs := make([]slog.Attr, 0, len(event.Data))
	for k, v := range event.Data {
		attrs = append(attrs, slog.Any(k, v))
	}
	o.logger.LogAttrs(ctx, event.Level, string(event.Type), attrs...)
}

type noopObserver struct{}

func (noopObserver) OnEvent(context.Context, Event) {}

func newLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}
