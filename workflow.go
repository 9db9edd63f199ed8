package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"
)

type State int

const (
	StateIdle State = iota
	StateGenerating
	StateSaved
	StateCommitting
	StateCommitted
	StateError
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateGenerating:
		return "generating"
	case StateSaved:
		return "saved"
	case StateCommitting:
		return "committing"
	case StateCommitted:
		return "committed"
	case StateError:
		return "error"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Reporter shows messages to the user in whatever surface is running.
type Reporter interface {
	Error(msg string)
	Warn(msg string)
	Success(msg string)
	Info(msg string)
}

// Workflow dispatches the user's actions: generate a task document, chat, commit a draft.
// Each action runs to completion before the next one; a failure drops back to idle and
// nothing is retried.
type Workflow struct {
	generator *ContentGenerator
	outputDir string
	reporter  Reporter
	observer  Observer

	mu      sync.Mutex
	state   State
	lastErr error
}

type WorkflowOption func(*Workflow)

func WithObserver(o Observer) WorkflowOption {
	return func(w *Workflow) { w.observer = o }
}

func NewWorkflow(generator *ContentGenerator, outputDir string, reporter Reporter, opts ...WorkflowOption) *Workflow {
	w := &Workflow{
		generator: generator,
		outputDir: outputDir,
		reporter:  reporter,
		observer:  noopObserver{},
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

func (w *Workflow) State() State {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state
}

func (w *Workflow) LastError() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.lastErr
}

func (w *Workflow) OutputDir() string {
	return w.outputDir
}

// RunTask generates the document for task and writes it under the output dir.
func (w *Workflow) RunTask(ctx context.Context, project Project, task Task) (string, error) {
	if strings.TrimSpace(project.Brief) == "" {
		return "", w.fail(ctx, ErrEmptyBrief)
	}

	w.transition(ctx, StateGenerating)
	w.emit(ctx, EventTaskStart, slog.LevelInfo, map[string]any{
		"task":     task.Label,
		"project":  project.Name,
		"provider": w.generator.Provider().Name(),
	})

	content, err := w.generator.GenerateTask(ctx, project, task)
	if err != nil {
		return "", w.fail(ctx, err)
	}

	path, err := writeDraft(w.outputDir, draftFileName(project.Name, task.Label), content)
	if err != nil {
		return "", w.fail(ctx, err)
	}

	w.transition(ctx, StateSaved)
	w.emit(ctx, EventTaskSaved, slog.LevelInfo, map[string]any{"path": path, "bytes": len(content)})
	w.reporter.Success(fmt.Sprintf(MsgFileSaved, path))
	return path, nil
}

// Chat records input in the transcript. Input starting with /CH is sent to the provider and
// the reply is recorded too; mentioning "commit" also commits the project's PRD draft.
func (w *Workflow) Chat(ctx context.Context, transcript *Transcript, project Project, input string) (string, error) {
	transcript.Append(RoleUser, input)
	w.emit(ctx, EventChatInput, slog.LevelDebug, map[string]any{"session": transcript.ID(), "length": len(input)})

	request, ok := parseChatRequest(input)
	if !ok {
		return "", nil
	}

	w.transition(ctx, StateGenerating)
	reply, err := w.generator.GenerateChat(ctx, project, request)
	if err != nil {
		return "", w.fail(ctx, err)
	}
	transcript.Append(RoleAssistant, reply)
	w.emit(ctx, EventChatReply, slog.LevelInfo, map[string]any{"session": transcript.ID(), "length": len(reply)})
	w.transition(ctx, StateIdle)

	if hasCommitIntent(input) {
		target := draftPath(w.outputDir, project.Name, TaskPRD.Label)
		if _, err := os.Stat(target); err != nil {
			w.reporter.Warn(MsgNoPRDToCommit)
		} else {
			w.CommitDraft(ctx, target, fmt.Sprintf(MsgAutoCommit, project.Name, TaskPRD.Label))
		}
	}

	return reply, nil
}

// CommitDraft stages and commits one file. Every git failure is reported to the user and
// turned into false.
func (w *Workflow) CommitDraft(ctx context.Context, path, message string) bool {
	w.transition(ctx, StateCommitting)

	if err := commitFile(ctx, path, message); err != nil {
		w.reporter.Error(fmt.Sprintf(MsgGitError, err))
		w.fail(ctx, err)
		return false
	}

	w.transition(ctx, StateCommitted)
	w.emit(ctx, EventCommitDone, slog.LevelInfo, map[string]any{"path": path, "message": message})
	w.reporter.Info(fmt.Sprintf(MsgCommitted, path))
	return true
}

func (w *Workflow) transition(ctx context.Context, next State) {
	w.mu.Lock()
	prev := w.state
	w.state = next
	if next != StateError {
		w.lastErr = nil
	}
	w.mu.Unlock()

	if prev != next {
		w.emit(ctx, EventStateChange, slog.LevelDebug, map[string]any{"from": prev.String(), "to": next.String()})
	}
}

// fail passes through StateError and settles on idle, returning err for the caller.
func (w *Workflow) fail(ctx context.Context, err error) error {
	w.transition(ctx, StateError)
	w.mu.Lock()
	w.lastErr = err
	w.mu.Unlock()

	level := slog.LevelError
	if errors.Is(err, ErrEmptyBrief) || errors.Is(err, ErrEmptyRequest) {
		level = slog.LevelWarn
	}
	w.emit(ctx, EventFailure, level, map[string]any{"error": err.Error()})

	w.mu.Lock()
	w.state = StateIdle
	w.mu.Unlock()
	w.emit(ctx, EventStateChange, slog.LevelDebug, map[string]any{"from": StateError.String(), "to": StateIdle.String()})
	return err
}

func (w *Workflow) emit(ctx context.Context, eventType EventType, level slog.Level, data map[string]any) {
	w.observer.OnEvent(ctx, Event{
		Type:      eventType,
		Level:     level,
		Timestamp: time.Now(),
		Data:      data,
	})
}

// userMessage renders an error returned by the workflow for display.
func userMessage(err error) string {
	switch {
	case errors.Is(err, ErrEmptyBrief):
		return MsgEmptyBrief
	case errors.Is(err, ErrEmptyRequest):
		return MsgEmptyRequest
	default:
		return err.Error()
	}
}
