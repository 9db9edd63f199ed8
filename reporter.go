package main

import (
	"fmt"
	"io"
	"sync"
)

// cliReporter prints user messages as prefixed lines, keeping stdout free for documents.
type cliReporter struct {
	w io.Writer
}

func (r cliReporter) Error(msg string)   { fmt.Fprintf(r.w, "❌ bmad: %s\n", msg) }
func (r cliReporter) Warn(msg string)    { fmt.Fprintf(r.w, "⚠️  bmad: %s\n", msg) }
func (r cliReporter) Success(msg string) { fmt.Fprintf(r.w, "bmad: %s\n", msg) }
func (r cliReporter) Info(msg string)    { fmt.Fprintf(r.w, "bmad: %s\n", msg) }

type noticeKind int

const (
	noticeError noticeKind = iota
	noticeWarn
	noticeSuccess
	noticeInfo
)

type notice struct {
	kind noticeKind
	text string
}

// noticeLog collects messages for the tui. Workflow calls land on tea.Cmd goroutines while
// View reads, hence the lock.
type noticeLog struct {
	mu      sync.Mutex
	notices []notice
}

func (l *noticeLog) add(kind noticeKind, msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.notices = append(l.notices, notice{kind: kind, text: msg})
}

func (l *noticeLog) Error(msg string)   { l.add(noticeError, msg) }
func (l *noticeLog) Warn(msg string)    { l.add(noticeWarn, msg) }
func (l *noticeLog) Success(msg string) { l.add(noticeSuccess, msg) }
func (l *noticeLog) Info(msg string)    { l.add(noticeInfo, msg) }

// Recent returns up to n of the newest notices, oldest first.
func (l *noticeLog) Recent(n int) []notice {
	l.mu.Lock()
	defer l.mu.Unlock()
	start := len(l.notices) - n
	if start < 0 {
		start = 0
	}
	out := make([]notice, len(l.notices)-start)
	copy(out, l.notices[start:])
	return out
}
