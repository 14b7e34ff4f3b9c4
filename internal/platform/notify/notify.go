// Package notify carries operator-facing notices about finished runs and checks
package notify

import (
	"context"
	"sync"
	"time"

	"lifesync/internal/platform/logger"
)

// Kind groups notices by the operation that produced them
type Kind string

// Level is the severity of a notice
type Level string

const (
	KindSync    Kind = "sync"
	KindSummary Kind = "summary"
	KindCheck   Kind = "check"

	LevelInfo  Level = "info"
	LevelWarn  Level = "warn"
	LevelError Level = "error"
)

// Notice is one operator-visible message
type Notice struct {
	Kind    Kind      `json:"kind"`
	Level   Level     `json:"level"`
	Message string    `json:"message"`
	At      time.Time `json:"at"`
}

// Notifier receives notices
type Notifier interface {
	Notify(ctx context.Context, n Notice)
}

// Func adapts a function to Notifier
type Func func(ctx context.Context, n Notice)

// Notify implements Notifier
func (f Func) Notify(ctx context.Context, n Notice) { f(ctx, n) }

// Nop discards notices
var Nop Notifier = Func(func(context.Context, Notice) {})

// Log writes each notice as a log line
type Log struct{}

// Notify implements Notifier
func (Log) Notify(ctx context.Context, n Notice) {
	l := logger.C(ctx)
	ev := l.Info()
	switch n.Level {
	case LevelWarn:
		ev = l.Warn()
	case LevelError:
		ev = l.Error()
	}
	ev.Str("notice", string(n.Kind)).Msg(n.Message)
}

// Feed keeps the most recent notices in memory and forwards each to next
type Feed struct {
	mu    sync.Mutex
	buf   []Notice
	size  int
	next  Notifier
	clock func() time.Time
}

// NewFeed returns a Feed holding up to size notices
func NewFeed(size int, next Notifier) *Feed {
	if size <= 0 {
		size = 50
	}
	if next == nil {
		next = Nop
	}
	return &Feed{size: size, next: next, clock: time.Now}
}

// Notify implements Notifier
func (f *Feed) Notify(ctx context.Context, n Notice) {
	if n.At.IsZero() {
		n.At = f.clock().UTC()
	}
	f.mu.Lock()
	f.buf = append(f.buf, n)
	if len(f.buf) > f.size {
		f.buf = f.buf[len(f.buf)-f.size:]
	}
	f.mu.Unlock()
	f.next.Notify(ctx, n)
}

// Recent returns up to limit notices, newest first
func (f *Feed) Recent(limit int) []Notice {
	f.mu.Lock()
	defer f.mu.Unlock()
	if limit <= 0 || limit > len(f.buf) {
		limit = len(f.buf)
	}
	out := make([]Notice, 0, limit)
	for i := len(f.buf) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, f.buf[i])
	}
	return out
}
