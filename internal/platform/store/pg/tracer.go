package pg

import (
	"context"
	"strings"
	"time"

	"lifesync/internal/platform/logger"
)

// QueryEvent describes one finished statement
type QueryEvent struct {
	SQL     string
	Args    []any
	Elapsed time.Duration
	Err     error
	Slow    bool
}

// QueryTracer observes finished statements
type QueryTracer interface {
	OnQuery(ctx context.Context, ev QueryEvent)
}

// LogTracer writes statements to Log. Failures log at error, slow statements
// at warn and the rest at debug
type LogTracer struct {
	Log logger.Logger
}

// OnQuery implements QueryTracer
func (t LogTracer) OnQuery(_ context.Context, ev QueryEvent) {
	l := t.Log.With().Str("component", "pg").Logger()
	var e = l.Debug()
	if ev.Err != nil {
		e = l.Error().Err(ev.Err)
	} else if ev.Slow {
		e = l.Warn()
	}
	e.Dur("elapsed", ev.Elapsed).
		Str("sql", strings.Join(strings.Fields(ev.SQL), " ")).
		Int("args", len(ev.Args)).
		Msg("pg query")
}
