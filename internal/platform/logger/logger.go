// Package logger owns the process wide zerolog logger. Run and request
// scoped fields travel on the context and are picked up by C
package logger

import (
	"context"
	"io"
	"os"
	"runtime/debug"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/pkgerrors"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Logger is the project wide logging type
type Logger = zerolog.Logger

// Options configures the root logger
type Options struct {
	Level        string
	Format       string // console or json
	Service      string
	Writer       io.Writer
	WithCaller   bool
	StaticFields map[string]string

	// File adds a rotating JSON sink next to the primary writer. The agent
	// runs unattended for weeks so this is how operators read old runs
	File           string
	FileMaxMB      int
	FileBackups    int
	FileMaxAgeDays int
}

// env reads LOG_* directly; config logs through this package and cannot be used here
func env(key, def string) string {
	if v := strings.TrimSpace(os.Getenv("LOG_" + key)); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) int {
	if n, err := strconv.Atoi(env(key, "")); err == nil {
		return n
	}
	return def
}

// FromEnv builds Options from LOG_* variables
func FromEnv() Options {
	caller, _ := strconv.ParseBool(env("CALLER", "false"))
	return Options{
		Level:          strings.ToLower(env("LEVEL", "info")),
		Format:         strings.ToLower(env("FORMAT", "console")),
		Service:        env("SERVICE", "lifesync"),
		WithCaller:     caller,
		File:           env("FILE", ""),
		FileMaxMB:      envInt("FILE_MAX_MB", 20),
		FileBackups:    envInt("FILE_BACKUPS", 5),
		FileMaxAgeDays: envInt("FILE_MAX_AGE_DAYS", 30),
	}
}

var (
	once sync.Once
	root atomic.Pointer[zerolog.Logger]
)

// Get returns the root logger, initializing it from the environment on first use
func Get() *Logger {
	if l := root.Load(); l != nil {
		return l
	}
	Init(FromEnv())
	return root.Load()
}

// Init builds the root logger. Only the first call has any effect
func Init(opt Options) {
	once.Do(func() {
		zerolog.ErrorStackMarshaler = pkgerrors.MarshalStack
		zerolog.TimeFieldFormat = time.RFC3339Nano

		lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(opt.Level)))
		if err != nil || lvl == zerolog.NoLevel {
			lvl = zerolog.InfoLevel
		}

		var w io.Writer = os.Stderr
		if opt.Writer != nil {
			w = opt.Writer
		}
		if opt.Format != "json" {
			w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
		}
		if opt.File != "" {
			w = zerolog.MultiLevelWriter(w, &lumberjack.Logger{
				Filename:   opt.File,
				MaxSize:    max(opt.FileMaxMB, 1),
				MaxBackups: opt.FileBackups,
				MaxAge:     opt.FileMaxAgeDays,
				Compress:   true,
			})
		}

		zc := zerolog.New(w).Level(lvl).With().Timestamp()
		if opt.Service != "" {
			zc = zc.Str("service", opt.Service)
		}
		if bi, ok := debug.ReadBuildInfo(); ok {
			zc = zc.Str("go_version", bi.GoVersion)
		}
		for k, v := range opt.StaticFields {
			zc = zc.Str(k, v)
		}
		if opt.WithCaller {
			zc = zc.Caller()
		}
		l := zc.Logger()
		root.Store(&l)
	})
}

// ctxKey doubles as the log field name of the value it keys
type ctxKey string

const (
	keyRequestID ctxKey = "request_id"
	keyRunID     ctxKey = "run_id"
	keyRunKind   ctxKey = "run_kind"
)

// WithRequest annotates ctx with the control api request id
func WithRequest(ctx context.Context, reqID string) context.Context {
	if reqID == "" {
		return ctx
	}
	return context.WithValue(ctx, keyRequestID, reqID)
}

// WithRun annotates ctx with the id and kind (sync, summarize) of a run
func WithRun(ctx context.Context, runID, kind string) context.Context {
	if runID != "" {
		ctx = context.WithValue(ctx, keyRunID, runID)
	}
	if kind != "" {
		ctx = context.WithValue(ctx, keyRunKind, kind)
	}
	return ctx
}

// C returns a child of the root logger carrying the ids stored on ctx
func C(ctx context.Context) *Logger {
	zc := Get().With()
	for _, k := range []ctxKey{keyRequestID, keyRunID, keyRunKind} {
		if s, ok := ctx.Value(k).(string); ok {
			zc = zc.Str(string(k), s)
		}
	}
	l := zc.Logger()
	return &l
}

// Named returns a child logger with a component field
func Named(component string) *Logger {
	if component == "" {
		return Get()
	}
	l := Get().With().Str("component", component).Logger()
	return &l
}
