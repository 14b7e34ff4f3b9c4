// Package store provides the optional SQL backend behind the state repositories
package store

import (
	"context"
	"errors"
	"fmt"

	"lifesync/internal/platform/logger"
	"lifesync/internal/platform/store/pg"
)

// Store holds the opened backends. A Store without PG is valid: state then
// lives in files
type Store struct {
	Log logger.Logger

	// PG is nil when postgres is not configured
	PG TxRunner
}

// Row is the scan side of a single result row
type Row interface {
	Scan(dest ...any) error
}

// Rows iterates a result set
type Rows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
	Close()
}

// CommandTag reports what a statement did
type CommandTag interface {
	String() string
	RowsAffected() int64
}

// RowQuerier is what the repositories run statements against
type RowQuerier interface {
	Exec(ctx context.Context, sql string, args ...any) (CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) Row
}

// TxRunner is a RowQuerier that can also run fn in a transaction
type TxRunner interface {
	RowQuerier
	Tx(ctx context.Context, fn func(q RowQuerier) error) error
}

// Pinger reports readiness
type Pinger interface{ Ping(context.Context) error }

// Open opens the backends cfg enables
func Open(ctx context.Context, cfg Config, opts ...Option) (*Store, error) {
	s := &Store{}
	for _, o := range opts {
		if err := o(s); err != nil {
			return nil, err
		}
	}
	if !cfg.PG.Enabled {
		return s, nil
	}

	pool, err := pg.Open(ctx, pg.Config{
		URL:         cfg.PG.URL,
		MaxConns:    cfg.PG.MaxConns,
		AppName:     cfg.AppName,
		Attempts:    cfg.PG.ConnectRetries,
		PingTimeout: cfg.PG.PingTimeout,
	}, s.Log)
	if err != nil {
		return nil, err
	}
	var tracer pg.QueryTracer
	if cfg.PG.LogSQL {
		tracer = pg.LogTracer{Log: s.Log}
	}
	s.PG = newPGAdapter(pool, tracer, cfg.PG.SlowQuery)
	return s, nil
}

// Guard pings every opened backend
func (s *Store) Guard(ctx context.Context) error {
	if s == nil {
		return errors.New("nil store")
	}
	if p, ok := s.PG.(Pinger); ok {
		if err := p.Ping(ctx); err != nil {
			return fmt.Errorf("pg: %w", err)
		}
	}
	return nil
}

// Close releases the opened backends
func (s *Store) Close(_ context.Context) error {
	if s == nil {
		return nil
	}
	if c, ok := s.PG.(interface{ Close() error }); ok {
		return c.Close()
	}
	return nil
}
