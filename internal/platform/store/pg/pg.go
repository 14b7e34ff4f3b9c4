// Package pg opens the pgxpool behind the postgres state backend
package pg

import (
	"context"
	"fmt"
	"time"

	"lifesync/internal/platform/logger"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Config configures the pool and the boot wait
type Config struct {
	URL      string
	MaxConns int32
	AppName  string

	// Attempts bounds how many pings Open makes before giving up, default 20
	Attempts int
	// PingTimeout bounds a single ping, default 3s
	PingTimeout time.Duration
}

const (
	firstWait = 150 * time.Millisecond
	maxWait   = 2 * time.Second
)

var newPool = pgxpool.NewWithConfig

// Open builds the pool and waits until the server answers a ping. A database
// that is still starting is retried with doubling waits
func Open(ctx context.Context, cfg Config, log logger.Logger) (*pgxpool.Pool, error) {
	pcfg, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("pg: parse url: %w", err)
	}
	if cfg.MaxConns > 0 {
		pcfg.MaxConns = cfg.MaxConns
	}
	if cfg.AppName != "" {
		pcfg.ConnConfig.RuntimeParams["application_name"] = cfg.AppName
	}
	pool, err := newPool(ctx, pcfg)
	if err != nil {
		return nil, fmt.Errorf("pg: new pool: %w", err)
	}
	if err := waitReady(ctx, pool, cfg, log); err != nil {
		pool.Close()
		return nil, err
	}
	return pool, nil
}

type pinger interface{ Ping(context.Context) error }

var _ pinger = (*pgxpool.Pool)(nil)

func waitReady(ctx context.Context, p pinger, cfg Config, log logger.Logger) error {
	attempts := cfg.Attempts
	if attempts <= 0 {
		attempts = 20
	}
	timeout := cfg.PingTimeout
	if timeout <= 0 {
		timeout = 3 * time.Second
	}

	wait := firstWait
	var err error
	for i := 1; ; i++ {
		pctx, cancel := context.WithTimeout(ctx, timeout)
		err = p.Ping(pctx)
		cancel()
		if err == nil {
			return nil
		}
		if i >= attempts {
			return fmt.Errorf("pg: not ready after %d pings: %w", attempts, err)
		}
		log.Warn().Err(err).Int("attempt", i).Dur("retry_in", wait).Msg("postgres not ready")

		t := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			t.Stop()
			return ctx.Err()
		case <-t.C:
		}
		wait = min(2*wait, maxWait)
	}
}
