package store

import (
	"context"
	"errors"
	"time"

	"lifesync/internal/platform/store/pg"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// pgxQuerier is what *pgxpool.Pool and pgx.Tx have in common
type pgxQuerier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// querier implements RowQuerier over a pool or a transaction. pgx result
// types already satisfy Rows and CommandTag, only QueryRow needs a wrapper
// so its trace carries the scan error
type querier struct {
	db     pgxQuerier
	tracer pg.QueryTracer
	// slow marks statements at or above it; negative never marks
	slow time.Duration
}

func (q querier) Exec(ctx context.Context, sql string, args ...any) (CommandTag, error) {
	done := q.trace(ctx, sql, args)
	ct, err := q.db.Exec(ctx, sql, args...)
	done(err)
	return ct, err
}

func (q querier) Query(ctx context.Context, sql string, args ...any) (Rows, error) {
	done := q.trace(ctx, sql, args)
	rs, err := q.db.Query(ctx, sql, args...)
	done(err)
	if err != nil {
		return nil, err
	}
	return rs, nil
}

func (q querier) QueryRow(ctx context.Context, sql string, args ...any) Row {
	done := q.trace(ctx, sql, args)
	return tracedRow{Row: q.db.QueryRow(ctx, sql, args...), done: done}
}

// trace starts the clock for one statement; the returned func reports it
func (q querier) trace(ctx context.Context, sql string, args []any) func(error) {
	if q.tracer == nil {
		return func(error) {}
	}
	start := time.Now()
	return func(err error) {
		elapsed := time.Since(start)
		q.tracer.OnQuery(ctx, pg.QueryEvent{
			SQL:     sql,
			Args:    args,
			Elapsed: elapsed,
			Err:     err,
			Slow:    q.slow >= 0 && elapsed >= q.slow,
		})
	}
}

type tracedRow struct {
	pgx.Row
	done func(error)
}

func (r tracedRow) Scan(dst ...any) error {
	err := r.Row.Scan(dst...)
	r.done(err)
	return err
}

// pgAdapter is the TxRunner and Pinger the Store hands out
type pgAdapter struct {
	querier
	pool *pgxpool.Pool
}

func newPGAdapter(pool *pgxpool.Pool, tracer pg.QueryTracer, slow time.Duration) *pgAdapter {
	return &pgAdapter{querier: querier{db: pool, tracer: tracer, slow: slow}, pool: pool}
}

func (a *pgAdapter) Ping(ctx context.Context) error {
	if a == nil || a.pool == nil {
		return errors.New("pg: not open")
	}
	return a.pool.Ping(ctx)
}

func (a *pgAdapter) Close() error {
	a.pool.Close()
	return nil
}

// Tx runs fn in a transaction and commits when it returns nil
func (a *pgAdapter) Tx(ctx context.Context, fn func(q RowQuerier) error) error {
	tx, err := a.pool.Begin(ctx)
	if err != nil {
		return err
	}
	if err := fn(querier{db: tx, tracer: a.tracer, slow: a.slow}); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}
	return tx.Commit(ctx)
}
