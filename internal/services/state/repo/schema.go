package repo

import (
	"context"

	"lifesync/internal/modkit/repokit"
	perr "lifesync/internal/platform/errors"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS sync_cursor (
		id         smallint PRIMARY KEY CHECK (id = 1),
		last_sync  timestamptz NOT NULL,
		updated_at timestamptz NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS document_hashes (
		path          text PRIMARY KEY,
		digest        text NOT NULL,
		summarized_at timestamptz NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS sync_days (
		day         date PRIMARY KEY,
		entries     integer NOT NULL DEFAULT 0,
		written     text NOT NULL DEFAULT '',
		mode        text NOT NULL DEFAULT '',
		status      text NOT NULL,
		error       text,
		elapsed_ms  bigint NOT NULL DEFAULT 0,
		finished_at timestamptz NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS ix_sync_days_finished ON sync_days (finished_at DESC)`,
}

// SchemaLock serializes schema setup across processes sharing a database
func SchemaLock(ctx context.Context, q repokit.Queryer) error {
	_, err := q.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext('lifesync.schema'))`)
	return err
}

// EnsureSchema creates the state tables when missing
func EnsureSchema(ctx context.Context, tx repokit.TxRunner) error {
	err := repokit.WithTx(ctx, tx, func(q repokit.Queryer) error {
		for _, stmt := range schema {
			if _, err := q.Exec(ctx, stmt); err != nil {
				return err
			}
		}
		return nil
	}, SchemaLock)
	if err != nil {
		return perr.FromPostgresf(err, "ensure state schema")
	}
	return nil
}
