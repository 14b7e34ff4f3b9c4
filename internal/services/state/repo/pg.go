package repo

import (
	"context"
	"errors"
	"time"

	"lifesync/internal/modkit/repokit"
	perr "lifesync/internal/platform/errors"
	"lifesync/internal/platform/store"
	"lifesync/internal/services/state/domain"
)

type (
	// PG is a Postgres binder for domain.Store
	PG      struct{}
	queries struct{ q repokit.Queryer }
)

// NewPG returns a Postgres binder for domain.Store
func NewPG() repokit.Binder[domain.Store] { return PG{} }

// Bind implements repokit.Binder
func (PG) Bind(q repokit.Queryer) domain.Store { return &queries{q: q} }

// Cursor implements domain.CursorStore
func (r *queries) Cursor(ctx context.Context) (time.Time, error) {
	t, err := store.One(ctx, r.q, func(row store.Row) (time.Time, error) {
		var ts time.Time
		err := row.Scan(&ts)
		return ts, err
	}, `SELECT last_sync FROM sync_cursor WHERE id = 1`)
	if errors.Is(err, perr.ErrNotFound) {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, perr.FromPostgresf(err, "read sync cursor")
	}
	return t.UTC(), nil
}

// AdvanceCursor implements domain.CursorStore. The conditional upsert keeps
// the watermark monotonic even with concurrent writers
func (r *queries) AdvanceCursor(ctx context.Context, t time.Time) (bool, error) {
	if t.IsZero() {
		return false, nil
	}
	tag, err := r.q.Exec(ctx, `
		INSERT INTO sync_cursor (id, last_sync, updated_at)
		VALUES (1, $1, now())
		ON CONFLICT (id) DO UPDATE
		SET last_sync = EXCLUDED.last_sync, updated_at = now()
		WHERE sync_cursor.last_sync < EXCLUDED.last_sync
	`, t.UTC())
	if err != nil {
		return false, perr.FromPostgresf(err, "advance sync cursor")
	}
	return tag.RowsAffected() == 1, nil
}

// ResetCursor implements domain.CursorStore
func (r *queries) ResetCursor(ctx context.Context) error {
	if _, err := r.q.Exec(ctx, `DELETE FROM sync_cursor WHERE id = 1`); err != nil {
		return perr.FromPostgresf(err, "reset sync cursor")
	}
	return nil
}

// Hashes implements domain.HashStore
func (r *queries) Hashes(ctx context.Context) (map[string]string, error) {
	type pair struct{ path, digest string }
	rows, err := store.Many(ctx, r.q, func(row store.Row) (pair, error) {
		var p pair
		err := row.Scan(&p.path, &p.digest)
		return p, err
	}, `SELECT path, digest FROM document_hashes`)
	if err != nil {
		return nil, perr.FromPostgresf(err, "read document hashes")
	}
	out := make(map[string]string, len(rows))
	for _, p := range rows {
		out[p.path] = p.digest
	}
	return out, nil
}

// PutHash implements domain.HashStore
func (r *queries) PutHash(ctx context.Context, path, digest string) error {
	_, err := r.q.Exec(ctx, `
		INSERT INTO document_hashes (path, digest, summarized_at)
		VALUES ($1, $2, now())
		ON CONFLICT (path) DO UPDATE
		SET digest = EXCLUDED.digest, summarized_at = now()
	`, path, digest)
	if err != nil {
		return perr.FromPostgresf(err, "store hash for %s", path)
	}
	return nil
}

// RecordDay implements domain.DayLedger. The latest record per date wins
func (r *queries) RecordDay(ctx context.Context, rec domain.DayRecord) error {
	_, err := r.q.Exec(ctx, `
		INSERT INTO sync_days (day, entries, written, mode, status, error, elapsed_ms, finished_at)
		VALUES ($1::date, $2, $3, $4, $5, NULLIF($6, ''), $7, $8)
		ON CONFLICT (day) DO UPDATE SET
			entries = EXCLUDED.entries,
			written = EXCLUDED.written,
			mode = EXCLUDED.mode,
			status = EXCLUDED.status,
			error = EXCLUDED.error,
			elapsed_ms = EXCLUDED.elapsed_ms,
			finished_at = EXCLUDED.finished_at
	`, rec.Date, rec.Entries, rec.Written, rec.Mode, rec.Status, rec.Error, rec.ElapsedMS, rec.FinishedAt.UTC())
	if err != nil {
		return perr.FromPostgresf(err, "record day %s", rec.Date)
	}
	return nil
}

// RecentDays implements domain.DayLedger, newest first
func (r *queries) RecentDays(ctx context.Context, limit int) ([]domain.DayRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	out, err := store.Many(ctx, r.q, func(row store.Row) (domain.DayRecord, error) {
		var d domain.DayRecord
		err := row.Scan(&d.Date, &d.Entries, &d.Written, &d.Mode, &d.Status, &d.Error, &d.ElapsedMS, &d.FinishedAt)
		return d, err
	}, `
		SELECT to_char(day, 'YYYY-MM-DD'), entries, written, mode, status,
			COALESCE(error, ''), elapsed_ms, finished_at
		FROM sync_days
		ORDER BY finished_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, perr.FromPostgresf(err, "read day ledger")
	}
	return out, nil
}
