package store

import (
	"context"
	"fmt"

	perr "lifesync/internal/platform/errors"
)

// Many runs sql and maps every row through scan
func Many[T any](ctx context.Context, q RowQuerier, scan func(Row) (T, error), sql string, args ...any) ([]T, error) {
	rs, err := q.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rs.Close()

	var out []T
	for rs.Next() {
		v, err := scan(rs)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	if err := rs.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// One is Many for statements that must match exactly one row. No match is
// perr.ErrNotFound
func One[T any](ctx context.Context, q RowQuerier, scan func(Row) (T, error), sql string, args ...any) (T, error) {
	var zero T
	all, err := Many(ctx, q, scan, sql, args...)
	switch {
	case err != nil:
		return zero, err
	case len(all) == 0:
		return zero, perr.ErrNotFound
	case len(all) > 1:
		return zero, fmt.Errorf("store: want one row, got %d", len(all))
	}
	return all[0], nil
}
