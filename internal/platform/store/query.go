package store

import (
	"context"

	perr "auracast/internal/platform/errors"
)

// Exec runs a statement that returns no rows
func Exec(ctx context.Context, q RowQuerier, sql string, args ...any) (CommandTag, error) {
	return q.Exec(ctx, sql, args...)
}

// One expects exactly one row: none is perr.ErrNotFound, two is a DB error
func One[T any](ctx context.Context, q RowQuerier, scan func(Row) (T, error), sql string, args ...any) (T, error) {
	var (
		got   T
		count int
	)
	err := each(ctx, q, sql, args, func(r Row) error {
		if count++; count > 1 {
			return perr.DBf("expected one row, got more")
		}
		v, err := scan(r)
		got = v
		return err
	})
	switch {
	case err != nil:
		var zero T
		return zero, err
	case count == 0:
		return got, perr.ErrNotFound
	}
	return got, nil
}

// Many collects every row; no rows gives a nil slice
func Many[T any](ctx context.Context, q RowQuerier, scan func(Row) (T, error), sql string, args ...any) ([]T, error) {
	var out []T
	err := each(ctx, q, sql, args, func(r Row) error {
		v, err := scan(r)
		if err != nil {
			return err
		}
		out = append(out, v)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// each feeds every row to fn and stops at the first error; rows are always closed
func each(ctx context.Context, q RowQuerier, sql string, args []any, fn func(Row) error) error {
	rs, err := q.Query(ctx, sql, args...)
	if err != nil {
		return err
	}
	defer rs.Close()
	for rs.Next() {
		if err := fn(rs); err != nil {
			return err
		}
	}
	return rs.Err()
}
