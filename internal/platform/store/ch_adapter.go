package store

import (
	"context"
	"errors"

	"auracast/internal/platform/store/ch"
)

// chConn is what the adapter needs from *ch.CH
type chConn interface {
	Insert(ctx context.Context, table string, rows [][]any) error
	Exec(ctx context.Context, sql string, args ...any) error
	Query(ctx context.Context, sql string, args ...any) (ch.Rows, error)
	Ping(ctx context.Context) error
	Close() error
}

var errNoTable = errors.New("store: clickhouse insert needs a table")

// chAdapter narrows a clickhouse connection to the Clickhouse seam
// it embeds chConn so only the methods whose shape differs are spelled out
type chAdapter struct{ chConn }

var _ Clickhouse = chAdapter{}

func newCHAdapter(c chConn) Clickhouse { return chAdapter{c} }

func (a chAdapter) Insert(ctx context.Context, table string, rows [][]any) error {
	if table == "" {
		return errNoTable
	}
	return a.chConn.Insert(ctx, table, rows)
}

func (a chAdapter) Query(ctx context.Context, sql string, args ...any) (Rows, error) {
	rs, err := a.chConn.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	return chRows{rs}, nil
}

func (a chAdapter) Ping(ctx context.Context) error {
	if a.chConn == nil {
		return errors.New("store: clickhouse not connected")
	}
	return a.chConn.Ping(ctx)
}

// chRows drops the Close error so ch.Rows fits Rows
type chRows struct{ ch.Rows }

func (r chRows) Close() { _ = r.Rows.Close() }
