package store

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"auracast/internal/platform/store/pg"
)

type recTracer struct{ evs []pg.QueryEvent }

func (r *recTracer) OnQuery(_ context.Context, ev pg.QueryEvent) { r.evs = append(r.evs, ev) }

type scanFunc func(dst ...any) error

func (f scanFunc) Scan(dst ...any) error { return f(dst...) }

// pgxRows yields one string column
type pgxRows struct {
	pgx.Rows
	vals   []string
	i      int
	closed bool
}

func (r *pgxRows) Next() bool { r.i++; return r.i <= len(r.vals) }
func (r *pgxRows) Scan(dst ...any) error {
	*dst[0].(*string) = r.vals[r.i-1]
	return nil
}
func (r *pgxRows) Err() error { return nil }
func (r *pgxRows) Close()     { r.closed = true }
func (r *pgxRows) FieldDescriptions() []pgconn.FieldDescription {
	return []pgconn.FieldDescription{{Name: "request_id"}}
}

// pgxConn answers every statement the same way and logs what it saw
type pgxConn struct {
	sql     []string
	execErr error
	rows    *pgxRows
	scanErr error
}

func (c *pgxConn) Exec(_ context.Context, sql string, _ ...any) (pgconn.CommandTag, error) {
	c.sql = append(c.sql, sql)
	return pgconn.NewCommandTag("INSERT 0 2"), c.execErr
}

func (c *pgxConn) Query(_ context.Context, sql string, _ ...any) (pgx.Rows, error) {
	c.sql = append(c.sql, sql)
	return c.rows, nil
}

func (c *pgxConn) QueryRow(_ context.Context, sql string, _ ...any) pgx.Row {
	c.sql = append(c.sql, sql)
	return scanFunc(func(...any) error { return c.scanErr })
}

type pgxTx struct {
	pgx.Tx
	*pgxConn
	committed, rolledBack bool
}

func (t *pgxTx) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	return t.pgxConn.Exec(ctx, sql, args...)
}

func (t *pgxTx) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return t.pgxConn.Query(ctx, sql, args...)
}

func (t *pgxTx) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	return t.pgxConn.QueryRow(ctx, sql, args...)
}

func (t *pgxTx) Commit(context.Context) error   { t.committed = true; return nil }
func (t *pgxTx) Rollback(context.Context) error { t.rolledBack = true; return nil }

type pgxPoolFake struct {
	*pgxConn
	tx       *pgxTx
	beginErr error
	pingErr  error
	closed   bool
}

func (p *pgxPoolFake) Begin(context.Context) (pgx.Tx, error) {
	if p.beginErr != nil {
		return nil, p.beginErr
	}
	return p.tx, nil
}
func (p *pgxPoolFake) Ping(context.Context) error { return p.pingErr }
func (p *pgxPoolFake) Close()                     { p.closed = true }

func TestPGAdapter_TracesStatements(t *testing.T) {
	rs := &pgxRows{vals: []string{"r1", "r2"}}
	conn := &pgxConn{rows: rs, scanErr: pgx.ErrNoRows}
	tr := &recTracer{}
	a := wrapPool(&pgxPoolFake{pgxConn: conn}, tr, 0)
	ctx := context.Background()

	ct, err := a.Exec(ctx, "insert into risk_audit values ($1)", "r1")
	if err != nil || ct.RowsAffected() != 2 || ct.String() != "INSERT 0 2" {
		t.Fatalf("exec tag=%v err=%v", ct, err)
	}

	got, err := Many(ctx, a, func(r Row) (string, error) {
		var s string
		return s, r.Scan(&s)
	}, "select request_id from risk_audit")
	if err != nil || len(got) != 2 || got[1] != "r2" || !rs.closed {
		t.Fatalf("query got=%v err=%v closed=%v", got, err, rs.closed)
	}

	if err := a.QueryRow(ctx, "select 1").Scan(); !errors.Is(err, pgx.ErrNoRows) {
		t.Fatalf("scan err = %v", err)
	}

	if len(tr.evs) != 3 {
		t.Fatalf("events = %d", len(tr.evs))
	}
	// slow 0 flags every statement, the row event carries the scan error
	if !tr.evs[0].Slow || !errors.Is(tr.evs[2].Err, pgx.ErrNoRows) || tr.evs[2].SQL != "select 1" {
		t.Fatalf("events = %+v", tr.evs)
	}

	tr.evs = nil
	quiet := wrapPool(&pgxPoolFake{pgxConn: conn}, tr, -1)
	_, _ = quiet.Exec(ctx, "select 1")
	if tr.evs[0].Slow {
		t.Fatal("negative threshold should never flag slow")
	}
}

func TestPGAdapter_Columns(t *testing.T) {
	a := wrapPool(&pgxPoolFake{pgxConn: &pgxConn{rows: &pgxRows{}}}, nil, 0)
	rs, err := a.Query(context.Background(), "select request_id from risk_audit")
	if err != nil {
		t.Fatal(err)
	}
	if cols := rs.Columns(); len(cols) != 1 || cols[0] != "request_id" {
		t.Fatalf("cols = %v", cols)
	}
}

func TestPGAdapter_Tx(t *testing.T) {
	boom := errors.New("boom")
	cases := []struct {
		name         string
		fnErr        error
		beginErr     error
		commit, roll bool
	}{
		{name: "commit", commit: true},
		{name: "rollback", fnErr: boom, roll: true},
		{name: "begin fails", beginErr: boom},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			tx := &pgxTx{pgxConn: &pgxConn{}}
			tr := &recTracer{}
			a := wrapPool(&pgxPoolFake{pgxConn: &pgxConn{}, tx: tx, beginErr: tc.beginErr}, tr, 1000)

			err := a.Tx(context.Background(), func(q RowQuerier) error {
				if _, err := q.Exec(context.Background(), "insert into risk_audit values ($1)", 1); err != nil {
					return err
				}
				return tc.fnErr
			})
			if (tc.fnErr != nil || tc.beginErr != nil) != (err != nil) {
				t.Fatalf("err = %v", err)
			}
			if tx.committed != tc.commit || tx.rolledBack != tc.roll {
				t.Fatalf("committed=%v rolledBack=%v", tx.committed, tx.rolledBack)
			}
			if tc.beginErr == nil && (len(tx.sql) != 1 || len(tr.evs) != 1 || tr.evs[0].Slow) {
				t.Fatalf("tx statements sql=%v events=%+v", tx.sql, tr.evs)
			}
		})
	}
}

func TestPGAdapter_PingClose(t *testing.T) {
	p := &pgxPoolFake{pgxConn: &pgxConn{}, pingErr: errors.New("refused")}
	tr := &recTracer{}
	a := wrapPool(p, tr, 0)
	if err := a.Ping(context.Background()); err == nil || len(tr.evs) != 0 {
		t.Fatalf("ping err=%v traced=%d", err, len(tr.evs))
	}
	if err := a.Close(); err != nil || !p.closed {
		t.Fatalf("close err=%v closed=%v", err, p.closed)
	}
	var nilA *pgAdapter
	if err := nilA.Ping(context.Background()); err == nil {
		t.Fatal("nil adapter ping should fail")
	}
}
