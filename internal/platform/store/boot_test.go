package store

import (
	"context"
	"errors"
	"testing"
	"time"

	chx "auracast/internal/platform/store/ch"
	"auracast/internal/platform/testkit"
)

// fakeCH satisfies chConn and records calls
type fakeCH struct {
	inserted map[string]int
	pingErr  error
	closeErr error
	closed   bool
}

func (f *fakeCH) Insert(_ context.Context, table string, rows [][]any) error {
	if f.inserted == nil {
		f.inserted = map[string]int{}
	}
	f.inserted[table] += len(rows)
	return nil
}
func (f *fakeCH) Exec(context.Context, string, ...any) error               { return nil }
func (f *fakeCH) Query(context.Context, string, ...any) (chx.Rows, error) { return nil, errors.New("no rows") }
func (f *fakeCH) Ping(context.Context) error                               { return f.pingErr }
func (f *fakeCH) Close() error                                             { f.closed = true; return f.closeErr }

func fastFailPGURL() string {
	// 127.0.0.1:1 is closed everywhere so pings fail without dns
	return "postgres://u:p@127.0.0.1:1/db?sslmode=disable"
}

func TestOpenPG_ParentAlreadyCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	cfg := Config{PG: PGConfig{Enabled: true, URL: fastFailPGURL(), ConnectRetries: 3}}

	start := time.Now()
	txr, err := openPG(ctx, cfg, &Store{})
	if err == nil {
		t.Fatalf("expected error due to canceled context, got nil (txr=%T)", txr)
	}
	if txr != nil {
		t.Fatalf("expected nil TxRunner, got %T", txr)
	}
	if time.Since(start) > time.Second {
		t.Fatalf("canceled open should return quickly")
	}
}

func TestOpenPG_GivesUpAfterRetries(t *testing.T) {
	cfg := Config{PG: PGConfig{Enabled: true, URL: fastFailPGURL(), ConnectRetries: 1, PingTimeout: 200 * time.Millisecond}}

	_, err := openPG(context.Background(), cfg, &Store{})
	if err == nil {
		t.Fatal("expected ping failure")
	}
	testkit.MustContain(t, err.Error(), "after 1 attempts")
}

func TestOpenCH_PassesRoleAndWraps(t *testing.T) {
	fc := &fakeCH{}
	var got chx.Config
	testkit.Swap(t, &openCHConn, func(_ context.Context, c chx.Config) (chConn, error) {
		got = c
		return fc, nil
	})

	c, err := openCH(context.Background(), Config{AppName: "api", CH: CHConfig{Enabled: true, URL: "clickhouse://x"}}, nil)
	if err != nil {
		t.Fatalf("openCH: %v", err)
	}
	if got.Role != "api" || got.URL != "clickhouse://x" {
		t.Fatalf("config not forwarded: %+v", got)
	}
	if err := c.Insert(context.Background(), "risk_estimates", [][]any{{1}, {2}}); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if fc.inserted["risk_estimates"] != 2 {
		t.Fatalf("rows not forwarded: %v", fc.inserted)
	}
	if err := c.Insert(context.Background(), "", nil); err == nil {
		t.Fatal("empty table should fail")
	}
}

func TestOpenCH_Error(t *testing.T) {
	testkit.Swap(t, &openCHConn, func(context.Context, chx.Config) (chConn, error) {
		return nil, errors.New("dial")
	})
	if _, err := openCH(context.Background(), Config{CH: CHConfig{Enabled: true, URL: "clickhouse://x"}}, nil); err == nil {
		t.Fatal("expected error")
	}
}

func TestAwaitReady_RetriesUntilPingAnswers(t *testing.T) {
	calls := 0
	err := awaitReady(context.Background(), &Store{}, 5, func() error {
		if calls++; calls < 3 {
			return errors.New("starting up")
		}
		return nil
	})
	if err != nil || calls != 3 {
		t.Fatalf("err=%v calls=%d", err, calls)
	}
}

func TestOrDefault(t *testing.T) {
	if orDefault(0, 7) != 7 || orDefault(-1, 7) != 7 || orDefault(3, 7) != 3 {
		t.Fatal("int fallback")
	}
	if orDefault(time.Duration(0), time.Second) != time.Second {
		t.Fatal("duration fallback")
	}
}
