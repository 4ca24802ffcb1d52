package store

import (
	"context"
	"fmt"
	"time"

	chx "auracast/internal/platform/store/ch"
	"auracast/internal/platform/store/pg"
)

// boot defaults, used when PGConfig leaves the retry knobs at zero
const (
	bootAttempts    = 20
	bootPingTimeout = 3 * time.Second
	bootBackoffMin  = 150 * time.Millisecond
	bootBackoffMax  = 2 * time.Second
)

// dial seams, swapped in tests
var (
	openPGPool = pg.Open
	openCHConn = func(ctx context.Context, cfg chx.Config) (chConn, error) {
		c, err := chx.Open(ctx, cfg)
		if err != nil {
			return nil, err
		}
		return c, nil
	}
)

// openPG builds the pool and waits for it to answer before handing out the adapter
func openPG(ctx context.Context, cfg Config, s *Store) (TxRunner, error) {
	var tracer pg.QueryTracer
	if cfg.PG.LogSQL {
		tracer = pg.Tracer(s.Log)
	}
	p, err := openPGPool(ctx, pg.Config{
		URL:      cfg.PG.URL,
		MaxConns: cfg.PG.MaxConns,
		SlowMs:   cfg.PG.SlowQueryMs,
		AppName:  cfg.AppName,
	}, tracer, nil)
	if err != nil {
		return nil, err
	}

	attempts := orDefault(cfg.PG.ConnectRetries, bootAttempts)
	timeout := orDefault(cfg.PG.PingTimeout, bootPingTimeout)
	ping := func() error {
		pctx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()
		return p.Pool.Ping(pctx)
	}
	if err := awaitReady(ctx, s, attempts, ping); err != nil {
		p.Close()
		return nil, err
	}
	return newPGAdapter(p), nil
}

// awaitReady retries ping with doubling backoff until it succeeds, ctx ends or attempts run out
func awaitReady(ctx context.Context, s *Store, attempts int, ping func() error) error {
	wait := bootBackoffMin
	var last error
	for n := 1; n <= attempts; n++ {
		if last = ping(); last == nil {
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		s.Log.Warn().Err(last).Int("attempt", n).Dur("backoff", wait).Msg("postgres not ready")
		t := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			t.Stop()
			return ctx.Err()
		case <-t.C:
		}
		wait = min(2*wait, bootBackoffMax)
	}
	return fmt.Errorf("postgres ping failed after %d attempts: %w", attempts, last)
}

func openCH(ctx context.Context, cfg Config, _ *Store) (Clickhouse, error) {
	c, err := openCHConn(ctx, chx.Config{
		URL:         cfg.CH.URL,
		Role:        cfg.AppName,
		Tag:         "auracast",
		DialTimeout: cfg.CH.DialTimeout,
	})
	if err != nil {
		return nil, err
	}
	return newCHAdapter(c), nil
}

// orDefault returns def when v is zero or negative
func orDefault[T int | time.Duration](v, def T) T {
	if v <= 0 {
		return def
	}
	return v
}
