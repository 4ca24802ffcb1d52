// Package store opens the optional audit backends and hands them out behind narrow seams
package store

import (
	"context"
	"errors"
	"time"

	"auracast/internal/platform/logger"
)

// Config says which backends to open; AppName tags every connection
type Config struct {
	AppName string
	PG      PGConfig
	CH      CHConfig
}

// PGConfig holds the postgres knobs, zero retry values fall back to the boot defaults
type PGConfig struct {
	Enabled        bool
	URL            string
	MaxConns       int32
	LogSQL         bool
	SlowQueryMs    int
	ConnectRetries int
	PingTimeout    time.Duration
}

// CHConfig holds the clickhouse knobs
type CHConfig struct {
	Enabled     bool
	URL         string
	DialTimeout time.Duration
}

// Store carries whichever backends were enabled, a disabled backend stays nil
type Store struct {
	Log logger.Logger
	PG  TxRunner
	CH  Clickhouse
}

// Option adjusts the Store before any backend is dialed
type Option func(*Store) error

// WithLogger routes backend logs (sql trace, boot retries) to log
func WithLogger(log logger.Logger) Option {
	return func(s *Store) error {
		s.Log = log
		return nil
	}
}

// Open dials postgres then clickhouse; a failure closes whatever was already open
func Open(ctx context.Context, cfg Config, opts ...Option) (*Store, error) {
	s := new(Store)
	for _, apply := range opts {
		if err := apply(s); err != nil {
			return nil, err
		}
	}

	if cfg.PG.Enabled {
		runner, err := openPG(ctx, cfg, s)
		if err != nil {
			return nil, err
		}
		s.PG = runner
	}
	if cfg.CH.Enabled {
		conn, err := openCH(ctx, cfg, s)
		if err != nil {
			_ = s.Close(ctx)
			return nil, err
		}
		s.CH = conn
	}
	return s, nil
}

// Close shuts every open backend and joins their errors
func (s *Store) Close(context.Context) error {
	var errs []error
	if s.CH != nil {
		errs = append(errs, s.CH.Close())
	}
	if c, ok := s.PG.(interface{ Close() error }); ok {
		errs = append(errs, c.Close())
	}
	return errors.Join(errs...)
}
