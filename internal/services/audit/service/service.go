// Package service records inference requests to every configured audit sink
package service

import (
	"context"
	"time"

	"auracast/internal/modkit/repokit"
	perr "auracast/internal/platform/errors"
	"auracast/internal/platform/logger"
	"auracast/internal/services/audit/domain"
	"auracast/internal/services/audit/repo"
)

// Sink names used in logs and the audit failure metric
const (
	SinkPG = "pg"
	SinkCH = "ch"
)

// Config for the audit service
type Config struct {
	// Timeout bounds one Record call across all sinks
	Timeout time.Duration
	// MaxRecent caps Recent regardless of the requested limit
	MaxRecent int
}

// FailureReporter counts sink write failures
type FailureReporter interface {
	AuditFailed(sink string)
}

type nopReporter struct{}

func (nopReporter) AuditFailed(string) {}

// Svc implements domain.WriterPort and domain.QueryPort
type Svc struct {
	db     repokit.TxRunner
	binder repokit.Binder[repo.Repo]
	ch     *repo.CH
	fail   FailureReporter
	cfg    Config
	now    func() time.Time
}

// New constructs the audit service; db and ch may each be nil, in which case that sink is off
func New(db repokit.TxRunner, binder repokit.Binder[repo.Repo], ch *repo.CH, fail FailureReporter, cfg Config) *Svc {
	if db != nil && binder == nil {
		panic("audit.Service requires a Repo binder when a TxRunner is set")
	}
	if fail == nil {
		fail = nopReporter{}
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 2 * time.Second
	}
	if cfg.MaxRecent <= 0 {
		cfg.MaxRecent = 200
	}
	return &Svc{db: db, binder: binder, ch: ch, fail: fail, cfg: cfg, now: time.Now}
}

// Enabled reports whether any sink is configured
func (s *Svc) Enabled() bool { return s.db != nil || s.ch != nil }

// EnsureSchema creates the tables of every configured sink
func (s *Svc) EnsureSchema(ctx context.Context) error {
	if s.db != nil {
		if err := repokit.MustBind(s.binder, s.db).EnsureSchema(ctx); err != nil {
			return perr.FromPostgres(err, "audit pg schema")
		}
	}
	if s.ch != nil {
		if err := s.ch.EnsureSchema(ctx); err != nil {
			return perr.Wrap(err, perr.ErrorCodeUnavailable, "audit ch schema")
		}
	}
	return nil
}

// Record writes rec to every sink. Failures are logged and counted, never returned,
// and the write is detached from the caller's cancellation
func (s *Svc) Record(ctx context.Context, rec domain.Record) {
	if !s.Enabled() {
		return
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = s.now().UTC()
	}
	wctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.cfg.Timeout)
	defer cancel()

	xs := []domain.Record{rec}
	if s.db != nil {
		err := repokit.WithTx(wctx, s.db, func(q repokit.Queryer) error {
			return repokit.MustBind(s.binder, q).Insert(wctx, xs)
		})
		if err != nil {
			s.failed(ctx, SinkPG, rec, err)
		}
	}
	if s.ch != nil {
		if err := s.ch.Insert(wctx, xs); err != nil {
			s.failed(ctx, SinkCH, rec, err)
		}
	}
}

// Recent returns the newest records first; it needs the postgres sink
func (s *Svc) Recent(ctx context.Context, limit int) ([]domain.Record, error) {
	if s.db == nil {
		return nil, perr.Unavailablef("audit store not configured")
	}
	if limit <= 0 || limit > s.cfg.MaxRecent {
		limit = s.cfg.MaxRecent
	}
	out, err := repokit.MustBind(s.binder, s.db).Recent(ctx, limit)
	if err != nil {
		return nil, perr.FromPostgres(err, "audit recent")
	}
	return out, nil
}

// ByRequest returns the newest record for requestID; NotFound when there is none
func (s *Svc) ByRequest(ctx context.Context, requestID string) (domain.Record, error) {
	if s.db == nil {
		return domain.Record{}, perr.Unavailablef("audit store not configured")
	}
	rec, err := repokit.MustBind(s.binder, s.db).ByRequest(ctx, requestID)
	if err != nil {
		if perr.IsCode(err, perr.ErrorCodeNotFound) {
			return rec, perr.WithField(perr.NotFoundf("no audit record for request %q", requestID), "request_id")
		}
		return rec, perr.FromPostgres(err, "audit by request")
	}
	return rec, nil
}

func (s *Svc) failed(ctx context.Context, sink string, rec domain.Record, err error) {
	s.fail.AuditFailed(sink)
	logger.C(ctx).Warn().Err(err).
		Str("sink", sink).
		Str("request_id", rec.RequestID).
		Str("op", rec.Op).
		Msg("audit write failed")
}
