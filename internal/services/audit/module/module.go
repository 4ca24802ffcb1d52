// Package module wires the audit trail and exposes its ports
package module

import (
	"context"

	"auracast/internal/modkit"
	"auracast/internal/modkit/repokit"
	"auracast/internal/platform/logger"
	"auracast/internal/services/audit/domain"
	"auracast/internal/services/audit/repo"
	"auracast/internal/services/audit/service"
)

// Ports exposed by the audit module
type Ports struct {
	Writer domain.WriterPort
	Query  domain.QueryPort
}

// Module implements the audit worker module
type Module struct {
	modkit.Worker
	opts Options
	svc  *service.Svc
}

// New constructs the audit module; sinks follow whichever stores deps carries
func New(deps modkit.Deps) *Module {
	opts := FromConfig(deps.Cfg)

	var (
		db repokit.TxRunner
		ch *repo.CH
	)
	if opts.Enabled {
		if deps.PG != nil {
			db = repokit.WithBeginHooks(deps.PG, repokit.StatementTimeout(opts.StatementTimeout))
		}
		if deps.CH != nil {
			ch = repo.NewCH(deps.CH)
		}
	}

	var rep service.FailureReporter
	if deps.Metrics != nil {
		rep = deps.Metrics
	}
	svc := service.New(db, repo.NewPG(), ch, rep, service.Config{
		Timeout:   opts.Timeout,
		MaxRecent: opts.MaxRecent,
	})

	return &Module{
		Worker: modkit.NewWorker("audit", Ports{Writer: svc, Query: svc}),
		opts:   opts,
		svc:    svc,
	}
}

// Init creates sink tables when configured to; failures are logged and leave the sinks on
func (m *Module) Init(ctx context.Context) {
	if !m.opts.EnsureSchema || !m.svc.Enabled() {
		return
	}
	if err := m.svc.EnsureSchema(ctx); err != nil {
		logger.Named("audit").Warn().Err(err).Msg("audit schema not ensured")
	}
}
