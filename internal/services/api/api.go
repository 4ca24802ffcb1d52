// Package api provides the HTTP API for the application
package api

import (
	"context"
	"net/http"
	"time"

	"auracast/internal/core/engine"
	"auracast/internal/platform/config"
	"auracast/internal/platform/logger"
	"auracast/internal/platform/metrics"
	phttp "auracast/internal/platform/net/http"
	"auracast/internal/platform/store"

	"auracast/internal/modkit"
	"auracast/internal/modkit/httpkit"
	"auracast/internal/modkit/module"
	"auracast/internal/modkit/swaggerkit"

	auditapi "auracast/internal/services/api/audit/module"
	inferencemod "auracast/internal/services/api/inference/module"
	metamod "auracast/internal/services/api/meta/module"
	modelmod "auracast/internal/services/api/model/module"

	// Worker audit module (owns the Writer and Query ports)
	auditmod "auracast/internal/services/audit/module"
)

// Options are the API options
type Options struct {
	Config config.Conf
	// Store is optional; nil runs without an audit trail
	Store   *store.Store
	Logger  *logger.Logger
	Engine  *engine.Engine
	Metrics *metrics.Metrics

	EnableSwagger  bool
	EnableProfiler bool
	EnableMetrics  bool

	// InitTimeout bounds module start-up work such as audit schema creation
	InitTimeout time.Duration
}

// Mount mounts the API service onto the given router
func Mount(r phttp.Router, opt Options) {
	// shared deps for modules
	deps := modkit.Deps{
		Cfg:     opt.Config,
		Engine:  opt.Engine,
		Metrics: opt.Metrics,
	}
	if opt.Logger != nil {
		deps.Log = *opt.Logger
	}
	if opt.Store != nil {
		deps.PG = opt.Store.PG
		deps.CH = opt.Store.CH
	}

	// Construct the WORKER audit module first and extract its ports
	audit := auditmod.New(deps)
	initAudit(audit, opt.InitTimeout)
	ports := module.MustPortsOf[auditmod.Ports](audit)

	// Inject the writer into the inference routes and the reader into the audit API
	withAudit := modkit.WithPorts(inferencemod.Ports{Audit: ports.Writer})
	// one in-flight budget across risk, posteriors and topk
	limit := inferencemod.InFlightLimit(opt.Config)

	mods := []module.Module{
		metamod.New(deps),
		modelmod.New(deps),
		inferencemod.New(deps, withAudit, limit),
		inferencemod.NewPolicy(deps, withAudit, limit),
		auditapi.New(deps, modkit.WithPorts(auditapi.Ports{Query: ports.Query})),
	}

	stack := httpkit.CommonStack()
	if opt.Metrics != nil {
		stack = append([]func(http.Handler) http.Handler{opt.Metrics.HTTP}, stack...)
		if opt.EnableMetrics {
			r.Handle("/metrics", opt.Metrics.Handler())
		}
	}

	// versioned API with a common middleware stack
	httpkit.MountAPIV1(r, stack, func(api httpkit.Router) {
		// Swagger + profiler
		swaggerkit.Mount(r, opt.EnableSwagger)
		phttp.MountProfiler(r, "/debug", opt.EnableProfiler)

		for _, m := range mods {
			m.MountRoutes(api)
		}
	})
}

func initAudit(m *auditmod.Module, timeout time.Duration) {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	m.Init(ctx)
}
