package modkit

import (
	"auracast/internal/core/engine"
	"auracast/internal/modkit/repokit"
	"auracast/internal/platform/config"
	"auracast/internal/platform/logger"
	"auracast/internal/platform/metrics"
	"auracast/internal/platform/store"
)

// Deps is what main hands every module, optional stores stay nil when unconfigured
type Deps struct {
	Log logger.Logger
	Cfg config.Conf
	PG  repokit.TxRunner
	CH  store.Clickhouse

	// Engine is shared by every inference route; it may not be ready yet
	Engine *engine.Engine
	// Metrics is optional; nil disables instrumentation
	Metrics *metrics.Metrics
}
