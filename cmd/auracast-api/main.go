// @title         auracast API
// @version       0.1.0
// @description   Migraine risk inference and measurement scheduling
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"auracast/internal/core/engine"
	"auracast/internal/core/version"
	"auracast/internal/platform/config"
	"auracast/internal/platform/logger"
	"auracast/internal/platform/metrics"
	phttp "auracast/internal/platform/net/http"
	"auracast/internal/platform/store"

	"auracast/internal/services/api"
	inferencemod "auracast/internal/services/api/inference/module"
	metamod "auracast/internal/services/api/meta/module"
)

func main() {
	// .env first so every config view below sees it
	dotErr := config.LoadDotenv()

	lopts := logger.FromEnv()
	if lopts.Service == "" {
		lopts.Service = metamod.ServiceName
	}
	logger.Init(lopts)
	l := logger.Get()
	if dotErr != nil {
		l.Warn().Err(dotErr).Msg("dotenv not loaded")
	}

	// service-scoped config for HTTP etc (CORE_API_*)
	root := config.New()
	apiCfg := root.Prefix("CORE_API_")

	pgCfg := root.Prefix("SERVICE_PGSQL_")      // pgCfg lives under SERVICE_PGSQL_*
	chCfg := root.Prefix("SERVICE_CLICKHOUSE_") // chCfg lives under SERVICE_CLICKHOUSE_*
	l.Info().Str("build", version.Info(metamod.ServiceName).String()).Msg("starting")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// stores are optional; without them the audit trail is off
	pgURL := pgCfg.MayString("DBURL", "")
	chURL := chCfg.MayString("DBURL", "")
	st, err := store.Open(
		ctx,
		store.Config{
			AppName: metamod.ServiceName,
			PG: store.PGConfig{
				Enabled:        pgURL != "",
				URL:            pgURL,
				MaxConns:       int32(pgCfg.MayInt("MAX_CONNS", 4)),
				SlowQueryMs:    pgCfg.MayInt("SLOW_MS", 500),
				LogSQL:         pgCfg.MayBool("LOG_SQL", false),
				ConnectRetries: pgCfg.MayInt("CONNECT_RETRIES", 20),
				PingTimeout:    pgCfg.MayDuration("PING_TIMEOUT", 3*time.Second),
			},
			CH: store.CHConfig{
				Enabled:     chURL != "",
				URL:         chURL,
				DialTimeout: chCfg.MayDuration("DIAL_TIMEOUT", 5*time.Second),
			},
		},
		store.WithLogger(*l),
	)
	if err != nil {
		l.Fatal().Err(err).Msg("store.Open failed")
	}
	defer func() {
		if err := st.Close(context.Background()); err != nil {
			l.Error().Err(err).Msg("failed to close store")
		}
	}()

	// engine starts empty; /ready stays 503 until the weights are installed
	m := metrics.New()
	opts := inferencemod.FromConfig(root)
	eng, err := engine.New(opts.Engine, engine.WithObserver(m))
	if err != nil {
		l.Fatal().Err(err).Msg("engine config invalid")
	}
	go func() {
		if err := eng.Load(opts.ModelPath); err != nil {
			l.Error().Err(err).Str("path", opts.ModelPath).Msg("model load failed; serving NotReady")
			return
		}
		m.SetModelReady(true)
	}()

	// http server (reads CORE_API_API_PORT)
	srv := phttp.NewServer(apiCfg)

	// mount our API
	api.Mount(
		srv.Router(),
		api.Options{
			Config:         root,
			Store:          st,
			Logger:         l,
			Engine:         eng,
			Metrics:        m,
			EnableSwagger:  apiCfg.MayBool("SWAGGER", true),
			EnableProfiler: apiCfg.MayBool("PROFILER", false),
			EnableMetrics:  apiCfg.MayBool("METRICS", true),
			InitTimeout:    apiCfg.MayDuration("INIT_TIMEOUT", 10*time.Second),
		},
	)

	// run until SIGINT or SIGTERM, then drain
	if err := srv.Run(ctx); err != nil {
		l.Panic().Err(err).Msg("http server stopped")
	}
	l.Info().Msg("bye")
}
