// Package module implements the batch score module
package module

import (
	"auracast/internal/modkit"
	"auracast/internal/services/score/domain"
	"auracast/internal/services/score/service"
)

// Ports exposed by the score module
type Ports struct {
	Runner domain.RunnerPort
}

// Module is a route-less worker exposing the batch runner
type Module struct {
	modkit.Worker
}

// New constructs the score module; non zero overrides win over config
func New(deps modkit.Deps, overrides Options) *Module {
	if deps.Engine == nil {
		panic("score module: deps.Engine is required")
	}

	cfg := FromConfig(deps.Cfg)
	if overrides.Workers != 0 {
		cfg.Workers = overrides.Workers
	}
	if overrides.K != 0 {
		cfg.K = overrides.K
	}
	if overrides.Timeout != 0 {
		cfg.Timeout = overrides.Timeout
	}
	cfg.KeepGoing = cfg.KeepGoing || overrides.KeepGoing

	sc := service.Config{
		Workers:   cfg.Workers,
		KeepGoing: cfg.KeepGoing,
		Timeout:   cfg.Timeout,
	}
	if cfg.K != 0 {
		k := cfg.K
		sc.K = &k
	}

	return &Module{Worker: modkit.NewWorker("score", Ports{Runner: service.New(deps.Engine, sc)})}
}
