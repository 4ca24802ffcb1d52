// Package service reports the installed model and swaps in new weights
package service

import (
	"context"
	"sync"
	"time"

	"auracast/internal/core/engine"
	"auracast/internal/core/model"
	perr "auracast/internal/platform/errors"
	"auracast/internal/platform/logger"
	"auracast/internal/services/api/model/domain"
)

// Service defines the model service contract
type Service interface {
	domain.ServicePort
}

// Svc implements the model service
type Svc struct {
	eng  domain.EnginePort
	path string
	now  func() time.Time

	// reloads are serialized so two admins cannot interleave file reads
	mu sync.Mutex
}

// New constructs a model service that reloads from path (empty means embedded weights)
func New(eng domain.EnginePort, path string) *Svc {
	if eng == nil {
		panic("model.Service requires a non nil engine")
	}
	return &Svc{eng: eng, path: path, now: time.Now}
}

// Info describes the installed model
func (s *Svc) Info(_ context.Context) (domain.Info, error) {
	m, ok := s.eng.Model()
	if !ok {
		return domain.Info{}, perr.NotReadyf("model not installed")
	}
	return describe(m, s.eng.Config()), nil
}

// Reload re-reads the configured weights and installs them
// a failed reload keeps the current model in service
func (s *Svc) Reload(ctx context.Context) (domain.ReloadOutput, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return domain.ReloadOutput{}, perr.FromContext(err, "reload")
	}

	var prev string
	if m, ok := s.eng.Model(); ok {
		prev = m.Fingerprint()
	}
	log := logger.C(ctx).With().Str("path", s.path).Str("previous", prev).Logger()

	if err := s.eng.Load(s.path); err != nil {
		log.Error().Err(err).Msg("model reload failed")
		return domain.ReloadOutput{}, perr.WithOp(err, "reload")
	}
	m, _ := s.eng.Model()
	out := domain.ReloadOutput{
		Previous:   prev,
		Current:    describe(m, s.eng.Config()),
		Changed:    prev != m.Fingerprint(),
		ReloadedAt: s.now().UTC(),
	}
	log.Info().Str("fingerprint", m.Fingerprint()).Bool("changed", out.Changed).Msg("model reloaded")
	return out, nil
}

func describe(m *model.Model, cfg engine.Config) domain.Info {
	w := cfg.Policy.Weights
	return domain.Info{
		Version:     m.Version(),
		Fingerprint: m.Fingerprint(),
		F:           m.F(),
		Z:           m.Z(),
		Features:    m.Features(),
		Latents:     m.Latents(),
		Weights: domain.Weights{
			Entropy:     w.Entropy,
			Uncertainty: w.Uncertainty,
			Gradient:    w.Gradient,
		},
		Uncertainty:  string(cfg.Policy.Uncertainty),
		GradientStep: cfg.Policy.GradientStep,
		DefaultK:     cfg.Policy.DefaultK,
		Sampling: domain.Sampling{
			Samples:       cfg.Risk.Samples,
			Seed:          cfg.Risk.Seed,
			LowerQuantile: cfg.Risk.LowerQuantile,
			UpperQuantile: cfg.Risk.UpperQuantile,
		},
		BudgetMS: cfg.Budget.Milliseconds(),
	}
}
