// Package engine wires the estimator, aggregator and policy behind a load-once model.
//
// The model and everything derived from it live in one immutable bundle published through an
// atomic pointer. Requests grab the current bundle once and never see a partial swap; until a
// bundle is installed every operation fails with NotReady
package engine

import (
	"context"
	"sync/atomic"
	"time"

	"auracast/internal/core/estimator"
	"auracast/internal/core/features"
	"auracast/internal/core/model"
	"auracast/internal/core/policy"
	"auracast/internal/core/risk"
	perr "auracast/internal/platform/errors"
	"auracast/internal/platform/logger"
)

// Operation names used in logs and metrics
const (
	OpPosteriors = "posteriors"
	OpRisk       = "risk"
	OpTopK       = "topk"
)

// DefaultBudget caps a request when the caller sets no earlier deadline
const DefaultBudget = 2 * time.Second

// Config holds every tunable the engine needs
type Config struct {
	Risk   risk.Config   `json:"risk"`
	Policy policy.Config `json:"policy"`
	Budget time.Duration `json:"budget"`
}

// DefaultConfig returns the documented defaults
func DefaultConfig() Config {
	return Config{Risk: risk.DefaultConfig(), Policy: policy.DefaultConfig(), Budget: DefaultBudget}
}

// Validate checks every section
func (c Config) Validate() error {
	if err := c.Risk.Validate(); err != nil {
		return err
	}
	if err := c.Policy.Validate(); err != nil {
		return err
	}
	if c.Budget <= 0 {
		return perr.WithField(perr.InvalidParamf("budget must be positive, got %s", c.Budget), "budget")
	}
	return nil
}

// Observer receives one call per finished operation; code is meaningful only when ok is false
type Observer interface {
	Observe(op string, ok bool, code perr.ErrorCode, elapsed time.Duration)
}

// Request is one user-day
type Request struct {
	ID       string
	Features [][]float64
}

// Meta is attached to every result
type Meta struct {
	RequestID    string    `json:"request_id"`
	ModelVersion string    `json:"model_version"`
	Digest       string    `json:"digest"`
	ProducedAt   time.Time `json:"produced_at"`
}

// PosteriorsResult is the per-hour latent breakdown
type PosteriorsResult struct {
	Meta
	Latents []string              `json:"latents"`
	Hours   []estimator.Posterior `json:"hours"`
}

// RiskResult is the daily estimate
type RiskResult struct {
	Meta
	Risk risk.Estimate `json:"risk"`
}

// TopKResult is the measurement schedule
type TopKResult struct {
	Meta
	K     int                `json:"k"`
	Hours []policy.HourScore `json:"hours"`
}

type bundle struct {
	model  *model.Model
	est    *estimator.Estimator
	agg    *risk.Aggregator
	policy *policy.Policy
}

// Engine is safe for concurrent use
type Engine struct {
	cfg Config
	cur atomic.Pointer[bundle]
	obs Observer
	now func() time.Time
}

// Option customizes an Engine
type Option func(*Engine)

// WithObserver reports every operation to o
func WithObserver(o Observer) Option { return func(e *Engine) { e.obs = o } }

// WithClock replaces time.Now
func WithClock(now func() time.Time) Option { return func(e *Engine) { e.now = now } }

// New validates cfg; the engine is not ready until Install or Load succeeds
func New(cfg Config, opts ...Option) (*Engine, error) {
	if cfg.Risk.CheckEvery == 0 {
		cfg.Risk.CheckEvery = risk.DefaultCheckEvery
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	e := &Engine{cfg: cfg, now: time.Now}
	for _, o := range opts {
		o(e)
	}
	return e, nil
}

// Config returns the engine configuration
func (e *Engine) Config() Config { return e.cfg }

// Install derives a bundle from m and publishes it
func (e *Engine) Install(m *model.Model) error {
	if m == nil {
		return perr.InvalidParamf("nil model")
	}
	agg, err := risk.New(m, e.cfg.Risk)
	if err != nil {
		return err
	}
	pol, err := policy.New(e.cfg.Policy, m.MinStd())
	if err != nil {
		return err
	}
	e.cur.Store(&bundle{model: m, est: estimator.New(m), agg: agg, policy: pol})
	logger.Named("engine").Info().
		Str("model", m.String()).
		Str("fingerprint", m.Fingerprint()).
		Int("samples", e.cfg.Risk.Samples).
		Msg("model installed")
	return nil
}

// Load reads weights from path (empty means embedded) and installs them
func (e *Engine) Load(path string) error {
	m, err := model.LoadFile(path)
	if err != nil {
		return err
	}
	return e.Install(m)
}

// Ready reports whether a model is installed
func (e *Engine) Ready() bool { return e.cur.Load() != nil }

// Model returns the installed model
func (e *Engine) Model() (*model.Model, bool) {
	b := e.cur.Load()
	if b == nil {
		return nil, false
	}
	return b.model, true
}

// Posteriors returns the 24 hourly latent posteriors
func (e *Engine) Posteriors(ctx context.Context, req Request) (PosteriorsResult, error) {
	var res PosteriorsResult
	err := e.run(ctx, OpPosteriors, req, nil, func(ctx context.Context, b *bundle, meta func() Meta) error {
		posts, err := b.est.Estimate(ctx, req.Features)
		if err != nil {
			return err
		}
		res = PosteriorsResult{Meta: meta(), Latents: b.model.Latents(), Hours: posts}
		return nil
	})
	return res, err
}

// Risk returns the daily risk estimate with its interval
func (e *Engine) Risk(ctx context.Context, req Request) (RiskResult, error) {
	var res RiskResult
	err := e.run(ctx, OpRisk, req, nil, func(ctx context.Context, b *bundle, meta func() Meta) error {
		posts, err := b.est.Estimate(ctx, req.Features)
		if err != nil {
			return err
		}
		est, err := b.agg.Estimate(ctx, posts)
		if err != nil {
			return err
		}
		res = RiskResult{Meta: meta(), Risk: est}
		return nil
	})
	return res, err
}

// TopK returns the k best hours to measure; nil k uses the configured default
func (e *Engine) TopK(ctx context.Context, req Request, k *int) (TopKResult, error) {
	kk := e.cfg.Policy.DefaultK
	if k != nil {
		kk = *k
	}
	var res TopKResult
	err := e.run(ctx, OpTopK, req, &kk, func(ctx context.Context, b *bundle, meta func() Meta) error {
		posts, err := b.est.Estimate(ctx, req.Features)
		if err != nil {
			return err
		}
		oracle, err := b.agg.Oracle(ctx, posts)
		if err != nil {
			return err
		}
		scores, err := b.policy.Score(ctx, posts, oracle)
		if err != nil {
			return err
		}
		top, err := policy.TopK(scores, kk)
		if err != nil {
			return err
		}
		res = TopKResult{Meta: meta(), K: kk, Hours: top}
		return nil
	})
	return res, err
}

// run validates, applies the budget, then computes; fn's result is only kept when err is nil
func (e *Engine) run(ctx context.Context, op string, req Request, k *int, fn func(context.Context, *bundle, func() Meta) error) (err error) {
	start := e.now()
	ctx = logger.WithRequest(ctx, req.ID, op)
	defer func() {
		if e.obs != nil {
			e.obs.Observe(op, err == nil, perr.CodeOf(err), e.now().Sub(start))
		}
	}()

	b := e.cur.Load()
	if b == nil {
		return perr.WithOp(perr.NotReadyf("model not loaded"), op)
	}
	if k != nil {
		if err := policy.ValidateK(*k); err != nil {
			return perr.WithOp(err, op)
		}
	}
	if err := features.ValidateFor(req.Features, b.model); err != nil {
		return perr.WithOp(err, op)
	}
	digest := features.Digest(req.Features)

	ctx, cancel := context.WithTimeout(ctx, e.cfg.Budget)
	defer cancel()

	meta := func() Meta {
		return Meta{RequestID: req.ID, ModelVersion: b.model.Version(), Digest: digest, ProducedAt: e.now().UTC()}
	}
	if err := fn(ctx, b, meta); err != nil {
		if perr.IsCode(err, perr.ErrorCodeInference) {
			logger.C(ctx).Error().Err(err).
				Str("op", op).
				Str("digest", digest).
				Str("model", b.model.Fingerprint()).
				Msg("inference failure")
		}
		return perr.WithOp(err, op)
	}
	return nil
}
