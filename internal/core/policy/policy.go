// Package policy ranks the hours of a day by how much a new measurement there would tell us.
//
//	score(h) = λ_entropy·entropy(h) + λ_uncertainty·uncertainty(h) + λ_gradient·sensitivity(h)
//
// entropy is the summed Gaussian differential entropy of the hour's posterior, uncertainty is
// the mean (or max) posterior std, and sensitivity is the L2 norm of the daily risk mean's
// gradient with respect to the hour's latent means
package policy

import (
	"context"
	"math"
	"sort"

	"github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/floats"

	"auracast/internal/core/estimator"
	"auracast/internal/core/model"
	perr "auracast/internal/platform/errors"
)

// Default weights and knobs
const (
	DefaultEntropyWeight     = 1.0
	DefaultUncertaintyWeight = 1.0
	// sensitivities are O(1e-2) for the shipped risk head, so λ_gradient is larger to keep
	// the three terms on comparable scales
	DefaultGradientWeight = 20.0
	DefaultGradientStep   = 1e-3
	DefaultK              = 3

	// MaxGradientStep keeps finite differences local to the posterior mean
	MaxGradientStep = 0.5
)

// UncertaintyMode picks the dispersion summary
type UncertaintyMode string

// Supported summaries
const (
	UncertaintyMean UncertaintyMode = "mean"
	UncertaintyMax  UncertaintyMode = "max"
)

// Weights are the λ coefficients; each must be finite and non-negative, and not all zero
type Weights struct {
	Entropy     float64 `json:"entropy"`
	Uncertainty float64 `json:"uncertainty"`
	Gradient    float64 `json:"gradient"`
}

// Config is the policy configuration
type Config struct {
	Weights      Weights         `json:"weights"`
	Uncertainty  UncertaintyMode `json:"uncertainty"`
	GradientStep float64         `json:"gradient_step"`
	DefaultK     int             `json:"default_k"`
}

// DefaultConfig returns the documented defaults
func DefaultConfig() Config {
	return Config{
		Weights: Weights{
			Entropy:     DefaultEntropyWeight,
			Uncertainty: DefaultUncertaintyWeight,
			Gradient:    DefaultGradientWeight,
		},
		Uncertainty:  UncertaintyMean,
		GradientStep: DefaultGradientStep,
		DefaultK:     DefaultK,
	}
}

// Validate reports the first out-of-range setting
func (c Config) Validate() error {
	w := map[string]float64{
		"lambda_entropy":     c.Weights.Entropy,
		"lambda_uncertainty": c.Weights.Uncertainty,
		"lambda_gradient":    c.Weights.Gradient,
	}
	for _, name := range []string{"lambda_entropy", "lambda_uncertainty", "lambda_gradient"} {
		v := w[name]
		if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
			return perr.WithField(perr.InvalidParamf("%s must be finite and >= 0, got %v", name, v), name)
		}
	}
	if c.Weights.Entropy == 0 && c.Weights.Uncertainty == 0 && c.Weights.Gradient == 0 {
		return perr.WithField(perr.InvalidParamf("at least one policy weight must be positive"), "lambda_entropy")
	}
	switch c.Uncertainty {
	case UncertaintyMean, UncertaintyMax:
	default:
		return perr.WithField(perr.InvalidParamf("uncertainty mode must be %q or %q, got %q", UncertaintyMean, UncertaintyMax, c.Uncertainty), "uncertainty")
	}
	if !(c.GradientStep > 0 && c.GradientStep <= MaxGradientStep) {
		return perr.WithField(perr.InvalidParamf("gradient step must be in (0,%v], got %v", MaxGradientStep, c.GradientStep), "gradient_step")
	}
	if err := ValidateK(c.DefaultK); err != nil {
		return perr.WithField(err, "default_k")
	}
	return nil
}

// ValidateK enforces 1 <= k <= 24
func ValidateK(k int) error {
	if k < 1 || k > model.Hours {
		return perr.WithField(perr.InvalidParamf("k must be in [1,%d], got %d", model.Hours, k), "k")
	}
	return nil
}

// HourScore is one hour's priority with its components
type HourScore struct {
	Hour        int     `json:"hour"`
	Score       float64 `json:"score"`
	Entropy     float64 `json:"entropy"`
	Uncertainty float64 `json:"uncertainty"`
	Sensitivity float64 `json:"sensitivity"`
}

// Oracle is the risk aggregator viewed as a scoring function
type Oracle interface {
	Sensitivity(ctx context.Context, hour int, step float64) (float64, error)
}

// Policy is immutable after New
type Policy struct {
	cfg    Config
	minStd float64
	lambda []float64
}

// New validates cfg; minStd floors the std inside the entropy log
func New(cfg Config, minStd float64) (*Policy, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if !(minStd > 0) || math.IsInf(minStd, 0) {
		return nil, perr.WithField(perr.InvalidParamf("min std must be positive and finite, got %v", minStd), "min_std")
	}
	return &Policy{
		cfg:    cfg,
		minStd: minStd,
		lambda: []float64{cfg.Weights.Entropy, cfg.Weights.Uncertainty, cfg.Weights.Gradient},
	}, nil
}

// Config returns the policy configuration
func (p *Policy) Config() Config { return p.cfg }

// Score returns one HourScore per posterior, in hour order
// the slice index is the hour, Posterior.Hour is not consulted
func (p *Policy) Score(ctx context.Context, posts []estimator.Posterior, oracle Oracle) ([]HourScore, error) {
	if len(posts) != model.Hours {
		return nil, perr.ShapeMismatchf("expected %d posteriors, got %d", model.Hours, len(posts))
	}
	out := make([]HourScore, len(posts))
	for h, post := range posts {
		if err := ctx.Err(); err != nil {
			return nil, perr.FromContext(err, "score")
		}
		ent := Entropy(post.Std, p.minStd)
		unc, err := Uncertainty(post.Std, p.cfg.Uncertainty)
		if err != nil {
			return nil, err
		}
		var sens float64
		if p.cfg.Weights.Gradient > 0 {
			if sens, err = oracle.Sensitivity(ctx, h, p.cfg.GradientStep); err != nil {
				return nil, err
			}
		}
		score := floats.Dot(p.lambda, []float64{ent, unc, sens})
		if math.IsNaN(score) || math.IsInf(score, 0) {
			return nil, perr.Inferencef("non-finite priority at hour %d (entropy=%v uncertainty=%v sensitivity=%v)", h, ent, unc, sens)
		}
		out[h] = HourScore{Hour: h, Score: score, Entropy: ent, Uncertainty: unc, Sensitivity: sens}
	}
	return out, nil
}

// TopK returns the k best hours, score descending, earlier hour first on ties
func TopK(scores []HourScore, k int) ([]HourScore, error) {
	if err := ValidateK(k); err != nil {
		return nil, err
	}
	if k > len(scores) {
		return nil, perr.WithField(perr.InvalidParamf("k=%d exceeds the %d scored hours", k, len(scores)), "k")
	}
	seen := make(map[int]struct{}, len(scores))
	for _, s := range scores {
		if _, dup := seen[s.Hour]; dup {
			return nil, perr.Inferencef("hour %d scored twice", s.Hour)
		}
		seen[s.Hour] = struct{}{}
	}

	ranked := append([]HourScore(nil), scores...)
	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].Score != ranked[j].Score {
			return ranked[i].Score > ranked[j].Score
		}
		return ranked[i].Hour < ranked[j].Hour
	})
	return ranked[:k], nil
}

// Entropy sums 0.5·log(2πe·σ²) over latent dims, with σ floored at minStd
func Entropy(std []float64, minStd float64) float64 {
	var h float64
	for _, s := range std {
		s = math.Max(s, minStd)
		h += 0.5 * math.Log(2*math.Pi*math.E*s*s)
	}
	return h
}

// Uncertainty summarizes dispersion as the mean or max std
func Uncertainty(std []float64, mode UncertaintyMode) (float64, error) {
	var (
		v   float64
		err error
	)
	switch mode {
	case UncertaintyMax:
		v, err = stats.Max(std)
	default:
		v, err = stats.Mean(std)
	}
	if err != nil {
		return 0, perr.Wrap(err, perr.ErrorCodeInference, "summarize dispersion")
	}
	return v, nil
}
