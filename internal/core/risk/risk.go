// Package risk reduces 24 hourly latent posteriors to one daily migraine probability.
//
// The reduction, used by every caller:
//
//	ε[s][h][d] ~ N(0,1), drawn once per Aggregator from a seeded source
//	r_s  = mean_h sigmoid(b + Σ_d w_d·(μ_hd + σ_hd·ε[s][h][d]))
//	mean = mean_s r_s
//	[lower, upper] = empirical quantiles of {r_s}, widened to contain mean
//
// Because the noise bank is fixed, the estimate is a deterministic function of the posteriors
package risk

import (
	"context"
	"math"
	"math/rand/v2"
	"slices"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"

	"auracast/internal/core/estimator"
	"auracast/internal/core/model"
	perr "auracast/internal/platform/errors"
)

// Sampling defaults
const (
	DefaultSamples       = 512
	DefaultSeed          = 0x5eed
	DefaultLowerQuantile = 0.05
	DefaultUpperQuantile = 0.95
	DefaultCheckEvery    = 64

	// MaxSamples caps the noise bank at 24·Z·MaxSamples floats
	MaxSamples = 1 << 16
)

// Config controls the Monte Carlo budget and interval
type Config struct {
	Samples       int     `json:"samples"`
	Seed          uint64  `json:"seed"`
	LowerQuantile float64 `json:"lower_quantile"`
	UpperQuantile float64 `json:"upper_quantile"`
	CheckEvery    int     `json:"-"`
}

// DefaultConfig returns the documented defaults
func DefaultConfig() Config {
	return Config{
		Samples:       DefaultSamples,
		Seed:          DefaultSeed,
		LowerQuantile: DefaultLowerQuantile,
		UpperQuantile: DefaultUpperQuantile,
		CheckEvery:    DefaultCheckEvery,
	}
}

// Validate reports the first out-of-range setting
func (c Config) Validate() error {
	if c.Samples < 1 || c.Samples > MaxSamples {
		return perr.WithField(perr.InvalidParamf("samples must be in [1,%d], got %d", MaxSamples, c.Samples), "samples")
	}
	if !(c.LowerQuantile > 0 && c.LowerQuantile < 1) {
		return perr.WithField(perr.InvalidParamf("lower quantile must be in (0,1), got %v", c.LowerQuantile), "lower_quantile")
	}
	if !(c.UpperQuantile > 0 && c.UpperQuantile < 1) {
		return perr.WithField(perr.InvalidParamf("upper quantile must be in (0,1), got %v", c.UpperQuantile), "upper_quantile")
	}
	if c.LowerQuantile >= c.UpperQuantile {
		return perr.WithField(perr.InvalidParamf("lower quantile %v must be below upper %v", c.LowerQuantile, c.UpperQuantile), "lower_quantile")
	}
	if c.CheckEvery < 0 {
		return perr.WithField(perr.InvalidParamf("check interval must be non-negative, got %d", c.CheckEvery), "check_every")
	}
	return nil
}

// Estimate is a daily risk with its credible interval
type Estimate struct {
	Mean    float64 `json:"mean"`
	Lower   float64 `json:"lower"`
	Upper   float64 `json:"upper"`
	Samples int     `json:"samples"`
}

// Aggregator is immutable after New and safe for concurrent use
type Aggregator struct {
	cfg  Config
	z    int
	bias float64
	w    []float64
	// eps is laid out [sample][hour][latent]
	eps []float64
}

// New binds the risk head of m and draws the noise bank
func New(m *model.Model, cfg Config) (*Aggregator, error) {
	if cfg.CheckEvery == 0 {
		cfg.CheckEvery = DefaultCheckEvery
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	z := m.Z()
	return &Aggregator{
		cfg:  cfg,
		z:    z,
		bias: m.RiskBias(),
		w:    m.RiskWeights(),
		eps:  noiseBank(cfg.Seed, cfg.Samples*model.Hours*z),
	}, nil
}

// Config returns the sampling configuration
func (a *Aggregator) Config() Config { return a.cfg }

// noiseBank draws n standard normals by inverse CDF over a PCG stream
func noiseBank(seed uint64, n int) []float64 {
	src := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	out := make([]float64, n)
	for i := range out {
		// open interval (0,1) keeps the quantile finite
		u := (float64(src.Uint64()>>11) + 0.5) / (1 << 53)
		out[i] = distuv.UnitNormal.Quantile(u)
	}
	return out
}

// Estimate runs the reduction over posts
func (a *Aggregator) Estimate(ctx context.Context, posts []estimator.Posterior) (Estimate, error) {
	degenerate, err := a.check(posts)
	if err != nil {
		return Estimate{}, err
	}
	if err := ctx.Err(); err != nil {
		return Estimate{}, perr.FromContext(err, "risk")
	}

	if degenerate {
		// zero dispersion: every sample is the same number
		r := a.daily(posts, nil)
		if !finite(r) {
			return Estimate{}, perr.Inferencef("non-finite risk for degenerate posteriors")
		}
		return Estimate{Mean: r, Lower: r, Upper: r, Samples: a.cfg.Samples}, nil
	}

	n := a.cfg.Samples
	stride := model.Hours * a.z
	samples := make([]float64, n)
	var mean float64
	for s := 0; s < n; s++ {
		if s%a.cfg.CheckEvery == 0 {
			if err := ctx.Err(); err != nil {
				return Estimate{}, perr.FromContext(err, "risk")
			}
		}
		r := a.daily(posts, a.eps[s*stride:(s+1)*stride])
		samples[s] = r
		mean += (r - mean) / float64(s+1)
	}
	if !finite(mean) {
		return Estimate{}, perr.Inferencef("non-finite risk mean over %d samples", n)
	}

	slices.Sort(samples)
	lower := stat.Quantile(a.cfg.LowerQuantile, stat.Empirical, samples, nil)
	upper := stat.Quantile(a.cfg.UpperQuantile, stat.Empirical, samples, nil)

	mean = clip01(mean)
	lower = clip01(math.Min(lower, mean))
	upper = clip01(math.Max(upper, mean))
	return Estimate{Mean: mean, Lower: lower, Upper: upper, Samples: n}, nil
}

// daily averages the per-hour risk for one noise draw; nil eps means the posterior means
func (a *Aggregator) daily(posts []estimator.Posterior, eps []float64) float64 {
	var sum float64
	for h := range posts {
		var e []float64
		if eps != nil {
			e = eps[h*a.z : (h+1)*a.z]
		}
		sum += a.hourly(posts[h].Mean, posts[h].Std, e)
	}
	return sum / float64(len(posts))
}

func (a *Aggregator) hourly(mu, sigma, eps []float64) float64 {
	logit := a.bias
	for d, w := range a.w {
		x := mu[d]
		if eps != nil {
			x += sigma[d] * eps[d]
		}
		logit += w * x
	}
	return sigmoid(logit)
}

// check validates posterior shape and reports whether every std is exactly zero
func (a *Aggregator) check(posts []estimator.Posterior) (bool, error) {
	if len(posts) != model.Hours {
		return false, perr.ShapeMismatchf("expected %d posteriors, got %d", model.Hours, len(posts))
	}
	degenerate := true
	for h, p := range posts {
		if len(p.Mean) != a.z || len(p.Std) != a.z {
			return false, perr.ShapeMismatchf("hour %d: expected %d latent dims, got mean=%d std=%d", h, a.z, len(p.Mean), len(p.Std))
		}
		for d := range p.Std {
			if !finite(p.Mean[d]) || !finite(p.Std[d]) || p.Std[d] < 0 {
				return false, perr.Inferencef("hour %d latent %d: invalid posterior (mean=%v std=%v)", h, d, p.Mean[d], p.Std[d])
			}
			if p.Std[d] != 0 {
				degenerate = false
			}
		}
	}
	return degenerate, nil
}

// Oracle answers "how would the daily mean move" questions against a fixed set of posteriors.
// It shares the Aggregator's noise bank, so perturbed and unperturbed evaluations see the
// same draws and finite differences are not swamped by sampling noise
type Oracle struct {
	a       *Aggregator
	posts   []estimator.Posterior
	contrib []float64
	samples int
}

// Oracle precomputes each hour's mean contribution to the daily risk
func (a *Aggregator) Oracle(ctx context.Context, posts []estimator.Posterior) (*Oracle, error) {
	degenerate, err := a.check(posts)
	if err != nil {
		return nil, err
	}
	o := &Oracle{a: a, posts: posts, contrib: make([]float64, model.Hours), samples: a.cfg.Samples}
	if degenerate {
		o.samples = 1
	}
	for h := range posts {
		if err := ctx.Err(); err != nil {
			return nil, perr.FromContext(err, "oracle")
		}
		o.contrib[h] = o.hourMean(h, posts[h].Mean)
	}
	return o, nil
}

// Mean is the daily mean risk under the common draws
func (o *Oracle) Mean() float64 { return floats.Sum(o.contrib) / float64(len(o.contrib)) }

// Gradient is the central-difference gradient of the daily mean with respect to hour's latent means
func (o *Oracle) Gradient(ctx context.Context, hour int, step float64) ([]float64, error) {
	if hour < 0 || hour >= model.Hours {
		return nil, perr.InvalidParamf("hour must be in [0,%d], got %d", model.Hours-1, hour)
	}
	if !(step > 0) || math.IsInf(step, 0) {
		return nil, perr.InvalidParamf("gradient step must be positive and finite, got %v", step)
	}
	if err := ctx.Err(); err != nil {
		return nil, perr.FromContext(err, "sensitivity")
	}
	mu := append([]float64(nil), o.posts[hour].Mean...)
	grad := make([]float64, len(mu))
	for d := range mu {
		orig := mu[d]
		mu[d] = orig + step
		up := o.hourMean(hour, mu)
		mu[d] = orig - step
		down := o.hourMean(hour, mu)
		mu[d] = orig
		// only hour's term of the 24-hour average moves
		grad[d] = (up - down) / (2 * step * model.Hours)
		if !finite(grad[d]) {
			return nil, perr.Inferencef("non-finite sensitivity at hour %d latent %d", hour, d)
		}
	}
	return grad, nil
}

// Sensitivity is the L2 norm of Gradient
func (o *Oracle) Sensitivity(ctx context.Context, hour int, step float64) (float64, error) {
	g, err := o.Gradient(ctx, hour, step)
	if err != nil {
		return 0, err
	}
	return floats.Norm(g, 2), nil
}

// hourMean averages sigmoid over the bank for a single hour with the given means
func (o *Oracle) hourMean(hour int, mu []float64) float64 {
	a := o.a
	sigma := o.posts[hour].Std
	if o.samples == 1 {
		return a.hourly(mu, sigma, nil)
	}
	stride := model.Hours * a.z
	var sum float64
	for s := 0; s < o.samples; s++ {
		off := s*stride + hour*a.z
		sum += a.hourly(mu, sigma, a.eps[off:off+a.z])
	}
	return sum / float64(o.samples)
}

func sigmoid(x float64) float64 {
	if x >= 0 {
		return 1 / (1 + math.Exp(-x))
	}
	ex := math.Exp(x)
	return ex / (1 + ex)
}

func clip01(x float64) float64 { return math.Max(0, math.Min(1, x)) }

func finite(x float64) bool { return !math.IsNaN(x) && !math.IsInf(x, 0) }
