package module

import (
	"auracast/internal/core/engine"
	"auracast/internal/core/policy"
	"auracast/internal/platform/config"
)

// Options holds the engine settings read from CORE_ENGINE_*
type Options struct {
	// ModelPath is empty for the embedded weights
	ModelPath string
	Engine    engine.Config
	// MaxInFlight caps concurrent requests across all inference routes (CORE_API_MAX_INFLIGHT); 0 is unbounded
	MaxInFlight int
}

// FromConfig reads the engine settings, falling back to the documented defaults
func FromConfig(cfg config.Conf) Options {
	ec := cfg.Prefix("CORE_ENGINE_")
	def := engine.DefaultConfig()

	out := Options{ModelPath: ec.MayString("MODEL_PATH", ""), Engine: def}
	out.Engine.Budget = ec.MayDuration("BUDGET", def.Budget)

	out.Engine.Risk.Samples = ec.MayInt("SAMPLES", def.Risk.Samples)
	out.Engine.Risk.Seed = ec.MayUint64("SEED", def.Risk.Seed)
	out.Engine.Risk.LowerQuantile = ec.MayFloat64("LOWER_Q", def.Risk.LowerQuantile)
	out.Engine.Risk.UpperQuantile = ec.MayFloat64("UPPER_Q", def.Risk.UpperQuantile)

	w := def.Policy.Weights
	out.Engine.Policy.Weights = policy.Weights{
		Entropy:     ec.MayFloat64("LAMBDA_ENTROPY", w.Entropy),
		Uncertainty: ec.MayFloat64("LAMBDA_UNCERTAINTY", w.Uncertainty),
		Gradient:    ec.MayFloat64("LAMBDA_GRADIENT", w.Gradient),
	}
	mode := ec.MayEnum("UNCERTAINTY_MODE", string(def.Policy.Uncertainty),
		string(policy.UncertaintyMean), string(policy.UncertaintyMax))
	out.Engine.Policy.Uncertainty = policy.UncertaintyMode(mode)
	out.Engine.Policy.GradientStep = ec.MayFloat64("GRADIENT_STEP", def.Policy.GradientStep)
	out.Engine.Policy.DefaultK = ec.MayInt("DEFAULT_K", def.Policy.DefaultK)

	out.MaxInFlight = cfg.Prefix("CORE_API_").MayInt("MAX_INFLIGHT", 64)
	return out
}
