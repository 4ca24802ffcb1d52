package domain

import (
	"context"

	"auracast/internal/core/engine"
)

// ServicePort is consumed by handlers and other modules
type ServicePort interface {
	Risk(ctx context.Context, in RiskInput) (RiskOutput, error)
	Posteriors(ctx context.Context, in PosteriorsInput) (PosteriorsOutput, error)
	TopK(ctx context.Context, in TopKInput) (TopKOutput, error)
}

// EnginePort is the slice of the engine the service calls
type EnginePort interface {
	Posteriors(ctx context.Context, req engine.Request) (engine.PosteriorsResult, error)
	Risk(ctx context.Context, req engine.Request) (engine.RiskResult, error)
	TopK(ctx context.Context, req engine.Request, k *int) (engine.TopKResult, error)
}
