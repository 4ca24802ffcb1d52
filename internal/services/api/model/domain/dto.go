// Package domain holds DTOs for the model info and admin endpoints
package domain

import (
	"context"
	"time"

	"auracast/internal/core/engine"
	"auracast/internal/core/model"
)

// Weights are the λ coefficients of the measurement score
type Weights struct {
	Entropy     float64 `json:"entropy" example:"1"`
	Uncertainty float64 `json:"uncertainty" example:"1"`
	Gradient    float64 `json:"gradient" example:"1"`
}

// Sampling describes the Monte Carlo risk aggregation
type Sampling struct {
	Samples       int     `json:"samples" example:"512"`
	Seed          uint64  `json:"seed" example:"1"`
	LowerQuantile float64 `json:"lower_quantile" example:"0.05"`
	UpperQuantile float64 `json:"upper_quantile" example:"0.95"`
}

// Info describes the installed model and the engine settings that act on it
type Info struct {
	Version     string   `json:"version" example:"auracast-gru-1.0.0"`
	Fingerprint string   `json:"fingerprint" example:"5b1d…"`
	F           int      `json:"f" example:"12"`
	Z           int      `json:"z" example:"4"`
	Features    []string `json:"features"`
	Latents     []string `json:"latents"`

	Weights      Weights  `json:"weights"`
	Uncertainty  string   `json:"uncertainty_mode" example:"mean"`
	GradientStep float64  `json:"gradient_step" example:"0.001"`
	DefaultK     int      `json:"default_k" example:"3"`
	Sampling     Sampling `json:"sampling"`
	BudgetMS     int64    `json:"budget_ms" example:"2000"`
}

// ReloadOutput reports what a reload replaced
type ReloadOutput struct {
	Previous   string    `json:"previous,omitempty" example:"5b1d…"`
	Current    Info      `json:"current"`
	Changed    bool      `json:"changed" example:"true"`
	ReloadedAt time.Time `json:"reloaded_at" example:"2026-10-19T07:00:00Z"`
}

// EnginePort is the slice of the engine the model service needs
type EnginePort interface {
	Model() (*model.Model, bool)
	Config() engine.Config
	Load(path string) error
}

// ServicePort is consumed by handlers
type ServicePort interface {
	Info(ctx context.Context) (Info, error)
	Reload(ctx context.Context) (ReloadOutput, error)
}
