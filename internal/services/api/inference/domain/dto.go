// Package domain holds DTOs for the inference http and service contracts
package domain

import "time"

// DayInput is one user-day of normalized features, hour-major
type DayInput struct {
	RequestID string      `json:"request_id,omitempty" validate:"omitempty,request_id" example:"day-2026-10-19-u42"`
	Features  [][]float64 `json:"features" validate:"required" swaggertype:"array,number"`
	// TimeoutMS tightens the engine budget for this request only
	TimeoutMS int `json:"timeout_ms,omitempty" validate:"omitempty,min=1,max=60000" example:"500"`
}

// RiskInput asks for the daily risk
type RiskInput struct {
	DayInput
}

// PosteriorsInput asks for the hourly latent posteriors
type PosteriorsInput struct {
	DayInput
}

// TopKInput asks for the k hours worth measuring; nil K uses the server default
type TopKInput struct {
	DayInput
	K *int `json:"k,omitempty" example:"3"`
}

// Meta is shared by every response
type Meta struct {
	RequestID    string    `json:"request_id" example:"day-2026-10-19-u42"`
	ModelVersion string    `json:"model_version" example:"auracast-gru-1.0.0"`
	Digest       string    `json:"digest" example:"9f2c0d…"`
	ProducedAt   time.Time `json:"produced_at" example:"2026-10-19T07:00:00Z"`
}

// Risk is the daily probability with its credible interval
type Risk struct {
	Mean  float64 `json:"mean" example:"0.17"`
	Lower float64 `json:"lower" example:"0.15"`
	Upper float64 `json:"upper" example:"0.19"`
}

// RiskOutput is the risk response
type RiskOutput struct {
	Meta
	Risk    Risk `json:"risk"`
	Samples int  `json:"samples" example:"512"`
}

// HourPosterior is one hour of the latent state, keyed by latent name
type HourPosterior struct {
	Hour int                `json:"hour" example:"0"`
	Mean map[string]float64 `json:"mean"`
	Std  map[string]float64 `json:"std"`
}

// PosteriorsOutput is the posteriors response
type PosteriorsOutput struct {
	Meta
	Latents []string        `json:"latents" example:"stress,sleep_debt,hormonal,environmental"`
	Hours   []HourPosterior `json:"hours"`
}

// HourPriority is one scheduled hour with its score components
type HourPriority struct {
	Hour        int     `json:"hour" example:"14"`
	Score       float64 `json:"score" example:"3.2"`
	Entropy     float64 `json:"entropy" example:"1.9"`
	Uncertainty float64 `json:"uncertainty" example:"0.4"`
	Sensitivity float64 `json:"sensitivity" example:"0.01"`
}

// TopKOutput is the measurement schedule response
type TopKOutput struct {
	Meta
	K     int            `json:"k" example:"3"`
	Hours []HourPriority `json:"hours"`
}
