// Package domain defines the batch scoring job types
package domain

import (
	"context"
	"io"

	"auracast/internal/core/engine"
)

// DayFile is one input document
type DayFile struct {
	RequestID string      `json:"request_id"`
	Features  [][]float64 `json:"features"`
}

// Risk is the daily estimate on an output line
type Risk struct {
	Mean  float64 `json:"mean"`
	Lower float64 `json:"lower"`
	Upper float64 `json:"upper"`
}

// TopK is the schedule on an output line
type TopK struct {
	K     int   `json:"k"`
	Hours []int `json:"hours"`
}

// LineError carries the coded failure of one file
type LineError struct {
	Code    int    `json:"code"`
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// Line is one JSON output line per input file
type Line struct {
	File         string     `json:"file"`
	RequestID    string     `json:"request_id,omitempty"`
	ModelVersion string     `json:"model_version,omitempty"`
	Digest       string     `json:"digest,omitempty"`
	Risk         *Risk      `json:"risk,omitempty"`
	TopK         *TopK      `json:"topk,omitempty"`
	Error        *LineError `json:"error,omitempty"`
}

// Summary counts what a run did
type Summary struct {
	Files  int
	OK     int
	Failed int
}

// EnginePort is the slice of the engine a scoring run calls
type EnginePort interface {
	Risk(ctx context.Context, req engine.Request) (engine.RiskResult, error)
	TopK(ctx context.Context, req engine.Request, k *int) (engine.TopKResult, error)
}

// RunnerPort is the external port for the scoring job
type RunnerPort interface {
	Run(ctx context.Context, paths []string, w io.Writer) (Summary, error)
}
