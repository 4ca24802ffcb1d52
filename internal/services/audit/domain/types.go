// Package domain defines the inference audit trail
package domain

import "time"

// CodeOK marks a request that produced a result
const CodeOK = "ok"

// Record is one served (or rejected) inference request
type Record struct {
	RequestID    string        `json:"request_id"`
	Op           string        `json:"op"`
	Digest       string        `json:"digest,omitempty"`
	ModelVersion string        `json:"model_version,omitempty"`
	Code         string        `json:"code"`
	K            int           `json:"k,omitempty"`
	TopHours     []int         `json:"top_hours,omitempty"`
	Mean         *float64      `json:"mean,omitempty"`
	Lower        *float64      `json:"lower,omitempty"`
	Upper        *float64      `json:"upper,omitempty"`
	Latency      time.Duration `json:"latency_ns"`
	CreatedAt    time.Time     `json:"created_at"`
}

// HasRisk reports whether the record carries a risk interval
func (r Record) HasRisk() bool { return r.Mean != nil && r.Lower != nil && r.Upper != nil }
