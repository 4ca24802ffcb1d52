// Package model holds the immutable parameters of the latent state encoder and risk head.
// A Model is validated once at construction and never mutated afterwards, so a single
// instance can be shared by every request without locking
package model

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math"

	perr "auracast/internal/platform/errors"
)

// Hours is the fixed sequence length of a day
const Hours = 24

// Defaults applied when a weights file leaves the field empty
const (
	DefaultInputBound = 6.0
	DefaultMinStd     = 1e-6
)

// Spec describes the shape of a model
type Spec struct {
	Version    string   `json:"version"`
	Features   []string `json:"features"`
	Latents    []string `json:"latents"`
	Hidden     int      `json:"hidden"`
	InputBound float64  `json:"input_bound"`
	MinStd     float64  `json:"min_std"`
}

// F is the per-hour input dimension
func (s Spec) F() int { return len(s.Features) }

// Z is the latent dimension
func (s Spec) Z() int { return len(s.Latents) }

// Gate is one recurrent gate: input (H×F), recurrent (H×H) and bias (H)
type Gate struct {
	Input     [][]float64 `json:"input"`
	Recurrent [][]float64 `json:"recurrent"`
	Bias      []float64   `json:"bias"`
}

// Encoder is a gated recurrent unit
type Encoder struct {
	Update    Gate `json:"update"`
	Reset     Gate `json:"reset"`
	Candidate Gate `json:"candidate"`
}

// Head is a dense projection from hidden state (Z×H) plus bias (Z)
type Head struct {
	Weights [][]float64 `json:"weights"`
	Bias    []float64   `json:"bias"`
}

// RiskHead maps a latent state to a migraine logit: bias + weights·z
type RiskHead struct {
	Bias    float64   `json:"bias"`
	Weights []float64 `json:"weights"`
}

// Params are the learned weights
type Params struct {
	Encoder  Encoder  `json:"encoder"`
	MeanHead Head     `json:"mean_head"`
	StdHead  Head     `json:"std_head"`
	Risk     RiskHead `json:"risk"`
}

// Model is a validated, immutable spec + params pair
type Model struct {
	spec        Spec
	params      Params
	fingerprint string
}

// New validates params against spec and returns a frozen Model
// The inputs are deep-copied so later edits by the caller cannot leak in
func New(spec Spec, params Params) (*Model, error) {
	spec = canonicalSpec(spec)
	if err := validateSpec(spec); err != nil {
		return nil, err
	}
	if err := validateParams(spec, params); err != nil {
		return nil, err
	}
	m := &Model{spec: copySpec(spec), params: copyParams(params)}
	fp, err := fingerprint(m.spec, m.params)
	if err != nil {
		return nil, perr.Wrap(err, perr.ErrorCodeInvalidParameter, "model fingerprint")
	}
	m.fingerprint = fp
	return m, nil
}

// Spec returns a copy of the model spec
func (m *Model) Spec() Spec { return copySpec(m.spec) }

// F is the per-hour input dimension
func (m *Model) F() int { return len(m.spec.Features) }

// Z is the latent dimension
func (m *Model) Z() int { return len(m.spec.Latents) }

// H is the hidden size
func (m *Model) H() int { return m.spec.Hidden }

// Version is the declared model version
func (m *Model) Version() string { return m.spec.Version }

// Latents returns the latent dimension names in output order
func (m *Model) Latents() []string { return append([]string(nil), m.spec.Latents...) }

// Features returns the feature names in input order
func (m *Model) Features() []string { return append([]string(nil), m.spec.Features...) }

// InputBound is the largest accepted |x| for a normalized feature
func (m *Model) InputBound() float64 { return m.spec.InputBound }

// MinStd is the floor used when a dispersion enters a log
func (m *Model) MinStd() float64 { return m.spec.MinStd }

// Fingerprint is a sha256 over the canonical JSON encoding
func (m *Model) Fingerprint() string { return m.fingerprint }

// Encoder exposes the encoder weights; callers must treat them as read-only
func (m *Model) Encoder() *Encoder { return &m.params.Encoder }

// MeanHead exposes the mean projection; read-only
func (m *Model) MeanHead() *Head { return &m.params.MeanHead }

// StdHead exposes the dispersion projection; read-only
func (m *Model) StdHead() *Head { return &m.params.StdHead }

// RiskBias is the risk head intercept
func (m *Model) RiskBias() float64 { return m.params.Risk.Bias }

// RiskWeights returns a copy of the risk head weights
func (m *Model) RiskWeights() []float64 { return append([]float64(nil), m.params.Risk.Weights...) }

func validateSpec(s Spec) error {
	if s.F() == 0 {
		return perr.WithField(perr.InvalidParamf("model declares no features"), "features")
	}
	if s.Z() == 0 {
		return perr.WithField(perr.InvalidParamf("model declares no latent dimensions"), "latents")
	}
	if s.Hidden <= 0 {
		return perr.WithField(perr.InvalidParamf("hidden size must be positive, got %d", s.Hidden), "hidden")
	}
	if err := uniqueNames("features", s.Features); err != nil {
		return err
	}
	if err := uniqueNames("latents", s.Latents); err != nil {
		return err
	}
	if !(s.InputBound > 0) || math.IsInf(s.InputBound, 0) {
		return perr.WithField(perr.InvalidParamf("input_bound must be finite and positive, got %v", s.InputBound), "input_bound")
	}
	if !(s.MinStd > 0) || math.IsInf(s.MinStd, 0) {
		return perr.WithField(perr.InvalidParamf("min_std must be finite and positive, got %v", s.MinStd), "min_std")
	}
	return nil
}

func uniqueNames(field string, names []string) error {
	seen := make(map[string]int, len(names))
	for i, n := range names {
		if n == "" {
			return perr.WithField(perr.InvalidParamf("%s[%d] is empty", field, i), field)
		}
		if j, dup := seen[n]; dup {
			return perr.WithField(perr.InvalidParamf("%s[%d] duplicates %s[%d] (%q)", field, i, field, j, n), field)
		}
		seen[n] = i
	}
	return nil
}

func validateParams(s Spec, p Params) error {
	f, z, h := s.F(), s.Z(), s.Hidden
	gates := []struct {
		name string
		g    Gate
	}{
		{"encoder.update", p.Encoder.Update},
		{"encoder.reset", p.Encoder.Reset},
		{"encoder.candidate", p.Encoder.Candidate},
	}
	for _, g := range gates {
		if err := checkMatrix(g.name+".input", g.g.Input, h, f); err != nil {
			return err
		}
		if err := checkMatrix(g.name+".recurrent", g.g.Recurrent, h, h); err != nil {
			return err
		}
		if err := checkVector(g.name+".bias", g.g.Bias, h); err != nil {
			return err
		}
	}
	if err := checkMatrix("mean_head.weights", p.MeanHead.Weights, z, h); err != nil {
		return err
	}
	if err := checkVector("mean_head.bias", p.MeanHead.Bias, z); err != nil {
		return err
	}
	if err := checkMatrix("std_head.weights", p.StdHead.Weights, z, h); err != nil {
		return err
	}
	if err := checkVector("std_head.bias", p.StdHead.Bias, z); err != nil {
		return err
	}
	if err := checkVector("risk.weights", p.Risk.Weights, z); err != nil {
		return err
	}
	if !finite(p.Risk.Bias) {
		return perr.WithField(perr.InvalidParamf("risk.bias is not finite"), "risk.bias")
	}
	return nil
}

func checkMatrix(name string, m [][]float64, rows, cols int) error {
	if len(m) != rows {
		return perr.WithField(perr.InvalidParamf("%s: expected [%d,%d] got [%d,…]", name, rows, cols, len(m)), name)
	}
	for i, row := range m {
		if len(row) != cols {
			return perr.WithField(perr.InvalidParamf("%s: row %d expected %d columns got %d", name, i, cols, len(row)), name)
		}
		for j, v := range row {
			if !finite(v) {
				return perr.WithField(perr.InvalidParamf("%s[%d][%d] is not finite", name, i, j), name)
			}
		}
	}
	return nil
}

func checkVector(name string, v []float64, n int) error {
	if len(v) != n {
		return perr.WithField(perr.InvalidParamf("%s: expected length %d got %d", name, n, len(v)), name)
	}
	for i, x := range v {
		if !finite(x) {
			return perr.WithField(perr.InvalidParamf("%s[%d] is not finite", name, i), name)
		}
	}
	return nil
}

func finite(x float64) bool { return !math.IsNaN(x) && !math.IsInf(x, 0) }

// fingerprint hashes the json encoding of spec+params; struct field order keeps it stable
func fingerprint(s Spec, p Params) (string, error) {
	b, err := json.Marshal(struct {
		Spec   Spec   `json:"spec"`
		Params Params `json:"params"`
	}{s, p})
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:]), nil
}

func copySpec(s Spec) Spec {
	s.Features = append([]string(nil), s.Features...)
	s.Latents = append([]string(nil), s.Latents...)
	return s
}

func copyParams(p Params) Params {
	return Params{
		Encoder: Encoder{
			Update:    copyGate(p.Encoder.Update),
			Reset:     copyGate(p.Encoder.Reset),
			Candidate: copyGate(p.Encoder.Candidate),
		},
		MeanHead: copyHead(p.MeanHead),
		StdHead:  copyHead(p.StdHead),
		Risk:     RiskHead{Bias: p.Risk.Bias, Weights: append([]float64(nil), p.Risk.Weights...)},
	}
}

func copyGate(g Gate) Gate {
	return Gate{Input: copyMatrix(g.Input), Recurrent: copyMatrix(g.Recurrent), Bias: append([]float64(nil), g.Bias...)}
}

func copyHead(h Head) Head {
	return Head{Weights: copyMatrix(h.Weights), Bias: append([]float64(nil), h.Bias...)}
}

func copyMatrix(m [][]float64) [][]float64 {
	out := make([][]float64, len(m))
	for i := range m {
		out[i] = append([]float64(nil), m[i]...)
	}
	return out
}

// String is used in log lines
func (m *Model) String() string {
	return fmt.Sprintf("%s(F=%d,Z=%d,H=%d)", m.spec.Version, m.F(), m.Z(), m.H())
}
