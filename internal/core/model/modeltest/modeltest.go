// Package modeltest builds small deterministic models for tests
package modeltest

import (
	"math"
	"strconv"
	"testing"

	"auracast/internal/core/model"
)

// Spec returns a spec with generated names
func Spec(f, z, h int) model.Spec {
	s := model.Spec{Version: "test", Hidden: h}
	for i := 0; i < f; i++ {
		s.Features = append(s.Features, "f"+strconv.Itoa(i))
	}
	for i := 0; i < z; i++ {
		s.Latents = append(s.Latents, "z"+strconv.Itoa(i))
	}
	return s
}

// Params fills every tensor with a fixed smooth pattern so results are stable across runs
func Params(f, z, h int) model.Params {
	seed := 0
	mat := func(r, c int, scale float64) [][]float64 {
		out := make([][]float64, r)
		for i := range out {
			out[i] = make([]float64, c)
			for j := range out[i] {
				seed++
				out[i][j] = scale * math.Sin(float64(seed)*1.618)
			}
		}
		return out
	}
	vec := func(n int, scale, shift float64) []float64 {
		out := make([]float64, n)
		for i := range out {
			seed++
			out[i] = shift + scale*math.Cos(float64(seed)*0.7)
		}
		return out
	}
	gate := func() model.Gate {
		return model.Gate{Input: mat(h, f, 0.4), Recurrent: mat(h, h, 0.3), Bias: vec(h, 0.1, 0)}
	}
	rw := make([]float64, z)
	for i := range rw {
		rw[i] = 0.5 - 0.1*float64(i)
	}
	return model.Params{
		Encoder:  model.Encoder{Update: gate(), Reset: gate(), Candidate: gate()},
		MeanHead: model.Head{Weights: mat(z, h, 0.5), Bias: vec(z, 0.1, 0)},
		StdHead:  model.Head{Weights: mat(z, h, 0.3), Bias: vec(z, 0.1, -1)},
		Risk:     model.RiskHead{Bias: -1.2, Weights: rw},
	}
}

// New builds a model or fails the test
func New(t testing.TB, f, z, h int) *model.Model {
	t.Helper()
	m, err := model.New(Spec(f, z, h), Params(f, z, h))
	if err != nil {
		t.Fatalf("modeltest.New: %v", err)
	}
	return m
}

// ZeroStd builds a model whose dispersion head always emits exactly 0
// softplus(-800) underflows to 0 and the head ignores the hidden state
func ZeroStd(t testing.TB, f, z, h int) *model.Model {
	t.Helper()
	p := Params(f, z, h)
	for i := range p.StdHead.Weights {
		for j := range p.StdHead.Weights[i] {
			p.StdHead.Weights[i][j] = 0
		}
		p.StdHead.Bias[i] = -800
	}
	m, err := model.New(Spec(f, z, h), p)
	if err != nil {
		t.Fatalf("modeltest.ZeroStd: %v", err)
	}
	return m
}

// Const returns a [24,f] matrix filled with v
func Const(f int, v float64) [][]float64 {
	out := make([][]float64, model.Hours)
	for i := range out {
		out[i] = make([]float64, f)
		for j := range out[i] {
			out[i][j] = v
		}
	}
	return out
}

// Ramp returns a [24,f] matrix whose values vary by hour and column, within [-1,1]
func Ramp(f int) [][]float64 {
	out := make([][]float64, model.Hours)
	for i := range out {
		out[i] = make([]float64, f)
		for j := range out[i] {
			out[i][j] = math.Sin(float64(i)*0.5 + float64(j))
		}
	}
	return out
}
