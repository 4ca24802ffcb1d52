// Package estimator runs the gated recurrent encoder over a day of features and emits
// one Gaussian posterior (mean, std) per hour over the latent dimensions.
// Evaluation is pure linear algebra; identical inputs give bit-identical outputs
package estimator

import (
	"context"
	"math"

	"gonum.org/v1/gonum/mat"

	"auracast/internal/core/model"
	perr "auracast/internal/platform/errors"
)

// Posterior summarizes the belief over the latent state at one hour
type Posterior struct {
	Hour int       `json:"hour"`
	Mean []float64 `json:"mean"`
	Std  []float64 `json:"std"`
}

// Clone deep-copies p
func (p Posterior) Clone() Posterior {
	return Posterior{Hour: p.Hour, Mean: append([]float64(nil), p.Mean...), Std: append([]float64(nil), p.Std...)}
}

type gate struct {
	in  *mat.Dense
	rec *mat.Dense
	b   *mat.VecDense
}

type head struct {
	w *mat.Dense
	b *mat.VecDense
}

// Estimator is immutable after New and safe for concurrent use
type Estimator struct {
	f, z, h   int
	update    gate
	reset     gate
	candidate gate
	mean      head
	std       head
}

// New lays the model weights out as dense matrices once
func New(m *model.Model) *Estimator {
	enc := m.Encoder()
	return &Estimator{
		f:         m.F(),
		z:         m.Z(),
		h:         m.H(),
		update:    newGate(enc.Update),
		reset:     newGate(enc.Reset),
		candidate: newGate(enc.Candidate),
		mean:      newHead(m.MeanHead()),
		std:       newHead(m.StdHead()),
	}
}

// Estimate consumes the hours in order and returns exactly 24 posteriors
func (e *Estimator) Estimate(ctx context.Context, x [][]float64) ([]Posterior, error) {
	if len(x) != model.Hours {
		return nil, perr.ShapeMismatchf("expected [%d,%d] feature matrix, got %d rows", model.Hours, e.f, len(x))
	}
	for hr, row := range x {
		if len(row) != e.f {
			return nil, perr.ShapeMismatchf("expected [%d,%d] feature matrix, hour %d has %d features", model.Hours, e.f, hr, len(row))
		}
	}

	state := mat.NewVecDense(e.h, nil)
	u := mat.NewVecDense(e.h, nil)
	r := mat.NewVecDense(e.h, nil)
	c := mat.NewVecDense(e.h, nil)
	rh := mat.NewVecDense(e.h, nil)
	tmp := mat.NewVecDense(e.h, nil)

	out := make([]Posterior, model.Hours)
	for hr, row := range x {
		if err := ctx.Err(); err != nil {
			return nil, perr.FromContext(err, "estimate")
		}
		xv := mat.NewVecDense(e.f, append([]float64(nil), row...))

		e.update.apply(u, xv, state, tmp)
		mapVec(u, sigmoid)

		e.reset.apply(r, xv, state, tmp)
		mapVec(r, sigmoid)

		rh.MulElemVec(r, state)
		e.candidate.apply(c, xv, rh, tmp)
		mapVec(c, math.Tanh)

		// h' = h + u⊙(c - h)
		tmp.SubVec(c, state)
		tmp.MulElemVec(u, tmp)
		state.AddVec(state, tmp)

		p := Posterior{Hour: hr, Mean: e.mean.project(state), Std: e.std.project(state)}
		for d := range p.Std {
			p.Std[d] = softplus(p.Std[d])
		}
		if err := checkFinite(p); err != nil {
			return nil, err
		}
		out[hr] = p
	}
	return out, nil
}

// Z is the latent dimension
func (e *Estimator) Z() int { return e.z }

// F is the input dimension
func (e *Estimator) F() int { return e.f }

// apply writes W·x + U·h + b into dst
func (g gate) apply(dst, x, h, tmp *mat.VecDense) {
	dst.MulVec(g.in, x)
	tmp.MulVec(g.rec, h)
	dst.AddVec(dst, tmp)
	dst.AddVec(dst, g.b)
}

func (hd head) project(state *mat.VecDense) []float64 {
	r, _ := hd.w.Dims()
	v := mat.NewVecDense(r, nil)
	v.MulVec(hd.w, state)
	v.AddVec(v, hd.b)
	out := make([]float64, r)
	for i := range out {
		out[i] = v.AtVec(i)
	}
	return out
}

func checkFinite(p Posterior) error {
	for d := range p.Mean {
		if math.IsNaN(p.Mean[d]) || math.IsInf(p.Mean[d], 0) {
			return perr.Inferencef("non-finite mean at hour %d latent %d", p.Hour, d)
		}
		if math.IsNaN(p.Std[d]) || math.IsInf(p.Std[d], 0) || p.Std[d] < 0 {
			return perr.Inferencef("invalid std %v at hour %d latent %d", p.Std[d], p.Hour, d)
		}
	}
	return nil
}

func newGate(g model.Gate) gate {
	return gate{in: dense(g.Input), rec: dense(g.Recurrent), b: mat.NewVecDense(len(g.Bias), append([]float64(nil), g.Bias...))}
}

func newHead(h *model.Head) head {
	return head{w: dense(h.Weights), b: mat.NewVecDense(len(h.Bias), append([]float64(nil), h.Bias...))}
}

func dense(rows [][]float64) *mat.Dense {
	r, c := len(rows), len(rows[0])
	data := make([]float64, 0, r*c)
	for _, row := range rows {
		data = append(data, row...)
	}
	return mat.NewDense(r, c, data)
}

func mapVec(v *mat.VecDense, fn func(float64) float64) {
	for i := 0; i < v.Len(); i++ {
		v.SetVec(i, fn(v.AtVec(i)))
	}
}

func sigmoid(x float64) float64 {
	if x >= 0 {
		return 1 / (1 + math.Exp(-x))
	}
	ex := math.Exp(x)
	return ex / (1 + ex)
}

// softplus maps the raw dispersion output to a non-negative std
func softplus(x float64) float64 {
	if x > 30 {
		return x
	}
	return math.Log1p(math.Exp(x))
}
