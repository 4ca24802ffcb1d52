// Package features validates the per-day [24,F] feature matrix before any model math runs
package features

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"math"

	"auracast/internal/core/model"
	perr "auracast/internal/platform/errors"
)

// Matrix holds one row per hour of day, 0..23
type Matrix [][]float64

// Shape reports the [rows, cols] of m; cols is the first row's width, or 0
func (m Matrix) Shape() (int, int) {
	if len(m) == 0 {
		return 0, 0
	}
	return len(m), len(m[0])
}

// Validate checks shape first, then values
// Nothing is truncated or padded; the first offending cell is named in the error
func Validate(m Matrix, f int, bound float64) error {
	if len(m) != model.Hours {
		_, c := m.Shape()
		return perr.WithField(
			perr.ShapeMismatchf("expected [%d,%d] feature matrix, got [%d,%d]", model.Hours, f, len(m), c),
			"features")
	}
	for h, row := range m {
		if len(row) != f {
			return perr.WithField(
				perr.ShapeMismatchf("expected [%d,%d] feature matrix, hour %d has %d features", model.Hours, f, h, len(row)),
				"features")
		}
	}
	for h, row := range m {
		for j, v := range row {
			switch {
			case math.IsNaN(v) || math.IsInf(v, 0):
				return perr.WithField(perr.InvalidParamf("features[%d][%d] is not finite", h, j), cell(h, j))
			case math.Abs(v) > bound:
				return perr.WithField(perr.InvalidParamf("features[%d][%d] = %g is outside [-%g,%g]", h, j, v, bound, bound), cell(h, j))
			}
		}
	}
	return nil
}

// ValidateFor checks m against a loaded model
func ValidateFor(m Matrix, md *model.Model) error {
	return Validate(m, md.F(), md.InputBound())
}

// Digest is a sha256 over the shape and IEEE-754 bits in row-major order
// Identical inputs give identical digests, so a logged digest pins the failing request
func Digest(m Matrix) string {
	h := sha256.New()
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], uint64(len(m)))
	h.Write(buf[:])
	for _, row := range m {
		binary.LittleEndian.PutUint64(buf[:], uint64(len(row)))
		h.Write(buf[:])
		for _, v := range row {
			binary.LittleEndian.PutUint64(buf[:], math.Float64bits(v))
			h.Write(buf[:])
		}
	}
	return hex.EncodeToString(h.Sum(nil))
}

// Baseline is the population-mean day: normalized features sit at 0 and the
// cyclical hour encodings, when the model has them, follow the clock
func Baseline(md *model.Model) Matrix {
	names := md.Features()
	out := make(Matrix, model.Hours)
	for hr := range out {
		row := make([]float64, len(names))
		angle := 2 * math.Pi * float64(hr) / model.Hours
		for j, n := range names {
			switch n {
			case "hour_sin":
				row[j] = math.Sin(angle)
			case "hour_cos":
				row[j] = math.Cos(angle)
			}
		}
		out[hr] = row
	}
	return out
}

// Clone deep-copies m
func Clone(m Matrix) Matrix {
	out := make(Matrix, len(m))
	for i := range m {
		out[i] = append([]float64(nil), m[i]...)
	}
	return out
}

func cell(h, j int) string {
	return fmt.Sprintf("features[%d][%d]", h, j)
}
