package markowitz

import "math"

// Policy post-processes closed-form weights into a long-only vector. It is the seam where a
// constrained quadratic solver (active set) can replace the clipping heuristics.
type Policy func(raw []float64) []float64

// ClipNegative zeroes negative weights and keeps the rest as is, preserving the weight sum
// semantics of the target-return solver.
func ClipNegative(raw []float64) []float64 {
	out := make([]float64, len(raw))
	for i, w := range raw {
		if w > 0 {
			out[i] = w
		}
	}
	return out
}

// ClipAndRenormalize zeroes negative weights and rescales the survivors to sum to 1.
// An all-zero result stays all zero.
func ClipAndRenormalize(raw []float64) []float64 {
	out := ClipNegative(raw)
	sum := floats(out).sum()
	if sum == 0 {
		return out
	}
	for i := range out {
		out[i] /= sum
	}
	return out
}

type floats []float64

func (f floats) sum() float64 {
	s := 0.0
	for _, v := range f {
		s += v
	}
	return s
}

func (f floats) finite() bool {
	for _, v := range f {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}
