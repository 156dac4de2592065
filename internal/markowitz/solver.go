// Package markowitz holds the closed-form mean-variance solvers and the evaluator that scores
// any weight vector against a set of return moments.
//
// Solvers return the unconstrained closed-form weights untouched in Solution.Raw and apply a
// named no-short Policy to produce Solution.Weights. The policies are heuristics: clipping a
// negative weight and keeping the others is not the constrained minimum-variance portfolio,
// which would require re-solving the quadratic program over the surviving assets.
package markowitz

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"markowitzBot/internal/finance"
)

// TradingDays annualizes daily moments.
const TradingDays = 252.0

const (
	// maxCondition bounds the covariance condition number before it is treated as singular.
	maxCondition = 1e12
	// minQuadratic is the smallest |pBar' S^-1 pBar| the target solver divides by.
	minQuadratic = 1e-12
	// maxLeverage is the weight sum above which a target is flagged as unreachable.
	maxLeverage = 10.0
	// minExposure is the weight sum below which a positive target is flagged as unreachable.
	minExposure = 1 / maxLeverage
)

var (
	ErrSingularCovariance = errors.New("covariance matrix is singular")
	ErrDimensionMismatch  = errors.New("dimension mismatch")
)

// WarnUnreachableTarget marks a target-return solution whose weights are extreme or degenerate.
const WarnUnreachableTarget = "unreachable_target"

// Warning is advisory and never blocks a result.
type Warning struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Solution is a solver result. Raw is the closed form before the policy; Weights after it.
type Solution struct {
	Tickers  []string  `json:"tickers"`
	Raw      []float64 `json:"raw"`
	Weights  []float64 `json:"weights"`
	Sum      float64   `json:"sum"`
	Clipped  []string  `json:"clipped,omitempty"`
	Warnings []Warning `json:"warnings,omitempty"`
}

// DailyTarget converts an annual target in percent to a daily return: (1+annual)^(1/252) - 1.
func DailyTarget(annualPct float64) float64 {
	return math.Pow(1+annualPct/100, 1/TradingDays) - 1
}

// RawMinVariance returns S^-1 1 / (1' S^-1 1).
func RawMinVariance(m finance.Moments) ([]float64, error) {
	chol, err := factorize(m)
	if err != nil {
		return nil, err
	}
	n := m.Dim()
	ones := make([]float64, n)
	for i := range ones {
		ones[i] = 1
	}
	x, err := solve(chol, ones)
	if err != nil {
		return nil, err
	}
	denom := floats(x).sum()
	if denom == 0 || math.IsNaN(denom) || math.IsInf(denom, 0) {
		return nil, fmt.Errorf("%w: 1'S^-1 1 = %v", ErrSingularCovariance, denom)
	}
	for i := range x {
		x[i] /= denom
	}
	return x, nil
}

// RawTargetReturn returns S^-1 pBar * (u / M) with M = pBar' S^-1 pBar, and M itself.
// When M is near zero the weights are all zero and the caller decides how to warn.
func RawTargetReturn(m finance.Moments, u float64) ([]float64, float64, error) {
	chol, err := factorize(m)
	if err != nil {
		return nil, 0, err
	}
	x, err := solve(chol, m.Mean)
	if err != nil {
		return nil, 0, err
	}
	quad := mat.Dot(mat.NewVecDense(len(m.Mean), append([]float64(nil), m.Mean...)), mat.NewVecDense(len(x), x))
	if math.Abs(quad) < minQuadratic || math.IsNaN(quad) {
		return make([]float64, len(x)), quad, nil
	}
	scale := u / quad
	for i := range x {
		x[i] *= scale
	}
	return x, quad, nil
}

// MinVariance solves the global minimum-variance portfolio. A nil policy means ClipAndRenormalize.
func MinVariance(m finance.Moments, policy Policy) (Solution, error) {
	if policy == nil {
		policy = ClipAndRenormalize
	}
	raw, err := RawMinVariance(m)
	if err != nil {
		return Solution{}, err
	}
	return newSolution(m.Tickers, raw, policy(raw)), nil
}

// TargetReturn solves the minimum-variance portfolio for daily target return u without the
// budget constraint: the weights may sum above or below 1 and that sum is the leverage needed
// to reach u. A nil policy means ClipNegative.
func TargetReturn(m finance.Moments, u float64, policy Policy) (Solution, error) {
	if policy == nil {
		policy = ClipNegative
	}
	raw, quad, err := RawTargetReturn(m, u)
	if err != nil {
		return Solution{}, err
	}
	sol := newSolution(m.Tickers, raw, policy(raw))

	switch {
	case math.Abs(quad) < minQuadratic || math.IsNaN(quad):
		sol.warn(WarnUnreachableTarget, fmt.Sprintf("mean returns are near-orthogonal under the inverse covariance (M=%.3g); weights set to zero", quad))
	case !floats(raw).finite():
		sol.warn(WarnUnreachableTarget, "closed-form weights are not finite")
	case sol.Sum > maxLeverage:
		sol.warn(WarnUnreachableTarget, fmt.Sprintf("weights sum to %.2f, the target needs %.1fx leverage", sol.Sum, sol.Sum))
	case u > 0 && sol.Sum == 0:
		sol.warn(WarnUnreachableTarget, "every weight was clipped to zero, the target cannot be reached without short positions")
	case u > 0 && sol.Sum < minExposure:
		sol.warn(WarnUnreachableTarget, fmt.Sprintf("weights sum to %.4f, the target invests %.2f%% of capital", sol.Sum, sol.Sum*100))
	}
	return sol, nil
}

func newSolution(tickers []string, raw, weights []float64) Solution {
	sol := Solution{
		Tickers: append([]string(nil), tickers...),
		Raw:     raw,
		Weights: weights,
		Sum:     floats(weights).sum(),
	}
	for i, w := range raw {
		if w < 0 {
			sol.Clipped = append(sol.Clipped, tickers[i])
		}
	}
	return sol
}

func (s *Solution) warn(code, msg string) {
	s.Warnings = append(s.Warnings, Warning{Code: code, Message: msg})
}

// factorize validates m and returns the Cholesky factor of its covariance.
func factorize(m finance.Moments) (*mat.Cholesky, error) {
	n := m.Dim()
	if n == 0 {
		return nil, fmt.Errorf("%w: no assets", ErrDimensionMismatch)
	}
	if m.Cov == nil || m.Cov.SymmetricDim() != n || len(m.Mean) != n {
		return nil, fmt.Errorf("%w: %d tickers, %d means, covariance %v", ErrDimensionMismatch, n, len(m.Mean), covDim(m.Cov))
	}
	var chol mat.Cholesky
	if ok := chol.Factorize(m.Cov); !ok {
		return nil, fmt.Errorf("%w: not positive definite", ErrSingularCovariance)
	}
	if c := chol.Cond(); c > maxCondition || math.IsNaN(c) || math.IsInf(c, 0) {
		return nil, fmt.Errorf("%w: condition number %.3g", ErrSingularCovariance, c)
	}
	return &chol, nil
}

func solve(chol *mat.Cholesky, b []float64) ([]float64, error) {
	var x mat.VecDense
	if err := chol.SolveVecTo(&x, mat.NewVecDense(len(b), append([]float64(nil), b...))); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSingularCovariance, err)
	}
	return mat.Col(nil, 0, &x), nil
}

func covDim(c *mat.SymDense) string {
	if c == nil {
		return "nil"
	}
	return fmt.Sprintf("%dx%d", c.SymmetricDim(), c.SymmetricDim())
}
