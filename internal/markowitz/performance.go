package markowitz

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"markowitzBot/internal/finance"
)

// ErrZeroVolatility means the Sharpe ratio is undefined for the weight vector.
var ErrZeroVolatility = errors.New("portfolio volatility is zero")

// Performance holds annualized figures for a weight vector.
type Performance struct {
	AnnualReturn float64 `json:"annual_return"`
	Variance     float64 `json:"variance"`
	Volatility   float64 `json:"volatility"`
	Sharpe       float64 `json:"sharpe"`
}

// Variance returns (w' Sigma w) * 252.
func Variance(m finance.Moments, w []float64) (float64, error) {
	if err := checkWeights(m, w); err != nil {
		return 0, err
	}
	v := mat.NewVecDense(len(w), append([]float64(nil), w...))
	variance := mat.Inner(v, m.Cov, v) * TradingDays
	// rounding on a PSD matrix can land just below zero
	if variance < 0 {
		variance = 0
	}
	return variance, nil
}

// AnnualReturn returns (pBar' w) * 252.
func AnnualReturn(m finance.Moments, w []float64) (float64, error) {
	if err := checkWeights(m, w); err != nil {
		return 0, err
	}
	r := 0.0
	for i, wi := range w {
		r += m.Mean[i] * wi
	}
	return r * TradingDays, nil
}

// Evaluate computes return, variance, volatility and Sharpe ratio for w. When volatility is
// zero the other fields are filled, Sharpe is left at zero and ErrZeroVolatility is returned.
func Evaluate(m finance.Moments, w []float64, riskFreeRate float64) (Performance, error) {
	variance, err := Variance(m, w)
	if err != nil {
		return Performance{}, err
	}
	ret, err := AnnualReturn(m, w)
	if err != nil {
		return Performance{}, err
	}
	p := Performance{
		AnnualReturn: ret,
		Variance:     variance,
		Volatility:   math.Sqrt(variance),
	}
	if p.Volatility == 0 {
		return p, ErrZeroVolatility
	}
	p.Sharpe = (p.AnnualReturn - riskFreeRate) / p.Volatility
	return p, nil
}

// EqualWeights returns 1/n for each of n assets.
func EqualWeights(n int) []float64 {
	w := make([]float64, n)
	for i := range w {
		w[i] = 1 / float64(n)
	}
	return w
}

func checkWeights(m finance.Moments, w []float64) error {
	if m.Cov == nil || len(w) != m.Dim() || len(m.Mean) != m.Dim() || m.Cov.SymmetricDim() != m.Dim() {
		return fmt.Errorf("%w: %d weights for %d assets", ErrDimensionMismatch, len(w), m.Dim())
	}
	return nil
}
