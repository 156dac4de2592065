package finance

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// Moments are the per-asset mean daily log return (pBar) and the sample covariance of daily
// log returns (Sigma), indexed like Tickers.
type Moments struct {
	Tickers      []string
	Mean         []float64
	Cov          *mat.SymDense
	Observations int
}

// Dim returns the asset count.
func (m Moments) Dim() int { return len(m.Tickers) }

// LogReturns returns ln(p[t]/p[t-1]) as a (days-1) x assets matrix. The first day is dropped.
func LogReturns(ps PriceSeries) (*mat.Dense, error) {
	if err := ps.Validate(); err != nil {
		return nil, err
	}
	obs := ps.Len() - 1
	if obs < 2 {
		return nil, fmt.Errorf("%w: %d return observations, need at least 2", ErrInsufficientData, max(obs, 0))
	}
	rets := mat.NewDense(obs, len(ps.Tickers), nil)
	for i, col := range ps.Prices {
		for t := 1; t < len(col); t++ {
			rets.Set(t-1, i, math.Log(col[t]/col[t-1]))
		}
	}
	return rets, nil
}

// Derive computes the mean return vector and unbiased (n-1) covariance matrix.
func Derive(ps PriceSeries) (Moments, error) {
	rets, err := LogReturns(ps)
	if err != nil {
		return Moments{}, err
	}
	obs, n := rets.Dims()
	mean := make([]float64, n)
	for i := 0; i < n; i++ {
		mean[i] = stat.Mean(mat.Col(nil, i, rets), nil)
	}
	cov := mat.NewSymDense(n, nil)
	stat.CovarianceMatrix(cov, rets, nil)
	return Moments{
		Tickers:      append([]string(nil), ps.Tickers...),
		Mean:         mean,
		Cov:          cov,
		Observations: obs,
	}, nil
}
