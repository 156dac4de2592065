package markowitz

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"markowitzBot/internal/finance"
)

func moments(tickers []string, mean []float64, cov []float64) finance.Moments {
	return finance.Moments{
		Tickers:      tickers,
		Mean:         mean,
		Cov:          mat.NewSymDense(len(tickers), cov),
		Observations: 250,
	}
}

func diag3() finance.Moments {
	return moments([]string{"A", "B", "C"}, []float64{0.0004, 0.0004, 0.0004}, []float64{
		0.04, 0, 0,
		0, 0.01, 0,
		0, 0, 0.09,
	})
}

func TestMinVariance_DiagonalCovariance(t *testing.T) {
	sol, err := MinVariance(diag3(), nil)
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{0.18367, 0.73469, 0.08163}, sol.Weights, 1e-5)
	assert.InDelta(t, 1.0, sol.Sum, 1e-9)
	assert.Empty(t, sol.Clipped)
	assert.Empty(t, sol.Warnings)
	for _, w := range sol.Weights {
		assert.GreaterOrEqual(t, w, 0.0)
	}
}

func TestMinVariance_ClipsAndRenormalizes(t *testing.T) {
	m := moments([]string{"A", "B"}, []float64{0.001, 0.001}, []float64{
		0.04, 0.018,
		0.018, 0.01,
	})
	sol, err := MinVariance(m, ClipAndRenormalize)
	require.NoError(t, err)
	assert.Less(t, sol.Raw[0], 0.0)
	assert.InDelta(t, 1.0, floats(sol.Raw).sum(), 1e-9)
	assert.Equal(t, []string{"A"}, sol.Clipped)
	assert.InDeltaSlice(t, []float64{0, 1}, sol.Weights, 1e-12)
	assert.InDelta(t, 1.0, sol.Sum, 1e-9)
}

func TestMinVariance_Deterministic(t *testing.T) {
	m := moments([]string{"A", "B", "C"}, []float64{0.0005, 0.0003, 0.0001}, []float64{
		0.040, 0.006, 0.012,
		0.006, 0.010, 0.002,
		0.012, 0.002, 0.090,
	})
	first, err := MinVariance(m, nil)
	require.NoError(t, err)
	second, err := MinVariance(m, nil)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestMinVariance_LongOnlyBudget(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for trial := 0; trial < 50; trial++ {
		n := 2 + rng.Intn(7)
		a := mat.NewDense(n+3, n, nil)
		for i := 0; i < n+3; i++ {
			for j := 0; j < n; j++ {
				a.Set(i, j, rng.NormFloat64()*0.02)
			}
		}
		var cov mat.SymDense
		cov.SymOuterK(1, a.T())
		for i := 0; i < n; i++ {
			cov.SetSym(i, i, cov.At(i, i)+1e-5)
		}
		tickers := make([]string, n)
		mean := make([]float64, n)
		for i := range tickers {
			tickers[i] = string(rune('A' + i))
			mean[i] = rng.NormFloat64() * 0.001
		}
		m := finance.Moments{Tickers: tickers, Mean: mean, Cov: &cov, Observations: 250}

		sol, err := MinVariance(m, nil)
		require.NoError(t, err, "trial %d", trial)
		assert.InDelta(t, 1.0, sol.Sum, 1e-9, "trial %d", trial)
		for i, w := range sol.Weights {
			assert.GreaterOrEqual(t, w, 0.0, "trial %d weight %d", trial, i)
		}
	}
}

func TestMinVariance_PolicyIsIdempotent(t *testing.T) {
	sol, err := MinVariance(diag3(), nil)
	require.NoError(t, err)
	assert.InDeltaSlice(t, sol.Weights, ClipAndRenormalize(sol.Weights), 1e-12)
	assert.Equal(t, sol.Weights, ClipNegative(sol.Weights))
}

func TestTargetReturn_HitsTarget(t *testing.T) {
	m := moments([]string{"A", "B"}, []float64{0.001, 0.0005}, []float64{
		0.04, 0,
		0, 0.01,
	})
	sol, err := TargetReturn(m, 0.0005, nil)
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{0.25, 0.5}, sol.Weights, 1e-12)
	assert.InDelta(t, 0.75, sol.Sum, 1e-12)
	assert.Empty(t, sol.Warnings)

	ret := 0.0
	for i, w := range sol.Raw {
		ret += m.Mean[i] * w
	}
	assert.InDelta(t, 0.0005, ret, 1e-15)
}

func TestTargetReturn_ClipsWithoutRenormalizing(t *testing.T) {
	m := moments([]string{"A", "B"}, []float64{0.001, -0.0005}, []float64{
		0.04, 0,
		0, 0.01,
	})
	sol, err := TargetReturn(m, 0.0005, ClipNegative)
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{0.25, -0.5}, sol.Raw, 1e-12)
	assert.InDeltaSlice(t, []float64{0.25, 0}, sol.Weights, 1e-12)
	assert.InDelta(t, 0.25, sol.Sum, 1e-12)
	assert.Equal(t, []string{"B"}, sol.Clipped)
}

func TestRawTargetReturn_ScalesLinearly(t *testing.T) {
	m := diag3()
	one, _, err := RawTargetReturn(m, 0.0003)
	require.NoError(t, err)
	two, _, err := RawTargetReturn(m, 0.0006)
	require.NoError(t, err)
	for i := range one {
		assert.InDelta(t, 2*one[i], two[i], 1e-12)
	}

	zero, _, err := RawTargetReturn(m, 0)
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 0, 0}, zero)
}

func TestTargetReturn_ZeroTargetGivesZeroWeights(t *testing.T) {
	sol, err := TargetReturn(diag3(), 0, nil)
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 0, 0}, sol.Weights)
	assert.Equal(t, 0.0, sol.Sum)
	assert.Empty(t, sol.Warnings)
}

func TestTargetReturn_UnreachableWarnings(t *testing.T) {
	cov := []float64{0.01, 0, 0, 0.01}

	t.Run("zero means", func(t *testing.T) {
		sol, err := TargetReturn(moments([]string{"A", "B"}, []float64{0, 0}, cov), 0.0003, nil)
		require.NoError(t, err)
		assert.Equal(t, []float64{0, 0}, sol.Weights)
		require.Len(t, sol.Warnings, 1)
		assert.Equal(t, WarnUnreachableTarget, sol.Warnings[0].Code)
	})

	t.Run("extreme leverage", func(t *testing.T) {
		sol, err := TargetReturn(moments([]string{"A", "B"}, []float64{1e-5, 1e-5}, cov), DailyTarget(30), nil)
		require.NoError(t, err)
		assert.Greater(t, sol.Sum, 10.0)
		require.Len(t, sol.Warnings, 1)
		assert.Equal(t, WarnUnreachableTarget, sol.Warnings[0].Code)
	})

	t.Run("negligible exposure", func(t *testing.T) {
		sol, err := TargetReturn(moments([]string{"A", "B"}, []float64{0.002, 0.002}, cov), DailyTarget(0.1), nil)
		require.NoError(t, err)
		assert.Greater(t, sol.Sum, 0.0)
		assert.Less(t, sol.Sum, 0.1)
		require.Len(t, sol.Warnings, 1)
		assert.Equal(t, WarnUnreachableTarget, sol.Warnings[0].Code)
		assert.Contains(t, sol.Warnings[0].Message, "of capital")
	})

	t.Run("all clipped", func(t *testing.T) {
		sol, err := TargetReturn(moments([]string{"A", "B"}, []float64{-0.001, -0.001}, cov), 0.0003, nil)
		require.NoError(t, err)
		assert.Equal(t, 0.0, sol.Sum)
		assert.Equal(t, []string{"A", "B"}, sol.Clipped)
		require.Len(t, sol.Warnings, 1)
		assert.Equal(t, WarnUnreachableTarget, sol.Warnings[0].Code)
	})
}

func TestSolvers_SingularCovariance(t *testing.T) {
	for name, cov := range map[string][]float64{
		"duplicate asset": {1, 1, 1, 1},
		"zero":            {0, 0, 0, 0},
	} {
		t.Run(name, func(t *testing.T) {
			m := moments([]string{"A", "B"}, []float64{0.001, 0.001}, cov)
			_, err := MinVariance(m, nil)
			assert.ErrorIs(t, err, ErrSingularCovariance)
			_, err = TargetReturn(m, 0.0003, nil)
			assert.ErrorIs(t, err, ErrSingularCovariance)
		})
	}
}

func TestSolvers_DimensionMismatch(t *testing.T) {
	m := diag3()
	m.Mean = m.Mean[:2]
	_, err := MinVariance(m, nil)
	assert.ErrorIs(t, err, ErrDimensionMismatch)

	_, err = MinVariance(finance.Moments{}, nil)
	assert.ErrorIs(t, err, ErrDimensionMismatch)
}

func TestDailyTarget(t *testing.T) {
	assert.InDelta(t, math.Pow(1.07, 1.0/252)-1, DailyTarget(7), 1e-15)
	assert.Equal(t, 0.0, DailyTarget(0))
	assert.InDelta(t, 0.07, math.Pow(1+DailyTarget(7), 252)-1, 1e-12)
}

func TestPolicies(t *testing.T) {
	assert.Equal(t, []float64{0.5, 0, 0.7}, ClipNegative([]float64{0.5, -0.2, 0.7}))
	assert.InDeltaSlice(t, []float64{0.25, 0, 0.75}, ClipAndRenormalize([]float64{0.5, -0.2, 1.5}), 1e-12)
	assert.Equal(t, []float64{0, 0}, ClipAndRenormalize([]float64{-1, -2}))
}
