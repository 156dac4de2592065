package finance

import (
	"fmt"
	"math"
)

const tradingDaysPerYear = 252.0

// SimulateHolding buys the weighted positions at the first day's prices and holds them.
// Weights need not sum to 1: the remainder is held as cash, and a negative remainder is
// margin debt, so leveraged target-return weights are valued faithfully.
func SimulateHolding(ps PriceSeries, weights []float64, initialValue float64) (*PortfolioPath, error) {
	if err := ps.Validate(); err != nil {
		return nil, err
	}
	numAssets := len(ps.Tickers)
	numDays := ps.Len()
	if len(weights) != numAssets {
		return nil, fmt.Errorf("weights (%d) don't match price data (%d)", len(weights), numAssets)
	}
	if numDays < 2 {
		return nil, fmt.Errorf("%w: need at least 2 data points for portfolio calculation", ErrInsufficientData)
	}
	if initialValue <= 0 {
		return nil, fmt.Errorf("initial value must be positive, got %f", initialValue)
	}

	portfolioValues := make([]float64, numDays)
	portfolioReturns := make([]float64, numDays-1) // Returns start from day 1
	portfolioValues[0] = initialValue

	netWeight := 0.0
	for _, w := range weights {
		netWeight += w
	}
	cashValue := initialValue * (1.0 - netWeight)

	// shares[i] = (initialValue * weight) / initialPrice[i]
	shares := make([]float64, numAssets)
	for i := 0; i < numAssets; i++ {
		shares[i] = (initialValue * weights[i]) / ps.Prices[i][0]
		if math.IsNaN(shares[i]) || math.IsInf(shares[i], 0) {
			return nil, fmt.Errorf("invalid share calculation for asset %d (%s): %f", i, ps.Tickers[i], shares[i])
		}
	}

	for day := 1; day < numDays; day++ {
		portfolioValue := cashValue
		for assetIdx := 0; assetIdx < numAssets; assetIdx++ {
			portfolioValue += shares[assetIdx] * ps.Prices[assetIdx][day]
		}
		if math.IsNaN(portfolioValue) || math.IsInf(portfolioValue, 0) {
			return nil, fmt.Errorf("invalid portfolio value on day %d: %f", day, portfolioValue)
		}
		portfolioValues[day] = portfolioValue

		if portfolioValues[day-1] > 0 {
			portfolioReturns[day-1] = (portfolioValues[day] - portfolioValues[day-1]) / portfolioValues[day-1]
		}
	}

	return &PortfolioPath{
		Dates:   append(ps.Dates[:0:0], ps.Dates...),
		Values:  portfolioValues,
		Returns: portfolioReturns,
	}, nil
}

// CalculatePathStats computes realized statistics including the Sharpe ratio against riskFreeRate.
func CalculatePathStats(path *PortfolioPath, riskFreeRate float64) (*PathStats, error) {
	if path == nil || len(path.Values) < 2 {
		return nil, fmt.Errorf("insufficient portfolio data")
	}
	if len(path.Returns) < 2 {
		return nil, fmt.Errorf("need at least 2 return observations for statistics")
	}

	numDays := len(path.Values)
	initialValue := path.Values[0]
	finalValue := path.Values[numDays-1]
	totalReturn := (finalValue - initialValue) / initialValue

	meanDailyReturn := 0.0
	for _, ret := range path.Returns {
		meanDailyReturn += ret
	}
	meanDailyReturn /= float64(len(path.Returns))

	// Sample variance (N-1)
	variance := 0.0
	n := float64(len(path.Returns))
	for _, ret := range path.Returns {
		diff := ret - meanDailyReturn
		variance += diff * diff
	}
	variance /= (n - 1)
	dailyVolatility := math.Sqrt(variance)

	yearsInPeriod := n / tradingDaysPerYear
	var annualReturn float64
	if yearsInPeriod > 0 && finalValue > 0 && initialValue > 0 {
		// Geometric annualization: (1 + total_return)^(1/years) - 1
		annualReturn = math.Pow(finalValue/initialValue, 1.0/yearsInPeriod) - 1.0
	}
	annualVolatility := dailyVolatility * math.Sqrt(tradingDaysPerYear)

	var sharpeRatio float64
	if annualVolatility > 0 {
		sharpeRatio = (annualReturn - riskFreeRate) / annualVolatility
	}

	stats := &PathStats{
		InitialValue: initialValue,
		FinalValue:   finalValue,
		TotalReturn:  totalReturn * 100,
		AnnualReturn: annualReturn * 100,
		Volatility:   annualVolatility * 100,
		SharpeRatio:  sharpeRatio,
		MaxDrawdown:  calculateMaxDrawdown(path.Values) * 100,
		NumDays:      numDays,
	}

	for name, v := range map[string]float64{
		"total return":  stats.TotalReturn,
		"annual return": stats.AnnualReturn,
		"volatility":    stats.Volatility,
		"Sharpe ratio":  stats.SharpeRatio,
		"max drawdown":  stats.MaxDrawdown,
	} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, fmt.Errorf("invalid %s: %f", name, v)
		}
	}
	return stats, nil
}

// calculateMaxDrawdown calculates the largest peak-to-trough decline as a fraction
func calculateMaxDrawdown(values []float64) float64 {
	if len(values) < 2 {
		return 0.0
	}

	maxDrawdown := 0.0
	peak := values[0]

	// Handle edge case where first value is 0 or negative
	if peak <= 0 {
		for i := 1; i < len(values); i++ {
			if values[i] > 0 {
				peak = values[i]
				break
			}
		}
		if peak <= 0 {
			return 0.0
		}
	}

	for _, value := range values {
		if value > peak {
			peak = value
		}
		if peak > 0 && value >= 0 {
			drawdown := (peak - value) / peak
			if drawdown > maxDrawdown {
				maxDrawdown = drawdown
			}
		}
	}

	return maxDrawdown
}
