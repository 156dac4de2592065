package finance

import "time"

// PortfolioPath represents the value series of a buy-and-hold position
type PortfolioPath struct {
	Dates   []time.Time
	Values  []float64 // Portfolio values starting from the initial value
	Returns []float64 // Daily simple returns
}

// PathStats represents realized statistics of a PortfolioPath
type PathStats struct {
	InitialValue float64
	FinalValue   float64
	TotalReturn  float64 // Total return as percentage
	AnnualReturn float64 // Geometric annualized return as percentage
	Volatility   float64 // Annualized volatility as percentage
	SharpeRatio  float64 // Excess of the risk-free rate over volatility
	MaxDrawdown  float64 // Maximum drawdown as percentage
	NumDays      int     // Number of trading days
}
