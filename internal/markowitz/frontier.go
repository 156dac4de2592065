package markowitz

import (
	"errors"
	"fmt"

	"github.com/vicanso/go-charts/v2"

	"markowitzBot/internal/finance"
)

// FrontierPoint is the target-return solution for one annual target.
type FrontierPoint struct {
	TargetAnnualPct float64 `json:"target_annual_pct"`
	Return          float64 `json:"return"`
	Volatility      float64 `json:"volatility"`
	Sharpe          float64 `json:"sharpe"`
	Sum             float64 `json:"sum"`
}

// DefaultFrontierTargets spans the accepted annual target range in percent.
func DefaultFrontierTargets() []float64 {
	var out []float64
	for t := 1.0; t <= 30.0; t += 1.0 {
		out = append(out, t)
	}
	return out
}

// Frontier sweeps the target-return solver over annual targets in percent.
func Frontier(m finance.Moments, targetsPct []float64, riskFreeRate float64) ([]FrontierPoint, error) {
	points := make([]FrontierPoint, 0, len(targetsPct))
	for _, t := range targetsPct {
		sol, err := TargetReturn(m, DailyTarget(t), nil)
		if err != nil {
			return nil, err
		}
		perf, err := Evaluate(m, sol.Weights, riskFreeRate)
		if err != nil && !errors.Is(err, ErrZeroVolatility) {
			return nil, err
		}
		points = append(points, FrontierPoint{
			TargetAnnualPct: t,
			Return:          perf.AnnualReturn,
			Volatility:      perf.Volatility,
			Sharpe:          perf.Sharpe,
			Sum:             sol.Sum,
		})
	}
	return points, nil
}

// FrontierChart renders realized return and volatility (both in %) against the target.
func FrontierChart(points []FrontierPoint) ([]byte, error) {
	if len(points) < 2 {
		return nil, fmt.Errorf("need at least 2 frontier points, got %d", len(points))
	}
	xLabels := make([]string, len(points))
	returns := make([]float64, len(points))
	vols := make([]float64, len(points))
	for i, p := range points {
		xLabels[i] = fmt.Sprintf("%.0f%%", p.TargetAnnualPct)
		returns[i] = p.Return * 100
		vols[i] = p.Volatility * 100
	}

	splitNum := len(xLabels) / 3
	if splitNum < 3 {
		splitNum = 3
	}
	p, err := charts.LineRender(
		[][]float64{returns, vols},
		charts.TitleTextOptionFunc("Target Return Frontier", "annual return vs volatility (%)"),
		charts.XAxisOptionFunc(charts.XAxisOption{
			Data:        xLabels,
			SplitNumber: splitNum,
			BoundaryGap: charts.FalseFlag(),
		}),
		charts.LegendOptionFunc(charts.LegendOption{Data: []string{"Return", "Volatility"}, Left: charts.PositionRight}),
		charts.ThemeOptionFunc(charts.ThemeLight),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to render chart: %w", err)
	}
	buf, err := p.Bytes()
	if err != nil {
		return nil, fmt.Errorf("failed to generate chart bytes: %w", err)
	}
	return buf, nil
}
