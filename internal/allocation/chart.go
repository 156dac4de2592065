package allocation

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/vicanso/go-charts/v2"
)

// Bar is one bar of an allocation chart.
type Bar struct {
	Ticker string  `json:"ticker"`
	Value  float64 `json:"value"`
}

// BarData lists ticker vs percentage, or ticker vs dollar investment when byInvestment is set.
// Rows that display as 0.00% are left out.
func (t Table) BarData(byInvestment bool) []Bar {
	bars := make([]Bar, 0, len(t.Rows))
	for _, r := range t.Rows {
		if r.Percentage == formatPercent(0) {
			continue
		}
		var v float64
		if byInvestment && t.HasInvestment {
			v = r.Investment.InexactFloat64()
		} else {
			v, _ = strconv.ParseFloat(strings.TrimSuffix(r.Percentage, "%"), 64)
		}
		bars = append(bars, Bar{Ticker: r.Ticker, Value: v})
	}
	return bars
}

// BarChart renders BarData as a PNG.
func (t Table) BarChart(title string, byInvestment bool) ([]byte, error) {
	bars := t.BarData(byInvestment)
	if len(bars) == 0 {
		return nil, errors.New("no non-zero allocations to chart")
	}
	labels := make([]string, len(bars))
	values := make([]float64, len(bars))
	for i, b := range bars {
		labels[i] = b.Ticker
		values[i] = b.Value
	}
	unit := "Allocation (%)"
	if byInvestment && t.HasInvestment {
		unit = "Investment ($)"
	}

	p, err := charts.BarRender(
		[][]float64{values},
		charts.TitleTextOptionFunc(title, unit),
		charts.XAxisDataOptionFunc(labels),
		charts.ThemeOptionFunc(charts.ThemeLight),
		charts.WidthOptionFunc(800),
		charts.HeightOptionFunc(400),
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
