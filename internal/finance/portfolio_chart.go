package finance

import (
	"fmt"

	"github.com/vicanso/go-charts/v2"
)

// MakeHoldingChart draws the value of one or more buy-and-hold paths over the same days.
// Paths must share their dates; names label the legend.
func MakeHoldingChart(title string, names []string, paths []*PortfolioPath) ([]byte, error) {
	if len(paths) == 0 {
		return nil, fmt.Errorf("no paths provided")
	}
	if len(names) != len(paths) {
		return nil, fmt.Errorf("names (%d) and paths (%d) length mismatch", len(names), len(paths))
	}
	for i, p := range paths {
		if p == nil || len(p.Values) == 0 {
			return nil, fmt.Errorf("path %q is empty", names[i])
		}
	}
	dates := paths[0].Dates
	for i, p := range paths {
		if len(p.Dates) != len(dates) || len(p.Values) != len(dates) {
			return nil, fmt.Errorf("path %q has %d days, want %d", names[i], len(p.Dates), len(dates))
		}
	}

	// Dates are trading days at UTC midnight; format them as they are.
	xLabels := make([]string, len(dates))
	for i, d := range dates {
		if len(dates) <= 60 {
			xLabels[i] = d.Format("Jan 02")
		} else {
			xLabels[i] = d.Format("Jan '06")
		}
	}

	minVal, maxVal := paths[0].Values[0], paths[0].Values[0]
	values := make([][]float64, len(paths))
	for i, p := range paths {
		values[i] = p.Values
		for _, v := range p.Values {
			if v < minVal {
				minVal = v
			}
			if v > maxVal {
				maxVal = v
			}
		}
	}
	padding := (maxVal - minVal) * 0.05
	if padding == 0 {
		padding = maxVal * 0.05
	}
	yMin := minVal - padding
	yMax := maxVal + padding

	splitNum := 6
	if len(xLabels) <= 30 {
		splitNum = len(xLabels) / 3
		if splitNum < 3 {
			splitNum = 3
		}
	}

	p, err := charts.LineRender(
		values,
		charts.TitleTextOptionFunc(title),
		charts.LegendOptionFunc(charts.LegendOption{
			Data: names,
			Left: charts.PositionRight,
		}),
		charts.XAxisOptionFunc(charts.XAxisOption{
			Data:        xLabels,
			SplitNumber: splitNum,
			BoundaryGap: charts.FalseFlag(),
		}),
		charts.YAxisOptionFunc(charts.YAxisOption{
			Min:         &yMin,
			Max:         &yMax,
			DivideCount: 5,
		}),
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
