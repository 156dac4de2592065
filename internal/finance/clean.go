package finance

import (
	"math"
	"time"
)

// filterInvalid removes points where close is missing, NaN, Inf or not positive, keeping
// date and value arrays aligned.
func filterInvalid(dates []time.Time, cl []float64) ([]time.Time, []float64) {
	if len(dates) != len(cl) {
		n := len(dates)
		if len(cl) < n {
			n = len(cl)
		}
		dates = dates[:n]
		cl = cl[:n]
	}
	outDates := make([]time.Time, 0, len(dates))
	outCl := make([]float64, 0, len(cl))
	for i := 0; i < len(dates); i++ {
		if cl[i] <= 0 || math.IsNaN(cl[i]) || math.IsInf(cl[i], 0) {
			continue
		}
		outDates = append(outDates, dates[i])
		outCl = append(outCl, cl[i])
	}
	return outDates, outCl
}

// filterWindow keeps the points dated within [from, to].
func filterWindow(dates []time.Time, cl []float64, from, to time.Time) ([]time.Time, []float64) {
	outDates := make([]time.Time, 0, len(dates))
	outCl := make([]float64, 0, len(cl))
	for i, d := range dates {
		if d.Before(from) || d.After(to) {
			continue
		}
		outDates = append(outDates, d)
		outCl = append(outCl, cl[i])
	}
	return outDates, outCl
}
