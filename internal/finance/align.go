package finance

import (
	"fmt"
	"sort"
	"time"
)

// AlignInner joins raw series on the trading days present in every one of them.
// Invalid closes are dropped first; a duplicated day keeps its last value.
func AlignInner(raw []RawSeries) (PriceSeries, error) {
	if len(raw) == 0 {
		return PriceSeries{}, fmt.Errorf("no assets provided")
	}

	byDay := make([]map[time.Time]float64, len(raw))
	count := map[time.Time]int{}
	for i, s := range raw {
		dates, closes := filterInvalid(s.Dates, s.Closes)
		mp := make(map[time.Time]float64, len(dates))
		for j, d := range dates {
			mp[tradingDay(d)] = closes[j]
		}
		for d := range mp {
			count[d]++
		}
		byDay[i] = mp
	}

	// intersect days across all series
	common := make([]time.Time, 0, len(count))
	for d, c := range count {
		if c == len(raw) {
			common = append(common, d)
		}
	}
	sort.Slice(common, func(i, j int) bool { return common[i].Before(common[j]) })

	ps := PriceSeries{
		Tickers: make([]string, len(raw)),
		Dates:   common,
		Prices:  make([][]float64, len(raw)),
	}
	for i, s := range raw {
		ps.Tickers[i] = s.Symbol
		col := make([]float64, len(common))
		for j, d := range common {
			col[j] = byDay[i][d]
		}
		ps.Prices[i] = col
	}
	return ps, nil
}
