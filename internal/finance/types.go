package finance

import (
	"errors"
	"fmt"
	"math"
	"time"
)

var (
	// ErrDataUnavailable means neither the network nor any persisted table produced prices.
	ErrDataUnavailable = errors.New("price data unavailable")
	// ErrInsufficientData means fewer than 2 aligned return observations remain.
	ErrInsufficientData = errors.New("insufficient price data")
)

const dayLayout = "2006-01-02"

// yahooChartResp mirrors Yahoo v8 chart response (trimmed to needed fields)
type yahooChartResp struct {
	Chart struct {
		Result []struct {
			Meta struct {
				Symbol    string `json:"symbol"`
				GmtOffset int    `json:"gmtoffset"`
				Timezone  string `json:"exchangeTimezoneName"`
			} `json:"meta"`
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Close []*float64 `json:"close"`
				} `json:"quote"`
				AdjClose []struct {
					AdjClose []*float64 `json:"adjclose"`
				} `json:"adjclose"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

// RawSeries is one ticker's dated closes before alignment.
type RawSeries struct {
	Symbol string
	Dates  []time.Time
	Closes []float64
}

// PriceSeries holds adjusted closes for a ticker set aligned on common trading days.
// Prices is indexed [asset][day], asset order matches Tickers.
type PriceSeries struct {
	Tickers []string
	Dates   []time.Time
	Prices  [][]float64
}

// Len returns the number of aligned trading days.
func (ps PriceSeries) Len() int { return len(ps.Dates) }

// Validate checks shape and that every price is a positive finite number.
func (ps PriceSeries) Validate() error {
	if len(ps.Tickers) == 0 {
		return errors.New("price series has no tickers")
	}
	if len(ps.Prices) != len(ps.Tickers) {
		return fmt.Errorf("price series has %d columns for %d tickers", len(ps.Prices), len(ps.Tickers))
	}
	for i, col := range ps.Prices {
		if len(col) != len(ps.Dates) {
			return fmt.Errorf("asset %s has %d prices, expected %d", ps.Tickers[i], len(col), len(ps.Dates))
		}
		for day, p := range col {
			if p <= 0 || math.IsNaN(p) || math.IsInf(p, 0) {
				return fmt.Errorf("invalid price for %s on %s: %f", ps.Tickers[i], ps.Dates[day].Format(dayLayout), p)
			}
		}
	}
	for day := 1; day < len(ps.Dates); day++ {
		if !ps.Dates[day].After(ps.Dates[day-1]) {
			return fmt.Errorf("dates not strictly ascending at %s", ps.Dates[day].Format(dayLayout))
		}
	}
	return nil
}

// Between returns the rows dated within [from, to], sharing no slices with ps.
func (ps PriceSeries) Between(from, to time.Time) PriceSeries {
	out := PriceSeries{
		Tickers: append([]string(nil), ps.Tickers...),
		Prices:  make([][]float64, len(ps.Prices)),
	}
	for day, d := range ps.Dates {
		if d.Before(from) || d.After(to) {
			continue
		}
		out.Dates = append(out.Dates, d)
		for i := range ps.Prices {
			out.Prices[i] = append(out.Prices[i], ps.Prices[i][day])
		}
	}
	return out
}

// Select reorders the columns to tickers, failing when one is missing.
func (ps PriceSeries) Select(tickers []string) (PriceSeries, error) {
	idx := make(map[string]int, len(ps.Tickers))
	for i, t := range ps.Tickers {
		idx[t] = i
	}
	out := PriceSeries{
		Tickers: append([]string(nil), tickers...),
		Dates:   append([]time.Time(nil), ps.Dates...),
		Prices:  make([][]float64, len(tickers)),
	}
	for i, t := range tickers {
		j, ok := idx[t]
		if !ok {
			return PriceSeries{}, fmt.Errorf("ticker %s not present in price series", t)
		}
		out.Prices[i] = append([]float64(nil), ps.Prices[j]...)
	}
	return out, nil
}

// tradingDay truncates t to a UTC midnight so dates from different sources compare equal.
func tradingDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseDay parses a YYYY-MM-DD date into a trading day.
func ParseDay(s string) (time.Time, error) {
	t, err := time.Parse(dayLayout, s)
	if err != nil {
		return time.Time{}, err
	}
	return tradingDay(t), nil
}
