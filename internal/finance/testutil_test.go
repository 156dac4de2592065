package finance

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

func day(s string) time.Time {
	d, err := ParseDay(s)
	if err != nil {
		panic(err)
	}
	return d
}

// weekdays returns n consecutive weekdays starting at from.
func weekdays(from string, n int) []time.Time {
	out := make([]time.Time, 0, n)
	for d := day(from); len(out) < n; d = d.AddDate(0, 0, 1) {
		if d.Weekday() == time.Saturday || d.Weekday() == time.Sunday {
			continue
		}
		out = append(out, d)
	}
	return out
}

type bar struct {
	day   time.Time
	close *float64
}

func f64(v float64) *float64 { return &v }

// chartJSON builds a Yahoo v8 chart body with bars stamped at the New York open.
func chartJSON(symbol string, bars []bar, withAdj bool) []byte {
	ts := make([]int64, len(bars))
	closes := make([]*float64, len(bars))
	for i, b := range bars {
		ts[i] = b.day.Add(14*time.Hour + 30*time.Minute).Unix()
		closes[i] = b.close
	}
	indicators := map[string]any{
		"quote": []map[string]any{{"close": closes}},
	}
	if withAdj {
		indicators["adjclose"] = []map[string]any{{"adjclose": closes}}
	}
	body, _ := json.Marshal(map[string]any{
		"chart": map[string]any{
			"result": []map[string]any{{
				"meta": map[string]any{
					"symbol":               symbol,
					"gmtoffset":            -18000,
					"exchangeTimezoneName": "America/New_York",
				},
				"timestamp":  ts,
				"indicators": indicators,
			}},
			"error": nil,
		},
	})
	return body
}

// yahooStub serves chart bodies per symbol. The first failFirst requests return 500.
type yahooStub struct {
	srv       *httptest.Server
	bodies    map[string][]byte
	failFirst int32
	calls     atomic.Int32
}

func newYahooStub(t *testing.T, bodies map[string][]byte, failFirst int32) *yahooStub {
	t.Helper()
	s := &yahooStub{bodies: bodies, failFirst: failFirst}
	s.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := s.calls.Add(1)
		if n <= s.failFirst {
			http.Error(w, "upstream down", http.StatusInternalServerError)
			return
		}
		sym := strings.TrimPrefix(r.URL.Path, "/v8/finance/chart/")
		body, ok := s.bodies[sym]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			w.Write([]byte(`{"chart":{"result":null,"error":{"code":"Not Found","description":"No data found, symbol may be delisted"}}}`))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write(body)
	}))
	t.Cleanup(s.srv.Close)
	return s
}

func (s *yahooStub) source() *YahooSource {
	return &YahooSource{Client: s.srv.Client(), Hosts: []string{s.srv.URL}}
}

// linearBars returns n weekday bars from 2023-01-02 with close = base + step*i.
func linearBars(n int, base, step float64) []bar {
	days := weekdays("2023-01-02", n)
	out := make([]bar, n)
	for i, d := range days {
		out[i] = bar{day: d, close: f64(base + step*float64(i))}
	}
	return out
}
