package finance

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

var defaultYahooHosts = []string{"https://query1.finance.yahoo.com", "https://query2.finance.yahoo.com"}

const browserUserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.4 Safari/605.1.15"

// YahooSource reads daily adjusted closes from the Yahoo v8 chart endpoint.
type YahooSource struct {
	Client *http.Client
	Hosts  []string
}

func NewYahooSource(timeout time.Duration) *YahooSource {
	return &YahooSource{
		Client: &http.Client{Timeout: timeout},
		Hosts:  defaultYahooHosts,
	}
}

// FetchSeries fetches daily dates and adjusted closes for a single symbol over [start, end].
// Each host is tried once; the caller owns the retry policy.
func (y *YahooSource) FetchSeries(ctx context.Context, symbol string, start, end time.Time) ([]time.Time, []float64, error) {
	hosts := y.Hosts
	if len(hosts) == 0 {
		hosts = defaultYahooHosts
	}
	client := y.Client
	if client == nil {
		client = http.DefaultClient
	}

	params := url.Values{
		"period1":  {fmt.Sprintf("%d", start.Unix())},
		"period2":  {fmt.Sprintf("%d", end.Add(24*time.Hour).Unix())},
		"interval": {"1d"},
		"events":   {"div,splits"},
	}

	var lastErr error
	for _, host := range hosts {
		u := fmt.Sprintf("%s/v8/finance/chart/%s?%s", strings.TrimRight(host, "/"), url.PathEscape(strings.ToUpper(symbol)), params.Encode())
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
		if err != nil {
			return nil, nil, err
		}
		req.Header.Set("User-Agent", browserUserAgent)
		req.Header.Set("Accept", "application/json, text/javascript, */*; q=0.01")
		req.Header.Set("Accept-Language", "en-US,en;q=0.9")
		req.Header.Set("Referer", fmt.Sprintf("https://finance.yahoo.com/quote/%s/history", strings.ToUpper(symbol)))
		resp, err := client.Do(req)
		if err != nil {
			lastErr = err
			if ctx.Err() != nil {
				return nil, nil, ctx.Err()
			}
			continue
		}
		body, readErr := io.ReadAll(resp.Body)
		resp.Body.Close()
		if readErr != nil {
			lastErr = fmt.Errorf("failed to read yahoo response: %w", readErr)
			continue
		}
		if resp.StatusCode == http.StatusTooManyRequests || strings.HasPrefix(string(body), "Edge: Too Many Requests") {
			lastErr = fmt.Errorf("yahoo %s returned 429: Edge: Too Many Requests", host)
			continue
		}
		if resp.StatusCode != http.StatusOK {
			lastErr = fmt.Errorf("yahoo %s returned %d: %s", host, resp.StatusCode, preview(body))
			continue
		}
		if strings.HasPrefix(string(body), "<") || strings.HasPrefix(string(body), "Edge:") {
			lastErr = fmt.Errorf("yahoo returned non-json body: %s", preview(body))
			continue
		}
		var yc yahooChartResp
		if err := json.Unmarshal(body, &yc); err != nil {
			lastErr = fmt.Errorf("failed to parse yahoo json: %v; body: %s", err, preview(body))
			continue
		}
		dates, closes, err := decodeDaily(yc)
		if err != nil {
			lastErr = fmt.Errorf("%s: %w", symbol, err)
			continue
		}
		dates, closes = filterWindow(dates, closes, tradingDay(start), tradingDay(end))
		return dates, closes, nil
	}
	if lastErr == nil {
		lastErr = errors.New("no yahoo hosts configured")
	}
	return nil, nil, lastErr
}

// decodeDaily turns a chart response into exchange-local trading days, preferring adjclose.
func decodeDaily(yc yahooChartResp) ([]time.Time, []float64, error) {
	if yc.Chart.Error != nil {
		return nil, nil, fmt.Errorf("yahoo error %s: %s", yc.Chart.Error.Code, yc.Chart.Error.Description)
	}
	if len(yc.Chart.Result) == 0 {
		return nil, nil, errors.New("no data")
	}
	res := yc.Chart.Result[0]
	var raw []*float64
	if len(res.Indicators.AdjClose) > 0 && len(res.Indicators.AdjClose[0].AdjClose) > 0 {
		raw = res.Indicators.AdjClose[0].AdjClose
	} else if len(res.Indicators.Quote) > 0 {
		raw = res.Indicators.Quote[0].Close
	}
	if len(res.Timestamp) == 0 || len(raw) == 0 {
		return nil, nil, errors.New("empty bars")
	}

	loc := exchangeLocation(res.Meta.Timezone, res.Meta.GmtOffset)
	dates := make([]time.Time, 0, len(res.Timestamp))
	closes := make([]float64, 0, len(res.Timestamp))
	for i, ts := range res.Timestamp {
		if i >= len(raw) || raw[i] == nil {
			continue
		}
		dates = append(dates, tradingDay(time.Unix(ts, 0).In(loc)))
		closes = append(closes, *raw[i])
	}
	dates, closes = filterInvalid(dates, closes)
	return dates, closes, nil
}

func preview(body []byte) string {
	s := string(body)
	if len(s) > 120 {
		s = s[:120]
	}
	return s
}
