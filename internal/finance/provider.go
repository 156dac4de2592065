package finance

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// SeriesSource fetches one ticker's daily closes from the network.
type SeriesSource interface {
	FetchSeries(ctx context.Context, symbol string, start, end time.Time) ([]time.Time, []float64, error)
}

// PriceTable is a persisted price table consulted when the network fails.
type PriceTable interface {
	LoadPrices(ctx context.Context, tickers []string, start, end time.Time) (PriceSeries, error)
}

// PriceWriter stores a freshly fetched series so later sessions have a fallback.
type PriceWriter interface {
	SavePrices(ctx context.Context, ps PriceSeries) error
}

// Provider fetches aligned prices with bounded retries and persisted fallbacks.
type Provider struct {
	Source    SeriesSource
	Fallbacks []PriceTable
	Snapshots []PriceWriter
	Retries   int
	Delay     time.Duration
}

// Fetch returns adjusted closes for tickers over [start, end]. The network is tried up to
// Retries times with a fixed Delay between attempts, then each fallback table in order.
// It never returns an empty series without an error.
func (p *Provider) Fetch(ctx context.Context, tickers []string, start, end time.Time) (PriceSeries, error) {
	if len(tickers) == 0 {
		return PriceSeries{}, errors.New("no tickers provided")
	}
	start, end = tradingDay(start), tradingDay(end)
	if !end.After(start) {
		return PriceSeries{}, fmt.Errorf("end date %s must be after start date %s", end.Format(dayLayout), start.Format(dayLayout))
	}

	netErr := errors.New("no network source configured")
	if p.Source != nil {
		retries := p.Retries
		if retries < 1 {
			retries = 1
		}
		for attempt := 1; attempt <= retries; attempt++ {
			ps, err := p.fetchNetwork(ctx, tickers, start, end)
			if err == nil {
				logrus.WithFields(logrus.Fields{"tickers": len(tickers), "days": ps.Len()}).Info("fetch: network prices loaded")
				p.snapshot(ctx, ps)
				return ps, nil
			}
			netErr = err
			if ctx.Err() != nil {
				return PriceSeries{}, fmt.Errorf("%w: %v", ErrDataUnavailable, ctx.Err())
			}
			logrus.WithFields(logrus.Fields{"attempt": attempt, "of": retries}).Warnf("fetch: download failed: %v", err)
			if attempt < retries {
				if err := sleepCtx(ctx, p.Delay); err != nil {
					return PriceSeries{}, fmt.Errorf("%w: %v", ErrDataUnavailable, err)
				}
			}
		}
	}

	logrus.Warn("fetch: network unavailable, switching to persisted prices")
	causes := []string{"network: " + netErr.Error()}
	for i, table := range p.Fallbacks {
		ps, err := table.LoadPrices(ctx, tickers, start, end)
		if err == nil && ps.Len() == 0 {
			err = errors.New("table has no rows in range")
		}
		if err == nil {
			err = ps.Validate()
		}
		if err == nil {
			err = covers(ps, start, end)
		}
		if err != nil {
			causes = append(causes, fmt.Sprintf("fallback %d: %v", i+1, err))
			continue
		}
		logrus.WithFields(logrus.Fields{"fallback": i + 1, "days": ps.Len()}).Info("fetch: persisted prices loaded")
		return ps, nil
	}
	if len(p.Fallbacks) == 0 {
		causes = append(causes, "no fallback table configured")
	}
	return PriceSeries{}, fmt.Errorf("%w: %s", ErrDataUnavailable, strings.Join(causes, "; "))
}

// maxEdgeGap is how far a persisted table's first and last rows may sit inside the requested
// window. It spans a weekend plus a market holiday with room to spare.
const maxEdgeGap = 7 * 24 * time.Hour

// covers rejects a persisted series that is missing the head or tail of [start, end], so a
// partial snapshot never stands in for the full estimation window.
func covers(ps PriceSeries, start, end time.Time) error {
	first, last := ps.Dates[0], ps.Dates[ps.Len()-1]
	if first.Sub(start) > maxEdgeGap || end.Sub(last) > maxEdgeGap {
		return fmt.Errorf("table covers %s to %s, requested %s to %s",
			first.Format(dayLayout), last.Format(dayLayout), start.Format(dayLayout), end.Format(dayLayout))
	}
	return nil
}

// fetchNetwork makes one attempt for the whole ticker set; any failing ticker fails the attempt.
func (p *Provider) fetchNetwork(ctx context.Context, tickers []string, start, end time.Time) (PriceSeries, error) {
	raw := make([]RawSeries, 0, len(tickers))
	for _, symbol := range tickers {
		dates, closes, err := p.Source.FetchSeries(ctx, symbol, start, end)
		if err != nil {
			return PriceSeries{}, fmt.Errorf("failed to fetch %s: %w", symbol, err)
		}
		if len(dates) == 0 {
			return PriceSeries{}, fmt.Errorf("no data available for %s", symbol)
		}
		raw = append(raw, RawSeries{Symbol: symbol, Dates: dates, Closes: closes})
	}
	ps, err := AlignInner(raw)
	if err != nil {
		return PriceSeries{}, err
	}
	if ps.Len() == 0 {
		return PriceSeries{}, errors.New("no overlapping trading days")
	}
	return ps, ps.Validate()
}

func (p *Provider) snapshot(ctx context.Context, ps PriceSeries) {
	for _, w := range p.Snapshots {
		if err := w.SavePrices(ctx, ps); err != nil {
			logrus.Warnf("fetch: price snapshot failed: %v", err)
		}
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
