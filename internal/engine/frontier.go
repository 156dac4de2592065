package engine

import (
	"context"
	"fmt"

	"markowitzBot/internal/finance"
	"markowitzBot/internal/markowitz"
)

// Frontier fetches prices and sweeps the target-return solver over targetsPct.
// A nil targetsPct uses markowitz.DefaultFrontierTargets.
func Frontier(ctx context.Context, f Fetcher, req Request, targetsPct []float64) ([]markowitz.FrontierPoint, error) {
	ps, err := f.Fetch(ctx, req.Tickers, req.Start, req.End)
	if err != nil {
		return nil, fmt.Errorf("fetch prices: %w", err)
	}
	m, err := finance.Derive(ps)
	if err != nil {
		return nil, fmt.Errorf("derive returns: %w", err)
	}
	if targetsPct == nil {
		targetsPct = markowitz.DefaultFrontierTargets()
	}
	return markowitz.Frontier(m, targetsPct, req.Params.RiskFreeRate)
}
