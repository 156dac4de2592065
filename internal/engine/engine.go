// Package engine runs one optimization session: fetch, derive, solve, evaluate, report.
// Every stage is a value transformation; nothing is shared between sessions.
package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"markowitzBot/internal/allocation"
	"markowitzBot/internal/finance"
	"markowitzBot/internal/markowitz"
)

const (
	MinCapital      = 100.0
	MinTargetPct    = 0.1
	MaxTargetPct    = 30.0
	DefaultCapital  = 10000.0
	DefaultTarget   = 7.0
	DefaultRiskFree = 0.044
)

// Fetcher supplies aligned prices; finance.Provider is the production implementation.
type Fetcher interface {
	Fetch(ctx context.Context, tickers []string, start, end time.Time) (finance.PriceSeries, error)
}

// Params are the user-facing inputs of a session.
type Params struct {
	Capital         decimal.Decimal `json:"capital"`
	TargetAnnualPct float64         `json:"target_annual_pct"`
	RiskFreeRate    float64         `json:"risk_free_rate"`
}

func DefaultParams() Params {
	return Params{
		Capital:         decimal.NewFromFloat(DefaultCapital),
		TargetAnnualPct: DefaultTarget,
		RiskFreeRate:    DefaultRiskFree,
	}
}

func (p Params) Validate() error {
	if p.Capital.LessThan(decimal.NewFromFloat(MinCapital)) {
		return fmt.Errorf("capital must be at least %.0f, got %s", MinCapital, p.Capital.String())
	}
	if p.TargetAnnualPct < MinTargetPct || p.TargetAnnualPct > MaxTargetPct {
		return fmt.Errorf("target annual return must be between %.1f%% and %.1f%%, got %.2f%%", MinTargetPct, MaxTargetPct, p.TargetAnnualPct)
	}
	return nil
}

// Request names the data window and parameters of one session.
type Request struct {
	Tickers []string
	Start   time.Time
	End     time.Time
	Params  Params
}

// Strategy is one solved portfolio with its scores and table.
type Strategy struct {
	Name               string                `json:"name"`
	Solution           markowitz.Solution    `json:"solution"`
	Performance        markowitz.Performance `json:"performance"`
	Table              allocation.Table      `json:"table"`
	RequiredInvestment decimal.Decimal       `json:"required_investment"`
	Warnings           []markowitz.Warning   `json:"warnings,omitempty"`
}

// Result is everything a presentation layer renders for one session.
type Result struct {
	Tickers      []string              `json:"tickers"`
	From         time.Time             `json:"from"`
	To           time.Time             `json:"to"`
	Observations int                   `json:"observations"`
	Params       Params                `json:"params"`
	DailyTarget  float64               `json:"daily_target"`
	MinRisk      Strategy              `json:"min_risk"`
	Target       Strategy              `json:"target"`
	EqualWeight  markowitz.Performance `json:"equal_weight"`
}

// Run fetches prices and analyzes them. Fatal errors come back wrapped, never swallowed.
func Run(ctx context.Context, f Fetcher, req Request) (*Result, error) {
	if err := req.Params.Validate(); err != nil {
		return nil, err
	}
	ps, err := f.Fetch(ctx, req.Tickers, req.Start, req.End)
	if err != nil {
		return nil, fmt.Errorf("fetch prices: %w", err)
	}
	return Analyze(ps, req.Params)
}

// Analyze runs every stage after the fetch on an in-memory series.
func Analyze(ps finance.PriceSeries, params Params) (*Result, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	m, err := finance.Derive(ps)
	if err != nil {
		return nil, fmt.Errorf("derive returns: %w", err)
	}

	minSol, err := markowitz.MinVariance(m, markowitz.ClipAndRenormalize)
	if err != nil {
		return nil, fmt.Errorf("minimum variance: %w", err)
	}
	minRisk, err := buildStrategy("Minimum Risk", m, minSol, params, allocation.Options{})
	if err != nil {
		return nil, err
	}
	minRisk.RequiredInvestment = params.Capital

	u := markowitz.DailyTarget(params.TargetAnnualPct)
	targetSol, err := markowitz.TargetReturn(m, u, markowitz.ClipNegative)
	if err != nil {
		return nil, fmt.Errorf("target return: %w", err)
	}
	required := allocation.RequiredInvestment(targetSol.Weights, params.Capital)
	target, err := buildStrategy("Target Return", m, targetSol, params, allocation.Options{
		Distributable: &required,
		TargetContext: true,
	})
	if err != nil {
		return nil, err
	}
	target.RequiredInvestment = required

	equal, err := markowitz.Evaluate(m, markowitz.EqualWeights(m.Dim()), params.RiskFreeRate)
	if err != nil && !errors.Is(err, markowitz.ErrZeroVolatility) {
		return nil, fmt.Errorf("equal weight: %w", err)
	}

	return &Result{
		Tickers:      append([]string(nil), ps.Tickers...),
		From:         ps.Dates[0],
		To:           ps.Dates[ps.Len()-1],
		Observations: m.Observations,
		Params:       params,
		DailyTarget:  u,
		MinRisk:      minRisk,
		Target:       target,
		EqualWeight:  equal,
	}, nil
}

func buildStrategy(name string, m finance.Moments, sol markowitz.Solution, params Params, opts allocation.Options) (Strategy, error) {
	s := Strategy{Name: name, Solution: sol, Warnings: append([]markowitz.Warning(nil), sol.Warnings...)}
	perf, err := markowitz.Evaluate(m, sol.Weights, params.RiskFreeRate)
	switch {
	case errors.Is(err, markowitz.ErrZeroVolatility):
		s.Warnings = append(s.Warnings, markowitz.Warning{Code: "sharpe_undefined", Message: "portfolio volatility is zero, Sharpe ratio is undefined"})
	case err != nil:
		return Strategy{}, fmt.Errorf("%s: evaluate: %w", name, err)
	}
	s.Performance = perf

	table, err := allocation.Build(sol.Tickers, sol.Weights, opts)
	if err != nil {
		return Strategy{}, fmt.Errorf("%s: allocation: %w", name, err)
	}
	s.Table = table
	return s, nil
}
