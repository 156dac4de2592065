package engine

import (
	"context"
	"fmt"
	"time"

	"markowitzBot/internal/finance"
	"markowitzBot/internal/markowitz"
)

// BacktestRequest fits on [TrainStart, TrainEnd] and tests on the days after TrainEnd up to TestEnd.
type BacktestRequest struct {
	Tickers    []string
	TrainStart time.Time
	TrainEnd   time.Time
	TestEnd    time.Time
	Params     Params
}

// BacktestLeg compares one strategy's fitted risk with the risk it realized afterwards.
type BacktestLeg struct {
	Strategy            string             `json:"strategy"`
	Weights             []float64          `json:"weights"`
	InSampleVariance    float64            `json:"in_sample_variance"`
	OutOfSampleVariance float64            `json:"out_of_sample_variance"`
	RiskImprovementPct  float64            `json:"risk_improvement_pct"`
	Holding             *finance.PathStats `json:"holding"`

	Path *finance.PortfolioPath `json:"-"`
}

type BacktestResult struct {
	Tickers   []string    `json:"tickers"`
	TrainFrom time.Time   `json:"train_from"`
	TrainTo   time.Time   `json:"train_to"`
	TestFrom  time.Time   `json:"test_from"`
	TestTo    time.Time   `json:"test_to"`
	MinRisk   BacktestLeg `json:"min_risk"`
	Target    BacktestLeg `json:"target"`
}

// Backtest fetches the whole window once, solves both strategies on the training rows and
// scores them on the test rows. RiskImprovementPct is (in-sample / out-of-sample - 1) * 100,
// positive when the realized risk came in below the fitted risk.
func Backtest(ctx context.Context, f Fetcher, req BacktestRequest) (*BacktestResult, error) {
	if err := req.Params.Validate(); err != nil {
		return nil, err
	}
	if !req.TrainEnd.After(req.TrainStart) || !req.TestEnd.After(req.TrainEnd) {
		return nil, fmt.Errorf("backtest windows must satisfy train start < train end < test end")
	}
	ps, err := f.Fetch(ctx, req.Tickers, req.TrainStart, req.TestEnd)
	if err != nil {
		return nil, fmt.Errorf("fetch prices: %w", err)
	}
	train := ps.Between(req.TrainStart, req.TrainEnd)
	test := ps.Between(req.TrainEnd.Add(24*time.Hour), req.TestEnd)

	trainM, err := finance.Derive(train)
	if err != nil {
		return nil, fmt.Errorf("training window: %w", err)
	}
	testM, err := finance.Derive(test)
	if err != nil {
		return nil, fmt.Errorf("test window: %w", err)
	}

	minSol, err := markowitz.MinVariance(trainM, markowitz.ClipAndRenormalize)
	if err != nil {
		return nil, fmt.Errorf("minimum variance: %w", err)
	}
	targetSol, err := markowitz.TargetReturn(trainM, markowitz.DailyTarget(req.Params.TargetAnnualPct), markowitz.ClipNegative)
	if err != nil {
		return nil, fmt.Errorf("target return: %w", err)
	}

	res := &BacktestResult{
		Tickers:   append([]string(nil), ps.Tickers...),
		TrainFrom: train.Dates[0],
		TrainTo:   train.Dates[train.Len()-1],
		TestFrom:  test.Dates[0],
		TestTo:    test.Dates[test.Len()-1],
	}
	if res.MinRisk, err = scoreLeg("Minimum Risk", minSol.Weights, trainM, testM, test, req.Params.RiskFreeRate); err != nil {
		return nil, err
	}
	if res.Target, err = scoreLeg("Target Return", targetSol.Weights, trainM, testM, test, req.Params.RiskFreeRate); err != nil {
		return nil, err
	}
	return res, nil
}

func scoreLeg(name string, w []float64, trainM, testM finance.Moments, test finance.PriceSeries, rf float64) (BacktestLeg, error) {
	in, err := markowitz.Variance(trainM, w)
	if err != nil {
		return BacktestLeg{}, fmt.Errorf("%s: %w", name, err)
	}
	out, err := markowitz.Variance(testM, w)
	if err != nil {
		return BacktestLeg{}, fmt.Errorf("%s: %w", name, err)
	}
	leg := BacktestLeg{
		Strategy:            name,
		Weights:             w,
		InSampleVariance:    in,
		OutOfSampleVariance: out,
	}
	if out > 0 {
		leg.RiskImprovementPct = (in/out - 1) * 100
	}
	path, err := finance.SimulateHolding(test, w, 100)
	if err != nil {
		return BacktestLeg{}, fmt.Errorf("%s: holding: %w", name, err)
	}
	leg.Path = path
	if leg.Holding, err = finance.CalculatePathStats(path, rf); err != nil {
		return BacktestLeg{}, fmt.Errorf("%s: holding stats: %w", name, err)
	}
	return leg, nil
}

// Chart draws both legs' holding value, indexed to 100 on the first test day.
func (r *BacktestResult) Chart() ([]byte, error) {
	title := fmt.Sprintf("Held %s to %s", r.TestFrom.Format("2006-01-02"), r.TestTo.Format("2006-01-02"))
	return finance.MakeHoldingChart(title,
		[]string{r.MinRisk.Strategy, r.Target.Strategy},
		[]*finance.PortfolioPath{r.MinRisk.Path, r.Target.Path})
}
