package telegram

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"markowitzBot/internal/engine"
)

func TestParseSessionArgs(t *testing.T) {
	defaults := engine.DefaultParams()

	p, err := ParseSessionArgs("/optimize", defaults)
	require.NoError(t, err)
	assert.Equal(t, defaults, p)

	p, err = ParseSessionArgs("/optimize $25,000 8.5%", defaults)
	require.NoError(t, err)
	assert.True(t, p.Capital.Equal(decimal.NewFromInt(25000)))
	assert.Equal(t, 8.5, p.TargetAnnualPct)
	assert.Equal(t, defaults.RiskFreeRate, p.RiskFreeRate)

	p, err = ParseSessionArgs("/minrisk@markowitz_bot 500", defaults)
	require.NoError(t, err)
	assert.True(t, p.Capital.Equal(decimal.NewFromInt(500)))
	assert.Equal(t, defaults.TargetAnnualPct, p.TargetAnnualPct)
}

func TestParseSessionArgs_Rejects(t *testing.T) {
	defaults := engine.DefaultParams()
	for _, in := range []string{
		"/optimize abc",
		"/optimize 10000 seven",
		"/optimize 50",
		"/target 10000 31",
		"/target 10000 0",
		"/optimize 1 2 3",
	} {
		_, err := ParseSessionArgs(in, defaults)
		assert.Error(t, err, in)
	}
}

func TestParseBacktestArgs(t *testing.T) {
	start := time.Date(2015, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2023, 12, 30, 0, 0, 0, 0, time.UTC)
	defaults := engine.DefaultParams()

	split, p, err := ParseBacktestArgs("/backtest 2021-06-30 10%", defaults, start, end)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2021, 6, 30, 0, 0, 0, 0, time.UTC), split)
	assert.Equal(t, 10.0, p.TargetAnnualPct)

	for _, in := range []string{"/backtest", "/backtest 2021/06/30", "/backtest 2014-12-31", "/backtest 2023-12-30", "/backtest 2020-01-01 50"} {
		_, _, err := ParseBacktestArgs(in, defaults, start, end)
		assert.Error(t, err, in)
	}
}

func TestCommandPatterns(t *testing.T) {
	assert.True(t, reOptimize.MatchString("/optimize"))
	assert.True(t, reOptimize.MatchString("/optimize 10000 7"))
	assert.True(t, reOptimize.MatchString("/optimize@markowitz_bot 10000"))
	assert.False(t, reOptimize.MatchString("/optimizer"))
	assert.True(t, reTarget.MatchString("/target 5000 12%"))
	assert.False(t, reTarget.MatchString("/targets"))
	assert.True(t, reFrontier.MatchString("/frontier"))
	assert.False(t, reFrontier.MatchString("/frontier 5"))
	assert.True(t, reBacktest.MatchString("/backtest 2021-01-01"))
	assert.True(t, reHelp.MatchString("/start"))
}
