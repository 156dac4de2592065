package allocation

import (
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuild_TargetContextDistributesRequiredInvestment(t *testing.T) {
	weights := []float64{0.25, 0.5, 0}
	required := RequiredInvestment(weights, decimal.NewFromInt(10000))
	assert.True(t, required.Equal(decimal.NewFromInt(7500)), required.String())

	table, err := Build([]string{"AAPL", "MSFT", "KO"}, weights, Options{Distributable: &required, TargetContext: true})
	require.NoError(t, err)
	require.True(t, table.HasInvestment)
	assert.Equal(t, "2500.00", table.Rows[0].Investment.StringFixed(2))
	assert.Equal(t, "5000.00", table.Rows[1].Investment.StringFixed(2))
	assert.True(t, table.Rows[2].Investment.IsZero())

	assert.Equal(t, TotalLabel, table.Total.Ticker)
	assert.InDelta(t, 0.75, table.Total.Weight, 1e-12)
	assert.Equal(t, "75.00%", table.Total.Percentage)
	diff := table.Total.Investment.Sub(required).Abs()
	assert.True(t, diff.LessThanOrEqual(required.Mul(decimal.NewFromFloat(1e-6))), diff.String())
}

func TestBuild_TotalMatchesDistributableForUnevenWeights(t *testing.T) {
	weights := []float64{0.123456, 0.654321, 0.987654, 0.000001}
	required := RequiredInvestment(weights, decimal.NewFromFloat(12345.67))
	table, err := Build([]string{"A", "B", "C", "D"}, weights, Options{Distributable: &required, TargetContext: true})
	require.NoError(t, err)
	diff := table.Total.Investment.Sub(required).Abs()
	assert.True(t, diff.LessThanOrEqual(required.Mul(decimal.NewFromFloat(1e-6))), diff.String())
}

func TestBuild_NoInvestmentOutsideTargetContext(t *testing.T) {
	amount := decimal.NewFromInt(10000)
	for name, opts := range map[string]Options{
		"no amount":      {TargetContext: true},
		"not target":     {Distributable: &amount},
		"neither option": {},
	} {
		t.Run(name, func(t *testing.T) {
			table, err := Build([]string{"A", "B"}, []float64{0.4, 0.6}, opts)
			require.NoError(t, err)
			assert.False(t, table.HasInvestment)
			for _, r := range table.Rows {
				assert.True(t, r.Investment.IsZero())
			}
			assert.NotContains(t, table.Text(), "Investment")
		})
	}
}

func TestBuild_ZeroSumHasNoInvestment(t *testing.T) {
	amount := decimal.Zero
	table, err := Build([]string{"A", "B"}, []float64{0, 0}, Options{Distributable: &amount, TargetContext: true})
	require.NoError(t, err)
	assert.True(t, table.Total.Investment.IsZero())
	assert.Equal(t, "0.00%", table.Total.Percentage)
}

func TestBuild_LengthMismatch(t *testing.T) {
	_, err := Build([]string{"A"}, []float64{0.5, 0.5}, Options{})
	assert.Error(t, err)
}

func TestFormatPercent(t *testing.T) {
	assert.Equal(t, "18.37%", formatPercent(0.18367))
	assert.Equal(t, "0.00%", formatPercent(0.00001))
	assert.Equal(t, "150.00%", formatPercent(1.5))
}

func TestText(t *testing.T) {
	required := decimal.NewFromInt(7500)
	table, err := Build([]string{"AAPL", "MSFT"}, []float64{0.25, 0.5}, Options{Distributable: &required, TargetContext: true})
	require.NoError(t, err)
	out := table.Text()
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	require.Len(t, lines, 4)
	assert.Contains(t, lines[0], "Investment ($)")
	assert.Contains(t, lines[1], "AAPL")
	assert.Contains(t, lines[1], "25.00%")
	assert.Contains(t, lines[1], "2500.00")
	assert.Contains(t, lines[3], "Total")
	assert.Contains(t, lines[3], "7500.00")
}

func TestBarData(t *testing.T) {
	required := decimal.NewFromInt(7500)
	table, err := Build([]string{"AAPL", "MSFT", "KO"}, []float64{0.25, 0.5, 0.00001}, Options{Distributable: &required, TargetContext: true})
	require.NoError(t, err)

	byWeight := table.BarData(false)
	assert.Equal(t, []Bar{{Ticker: "AAPL", Value: 25}, {Ticker: "MSFT", Value: 50}}, byWeight)

	byMoney := table.BarData(true)
	require.Len(t, byMoney, 2)
	assert.InDelta(t, 2499.97, byMoney[0].Value, 0.01)

	img, err := table.BarChart("Target Return", true)
	require.NoError(t, err)
	assert.Equal(t, []byte("\x89PNG"), img[:4])
}

func TestBarChart_NothingToDraw(t *testing.T) {
	table, err := Build([]string{"A"}, []float64{0}, Options{})
	require.NoError(t, err)
	_, err = table.BarChart("empty", false)
	assert.Error(t, err)
}
