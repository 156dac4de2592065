package engine

import (
	"fmt"
	"strings"
)

// Summary renders the headline figures of both strategies as plain text.
func (r *Result) Summary() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s\n%s to %s, %d daily returns\n\n", strings.Join(r.Tickers, ", "),
		r.From.Format("2006-01-02"), r.To.Format("2006-01-02"), r.Observations)

	b.WriteString(r.MinRisk.Summary())
	b.WriteString("\n")
	b.WriteString(r.Target.Summary())
	fmt.Fprintf(&b, "Sum of weights: %.4f\n", r.Target.Solution.Sum)
	fmt.Fprintf(&b, "To reach %.2f%% a year, invest: $%s (budget $%s)\n",
		r.Params.TargetAnnualPct, r.Target.RequiredInvestment.StringFixed(2), r.Params.Capital.StringFixed(2))

	fmt.Fprintf(&b, "\nEqual weight baseline: return %.2f%%, volatility %.2f%%, Sharpe %.2f\n",
		r.EqualWeight.AnnualReturn*100, r.EqualWeight.Volatility*100, r.EqualWeight.Sharpe)
	return b.String()
}

// Summary renders one strategy's scores and warnings.
func (s Strategy) Summary() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s\n", s.Name)
	fmt.Fprintf(&b, "Expected annual return: %.2f%%\n", s.Performance.AnnualReturn*100)
	fmt.Fprintf(&b, "Portfolio risk (variance): %.4f%%\n", s.Performance.Variance*100)
	fmt.Fprintf(&b, "Volatility: %.2f%%  Sharpe: %.2f\n", s.Performance.Volatility*100, s.Performance.Sharpe)
	if len(s.Solution.Clipped) > 0 {
		fmt.Fprintf(&b, "Short positions removed: %s\n", strings.Join(s.Solution.Clipped, ", "))
	}
	for _, w := range s.Warnings {
		fmt.Fprintf(&b, "Warning: %s\n", w.Message)
	}
	return b.String()
}

// Summary renders the backtest comparison.
func (r *BacktestResult) Summary() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Fitted %s to %s, tested %s to %s\n\n",
		r.TrainFrom.Format("2006-01-02"), r.TrainTo.Format("2006-01-02"),
		r.TestFrom.Format("2006-01-02"), r.TestTo.Format("2006-01-02"))
	for _, leg := range []BacktestLeg{r.MinRisk, r.Target} {
		fmt.Fprintf(&b, "%s\n", leg.Strategy)
		fmt.Fprintf(&b, "Risk fitted %.4f, realized %.4f, improvement %.2f%%\n",
			leg.InSampleVariance, leg.OutOfSampleVariance, leg.RiskImprovementPct)
		if leg.Holding != nil {
			fmt.Fprintf(&b, "Held: return %.2f%%, volatility %.2f%%, max drawdown %.2f%%\n",
				leg.Holding.TotalReturn, leg.Holding.Volatility, leg.Holding.MaxDrawdown)
		}
		b.WriteString("\n")
	}
	return b.String()
}
