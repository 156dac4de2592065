// Package allocation turns a weight vector into the table and bar-chart data shown to users.
package allocation

import (
	"bytes"
	"fmt"
	"text/tabwriter"

	"github.com/shopspring/decimal"
)

// TotalLabel names the aggregate row.
const TotalLabel = "Total"

// Row is one ticker, or the Total row.
type Row struct {
	Ticker     string          `json:"ticker"`
	Weight     float64         `json:"weight"`
	Percentage string          `json:"percentage"`
	Investment decimal.Decimal `json:"investment"`
}

// Table is a presentation view over a weight vector, rebuilt on demand.
type Table struct {
	Rows          []Row `json:"rows"`
	Total         Row   `json:"total"`
	HasInvestment bool  `json:"has_investment"`
}

// Options select the optional investment column. Dollars are only distributed when an
// amount is given and the weights come from a target-return solve.
type Options struct {
	Distributable *decimal.Decimal
	TargetContext bool
}

// Build creates the table. Each investment is (weight / sum(weights)) * distributable, so the
// amount is spread by relative weight even when the weights do not sum to 1.
func Build(tickers []string, weights []float64, opts Options) (Table, error) {
	if len(tickers) != len(weights) {
		return Table{}, fmt.Errorf("tickers and weights length mismatch: %d vs %d", len(tickers), len(weights))
	}

	sum := 0.0
	for _, w := range weights {
		sum += w
	}
	t := Table{
		Rows:          make([]Row, len(tickers)),
		HasInvestment: opts.Distributable != nil && opts.TargetContext,
	}
	total := decimal.Zero
	for i, ticker := range tickers {
		row := Row{
			Ticker:     ticker,
			Weight:     weights[i],
			Percentage: formatPercent(weights[i]),
			Investment: decimal.Zero,
		}
		if t.HasInvestment && sum != 0 {
			row.Investment = decimal.NewFromFloat(weights[i] / sum).Mul(*opts.Distributable)
			total = total.Add(row.Investment)
		}
		t.Rows[i] = row
	}
	t.Total = Row{
		Ticker:     TotalLabel,
		Weight:     sum,
		Percentage: formatPercent(sum),
		Investment: total,
	}
	return t, nil
}

// RequiredInvestment is sum(weights) * capital, the amount a target-return solution deploys.
func RequiredInvestment(weights []float64, capital decimal.Decimal) decimal.Decimal {
	sum := 0.0
	for _, w := range weights {
		sum += w
	}
	return capital.Mul(decimal.NewFromFloat(sum))
}

// Text renders the table in fixed-width columns for chat and terminals.
func (t Table) Text() string {
	var buf bytes.Buffer
	tw := tabwriter.NewWriter(&buf, 0, 0, 2, ' ', tabwriter.AlignRight)
	if t.HasInvestment {
		fmt.Fprintln(tw, "Ticker\tWeight\tAllocation\tInvestment ($)\t")
	} else {
		fmt.Fprintln(tw, "Ticker\tWeight\tAllocation\t")
	}
	for _, r := range append(append([]Row(nil), t.Rows...), t.Total) {
		if t.HasInvestment {
			fmt.Fprintf(tw, "%s\t%.4f\t%s\t%s\t\n", r.Ticker, r.Weight, r.Percentage, r.Investment.StringFixed(2))
		} else {
			fmt.Fprintf(tw, "%s\t%.4f\t%s\t\n", r.Ticker, r.Weight, r.Percentage)
		}
	}
	tw.Flush()
	return buf.String()
}

func formatPercent(w float64) string {
	return fmt.Sprintf("%.2f%%", w*100)
}
