package telegram

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"markowitzBot/internal/engine"
	"markowitzBot/internal/finance"
)

// stripCommand removes the leading /command (and any @botname suffix) from input.
func stripCommand(input string) []string {
	parts := strings.Fields(strings.TrimSpace(input))
	if len(parts) > 0 && strings.HasPrefix(parts[0], "/") {
		parts = parts[1:]
	}
	return parts
}

// ParseSessionArgs parses "[capital] [target%]" over defaults.
// Format: /optimize 25000 8%
func ParseSessionArgs(input string, defaults engine.Params) (engine.Params, error) {
	parts := stripCommand(input)
	if len(parts) > 2 {
		return engine.Params{}, fmt.Errorf("too many arguments: expected [capital] [target%%]")
	}
	p := defaults
	if len(parts) >= 1 {
		capital, err := parseCapital(parts[0])
		if err != nil {
			return engine.Params{}, err
		}
		p.Capital = capital
	}
	if len(parts) == 2 {
		target, err := parseTarget(parts[1])
		if err != nil {
			return engine.Params{}, err
		}
		p.TargetAnnualPct = target
	}
	if err := p.Validate(); err != nil {
		return engine.Params{}, err
	}
	return p, nil
}

// ParseBacktestArgs parses "YYYY-MM-DD [target%]" and checks the split falls strictly inside
// the configured window.
// Format: /backtest 2021-01-01 7
func ParseBacktestArgs(input string, defaults engine.Params, start, end time.Time) (time.Time, engine.Params, error) {
	parts := stripCommand(input)
	if len(parts) == 0 || len(parts) > 2 {
		return time.Time{}, engine.Params{}, fmt.Errorf("usage: /backtest YYYY-MM-DD [target%%]")
	}
	split, err := finance.ParseDay(parts[0])
	if err != nil {
		return time.Time{}, engine.Params{}, fmt.Errorf("invalid split date '%s': %w", parts[0], err)
	}
	if !split.After(start) || !end.After(split) {
		return time.Time{}, engine.Params{}, fmt.Errorf("split date must fall between %s and %s",
			start.Format("2006-01-02"), end.Format("2006-01-02"))
	}
	p := defaults
	if len(parts) == 2 {
		if p.TargetAnnualPct, err = parseTarget(parts[1]); err != nil {
			return time.Time{}, engine.Params{}, err
		}
	}
	if err := p.Validate(); err != nil {
		return time.Time{}, engine.Params{}, err
	}
	return split, p, nil
}

func parseCapital(s string) (decimal.Decimal, error) {
	clean := strings.ReplaceAll(strings.TrimPrefix(strings.TrimSpace(s), "$"), ",", "")
	d, err := decimal.NewFromString(clean)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("invalid capital '%s'", s)
	}
	return d, nil
}

func parseTarget(s string) (float64, error) {
	clean := strings.TrimSuffix(strings.TrimSpace(s), "%")
	f, err := strconv.ParseFloat(clean, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid target return '%s'", s)
	}
	return f, nil
}
