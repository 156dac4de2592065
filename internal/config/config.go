package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"markowitzBot/internal/engine"
	"markowitzBot/internal/finance"
)

var defaultTickers = []string{"AAPL", "JNJ", "PG", "JPM", "XOM", "AMZN", "KO", "MSFT", "GOLD", "CVX"}

type Config struct {
	TelegramToken    string
	WebhookPublicURL string
	OpenAIKey        string
	Port             string
	DBPath           string
	FallbackCSV      string

	Tickers []string
	Start   time.Time
	End     time.Time
	Params  engine.Params

	FetchRetries int
	FetchDelay   time.Duration
	FetchTimeout time.Duration

	LogLevel  string
	LogFormat string
	LogFile   string
}

// Load reads .env (when present) and the environment. Malformed values fall back to defaults
// with a warning; Validate reports out-of-range values.
func Load() Config {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		logrus.Warnf("config: .env not loaded: %v", err)
	}

	params := engine.DefaultParams()
	params.Capital = decimal.NewFromFloat(envFloat("CAPITAL", engine.DefaultCapital))
	params.TargetAnnualPct = envFloat("TARGET_RETURN_PCT", engine.DefaultTarget)
	params.RiskFreeRate = envFloat("RISK_FREE_RATE", engine.DefaultRiskFree)

	return Config{
		TelegramToken:    os.Getenv("TELEGRAM_BOT_TOKEN"),
		WebhookPublicURL: os.Getenv("WEBHOOK_PUBLIC_URL"),
		OpenAIKey:        os.Getenv("OPENAI_API_KEY"),
		Port:             envString("PORT", "9095"),
		DBPath:           envString("DB_PATH", "/app/data/prices.db"),
		FallbackCSV:      envString("FALLBACK_CSV", "data/stock_data.csv"),
		Tickers:          envList("TICKERS", defaultTickers),
		Start:            envDay("START_DATE", "2015-01-01"),
		End:              envDay("END_DATE", "2023-12-30"),
		Params:           params,
		FetchRetries:     envInt("FETCH_RETRIES", 3),
		FetchDelay:       envDuration("FETCH_DELAY", 5*time.Second),
		FetchTimeout:     envDuration("FETCH_TIMEOUT", 20*time.Second),
		LogLevel:         envString("LOG_LEVEL", "info"),
		LogFormat:        envString("LOG_FORMAT", "text"),
		LogFile:          os.Getenv("LOG_FILE"),
	}
}

func (c Config) Validate() error {
	if len(c.Tickers) == 0 {
		return fmt.Errorf("TICKERS must name at least one symbol")
	}
	if !c.End.After(c.Start) {
		return fmt.Errorf("END_DATE %s must be after START_DATE %s", c.End.Format("2006-01-02"), c.Start.Format("2006-01-02"))
	}
	if c.FetchRetries < 1 {
		return fmt.Errorf("FETCH_RETRIES must be at least 1, got %d", c.FetchRetries)
	}
	if c.TelegramToken != "" && c.WebhookPublicURL == "" {
		return fmt.Errorf("missing env WEBHOOK_PUBLIC_URL (required with TELEGRAM_BOT_TOKEN)")
	}
	return c.Params.Validate()
}

// TelegramEnabled reports whether the bot shell should start.
func (c Config) TelegramEnabled() bool { return c.TelegramToken != "" }

func envString(k, def string) string {
	if v := strings.TrimSpace(os.Getenv(k)); v != "" {
		return v
	}
	return def
}

func envList(k string, def []string) []string {
	v := os.Getenv(k)
	if strings.TrimSpace(v) == "" {
		return append([]string(nil), def...)
	}
	seen := map[string]struct{}{}
	var out []string
	for _, s := range strings.Split(v, ",") {
		s = strings.ToUpper(strings.TrimSpace(s))
		if s == "" {
			continue
		}
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}

func envFloat(k string, def float64) float64 {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	if err != nil {
		logrus.Warnf("config: invalid %s=%q, using %v", k, v, def)
		return def
	}
	return f
}

func envInt(k string, def int) int {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		logrus.Warnf("config: invalid %s=%q, using %d", k, v, def)
		return def
	}
	return n
}

func envDuration(k string, def time.Duration) time.Duration {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(strings.TrimSpace(v))
	if err != nil {
		logrus.Warnf("config: invalid %s=%q, using %s", k, v, def)
		return def
	}
	return d
}

func envDay(k, def string) time.Time {
	v := envString(k, def)
	d, err := finance.ParseDay(v)
	if err != nil {
		logrus.Warnf("config: invalid %s=%q, using %s", k, v, def)
		d, _ = finance.ParseDay(def)
	}
	return d
}
