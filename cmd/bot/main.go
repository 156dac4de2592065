package main

import (
	"context"
	"net/http"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"

	"markowitzBot/internal/config"
	"markowitzBot/internal/engine"
	"markowitzBot/internal/finance"
	"markowitzBot/internal/logger"
	"markowitzBot/internal/openai"
	"markowitzBot/internal/server"
	"markowitzBot/internal/storage"
	"markowitzBot/internal/telegram"
)

func main() {
	cfg := config.Load()
	logger.Init(logger.Options{Level: cfg.LogLevel, Format: cfg.LogFormat, File: cfg.LogFile})
	if err := cfg.Validate(); err != nil {
		logrus.Fatalf("config: %v", err)
	}

	// Ensure parent directory for the DB exists
	_ = os.MkdirAll(filepath.Dir(cfg.DBPath), 0o755)
	db, err := storage.OpenSQLite("file:" + cfg.DBPath + "?_busy_timeout=5000")
	if err != nil {
		logrus.Fatal(err)
	}
	defer db.Close()
	logrus.Infof("db: opened sqlite at %s", cfg.DBPath)
	if err := storage.InitSchema(context.Background(), db); err != nil {
		logrus.Fatal(err)
	}
	logrus.Info("db: schema ensured (prices table)")

	prices := storage.NewPriceStore(db)
	csvTable := finance.CSVTable{Path: cfg.FallbackCSV}
	provider := &finance.Provider{
		Source:    finance.NewYahooSource(cfg.FetchTimeout),
		Fallbacks: []finance.PriceTable{prices, csvTable},
		Snapshots: []finance.PriceWriter{prices, csvTable},
		Retries:   cfg.FetchRetries,
		Delay:     cfg.FetchDelay,
	}

	var comment *openai.Commentator
	if cfg.OpenAIKey != "" {
		comment = openai.NewCommentator(cfg.OpenAIKey)
	}

	var webhook http.HandlerFunc
	if cfg.TelegramEnabled() {
		tg, err := telegram.NewBot(cfg.TelegramToken, cfg.WebhookPublicURL, telegram.Session{
			Fetcher:  provider,
			Tickers:  cfg.Tickers,
			Start:    cfg.Start,
			End:      cfg.End,
			Defaults: cfg.Params,
		}, comment)
		if err != nil {
			logrus.Fatal(err)
		}
		logrus.Infof("telegram: bot initialized, webhook target %s", cfg.WebhookPublicURL)
		webhook = tg.WebhookHandler
	} else {
		logrus.Info("telegram: TELEGRAM_BOT_TOKEN not set, bot disabled")
	}

	run := func(ctx context.Context, req engine.Request) (*engine.Result, error) {
		return engine.Run(ctx, provider, req)
	}
	optimize := server.OptimizeHandler(run, engine.Request{
		Tickers: cfg.Tickers,
		Start:   cfg.Start,
		End:     cfg.End,
		Params:  cfg.Params,
	})

	mux := server.NewHTTPMux(webhook, optimize)
	addr := ":" + cfg.Port
	logrus.Infof("http: listening on %s", addr)
	if err := server.ListenAndServe(addr, mux); err != nil {
		logrus.Errorf("server error: %v", err)
		os.Exit(1)
	}
}
