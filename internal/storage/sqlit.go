package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	// Register sqlite3 driver
	_ "github.com/mattn/go-sqlite3"

	"markowitzBot/internal/finance"
)

type DB interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	BeginTx(ctx context.Context, opts *sql.TxOptions) (*sql.Tx, error)
	Close() error
}

// PriceStore is the persisted price table: one row per (ticker, trading day).
type PriceStore struct{ db DB }

var (
	_ finance.PriceTable  = (*PriceStore)(nil)
	_ finance.PriceWriter = (*PriceStore)(nil)
)

func OpenSQLite(dsn string) (*sql.DB, error) {
	return sql.Open("sqlite3", dsn)
}

func InitSchema(ctx context.Context, db DB) error {
	_, err := db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS prices(
		ticker TEXT NOT NULL, day TEXT NOT NULL, close REAL NOT NULL,
		PRIMARY KEY(ticker, day)
	)`)
	return err
}

func NewPriceStore(db DB) *PriceStore { return &PriceStore{db: db} }

// SavePrices upserts every (ticker, day) of ps in one transaction.
func (s *PriceStore) SavePrices(ctx context.Context, ps finance.PriceSeries) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	stmt, err := tx.PrepareContext(ctx, `INSERT OR REPLACE INTO prices(ticker,day,close) VALUES(?,?,?)`)
	if err != nil {
		tx.Rollback()
		return err
	}
	defer stmt.Close()
	for i, ticker := range ps.Tickers {
		for day, d := range ps.Dates {
			if _, err := stmt.ExecContext(ctx, ticker, d.Format("2006-01-02"), ps.Prices[i][day]); err != nil {
				tx.Rollback()
				return fmt.Errorf("save %s %s: %w", ticker, d.Format("2006-01-02"), err)
			}
		}
	}
	return tx.Commit()
}

// LoadPrices reads each ticker over [start, end] and aligns them on common days.
func (s *PriceStore) LoadPrices(ctx context.Context, tickers []string, start, end time.Time) (finance.PriceSeries, error) {
	raw := make([]finance.RawSeries, 0, len(tickers))
	for _, ticker := range tickers {
		rs, err := s.loadTicker(ctx, ticker, start, end)
		if err != nil {
			return finance.PriceSeries{}, err
		}
		if len(rs.Dates) == 0 {
			return finance.PriceSeries{}, fmt.Errorf("no stored prices for %s", ticker)
		}
		raw = append(raw, rs)
	}
	return finance.AlignInner(raw)
}

func (s *PriceStore) loadTicker(ctx context.Context, ticker string, start, end time.Time) (finance.RawSeries, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT day, close FROM prices WHERE ticker=? AND day>=? AND day<=? ORDER BY day ASC`,
		ticker, start.Format("2006-01-02"), end.Format("2006-01-02"))
	if err != nil {
		return finance.RawSeries{}, err
	}
	defer rows.Close()
	rs := finance.RawSeries{Symbol: ticker}
	for rows.Next() {
		var day string
		var close float64
		if err := rows.Scan(&day, &close); err != nil {
			return finance.RawSeries{}, err
		}
		d, err := finance.ParseDay(day)
		if err != nil {
			return finance.RawSeries{}, fmt.Errorf("bad stored day %q for %s: %w", day, ticker, err)
		}
		rs.Dates = append(rs.Dates, d)
		rs.Closes = append(rs.Closes, close)
	}
	return rs, rows.Err()
}
