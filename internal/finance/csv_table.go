package finance

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// CSVTable is a price file keyed by date rows and ticker columns:
//
//	Date,AAPL,MSFT
//	2023-01-03,123.63,237.04
//
// Empty cells are treated as missing and dropped by alignment.
type CSVTable struct {
	Path string
}

func (c CSVTable) LoadPrices(ctx context.Context, tickers []string, start, end time.Time) (PriceSeries, error) {
	f, err := os.Open(c.Path)
	if err != nil {
		return PriceSeries{}, err
	}
	defer f.Close()
	return ReadCSV(f, tickers, start, end)
}

// SavePrices overwrites the file with ps.
func (c CSVTable) SavePrices(ctx context.Context, ps PriceSeries) error {
	if err := os.MkdirAll(filepath.Dir(c.Path), 0o755); err != nil {
		return err
	}
	tmp := c.Path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return err
	}
	if err := WriteCSV(f, ps); err != nil {
		f.Close()
		os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, c.Path)
}

// ReadCSV parses a price table and returns the requested tickers aligned within [start, end].
func ReadCSV(r io.Reader, tickers []string, start, end time.Time) (PriceSeries, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return PriceSeries{}, fmt.Errorf("read csv header: %w", err)
	}
	col := make(map[string]int, len(header))
	for i, h := range header[1:] {
		col[strings.ToUpper(strings.TrimSpace(h))] = i + 1
	}
	raw := make([]RawSeries, len(tickers))
	for i, t := range tickers {
		if _, ok := col[strings.ToUpper(t)]; !ok {
			return PriceSeries{}, fmt.Errorf("column %s not found in price table", t)
		}
		raw[i].Symbol = t
	}

	from, to := tradingDay(start), tradingDay(end)
	line := 1
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return PriceSeries{}, fmt.Errorf("read csv line %d: %w", line, err)
		}
		if len(rec) == 0 || strings.TrimSpace(rec[0]) == "" {
			continue
		}
		day, err := parseTableDate(rec[0])
		if err != nil {
			return PriceSeries{}, fmt.Errorf("line %d: bad date %q", line, rec[0])
		}
		if day.Before(from) || day.After(to) {
			continue
		}
		for i, t := range tickers {
			j := col[strings.ToUpper(t)]
			v := math.NaN()
			if j < len(rec) {
				if s := strings.TrimSpace(rec[j]); s != "" {
					if f, err := strconv.ParseFloat(s, 64); err == nil {
						v = f
					}
				}
			}
			raw[i].Dates = append(raw[i].Dates, day)
			raw[i].Closes = append(raw[i].Closes, v)
		}
	}
	return AlignInner(raw)
}

// WriteCSV writes ps in the layout ReadCSV accepts.
func WriteCSV(w io.Writer, ps PriceSeries) error {
	cw := csv.NewWriter(w)
	header := append([]string{"Date"}, ps.Tickers...)
	if err := cw.Write(header); err != nil {
		return err
	}
	rec := make([]string, len(ps.Tickers)+1)
	for day, d := range ps.Dates {
		rec[0] = d.Format(dayLayout)
		for i := range ps.Tickers {
			rec[i+1] = strconv.FormatFloat(ps.Prices[i][day], 'f', -1, 64)
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func parseTableDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range []string{dayLayout, "2006-01-02 15:04:05", time.RFC3339} {
		if t, err := time.Parse(layout, s); err == nil {
			return tradingDay(t), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", s)
}
