package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"markowitzBot/internal/engine"
	"markowitzBot/internal/finance"
	"markowitzBot/internal/markowitz"
)

// NewHTTPMux registers the health check, the JSON optimize endpoint and, when webhook is
// non-nil, the telegram webhook.
func NewHTTPMux(webhook http.HandlerFunc, optimize http.Handler) *http.ServeMux {
	mux := http.NewServeMux()
	if webhook != nil {
		mux.HandleFunc("/telegram/webhook", webhook)
	}
	mux.Handle("/api/optimize", optimize)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })
	return mux
}

func ListenAndServe(addr string, mux *http.ServeMux) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return srv.ListenAndServe()
}

// RunFunc runs one session; engine.Run bound to a fetcher in production.
type RunFunc func(ctx context.Context, req engine.Request) (*engine.Result, error)

// OptimizeRequest overrides the configured session. Every field is optional.
type OptimizeRequest struct {
	Tickers         []string         `json:"tickers"`
	Start           string           `json:"start"`
	End             string           `json:"end"`
	Capital         *decimal.Decimal `json:"capital"`
	TargetReturnPct *float64         `json:"target_return_pct"`
	RiskFreeRate    *float64         `json:"risk_free_rate"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// OptimizeHandler serves POST /api/optimize. defaults supplies every field the body omits.
func OptimizeHandler(run RunFunc, defaults engine.Request) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.Header().Set("Allow", http.MethodPost)
			writeJSON(w, http.StatusMethodNotAllowed, errorResponse{Error: "method not allowed"})
			return
		}
		var body OptimizeRequest
		dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&body); err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "bad request: " + err.Error()})
			return
		}
		req, err := body.merge(defaults)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
			return
		}
		if err := req.Params.Validate(); err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
			return
		}

		res, err := run(r.Context(), req)
		if err != nil {
			status := statusFor(err)
			logrus.WithError(err).WithField("status", status).Warn("http: optimize failed")
			writeJSON(w, status, errorResponse{Error: err.Error()})
			return
		}
		writeJSON(w, http.StatusOK, res)
	})
}

func (b OptimizeRequest) merge(defaults engine.Request) (engine.Request, error) {
	req := defaults
	if len(b.Tickers) > 0 {
		req.Tickers = normalizeTickers(b.Tickers)
		if len(req.Tickers) == 0 {
			return engine.Request{}, errors.New("tickers: no symbols given")
		}
	}
	if b.Start != "" {
		d, err := finance.ParseDay(b.Start)
		if err != nil {
			return engine.Request{}, errors.New("start: expected YYYY-MM-DD")
		}
		req.Start = d
	}
	if b.End != "" {
		d, err := finance.ParseDay(b.End)
		if err != nil {
			return engine.Request{}, errors.New("end: expected YYYY-MM-DD")
		}
		req.End = d
	}
	if b.Capital != nil {
		req.Params.Capital = *b.Capital
	}
	if b.TargetReturnPct != nil {
		req.Params.TargetAnnualPct = *b.TargetReturnPct
	}
	if b.RiskFreeRate != nil {
		req.Params.RiskFreeRate = *b.RiskFreeRate
	}
	if !req.End.After(req.Start) {
		return engine.Request{}, fmt.Errorf("end %s must be after start %s", req.End.Format(time.DateOnly), req.Start.Format(time.DateOnly))
	}
	return req, nil
}

// normalizeTickers upper-cases and trims symbols, dropping blanks and repeats.
func normalizeTickers(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
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

func statusFor(err error) int {
	switch {
	case errors.Is(err, finance.ErrDataUnavailable):
		return http.StatusBadGateway
	case errors.Is(err, finance.ErrInsufficientData),
		errors.Is(err, markowitz.ErrSingularCovariance),
		errors.Is(err, markowitz.ErrDimensionMismatch):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	buf, err := json.Marshal(v)
	if err != nil {
		logrus.WithError(err).Error("http: encode response")
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error":"response could not be encoded"}`))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(buf)
}
