package api

import (
	"net/http"
	"time"

	"github.com/trogers1052/stock-tracker/internal/database"
	"github.com/trogers1052/stock-tracker/internal/indicators"
	"github.com/trogers1052/stock-tracker/internal/marketdata"
	"github.com/trogers1052/stock-tracker/internal/models"
)

type quoteResponse struct {
	*models.Quote
	Change        float64 `json:"change"`
	ChangePercent float64 `json:"change_percent"`
}

// GetQuote handles GET /stocks/{symbol}/quote
func (h *Handler) GetQuote(w http.ResponseWriter, r *http.Request) {
	q, err := h.market.Quote(r.Context(), symbolVar(r))
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, quoteResponse{Quote: q, Change: q.Change(), ChangePercent: q.ChangePercent()})
}

// series resolves the history a request asks for: either ?start=&end= dates
// or a ?period= range
func (h *Handler) series(r *http.Request) (*models.PriceSeries, error) {
	symbol := symbolVar(r)
	q := r.URL.Query()

	if start := q.Get("start"); start != "" {
		from, err := time.Parse(models.DateLayout, start)
		if err != nil {
			return nil, errBadRequest("invalid start date")
		}
		to := time.Now().UTC()
		if end := q.Get("end"); end != "" {
			if to, err = time.Parse(models.DateLayout, end); err != nil {
				return nil, errBadRequest("invalid end date")
			}
		}
		if to.Before(from) {
			return nil, errBadRequest("end is before start")
		}
		return h.market.HistoryRange(r.Context(), symbol, from, to)
	}

	period := q.Get("period")
	if period == "" {
		period = h.period
	}
	if !marketdata.ValidPeriod(period) {
		return nil, errBadRequest("invalid period")
	}
	return h.market.History(r.Context(), symbol, period)
}

// GetHistory handles GET /stocks/{symbol}/history
func (h *Handler) GetHistory(w http.ResponseWriter, r *http.Request) {
	series, err := h.series(r)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, series)
}

type indicatorsResponse struct {
	Symbol     string              `json:"symbol"`
	Dates      []string            `json:"dates"`
	Indicators indicators.Analysis `json:"indicators"`
	Latest     map[string]float64  `json:"latest"`
}

// GetIndicators handles GET /stocks/{symbol}/indicators. ?format=csv returns
// the full table. The latest values are saved as a snapshot.
func (h *Handler) GetIndicators(w http.ResponseWriter, r *http.Request) {
	series, err := h.series(r)
	if err != nil {
		respondError(w, err)
		return
	}
	analysis := indicators.Analyze(series)

	if snap := indicators.Snapshot(series, analysis); len(snap) > 0 {
		if err := h.db.CreateTechnicalIndicatorBatch(snap); err != nil {
			respondError(w, err)
			return
		}
	}

	if r.URL.Query().Get("format") == "csv" {
		setCSVHeaders(w, series.Symbol+"_indicators.csv")
		if err := indicators.WriteCSV(w, series, analysis); err != nil {
			respondError(w, err)
		}
		return
	}

	dates := make([]string, len(series.Bars))
	for i, b := range series.Bars {
		dates[i] = b.Time.Format(models.DateLayout)
	}
	respondJSON(w, http.StatusOK, indicatorsResponse{
		Symbol:     series.Symbol,
		Dates:      dates,
		Indicators: analysis,
		Latest:     analysis.Latest(),
	})
}

// GetIndicatorHistory handles GET /stocks/{symbol}/indicators/{type}/history
func (h *Handler) GetIndicatorHistory(w http.ResponseWriter, r *http.Request) {
	limit, err := intQuery(r, "limit", 30)
	if err != nil {
		respondError(w, err)
		return
	}
	values, err := h.db.GetIndicatorHistory(symbolVar(r), muxVar(r, "type"), limit)
	if err != nil {
		respondError(w, err)
		return
	}
	if values == nil {
		values = []*models.TechnicalIndicator{}
	}
	respondJSON(w, http.StatusOK, values)
}

// GetLatestIndicators handles GET /stocks/{symbol}/indicators/latest and
// serves the stored snapshot without fetching. ?date=YYYY-MM-DD selects the
// snapshot of that session instead.
func (h *Handler) GetLatestIndicators(w http.ResponseWriter, r *http.Request) {
	var values []*models.TechnicalIndicator
	var err error
	if date := r.URL.Query().Get("date"); date != "" {
		on, parseErr := time.Parse(models.DateLayout, date)
		if parseErr != nil {
			respondError(w, errBadRequest("invalid date"))
			return
		}
		values, err = h.db.GetIndicatorsBySymbol(symbolVar(r), on)
	} else {
		values, err = h.db.GetLatestIndicators(symbolVar(r))
	}
	if err != nil {
		respondError(w, err)
		return
	}
	if len(values) == 0 {
		respondError(w, database.ErrNotFound)
		return
	}
	respondJSON(w, http.StatusOK, values)
}

// GetSignals handles GET /stocks/{symbol}/signals
func (h *Handler) GetSignals(w http.ResponseWriter, r *http.Request) {
	series, err := h.series(r)
	if err != nil {
		respondError(w, err)
		return
	}
	signals := indicators.Signals(indicators.Analyze(series), series.Closes())
	if signals == nil {
		signals = []models.TradingSignal{}
	}
	respondJSON(w, http.StatusOK, map[string]any{"symbol": series.Symbol, "signals": signals})
}

type levelsResponse struct {
	Symbol    string                      `json:"symbol"`
	Levels    indicators.Levels           `json:"levels"`
	Fibonacci []indicators.FibonacciLevel `json:"fibonacci"`
}

// GetLevels handles GET /stocks/{symbol}/levels
func (h *Handler) GetLevels(w http.ResponseWriter, r *http.Request) {
	window, err := intQuery(r, "window", indicators.PivotWindow)
	if err != nil {
		respondError(w, err)
		return
	}
	series, err := h.series(r)
	if err != nil {
		respondError(w, err)
		return
	}
	highs, lows := series.Highs(), series.Lows()
	respondJSON(w, http.StatusOK, levelsResponse{
		Symbol:    series.Symbol,
		Levels:    indicators.SupportResistance(highs, lows, window, indicators.MaxLevels),
		Fibonacci: indicators.Fibonacci(highs, lows),
	})
}
