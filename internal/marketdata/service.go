package marketdata

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/trogers1052/stock-tracker/internal/metrics"
	"github.com/trogers1052/stock-tracker/internal/models"
)

// Fetcher retrieves market data from an upstream source
type Fetcher interface {
	FetchHistory(ctx context.Context, symbol, period string) (*models.PriceSeries, error)
	FetchHistoryRange(ctx context.Context, symbol string, start, end time.Time) (*models.PriceSeries, error)
	FetchQuote(ctx context.Context, symbol string) (*models.Quote, error)
}

// Store caches bars and stock metadata
type Store interface {
	SavePriceSeries(series *models.PriceSeries) error
	GetPriceDataRange(symbol string, startDate, endDate time.Time) ([]*models.PriceDataDaily, error)
	GetPriceDataBySymbol(symbol string, limit int) ([]*models.PriceDataDaily, error)
	SaveStock(s *models.Stock) error
}

// Service fetches fresh data and falls back to the stored bars when the
// upstream fails. The store is a fallback, never the source of truth.
type Service struct {
	fetcher Fetcher
	store   Store
	metrics *metrics.Metrics
	now     func() time.Time
}

// NewService creates a market data service. store and m may be nil.
func NewService(fetcher Fetcher, store Store, m *metrics.Metrics) *Service {
	return &Service{
		fetcher: fetcher,
		store:   store,
		metrics: m,
		now:     time.Now,
	}
}

// NormalizeSymbol trims and upper-cases a ticker
func NormalizeSymbol(symbol string) string {
	return strings.ToUpper(strings.TrimSpace(symbol))
}

// History returns daily bars for period
func (s *Service) History(ctx context.Context, symbol, period string) (*models.PriceSeries, error) {
	symbol = NormalizeSymbol(symbol)
	if symbol == "" {
		return nil, fmt.Errorf("empty symbol: %w", ErrNoData)
	}
	if !ValidPeriod(period) {
		return nil, fmt.Errorf("unsupported period %q", period)
	}

	series, err := s.fetcher.FetchHistory(ctx, symbol, period)
	if err == nil {
		s.metrics.ObserveMarketData("history", "upstream")
		s.save(series)
		return series, nil
	}
	s.metrics.ObserveMarketDataError("history")

	end := s.now().UTC()
	return s.fromStore(symbol, PeriodStart(end, period), end, err)
}

// HistoryRange returns daily bars between start and end, inclusive
func (s *Service) HistoryRange(ctx context.Context, symbol string, start, end time.Time) (*models.PriceSeries, error) {
	symbol = NormalizeSymbol(symbol)
	if symbol == "" {
		return nil, fmt.Errorf("empty symbol: %w", ErrNoData)
	}

	series, err := s.fetcher.FetchHistoryRange(ctx, symbol, start, end)
	if err == nil {
		s.metrics.ObserveMarketData("history", "upstream")
		s.save(series)
		return series, nil
	}
	s.metrics.ObserveMarketDataError("history")
	return s.fromStore(symbol, start, end, err)
}

// Quote returns the latest price of symbol
func (s *Service) Quote(ctx context.Context, symbol string) (*models.Quote, error) {
	symbol = NormalizeSymbol(symbol)
	if symbol == "" {
		return nil, fmt.Errorf("empty symbol: %w", ErrNoData)
	}

	q, err := s.fetcher.FetchQuote(ctx, symbol)
	if err == nil {
		s.metrics.ObserveMarketData("quote", "upstream")
		if s.store != nil && q.Name != "" {
			stock := &models.Stock{Symbol: symbol, Name: q.Name, Exchange: q.Exchange, Currency: q.Currency}
			if err := s.store.SaveStock(stock); err != nil {
				slog.Warn("failed to save stock metadata", "symbol", symbol, "error", err)
			}
		}
		return q, nil
	}
	s.metrics.ObserveMarketDataError("quote")

	if s.store == nil {
		return nil, noData(err)
	}
	prices, storeErr := s.store.GetPriceDataBySymbol(symbol, 2)
	if storeErr != nil || len(prices) == 0 {
		if storeErr != nil {
			slog.Warn("price cache lookup failed", "symbol", symbol, "error", storeErr)
		}
		return nil, noData(err)
	}

	slog.Warn("quote fetch failed, using cached close", "symbol", symbol, "error", err)
	s.metrics.ObserveMarketData("quote", "cache")
	last := prices[len(prices)-1]
	q = &models.Quote{Symbol: symbol, Price: last.Close, Time: last.Date}
	if len(prices) == 2 {
		q.PreviousClose = prices[0].Close
	}
	return q, nil
}

// Quotes fetches a quote per symbol. Failed symbols are left out and their
// errors returned keyed by symbol.
func (s *Service) Quotes(ctx context.Context, symbols []string) (map[string]*models.Quote, map[string]error) {
	quotes := make(map[string]*models.Quote, len(symbols))
	errs := make(map[string]error)
	for _, symbol := range symbols {
		q, err := s.Quote(ctx, symbol)
		if err != nil {
			errs[NormalizeSymbol(symbol)] = err
			continue
		}
		quotes[q.Symbol] = q
	}
	return quotes, errs
}

func (s *Service) save(series *models.PriceSeries) {
	if s.store == nil || series.Len() == 0 {
		return
	}
	if err := s.store.SavePriceSeries(series); err != nil {
		slog.Warn("failed to cache price history", "symbol", series.Symbol, "error", err)
	}
}

func (s *Service) fromStore(symbol string, start, end time.Time, fetchErr error) (*models.PriceSeries, error) {
	if s.store == nil {
		return nil, noData(fetchErr)
	}
	prices, err := s.store.GetPriceDataRange(symbol, start, end)
	if err != nil {
		slog.Warn("price cache lookup failed", "symbol", symbol, "error", err)
		return nil, noData(fetchErr)
	}
	if len(prices) == 0 {
		return nil, noData(fetchErr)
	}

	slog.Warn("history fetch failed, using cached bars", "symbol", symbol, "bars", len(prices), "error", fetchErr)
	s.metrics.ObserveMarketData("history", "cache")
	series := &models.PriceSeries{Symbol: symbol, Bars: make([]models.Bar, 0, len(prices))}
	for _, p := range prices {
		series.Bars = append(series.Bars, p.Bar())
	}
	return series, nil
}

func noData(err error) error {
	if errors.Is(err, ErrNoData) {
		return err
	}
	return fmt.Errorf("%v: %w", err, ErrNoData)
}

// PeriodStart returns the first calendar day covered by period ending at end
func PeriodStart(end time.Time, period string) time.Time {
	switch period {
	case "1d":
		return end.AddDate(0, 0, -1)
	case "5d":
		return end.AddDate(0, 0, -7)
	case "1mo":
		return end.AddDate(0, -1, 0)
	case "3mo":
		return end.AddDate(0, -3, 0)
	case "6mo":
		return end.AddDate(0, -6, 0)
	case "1y":
		return end.AddDate(-1, 0, 0)
	case "2y":
		return end.AddDate(-2, 0, 0)
	case "5y":
		return end.AddDate(-5, 0, 0)
	case "10y":
		return end.AddDate(-10, 0, 0)
	case "ytd":
		return time.Date(end.Year(), time.January, 1, 0, 0, 0, 0, time.UTC)
	}
	return time.Time{}
}
