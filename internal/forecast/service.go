package forecast

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/trogers1052/stock-tracker/internal/database"
	"github.com/trogers1052/stock-tracker/internal/marketdata"
	"github.com/trogers1052/stock-tracker/internal/models"
)

// DefaultListLimit caps List when the caller passes no limit
const DefaultListLimit = 20

// MarketData supplies the training history
type MarketData interface {
	History(ctx context.Context, symbol, period string) (*models.PriceSeries, error)
}

// Store persists forecast runs
type Store interface {
	CreateForecast(f *models.Forecast) error
	GetForecast(username string, id int) (*models.Forecast, error)
	GetForecasts(username string, limit int) ([]*models.Forecast, error)
	DeleteForecast(username string, id int) error
}

// Config holds forecast defaults
type Config struct {
	Seed    uint64
	Period  string
	MaxDays int
}

// Service runs forecasts over fetched history and keeps the results
type Service struct {
	market MarketData
	store  Store
	cfg    Config
}

// NewService creates a forecast service. store may be nil, in which case
// runs are returned but not saved and lookups find nothing.
func NewService(market MarketData, store Store, cfg Config) *Service {
	if cfg.Period == "" {
		cfg.Period = "2y"
	}
	if cfg.MaxDays <= 0 {
		cfg.MaxDays = 90
	}
	return &Service{market: market, store: store, cfg: cfg}
}

// Run fetches history for symbol, predicts days ahead with model and saves
// the run under username
func (s *Service) Run(ctx context.Context, username, symbol, model string, days int) (*models.Forecast, error) {
	if days < 1 || days > s.cfg.MaxDays {
		return nil, fmt.Errorf("%w: %d days, allowed 1 to %d", ErrInvalidHorizon, days, s.cfg.MaxDays)
	}
	model, err := ParseModel(model)
	if err != nil {
		return nil, err
	}

	series, err := s.market.History(ctx, marketdata.NormalizeSymbol(symbol), s.cfg.Period)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	f, err := Predict(series, model, days, s.cfg.Seed)
	if err != nil {
		return nil, err
	}
	f.Username = username
	slog.Info("forecast complete",
		"symbol", f.Symbol,
		"model", f.Model,
		"days", days,
		"bars", series.Len(),
		"mae", f.MAE,
		"rmse", f.RMSE,
		"duration", time.Since(start))

	if s.store != nil && username != "" {
		if err := s.store.CreateForecast(f); err != nil {
			return nil, err
		}
	}
	return f, nil
}

// Get returns a saved run with its points
func (s *Service) Get(username string, id int) (*models.Forecast, error) {
	if s.store == nil {
		return nil, database.ErrNotFound
	}
	return s.store.GetForecast(username, id)
}

// List returns the user's saved runs, newest first
func (s *Service) List(username string, limit int) ([]*models.Forecast, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	if s.store == nil {
		return []*models.Forecast{}, nil
	}
	return s.store.GetForecasts(username, limit)
}

// Delete removes a saved run
func (s *Service) Delete(username string, id int) error {
	if s.store == nil {
		return database.ErrNotFound
	}
	return s.store.DeleteForecast(username, id)
}
