// Package portfolio manages a user's holdings and values them at market prices.
package portfolio

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"github.com/trogers1052/stock-tracker/internal/marketdata"
	"github.com/trogers1052/stock-tracker/internal/models"
)

// ErrInvalidHolding is returned for holdings that fail validation
var ErrInvalidHolding = errors.New("invalid holding")

// Store persists holdings
type Store interface {
	CreateHolding(h *models.Holding) error
	GetHolding(username string, id int) (*models.Holding, error)
	GetHoldings(username string) ([]*models.Holding, error)
	UpdateHolding(h *models.Holding) error
	DeleteHolding(username string, id int) error
	InsertHoldings(username string, holdings []*models.Holding) error
	ReplaceHoldings(username string, holdings []*models.Holding) error
}

// Quoter prices several symbols at once
type Quoter interface {
	Quotes(ctx context.Context, symbols []string) (map[string]*models.Quote, map[string]error)
}

// Publisher announces holding changes
type Publisher interface {
	PublishHoldingAdded(ctx context.Context, h *models.Holding) error
	PublishHoldingRemoved(ctx context.Context, h *models.Holding) error
}

// Service is the portfolio API used by the HTTP handlers and the CLI
type Service struct {
	store     Store
	quoter    Quoter
	publisher Publisher
	now       func() time.Time
}

// NewService creates a portfolio service; publisher may be nil
func NewService(store Store, quoter Quoter, publisher Publisher) *Service {
	return &Service{
		store:     store,
		quoter:    quoter,
		publisher: publisher,
		now:       time.Now,
	}
}

// Validate normalizes the symbol, defaults the purchase date to today and
// checks quantity and price
func Validate(h *models.Holding, today time.Time) error {
	h.Symbol = marketdata.NormalizeSymbol(h.Symbol)
	if h.Username == "" {
		return fmt.Errorf("%w: username is required", ErrInvalidHolding)
	}
	if h.Symbol == "" {
		return fmt.Errorf("%w: symbol is required", ErrInvalidHolding)
	}
	if !h.Quantity.IsPositive() {
		return fmt.Errorf("%w: quantity must be positive", ErrInvalidHolding)
	}
	if !h.PurchasePrice.IsPositive() {
		return fmt.Errorf("%w: purchase price must be positive", ErrInvalidHolding)
	}
	if h.PurchaseDate.IsZero() {
		h.PurchaseDate = today
	}
	h.PurchaseDate = time.Date(h.PurchaseDate.Year(), h.PurchaseDate.Month(), h.PurchaseDate.Day(), 0, 0, 0, 0, time.UTC)
	return nil
}

// Add stores a new holding
func (s *Service) Add(ctx context.Context, h *models.Holding) error {
	if err := Validate(h, s.now().UTC()); err != nil {
		return err
	}
	if err := s.store.CreateHolding(h); err != nil {
		return err
	}
	if s.publisher != nil {
		if err := s.publisher.PublishHoldingAdded(ctx, h); err != nil {
			slog.Warn("failed to publish holding added", "holding_id", h.ID, "error", err)
		}
	}
	return nil
}

// Update changes quantity, price, date or symbol of an existing holding
func (s *Service) Update(h *models.Holding) error {
	if err := Validate(h, s.now().UTC()); err != nil {
		return err
	}
	return s.store.UpdateHolding(h)
}

// Remove deletes one of the user's holdings
func (s *Service) Remove(ctx context.Context, username string, id int) error {
	h, err := s.store.GetHolding(username, id)
	if err != nil {
		return err
	}
	if err := s.store.DeleteHolding(username, id); err != nil {
		return err
	}
	if s.publisher != nil {
		if err := s.publisher.PublishHoldingRemoved(ctx, h); err != nil {
			slog.Warn("failed to publish holding removed", "holding_id", h.ID, "error", err)
		}
	}
	return nil
}

// Get returns one holding
func (s *Service) Get(username string, id int) (*models.Holding, error) {
	return s.store.GetHolding(username, id)
}

// Holdings returns the user's holdings
func (s *Service) Holdings(username string) ([]*models.Holding, error) {
	return s.store.GetHoldings(username)
}

// Valuations prices every holding. A symbol without a current quote is valued
// at its purchase price and flagged stale.
func (s *Service) Valuations(ctx context.Context, username string) ([]*models.HoldingValuation, error) {
	holdings, err := s.store.GetHoldings(username)
	if err != nil {
		return nil, err
	}
	if len(holdings) == 0 {
		return []*models.HoldingValuation{}, nil
	}

	quotes, errs := s.quoter.Quotes(ctx, uniqueSymbols(holdings))
	for symbol, err := range errs {
		slog.Warn("no current price, using purchase price", "symbol", symbol, "error", err)
	}

	prices := make(map[string]decimal.Decimal, len(quotes))
	for symbol, q := range quotes {
		prices[symbol] = decimal.NewFromFloat(q.Price)
	}
	return Valuate(holdings, prices), nil
}

// Value returns portfolio totals
func (s *Service) Value(ctx context.Context, username string) (*models.PortfolioValue, error) {
	vals, err := s.Valuations(ctx, username)
	if err != nil {
		return nil, err
	}
	v := Totals(vals)
	return &v, nil
}

// Summary returns totals, per-holding detail, allocation and best/worst performers
func (s *Service) Summary(ctx context.Context, username string) (*models.PortfolioSummary, error) {
	vals, err := s.Valuations(ctx, username)
	if err != nil {
		return nil, err
	}

	summary := &models.PortfolioSummary{
		Username:      username,
		Value:         Totals(vals),
		Holdings:      vals,
		HoldingsCount: len(vals),
		Allocation:    Allocation(vals),
		LastUpdated:   s.now().UTC(),
	}
	summary.BestPerformer, summary.WorstPerformer = Performers(vals)
	return summary, nil
}

// Rebalance suggests trades toward target (percent by symbol). A nil or
// empty target means equal weight across the current symbols.
func (s *Service) Rebalance(ctx context.Context, username string, target map[string]decimal.Decimal) ([]models.RebalanceSuggestion, error) {
	vals, err := s.Valuations(ctx, username)
	if err != nil {
		return nil, err
	}
	return Suggest(Allocation(vals), target), nil
}

func uniqueSymbols(holdings []*models.Holding) []string {
	seen := make(map[string]bool, len(holdings))
	var symbols []string
	for _, h := range holdings {
		if !seen[h.Symbol] {
			seen[h.Symbol] = true
			symbols = append(symbols, h.Symbol)
		}
	}
	sort.Strings(symbols)
	return symbols
}
