package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// DateLayout is the calendar date format used for purchase dates and CSV files
const DateLayout = "2006-01-02"

// Holding represents a stock position owned by one user
type Holding struct {
	ID            int             `json:"id"`
	Username      string          `json:"username"`
	Symbol        string          `json:"symbol"`
	Quantity      decimal.Decimal `json:"quantity"`
	PurchasePrice decimal.Decimal `json:"purchase_price"`
	PurchaseDate  time.Time       `json:"purchase_date"`
	StockName     string          `json:"stock_name,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// Cost returns quantity * purchase price
func (h *Holding) Cost() decimal.Decimal {
	return h.Quantity.Mul(h.PurchasePrice)
}

// HoldingValuation is a holding priced at the current market
type HoldingValuation struct {
	Holding
	CurrentPrice    decimal.Decimal `json:"current_price"`
	PriceIsStale    bool            `json:"price_is_stale,omitempty"`
	CostBasis       decimal.Decimal `json:"cost"`
	MarketValue     decimal.Decimal `json:"value"`
	GainLoss        decimal.Decimal `json:"gain_loss"`
	GainLossPercent decimal.Decimal `json:"gain_loss_percent"`
}

// PortfolioValue holds portfolio totals
type PortfolioValue struct {
	TotalValue           decimal.Decimal `json:"total_value"`
	TotalCost            decimal.Decimal `json:"total_cost"`
	TotalGainLoss        decimal.Decimal `json:"total_gain_loss"`
	TotalGainLossPercent decimal.Decimal `json:"total_gain_loss_percent"`
}

// PortfolioSummary is the full performance view of a user's portfolio
type PortfolioSummary struct {
	Username       string                     `json:"username"`
	Value          PortfolioValue             `json:"portfolio_value"`
	Holdings       []*HoldingValuation        `json:"holdings"`
	HoldingsCount  int                        `json:"holdings_count"`
	Allocation     map[string]decimal.Decimal `json:"allocation"`
	BestPerformer  *HoldingValuation          `json:"best_performer,omitempty"`
	WorstPerformer *HoldingValuation          `json:"worst_performer,omitempty"`
	LastUpdated    time.Time                  `json:"last_updated"`
}

// Rebalance actions
const (
	RebalanceBuy  = "BUY"
	RebalanceSell = "SELL"
)

// RebalanceSuggestion proposes moving a symbol toward its target allocation
type RebalanceSuggestion struct {
	Symbol            string          `json:"symbol"`
	Action            string          `json:"action"`
	CurrentAllocation decimal.Decimal `json:"current_allocation"`
	TargetAllocation  decimal.Decimal `json:"target_allocation"`
	Difference        decimal.Decimal `json:"difference"`
}
