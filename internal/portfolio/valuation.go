package portfolio

import (
	"sort"

	"github.com/shopspring/decimal"
	"github.com/trogers1052/stock-tracker/internal/models"
)

// percentPlaces is the rounding applied to every reported percentage
const percentPlaces = 4

// RebalanceTolerance is the allocation gap, in percentage points, below
// which no trade is suggested
var RebalanceTolerance = decimal.NewFromInt(1)

var hundred = decimal.NewFromInt(100)

// Valuate prices holdings at prices; missing symbols fall back to the purchase price
func Valuate(holdings []*models.Holding, prices map[string]decimal.Decimal) []*models.HoldingValuation {
	out := make([]*models.HoldingValuation, 0, len(holdings))
	for _, h := range holdings {
		price, ok := prices[h.Symbol]
		if !ok {
			price = h.PurchasePrice
		}

		cost := h.Cost()
		value := h.Quantity.Mul(price)
		gain := value.Sub(cost)

		v := &models.HoldingValuation{
			Holding:      *h,
			CurrentPrice: price,
			PriceIsStale: !ok,
			CostBasis:    cost,
			MarketValue:  value,
			GainLoss:     gain,
		}
		if v.StockName == "" {
			v.StockName = h.Symbol
		}
		v.GainLossPercent = percentOf(gain, cost)
		out = append(out, v)
	}
	return out
}

// Totals sums cost and value over valuations
func Totals(vals []*models.HoldingValuation) models.PortfolioValue {
	var t models.PortfolioValue
	for _, v := range vals {
		t.TotalCost = t.TotalCost.Add(v.CostBasis)
		t.TotalValue = t.TotalValue.Add(v.MarketValue)
	}
	t.TotalGainLoss = t.TotalValue.Sub(t.TotalCost)
	t.TotalGainLossPercent = percentOf(t.TotalGainLoss, t.TotalCost)
	return t
}

// Allocation returns each symbol's share of total market value in percent.
// Several lots of one symbol are combined.
func Allocation(vals []*models.HoldingValuation) map[string]decimal.Decimal {
	bySymbol := make(map[string]decimal.Decimal)
	total := decimal.Zero
	for _, v := range vals {
		bySymbol[v.Symbol] = bySymbol[v.Symbol].Add(v.MarketValue)
		total = total.Add(v.MarketValue)
	}

	out := make(map[string]decimal.Decimal, len(bySymbol))
	if !total.IsPositive() {
		return out
	}
	for symbol, value := range bySymbol {
		out[symbol] = percentOf(value, total)
	}
	return out
}

// Performers returns the holdings with the highest and lowest gain percent
func Performers(vals []*models.HoldingValuation) (best, worst *models.HoldingValuation) {
	for _, v := range vals {
		if best == nil || v.GainLossPercent.GreaterThan(best.GainLossPercent) {
			best = v
		}
		if worst == nil || v.GainLossPercent.LessThan(worst.GainLossPercent) {
			worst = v
		}
	}
	return best, worst
}

// Suggest compares current allocation with target and proposes a BUY or SELL
// for every symbol more than RebalanceTolerance points away, largest gap first
func Suggest(current, target map[string]decimal.Decimal) []models.RebalanceSuggestion {
	if len(current) == 0 {
		return []models.RebalanceSuggestion{}
	}
	if len(target) == 0 {
		target = make(map[string]decimal.Decimal, len(current))
		equal := hundred.DivRound(decimal.NewFromInt(int64(len(current))), percentPlaces)
		for symbol := range current {
			target[symbol] = equal
		}
	}

	symbols := make(map[string]bool, len(current)+len(target))
	for s := range current {
		symbols[s] = true
	}
	for s := range target {
		symbols[s] = true
	}

	out := []models.RebalanceSuggestion{}
	for symbol := range symbols {
		cur := current[symbol]
		tgt := target[symbol]
		diff := tgt.Sub(cur)
		if diff.Abs().LessThanOrEqual(RebalanceTolerance) {
			continue
		}
		action := models.RebalanceBuy
		if diff.IsNegative() {
			action = models.RebalanceSell
		}
		out = append(out, models.RebalanceSuggestion{
			Symbol:            symbol,
			Action:            action,
			CurrentAllocation: cur,
			TargetAllocation:  tgt,
			Difference:        diff,
		})
	}

	sort.Slice(out, func(i, j int) bool {
		di, dj := out[i].Difference.Abs(), out[j].Difference.Abs()
		if !di.Equal(dj) {
			return di.GreaterThan(dj)
		}
		return out[i].Symbol < out[j].Symbol
	})
	return out
}

func percentOf(part, whole decimal.Decimal) decimal.Decimal {
	if !whole.IsPositive() {
		return decimal.Zero
	}
	return part.Mul(hundred).DivRound(whole, percentPlaces)
}
