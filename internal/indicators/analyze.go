package indicators

import (
	"fmt"
	"sort"

	"github.com/trogers1052/stock-tracker/internal/models"
)

// Signal thresholds
const (
	RSIOverbought = 70.0
	RSIOversold   = 30.0
)

// Analysis maps indicator names (models.Indicator*) to their series
type Analysis map[string]Series

// Names returns the indicator names in a stable order
func (a Analysis) Names() []string {
	names := make([]string, 0, len(a))
	for name := range a {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Latest returns the last value of every indicator, omitting undefined ones
func (a Analysis) Latest() map[string]float64 {
	out := make(map[string]float64, len(a))
	for name, s := range a {
		if v, ok := s.Last(); ok {
			out[name] = v
		}
	}
	return out
}

// Analyze computes the standard indicator set over a price series.
// An empty series returns an empty Analysis.
func Analyze(series *models.PriceSeries) Analysis {
	if series == nil || series.Len() == 0 {
		return Analysis{}
	}

	closes := series.Closes()
	highs := series.Highs()
	lows := series.Lows()
	volumes := series.Volumes()

	bb := Bollinger(closes, BollingerPeriod, BollingerK)
	macd := MACD(closes, MACDFast, MACDSlow, MACDSignal)
	stoch := Stochastic(highs, lows, closes, StochasticK, StochasticD)

	return Analysis{
		models.IndicatorSMA20:      SMA(closes, 20),
		models.IndicatorSMA50:      SMA(closes, 50),
		models.IndicatorSMA200:     SMA(closes, 200),
		models.IndicatorEMA12:      EMA(closes, 12),
		models.IndicatorEMA26:      EMA(closes, 26),
		models.IndicatorRSI14:      RSI(closes, 14),
		models.IndicatorWilliamsR:  WilliamsR(highs, lows, closes, WilliamsRLen),
		models.IndicatorBBUpper:    bb.Upper,
		models.IndicatorBBMiddle:   bb.Middle,
		models.IndicatorBBLower:    bb.Lower,
		models.IndicatorATR14:      ATR(highs, lows, closes, ATRPeriod),
		models.IndicatorMACD:       macd.Line,
		models.IndicatorMACDSignal: macd.Signal,
		models.IndicatorMACDHist:   macd.Histogram,
		models.IndicatorStochK:     stoch.K,
		models.IndicatorStochD:     stoch.D,
		models.IndicatorCCI:        CCI(highs, lows, closes, CCIPeriod),
		models.IndicatorVWAP:       VWAP(highs, lows, closes, volumes),
		models.IndicatorOBV:        OBV(closes, volumes),
	}
}

// Signals reads the latest values of an Analysis as BUY/SELL/NEUTRAL calls.
// Families whose inputs are still in warm-up are omitted.
func Signals(a Analysis, closes []float64) []models.TradingSignal {
	var signals []models.TradingSignal

	if rsi, ok := a[models.IndicatorRSI14].Last(); ok {
		sig := models.TradingSignal{Indicator: "RSI", Action: models.SignalNeutral}
		switch {
		case rsi > RSIOverbought:
			sig.Action, sig.Reason = models.SignalSell, fmt.Sprintf("overbought (%.1f)", rsi)
		case rsi < RSIOversold:
			sig.Action, sig.Reason = models.SignalBuy, fmt.Sprintf("oversold (%.1f)", rsi)
		}
		signals = append(signals, sig)
	}

	if sig, ok := crossover("MACD", a[models.IndicatorMACD], a[models.IndicatorMACDSignal],
		"bullish crossover", "bearish crossover"); ok {
		signals = append(signals, sig)
	}

	if sig, ok := crossover("MOVING_AVERAGE", a[models.IndicatorSMA20], a[models.IndicatorSMA50],
		"golden cross", "death cross"); ok {
		signals = append(signals, sig)
	}

	upper, okU := a[models.IndicatorBBUpper].Last()
	lower, okL := a[models.IndicatorBBLower].Last()
	if okU && okL && len(closes) > 0 {
		last := closes[len(closes)-1]
		sig := models.TradingSignal{Indicator: "BOLLINGER_BANDS", Action: models.SignalNeutral}
		switch {
		case last > upper:
			sig.Action, sig.Reason = models.SignalSell, "above upper band"
		case last < lower:
			sig.Action, sig.Reason = models.SignalBuy, "below lower band"
		}
		signals = append(signals, sig)
	}

	return signals
}

// crossover compares the last two bars of fast against slow
func crossover(name string, fast, slow Series, upReason, downReason string) (models.TradingSignal, bool) {
	n := len(fast)
	if n < 2 || len(slow) != n {
		return models.TradingSignal{}, false
	}
	f1, ok1 := fast.At(n - 1)
	f0, ok0 := fast.At(n - 2)
	s1, ok2 := slow.At(n - 1)
	s0, ok3 := slow.At(n - 2)
	if !ok0 || !ok1 || !ok2 || !ok3 {
		return models.TradingSignal{}, false
	}

	sig := models.TradingSignal{Indicator: name, Action: models.SignalNeutral}
	switch {
	case f1 > s1 && f0 <= s0:
		sig.Action, sig.Reason = models.SignalBuy, upReason
	case f1 < s1 && f0 >= s0:
		sig.Action, sig.Reason = models.SignalSell, downReason
	}
	return sig, true
}
