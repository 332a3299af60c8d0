package models

import (
	"time"
)

// Common indicator type constants
const (
	IndicatorSMA20      = "SMA_20"
	IndicatorSMA50      = "SMA_50"
	IndicatorSMA200     = "SMA_200"
	IndicatorEMA12      = "EMA_12"
	IndicatorEMA26      = "EMA_26"
	IndicatorRSI14      = "RSI_14"
	IndicatorWilliamsR  = "WILLIAMS_R"
	IndicatorBBUpper    = "BB_UPPER"
	IndicatorBBMiddle   = "BB_MIDDLE"
	IndicatorBBLower    = "BB_LOWER"
	IndicatorATR14      = "ATR_14"
	IndicatorMACD       = "MACD"
	IndicatorMACDSignal = "MACD_SIGNAL"
	IndicatorMACDHist   = "MACD_HIST"
	IndicatorStochK     = "STOCH_K"
	IndicatorStochD     = "STOCH_D"
	IndicatorCCI        = "CCI"
	IndicatorVWAP       = "VWAP"
	IndicatorOBV        = "OBV"
)

// TimeframeDaily is the only timeframe the tracker computes today
const TimeframeDaily = "daily"

// TechnicalIndicator represents a persisted indicator value
type TechnicalIndicator struct {
	ID            int       `json:"id"`
	Symbol        string    `json:"symbol"`
	Date          time.Time `json:"date"`
	IndicatorType string    `json:"indicator_type"`
	Value         float64   `json:"value"`
	Timeframe     string    `json:"timeframe"`
	CreatedAt     time.Time `json:"created_at"`
}

// Signal actions
const (
	SignalBuy     = "BUY"
	SignalSell    = "SELL"
	SignalNeutral = "NEUTRAL"
)

// TradingSignal is a rule-of-thumb reading of one indicator family
type TradingSignal struct {
	Indicator string `json:"indicator"`
	Action    string `json:"action"`
	Reason    string `json:"reason,omitempty"`
}
