package indicators

import (
	"math"
)

// Default oscillator parameters
const (
	StochasticK   = 14
	StochasticD   = 3
	WilliamsRLen  = 14
	ATRPeriod     = 14
	CCIPeriod     = 20
	cciMultiplier = 0.015
)

// StochasticResult holds %K and its %D smoothing
type StochasticResult struct {
	K Series
	D Series
}

// Stochastic computes %K = 100*(close-LL)/(HH-LL) over kPeriod bars and %D as
// the SMA of %K over dPeriod. A flat window (HH == LL) reads 50.
func Stochastic(highs, lows, closes []float64, kPeriod, dPeriod int) StochasticResult {
	n := len(closes)
	res := StochasticResult{K: undefined(n), D: undefined(n)}
	if kPeriod <= 0 || dPeriod <= 0 || !sameLength(highs, lows, closes) || n < kPeriod {
		return res
	}

	for i := kPeriod - 1; i < n; i++ {
		hh, ll := windowRange(highs, lows, i-kPeriod+1, i)
		if hh == ll {
			res.K[i] = defined(50)
			continue
		}
		res.K[i] = defined(100 * (closes[i] - ll) / (hh - ll))
	}
	res.D = smaOfSeries(res.K, dPeriod)
	return res
}

// WilliamsR computes %R = -100*(HH-close)/(HH-LL), bounded to [-100, 0].
// A flat window reads -50.
func WilliamsR(highs, lows, closes []float64, period int) Series {
	n := len(closes)
	out := undefined(n)
	if period <= 0 || !sameLength(highs, lows, closes) || n < period {
		return out
	}

	for i := period - 1; i < n; i++ {
		hh, ll := windowRange(highs, lows, i-period+1, i)
		if hh == ll {
			out[i] = defined(-50)
			continue
		}
		out[i] = defined(-100 * (hh - closes[i]) / (hh - ll))
	}
	return out
}

// TrueRange returns max(high-low, |high-prevClose|, |low-prevClose|) per bar.
// The first bar has no previous close and uses high-low.
func TrueRange(highs, lows, closes []float64) []float64 {
	if !sameLength(highs, lows, closes) {
		return nil
	}
	out := make([]float64, len(closes))
	for i := range closes {
		tr := highs[i] - lows[i]
		if i > 0 {
			tr = math.Max(tr, math.Abs(highs[i]-closes[i-1]))
			tr = math.Max(tr, math.Abs(lows[i]-closes[i-1]))
		}
		out[i] = tr
	}
	return out
}

// ATR computes the Average True Range as the SMA of true range.
func ATR(highs, lows, closes []float64, period int) Series {
	if !sameLength(highs, lows, closes) {
		return undefined(len(closes))
	}
	return SMA(TrueRange(highs, lows, closes), period)
}

// CCI computes the Commodity Channel Index over the typical price
// (high+low+close)/3. A window with zero mean deviation reads 0.
func CCI(highs, lows, closes []float64, period int) Series {
	n := len(closes)
	out := undefined(n)
	if period <= 0 || !sameLength(highs, lows, closes) || n < period {
		return out
	}

	tp := typicalPrice(highs, lows, closes)
	sma := SMA(tp, period)
	for i := period - 1; i < n; i++ {
		mean := sma[i].Float64
		mad := 0.0
		for _, v := range tp[i-period+1 : i+1] {
			mad += math.Abs(v - mean)
		}
		mad /= float64(period)
		if mad == 0 {
			out[i] = defined(0)
			continue
		}
		out[i] = defined((tp[i] - mean) / (cciMultiplier * mad))
	}
	return out
}

// VWAP computes the cumulative volume weighted average of the typical price.
// Bars before any volume has traded are undefined.
func VWAP(highs, lows, closes, volumes []float64) Series {
	n := len(closes)
	out := undefined(n)
	if !sameLength(highs, lows, closes) || len(volumes) != n {
		return out
	}

	tp := typicalPrice(highs, lows, closes)
	var cumPV, cumVol float64
	for i := 0; i < n; i++ {
		cumPV += tp[i] * volumes[i]
		cumVol += volumes[i]
		if cumVol > 0 {
			out[i] = defined(cumPV / cumVol)
		}
	}
	return out
}

// OBV computes On-Balance Volume starting from the first bar's volume.
func OBV(closes, volumes []float64) Series {
	n := len(closes)
	out := undefined(n)
	if n == 0 || len(volumes) != n {
		return out
	}

	obv := volumes[0]
	out[0] = defined(obv)
	for i := 1; i < n; i++ {
		switch {
		case closes[i] > closes[i-1]:
			obv += volumes[i]
		case closes[i] < closes[i-1]:
			obv -= volumes[i]
		}
		out[i] = defined(obv)
	}
	return out
}

func typicalPrice(highs, lows, closes []float64) []float64 {
	out := make([]float64, len(closes))
	for i := range closes {
		out[i] = (highs[i] + lows[i] + closes[i]) / 3
	}
	return out
}

// windowRange returns the highest high and lowest low over [from, to]
func windowRange(highs, lows []float64, from, to int) (float64, float64) {
	hh, ll := highs[from], lows[from]
	for j := from + 1; j <= to; j++ {
		hh = math.Max(hh, highs[j])
		ll = math.Min(ll, lows[j])
	}
	return hh, ll
}

func sameLength(a, b, c []float64) bool {
	return len(a) == len(b) && len(b) == len(c)
}
