package indicators

// Default MACD parameters
const (
	MACDFast   = 12
	MACDSlow   = 26
	MACDSignal = 9
)

// MACDResult holds the three MACD series
type MACDResult struct {
	Line      Series
	Signal    Series
	Histogram Series
}

// MACD computes the MACD line (EMA fast - EMA slow), its signal line (EMA of
// the line) and the histogram (line - signal). The line is defined from index
// max(fast,slow)-1 and the signal a further signal-1 bars later.
func MACD(values []float64, fast, slow, signal int) MACDResult {
	n := len(values)
	res := MACDResult{
		Line:      undefined(n),
		Signal:    undefined(n),
		Histogram: undefined(n),
	}
	if fast <= 0 || slow <= 0 || signal <= 0 {
		return res
	}

	fastEMA := EMA(values, fast)
	slowEMA := EMA(values, slow)
	for i := 0; i < n; i++ {
		if fastEMA[i].Valid && slowEMA[i].Valid {
			res.Line[i] = defined(fastEMA[i].Float64 - slowEMA[i].Float64)
		}
	}

	res.Signal = emaOfSeries(res.Line, signal)
	for i := 0; i < n; i++ {
		if res.Line[i].Valid && res.Signal[i].Valid {
			res.Histogram[i] = defined(res.Line[i].Float64 - res.Signal[i].Float64)
		}
	}
	return res
}
