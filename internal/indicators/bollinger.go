package indicators

import (
	"gonum.org/v1/gonum/stat"
)

// Default Bollinger parameters
const (
	BollingerPeriod = 20
	BollingerK      = 2.0
)

// BollingerResult holds the three Bollinger bands
type BollingerResult struct {
	Upper  Series
	Middle Series
	Lower  Series
}

// Bollinger computes middle = SMA(period) and upper/lower = middle +/- k
// sample standard deviations over the same window. Upper >= middle >= lower
// wherever defined. period must be at least 2 and k non-negative.
func Bollinger(values []float64, period int, k float64) BollingerResult {
	n := len(values)
	res := BollingerResult{
		Upper:  undefined(n),
		Middle: undefined(n),
		Lower:  undefined(n),
	}
	if period < 2 || k < 0 || n < period {
		return res
	}

	for i := period - 1; i < n; i++ {
		mean, std := stat.MeanStdDev(values[i-period+1:i+1], nil)
		res.Middle[i] = defined(mean)
		res.Upper[i] = defined(mean + k*std)
		res.Lower[i] = defined(mean - k*std)
	}
	return res
}
