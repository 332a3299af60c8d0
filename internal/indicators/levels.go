package indicators

import (
	"sort"
)

// Default support/resistance parameters
const (
	PivotWindow = 20
	MaxLevels   = 5
)

// Levels are the support and resistance prices derived from local pivots.
// Resistance is sorted descending, support ascending; both keep the levels
// nearest the upper end of the range. PivotHighs and PivotLows
// mark each pivot bar with its price and are undefined elsewhere.
type Levels struct {
	Resistance []float64 `json:"resistance"`
	Support    []float64 `json:"support"`
	PivotHighs Series    `json:"pivot_highs"`
	PivotLows  Series    `json:"pivot_lows"`
}

// SupportResistance finds pivot highs (a high that is the maximum of the
// window bars either side of it) and pivot lows, deduplicates them and keeps
// the maxLevels highest prices of each kind.
func SupportResistance(highs, lows []float64, window, maxLevels int) Levels {
	levels := Levels{
		Resistance: []float64{},
		Support:    []float64{},
		PivotHighs: undefined(len(highs)),
		PivotLows:  undefined(len(highs)),
	}
	if window <= 0 || maxLevels <= 0 || len(highs) != len(lows) || len(highs) < 2*window+1 {
		return levels
	}

	resistance := map[float64]struct{}{}
	support := map[float64]struct{}{}
	for i := window; i < len(highs)-window; i++ {
		if isPivotHigh(highs, i, window) {
			resistance[highs[i]] = struct{}{}
			levels.PivotHighs[i] = defined(highs[i])
		}
		if isPivotLow(lows, i, window) {
			support[lows[i]] = struct{}{}
			levels.PivotLows[i] = defined(lows[i])
		}
	}

	for p := range resistance {
		levels.Resistance = append(levels.Resistance, p)
	}
	for p := range support {
		levels.Support = append(levels.Support, p)
	}
	sort.Sort(sort.Reverse(sort.Float64Slice(levels.Resistance)))
	sort.Float64s(levels.Support)

	if len(levels.Resistance) > maxLevels {
		levels.Resistance = levels.Resistance[:maxLevels]
	}
	if len(levels.Support) > maxLevels {
		levels.Support = levels.Support[len(levels.Support)-maxLevels:]
	}
	return levels
}

func isPivotHigh(highs []float64, i, window int) bool {
	for j := i - window; j <= i+window; j++ {
		if highs[j] > highs[i] {
			return false
		}
	}
	return true
}

func isPivotLow(lows []float64, i, window int) bool {
	for j := i - window; j <= i+window; j++ {
		if lows[j] < lows[i] {
			return false
		}
	}
	return true
}

// FibonacciLevel is one retracement level between a swing high and low
type FibonacciLevel struct {
	Ratio float64 `json:"ratio"`
	Label string  `json:"label"`
	Price float64 `json:"price"`
}

var fibonacciRatios = []struct {
	ratio float64
	label string
}{
	{0, "0%"},
	{0.236, "23.6%"},
	{0.382, "38.2%"},
	{0.5, "50%"},
	{0.618, "61.8%"},
	{0.786, "78.6%"},
	{1, "100%"},
}

// Fibonacci returns retracement levels measured down from the highest high
// to the lowest low of the given bars. Empty input returns nil.
func Fibonacci(highs, lows []float64) []FibonacciLevel {
	if len(highs) == 0 || len(highs) != len(lows) {
		return nil
	}
	hh, ll := windowRange(highs, lows, 0, len(highs)-1)
	diff := hh - ll

	out := make([]FibonacciLevel, 0, len(fibonacciRatios))
	for _, r := range fibonacciRatios {
		out = append(out, FibonacciLevel{
			Ratio: r.ratio,
			Label: r.label,
			Price: hh - diff*r.ratio,
		})
	}
	return out
}
