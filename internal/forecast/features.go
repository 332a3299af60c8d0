package forecast

import (
	"github.com/trogers1052/stock-tracker/internal/indicators"
	"github.com/trogers1052/stock-tracker/internal/models"
)

// Derived feature names
const (
	featureOpen          = "open"
	featureHigh          = "high"
	featureLow           = "low"
	featureClose         = "close"
	featureVolume        = "volume"
	featurePrevClose     = "prev_close"
	featurePriceChange   = "price_change"
	featureVolumeChange  = "volume_change"
	featureOpenCloseDiff = "open_close_diff"
	featureHighLowDiff   = "high_low_diff"
)

var closeLags = []string{"close_lag_1", "close_lag_2", "close_lag_3"}

// featureSet is the design matrix for the tree models. Row i describes bar
// rows[i].bar and its target is the following bar's close. latest holds the
// features of the final bar, which has no target yet.
type featureSet struct {
	names   []string
	rows    [][]float64
	targets []float64
	latest  []float64
	index   map[string]int
}

// buildFeatures turns a series into feature rows. Rows with any undefined
// feature are dropped, which trims the indicator warm-up from the front.
func buildFeatures(series *models.PriceSeries) *featureSet {
	analysis := indicators.Analyze(series)
	indicatorNames := analysis.Names()

	names := []string{featureOpen, featureHigh, featureLow, featureClose, featureVolume}
	names = append(names, indicatorNames...)
	names = append(names, featurePrevClose, featurePriceChange, featureVolumeChange, featureOpenCloseDiff, featureHighLowDiff)
	names = append(names, closeLags...)

	fs := &featureSet{names: names, index: make(map[string]int, len(names))}
	for i, name := range names {
		fs.index[name] = i
	}

	bars := series.Bars
	last := len(bars) - 1
	for i := len(closeLags); i <= last; i++ {
		row, ok := featureRow(bars, analysis, indicatorNames, i)
		if !ok {
			continue
		}
		if i == last {
			fs.latest = row
			continue
		}
		fs.rows = append(fs.rows, row)
		fs.targets = append(fs.targets, bars[i+1].Close)
	}
	return fs
}

func featureRow(bars []models.Bar, analysis indicators.Analysis, indicatorNames []string, i int) ([]float64, bool) {
	b, prev := bars[i], bars[i-1]
	row := []float64{b.Open, b.High, b.Low, b.Close, float64(b.Volume)}
	for _, name := range indicatorNames {
		v, ok := analysis[name].At(i)
		if !ok {
			return nil, false
		}
		row = append(row, v)
	}
	row = append(row,
		prev.Close,
		b.Close-prev.Close,
		float64(b.Volume-prev.Volume),
		b.Open-b.Close,
		b.High-b.Low,
	)
	for lag := 1; lag <= len(closeLags); lag++ {
		row = append(row, bars[i-lag].Close)
	}
	return row, true
}

// roll advances a feature row by one day whose close is next. Close, previous
// close, price change and the close lags move forward; every other feature
// keeps its last observed value.
func (fs *featureSet) roll(row []float64, next float64) []float64 {
	out := make([]float64, len(row))
	copy(out, row)

	closeCol := fs.index[featureClose]
	for lag := len(closeLags) - 1; lag > 0; lag-- {
		out[fs.index[closeLags[lag]]] = row[fs.index[closeLags[lag-1]]]
	}
	out[fs.index[closeLags[0]]] = row[closeCol]
	out[fs.index[featurePrevClose]] = row[closeCol]
	out[fs.index[featurePriceChange]] = next - row[closeCol]
	out[closeCol] = next
	return out
}
