package forecast

import (
	"bytes"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/trogers1052/stock-tracker/internal/models"
)

// syntheticSeries returns n weekday bars following a noisy upward trend
func syntheticSeries(symbol string, n int) *models.PriceSeries {
	series := &models.PriceSeries{Symbol: symbol}
	dates := BusinessDays(time.Date(2022, 12, 30, 0, 0, 0, 0, time.UTC), n)
	for i, d := range dates {
		base := 100 + 0.3*float64(i) + 5*math.Sin(float64(i)/7)
		series.Bars = append(series.Bars, models.Bar{
			Time:     d,
			Open:     base - 0.5,
			High:     base + 1.5 + math.Abs(math.Cos(float64(i))),
			Low:      base - 1.5,
			Close:    base,
			AdjClose: base,
			Volume:   int64(1_000_000 + (i%11)*25_000),
		})
	}
	return series
}

func TestParseModel(t *testing.T) {
	cases := map[string]string{
		"linear_regression":           models.ModelLinearRegression,
		"Linear Regression":           models.ModelLinearRegression,
		"Random Forest":               models.ModelRandomForest,
		"rf":                          models.ModelRandomForest,
		"Gradient Boosting Regressor": models.ModelGradientBoosting,
		"gradient-boosting":           models.ModelGradientBoosting,
	}
	for in, want := range cases {
		got, err := ParseModel(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseModel("lstm")
	assert.ErrorIs(t, err, ErrUnknownModel)
}

func TestSplit(t *testing.T) {
	_, err := split(1)
	assert.ErrorIs(t, err, ErrInsufficientData)

	train, err := split(2)
	require.NoError(t, err)
	assert.Equal(t, 1, train)

	train, err = split(10)
	require.NoError(t, err)
	assert.Equal(t, 8, train)

	train, err = split(11)
	require.NoError(t, err)
	assert.Equal(t, 8, train)
}

func TestErrors(t *testing.T) {
	mae, rmse := Errors([]float64{1, 2, 3, 4}, []float64{2, 2, 3, 6})
	assert.InDelta(t, 0.75, mae, 1e-12)
	assert.InDelta(t, math.Sqrt(5.0/4.0), rmse, 1e-12)

	mae, rmse = Errors(nil, nil)
	assert.Zero(t, mae)
	assert.Zero(t, rmse)
}

func TestBusinessDays(t *testing.T) {
	friday := time.Date(2024, 5, 31, 20, 0, 0, 0, time.UTC)
	days := BusinessDays(friday, 3)
	require.Len(t, days, 3)
	assert.Equal(t, "2024-06-03", days[0].Format(models.DateLayout))
	assert.Equal(t, "2024-06-04", days[1].Format(models.DateLayout))
	assert.Equal(t, "2024-06-05", days[2].Format(models.DateLayout))
	for _, d := range days {
		assert.Equal(t, time.UTC, d.Location())
	}
}

func TestPredict_linearRegression(t *testing.T) {
	series := &models.PriceSeries{Symbol: "LINE"}
	for i, d := range BusinessDays(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), 50) {
		c := 10 + 2*float64(i)
		series.Bars = append(series.Bars, models.Bar{Time: d, Open: c, High: c, Low: c, Close: c, Volume: 1})
	}

	f, err := Predict(series, "Linear Regression", 3, DefaultSeed)
	require.NoError(t, err)
	assert.Equal(t, models.ModelLinearRegression, f.Model)
	assert.Equal(t, "LINE", f.Symbol)
	assert.Equal(t, 3, f.Horizon)
	assert.InDelta(t, 0, f.MAE, 1e-9)
	assert.InDelta(t, 0, f.RMSE, 1e-9)

	require.Len(t, f.Points, 3)
	assert.InDelta(t, 110, f.Points[0].Close, 1e-9)
	assert.InDelta(t, 114, f.Points[2].Close, 1e-9)

	last, _ := series.Last()
	assert.True(t, f.Points[0].Date.After(last.Time))
}

func TestPredict_treeModels(t *testing.T) {
	series := syntheticSeries("SYN", 320)

	for _, model := range []string{models.ModelRandomForest, models.ModelGradientBoosting} {
		t.Run(model, func(t *testing.T) {
			f, err := Predict(series, model, 5, DefaultSeed)
			require.NoError(t, err)
			require.Len(t, f.Points, 5)

			assert.Greater(t, f.MAE, 0.0)
			assert.GreaterOrEqual(t, f.RMSE, f.MAE)
			assert.False(t, math.IsNaN(f.RMSE))

			last, _ := series.Last()
			expectedDates := BusinessDays(last.Time, 5)
			for i, p := range f.Points {
				assert.Equal(t, expectedDates[i], p.Date)
				assert.InDelta(t, last.Close, p.Close, 60, "prediction %d should stay near recent prices", i)
			}
		})
	}
}

func TestPredict_deterministicForSeed(t *testing.T) {
	series := syntheticSeries("SYN", 280)

	first, err := Predict(series, models.ModelRandomForest, 4, 7)
	require.NoError(t, err)
	second, err := Predict(series, models.ModelRandomForest, 4, 7)
	require.NoError(t, err)

	assert.Equal(t, first.MAE, second.MAE)
	assert.Equal(t, first.RMSE, second.RMSE)
	assert.Equal(t, first.Points, second.Points)

	gb1, err := Predict(series, models.ModelGradientBoosting, 4, 1)
	require.NoError(t, err)
	gb2, err := Predict(series, models.ModelGradientBoosting, 4, 2)
	require.NoError(t, err)
	assert.Equal(t, gb1.Points, gb2.Points)
}

func TestPredict_insufficientData(t *testing.T) {
	short := syntheticSeries("SHORT", 60)

	_, err := Predict(short, models.ModelRandomForest, 1, DefaultSeed)
	assert.ErrorIs(t, err, ErrInsufficientData, "indicator warm-up leaves no rows")

	_, err = Predict(syntheticSeries("ONE", 1), models.ModelLinearRegression, 1, DefaultSeed)
	assert.ErrorIs(t, err, ErrInsufficientData)

	_, err = Predict(syntheticSeries("TWO", 2), models.ModelRandomForest, 1, DefaultSeed)
	assert.ErrorIs(t, err, ErrInsufficientData)

	_, err = Predict(&models.PriceSeries{Symbol: "EMPTY"}, models.ModelLinearRegression, 1, DefaultSeed)
	assert.ErrorIs(t, err, ErrInsufficientData)

	_, err = Predict(short, models.ModelLinearRegression, 0, DefaultSeed)
	assert.ErrorIs(t, err, ErrInvalidHorizon)
}

func TestPredict_linearTwoBars(t *testing.T) {
	series := syntheticSeries("TWO", 2)
	first := series.Bars[0].Close

	fc, err := Predict(series, models.ModelLinearRegression, 2, DefaultSeed)
	require.NoError(t, err)

	require.Len(t, fc.Points, 2)
	for _, p := range fc.Points {
		assert.False(t, math.IsNaN(p.Close))
		assert.InDelta(t, first, p.Close, 1e-9, "one training bar fits a flat line")
	}
	assert.InDelta(t, math.Abs(series.Bars[1].Close-first), fc.MAE, 1e-9)
	assert.InDelta(t, fc.MAE, fc.RMSE, 1e-9)
}

func TestFitLine(t *testing.T) {
	alpha, beta := fitLine([]float64{0}, []float64{7})
	assert.Equal(t, 7.0, alpha)
	assert.Zero(t, beta)

	alpha, beta = fitLine([]float64{0, 1, 2}, []float64{1, 3, 5})
	assert.InDelta(t, 1, alpha, 1e-9)
	assert.InDelta(t, 2, beta, 1e-9)
}

func TestFinite(t *testing.T) {
	assert.True(t, finite(1, 2))
	assert.False(t, finite(1, math.NaN()))
	assert.False(t, finite(math.Inf(1)))
}

func TestFitTree(t *testing.T) {
	x := [][]float64{{1}, {2}, {3}, {4}, {5}, {6}}
	y := []float64{10, 10, 10, 20, 20, 20}
	idx := []int{0, 1, 2, 3, 4, 5}

	tree := fitTree(x, y, idx, treeParams{maxDepth: 3, minSplit: 2})
	require.False(t, tree.leaf())
	assert.Equal(t, 0, tree.feature)
	assert.InDelta(t, 3.5, tree.threshold, 1e-12)
	assert.Equal(t, 10.0, tree.predict([]float64{0}))
	assert.Equal(t, 20.0, tree.predict([]float64{9}))

	stump := fitTree(x, y, idx, treeParams{maxDepth: 0, minSplit: 2})
	assert.True(t, stump.leaf())
	assert.Equal(t, 15.0, stump.value)

	tooFew := fitTree(x, y, idx, treeParams{maxDepth: 5, minSplit: 7})
	assert.True(t, tooFew.leaf())
}

func TestBuildFeatures(t *testing.T) {
	series := syntheticSeries("SYN", 260)
	fs := buildFeatures(series)

	require.NotEmpty(t, fs.rows)
	assert.Len(t, fs.targets, len(fs.rows))
	require.NotNil(t, fs.latest)
	assert.Len(t, fs.latest, len(fs.names))

	last := series.Bars[len(series.Bars)-1]
	assert.Equal(t, last.Close, fs.latest[fs.index[featureClose]])
	assert.Equal(t, last.Close, fs.targets[len(fs.targets)-1])

	rolled := fs.roll(fs.latest, 500)
	assert.Equal(t, 500.0, rolled[fs.index[featureClose]])
	assert.Equal(t, last.Close, rolled[fs.index[featurePrevClose]])
	assert.Equal(t, last.Close, rolled[fs.index["close_lag_1"]])
	assert.Equal(t, fs.latest[fs.index["close_lag_1"]], rolled[fs.index["close_lag_2"]])
	assert.Equal(t, fs.latest[fs.index["close_lag_2"]], rolled[fs.index["close_lag_3"]])
	assert.InDelta(t, 500-last.Close, rolled[fs.index[featurePriceChange]], 1e-9)
}

func TestWriteCSV(t *testing.T) {
	f := &models.Forecast{
		Symbol: "AAPL",
		Model:  models.ModelRandomForest,
		Points: []models.ForecastPoint{
			{Date: time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC), Close: 191.23456},
			{Date: time.Date(2024, 6, 4, 0, 0, 0, 0, time.UTC), Close: 192},
		},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, f))
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "symbol,model,date,predicted_close", lines[0])
	assert.Equal(t, "AAPL,random_forest,2024-06-03,191.2346", lines[1])
	assert.Equal(t, "AAPL,random_forest,2024-06-04,192.0000", lines[2])
}
