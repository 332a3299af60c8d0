// Package forecast predicts future closes with linear regression, a random
// forest or gradient boosting, and reports their held-out error.
package forecast

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/trogers1052/stock-tracker/internal/models"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// DefaultSeed makes runs reproducible unless a caller picks another seed
const DefaultSeed uint64 = 42

// TestFraction is the trailing share of samples held out for MAE and RMSE
const TestFraction = 0.2

var (
	// ErrInsufficientData is returned when the series is too short to train and test
	ErrInsufficientData = errors.New("insufficient data for forecast")
	// ErrUnknownModel is returned for a model name ParseModel does not know
	ErrUnknownModel = errors.New("unknown forecast model")
	// ErrInvalidHorizon is returned for a non-positive or too large number of days
	ErrInvalidHorizon = errors.New("invalid forecast horizon")
)

var modelAliases = map[string]string{
	"linear_regression":           models.ModelLinearRegression,
	"linear":                      models.ModelLinearRegression,
	"lr":                          models.ModelLinearRegression,
	"random_forest":               models.ModelRandomForest,
	"rf":                          models.ModelRandomForest,
	"gradient_boosting":           models.ModelGradientBoosting,
	"gradient_boosting_regressor": models.ModelGradientBoosting,
	"gbr":                         models.ModelGradientBoosting,
}

// Models lists the supported model names
var Models = []string{models.ModelLinearRegression, models.ModelRandomForest, models.ModelGradientBoosting}

// ParseModel maps a model name such as "Random Forest" or "gbr" to its canonical form
func ParseModel(name string) (string, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	key = strings.NewReplacer(" ", "_", "-", "_").Replace(key)
	if m, ok := modelAliases[key]; ok {
		return m, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownModel, name)
}

// Predict trains model on series, scores it on the trailing TestFraction of
// samples and forecasts days business days past the last bar
func Predict(series *models.PriceSeries, model string, days int, seed uint64) (*models.Forecast, error) {
	model, err := ParseModel(model)
	if err != nil {
		return nil, err
	}
	if days < 1 {
		return nil, fmt.Errorf("%w: %d days", ErrInvalidHorizon, days)
	}
	if series == nil || series.Len() == 0 {
		return nil, ErrInsufficientData
	}

	var (
		predictions []float64
		mae, rmse   float64
	)
	switch model {
	case models.ModelLinearRegression:
		predictions, mae, rmse, err = predictLinear(series.Closes(), days)
	default:
		predictions, mae, rmse, err = predictTrees(series, model, days, seed)
	}
	if err != nil {
		return nil, err
	}
	if !finite(mae, rmse) || !finite(predictions...) {
		return nil, fmt.Errorf("%w: model produced non-finite values", ErrInsufficientData)
	}

	last, _ := series.Last()
	dates := BusinessDays(last.Time, days)
	points := make([]models.ForecastPoint, days)
	for i := range points {
		points[i] = models.ForecastPoint{Date: dates[i], Close: predictions[i]}
	}

	return &models.Forecast{
		Symbol:  series.Symbol,
		Model:   model,
		Horizon: days,
		MAE:     mae,
		RMSE:    rmse,
		Points:  points,
	}, nil
}

// split returns the training size for n chronologically ordered samples; the
// rest form the test slice
func split(n int) (int, error) {
	if n < 2 {
		return 0, fmt.Errorf("%w: %d usable samples", ErrInsufficientData, n)
	}
	test := int(math.Ceil(float64(n) * TestFraction))
	train := n - test
	if train < 1 || test < 1 {
		return 0, fmt.Errorf("%w: %d usable samples", ErrInsufficientData, n)
	}
	return train, nil
}

// predictLinear fits close against bar index
func predictLinear(closes []float64, days int) ([]float64, float64, float64, error) {
	n := len(closes)
	train, err := split(n)
	if err != nil {
		return nil, 0, 0, err
	}

	xs := make([]float64, n)
	for i := range xs {
		xs[i] = float64(i)
	}
	alpha, beta := fitLine(xs[:train], closes[:train])

	fitted := make([]float64, n-train)
	for i := range fitted {
		fitted[i] = alpha + beta*xs[train+i]
	}
	mae, rmse := Errors(closes[train:], fitted)

	out := make([]float64, days)
	for i := range out {
		out[i] = alpha + beta*float64(n+i)
	}
	return out, mae, rmse, nil
}

// fitLine returns the least squares intercept and slope. A single training
// point gives a flat line through it.
func fitLine(xs, ys []float64) (alpha, beta float64) {
	if len(xs) < 2 {
		return stat.Mean(ys, nil), 0
	}
	return stat.LinearRegression(xs, ys, nil, false)
}

func predictTrees(series *models.PriceSeries, model string, days int, seed uint64) ([]float64, float64, float64, error) {
	fs := buildFeatures(series)
	train, err := split(len(fs.rows))
	if err != nil {
		return nil, 0, 0, err
	}

	x, y := fs.rows[:train], fs.targets[:train]
	var r regressor
	if model == models.ModelRandomForest {
		r = fitForest(x, y, seed)
	} else {
		r = fitBoosting(x, y)
	}

	fitted := make([]float64, len(fs.rows)-train)
	for i := range fitted {
		fitted[i] = r.predict(fs.rows[train+i])
	}
	mae, rmse := Errors(fs.targets[train:], fitted)

	row := fs.latest
	if row == nil {
		row = fs.rows[len(fs.rows)-1]
	}
	out := make([]float64, days)
	for i := range out {
		out[i] = r.predict(row)
		row = fs.roll(row, out[i])
	}
	return out, mae, rmse, nil
}

// Errors returns the mean absolute error and root mean squared error of
// predicted against actual
func Errors(actual, predicted []float64) (mae, rmse float64) {
	if len(actual) == 0 {
		return 0, 0
	}
	n := float64(len(actual))
	mae = floats.Distance(actual, predicted, 1) / n
	rmse = floats.Distance(actual, predicted, 2) / math.Sqrt(n)
	return mae, rmse
}

func finite(vs ...float64) bool {
	for _, v := range vs {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// BusinessDays returns the n weekdays following after, at UTC midnight
func BusinessDays(after time.Time, n int) []time.Time {
	d := time.Date(after.Year(), after.Month(), after.Day(), 0, 0, 0, 0, time.UTC)
	out := make([]time.Time, 0, n)
	for len(out) < n {
		d = d.AddDate(0, 0, 1)
		if wd := d.Weekday(); wd == time.Saturday || wd == time.Sunday {
			continue
		}
		out = append(out, d)
	}
	return out
}
