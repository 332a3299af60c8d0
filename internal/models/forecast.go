package models

import (
	"time"
)

// Forecast model names
const (
	ModelLinearRegression = "linear_regression"
	ModelRandomForest     = "random_forest"
	ModelGradientBoosting = "gradient_boosting"
)

// ForecastPoint is one predicted close
type ForecastPoint struct {
	Date  time.Time `json:"date"`
	Close float64   `json:"close"`
}

// Forecast is a stored prediction run
type Forecast struct {
	ID        int             `json:"id"`
	Username  string          `json:"username"`
	Symbol    string          `json:"symbol"`
	Model     string          `json:"model"`
	Horizon   int             `json:"horizon"`
	MAE       float64         `json:"mae"`
	RMSE      float64         `json:"rmse"`
	Points    []ForecastPoint `json:"points"`
	CreatedAt time.Time       `json:"created_at"`
}
