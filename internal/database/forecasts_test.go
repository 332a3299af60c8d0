package database

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/trogers1052/stock-tracker/internal/models"
)

func TestForecastsRepository(t *testing.T) {
	testDB := SetupTestDB(t)
	defer testDB.Cleanup(t)

	newForecast := func(username string) *models.Forecast {
		return &models.Forecast{
			Username: username,
			Symbol:   "AAPL",
			Model:    models.ModelRandomForest,
			Horizon:  2,
			MAE:      1.25,
			RMSE:     1.5,
			Points: []models.ForecastPoint{
				{Date: time.Date(2024, 1, 16, 0, 0, 0, 0, time.UTC), Close: 180.5},
				{Date: time.Date(2024, 1, 17, 0, 0, 0, 0, time.UTC), Close: 181.25},
			},
		}
	}

	t.Run("CreateForecast stores run and points", func(t *testing.T) {
		testDB.TruncateAll(t)

		f := newForecast("alice")
		require.NoError(t, testDB.CreateForecast(f))
		assert.NotZero(t, f.ID)

		got, err := testDB.GetForecast("alice", f.ID)
		require.NoError(t, err)
		assert.Equal(t, models.ModelRandomForest, got.Model)
		assert.Equal(t, 1.25, got.MAE)
		require.Len(t, got.Points, 2)
		assert.Equal(t, 181.25, got.Points[1].Close)
		assert.True(t, f.Points[0].Date.Equal(got.Points[0].Date))
	})

	t.Run("GetForecasts lists newest first", func(t *testing.T) {
		testDB.TruncateAll(t)

		first := newForecast("alice")
		second := newForecast("alice")
		second.Model = models.ModelLinearRegression
		require.NoError(t, testDB.CreateForecast(first))
		require.NoError(t, testDB.CreateForecast(second))
		require.NoError(t, testDB.CreateForecast(newForecast("bob")))

		forecasts, err := testDB.GetForecasts("alice", 10)
		require.NoError(t, err)
		require.Len(t, forecasts, 2)
		assert.Equal(t, second.ID, forecasts[0].ID)
		assert.Empty(t, forecasts[0].Points)
	})

	t.Run("DeleteForecast cascades points", func(t *testing.T) {
		testDB.TruncateAll(t)

		f := newForecast("alice")
		require.NoError(t, testDB.CreateForecast(f))
		require.NoError(t, testDB.DeleteForecast("alice", f.ID))

		var count int
		require.NoError(t, testDB.GetRawConn().QueryRow(`SELECT COUNT(*) FROM forecast_points`).Scan(&count))
		assert.Zero(t, count)

		_, err := testDB.GetForecast("alice", f.ID)
		assert.True(t, errors.Is(err, ErrNotFound))
	})
}
