package database

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/trogers1052/stock-tracker/internal/models"
)

func TestTechnicalIndicatorsRepository(t *testing.T) {
	testDB := SetupTestDB(t)
	defer testDB.Cleanup(t)

	t.Run("CreateTechnicalIndicatorBatch defaults timeframe to daily", func(t *testing.T) {
		testDB.TruncateAll(t)

		indicator := &models.TechnicalIndicator{
			Symbol:        "AAPL",
			Date:          time.Date(2024, 1, 16, 15, 45, 0, 0, time.UTC),
			IndicatorType: models.IndicatorMACD,
			Value:         2.35,
		}

		require.NoError(t, testDB.CreateTechnicalIndicatorBatch([]*models.TechnicalIndicator{indicator}))
		assert.Equal(t, models.TimeframeDaily, indicator.Timeframe)
		assert.Equal(t, time.Date(2024, 1, 16, 0, 0, 0, 0, time.UTC), indicator.Date)
		assert.False(t, indicator.CreatedAt.IsZero())
	})

	t.Run("CreateTechnicalIndicatorBatch upserts on conflict", func(t *testing.T) {
		testDB.TruncateAll(t)

		date := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)
		require.NoError(t, testDB.CreateTechnicalIndicatorBatch([]*models.TechnicalIndicator{
			{Symbol: "GOOGL", Date: date, IndicatorType: models.IndicatorRSI14, Value: 30},
		}))
		require.NoError(t, testDB.CreateTechnicalIndicatorBatch([]*models.TechnicalIndicator{
			{Symbol: "GOOGL", Date: date, IndicatorType: models.IndicatorRSI14, Value: 35},
		}))

		indicators, err := testDB.GetIndicatorsBySymbol("GOOGL", date)
		require.NoError(t, err)
		require.Len(t, indicators, 1)
		assert.Equal(t, 35.0, indicators[0].Value)
		assert.NotZero(t, indicators[0].ID)
	})

	t.Run("CreateTechnicalIndicatorBatch inserts a snapshot", func(t *testing.T) {
		testDB.TruncateAll(t)

		date := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)
		batch := []*models.TechnicalIndicator{
			{Symbol: "MSFT", Date: date, IndicatorType: models.IndicatorSMA20, Value: 370.1},
			{Symbol: "MSFT", Date: date, IndicatorType: models.IndicatorRSI14, Value: 55.2},
			{Symbol: "MSFT", Date: date, IndicatorType: models.IndicatorMACD, Value: 1.2},
		}
		require.NoError(t, testDB.CreateTechnicalIndicatorBatch(batch))

		indicators, err := testDB.GetIndicatorsBySymbol("MSFT", date)
		require.NoError(t, err)
		require.Len(t, indicators, 3)
		assert.Equal(t, models.IndicatorMACD, indicators[0].IndicatorType)
	})

	t.Run("GetIndicatorHistory retrieves historical values", func(t *testing.T) {
		testDB.TruncateAll(t)

		var batch []*models.TechnicalIndicator
		for d := 1; d <= 5; d++ {
			batch = append(batch, &models.TechnicalIndicator{
				Symbol: "NVDA", Date: time.Date(2024, 1, d, 0, 0, 0, 0, time.UTC),
				IndicatorType: models.IndicatorRSI14, Value: float64(40 + d),
			})
		}
		require.NoError(t, testDB.CreateTechnicalIndicatorBatch(batch))

		history, err := testDB.GetIndicatorHistory("NVDA", models.IndicatorRSI14, 3)
		require.NoError(t, err)
		require.Len(t, history, 3)
		assert.Equal(t, 45.0, history[0].Value)
		assert.Equal(t, 43.0, history[2].Value)
	})

	t.Run("GetLatestIndicators retrieves most recent of each type", func(t *testing.T) {
		testDB.TruncateAll(t)

		older := time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)
		newer := time.Date(2024, 1, 11, 0, 0, 0, 0, time.UTC)
		require.NoError(t, testDB.CreateTechnicalIndicatorBatch([]*models.TechnicalIndicator{
			{Symbol: "AMD", Date: older, IndicatorType: models.IndicatorRSI14, Value: 20},
			{Symbol: "AMD", Date: newer, IndicatorType: models.IndicatorRSI14, Value: 25},
			{Symbol: "AMD", Date: older, IndicatorType: models.IndicatorSMA20, Value: 150},
		}))

		latest, err := testDB.GetLatestIndicators("AMD")
		require.NoError(t, err)
		require.Len(t, latest, 2)
		assert.Equal(t, models.IndicatorRSI14, latest[0].IndicatorType)
		assert.Equal(t, 25.0, latest[0].Value)
		assert.Equal(t, models.IndicatorSMA20, latest[1].IndicatorType)
		assert.True(t, older.Equal(latest[1].Date))
	})

	t.Run("DeleteIndicatorsOlderThan removes old indicators", func(t *testing.T) {
		testDB.TruncateAll(t)

		require.NoError(t, testDB.CreateTechnicalIndicatorBatch([]*models.TechnicalIndicator{
			{Symbol: "AMD", Date: time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC), IndicatorType: models.IndicatorRSI14, Value: 20},
			{Symbol: "AMD", Date: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), IndicatorType: models.IndicatorRSI14, Value: 20},
		}))

		deleted, err := testDB.DeleteIndicatorsOlderThan(time.Date(2023, 6, 1, 0, 0, 0, 0, time.UTC))
		require.NoError(t, err)
		assert.Equal(t, int64(1), deleted)
	})
}
