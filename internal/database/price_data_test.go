package database

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/trogers1052/stock-tracker/internal/models"
)

func day(d int) time.Time {
	return time.Date(2024, 1, d, 0, 0, 0, 0, time.UTC)
}

func barSeries(symbol string, days ...int) *models.PriceSeries {
	s := &models.PriceSeries{Symbol: symbol}
	for _, d := range days {
		c := 100 + float64(d)
		s.Bars = append(s.Bars, models.Bar{
			Time: day(d), Open: c - 1, High: c + 1, Low: c - 2, Close: c, AdjClose: c, Volume: int64(1000 * d),
		})
	}
	return s
}

func TestPriceDataRepository(t *testing.T) {
	testDB := SetupTestDB(t)
	defer testDB.Cleanup(t)

	t.Run("SavePriceSeries truncates times to the session date", func(t *testing.T) {
		testDB.TruncateAll(t)

		series := barSeries("AAPL", 15)
		series.Bars[0].Time = time.Date(2024, 1, 15, 14, 30, 0, 0, time.UTC)
		require.NoError(t, testDB.SavePriceSeries(series))

		prices, err := testDB.GetPriceDataBySymbol("AAPL", 1)
		require.NoError(t, err)
		require.Len(t, prices, 1)
		assert.NotZero(t, prices[0].ID)
		assert.Equal(t, day(15), prices[0].Date)
		assert.Equal(t, 115.0, prices[0].Close)
	})

	t.Run("SavePriceSeries upserts on conflict", func(t *testing.T) {
		testDB.TruncateAll(t)

		require.NoError(t, testDB.SavePriceSeries(barSeries("AAPL", 1, 2, 3)))

		updated := barSeries("AAPL", 3, 4)
		updated.Bars[0].Close = 999
		require.NoError(t, testDB.SavePriceSeries(updated))

		prices, err := testDB.GetPriceDataBySymbol("AAPL", 10)
		require.NoError(t, err)
		require.Len(t, prices, 4)
		assert.Equal(t, 999.0, prices[2].Close)
	})

	t.Run("GetPriceDataBySymbol returns the most recent bars ascending", func(t *testing.T) {
		testDB.TruncateAll(t)

		require.NoError(t, testDB.SavePriceSeries(barSeries("AAPL", 1, 2, 3, 4, 5)))
		require.NoError(t, testDB.SavePriceSeries(barSeries("MSFT", 1, 2)))

		prices, err := testDB.GetPriceDataBySymbol("AAPL", 3)
		require.NoError(t, err)
		require.Len(t, prices, 3)
		assert.Equal(t, day(3), prices[0].Date)
		assert.Equal(t, day(5), prices[2].Date)
		assert.Equal(t, int64(5000), prices[2].Volume)
	})

	t.Run("GetPriceDataRange retrieves data in date range", func(t *testing.T) {
		testDB.TruncateAll(t)

		require.NoError(t, testDB.SavePriceSeries(barSeries("AAPL", 1, 2, 3, 4, 5)))

		prices, err := testDB.GetPriceDataRange("AAPL", day(2), day(4))
		require.NoError(t, err)
		require.Len(t, prices, 3)
		assert.Equal(t, day(2), prices[0].Date)
		assert.Equal(t, day(4), prices[2].Date)

		series := PriceSeriesFrom("AAPL", prices)
		assert.Equal(t, 3, series.Len())
		assert.Equal(t, 102.0, series.Bars[0].Close)
	})

	t.Run("GetPriceDataBySymbol orders unsorted input", func(t *testing.T) {
		testDB.TruncateAll(t)

		require.NoError(t, testDB.SavePriceSeries(barSeries("AAPL", 3, 1, 2)))

		prices, err := testDB.GetPriceDataBySymbol("AAPL", 1)
		require.NoError(t, err)
		require.Len(t, prices, 1)
		assert.Equal(t, day(3), prices[0].Date)

		prices, err = testDB.GetPriceDataBySymbol("NONEXISTENT", 1)
		require.NoError(t, err)
		assert.Empty(t, prices)
	})

	t.Run("DeletePriceDataOlderThan removes old records", func(t *testing.T) {
		testDB.TruncateAll(t)

		require.NoError(t, testDB.SavePriceSeries(barSeries("AAPL", 1, 2, 3, 4)))

		deleted, err := testDB.DeletePriceDataOlderThan(day(3))
		require.NoError(t, err)
		assert.Equal(t, int64(2), deleted)

		prices, err := testDB.GetPriceDataBySymbol("AAPL", 10)
		require.NoError(t, err)
		assert.Len(t, prices, 2)
	})
}
