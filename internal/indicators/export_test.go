package indicators

import (
	"bytes"
	"encoding/csv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/trogers1052/stock-tracker/internal/models"
)

func TestSnapshot(t *testing.T) {
	series := testSeries(30)
	a := Analyze(series)

	snap := Snapshot(series, a)
	require.NotEmpty(t, snap)

	last, _ := series.Last()
	types := map[string]bool{}
	for _, ti := range snap {
		assert.Equal(t, "TEST", ti.Symbol)
		assert.Equal(t, last.Time, ti.Date)
		assert.Equal(t, models.TimeframeDaily, ti.Timeframe)
		types[ti.IndicatorType] = true
	}
	assert.True(t, types[models.IndicatorSMA20])
	assert.False(t, types[models.IndicatorSMA200], "undefined indicators are skipped")

	assert.Empty(t, Snapshot(&models.PriceSeries{}, a))
}

func TestWriteCSV(t *testing.T) {
	series := testSeries(25)
	a := Analyze(series)

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, series, a))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 26)

	header := records[0]
	assert.Equal(t, []string{"date", "close"}, header[:2])
	assert.Equal(t, a.Names(), header[2:])

	col := -1
	for i, name := range header {
		if name == models.IndicatorSMA20 {
			col = i
		}
	}
	require.NotEqual(t, -1, col)
	assert.Empty(t, records[1][col], "warm-up is an empty cell")
	assert.NotEmpty(t, records[20][col])
	assert.Equal(t, "2024-01-01", records[1][0])
}
