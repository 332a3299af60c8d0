package indicators

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/trogers1052/stock-tracker/internal/models"
)

// Snapshot returns the latest defined value of every indicator in a, dated
// with the last bar of series, ready to persist
func Snapshot(series *models.PriceSeries, a Analysis) []*models.TechnicalIndicator {
	last, ok := series.Last()
	if !ok {
		return nil
	}
	var out []*models.TechnicalIndicator
	for _, name := range a.Names() {
		v, ok := a[name].Last()
		if !ok {
			continue
		}
		out = append(out, &models.TechnicalIndicator{
			Symbol:        series.Symbol,
			Date:          last.Time,
			IndicatorType: name,
			Value:         v,
			Timeframe:     models.TimeframeDaily,
		})
	}
	return out
}

// WriteCSV writes one row per bar: date, close, then every indicator of a in
// Names order. Undefined values are empty cells.
func WriteCSV(w io.Writer, series *models.PriceSeries, a Analysis) error {
	names := a.Names()
	cw := csv.NewWriter(w)
	if err := cw.Write(append([]string{"date", "close"}, names...)); err != nil {
		return fmt.Errorf("failed to write csv header: %w", err)
	}

	record := make([]string, len(names)+2)
	for i, b := range series.Bars {
		record[0] = b.Time.Format(models.DateLayout)
		record[1] = strconv.FormatFloat(b.Close, 'f', -1, 64)
		for j, name := range names {
			record[j+2] = ""
			if v, ok := a[name].At(i); ok {
				record[j+2] = strconv.FormatFloat(v, 'f', 4, 64)
			}
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("failed to write indicator row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}
