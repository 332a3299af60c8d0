package forecast

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/trogers1052/stock-tracker/internal/models"
)

// CSVHeader is the column order of forecast exports
var CSVHeader = []string{"symbol", "model", "date", "predicted_close"}

// WriteCSV writes one row per predicted day
func WriteCSV(w io.Writer, f *models.Forecast) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(CSVHeader); err != nil {
		return fmt.Errorf("failed to write csv header: %w", err)
	}
	for _, p := range f.Points {
		record := []string{
			f.Symbol,
			f.Model,
			p.Date.Format(models.DateLayout),
			strconv.FormatFloat(p.Close, 'f', 4, 64),
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("failed to write forecast point: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}
