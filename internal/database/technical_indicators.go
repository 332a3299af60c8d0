package database

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/trogers1052/stock-tracker/internal/models"
)

const indicatorColumns = `id, symbol, date, indicator_type, value, timeframe, created_at`

const upsertIndicator = `
	INSERT INTO technical_indicators (symbol, date, indicator_type, value, timeframe, created_at)
	VALUES (?, ?, ?, ?, ?, ?)
	ON CONFLICT (symbol, date, indicator_type, timeframe) DO UPDATE SET
		value = excluded.value
`

// CreateTechnicalIndicatorBatch upserts multiple technical indicator records in one transaction
func (db *DB) CreateTechnicalIndicatorBatch(indicators []*models.TechnicalIndicator) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(db.rebind(upsertIndicator))
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	now := time.Now().UTC()
	for _, t := range indicators {
		if t.Timeframe == "" {
			t.Timeframe = models.TimeframeDaily
		}
		t.Date = dateOnly(t.Date)
		_, err := stmt.Exec(t.Symbol, t.Date, t.IndicatorType, t.Value, t.Timeframe, now)
		if err != nil {
			return fmt.Errorf("failed to insert indicator for %s: %w", t.Symbol, err)
		}
		t.CreatedAt = now
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// GetIndicatorsBySymbol retrieves all daily indicators for a symbol on a specific date
func (db *DB) GetIndicatorsBySymbol(symbol string, date time.Time) ([]*models.TechnicalIndicator, error) {
	query := `
		SELECT ` + indicatorColumns + `
		FROM technical_indicators
		WHERE symbol = ? AND date = ? AND timeframe = ?
		ORDER BY indicator_type
	`
	return db.scanIndicators(db.query(query, symbol, dateOnly(date), models.TimeframeDaily))
}

// GetIndicatorHistory retrieves historical values for a specific indicator, newest first
func (db *DB) GetIndicatorHistory(symbol string, indicatorType string, limit int) ([]*models.TechnicalIndicator, error) {
	query := `
		SELECT ` + indicatorColumns + `
		FROM technical_indicators
		WHERE symbol = ? AND indicator_type = ? AND timeframe = ?
		ORDER BY date DESC
		LIMIT ?
	`
	return db.scanIndicators(db.query(query, symbol, indicatorType, models.TimeframeDaily, limit))
}

// GetLatestIndicators retrieves the most recent value of every indicator for a symbol
func (db *DB) GetLatestIndicators(symbol string) ([]*models.TechnicalIndicator, error) {
	query := `
		SELECT ` + indicatorColumns + `
		FROM technical_indicators t
		WHERE t.symbol = ? AND t.timeframe = ? AND t.date = (
			SELECT MAX(date)
			FROM technical_indicators
			WHERE symbol = t.symbol AND indicator_type = t.indicator_type AND timeframe = t.timeframe
		)
		ORDER BY t.indicator_type
	`
	return db.scanIndicators(db.query(query, symbol, models.TimeframeDaily))
}

// DeleteIndicatorsOlderThan removes indicators older than a specified date
func (db *DB) DeleteIndicatorsOlderThan(date time.Time) (int64, error) {
	result, err := db.exec(`DELETE FROM technical_indicators WHERE date < ?`, dateOnly(date))
	if err != nil {
		return 0, fmt.Errorf("failed to delete old indicators: %w", err)
	}
	return result.RowsAffected()
}

func (db *DB) scanIndicators(rows *sql.Rows, err error) ([]*models.TechnicalIndicator, error) {
	if err != nil {
		return nil, fmt.Errorf("failed to query indicators: %w", err)
	}
	defer rows.Close()

	var indicators []*models.TechnicalIndicator
	for rows.Next() {
		var t models.TechnicalIndicator
		err := rows.Scan(
			&t.ID, &t.Symbol, &t.Date, &t.IndicatorType, &t.Value, &t.Timeframe, &t.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan indicator: %w", err)
		}
		t.Date = dateOnly(t.Date)
		indicators = append(indicators, &t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate indicators: %w", err)
	}
	return indicators, nil
}
