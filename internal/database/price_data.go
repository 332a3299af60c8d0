package database

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/trogers1052/stock-tracker/internal/models"
)

const priceDataColumns = `id, symbol, date, open, high, low, close, adj_close, volume, created_at`

const upsertPriceData = `
	INSERT INTO price_data_daily (symbol, date, open, high, low, close, adj_close, volume, created_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT (symbol, date) DO UPDATE SET
		open = excluded.open,
		high = excluded.high,
		low = excluded.low,
		close = excluded.close,
		adj_close = excluded.adj_close,
		volume = excluded.volume
`

// SavePriceSeries upserts every bar of a series in one transaction
func (db *DB) SavePriceSeries(series *models.PriceSeries) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(db.rebind(upsertPriceData))
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	now := time.Now().UTC()
	for _, b := range series.Bars {
		_, err := stmt.Exec(series.Symbol, dateOnly(b.Time), b.Open, b.High, b.Low, b.Close, b.AdjClose, b.Volume, now)
		if err != nil {
			return fmt.Errorf("failed to insert price data for %s: %w", series.Symbol, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// GetPriceDataBySymbol retrieves the most recent limit bars for a symbol in ascending date order
func (db *DB) GetPriceDataBySymbol(symbol string, limit int) ([]*models.PriceDataDaily, error) {
	query := `
		SELECT ` + priceDataColumns + `
		FROM price_data_daily
		WHERE symbol = ?
		ORDER BY date DESC
		LIMIT ?
	`
	prices, err := db.scanPriceData(db.query(query, symbol, limit))
	if err != nil {
		return nil, err
	}
	for i, j := 0, len(prices)-1; i < j; i, j = i+1, j-1 {
		prices[i], prices[j] = prices[j], prices[i]
	}
	return prices, nil
}

// GetPriceDataRange retrieves bars for a symbol between two dates, inclusive
func (db *DB) GetPriceDataRange(symbol string, startDate, endDate time.Time) ([]*models.PriceDataDaily, error) {
	query := `
		SELECT ` + priceDataColumns + `
		FROM price_data_daily
		WHERE symbol = ? AND date >= ? AND date <= ?
		ORDER BY date ASC
	`
	return db.scanPriceData(db.query(query, symbol, dateOnly(startDate), dateOnly(endDate)))
}

// DeletePriceDataOlderThan removes cached bars older than a specified date
func (db *DB) DeletePriceDataOlderThan(date time.Time) (int64, error) {
	result, err := db.exec(`DELETE FROM price_data_daily WHERE date < ?`, dateOnly(date))
	if err != nil {
		return 0, fmt.Errorf("failed to delete old price data: %w", err)
	}
	return result.RowsAffected()
}

func (db *DB) scanPriceData(rows *sql.Rows, err error) ([]*models.PriceDataDaily, error) {
	if err != nil {
		return nil, fmt.Errorf("failed to get price data: %w", err)
	}
	defer rows.Close()

	var prices []*models.PriceDataDaily
	for rows.Next() {
		var p models.PriceDataDaily
		err := rows.Scan(
			&p.ID, &p.Symbol, &p.Date, &p.Open, &p.High, &p.Low, &p.Close, &p.AdjClose, &p.Volume, &p.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan price data: %w", err)
		}
		p.Date = dateOnly(p.Date)
		prices = append(prices, &p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate price data: %w", err)
	}
	return prices, nil
}

// PriceSeriesFrom converts cached rows into a PriceSeries
func PriceSeriesFrom(symbol string, prices []*models.PriceDataDaily) *models.PriceSeries {
	series := &models.PriceSeries{Symbol: symbol, Bars: make([]models.Bar, 0, len(prices))}
	for _, p := range prices {
		series.Bars = append(series.Bars, p.Bar())
	}
	return series
}
