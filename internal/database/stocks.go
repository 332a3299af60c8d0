package database

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/trogers1052/stock-tracker/internal/models"
)

// SaveStock inserts or updates stock metadata
func (db *DB) SaveStock(s *models.Stock) error {
	query := `
		INSERT INTO stocks (symbol, name, exchange, currency, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (symbol) DO UPDATE SET
			name = excluded.name,
			exchange = excluded.exchange,
			currency = excluded.currency,
			updated_at = excluded.updated_at
	`
	now := time.Now().UTC()
	if _, err := db.exec(query, s.Symbol, s.Name, s.Exchange, s.Currency, now, now); err != nil {
		return fmt.Errorf("failed to save stock: %w", err)
	}
	if s.CreatedAt.IsZero() {
		s.CreatedAt = now
	}
	s.UpdatedAt = now
	return nil
}

// GetStock retrieves stock metadata by symbol
func (db *DB) GetStock(symbol string) (*models.Stock, error) {
	query := `
		SELECT symbol, name, exchange, currency, created_at, updated_at
		FROM stocks
		WHERE symbol = ?
	`
	var s models.Stock
	err := db.queryRow(query, symbol).Scan(
		&s.Symbol, &s.Name, &s.Exchange, &s.Currency, &s.CreatedAt, &s.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("stock %s: %w", symbol, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get stock: %w", err)
	}
	return &s, nil
}

// GetAllStocks retrieves every known stock ordered by symbol
func (db *DB) GetAllStocks() ([]*models.Stock, error) {
	rows, err := db.query(`
		SELECT symbol, name, exchange, currency, created_at, updated_at
		FROM stocks
		ORDER BY symbol
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query stocks: %w", err)
	}
	defer rows.Close()

	var stocks []*models.Stock
	for rows.Next() {
		var s models.Stock
		if err := rows.Scan(&s.Symbol, &s.Name, &s.Exchange, &s.Currency, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan stock: %w", err)
		}
		stocks = append(stocks, &s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate stocks: %w", err)
	}
	return stocks, nil
}
