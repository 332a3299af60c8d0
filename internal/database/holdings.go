package database

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/trogers1052/stock-tracker/internal/models"
)

const holdingColumns = `
	h.id, h.username, h.symbol, h.quantity, h.purchase_price, h.purchase_date,
	COALESCE(s.name, ''), h.created_at, h.updated_at
`

// CreateHolding inserts a new holding
func (db *DB) CreateHolding(h *models.Holding) error {
	query := `
		INSERT INTO holdings (
			username, symbol, quantity, purchase_price, purchase_date, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?)
		RETURNING id
	`
	now := time.Now().UTC()
	err := db.queryRow(query,
		h.Username, h.Symbol, h.Quantity, h.PurchasePrice, dateOnly(h.PurchaseDate), now, now,
	).Scan(&h.ID)
	if err != nil {
		return fmt.Errorf("failed to create holding: %w", err)
	}
	h.PurchaseDate = dateOnly(h.PurchaseDate)
	h.CreatedAt = now
	h.UpdatedAt = now
	return nil
}

// GetHolding retrieves one of a user's holdings
func (db *DB) GetHolding(username string, id int) (*models.Holding, error) {
	query := `
		SELECT ` + holdingColumns + `
		FROM holdings h
		LEFT JOIN stocks s ON s.symbol = h.symbol
		WHERE h.id = ? AND h.username = ?
	`
	h, err := scanHolding(db.queryRow(query, id, username))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("holding %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get holding: %w", err)
	}
	return h, nil
}

// GetHoldings retrieves a user's holdings, oldest purchase first
func (db *DB) GetHoldings(username string) ([]*models.Holding, error) {
	query := `
		SELECT ` + holdingColumns + `
		FROM holdings h
		LEFT JOIN stocks s ON s.symbol = h.symbol
		WHERE h.username = ?
		ORDER BY h.purchase_date, h.id
	`
	return db.scanHoldings(db.query(query, username))
}

// UpdateHolding updates quantity, price and date of a user's holding
func (db *DB) UpdateHolding(h *models.Holding) error {
	query := `
		UPDATE holdings
		SET symbol = ?, quantity = ?, purchase_price = ?, purchase_date = ?, updated_at = ?
		WHERE id = ? AND username = ?
	`
	now := time.Now().UTC()
	result, err := db.exec(query,
		h.Symbol, h.Quantity, h.PurchasePrice, dateOnly(h.PurchaseDate), now, h.ID, h.Username,
	)
	if err != nil {
		return fmt.Errorf("failed to update holding: %w", err)
	}
	if err := requireAffected(result, "holding", h.ID); err != nil {
		return err
	}
	h.UpdatedAt = now
	return nil
}

// DeleteHolding removes a user's holding
func (db *DB) DeleteHolding(username string, id int) error {
	result, err := db.exec(`DELETE FROM holdings WHERE id = ? AND username = ?`, id, username)
	if err != nil {
		return fmt.Errorf("failed to delete holding: %w", err)
	}
	return requireAffected(result, "holding", id)
}

// InsertHoldings adds several holdings for a user in one transaction
func (db *DB) InsertHoldings(username string, holdings []*models.Holding) error {
	return db.writeHoldings(username, holdings, false)
}

// ReplaceHoldings atomically replaces all of a user's holdings
func (db *DB) ReplaceHoldings(username string, holdings []*models.Holding) error {
	return db.writeHoldings(username, holdings, true)
}

func (db *DB) writeHoldings(username string, holdings []*models.Holding, replace bool) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if replace {
		if _, err := tx.Exec(db.rebind(`DELETE FROM holdings WHERE username = ?`), username); err != nil {
			return fmt.Errorf("failed to clear holdings: %w", err)
		}
	}

	query := db.rebind(`
		INSERT INTO holdings (
			username, symbol, quantity, purchase_price, purchase_date, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?)
		RETURNING id
	`)
	now := time.Now().UTC()
	for _, h := range holdings {
		h.Username = username
		h.PurchaseDate = dateOnly(h.PurchaseDate)
		err := tx.QueryRow(query,
			h.Username, h.Symbol, h.Quantity, h.PurchasePrice, h.PurchaseDate, now, now,
		).Scan(&h.ID)
		if err != nil {
			return fmt.Errorf("failed to insert holding %s: %w", h.Symbol, err)
		}
		h.CreatedAt = now
		h.UpdatedAt = now
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func scanHolding(row *sql.Row) (*models.Holding, error) {
	var h models.Holding
	err := row.Scan(
		&h.ID, &h.Username, &h.Symbol, &h.Quantity, &h.PurchasePrice, &h.PurchaseDate,
		&h.StockName, &h.CreatedAt, &h.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	h.PurchaseDate = dateOnly(h.PurchaseDate)
	return &h, nil
}

func (db *DB) scanHoldings(rows *sql.Rows, err error) ([]*models.Holding, error) {
	if err != nil {
		return nil, fmt.Errorf("failed to query holdings: %w", err)
	}
	defer rows.Close()

	var holdings []*models.Holding
	for rows.Next() {
		var h models.Holding
		err := rows.Scan(
			&h.ID, &h.Username, &h.Symbol, &h.Quantity, &h.PurchasePrice, &h.PurchaseDate,
			&h.StockName, &h.CreatedAt, &h.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan holding: %w", err)
		}
		h.PurchaseDate = dateOnly(h.PurchaseDate)
		holdings = append(holdings, &h)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate holdings: %w", err)
	}
	return holdings, nil
}

// dateOnly truncates t to midnight UTC of its calendar date
func dateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
