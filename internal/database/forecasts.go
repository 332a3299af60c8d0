package database

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/trogers1052/stock-tracker/internal/models"
)

// CreateForecast stores a forecast run and its points in one transaction
func (db *DB) CreateForecast(f *models.Forecast) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().UTC()
	err = tx.QueryRow(db.rebind(`
		INSERT INTO forecasts (username, symbol, model, horizon, mae, rmse, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		RETURNING id
	`), f.Username, f.Symbol, f.Model, f.Horizon, f.MAE, f.RMSE, now).Scan(&f.ID)
	if err != nil {
		return fmt.Errorf("failed to create forecast: %w", err)
	}

	for i := range f.Points {
		f.Points[i].Date = dateOnly(f.Points[i].Date)
		_, err := tx.Exec(db.rebind(`
			INSERT INTO forecast_points (forecast_id, date, close) VALUES (?, ?, ?)
		`), f.ID, f.Points[i].Date, f.Points[i].Close)
		if err != nil {
			return fmt.Errorf("failed to insert forecast point: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	f.CreatedAt = now
	return nil
}

// GetForecast retrieves one of a user's forecasts with its points
func (db *DB) GetForecast(username string, id int) (*models.Forecast, error) {
	query := `
		SELECT id, username, symbol, model, horizon, mae, rmse, created_at
		FROM forecasts
		WHERE id = ? AND username = ?
	`
	var f models.Forecast
	err := db.queryRow(query, id, username).Scan(
		&f.ID, &f.Username, &f.Symbol, &f.Model, &f.Horizon, &f.MAE, &f.RMSE, &f.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("forecast %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get forecast: %w", err)
	}

	points, err := db.getForecastPoints(f.ID)
	if err != nil {
		return nil, err
	}
	f.Points = points
	return &f, nil
}

// GetForecasts retrieves a user's forecast runs, newest first, without points
func (db *DB) GetForecasts(username string, limit int) ([]*models.Forecast, error) {
	rows, err := db.query(`
		SELECT id, username, symbol, model, horizon, mae, rmse, created_at
		FROM forecasts
		WHERE username = ?
		ORDER BY created_at DESC, id DESC
		LIMIT ?
	`, username, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query forecasts: %w", err)
	}
	defer rows.Close()

	var forecasts []*models.Forecast
	for rows.Next() {
		var f models.Forecast
		err := rows.Scan(&f.ID, &f.Username, &f.Symbol, &f.Model, &f.Horizon, &f.MAE, &f.RMSE, &f.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan forecast: %w", err)
		}
		forecasts = append(forecasts, &f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate forecasts: %w", err)
	}
	return forecasts, nil
}

// DeleteForecast removes a user's forecast and its points
func (db *DB) DeleteForecast(username string, id int) error {
	result, err := db.exec(`DELETE FROM forecasts WHERE id = ? AND username = ?`, id, username)
	if err != nil {
		return fmt.Errorf("failed to delete forecast: %w", err)
	}
	return requireAffected(result, "forecast", id)
}

func (db *DB) getForecastPoints(forecastID int) ([]models.ForecastPoint, error) {
	rows, err := db.query(`
		SELECT date, close FROM forecast_points WHERE forecast_id = ? ORDER BY date
	`, forecastID)
	if err != nil {
		return nil, fmt.Errorf("failed to query forecast points: %w", err)
	}
	defer rows.Close()

	var points []models.ForecastPoint
	for rows.Next() {
		var p models.ForecastPoint
		if err := rows.Scan(&p.Date, &p.Close); err != nil {
			return nil, fmt.Errorf("failed to scan forecast point: %w", err)
		}
		p.Date = dateOnly(p.Date)
		points = append(points, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate forecast points: %w", err)
	}
	return points, nil
}
