package database

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/trogers1052/stock-tracker/internal/models"
)

const alertColumns = `
	id, username, symbol, rule_type, comparison, threshold, state, notify_email,
	triggered_count, last_triggered_at, last_triggered_value, created_at, updated_at
`

// CreateAlert inserts a new alert in the active state
func (db *DB) CreateAlert(a *models.Alert) error {
	query := `
		INSERT INTO alerts (
			username, symbol, rule_type, comparison, threshold, state, notify_email,
			created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING id
	`
	now := time.Now().UTC()
	a.State = models.AlertStateActive
	err := db.queryRow(query,
		a.Username, a.Symbol, a.RuleType, a.Comparison, a.Threshold, a.State,
		nullString(a.NotifyEmail), now, now,
	).Scan(&a.ID)
	if err != nil {
		return fmt.Errorf("failed to create alert: %w", err)
	}
	a.CreatedAt = now
	a.UpdatedAt = now
	return nil
}

// GetAlert retrieves one of a user's alerts
func (db *DB) GetAlert(username string, id int) (*models.Alert, error) {
	query := `SELECT ` + alertColumns + ` FROM alerts WHERE id = ? AND username = ?`
	rows, err := db.query(query, id, username)
	alerts, err := db.scanAlerts(rows, err)
	if err != nil {
		return nil, err
	}
	if len(alerts) == 0 {
		return nil, fmt.Errorf("alert %d: %w", id, ErrNotFound)
	}
	return alerts[0], nil
}

// GetAlerts retrieves all of a user's alerts, newest first
func (db *DB) GetAlerts(username string) ([]*models.Alert, error) {
	query := `SELECT ` + alertColumns + ` FROM alerts WHERE username = ? ORDER BY created_at DESC, id DESC`
	return db.scanAlerts(db.query(query, username))
}

// GetActiveAlerts retrieves every armed alert across all users
func (db *DB) GetActiveAlerts() ([]*models.Alert, error) {
	query := `SELECT ` + alertColumns + ` FROM alerts WHERE state = ? ORDER BY symbol, id`
	return db.scanAlerts(db.query(query, models.AlertStateActive))
}

// GetActiveAlertsBySymbol retrieves armed alerts for one symbol
func (db *DB) GetActiveAlertsBySymbol(symbol string) ([]*models.Alert, error) {
	query := `SELECT ` + alertColumns + ` FROM alerts WHERE state = ? AND symbol = ? ORDER BY id`
	return db.scanAlerts(db.query(query, models.AlertStateActive, symbol))
}

func (db *DB) scanAlerts(rows *sql.Rows, err error) ([]*models.Alert, error) {
	if err != nil {
		return nil, fmt.Errorf("failed to query alerts: %w", err)
	}
	defer rows.Close()

	var alerts []*models.Alert
	for rows.Next() {
		var a models.Alert
		var notifyEmail sql.NullString
		var lastTriggeredAt sql.NullTime
		var lastTriggeredValue decimal.NullDecimal

		err := rows.Scan(
			&a.ID, &a.Username, &a.Symbol, &a.RuleType, &a.Comparison, &a.Threshold, &a.State,
			&notifyEmail, &a.TriggeredCount, &lastTriggeredAt, &lastTriggeredValue,
			&a.CreatedAt, &a.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan alert: %w", err)
		}

		if notifyEmail.Valid {
			a.NotifyEmail = notifyEmail.String
		}
		if lastTriggeredAt.Valid {
			a.LastTriggeredAt = &lastTriggeredAt.Time
		}
		if lastTriggeredValue.Valid {
			a.LastTriggeredValue = lastTriggeredValue.Decimal
		}

		alerts = append(alerts, &a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate alerts: %w", err)
	}
	return alerts, nil
}

// UpdateAlert changes the rule of a user's alert. The state is left untouched.
func (db *DB) UpdateAlert(a *models.Alert) error {
	query := `
		UPDATE alerts SET
			symbol = ?, rule_type = ?, comparison = ?, threshold = ?, notify_email = ?, updated_at = ?
		WHERE id = ? AND username = ?
	`
	now := time.Now().UTC()
	result, err := db.exec(query,
		a.Symbol, a.RuleType, a.Comparison, a.Threshold, nullString(a.NotifyEmail), now,
		a.ID, a.Username,
	)
	if err != nil {
		return fmt.Errorf("failed to update alert: %w", err)
	}
	if err := requireAffected(result, "alert", a.ID); err != nil {
		return err
	}
	a.UpdatedAt = now
	return nil
}

// TriggerAlert moves an active alert to triggered and records the history row
// in the same transaction. The update only applies while the alert is still
// active, so of several concurrent callers exactly one gets ok == true.
func (db *DB) TriggerAlert(a *models.Alert, value decimal.Decimal, message string) (*models.AlertHistory, bool, error) {
	tx, err := db.conn.Begin()
	if err != nil {
		return nil, false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().UTC()
	result, err := tx.Exec(db.rebind(`
		UPDATE alerts SET
			state = ?,
			triggered_count = triggered_count + 1,
			last_triggered_at = ?,
			last_triggered_value = ?,
			updated_at = ?
		WHERE id = ? AND state = ?
	`), models.AlertStateTriggered, now, value, now, a.ID, models.AlertStateActive)
	if err != nil {
		return nil, false, fmt.Errorf("failed to mark alert triggered: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return nil, false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return nil, false, nil
	}

	h := &models.AlertHistory{
		AlertID:        a.ID,
		Username:       a.Username,
		Symbol:         a.Symbol,
		RuleType:       a.RuleType,
		Comparison:     a.Comparison,
		Threshold:      a.Threshold,
		TriggeredValue: value,
		Message:        message,
		TriggeredAt:    now,
	}
	err = tx.QueryRow(db.rebind(`
		INSERT INTO alert_history (
			alert_id, username, symbol, rule_type, comparison, threshold,
			triggered_value, message, notification_sent, triggered_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING id
	`),
		h.AlertID, h.Username, h.Symbol, h.RuleType, h.Comparison, h.Threshold,
		h.TriggeredValue, nullString(h.Message), false, h.TriggeredAt,
	).Scan(&h.ID)
	if err != nil {
		return nil, false, fmt.Errorf("failed to create alert history: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, false, fmt.Errorf("failed to commit transaction: %w", err)
	}

	a.State = models.AlertStateTriggered
	a.TriggeredCount++
	a.LastTriggeredAt = &now
	a.LastTriggeredValue = value
	a.UpdatedAt = now
	return h, true, nil
}

// ResetAlert re-arms a user's alert. Resetting an already active alert is a no-op.
func (db *DB) ResetAlert(username string, id int) error {
	query := `UPDATE alerts SET state = ?, updated_at = ? WHERE id = ? AND username = ?`
	result, err := db.exec(query, models.AlertStateActive, time.Now().UTC(), id, username)
	if err != nil {
		return fmt.Errorf("failed to reset alert: %w", err)
	}
	return requireAffected(result, "alert", id)
}

// DeleteAlert removes a user's alert. Its history is kept with a null alert_id.
func (db *DB) DeleteAlert(username string, id int) error {
	result, err := db.exec(`DELETE FROM alerts WHERE id = ? AND username = ?`, id, username)
	if err != nil {
		return fmt.Errorf("failed to delete alert: %w", err)
	}
	return requireAffected(result, "alert", id)
}

// GetAlertStatistics counts a user's alerts by state and rule type
func (db *DB) GetAlertStatistics(username string) (*models.AlertStatistics, error) {
	rows, err := db.query(`
		SELECT state, rule_type, COUNT(*)
		FROM alerts
		WHERE username = ?
		GROUP BY state, rule_type
	`, username)
	if err != nil {
		return nil, fmt.Errorf("failed to query alert statistics: %w", err)
	}
	defer rows.Close()

	stats := &models.AlertStatistics{ByType: map[string]int{}}
	for rows.Next() {
		var state, ruleType string
		var count int
		if err := rows.Scan(&state, &ruleType, &count); err != nil {
			return nil, fmt.Errorf("failed to scan alert statistics: %w", err)
		}
		switch state {
		case models.AlertStateActive:
			stats.Active += count
		case models.AlertStateTriggered:
			stats.Triggered += count
		}
		stats.Total += count
		stats.ByType[ruleType] += count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate alert statistics: %w", err)
	}
	return stats, nil
}

// --- Alert History ---

// SetAlertHistoryNotification records the outcome of the email for a history row
func (db *DB) SetAlertHistoryNotification(id int, sent bool, notifyErr string) error {
	query := `UPDATE alert_history SET notification_sent = ?, notification_error = ? WHERE id = ?`
	result, err := db.exec(query, sent, nullString(notifyErr), id)
	if err != nil {
		return fmt.Errorf("failed to update alert history notification: %w", err)
	}
	return requireAffected(result, "alert history", id)
}

// GetAlertHistory retrieves a user's most recent alert history
func (db *DB) GetAlertHistory(username string, limit int) ([]*models.AlertHistory, error) {
	query := `
		SELECT id, alert_id, username, symbol, rule_type, comparison, threshold,
		       triggered_value, message, notification_sent, notification_error, triggered_at
		FROM alert_history
		WHERE username = ?
		ORDER BY triggered_at DESC, id DESC
		LIMIT ?
	`
	return db.scanAlertHistory(db.query(query, username, limit))
}

func (db *DB) scanAlertHistory(rows *sql.Rows, err error) ([]*models.AlertHistory, error) {
	if err != nil {
		return nil, fmt.Errorf("failed to query alert history: %w", err)
	}
	defer rows.Close()

	var history []*models.AlertHistory
	for rows.Next() {
		var h models.AlertHistory
		var alertID sql.NullInt64
		var message, notificationError sql.NullString

		err := rows.Scan(
			&h.ID, &alertID, &h.Username, &h.Symbol, &h.RuleType, &h.Comparison, &h.Threshold,
			&h.TriggeredValue, &message, &h.NotificationSent, &notificationError, &h.TriggeredAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan alert history: %w", err)
		}

		if alertID.Valid {
			h.AlertID = int(alertID.Int64)
		}
		if message.Valid {
			h.Message = message.String
		}
		if notificationError.Valid {
			h.NotificationError = notificationError.String
		}

		history = append(history, &h)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate alert history: %w", err)
	}
	return history, nil
}

// DeleteAlertHistoryOlderThan removes alert history older than a specified date
func (db *DB) DeleteAlertHistoryOlderThan(date time.Time) (int64, error) {
	result, err := db.exec(`DELETE FROM alert_history WHERE triggered_at < ?`, date.UTC())
	if err != nil {
		return 0, fmt.Errorf("failed to delete old alert history: %w", err)
	}
	return result.RowsAffected()
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
