package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"workbench/core"

	"go.uber.org/zap"
)

// SQLiteAlertStorage handles alert persistence in SQLite.
type SQLiteAlertStorage struct {
	sqlite *SQLite
	logger *zap.SugaredLogger
}

// NewSQLiteAlertStorage creates a new alert storage handler.
func NewSQLiteAlertStorage(sqlite *SQLite, logger *zap.SugaredLogger) *SQLiteAlertStorage {
	return &SQLiteAlertStorage{sqlite: sqlite, logger: logger}
}

// InsertAlertIfNew inserts the alert unless one already exists for its
// (rule_id, event_id) pair, and reports whether a row was created. The
// UNIQUE constraint closes the check-then-create race under concurrent
// detection runs; there is deliberately no pre-read.
func (s *SQLiteAlertStorage) InsertAlertIfNew(ctx context.Context, alert *core.Alert) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	result, err := s.sqlite.WriteDB.ExecContext(ctx, `
		INSERT INTO alerts (id, created_at, rule_id, rule_name, severity,
		                    event_id, source, host, user, summary)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(rule_id, event_id) DO NOTHING`,
		alert.ID, formatTime(alert.CreatedAt), alert.RuleID, alert.RuleName,
		string(alert.Severity), alert.EventID, alert.Source, alert.Host, alert.User, alert.Summary)
	if err != nil {
		return false, fmt.Errorf("failed to insert alert: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to check alert insert result: %w", err)
	}
	return affected > 0, nil
}

// GetAlerts retrieves the newest alerts, bounded by limit.
func (s *SQLiteAlertStorage) GetAlerts(ctx context.Context, limit int) ([]core.Alert, error) {
	rows, err := s.sqlite.ReadDB.QueryContext(ctx, `
		SELECT id, created_at, rule_id, rule_name, severity, event_id, source, host, user, summary
		FROM alerts
		ORDER BY created_at DESC, id DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query alerts: %w", err)
	}
	defer rows.Close()

	return scanAlerts(rows)
}

// GetAlert retrieves a single alert by ID.
func (s *SQLiteAlertStorage) GetAlert(ctx context.Context, id string) (*core.Alert, error) {
	row := s.sqlite.ReadDB.QueryRowContext(ctx, `
		SELECT id, created_at, rule_id, rule_name, severity, event_id, source, host, user, summary
		FROM alerts WHERE id = ?`, id)

	alert, err := scanAlert(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrAlertNotFound
	}
	if err != nil {
		return nil, err
	}
	return alert, nil
}

// GetAlertsByIncident retrieves the alerts linked to an incident, oldest
// first with the ID as tiebreak so packet assembly sees a stable order.
func (s *SQLiteAlertStorage) GetAlertsByIncident(ctx context.Context, incidentID string) ([]core.Alert, error) {
	rows, err := s.sqlite.ReadDB.QueryContext(ctx, `
		SELECT a.id, a.created_at, a.rule_id, a.rule_name, a.severity,
		       a.event_id, a.source, a.host, a.user, a.summary
		FROM alerts a
		JOIN incident_alerts ia ON ia.alert_id = a.id
		WHERE ia.incident_id = ?
		ORDER BY a.created_at ASC, a.id ASC`, incidentID)
	if err != nil {
		return nil, fmt.Errorf("failed to query incident alerts: %w", err)
	}
	defer rows.Close()

	return scanAlerts(rows)
}

// DeleteAlert removes an alert and any incident links referencing it.
func (s *SQLiteAlertStorage) DeleteAlert(ctx context.Context, id string) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	tx, err := s.sqlite.WriteDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM incident_alerts WHERE alert_id = ?", id); err != nil {
		return fmt.Errorf("failed to delete alert links: %w", err)
	}

	result, err := tx.ExecContext(ctx, "DELETE FROM alerts WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete alert: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check delete result: %w", err)
	}
	if affected == 0 {
		return ErrAlertNotFound
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit alert delete: %w", err)
	}
	return nil
}

// GetAlertCount returns the total alert count.
func (s *SQLiteAlertStorage) GetAlertCount(ctx context.Context) (int64, error) {
	var count int64
	if err := s.sqlite.ReadDB.QueryRowContext(ctx, "SELECT COUNT(*) FROM alerts").Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count alerts: %w", err)
	}
	return count, nil
}

func scanAlert(row rowScanner) (*core.Alert, error) {
	var alert core.Alert
	var createdAt, severity string

	if err := row.Scan(&alert.ID, &createdAt, &alert.RuleID, &alert.RuleName, &severity,
		&alert.EventID, &alert.Source, &alert.Host, &alert.User, &alert.Summary); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan alert: %w", err)
	}

	alert.Severity = core.Severity(severity)

	var err error
	alert.CreatedAt, err = parseTime(createdAt)
	if err != nil {
		return nil, fmt.Errorf("alert %s: %w", alert.ID, err)
	}
	return &alert, nil
}

func scanAlerts(rows *sql.Rows) ([]core.Alert, error) {
	var alerts []core.Alert
	for rows.Next() {
		alert, err := scanAlert(rows)
		if err != nil {
			return nil, err
		}
		alerts = append(alerts, *alert)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate alerts: %w", err)
	}
	return alerts, nil
}
