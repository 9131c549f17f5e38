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

// SQLiteIncidentStorage handles incident and alert-link persistence.
type SQLiteIncidentStorage struct {
	sqlite *SQLite
	logger *zap.SugaredLogger
}

// NewSQLiteIncidentStorage creates a new incident storage handler.
func NewSQLiteIncidentStorage(sqlite *SQLite, logger *zap.SugaredLogger) *SQLiteIncidentStorage {
	return &SQLiteIncidentStorage{sqlite: sqlite, logger: logger}
}

// CreateIncident stores a new incident.
func (s *SQLiteIncidentStorage) CreateIncident(ctx context.Context, incident *core.Incident) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	_, err := s.sqlite.WriteDB.ExecContext(ctx, `
		INSERT INTO incidents (id, created_at, updated_at, title, severity, status, description)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		incident.ID, formatTime(incident.CreatedAt), formatTime(incident.UpdatedAt),
		incident.Title, string(incident.Severity), string(incident.Status), incident.Description)
	if err != nil {
		return fmt.Errorf("failed to insert incident: %w", err)
	}
	return nil
}

// GetIncident retrieves a single incident by ID.
func (s *SQLiteIncidentStorage) GetIncident(ctx context.Context, id string) (*core.Incident, error) {
	row := s.sqlite.ReadDB.QueryRowContext(ctx, `
		SELECT id, created_at, updated_at, title, severity, status, description
		FROM incidents WHERE id = ?`, id)

	incident, err := scanIncident(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrIncidentNotFound
	}
	if err != nil {
		return nil, err
	}
	return incident, nil
}

// GetIncidents retrieves the newest incidents, bounded by limit.
func (s *SQLiteIncidentStorage) GetIncidents(ctx context.Context, limit int) ([]core.Incident, error) {
	rows, err := s.sqlite.ReadDB.QueryContext(ctx, `
		SELECT id, created_at, updated_at, title, severity, status, description
		FROM incidents
		ORDER BY created_at DESC, id DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query incidents: %w", err)
	}
	defer rows.Close()

	var incidents []core.Incident
	for rows.Next() {
		incident, err := scanIncident(rows)
		if err != nil {
			return nil, err
		}
		incidents = append(incidents, *incident)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate incidents: %w", err)
	}
	return incidents, nil
}

// UpdateIncident persists the incident's mutable fields (status, updated_at,
// title, severity, description).
func (s *SQLiteIncidentStorage) UpdateIncident(ctx context.Context, incident *core.Incident) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	result, err := s.sqlite.WriteDB.ExecContext(ctx, `
		UPDATE incidents
		SET updated_at = ?, title = ?, severity = ?, status = ?, description = ?
		WHERE id = ?`,
		formatTime(incident.UpdatedAt), incident.Title, string(incident.Severity),
		string(incident.Status), incident.Description, incident.ID)
	if err != nil {
		return fmt.Errorf("failed to update incident: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update result: %w", err)
	}
	if affected == 0 {
		return ErrIncidentNotFound
	}
	return nil
}

// DeleteIncident removes an incident together with its alert links and
// actions. Alerts themselves are left in place.
func (s *SQLiteIncidentStorage) DeleteIncident(ctx context.Context, id string) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	tx, err := s.sqlite.WriteDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM incident_alerts WHERE incident_id = ?", id); err != nil {
		return fmt.Errorf("failed to delete incident alert links: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM incident_actions WHERE incident_id = ?", id); err != nil {
		return fmt.Errorf("failed to delete incident actions: %w", err)
	}

	result, err := tx.ExecContext(ctx, "DELETE FROM incidents WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete incident: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check delete result: %w", err)
	}
	if affected == 0 {
		return ErrIncidentNotFound
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit incident delete: %w", err)
	}
	return nil
}

// LinkAlert links an alert to an incident. Linking the same pair twice is a
// no-op; the primary key on (incident_id, alert_id) makes the operation
// idempotent at the write boundary. Reports whether a new link was created.
func (s *SQLiteIncidentStorage) LinkAlert(ctx context.Context, incidentID, alertID string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	result, err := s.sqlite.WriteDB.ExecContext(ctx, `
		INSERT INTO incident_alerts (incident_id, alert_id, added_at)
		VALUES (?, ?, ?)
		ON CONFLICT(incident_id, alert_id) DO NOTHING`,
		incidentID, alertID, formatTime(time.Now().UTC()))
	if err != nil {
		return false, fmt.Errorf("failed to link alert: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to check link result: %w", err)
	}
	return affected > 0, nil
}

func scanIncident(row rowScanner) (*core.Incident, error) {
	var incident core.Incident
	var createdAt, updatedAt, severity, status string

	if err := row.Scan(&incident.ID, &createdAt, &updatedAt,
		&incident.Title, &severity, &status, &incident.Description); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan incident: %w", err)
	}

	incident.Severity = core.Severity(severity)
	incident.Status = core.IncidentStatus(status)

	var err error
	if incident.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, fmt.Errorf("incident %s: %w", incident.ID, err)
	}
	if incident.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, fmt.Errorf("incident %s: %w", incident.ID, err)
	}
	return &incident, nil
}
