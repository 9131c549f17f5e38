package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"workbench/core"

	"go.uber.org/zap"
)

// SQLiteActionStorage handles the incident audit trail. Actions are
// write-once: there is deliberately no update or delete method here beyond
// the cascade in DeleteIncident.
type SQLiteActionStorage struct {
	sqlite *SQLite
	logger *zap.SugaredLogger
}

// NewSQLiteActionStorage creates a new action storage handler.
func NewSQLiteActionStorage(sqlite *SQLite, logger *zap.SugaredLogger) *SQLiteActionStorage {
	return &SQLiteActionStorage{sqlite: sqlite, logger: logger}
}

// InsertAction appends an audit entry.
func (s *SQLiteActionStorage) InsertAction(ctx context.Context, action *core.IncidentAction) error {
	var detailsJSON sql.NullString
	if action.Details != nil {
		raw, err := json.Marshal(action.Details)
		if err != nil {
			return fmt.Errorf("failed to serialize action details: %w", err)
		}
		detailsJSON = sql.NullString{String: string(raw), Valid: true}
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	_, err := s.sqlite.WriteDB.ExecContext(ctx, `
		INSERT INTO incident_actions (id, incident_id, created_at, actor, action_type, summary, details)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		action.ID, action.IncidentID, formatTime(action.CreatedAt),
		action.Actor, string(action.ActionType), action.Summary, detailsJSON)
	if err != nil {
		return fmt.Errorf("failed to insert action: %w", err)
	}
	return nil
}

// GetActionsByIncident retrieves an incident's audit entries, oldest first
// with the ID as tiebreak so the order is stable across reads.
func (s *SQLiteActionStorage) GetActionsByIncident(ctx context.Context, incidentID string) ([]core.IncidentAction, error) {
	rows, err := s.sqlite.ReadDB.QueryContext(ctx, `
		SELECT id, incident_id, created_at, actor, action_type, summary, details
		FROM incident_actions
		WHERE incident_id = ?
		ORDER BY created_at ASC, id ASC`, incidentID)
	if err != nil {
		return nil, fmt.Errorf("failed to query incident actions: %w", err)
	}
	defer rows.Close()

	var actions []core.IncidentAction
	for rows.Next() {
		var action core.IncidentAction
		var createdAt, actionType string
		var detailsJSON sql.NullString

		if err := rows.Scan(&action.ID, &action.IncidentID, &createdAt,
			&action.Actor, &actionType, &action.Summary, &detailsJSON); err != nil {
			return nil, fmt.Errorf("failed to scan action: %w", err)
		}

		action.ActionType = core.ActionType(actionType)
		if action.CreatedAt, err = parseTime(createdAt); err != nil {
			return nil, fmt.Errorf("action %s: %w", action.ID, err)
		}
		if detailsJSON.Valid {
			if err := json.Unmarshal([]byte(detailsJSON.String), &action.Details); err != nil {
				return nil, fmt.Errorf("failed to parse details for action %s: %w", action.ID, err)
			}
		}

		actions = append(actions, action)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate actions: %w", err)
	}
	return actions, nil
}
