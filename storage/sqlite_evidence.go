package storage

import (
	"context"
	"fmt"
	"time"

	"workbench/core"

	"go.uber.org/zap"
)

// SQLiteEvidenceStorage handles evidence metadata persistence.
type SQLiteEvidenceStorage struct {
	sqlite *SQLite
	logger *zap.SugaredLogger
}

// NewSQLiteEvidenceStorage creates a new evidence storage handler.
func NewSQLiteEvidenceStorage(sqlite *SQLite, logger *zap.SugaredLogger) *SQLiteEvidenceStorage {
	return &SQLiteEvidenceStorage{sqlite: sqlite, logger: logger}
}

// InsertEvidenceIfNew records the evidence file unless an identical record
// (same incident, filename and checksum) already exists, and reports
// whether a row was created. Re-exporting an unchanged packet therefore
// leaves the evidence list untouched.
func (s *SQLiteEvidenceStorage) InsertEvidenceIfNew(ctx context.Context, ev *core.EvidenceFile) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	result, err := s.sqlite.WriteDB.ExecContext(ctx, `
		INSERT INTO evidence_files (id, incident_id, created_at, filename, content_type, sha256, size_bytes)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(incident_id, filename, sha256) DO NOTHING`,
		ev.ID, ev.IncidentID, formatTime(ev.CreatedAt),
		ev.Filename, ev.ContentType, ev.SHA256, ev.SizeBytes)
	if err != nil {
		return false, fmt.Errorf("failed to insert evidence: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to check evidence insert result: %w", err)
	}
	return affected > 0, nil
}

// GetEvidenceByIncident retrieves an incident's evidence records, newest
// first.
func (s *SQLiteEvidenceStorage) GetEvidenceByIncident(ctx context.Context, incidentID string) ([]core.EvidenceFile, error) {
	rows, err := s.sqlite.ReadDB.QueryContext(ctx, `
		SELECT id, incident_id, created_at, filename, content_type, sha256, size_bytes
		FROM evidence_files
		WHERE incident_id = ?
		ORDER BY created_at DESC, id DESC`, incidentID)
	if err != nil {
		return nil, fmt.Errorf("failed to query evidence: %w", err)
	}
	defer rows.Close()

	var files []core.EvidenceFile
	for rows.Next() {
		var ev core.EvidenceFile
		var createdAt string
		if err := rows.Scan(&ev.ID, &ev.IncidentID, &createdAt,
			&ev.Filename, &ev.ContentType, &ev.SHA256, &ev.SizeBytes); err != nil {
			return nil, fmt.Errorf("failed to scan evidence: %w", err)
		}
		if ev.CreatedAt, err = parseTime(createdAt); err != nil {
			return nil, fmt.Errorf("evidence %s: %w", ev.ID, err)
		}
		files = append(files, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate evidence: %w", err)
	}
	return files, nil
}
