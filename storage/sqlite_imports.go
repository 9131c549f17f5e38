package storage

import (
	"context"
	"fmt"
	"time"

	"workbench/core"

	"go.uber.org/zap"
)

// SQLiteImportStorage handles import job persistence.
type SQLiteImportStorage struct {
	sqlite *SQLite
	logger *zap.SugaredLogger
}

// NewSQLiteImportStorage creates a new import job storage handler.
func NewSQLiteImportStorage(sqlite *SQLite, logger *zap.SugaredLogger) *SQLiteImportStorage {
	return &SQLiteImportStorage{sqlite: sqlite, logger: logger}
}

// InsertImportJob stores an import job record.
func (s *SQLiteImportStorage) InsertImportJob(ctx context.Context, job *core.ImportJob) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	_, err := s.sqlite.WriteDB.ExecContext(ctx, `
		INSERT INTO import_jobs (id, created_at, filename, sha256, source, host, user, events_ingested)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		job.ID, formatTime(job.CreatedAt), job.Filename, job.SHA256,
		job.Source, job.Host, job.User, job.EventsIngested)
	if err != nil {
		return fmt.Errorf("failed to insert import job: %w", err)
	}
	return nil
}

// GetImportJobs retrieves the newest import jobs, bounded by limit.
func (s *SQLiteImportStorage) GetImportJobs(ctx context.Context, limit int) ([]core.ImportJob, error) {
	rows, err := s.sqlite.ReadDB.QueryContext(ctx, `
		SELECT id, created_at, filename, sha256, source, host, user, events_ingested
		FROM import_jobs
		ORDER BY created_at DESC, id DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query import jobs: %w", err)
	}
	defer rows.Close()

	var jobs []core.ImportJob
	for rows.Next() {
		var job core.ImportJob
		var createdAt string
		if err := rows.Scan(&job.ID, &createdAt, &job.Filename, &job.SHA256,
			&job.Source, &job.Host, &job.User, &job.EventsIngested); err != nil {
			return nil, fmt.Errorf("failed to scan import job: %w", err)
		}
		if job.CreatedAt, err = parseTime(createdAt); err != nil {
			return nil, fmt.Errorf("import job %s: %w", job.ID, err)
		}
		jobs = append(jobs, job)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate import jobs: %w", err)
	}
	return jobs, nil
}

// DeleteImportJob removes an import job record. Events ingested by the job
// are left in place.
func (s *SQLiteImportStorage) DeleteImportJob(ctx context.Context, id string) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	result, err := s.sqlite.WriteDB.ExecContext(ctx, "DELETE FROM import_jobs WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete import job: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check delete result: %w", err)
	}
	if affected == 0 {
		return ErrImportJobNotFound
	}
	return nil
}
