package service

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"workbench/core"
	"workbench/ingest"
	"workbench/metrics"

	"go.uber.org/zap"
)

// EventBatchWriter stores the events an upload decodes to.
type EventBatchWriter interface {
	InsertEvents(ctx context.Context, events []*core.Event) error
}

// ImportJobStorage defines the import job record operations.
type ImportJobStorage interface {
	InsertImportJob(ctx context.Context, job *core.ImportJob) error
	GetImportJobs(ctx context.Context, limit int) ([]core.ImportJob, error)
	DeleteImportJob(ctx context.Context, id string) error
}

// ImportService handles JSONL bulk uploads. Each upload is hashed, kept on
// disk under the import directory, and recorded as an ImportJob alongside
// the events it produced.
type ImportService struct {
	events    EventBatchWriter
	jobs      ImportJobStorage
	importDir string
	logger    *zap.SugaredLogger
}

// NewImportService creates an import service writing uploads under importDir.
func NewImportService(events EventBatchWriter, jobs ImportJobStorage, importDir string, logger *zap.SugaredLogger) *ImportService {
	return &ImportService{events: events, jobs: jobs, importDir: importDir, logger: logger}
}

// ImportJSONL reads a JSONL upload, stores the decoded events, and records
// an ImportJob with the upload's SHA-256 and line counts. The original
// upload bytes are retained on disk named after the job ID.
func (s *ImportService) ImportJSONL(ctx context.Context, r io.Reader, filename, source, host, user string) (*core.ImportJob, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading upload: %w", err)
	}
	if len(data) == 0 {
		return nil, invalidf("upload is empty")
	}

	sum := sha256.Sum256(data)
	digest := hex.EncodeToString(sum[:])

	parsed, err := ingest.ParseJSONL(bytes.NewReader(data), source, host, user, s.logger)
	if err != nil {
		return nil, err
	}
	if len(parsed.Events) == 0 {
		return nil, invalidf("upload contains no valid JSON lines")
	}

	if err := s.events.InsertEvents(ctx, parsed.Events); err != nil {
		return nil, fmt.Errorf("storing imported events: %w", err)
	}

	job := core.NewImportJob(filename, digest, source, host, user, len(parsed.Events))
	if err := s.writeUpload(job.ID, data); err != nil {
		s.logger.Warnw("Failed to retain import upload", "job_id", job.ID, "error", err)
	}
	if err := s.jobs.InsertImportJob(ctx, job); err != nil {
		return nil, fmt.Errorf("recording import job: %w", err)
	}

	metrics.EventsIngested.WithLabelValues(source).Add(float64(len(parsed.Events)))
	s.logger.Infow("JSONL import complete",
		"job_id", job.ID, "filename", filename,
		"ingested", len(parsed.Events), "skipped", parsed.Skipped)
	return job, nil
}

func (s *ImportService) writeUpload(jobID string, data []byte) error {
	if err := os.MkdirAll(s.importDir, 0o755); err != nil {
		return err
	}
	path := filepath.Join(s.importDir, jobID+".jsonl")
	return os.WriteFile(path, data, 0o644)
}

// ListImportJobs returns the newest import jobs.
func (s *ImportService) ListImportJobs(ctx context.Context, limit int) ([]core.ImportJob, error) {
	if limit <= 0 {
		limit = defaultEventPageSize
	}
	return s.jobs.GetImportJobs(ctx, limit)
}

// DeleteImportJob removes the job record. Already-ingested events and the
// retained upload file are left in place.
func (s *ImportService) DeleteImportJob(ctx context.Context, id string) error {
	return s.jobs.DeleteImportJob(ctx, id)
}
