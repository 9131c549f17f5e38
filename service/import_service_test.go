package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"workbench/core"
	"workbench/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeImportStorage struct {
	events []*core.Event
	jobs   []*core.ImportJob
}

func (f *fakeImportStorage) InsertEvents(_ context.Context, events []*core.Event) error {
	f.events = append(f.events, events...)
	return nil
}

func (f *fakeImportStorage) InsertImportJob(_ context.Context, job *core.ImportJob) error {
	f.jobs = append(f.jobs, job)
	return nil
}

func (f *fakeImportStorage) GetImportJobs(_ context.Context, limit int) ([]core.ImportJob, error) {
	out := make([]core.ImportJob, 0, len(f.jobs))
	for _, job := range f.jobs {
		if len(out) == limit {
			break
		}
		out = append(out, *job)
	}
	return out, nil
}

func (f *fakeImportStorage) DeleteImportJob(_ context.Context, id string) error {
	for i, job := range f.jobs {
		if job.ID == id {
			f.jobs = append(f.jobs[:i], f.jobs[i+1:]...)
			return nil
		}
	}
	return storage.ErrImportJobNotFound
}

func TestImportService_ImportJSONL(t *testing.T) {
	store := &fakeImportStorage{}
	importDir := t.TempDir()
	svc := NewImportService(store, store, importDir, zap.NewNop().Sugar())

	upload := "{\"a\":1}\nnot json\n{\"b\":2}\n"
	sum := sha256.Sum256([]byte(upload))

	job, err := svc.ImportJSONL(context.Background(), strings.NewReader(upload), "batch.jsonl", "auth", "web-01", "")
	require.NoError(t, err)

	assert.Equal(t, "batch.jsonl", job.Filename)
	assert.Equal(t, hex.EncodeToString(sum[:]), job.SHA256)
	assert.Equal(t, 2, job.EventsIngested, "Malformed lines are skipped, not fatal")
	assert.Len(t, store.events, 2)
	assert.Equal(t, "auth", store.events[0].Source)
	assert.Equal(t, "web-01", store.events[0].Host)
	require.Len(t, store.jobs, 1)

	// The original upload bytes are retained on disk named after the job.
	retained, err := os.ReadFile(filepath.Join(importDir, job.ID+".jsonl"))
	require.NoError(t, err)
	assert.Equal(t, upload, string(retained))
}

func TestImportService_EmptyUploadRejected(t *testing.T) {
	svc := NewImportService(&fakeImportStorage{}, &fakeImportStorage{}, t.TempDir(), zap.NewNop().Sugar())

	_, err := svc.ImportJSONL(context.Background(), strings.NewReader(""), "empty.jsonl", "auth", "", "")
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestImportService_NoValidLinesRejected(t *testing.T) {
	store := &fakeImportStorage{}
	svc := NewImportService(store, store, t.TempDir(), zap.NewNop().Sugar())

	_, err := svc.ImportJSONL(context.Background(), strings.NewReader("garbage\nmore garbage\n"), "bad.jsonl", "auth", "", "")
	assert.ErrorIs(t, err, ErrInvalidInput)
	assert.Empty(t, store.events)
	assert.Empty(t, store.jobs)
}

func TestImportService_DeleteImportJobKeepsEvents(t *testing.T) {
	store := &fakeImportStorage{}
	svc := NewImportService(store, store, t.TempDir(), zap.NewNop().Sugar())
	ctx := context.Background()

	job, err := svc.ImportJSONL(ctx, strings.NewReader("{\"a\":1}\n"), "batch.jsonl", "auth", "", "")
	require.NoError(t, err)

	require.NoError(t, svc.DeleteImportJob(ctx, job.ID))
	assert.Empty(t, store.jobs)
	assert.Len(t, store.events, 1, "Ingested events survive job deletion")

	assert.ErrorIs(t, svc.DeleteImportJob(ctx, job.ID), storage.ErrImportJobNotFound)
}
