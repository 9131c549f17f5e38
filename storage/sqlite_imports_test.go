package storage

import (
	"context"
	"testing"
	"time"

	"workbench/core"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestImportStorage_InsertAndList(t *testing.T) {
	sqlite := setupTestSQLite(t)
	storage := NewSQLiteImportStorage(sqlite, zap.NewNop().Sugar())
	ctx := context.Background()

	base := time.Now().UTC()
	old := core.NewImportJob("monday.jsonl", "aaa111", "auth", "web-01", "", 120)
	old.CreatedAt = base
	recent := core.NewImportJob("tuesday.jsonl", "bbb222", "auth", "", "alice", 45)
	recent.CreatedAt = base.Add(time.Hour)

	require.NoError(t, storage.InsertImportJob(ctx, old))
	require.NoError(t, storage.InsertImportJob(ctx, recent))

	jobs, err := storage.GetImportJobs(ctx, 10)
	require.NoError(t, err)
	require.Len(t, jobs, 2)

	assert.Equal(t, recent.ID, jobs[0].ID, "Jobs should come back newest first")
	assert.Equal(t, "tuesday.jsonl", jobs[0].Filename)
	assert.Equal(t, "bbb222", jobs[0].SHA256)
	assert.Equal(t, "alice", jobs[0].User)
	assert.Equal(t, 45, jobs[0].EventsIngested)

	assert.Equal(t, old.ID, jobs[1].ID)
	assert.Equal(t, "web-01", jobs[1].Host)
	assert.Equal(t, 120, jobs[1].EventsIngested)
	assert.True(t, old.CreatedAt.Equal(jobs[1].CreatedAt))

	jobs, err = storage.GetImportJobs(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, jobs, 1)
}

func TestImportStorage_DeleteImportJob(t *testing.T) {
	sqlite := setupTestSQLite(t)
	storage := NewSQLiteImportStorage(sqlite, zap.NewNop().Sugar())
	ctx := context.Background()

	job := core.NewImportJob("batch.jsonl", "ccc333", "netflow", "", "", 10)
	require.NoError(t, storage.InsertImportJob(ctx, job))

	require.NoError(t, storage.DeleteImportJob(ctx, job.ID))

	jobs, err := storage.GetImportJobs(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, jobs)

	assert.ErrorIs(t, storage.DeleteImportJob(ctx, job.ID), ErrImportJobNotFound)
}
