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

func TestIncidentStorage_CreateAndGet(t *testing.T) {
	sqlite := setupTestSQLite(t)
	storage := NewSQLiteIncidentStorage(sqlite, zap.NewNop().Sugar())
	ctx := context.Background()

	incident := core.NewIncident("Credential stuffing wave", core.SeverityCritical, "Multiple accounts targeted")
	require.NoError(t, storage.CreateIncident(ctx, incident))

	got, err := storage.GetIncident(ctx, incident.ID)
	require.NoError(t, err)
	assert.Equal(t, incident.ID, got.ID)
	assert.Equal(t, "Credential stuffing wave", got.Title)
	assert.Equal(t, core.SeverityCritical, got.Severity)
	assert.Equal(t, core.IncidentStatusOpen, got.Status)
	assert.Equal(t, "Multiple accounts targeted", got.Description)
	assert.True(t, incident.CreatedAt.Equal(got.CreatedAt))
	assert.True(t, incident.UpdatedAt.Equal(got.UpdatedAt))
}

func TestIncidentStorage_GetIncidentNotFound(t *testing.T) {
	sqlite := setupTestSQLite(t)
	storage := NewSQLiteIncidentStorage(sqlite, zap.NewNop().Sugar())

	_, err := storage.GetIncident(context.Background(), "no-such-incident")
	assert.ErrorIs(t, err, ErrIncidentNotFound)
}

func TestIncidentStorage_GetIncidentsNewestFirst(t *testing.T) {
	sqlite := setupTestSQLite(t)
	storage := NewSQLiteIncidentStorage(sqlite, zap.NewNop().Sugar())
	ctx := context.Background()

	base := time.Now().UTC()
	var newest *core.Incident
	for i := 0; i < 3; i++ {
		incident := core.NewIncident("incident", core.SeverityMedium, "")
		incident.CreatedAt = base.Add(time.Duration(i) * time.Second)
		require.NoError(t, storage.CreateIncident(ctx, incident))
		newest = incident
	}

	incidents, err := storage.GetIncidents(ctx, 10)
	require.NoError(t, err)
	require.Len(t, incidents, 3)
	assert.Equal(t, newest.ID, incidents[0].ID)

	incidents, err = storage.GetIncidents(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, incidents, 1)
}

func TestIncidentStorage_UpdateIncident(t *testing.T) {
	sqlite := setupTestSQLite(t)
	storage := NewSQLiteIncidentStorage(sqlite, zap.NewNop().Sugar())
	ctx := context.Background()

	incident := core.NewIncident("Initial title", core.SeverityLow, "")
	require.NoError(t, storage.CreateIncident(ctx, incident))

	incident.Title = "Escalated title"
	incident.Severity = core.SeverityHigh
	incident.Status = core.IncidentStatusClosed
	incident.UpdatedAt = incident.UpdatedAt.Add(time.Minute)
	require.NoError(t, storage.UpdateIncident(ctx, incident))

	got, err := storage.GetIncident(ctx, incident.ID)
	require.NoError(t, err)
	assert.Equal(t, "Escalated title", got.Title)
	assert.Equal(t, core.SeverityHigh, got.Severity)
	assert.Equal(t, core.IncidentStatusClosed, got.Status)
	assert.True(t, incident.UpdatedAt.Equal(got.UpdatedAt))

	missing := core.NewIncident("ghost", core.SeverityLow, "")
	assert.ErrorIs(t, storage.UpdateIncident(ctx, missing), ErrIncidentNotFound)
}

func TestIncidentStorage_LinkAlertIdempotent(t *testing.T) {
	sqlite := setupTestSQLite(t)
	incidents := NewSQLiteIncidentStorage(sqlite, zap.NewNop().Sugar())
	alerts := NewSQLiteAlertStorage(sqlite, zap.NewNop().Sugar())
	ctx := context.Background()

	incident := core.NewIncident("Link test", core.SeverityMedium, "")
	require.NoError(t, incidents.CreateIncident(ctx, incident))
	alert := storedAlert(t, alerts, "rule-1", "event-1", time.Now().UTC())

	linked, err := incidents.LinkAlert(ctx, incident.ID, alert.ID)
	require.NoError(t, err)
	assert.True(t, linked)

	linked, err = incidents.LinkAlert(ctx, incident.ID, alert.ID)
	require.NoError(t, err)
	assert.False(t, linked, "Relinking the same alert should be a no-op")

	got, err := alerts.GetAlertsByIncident(ctx, incident.ID)
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestIncidentStorage_DeleteIncidentRemovesLinksAndActions(t *testing.T) {
	sqlite := setupTestSQLite(t)
	incidents := NewSQLiteIncidentStorage(sqlite, zap.NewNop().Sugar())
	alerts := NewSQLiteAlertStorage(sqlite, zap.NewNop().Sugar())
	actions := NewSQLiteActionStorage(sqlite, zap.NewNop().Sugar())
	ctx := context.Background()

	incident := core.NewIncident("Delete test", core.SeverityMedium, "")
	require.NoError(t, incidents.CreateIncident(ctx, incident))

	alert := storedAlert(t, alerts, "rule-1", "event-1", time.Now().UTC())
	_, err := incidents.LinkAlert(ctx, incident.ID, alert.ID)
	require.NoError(t, err)

	action := core.NewIncidentAction(incident.ID, "analyst", core.ActionTypeNote, "first look", nil)
	require.NoError(t, actions.InsertAction(ctx, action))

	require.NoError(t, incidents.DeleteIncident(ctx, incident.ID))

	_, err = incidents.GetIncident(ctx, incident.ID)
	assert.ErrorIs(t, err, ErrIncidentNotFound)

	remaining, err := actions.GetActionsByIncident(ctx, incident.ID)
	require.NoError(t, err)
	assert.Empty(t, remaining)

	linked, err := alerts.GetAlertsByIncident(ctx, incident.ID)
	require.NoError(t, err)
	assert.Empty(t, linked)

	// The alert itself survives; only the membership row goes away.
	_, err = alerts.GetAlert(ctx, alert.ID)
	assert.NoError(t, err)

	assert.ErrorIs(t, incidents.DeleteIncident(ctx, incident.ID), ErrIncidentNotFound)
}
