package config

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.API.Port)
	assert.Equal(t, 500, cfg.Detection.EventLimit)
	assert.Equal(t, "", cfg.Detection.Schedule)
	assert.Equal(t, 500, cfg.Report.TimelineLimit)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.False(t, cfg.AuthEnabled())

	assert.Equal(t, "./data", cfg.DataPaths.DataDir)
	assert.Equal(t, filepath.Join("./data", "workbench.db"), cfg.DataPaths.SQLitePath)
	assert.Equal(t, filepath.Join("./data", "evidence"), cfg.DataPaths.EvidenceDir)
	assert.Equal(t, filepath.Join("./data", "imports"), cfg.DataPaths.ImportDir)
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	dataDir := t.TempDir()
	t.Setenv("WORKBENCH_DATA_DIR", dataDir)
	t.Setenv("WORKBENCH_DETECTION_SCHEDULE", "@every 5m")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, dataDir, cfg.DataPaths.DataDir)
	assert.Equal(t, filepath.Join(dataDir, "workbench.db"), cfg.DataPaths.SQLitePath)
	assert.Equal(t, "@every 5m", cfg.Detection.Schedule)
}

func TestLoadConfig_AdminKeyHashed(t *testing.T) {
	t.Setenv("WORKBENCH_ADMIN_API_KEY", "super-secret-admin-key")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Empty(t, cfg.API.AdminAPIKey, "Plaintext key must not survive load")
	require.NotEmpty(t, cfg.API.AdminAPIKeyHash)
	assert.True(t, cfg.AuthEnabled())
	assert.NoError(t, bcrypt.CompareHashAndPassword(
		[]byte(cfg.API.AdminAPIKeyHash), []byte("super-secret-admin-key")))
}

func TestLoadConfig_ShortAdminKeyRejected(t *testing.T) {
	t.Setenv("WORKBENCH_ADMIN_API_KEY", "tooshort")

	_, err := LoadConfig()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "at least 16 characters")
}

func TestLoadConfig_PrecomputedHashWins(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("whatever"), bcrypt.MinCost)
	require.NoError(t, err)
	t.Setenv("WORKBENCH_ADMIN_API_KEY_HASH", string(hash))
	t.Setenv("WORKBENCH_ADMIN_API_KEY", "super-secret-admin-key")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, string(hash), cfg.API.AdminAPIKeyHash)
	assert.Empty(t, cfg.API.AdminAPIKey)
}

func TestResolveDataPaths_KeepsExplicitValues(t *testing.T) {
	cfg := &Config{}
	cfg.DataPaths.DataDir = "/var/lib/workbench"
	cfg.DataPaths.SQLitePath = "/mnt/fast/workbench.db"
	cfg.ResolveDataPaths()

	assert.Equal(t, "/mnt/fast/workbench.db", cfg.DataPaths.SQLitePath)
	assert.Equal(t, filepath.Join("/var/lib/workbench", "evidence"), cfg.DataPaths.EvidenceDir)
	assert.Equal(t, filepath.Join("/var/lib/workbench", "imports"), cfg.DataPaths.ImportDir)
}
