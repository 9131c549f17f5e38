package bootstrap

import (
	"fmt"
	"os"

	"workbench/config"
	"workbench/storage"

	"go.uber.org/zap"
)

// EnsureDataDirectories creates the configured data directories if they do
// not exist yet.
func EnsureDataDirectories(cfg *config.Config, sugar *zap.SugaredLogger) error {
	dirs := []string{
		cfg.DataPaths.DataDir,
		cfg.DataPaths.EvidenceDir,
		cfg.DataPaths.ImportDir,
	}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating data directory %s: %w", dir, err)
		}
	}
	sugar.Infow("Data directories ready", "dirs", dirs)
	return nil
}

// InitSQLite opens the SQLite database and runs migrations.
func InitSQLite(cfg *config.Config, sugar *zap.SugaredLogger) (*storage.SQLite, error) {
	sqlite, err := storage.NewSQLite(cfg.DataPaths.SQLitePath, sugar)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize SQLite: %w", err)
	}
	sugar.Infow("SQLite initialized", "path", cfg.DataPaths.SQLitePath)
	return sqlite, nil
}
