// Package config loads the workbench configuration from config.yaml and
// WORKBENCH_* environment variables via viper, with working defaults for
// every knob.
package config

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/viper"
	"golang.org/x/crypto/bcrypt"
)

// DataPaths holds data directory and file path configuration.
type DataPaths struct {
	// DataDir is the base data directory (WORKBENCH_DATA_DIR, default: ./data)
	DataDir string `mapstructure:"data_dir"`
	// SQLitePath is the SQLite database file path (WORKBENCH_SQLITE_PATH, default: ${DataDir}/workbench.db)
	SQLitePath string `mapstructure:"sqlite_path"`
	// EvidenceDir holds exported packet snapshots (default: ${DataDir}/evidence)
	EvidenceDir string `mapstructure:"evidence_dir"`
	// ImportDir retains uploaded JSONL files (default: ${DataDir}/imports)
	ImportDir string `mapstructure:"import_dir"`
}

// Config holds all configuration for the workbench service.
type Config struct {
	DataPaths DataPaths `mapstructure:"data_paths"`

	API struct {
		Host string `mapstructure:"host"`
		Port int    `mapstructure:"port"`

		// AdminAPIKey is the plaintext key accepted on X-API-Key. When set
		// it is bcrypt-hashed at load time and the plaintext is discarded.
		AdminAPIKey string `mapstructure:"admin_api_key"`
		// AdminAPIKeyHash is a pre-computed bcrypt hash of the admin key.
		// Takes precedence over admin_api_key. Empty with no plaintext key
		// disables authentication.
		AdminAPIKeyHash string `mapstructure:"admin_api_key_hash"`

		ReadTimeout     int `mapstructure:"read_timeout"`     // seconds
		WriteTimeout    int `mapstructure:"write_timeout"`    // seconds
		ShutdownTimeout int `mapstructure:"shutdown_timeout"` // seconds
		MaxUploadBytes  int `mapstructure:"max_upload_bytes"`

		RateLimit struct {
			RequestsPerSecond int `mapstructure:"requests_per_second"`
			Burst             int `mapstructure:"burst"`
		} `mapstructure:"rate_limit"`
	} `mapstructure:"api"`

	Detection struct {
		// EventLimit bounds how many events one detection run scans.
		EventLimit int `mapstructure:"event_limit"`
		// Schedule is a cron expression for automatic runs; empty disables
		// the scheduler.
		Schedule string `mapstructure:"schedule"`
		// RulesFile is a YAML rule seed file loaded at startup; empty skips
		// seeding.
		RulesFile string `mapstructure:"rules_file"`
		// RunTimeout bounds a single scheduled run, in seconds.
		RunTimeout int `mapstructure:"run_timeout"`
	} `mapstructure:"detection"`

	Report struct {
		// IPFields are the event payload keys scanned for scope IPs.
		IPFields []string `mapstructure:"ip_fields"`
		// TimelineLimit caps timeline entries in rendered reports.
		TimelineLimit int `mapstructure:"timeline_limit"`
	} `mapstructure:"report"`

	Logging struct {
		Level string `mapstructure:"level"`
	} `mapstructure:"logging"`
}

func setDefaults() {
	viper.SetDefault("data_paths.data_dir", "./data")
	viper.SetDefault("data_paths.sqlite_path", "") // Empty = derive from data_dir
	viper.SetDefault("data_paths.evidence_dir", "")
	viper.SetDefault("data_paths.import_dir", "")

	viper.SetDefault("api.host", "0.0.0.0")
	viper.SetDefault("api.port", 8080)
	viper.SetDefault("api.admin_api_key", "")
	viper.SetDefault("api.admin_api_key_hash", "")
	viper.SetDefault("api.read_timeout", 30)
	viper.SetDefault("api.write_timeout", 30)
	viper.SetDefault("api.shutdown_timeout", 10)
	viper.SetDefault("api.max_upload_bytes", 32*1024*1024)
	viper.SetDefault("api.rate_limit.requests_per_second", 50)
	viper.SetDefault("api.rate_limit.burst", 100)

	viper.SetDefault("detection.event_limit", 500)
	viper.SetDefault("detection.schedule", "")
	viper.SetDefault("detection.rules_file", "")
	viper.SetDefault("detection.run_timeout", 120)

	viper.SetDefault("report.ip_fields", []string{})
	viper.SetDefault("report.timeline_limit", 500)

	viper.SetDefault("logging.level", "info")
}

func loadFromEnv() {
	viper.SetEnvPrefix("WORKBENCH")
	viper.AutomaticEnv()

	_ = viper.BindEnv("data_paths.data_dir", "WORKBENCH_DATA_DIR")
	_ = viper.BindEnv("data_paths.sqlite_path", "WORKBENCH_SQLITE_PATH")
	_ = viper.BindEnv("data_paths.evidence_dir", "WORKBENCH_EVIDENCE_DIR")
	_ = viper.BindEnv("data_paths.import_dir", "WORKBENCH_IMPORT_DIR")
	_ = viper.BindEnv("api.admin_api_key", "WORKBENCH_ADMIN_API_KEY")
	_ = viper.BindEnv("api.admin_api_key_hash", "WORKBENCH_ADMIN_API_KEY_HASH")
	_ = viper.BindEnv("detection.schedule", "WORKBENCH_DETECTION_SCHEDULE")
	_ = viper.BindEnv("detection.rules_file", "WORKBENCH_RULES_FILE")
}

// LoadConfig reads config.yaml (working directory or ./config), applies
// environment overrides, and returns a fully resolved configuration.
func LoadConfig() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")

	setDefaults()
	loadFromEnv()

	if err := viper.ReadInConfig(); err != nil {
		// Config file not found, will use defaults and env vars
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	if err := hashAdminKey(&config); err != nil {
		return nil, err
	}
	config.ResolveDataPaths()

	return &config, nil
}

// hashAdminKey converts a plaintext admin API key into a bcrypt hash so the
// plaintext never lives past configuration load.
func hashAdminKey(config *Config) error {
	if config.API.AdminAPIKeyHash != "" {
		config.API.AdminAPIKey = ""
		return nil
	}
	if config.API.AdminAPIKey == "" {
		return nil
	}
	if len(config.API.AdminAPIKey) < 16 {
		return fmt.Errorf("admin API key must be at least 16 characters")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(config.API.AdminAPIKey), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hashing admin API key: %w", err)
	}
	config.API.AdminAPIKeyHash = string(hash)
	config.API.AdminAPIKey = ""
	return nil
}

// ResolveDataPaths derives unset paths from DataDir.
func (c *Config) ResolveDataPaths() {
	dataDir := c.DataPaths.DataDir
	if dataDir == "" {
		dataDir = "./data"
		c.DataPaths.DataDir = dataDir
	}
	if c.DataPaths.SQLitePath == "" {
		c.DataPaths.SQLitePath = filepath.Join(dataDir, "workbench.db")
	}
	if c.DataPaths.EvidenceDir == "" {
		c.DataPaths.EvidenceDir = filepath.Join(dataDir, "evidence")
	}
	if c.DataPaths.ImportDir == "" {
		c.DataPaths.ImportDir = filepath.Join(dataDir, "imports")
	}
}

// AuthEnabled reports whether API-key authentication is configured.
func (c *Config) AuthEnabled() bool {
	return c.API.AdminAPIKeyHash != ""
}
