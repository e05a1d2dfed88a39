package config

import (
	"path/filepath"
	"strings"
	"time"

	"github.com/marmos91/layerscope/internal/bytesize"
)

// DefaultBaseDir is the default engine data root.
const DefaultBaseDir = "/var/lib/docker"

// ApplyDefaults sets default values for any unspecified configuration fields.
// Zero values are replaced; explicit values are preserved.
func ApplyDefaults(cfg *Config) {
	applyLoggingDefaults(&cfg.Logging)
	applyStorageDefaults(&cfg.Storage)
	applyJournalDefaults(&cfg.Journal)
}

// applyLoggingDefaults sets logging defaults and normalizes values.
func applyLoggingDefaults(cfg *LoggingConfig) {
	if cfg.Level == "" {
		cfg.Level = "INFO"
	}
	cfg.Level = strings.ToUpper(cfg.Level)

	if cfg.Format == "" {
		cfg.Format = "text"
	}
	// stdout carries command output
	if cfg.Output == "" {
		cfg.Output = "stderr"
	}
}

func applyStorageDefaults(cfg *StorageConfig) {
	if cfg.BaseDir == "" {
		cfg.BaseDir = DefaultBaseDir
	}
	cfg.BaseDir = filepath.Clean(cfg.BaseDir)
	if cfg.ScanTimeout == 0 {
		cfg.ScanTimeout = 5 * time.Minute
	}
}

// applyJournalDefaults fills the journal location even when the journal is
// disabled, so that `config init` writes a usable path.
func applyJournalDefaults(cfg *JournalConfig) {
	if cfg.Path == "" {
		cfg.Path = filepath.Join(getDataDir(), "journal")
	}
	if cfg.ValueLogFileSize == 0 {
		cfg.ValueLogFileSize = 64 * bytesize.MiB
	}
	if cfg.HistoryLimit == 0 {
		cfg.HistoryLimit = 20
	}
}

// GetDefaultConfig returns a Config struct with all default values applied.
func GetDefaultConfig() *Config {
	cfg := &Config{}
	ApplyDefaults(cfg)
	return cfg
}
