// Package config loads layerscope settings from a YAML file, LAYERSCOPE_*
// environment variables and defaults.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"time"

	"github.com/marmos91/layerscope/internal/bytesize"
	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// EnvPrefix is the prefix of environment variable overrides,
// e.g. LAYERSCOPE_STORAGE_BASE_DIR.
const EnvPrefix = "LAYERSCOPE"

// Config represents the layerscope configuration.
//
// Configuration sources (in order of precedence):
//  1. CLI flags (highest priority)
//  2. Environment variables (LAYERSCOPE_*)
//  3. Configuration file (YAML)
//  4. Default values (lowest priority)
type Config struct {
	// Logging controls log output behavior
	Logging LoggingConfig `mapstructure:"logging" json:"logging" yaml:"logging"`

	// Storage locates the container engine data root
	Storage StorageConfig `mapstructure:"storage" json:"storage" yaml:"storage"`

	// Journal configures the removal history database
	Journal JournalConfig `mapstructure:"journal" json:"journal" yaml:"journal"`

	// Metrics configures the Prometheus textfile written after each run
	Metrics MetricsConfig `mapstructure:"metrics" json:"metrics" yaml:"metrics"`
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	// Level is the minimum log level to output
	// Valid values: DEBUG, INFO, WARN, ERROR (case-insensitive, normalized to uppercase)
	Level string `mapstructure:"level" validate:"required,oneof=DEBUG INFO WARN ERROR debug info warn error" json:"level" yaml:"level"`

	// Format specifies the log output format
	// Valid values: text, json
	Format string `mapstructure:"format" validate:"required,oneof=text json" json:"format" yaml:"format"`

	// Output specifies where logs are written
	// Valid values: stdout, stderr, or a file path
	Output string `mapstructure:"output" validate:"required" json:"output" yaml:"output"`
}

// StorageConfig locates the engine's storage root.
type StorageConfig struct {
	// BaseDir is the engine data root (the directory holding overlay2/,
	// image/ and containers/).
	// Default: /var/lib/docker
	BaseDir string `mapstructure:"base_dir" validate:"required" json:"base_dir" yaml:"base_dir"`

	// ReadOnly refuses every removal at the filesystem layer.
	ReadOnly bool `mapstructure:"read_only" json:"read_only" yaml:"read_only"`

	// ScanTimeout bounds how long a scan of the storage root may take.
	// Default: 5m
	ScanTimeout time.Duration `mapstructure:"scan_timeout" validate:"gte=0" json:"scan_timeout" yaml:"scan_timeout"`
}

// JournalConfig configures the BadgerDB removal journal.
type JournalConfig struct {
	// Enabled records every executed removal.
	// Default: false
	Enabled bool `mapstructure:"enabled" json:"enabled" yaml:"enabled"`

	// Path is the database directory.
	// Default: $XDG_DATA_HOME/layerscope/journal
	Path string `mapstructure:"path" validate:"required_if=Enabled true" json:"path" yaml:"path"`

	// SyncWrites fsyncs every appended entry.
	SyncWrites bool `mapstructure:"sync_writes" json:"sync_writes" yaml:"sync_writes"`

	// ValueLogFileSize caps each badger value log file.
	// Supports human-readable formats: "64Mi", "128MB"
	// Default: 64Mi
	ValueLogFileSize bytesize.ByteSize `mapstructure:"value_log_file_size" validate:"omitempty,gte=1048576,lt=2147483648" json:"value_log_file_size,omitempty" yaml:"value_log_file_size,omitempty"`

	// HistoryLimit is the default number of entries shown by history.
	// Default: 20
	HistoryLimit int `mapstructure:"history_limit" validate:"gte=0" json:"history_limit" yaml:"history_limit"`
}

// MetricsConfig configures Prometheus metrics. layerscope is a short-lived
// process, so metrics are written to a node-exporter textfile instead of
// being served over HTTP.
type MetricsConfig struct {
	// Enabled controls whether metrics are collected at all
	Enabled bool `mapstructure:"enabled" json:"enabled" yaml:"enabled"`

	// File is the textfile the registry is written to when the run ends
	File string `mapstructure:"file" validate:"required_if=Enabled true" json:"file,omitempty" yaml:"file,omitempty"`
}

// Load loads configuration from file, environment, and defaults.
// An empty configPath searches the default location; a missing file is not
// an error.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	setupViper(v, configPath)
	bindDefaults(v)

	if _, err := readConfigFile(v); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg, viper.DecodeHook(configDecodeHooks())); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	ApplyDefaults(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}

// SaveConfig saves the configuration to the specified file path as YAML.
func SaveConfig(cfg *Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// setupViper configures viper with environment variables and config file settings.
func setupViper(v *viper.Viper, configPath string) {
	// LAYERSCOPE_STORAGE_BASE_DIR=/srv/docker overrides storage.base_dir
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
		return
	}
	v.AddConfigPath(getConfigDir())
	v.SetConfigName("config")
	v.SetConfigType("yaml")
}

// bindDefaults registers every key so AutomaticEnv can override keys that
// are absent from the file.
func bindDefaults(v *viper.Viper) {
	for _, key := range []string{
		"logging.level", "logging.format", "logging.output",
		"storage.base_dir", "storage.read_only", "storage.scan_timeout",
		"journal.enabled", "journal.path", "journal.sync_writes",
		"journal.value_log_file_size", "journal.history_limit",
		"metrics.enabled", "metrics.file",
	} {
		_ = v.BindEnv(key)
	}
}

// readConfigFile reads the configuration file if it exists.
// Returns (fileFound, error) where fileFound indicates if a config file was found.
func readConfigFile(v *viper.Viper) (bool, error) {
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return false, nil
		}
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to read config file: %w", err)
	}

	return true, nil
}

// configDecodeHooks returns a combined decode hook for ByteSize and
// time.Duration fields.
func configDecodeHooks() mapstructure.DecodeHookFunc {
	return mapstructure.ComposeDecodeHookFunc(
		byteSizeDecodeHook(),
		durationDecodeHook(),
	)
}

// byteSizeDecodeHook converts strings like "64Mi" and plain numbers to
// bytesize.ByteSize.
func byteSizeDecodeHook() mapstructure.DecodeHookFunc {
	return func(from reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
		if to != reflect.TypeOf(bytesize.ByteSize(0)) {
			return data, nil
		}

		switch v := data.(type) {
		case string:
			return bytesize.ParseByteSize(v)
		case int:
			return bytesize.ByteSize(v), nil
		case int64:
			return bytesize.ByteSize(v), nil
		case uint64:
			return bytesize.ByteSize(v), nil
		case float64:
			// YAML often deserializes numbers as float64
			return bytesize.ByteSize(v), nil
		default:
			return data, nil
		}
	}
}

// durationDecodeHook converts strings like "30s" to time.Duration.
func durationDecodeHook() mapstructure.DecodeHookFunc {
	return func(from reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
		if to != reflect.TypeOf(time.Duration(0)) {
			return data, nil
		}

		switch v := data.(type) {
		case string:
			return time.ParseDuration(v)
		case int:
			return time.Duration(v), nil
		case int64:
			return time.Duration(v), nil
		case float64:
			return time.Duration(v), nil
		default:
			return data, nil
		}
	}
}

// getConfigDir returns $XDG_CONFIG_HOME/layerscope, falling back to
// ~/.config/layerscope, or the current directory if there is no home.
func getConfigDir() string {
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, "layerscope")
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}

	return filepath.Join(home, ".config", "layerscope")
}

// getDataDir returns $XDG_DATA_HOME/layerscope, falling back to
// ~/.local/share/layerscope.
func getDataDir() string {
	if xdgData := os.Getenv("XDG_DATA_HOME"); xdgData != "" {
		return filepath.Join(xdgData, "layerscope")
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}

	return filepath.Join(home, ".local", "share", "layerscope")
}

// GetDefaultConfigPath returns the default configuration file path.
func GetDefaultConfigPath() string {
	return filepath.Join(getConfigDir(), "config.yaml")
}

// DefaultConfigExists checks if a config file exists at the default location.
func DefaultConfigExists() bool {
	_, err := os.Stat(GetDefaultConfigPath())
	return err == nil
}
