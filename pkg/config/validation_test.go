package config

import (
	"testing"

	"github.com/marmos91/layerscope/internal/bytesize"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:   "defaults",
			mutate: func(*Config) {},
		},
		{
			name:    "invalid log level",
			mutate:  func(c *Config) { c.Logging.Level = "TRACE" },
			wantErr: "oneof",
		},
		{
			name:    "invalid log format",
			mutate:  func(c *Config) { c.Logging.Format = "xml" },
			wantErr: "Logging.Format",
		},
		{
			name:    "missing base dir",
			mutate:  func(c *Config) { c.Storage.BaseDir = "" },
			wantErr: "Storage.BaseDir is required",
		},
		{
			name:    "relative base dir",
			mutate:  func(c *Config) { c.Storage.BaseDir = "docker" },
			wantErr: "absolute path",
		},
		{
			name: "journal enabled without path",
			mutate: func(c *Config) {
				c.Journal.Enabled = true
				c.Journal.Path = ""
			},
			wantErr: "Journal.Path is required",
		},
		{
			name:   "journal disabled without path",
			mutate: func(c *Config) { c.Journal.Path = "" },
		},
		{
			name: "journal inside the storage root",
			mutate: func(c *Config) {
				c.Journal.Enabled = true
				c.Journal.Path = "/var/lib/docker/layerscope"
			},
			wantErr: "must not be inside",
		},
		{
			name:    "value log too small",
			mutate:  func(c *Config) { c.Journal.ValueLogFileSize = 512 * bytesize.KiB },
			wantErr: "gte",
		},
		{
			name:    "value log too large",
			mutate:  func(c *Config) { c.Journal.ValueLogFileSize = 2 * bytesize.GiB },
			wantErr: "lt",
		},
		{
			name:    "metrics enabled without file",
			mutate:  func(c *Config) { c.Metrics.Enabled = true },
			wantErr: "Metrics.File is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := GetDefaultConfig()
			tt.mutate(cfg)

			err := Validate(cfg)
			if tt.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestApplyDefaults_PreservesExplicitValues(t *testing.T) {
	cfg := &Config{
		Logging: LoggingConfig{Level: "debug", Format: "json", Output: "stdout"},
		Storage: StorageConfig{BaseDir: "/srv/docker/"},
		Journal: JournalConfig{Path: "/j", HistoryLimit: 3, ValueLogFileSize: 8 * bytesize.MiB},
	}
	ApplyDefaults(cfg)

	assert.Equal(t, "DEBUG", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.Equal(t, "stdout", cfg.Logging.Output)
	assert.Equal(t, "/srv/docker", cfg.Storage.BaseDir)
	assert.Equal(t, "/j", cfg.Journal.Path)
	assert.Equal(t, 3, cfg.Journal.HistoryLimit)
	assert.Equal(t, 8*bytesize.MiB, cfg.Journal.ValueLogFileSize)
}
