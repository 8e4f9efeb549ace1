package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("STORAGE", StorageMemory)

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.App.Port)
	assert.Equal(t, 4, cfg.Numbering.Width)
	assert.Equal(t, "widen", cfg.Numbering.Overflow)
	assert.False(t, cfg.Stock.AllowNegative)
	assert.Equal(t, 30*time.Second, cfg.Database.StatementTimeout)
	assert.Equal(t, "@every 10s", cfg.Worker.OutboxSchedule)
	assert.False(t, cfg.Metrics.Enabled)
}

func TestLoad_EnvFile(t *testing.T) {
	dir := t.TempDir()
	envFile := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(envFile, []byte("STORAGE=memory\nDOC_NUMBER_WIDTH=6\nSTOCK_ALLOW_NEGATIVE=true\n"), 0o600))
	t.Cleanup(func() {
		os.Unsetenv("STORAGE")
		os.Unsetenv("DOC_NUMBER_WIDTH")
		os.Unsetenv("STOCK_ALLOW_NEGATIVE")
	})

	cfg, err := Load(envFile)
	require.NoError(t, err)

	assert.Equal(t, 6, cfg.Numbering.Width)
	assert.True(t, cfg.Stock.AllowNegative)
}

func TestValidate(t *testing.T) {
	t.Setenv("STORAGE", StorageMemory)
	base, err := Load(filepath.Join(t.TempDir(), "none"))
	require.NoError(t, err)

	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"postgres without url", func(c *Config) { c.Database.Storage = StoragePostgres; c.Database.URL = "" }},
		{"unknown storage", func(c *Config) { c.Database.Storage = "sqlite" }},
		{"zero width", func(c *Config) { c.Numbering.Width = 0 }},
		{"truncate policy", func(c *Config) { c.Numbering.Overflow = "truncate" }},
		{"bad isolation", func(c *Config) { c.Database.Isolation = "chaos" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := *base
			tt.mutate(&c)
			assert.Error(t, c.Validate())
		})
	}
}
