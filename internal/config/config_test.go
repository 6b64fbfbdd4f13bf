package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	// Run from an empty dir so no stray config.yaml is picked up.
	t.Chdir(t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.True(t, cfg.Fetch.Headless)
	assert.Equal(t, 90, cfg.Fetch.NavTimeoutSecs)
	assert.Equal(t, 500, cfg.Research.MinTextChars)
	assert.Equal(t, 300, cfg.Research.TimeoutSecs)
	assert.Equal(t, 6, cfg.Images.MaxResults)
	assert.InDelta(t, 0.5, cfg.Images.AcceptScore, 1e-9)
	assert.InDelta(t, 0.8, cfg.Images.ConfidentScore, 1e-9)
	assert.InDelta(t, 0.45, cfg.Images.RelaxedScore, 1e-9)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "reports", cfg.Server.ReportsDir)
}

func TestLoad_ConfigFile(t *testing.T) {
	dir := t.TempDir()
	yaml := []byte("log:\n  level: debug\nimages:\n  max_results: 3\n")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), yaml, 0o644))
	t.Chdir(dir)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, 3, cfg.Images.MaxResults)
	// Untouched keys keep defaults.
	assert.Equal(t, 10, cfg.Images.ScrollPasses)
}

func TestLoad_Environment(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("BUILDSCOUT_ANTHROPIC_KEY", "test-key")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "test-key", cfg.Anthropic.Key)
}

func TestInitLogger_InvalidLevel(t *testing.T) {
	err := InitLogger(LogConfig{Level: "nope", Format: "json"})
	assert.Error(t, err)
}

func TestInitLogger_Console(t *testing.T) {
	err := InitLogger(LogConfig{Level: "debug", Format: "console"})
	assert.NoError(t, err)
}
