package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, `{
		"port": 8080,
		"gemini": {"api_key": "k"},
		"database": {"host": "localhost", "dbname": "studynote"}
	}`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "gemini-2.5-flash", cfg.Gemini.Model)
	assert.Equal(t, 600, cfg.Gemini.NotesTimeout)
	assert.Equal(t, 12, cfg.Gemini.PollMaxAttempts)
	assert.Equal(t, 15000, cfg.Pipeline.PageCharLimit)
	assert.Equal(t, 20000, cfg.Pipeline.WebContextBudget)
	assert.Equal(t, 10, cfg.Pipeline.MaxHistoryPairs)
	assert.Equal(t, "local", cfg.FileStore.Type)
	assert.Equal(t, "0 3 * * *", cfg.Cleanup.Spec)
	assert.Equal(t, 30, cfg.Cleanup.RetentionDays)
	assert.Equal(t, "info", cfg.LogConfig.Level)
}

func TestLoadValidation(t *testing.T) {
	_, err := Load(writeConfig(t, `{"gemini": {"api_key": "k"}, "database": {"dsn": "x"}}`))
	assert.ErrorContains(t, err, "port")

	_, err = Load(writeConfig(t, `{"port": 8080, "database": {"dsn": "x"}}`))
	assert.ErrorContains(t, err, "gemini.api_key")

	_, err = Load(writeConfig(t, `{"port": 8080, "gemini": {"api_key": "k"}}`))
	assert.ErrorContains(t, err, "database")

	_, err = Load(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}

func TestLoadKeepsExplicitValues(t *testing.T) {
	path := writeConfig(t, `{
		"port": 9000,
		"gemini": {"api_key": "k", "model": "gemini-2.5-pro", "call_timeout": 60},
		"database": {"dsn": "postgres://u:p@h/db"},
		"pipeline": {"max_history_pairs": 4}
	}`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "gemini-2.5-pro", cfg.Gemini.Model)
	assert.Equal(t, 60, cfg.Gemini.CallTimeout)
	assert.Equal(t, 4, cfg.Pipeline.MaxHistoryPairs)
}
