package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func envMap(m map[string]string) func(string) string {
	return func(k string) string { return m[k] }
}

func TestFromEnvDefaults(t *testing.T) {
	cfg, err := FromEnv(envMap(nil))
	require.NoError(t, err)

	assert.Equal(t, DefaultModel, cfg.AnthropicModel)
	assert.Equal(t, DefaultBaseURL, cfg.AnthropicBaseURL)
	assert.Equal(t, DefaultHTTPTimeout, cfg.HTTPTimeout)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, DefaultDBPath(), cfg.DBPath)
	assert.Equal(t, time.Local, cfg.Location)
}

func TestFromEnvOverrides(t *testing.T) {
	cfg, err := FromEnv(envMap(map[string]string{
		"TOUCHBASE_DB_PATH":  "/tmp/x.db",
		"HTTP_TIMEOUT":       "5s",
		"TOUCHBASE_TIMEZONE": "UTC",
		"LOG_LEVEL":          "DEBUG",
		"ANTHROPIC_MODEL":    "claude-test",
	}))
	require.NoError(t, err)

	assert.Equal(t, "/tmp/x.db", cfg.DBPath)
	assert.Equal(t, 5*time.Second, cfg.HTTPTimeout)
	assert.Equal(t, time.UTC, cfg.Location)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "claude-test", cfg.AnthropicModel)
}

func TestFromEnvRejectsBadValues(t *testing.T) {
	_, err := FromEnv(envMap(map[string]string{"HTTP_TIMEOUT": "soon"}))
	assert.Error(t, err)

	_, err = FromEnv(envMap(map[string]string{"HTTP_TIMEOUT": "0s"}))
	assert.Error(t, err)

	_, err = FromEnv(envMap(map[string]string{"TOUCHBASE_TIMEZONE": "Mars/Olympus"}))
	assert.Error(t, err)
}

func TestValidateListsEveryMissingVariable(t *testing.T) {
	cfg, err := FromEnv(envMap(nil))
	require.NoError(t, err)

	err = cfg.Validate(Requirements{Analysis: true, Google: true})
	var missing *MissingSettingsError
	require.True(t, errors.As(err, &missing))
	require.Len(t, missing.Missing, 3)
	assert.Equal(t, "ANTHROPIC_API_KEY", missing.Missing[0].Name)
	assert.Contains(t, err.Error(), "GOOGLE_CLIENT_SECRET")

	assert.NoError(t, cfg.Validate(Requirements{}))

	cfg.AnthropicAPIKey = "k"
	assert.NoError(t, cfg.Validate(Requirements{Analysis: true}))
}

func TestLoadReadsEnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("TOUCHBASE_USER=me@example.com\n"), 0600))
	t.Setenv("TOUCHBASE_USER", "")
	require.NoError(t, os.Unsetenv("TOUCHBASE_USER"))

	cfg, err := Load(path, filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)
	assert.Equal(t, "me@example.com", cfg.UserEmail)
}
