package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv(KeyServerIP, "mc.example.org")
	t.Setenv(KeyServerPort, "25565")
	t.Setenv(KeyPassword, "letmein")
}

func TestLoadRequiredAndDefaults(t *testing.T) {
	setRequired(t)
	t.Setenv(KeyListenAddr, "")
	t.Setenv(KeyLogLevel, "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "mc.example.org", cfg.ServerIP)
	assert.Equal(t, 25565, cfg.ServerPort)
	assert.Equal(t, "letmein", cfg.Password)
	assert.Equal(t, ":8501", cfg.ListenAddr)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "mc.example.org:25565", cfg.Target())
}

func TestLoadOverrides(t *testing.T) {
	setRequired(t)
	t.Setenv(KeyListenAddr, "127.0.0.1:9000")
	t.Setenv(KeyLogLevel, "DEBUG")
	t.Setenv(KeyOTLPEndpoint, "otel-collector:4317")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:9000", cfg.ListenAddr)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "otel-collector:4317", cfg.OTLPEndpoint)
}

func TestLoadMissingRequired(t *testing.T) {
	t.Setenv(KeyServerIP, "")
	t.Setenv(KeyServerPort, "")
	t.Setenv(KeyPassword, "")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), KeyServerIP)
	assert.Contains(t, err.Error(), KeyServerPort)
	assert.Contains(t, err.Error(), KeyPassword)
}

func TestLoadInvalidPort(t *testing.T) {
	for _, p := range []string{"abc", "0", "70000", "-1"} {
		setRequired(t)
		t.Setenv(KeyServerPort, p)
		_, err := Load()
		assert.Error(t, err, "port %q", p)
	}
}

func TestLoadInvalidLogLevel(t *testing.T) {
	setRequired(t)
	t.Setenv(KeyLogLevel, "verbose")
	_, err := Load()
	assert.Error(t, err)
}

func TestLoadEnvFile(t *testing.T) {
	const key = "CRAFTWATCH_TEST_FROM_DOTENV"
	t.Setenv(key, "")
	require.NoError(t, os.Unsetenv(key))

	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte(key+"=from-file\n"), 0o600))

	require.NoError(t, LoadEnv(path))
	assert.Equal(t, "from-file", os.Getenv(key))
}

func TestLoadEnvKeepsExisting(t *testing.T) {
	const key = "CRAFTWATCH_TEST_EXISTING"
	t.Setenv(key, "from-env")

	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte(key+"=from-file\n"), 0o600))

	require.NoError(t, LoadEnv(path))
	assert.Equal(t, "from-env", os.Getenv(key))
}

func TestLoadEnvMissingFileIsFine(t *testing.T) {
	assert.NoError(t, LoadEnv(filepath.Join(t.TempDir(), "nope.env")))
}
