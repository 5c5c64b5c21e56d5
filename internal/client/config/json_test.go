package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTempJSON(t *testing.T, dir, name string, data map[string]any) string {
	t.Helper()
	if dir == "" {
		dir = t.TempDir()
	}
	if name == "" {
		name = "cfg.json"
	}
	path := filepath.Join(dir, name)
	b, err := json.Marshal(data)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, b, 0o600))
	return path
}

func Test_parseJson_SourcesAndPrecedence(t *testing.T) {
	dir := t.TempDir()
	pathFlag := writeTempJSON(t, dir, "flag.json", map[string]any{
		"server_endpoint_addr": "www.example:9000",
		"request_timeout":      "10s",
	})
	pathEnv := writeTempJSON(t, dir, "env.json", map[string]any{
		"state_dir": "/var/lib/pmcloud",
		"log_level": "debug",
	})

	t.Run("loads from path", func(t *testing.T) {
		t.Setenv(EnvConfigFile, pathEnv)

		cfg := &Config{StateDir: "keep"}
		require.NoError(t, parseJson(cfg, pathFlag))

		assert.Equal(t, "www.example:9000", cfg.ServerEndpointAddr)
		assert.Equal(t, 10*time.Second, cfg.RequestTimeout)
		assert.Equal(t, "keep", cfg.StateDir, "absent keys leave values alone")
	})

	t.Run("falls back to env", func(t *testing.T) {
		t.Setenv(EnvConfigFile, pathEnv)

		cfg := &Config{}
		require.NoError(t, parseJson(cfg, ""))

		assert.Equal(t, "/var/lib/pmcloud", cfg.StateDir)
		assert.Equal(t, "debug", cfg.LogLevel)
	})

	t.Run("no file and no env → no changes", func(t *testing.T) {
		t.Setenv(EnvConfigFile, "")

		cfg := &Config{ServerEndpointAddr: "defaults:1234", RequestTimeout: 42 * time.Second}
		require.NoError(t, parseJson(cfg, ""))

		assert.Equal(t, "defaults:1234", cfg.ServerEndpointAddr)
		assert.Equal(t, 42*time.Second, cfg.RequestTimeout)
	})

	t.Run("invalid JSON → error", func(t *testing.T) {
		bad := filepath.Join(dir, "bad.json")
		require.NoError(t, os.WriteFile(bad, []byte(`{ this is not valid json`), 0o600))

		_, err := LoadConfig(bad)
		assert.ErrorContains(t, err, "parse config")
	})

	t.Run("missing file → error", func(t *testing.T) {
		_, err := LoadConfig(filepath.Join(dir, "nope.json"))
		assert.ErrorContains(t, err, "read config")
	})
}
