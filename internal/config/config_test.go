// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// isolate points the config directory at a temp dir and clears overrides.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("TINYCHAT_HOME", dir)
	for _, k := range []string{"TINYCHAT_ENDPOINT", "TINYCHAT_MODEL", "TINYCHAT_DATA_DIR", "TINYCHAT_STORAGE", "TINYCHAT_LOG_LEVEL"} {
		t.Setenv(k, "")
	}
	return dir
}

// =============================================================================
// LOAD TESTS
// =============================================================================

func TestLoad_DefaultsWhenNoFile(t *testing.T) {
	isolate(t)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_TOMLOverlaysDefaults(t *testing.T) {
	dir := isolate(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.toml"), []byte(`
[server]
endpoint = "https://chat.example.com"

[ui]
show_stats = false
`), 0600))

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "https://chat.example.com", cfg.Server.Endpoint)
	assert.Equal(t, DefaultSocketPath, cfg.Server.SocketPath)
	assert.False(t, cfg.UI.ShowStats)
	assert.True(t, cfg.UI.AltScreen)
	assert.Equal(t, DefaultReconnectDelay, cfg.Server.ReconnectDelayMs)
}

func TestLoad_JSONFallback(t *testing.T) {
	dir := isolate(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.json"),
		[]byte(`{"storage":{"backend":"sqlite"}}`), 0600))

	p, err := ActivePath()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "config.json"), p)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "sqlite", cfg.Storage.Backend)
}

func TestLoad_InvalidFile(t *testing.T) {
	dir := isolate(t)
	p := filepath.Join(dir, "config.toml")
	require.NoError(t, os.WriteFile(p, []byte(`[ui]
theme = "neon"
`), 0600))

	_, err := LoadFromPath(p)
	require.Error(t, err)
	var verrs ValidateErrors
	require.True(t, errors.As(err, &verrs))
	require.Len(t, verrs, 1)
	assert.Equal(t, "ui.theme", verrs[0].Field)
}

func TestApplyEnvOverrides(t *testing.T) {
	isolate(t)
	t.Setenv("TINYCHAT_ENDPOINT", "http://10.0.0.2:9000")
	t.Setenv("TINYCHAT_MODEL", "qwen2.5")
	t.Setenv("TINYCHAT_STORAGE", "memory")
	t.Setenv("TINYCHAT_DATA_DIR", "/var/lib/tinychat")
	t.Setenv("TINYCHAT_LOG_LEVEL", "debug")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "http://10.0.0.2:9000", cfg.Server.Endpoint)
	assert.Equal(t, "qwen2.5", cfg.Server.Model)
	assert.Equal(t, "memory", cfg.Storage.Backend)
	assert.Equal(t, "/var/lib/tinychat", cfg.Storage.DataDir)
	assert.Equal(t, "debug", cfg.Log.Level)
}

// =============================================================================
// VALIDATION TESTS
// =============================================================================

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
		field  string
	}{
		{"bad scheme", func(c *Config) { c.Server.Endpoint = "ftp://host" }, "server.endpoint"},
		{"no host", func(c *Config) { c.Server.Endpoint = "not a url" }, "server.endpoint"},
		{"socket path", func(c *Config) { c.Server.SocketPath = "chat" }, "server.socket_path"},
		{"models path", func(c *Config) { c.Server.ModelsPath = "models" }, "server.models_path"},
		{"reconnect delay", func(c *Config) { c.Server.ReconnectDelayMs = 5 }, "server.reconnect_delay_ms"},
		{"request timeout", func(c *Config) { c.Server.RequestTimeoutMs = -1 }, "server.request_timeout_ms"},
		{"storage backend", func(c *Config) { c.Storage.Backend = "redis" }, "storage.backend"},
		{"code theme", func(c *Config) { c.UI.CodeTheme = "no-such-style" }, "ui.code_theme"},
		{"log level", func(c *Config) { c.Log.Level = "loud" }, "log.level"},
	}

	require.NoError(t, Default().Validate())

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			var verrs ValidateErrors
			require.True(t, errors.As(err, &verrs))
			assert.Equal(t, tt.field, verrs[0].Field)
		})
	}
}

// =============================================================================
// DERIVED VALUE TESTS
// =============================================================================

func TestSocketURL(t *testing.T) {
	tests := []struct {
		endpoint string
		want     string
	}{
		{"http://127.0.0.1:8000", "ws://127.0.0.1:8000/chat"},
		{"https://chat.example.com/", "wss://chat.example.com/chat"},
		{"https://example.com/tiny", "wss://example.com/tiny/chat"},
		{"ws://localhost:8000", "ws://localhost:8000/chat"},
	}
	for _, tt := range tests {
		cfg := Default()
		cfg.Server.Endpoint = tt.endpoint
		got, err := cfg.SocketURL()
		require.NoError(t, err, tt.endpoint)
		assert.Equal(t, tt.want, got, tt.endpoint)
	}

	cfg := Default()
	cfg.Server.Endpoint = "gopher://x"
	_, err := cfg.SocketURL()
	assert.Error(t, err)
}

func TestHTTPEndpoint(t *testing.T) {
	cfg := Default()
	cfg.Server.Endpoint = "wss://chat.example.com"
	assert.Equal(t, "https://chat.example.com", cfg.HTTPEndpoint())
	cfg.Server.Endpoint = "http://127.0.0.1:8000"
	assert.Equal(t, "http://127.0.0.1:8000", cfg.HTTPEndpoint())
}

func TestDurationsAndPaths(t *testing.T) {
	dir := isolate(t)
	cfg := Default()
	assert.Equal(t, 5*time.Second, cfg.ReconnectDelay())
	assert.Equal(t, 10*time.Second, cfg.HandshakeTimeout())
	assert.Equal(t, 10*time.Second, cfg.RequestTimeout())

	dataDir, err := cfg.DataDir()
	require.NoError(t, err)
	assert.Equal(t, dir, dataDir)

	logFile, err := cfg.LogFile()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, DefaultLogFileName), logFile)

	cfg.Storage.DataDir = "/srv/chat"
	dataDir, err = cfg.DataDir()
	require.NoError(t, err)
	assert.Equal(t, "/srv/chat", dataDir)
}

// =============================================================================
// GET/SET TESTS
// =============================================================================

func TestGetSet(t *testing.T) {
	cfg := Default()

	v, err := cfg.Get("server.endpoint")
	require.NoError(t, err)
	assert.Equal(t, DefaultEndpoint, v)

	require.NoError(t, cfg.Set("ui.show_stats", "false"))
	assert.False(t, cfg.UI.ShowStats)
	require.NoError(t, cfg.Set("server.reconnect_delay_ms", "2500"))
	assert.Equal(t, 2500, cfg.Server.ReconnectDelayMs)
	require.NoError(t, cfg.Set("log.level", "warn"))
	assert.Equal(t, "warn", cfg.Log.Level)

	assert.Error(t, cfg.Set("ui.show_stats", "maybe"))
	assert.Error(t, cfg.Set("server.reconnect_delay_ms", "soon"))
	_, err = cfg.Get("server.nope")
	assert.Error(t, err)
	_, err = cfg.Get("nope.endpoint")
	assert.Error(t, err)
	_, err = cfg.Get("endpoint")
	assert.Error(t, err)
}

func TestKeys(t *testing.T) {
	keys := Keys()
	assert.Contains(t, keys, "server.endpoint")
	assert.Contains(t, keys, "storage.backend")
	assert.Contains(t, keys, "ui.code_theme")
	assert.Contains(t, keys, "log.file")
	assert.IsIncreasing(t, keys)
}

// =============================================================================
// SAVE TESTS
// =============================================================================

func TestSaveTOMLRoundTrip(t *testing.T) {
	isolate(t)
	p, err := ConfigPathTOML()
	require.NoError(t, err)

	cfg := Default()
	cfg.Server.Endpoint = "https://chat.example.com"
	cfg.UI.Theme = "light"
	require.NoError(t, SaveTOML(cfg, p))

	data, err := os.ReadFile(p)
	require.NoError(t, err)
	assert.Contains(t, string(data), "# tinychat configuration file")

	info, err := os.Stat(p)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	loaded, err := Load()
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

// =============================================================================
// WATCHER TESTS
// =============================================================================

func TestWatcher_ReloadsOnWrite(t *testing.T) {
	dir := isolate(t)
	p := filepath.Join(dir, "config.toml")
	require.NoError(t, SaveTOML(Default(), p))

	w, err := NewWatcher(p, nil)
	require.NoError(t, err)
	defer w.Close()
	w.debounce = 20 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	got := make(chan *Config, 4)
	go w.Run(ctx, func(cfg *Config, err error) {
		if err == nil {
			got <- cfg
		}
	})

	cfg := Default()
	cfg.UI.CodeTheme = "dracula"
	require.NoError(t, SaveTOML(cfg, p))

	select {
	case reloaded := <-got:
		assert.Equal(t, "dracula", reloaded.UI.CodeTheme)
	case <-time.After(5 * time.Second):
		t.Fatal("config was not reloaded")
	}
}
