package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	require.Equal(t, 500*time.Millisecond, cfg.Session.SettleDelay())
	require.Equal(t, ProviderDaemon, cfg.Speech.Provider)
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
[speech]
provider = "websocket"
url = "wss://speech.example.com/listen"
locale = "en-GB"

[session]
settle_delay_ms = 250

[display]
date_layout = "2006-01-02"
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, ProviderWebsocket, cfg.Speech.Provider)
	require.Equal(t, "en-GB", cfg.Speech.Locale)
	require.Equal(t, 250, cfg.Session.SettleDelayMs)
	require.Equal(t, "2006-01-02", cfg.Display.DateLayout)

	// Untouched keys keep their defaults.
	require.Equal(t, "3:04 PM", cfg.Display.TimeLayout)
	require.NoError(t, cfg.Validate())
}

func TestLoadEmptyLogFileDisablesLogging(t *testing.T) {
	path := writeConfig(t, "[logging]\nfile = \"\"\n")
	cfg, err := Load(path)
	require.NoError(t, err)
	require.Empty(t, cfg.Logging.File)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	require.Error(t, err)
}

func TestLoadBadTOML(t *testing.T) {
	path := writeConfig(t, "[speech\nprovider = ")
	_, err := Load(path)
	require.Error(t, err)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("JOURNAL_LOCALE", "fr-FR")
	t.Setenv("JOURNAL_SETTLE_DELAY_MS", "1200")
	t.Setenv("JOURNAL_DB", "/tmp/j.sqlite")

	path := writeConfig(t, "[speech]\nlocale = \"en-US\"\n")
	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "fr-FR", cfg.Speech.Locale)
	require.Equal(t, 1200, cfg.Session.SettleDelayMs)
	require.Equal(t, "/tmp/j.sqlite", cfg.Storage.Path)
}

func TestEnvBadIntKeepsValue(t *testing.T) {
	t.Setenv("JOURNAL_SETTLE_DELAY_MS", "soon")
	path := writeConfig(t, "[session]\nsettle_delay_ms = 300\n")
	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, 300, cfg.Session.SettleDelayMs)
}

func TestLoadWithFallbackPreferred(t *testing.T) {
	path := writeConfig(t, "[speech]\nlocale = \"de-DE\"\n")
	cfg, err := LoadWithFallback(path)
	require.NoError(t, err)
	require.Equal(t, "de-DE", cfg.Speech.Locale)
}

func TestLoadWithFallbackMissingPreferred(t *testing.T) {
	_, err := LoadWithFallback(filepath.Join(t.TempDir(), "missing.toml"))
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"unknown provider", func(c *Config) { c.Speech.Provider = "carrier-pigeon" }, "speech.provider"},
		{"websocket without url", func(c *Config) { c.Speech.Provider = ProviderWebsocket }, "speech.url"},
		{"websocket bad scheme", func(c *Config) {
			c.Speech.Provider = ProviderWebsocket
			c.Speech.URL = "http://example.com"
		}, "ws://"},
		{"no socket", func(c *Config) { c.Speech.SocketPath = "" }, "socket_path"},
		{"no locale", func(c *Config) { c.Speech.Locale = "" }, "locale"},
		{"negative settle", func(c *Config) { c.Session.SettleDelayMs = -1 }, "settle_delay_ms"},
		{"no storage", func(c *Config) { c.Storage.Path = "" }, "storage.path"},
		{"bad level", func(c *Config) { c.Logging.Level = "loud" }, "logging.level"},
		{"bad format", func(c *Config) { c.Logging.Format = "xml" }, "logging.format"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			err := cfg.Validate()
			require.Error(t, err)
			require.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
