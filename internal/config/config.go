// Package config loads the journal configuration from a TOML file, applies
// defaults and environment overrides, and validates the result.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/jwulff/steno/journal/internal/daemon"
	"github.com/jwulff/steno/journal/internal/db"
)

// Speech providers.
const (
	ProviderDaemon    = "daemon"
	ProviderWebsocket = "websocket"
)

// Config is the full journal configuration.
type Config struct {
	Speech  SpeechConfig  `toml:"speech"`  // Recognizer selection and connection
	Session SessionConfig `toml:"session"` // Recording lifecycle timing
	Storage StorageConfig `toml:"storage"` // Entry persistence
	Logging LoggingConfig `toml:"logging"` // Log output
	Display DisplayConfig `toml:"display"` // Entry date/time formatting
}

// SpeechConfig selects and configures the speech recognizer.
type SpeechConfig struct {
	Provider   string `toml:"provider"`    // "daemon" (local Unix socket) or "websocket" (remote service)
	SocketPath string `toml:"socket_path"` // Daemon socket path
	URL        string `toml:"url"`         // Websocket service URL
	APIKey     string `toml:"api_key"`     // Websocket service token
	Locale     string `toml:"locale"`      // Recognition locale, e.g. "en-US"
}

// SessionConfig controls the recording lifecycle.
type SessionConfig struct {
	SettleDelayMs int `toml:"settle_delay_ms"` // Wait after stop before the entry is built
}

// SettleDelay returns the settle delay as a duration.
func (s SessionConfig) SettleDelay() time.Duration {
	return time.Duration(s.SettleDelayMs) * time.Millisecond
}

// StorageConfig controls where entries are kept.
type StorageConfig struct {
	Path string `toml:"path"` // SQLite database file
}

// LoggingConfig controls log output. The terminal belongs to the UI, so logs
// only ever go to a file.
type LoggingConfig struct {
	Level  string `toml:"level"`  // "debug", "info", "warn" or "error"
	Format string `toml:"format"` // "json" or "console"
	File   string `toml:"file"`   // Log file; empty disables logging
}

// DisplayConfig controls how entry timestamps are shown.
type DisplayConfig struct {
	DateLayout string `toml:"date_layout"` // Go time layout for dates
	TimeLayout string `toml:"time_layout"` // Go time layout for times
}

// Default returns the configuration used when no file is present.
func Default() Config {
	return Config{
		Speech: SpeechConfig{
			Provider:   ProviderDaemon,
			SocketPath: daemon.SocketPath(),
			Locale:     "en-US",
		},
		Session: SessionConfig{
			SettleDelayMs: 500,
		},
		Storage: StorageConfig{
			Path: db.DefaultDBPath(),
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			File:   filepath.Join(stateDir(), "journal.log"),
		},
		Display: DisplayConfig{
			DateLayout: "Jan 2, 2006",
			TimeLayout: "3:04 PM",
		},
	}
}

// Load reads the file at path on top of the defaults, then applies
// environment overrides.
func Load(path string) (*Config, error) {
	config := Default()

	// Check if the file exists
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file not found: %s", path)
	}

	if _, err := toml.DecodeFile(path, &config); err != nil {
		return nil, fmt.Errorf("failed to decode config file: %w", err)
	}

	config.applyEnv()
	return &config, nil
}

// LoadWithFallback tries preferredPath and then the standard locations. When
// no file exists anywhere the defaults are used.
func LoadWithFallback(preferredPath string) (*Config, error) {
	searchPaths := []string{
		preferredPath,
		filepath.Join(configDir(), "config.toml"),
		"journal.toml",
	}

	for _, path := range searchPaths {
		if path == "" {
			continue
		}
		if _, err := os.Stat(path); err == nil {
			return Load(path)
		}
	}

	if preferredPath != "" {
		return nil, fmt.Errorf("config file not found: %s", preferredPath)
	}

	config := Default()
	config.applyEnv()
	return &config, nil
}

// applyEnv lets JOURNAL_* environment variables override file values.
func (c *Config) applyEnv() {
	c.Speech.Provider = envOrDefault("JOURNAL_SPEECH_PROVIDER", c.Speech.Provider)
	c.Speech.SocketPath = envOrDefault("JOURNAL_SPEECH_SOCKET", c.Speech.SocketPath)
	c.Speech.URL = envOrDefault("JOURNAL_SPEECH_URL", c.Speech.URL)
	c.Speech.APIKey = envOrDefault("JOURNAL_SPEECH_API_KEY", c.Speech.APIKey)
	c.Speech.Locale = envOrDefault("JOURNAL_LOCALE", c.Speech.Locale)
	c.Session.SettleDelayMs = envOrDefaultInt("JOURNAL_SETTLE_DELAY_MS", c.Session.SettleDelayMs)
	c.Storage.Path = envOrDefault("JOURNAL_DB", c.Storage.Path)
	c.Logging.Level = envOrDefault("JOURNAL_LOG_LEVEL", c.Logging.Level)
	c.Logging.File = envOrDefault("JOURNAL_LOG_FILE", c.Logging.File)
}

// Validate checks the configuration for values the journal cannot run with.
func (c *Config) Validate() error {
	switch c.Speech.Provider {
	case ProviderDaemon:
		if c.Speech.SocketPath == "" {
			return fmt.Errorf("speech.socket_path is required for the daemon provider")
		}
	case ProviderWebsocket:
		if c.Speech.URL == "" {
			return fmt.Errorf("speech.url is required for the websocket provider")
		}
		if !strings.HasPrefix(c.Speech.URL, "ws://") && !strings.HasPrefix(c.Speech.URL, "wss://") {
			return fmt.Errorf("speech.url must start with ws:// or wss://, got %q", c.Speech.URL)
		}
	default:
		return fmt.Errorf("unknown speech.provider %q", c.Speech.Provider)
	}

	if c.Speech.Locale == "" {
		return fmt.Errorf("speech.locale is required")
	}
	if c.Session.SettleDelayMs < 0 {
		return fmt.Errorf("session.settle_delay_ms must not be negative")
	}
	if c.Storage.Path == "" {
		return fmt.Errorf("storage.path is required")
	}

	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown logging.level %q", c.Logging.Level)
	}
	switch c.Logging.Format {
	case "json", "console":
	default:
		return fmt.Errorf("unknown logging.format %q", c.Logging.Format)
	}
	return nil
}

func homeDir() string {
	home, _ := os.UserHomeDir()
	return home
}

func configDir() string {
	return filepath.Join(homeDir(), ".config", "voice-journal")
}

func stateDir() string {
	return filepath.Join(homeDir(), ".local", "state", "voice-journal")
}

func envOrDefault(key string, fallback string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	return value
}

func envOrDefaultInt(key string, fallback int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}
