// Package config loads mcpchat configuration from flags, environment, .env files and
// an optional config.yaml, and persists the user's display preferences.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"mcpchat/internal/logger"
)

// EnvPrefix is the prefix of every environment variable mcpchat reads.
const EnvPrefix = "MCPCHAT"

// Configuration keys, shared by viper, cobra flags and .env files.
const (
	KeyEndpoint         = "endpoint"
	KeyReconnectDelay   = "reconnect-delay"
	KeyHandshakeTimeout = "handshake-timeout"
	KeyWordWrap         = "word-wrap"
	KeyConfigDir        = "config-dir"
	KeyLogLevel         = "log-level"
	KeyLogFile          = "log-file"
)

// Defaults applied when no other source sets a key.
const (
	DefaultEndpoint         = "ws://127.0.0.1:5000/ws"
	DefaultReconnectDelay   = 5 * time.Second
	DefaultHandshakeTimeout = 10 * time.Second
	DefaultWordWrap         = 80
)

// Config is the resolved runtime configuration.
type Config struct {
	Endpoint         string
	ReconnectDelay   time.Duration
	HandshakeTimeout time.Duration
	WordWrap         int
	ConfigDir        string
	LogLevel         string
	LogFile          string
}

// PreferencesPath returns where display preferences are persisted.
func (c *Config) PreferencesPath() string {
	return filepath.Join(c.ConfigDir, "preferences.yaml")
}

// HistoryPath returns the readline history file used by the line shell.
func (c *Config) HistoryPath() string {
	return filepath.Join(c.ConfigDir, "history")
}

// DefaultLogPath returns the log file used when the TUI owns the terminal.
func (c *Config) DefaultLogPath() string {
	return filepath.Join(c.ConfigDir, "mcpchat.log")
}

// DefaultConfigDir returns the per-user configuration directory.
func DefaultConfigDir() string {
	if dir, err := os.UserConfigDir(); err == nil && dir != "" {
		return filepath.Join(dir, "mcpchat")
	}
	if home, err := os.UserHomeDir(); err == nil && home != "" {
		return filepath.Join(home, ".config", "mcpchat")
	}
	return ".mcpchat"
}

// SetDefaults registers the default value of every key on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault(KeyEndpoint, DefaultEndpoint)
	v.SetDefault(KeyReconnectDelay, DefaultReconnectDelay)
	v.SetDefault(KeyHandshakeTimeout, DefaultHandshakeTimeout)
	v.SetDefault(KeyWordWrap, DefaultWordWrap)
	v.SetDefault(KeyLogLevel, "")
	v.SetDefault(KeyLogFile, "")
}

// Load resolves the configuration.
// Priority (highest to lowest): flags > environment > local .env > config dir .env >
// config.yaml > defaults. workDir is where the local .env is looked up.
func Load(v *viper.Viper, workDir string) (*Config, error) {
	SetDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	configDir := v.GetString(KeyConfigDir)
	if configDir == "" {
		configDir = DefaultConfigDir()
	}

	if err := readConfigFile(v, filepath.Join(configDir, "config.yaml")); err != nil {
		return nil, err
	}
	if err := mergeDotEnv(v, filepath.Join(configDir, ".env")); err != nil {
		return nil, err
	}
	if workDir != "" {
		if err := mergeDotEnv(v, filepath.Join(workDir, ".env")); err != nil {
			return nil, err
		}
	}

	cfg := &Config{
		Endpoint:         strings.TrimSpace(v.GetString(KeyEndpoint)),
		ReconnectDelay:   v.GetDuration(KeyReconnectDelay),
		HandshakeTimeout: v.GetDuration(KeyHandshakeTimeout),
		WordWrap:         v.GetInt(KeyWordWrap),
		ConfigDir:        configDir,
		LogLevel:         v.GetString(KeyLogLevel),
		LogFile:          v.GetString(KeyLogFile),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	u, err := url.Parse(c.Endpoint)
	if err != nil {
		return fmt.Errorf("invalid endpoint %q: %w", c.Endpoint, err)
	}
	if u.Scheme != "ws" && u.Scheme != "wss" {
		return fmt.Errorf("invalid endpoint %q: scheme must be ws or wss", c.Endpoint)
	}
	if u.Host == "" {
		return fmt.Errorf("invalid endpoint %q: missing host", c.Endpoint)
	}
	if c.ReconnectDelay <= 0 {
		return fmt.Errorf("reconnect delay must be positive, got %s", c.ReconnectDelay)
	}
	if c.HandshakeTimeout <= 0 {
		return fmt.Errorf("handshake timeout must be positive, got %s", c.HandshakeTimeout)
	}
	if c.WordWrap <= 0 {
		return fmt.Errorf("word wrap must be positive, got %d", c.WordWrap)
	}
	return nil
}

func readConfigFile(v *viper.Viper, path string) error {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	logger.Debug("Loaded config file", "path", path)
	return nil
}

// mergeDotEnv merges MCPCHAT_* entries of a .env file into v's config layer.
// A missing file is not an error.
func mergeDotEnv(v *viper.Viper, path string) error {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read .env file %s: %w", path, err)
	}

	envMap, err := godotenv.Unmarshal(string(data))
	if err != nil {
		return fmt.Errorf("failed to parse .env file %s: %w", path, err)
	}

	values := make(map[string]interface{})
	for key, value := range envMap {
		if name, ok := envKeyToConfigKey(key); ok {
			values[name] = value
		}
	}
	if len(values) == 0 {
		return nil
	}

	logger.Debug("Loaded .env file", "path", path, "keys", len(values))
	return v.MergeConfigMap(values)
}

// envKeyToConfigKey maps MCPCHAT_RECONNECT_DELAY to reconnect-delay.
func envKeyToConfigKey(key string) (string, bool) {
	prefix := EnvPrefix + "_"
	if !strings.HasPrefix(key, prefix) || len(key) == len(prefix) {
		return "", false
	}
	name := strings.ToLower(strings.TrimPrefix(key, prefix))
	return strings.ReplaceAll(name, "_", "-"), true
}
