package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o700))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
}

func newViper(configDir string) *viper.Viper {
	v := viper.New()
	v.Set(KeyConfigDir, configDir)
	return v
}

func TestLoadDefaults(t *testing.T) {
	dir := t.TempDir()

	cfg, err := Load(newViper(dir), t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, DefaultEndpoint, cfg.Endpoint)
	assert.Equal(t, 5*time.Second, cfg.ReconnectDelay)
	assert.Equal(t, DefaultHandshakeTimeout, cfg.HandshakeTimeout)
	assert.Equal(t, 80, cfg.WordWrap)
	assert.Equal(t, dir, cfg.ConfigDir)
	assert.Equal(t, filepath.Join(dir, "preferences.yaml"), cfg.PreferencesPath())
	assert.Equal(t, filepath.Join(dir, "mcpchat.log"), cfg.DefaultLogPath())
	assert.Equal(t, filepath.Join(dir, "history"), cfg.HistoryPath())
}

func TestLoadPriority(t *testing.T) {
	configDir := t.TempDir()
	workDir := t.TempDir()

	writeFile(t, filepath.Join(configDir, "config.yaml"),
		"endpoint: ws://yaml:1/ws\nreconnect-delay: 2s\nword-wrap: 100\nhandshake-timeout: 3s\n")
	writeFile(t, filepath.Join(configDir, ".env"),
		"MCPCHAT_ENDPOINT=ws://configenv:2/ws\nMCPCHAT_RECONNECT_DELAY=7s\nOTHER_KEY=ignored\n")
	writeFile(t, filepath.Join(workDir, ".env"),
		"MCPCHAT_ENDPOINT=ws://localenv:3/ws\n")

	t.Run("local env file beats config dir env file and yaml", func(t *testing.T) {
		cfg, err := Load(newViper(configDir), workDir)
		require.NoError(t, err)
		assert.Equal(t, "ws://localenv:3/ws", cfg.Endpoint)
		assert.Equal(t, 7*time.Second, cfg.ReconnectDelay)
		assert.Equal(t, 100, cfg.WordWrap)
		assert.Equal(t, 3*time.Second, cfg.HandshakeTimeout)
	})

	t.Run("environment beats env files", func(t *testing.T) {
		t.Setenv("MCPCHAT_ENDPOINT", "wss://environment:4/ws")
		cfg, err := Load(newViper(configDir), workDir)
		require.NoError(t, err)
		assert.Equal(t, "wss://environment:4/ws", cfg.Endpoint)
	})

	t.Run("explicit value beats environment", func(t *testing.T) {
		t.Setenv("MCPCHAT_ENDPOINT", "wss://environment:4/ws")
		v := newViper(configDir)
		v.Set(KeyEndpoint, "ws://flag:5/ws")
		cfg, err := Load(v, workDir)
		require.NoError(t, err)
		assert.Equal(t, "ws://flag:5/ws", cfg.Endpoint)
	})
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value interface{}
	}{
		{"http scheme", KeyEndpoint, "http://localhost:5000/ws"},
		{"missing host", KeyEndpoint, "ws:///ws"},
		{"zero delay", KeyReconnectDelay, "0s"},
		{"negative wrap", KeyWordWrap, -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := newViper(t.TempDir())
			v.Set(tt.key, tt.value)
			_, err := Load(v, "")
			assert.Error(t, err)
		})
	}
}

func TestLoadMalformedConfigFile(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "config.yaml"), "endpoint: [unclosed\n")

	_, err := Load(newViper(dir), "")
	assert.Error(t, err)
}

func TestEnvKeyToConfigKey(t *testing.T) {
	tests := []struct {
		key      string
		expected string
		ok       bool
	}{
		{"MCPCHAT_ENDPOINT", "endpoint", true},
		{"MCPCHAT_RECONNECT_DELAY", "reconnect-delay", true},
		{"MCPCHAT_", "", false},
		{"PATH", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			name, ok := envKeyToConfigKey(tt.key)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.expected, name)
		})
	}
}
