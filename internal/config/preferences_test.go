package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPreferenceStoreMissingFileGivesDefaults(t *testing.T) {
	store := NewPreferenceStore(filepath.Join(t.TempDir(), "preferences.yaml"))

	prefs, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, DefaultPreferences(), prefs)
	assert.True(t, prefs.ShowReasoning)
	assert.False(t, prefs.DarkMode)
}

func TestPreferenceStoreSaveAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "preferences.yaml")
	store := NewPreferenceStore(path)

	want := Preferences{ShowReasoning: false, DarkMode: true}
	require.NoError(t, store.Save(want))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "show_reasoning: false")
	assert.Contains(t, string(data), "dark_mode: true")

	got, err := NewPreferenceStore(path).Load()
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestPreferenceStorePartialFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "preferences.yaml")
	require.NoError(t, os.WriteFile(path, []byte("dark_mode: true\n"), 0o600))

	prefs, err := NewPreferenceStore(path).Load()
	require.NoError(t, err)
	assert.True(t, prefs.ShowReasoning)
	assert.True(t, prefs.DarkMode)
}

func TestPreferenceStoreCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "preferences.yaml")
	require.NoError(t, os.WriteFile(path, []byte("dark_mode: [\n"), 0o600))

	prefs, err := NewPreferenceStore(path).Load()
	assert.Error(t, err)
	assert.Equal(t, DefaultPreferences(), prefs)
}
