package store

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSettingsRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")

	require.NoError(t, SaveSettings(path, Settings{Version: 3, Enabled: false}))
	s := LoadSettings(path)
	assert.Equal(t, 3, s.Version)
	assert.False(t, s.Enabled)
}

func TestSettingsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")

	s := LoadSettings(path)
	assert.Equal(t, DefaultSettings(), s, "missing file yields defaults")
	assert.True(t, s.Enabled)
	assert.Zero(t, s.Version)

	require.NoError(t, os.WriteFile(path, []byte("not settings"), 0644))
	assert.Equal(t, DefaultSettings(), LoadSettings(path), "unparsable file yields defaults")
}
