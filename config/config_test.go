package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadCreatesDefaults(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "apptime", CfgFile)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.FileExists(t, path)
	enabled, minutes := cfg.TrackingDefaults()
	assert.True(t, enabled)
	assert.Equal(t, 20, minutes)
	assert.Equal(t, 5*time.Minute, cfg.AutosaveInterval())
	assert.Equal(t, []string{"blender"}, cfg.WatchedApps())
	assert.Equal(t, DefaultWeb, cfg.WebAddress())
	assert.Equal(t, DefaultDataDir(), cfg.DataDir())

	// le fichier écrit se relit à l'identique
	again, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg.vals, again.vals)
}

func TestLoadValues(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), CfgFile)
	content := `
debug_logging = true
data_dir = "/srv/apptime"

[tracking]
enabled = false
inactivity_minutes = 5
autosave_interval = "30s"
watched_apps = ["krita", "blender"]
ignored_apps = ["blender-thumbnailer"]

[web]
enabled = false
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.True(t, cfg.DebugLogging())
	assert.Equal(t, "/srv/apptime", cfg.DataDir())
	enabled, minutes := cfg.TrackingDefaults()
	assert.False(t, enabled)
	assert.Equal(t, 5, minutes)
	assert.Equal(t, 30*time.Second, cfg.AutosaveInterval())
	assert.Equal(t, []string{"krita", "blender"}, cfg.WatchedApps())
	assert.Equal(t, []string{"blender-thumbnailer"}, cfg.IgnoredApps())
	assert.False(t, cfg.WebEnabled())
}

func TestLoadInvalid(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		content string
	}{
		{"zero threshold", "[tracking]\ninactivity_minutes = 0\n"},
		{"bad interval", "[tracking]\nautosave_interval = \"soon\"\n"},
		{"bad address", "[web]\nenabled = true\naddress = \"not an address\"\n"},
		{"bad toml", "[tracking\n"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			path := filepath.Join(t.TempDir(), CfgFile)
			require.NoError(t, os.WriteFile(path, []byte(tt.content), 0o644))
			_, err := Load(path)
			require.Error(t, err)
		})
	}
}
