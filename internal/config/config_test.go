package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// TestValidate checks timeout validation and defaulting.
func TestValidate(t *testing.T) {
	t.Parallel()

	// Nil configuration.
	err := Validate(nil)
	require.Error(t, err)

	// Negative timeout.
	cfg := &Config{ScriptTimeout: -time.Second}

	err = Validate(cfg)
	require.Error(t, err)

	// Zero values are filled with defaults.
	cfg = new(Config)

	err = Validate(cfg)
	require.NoError(t, err)
	require.Equal(t, DefaultScriptTimeout, cfg.ScriptTimeout)
	require.Equal(t, DefaultInstallTimeout, cfg.InstallTimeout)
	require.Equal(t, DefaultKillSettleDelay, cfg.KillSettleDelay)

	// Explicit values survive validation.
	cfg = &Config{
		BlenderPath:    "/opt/blender/blender",
		ScriptTimeout:  5 * time.Second,
		InstallTimeout: 10 * time.Second,
	}

	err = Validate(cfg)
	require.NoError(t, err)
	require.Equal(t, 5*time.Second, cfg.ScriptTimeout)
}

// chdir changes the working directory for the test and restores it on cleanup.
// Equivalent of t.Chdir, which requires Go 1.24+.
func chdir(t *testing.T, dir string) {
	t.Helper()

	prev, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() {
		require.NoError(t, os.Chdir(prev))
	})
}

// TestLoad_MissingFileUsesDefaults ensures the tool runs without a settings file.
func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)

	cfg, err := Load("")
	require.NoError(t, err)
	require.Equal(t, Default(), cfg)

	// An explicitly given path must exist.
	_, err = Load(filepath.Join(dir, "nope.yaml"))
	require.Error(t, err)
}

// TestLoad_ReadsFile loads settings from disk and applies defaults for omitted fields.
func TestLoad_ReadsFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "settings.yaml")

	contents := "blender_path: /opt/blender/blender\nscript_timeout: 5000000000\n"
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "/opt/blender/blender", cfg.BlenderPath)
	require.Equal(t, 5*time.Second, cfg.ScriptTimeout)
	require.Equal(t, DefaultInstallTimeout, cfg.InstallTimeout)
}

// TestLoad_BadYAML rejects malformed settings.
func TestLoad_BadYAML(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "settings.yaml")
	require.NoError(t, os.WriteFile(path, []byte("{not yaml"), 0o600))

	_, err := Load(path)
	require.Error(t, err)
}
