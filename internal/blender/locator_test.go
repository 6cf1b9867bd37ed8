package blender

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// TestFindExecutable_SearchPath plants a fake binary on PATH and expects it to win.
func TestFindExecutable_SearchPath(t *testing.T) {
	dir := t.TempDir()
	fake := filepath.Join(dir, executableName())
	require.NoError(t, os.WriteFile(fake, []byte("#!/bin/sh\n"), 0o755))

	t.Setenv("PATH", dir)

	found, err := FindExecutable()
	require.NoError(t, err)
	require.Equal(t, fake, found)
}

// TestExpandHome resolves a leading tilde and leaves other paths alone.
func TestExpandHome(t *testing.T) {
	t.Parallel()

	home, err := os.UserHomeDir()
	require.NoError(t, err)
	require.Equal(t, filepath.Join(home, ".local", "bin", "blender"), expandHome("~/.local/bin/blender"))
	require.Equal(t, "/usr/bin/blender", expandHome("/usr/bin/blender"))
}
