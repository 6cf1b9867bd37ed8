package packager

import (
	"archive/zip"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// writeAddonTree lays out a realistic add-on source with excluded content mixed in.
func writeAddonTree(t *testing.T, parent string) string {
	t.Helper()

	dir := filepath.Join(parent, "my_tool")
	files := map[string]string{
		"__init__.py":          `bl_info = {"name": "My Tool"}`,
		"operators.py":         "import bpy\n",
		"icons/icon.png":       "png",
		"operators.pyc":        "compiled",
		".DS_Store":            "junk",
		"__pycache__/x.pyc":    "cache",
		".git/config":          "[core]",
		"vendor/__pycache__/y": "cache",
		"vendor/helpers.py":    "helpers",
	}
	for name, contents := range files {
		path := filepath.Join(dir, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
	}

	return dir
}

// archiveMembers opens a zip and returns its member names.
func archiveMembers(t *testing.T, path string) []string {
	t.Helper()

	reader, err := zip.OpenReader(path)
	require.NoError(t, err)

	defer func() {
		require.NoError(t, reader.Close())
	}()

	var names []string
	for _, member := range reader.File {
		names = append(names, member.Name)
	}

	return names
}

// TestRun_MemberSet checks exclusions and parent-relative member paths.
func TestRun_MemberSet(t *testing.T) {
	t.Parallel()

	parent := t.TempDir()
	dir := writeAddonTree(t, parent)

	path, err := Run(context.Background(), &Options{AddonDir: dir, AddonName: "my_tool"})
	require.NoError(t, err)
	require.Equal(t, filepath.Join(parent, "my_tool.zip"), path)

	require.ElementsMatch(t, []string{
		"my_tool/__init__.py",
		"my_tool/operators.py",
		"my_tool/icons/icon.png",
		"my_tool/vendor/helpers.py",
	}, archiveMembers(t, path))
}

// TestRun_Idempotent verifies repeated packaging yields the same member set.
func TestRun_Idempotent(t *testing.T) {
	t.Parallel()

	dir := writeAddonTree(t, t.TempDir())
	opts := &Options{AddonDir: dir, AddonName: "my_tool"}

	first, err := Run(context.Background(), opts)
	require.NoError(t, err)

	firstMembers := archiveMembers(t, first)

	second, err := Run(context.Background(), opts)
	require.NoError(t, err)
	require.Equal(t, first, second)
	require.Equal(t, firstMembers, archiveMembers(t, second))
}

// TestRun_MissingDirectory fails with ErrDirectoryNotFound.
func TestRun_MissingDirectory(t *testing.T) {
	t.Parallel()

	_, err := Run(context.Background(), &Options{
		AddonDir:  filepath.Join(t.TempDir(), "nope"),
		AddonName: "nope",
	})
	require.ErrorIs(t, err, ErrDirectoryNotFound)
}

// TestRun_MissingEntryPoint fails with ErrInvalidAddon and writes nothing.
func TestRun_MissingEntryPoint(t *testing.T) {
	t.Parallel()

	parent := t.TempDir()
	dir := filepath.Join(parent, "not_addon")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "code.py"), []byte("x = 1"), 0o644))

	_, err := Run(context.Background(), &Options{AddonDir: dir, AddonName: "not_addon"})
	require.ErrorIs(t, err, ErrInvalidAddon)

	_, err = os.Stat(filepath.Join(parent, "not_addon.zip"))
	require.ErrorIs(t, err, os.ErrNotExist)
}

// TestRun_ReplacesStaleArchive overwrites whatever sat at the output path.
func TestRun_ReplacesStaleArchive(t *testing.T) {
	t.Parallel()

	parent := t.TempDir()
	dir := writeAddonTree(t, parent)

	stale := filepath.Join(parent, "my_tool.zip")
	require.NoError(t, os.WriteFile(stale, []byte("not a zip"), 0o644))

	path, err := Run(context.Background(), &Options{AddonDir: dir, AddonName: "my_tool"})
	require.NoError(t, err)
	require.Equal(t, stale, path)
	require.NotEmpty(t, archiveMembers(t, path))
}

// TestRun_OutputOverride places the archive at the requested path.
func TestRun_OutputOverride(t *testing.T) {
	t.Parallel()

	dir := writeAddonTree(t, t.TempDir())
	output := filepath.Join(t.TempDir(), "custom.zip")

	path, err := Run(context.Background(), &Options{
		AddonDir:   dir,
		AddonName:  "my_tool",
		OutputPath: output,
	})
	require.NoError(t, err)
	require.Equal(t, output, path)
	require.Contains(t, archiveMembers(t, path), "my_tool/__init__.py")
}
