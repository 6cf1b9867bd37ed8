package addon

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

const (
	// EntryPointFilename is the script Blender loads as the add-on root module.
	EntryPointFilename = "__init__.py"

	// manifestMarker identifies an entry point as a Blender add-on.
	manifestMarker = "bl_info"
)

var (
	// ErrNoAddonFound is returned when directory auto-detection finds no candidate.
	ErrNoAddonFound = errors.New("no add-on directory found")
	// ErrAmbiguousAddon is returned when more than one directory qualifies.
	ErrAmbiguousAddon = errors.New("multiple add-on directories found")
)

var (
	// manifestPattern matches the bl_info dictionary literal, mirroring what
	// Blender itself tolerates: a flat dictionary on the first brace pair.
	manifestPattern = regexp.MustCompile(`(?s)bl_info\s*=\s*\{([^}]+)\}`)
	// namePattern extracts the human-readable name value from the manifest body.
	namePattern = regexp.MustCompile(`['"]name['"]\s*:\s*['"]([^'"]+)['"]`)
	// moduleNameReplacer maps separators in human-readable names to underscores.
	moduleNameReplacer = strings.NewReplacer(" ", "_", "-", "_")
)

// NormalizeModuleName converts a human-readable add-on name into the module
// identifier Blender uses: lowercase with spaces and hyphens as underscores.
func NormalizeModuleName(name string) string {
	return moduleNameReplacer.Replace(strings.ToLower(strings.TrimSpace(name)))
}

// DetectName derives the add-on module name from the bl_info manifest in the
// directory's entry point. It falls back to the directory's base name when
// the entry point is missing or carries no usable name.
func DetectName(dir string) string {
	contents, err := os.ReadFile(filepath.Join(dir, EntryPointFilename))
	if err != nil {
		return filepath.Base(dir)
	}

	manifest := manifestPattern.FindSubmatch(contents)
	if manifest == nil {
		return filepath.Base(dir)
	}

	name := namePattern.FindSubmatch(manifest[1])
	if name == nil {
		return filepath.Base(dir)
	}

	return NormalizeModuleName(string(name[1]))
}

// FindDir auto-detects the add-on directory starting from root.
// The root itself wins when it carries a manifest; otherwise immediate,
// non-hidden subdirectories are scanned and exactly one must qualify.
func FindDir(root string) (string, error) {
	if hasManifest(root) {
		return root, nil
	}

	entries, err := os.ReadDir(root)
	if err != nil {
		return "", fmt.Errorf("read directory %s: %w", root, err)
	}

	var candidates []string

	for _, entry := range entries {
		if !entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}

		dir := filepath.Join(root, entry.Name())
		if hasManifest(dir) {
			candidates = append(candidates, dir)
		}
	}

	switch len(candidates) {
	case 0:
		return "", ErrNoAddonFound
	case 1:
		return candidates[0], nil
	default:
		return "", fmt.Errorf("%w: %s", ErrAmbiguousAddon, strings.Join(candidates, ", "))
	}
}

// hasManifest reports whether dir contains an entry point with a bl_info marker.
func hasManifest(dir string) bool {
	contents, err := os.ReadFile(filepath.Join(dir, EntryPointFilename))
	if err != nil {
		return false
	}

	return strings.Contains(string(contents), manifestMarker)
}
