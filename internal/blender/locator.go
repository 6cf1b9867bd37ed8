package blender

import (
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
)

// ErrBlenderNotFound is returned when no Blender executable can be located.
var ErrBlenderNotFound = errors.New("blender executable not found")

// FindExecutable resolves the Blender executable: first the search path,
// then platform-conventional install locations. The first match wins and
// is not validated beyond existing on disk.
func FindExecutable() (string, error) {
	if path, err := exec.LookPath(executableName()); err == nil {
		return path, nil
	}

	for _, candidate := range candidatePaths() {
		expanded := expandHome(candidate)
		if _, err := os.Stat(expanded); err == nil {
			return expanded, nil
		}
	}

	return "", ErrBlenderNotFound
}

// executableName returns the canonical Blender binary name for this platform.
func executableName() string {
	if runtime.GOOS == "windows" {
		return "blender.exe"
	}

	return "blender"
}

// candidatePaths lists conventional install locations probed after the search path.
func candidatePaths() []string {
	switch runtime.GOOS {
	case "darwin":
		return []string{
			"/Applications/Blender.app/Contents/MacOS/Blender",
		}
	case "windows":
		return []string{
			filepath.Join(os.Getenv("ProgramFiles"), "Blender Foundation", "Blender", "blender.exe"),
		}
	default:
		return []string{
			"/usr/bin/blender",
			"/usr/local/bin/blender",
			"~/.local/bin/blender",
			"/snap/bin/blender",
		}
	}
}

// expandHome resolves a leading ~ against the current user's home directory.
func expandHome(path string) string {
	if len(path) < 2 || path[0] != '~' {
		return path
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}

	return filepath.Join(home, path[2:])
}
