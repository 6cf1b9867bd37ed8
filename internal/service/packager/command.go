package packager

import (
	"archive/zip"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/oshokin/blender-addon-dev/internal/addon"
	"github.com/oshokin/blender-addon-dev/internal/logger"
)

// Options contains inputs for the packaging entry point.
type Options struct {
	// AddonDir is the add-on source directory. It must exist and contain
	// the entry-point file.
	AddonDir string
	// AddonName is the normalized module name used for the archive filename.
	AddonName string
	// OutputPath overrides the default archive location
	// (<parent of AddonDir>/<AddonName>.zip) when set.
	OutputPath string
}

var (
	// ErrDirectoryNotFound is returned when the add-on directory does not exist.
	ErrDirectoryNotFound = errors.New("add-on directory not found")
	// ErrInvalidAddon is returned when the entry-point file is missing.
	ErrInvalidAddon = errors.New("add-on entry point not found")
)

var (
	// excludedDirs are pruned from the walk entirely.
	//nolint:gochecknoglobals // Static exclusion set.
	excludedDirs = map[string]struct{}{
		"__pycache__": {},
		".git":        {},
	}
	// excludedSuffixes skip compiled and OS-artifact files.
	//nolint:gochecknoglobals // Static exclusion set.
	excludedSuffixes = []string{".pyc", ".pyo", ".DS_Store"}
)

// Run packages the add-on directory into a zip archive and returns its path.
// Member paths are relative to the directory's parent, so unpacking
// reproduces a correctly-named top-level folder.
func Run(ctx context.Context, opts *Options) (string, error) {
	ctx = logger.WithName(ctx, "packager")

	sourceDir, err := validateSource(opts.AddonDir)
	if err != nil {
		return "", err
	}

	outputPath := opts.OutputPath
	if outputPath == "" {
		outputPath = filepath.Join(filepath.Dir(sourceDir), opts.AddonName+".zip")
	}

	logger.InfoKV(ctx, "Packaging add-on", "source", sourceDir, "archive", outputPath)

	if err = removeStaleArchive(ctx, outputPath); err != nil {
		return "", err
	}

	count, err := writeArchive(ctx, sourceDir, outputPath)
	if err != nil {
		// Do not leave a truncated archive behind.
		_ = os.Remove(outputPath)

		return "", fmt.Errorf("write archive: %w", err)
	}

	logger.InfoKV(ctx, "Archive created", "path", outputPath, "files", count)

	return outputPath, nil
}

// validateSource checks the directory and its entry point, returning the
// absolute source path.
func validateSource(dir string) (string, error) {
	if dir == "" {
		return "", ErrDirectoryNotFound
	}

	absDir, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("resolve %s: %w", dir, err)
	}

	info, err := os.Stat(absDir)
	if errors.Is(err, os.ErrNotExist) || (err == nil && !info.IsDir()) {
		return "", fmt.Errorf("%w: %s", ErrDirectoryNotFound, dir)
	} else if err != nil {
		return "", fmt.Errorf("stat %s: %w", dir, err)
	}

	if _, err = os.Stat(filepath.Join(absDir, addon.EntryPointFilename)); err != nil {
		return "", fmt.Errorf("%w: %s has no %s", ErrInvalidAddon, dir, addon.EntryPointFilename)
	}

	return absDir, nil
}

// removeStaleArchive deletes any pre-existing archive at the output path.
func removeStaleArchive(ctx context.Context, path string) error {
	err := os.Remove(path)
	if err == nil {
		logger.Info(ctx, "Removed existing archive")
		return nil
	}

	if errors.Is(err, os.ErrNotExist) {
		return nil
	}

	return fmt.Errorf("remove stale archive: %w", err)
}

// writeArchive walks the source tree in lexical order and streams the kept
// files into a new zip, returning the member count.
func writeArchive(ctx context.Context, sourceDir, outputPath string) (int, error) {
	outputFile, err := os.Create(outputPath)
	if err != nil {
		return 0, err
	}

	archive := zip.NewWriter(outputFile)
	baseDir := filepath.Dir(sourceDir)
	count := 0

	walkErr := filepath.WalkDir(sourceDir, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if entry.IsDir() {
			if _, excluded := excludedDirs[entry.Name()]; excluded && path != sourceDir {
				return filepath.SkipDir
			}

			return nil
		}

		if hasExcludedSuffix(entry.Name()) {
			return nil
		}

		relPath, err := filepath.Rel(baseDir, path)
		if err != nil {
			return err
		}

		memberName := filepath.ToSlash(relPath)
		if err = addMember(archive, path, memberName); err != nil {
			return err
		}

		logger.DebugKV(ctx, "Added archive member", "name", memberName)

		count++

		return nil
	})

	if walkErr != nil {
		_ = archive.Close()
		_ = outputFile.Close()

		return 0, walkErr
	}

	if err = archive.Close(); err != nil {
		_ = outputFile.Close()
		return 0, err
	}

	return count, outputFile.Close()
}

// addMember copies one file into the archive under the given member name.
func addMember(archive *zip.Writer, path, memberName string) error {
	source, err := os.Open(filepath.Clean(path))
	if err != nil {
		return err
	}

	defer func() {
		_ = source.Close()
	}()

	member, err := archive.Create(memberName)
	if err != nil {
		return err
	}

	if _, err = io.Copy(member, source); err != nil {
		return fmt.Errorf("compress %s: %w", memberName, err)
	}

	return nil
}

// hasExcludedSuffix reports whether the filename ends in a skipped suffix.
func hasExcludedSuffix(name string) bool {
	for _, suffix := range excludedSuffixes {
		if strings.HasSuffix(name, suffix) {
			return true
		}
	}

	return false
}
