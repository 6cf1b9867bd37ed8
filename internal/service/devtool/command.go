package devtool

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/oshokin/blender-addon-dev/internal/addon"
	"github.com/oshokin/blender-addon-dev/internal/config"
	"github.com/oshokin/blender-addon-dev/internal/logger"
	"github.com/oshokin/blender-addon-dev/internal/service/installer"
	"github.com/oshokin/blender-addon-dev/internal/service/packager"
)

// Options contains inputs for the tool's entry point.
type Options struct {
	// AddonName is the add-on module name; detected from bl_info when empty.
	AddonName string
	// AddonDir is the add-on source directory; auto-detected when empty.
	AddonDir string
	// OutputPath overrides the archive location.
	OutputPath string
	// ConfigPath is an optional path to the settings YAML file.
	ConfigPath string
	// Install drives Blender to install the packaged archive.
	Install bool
	// Launch starts Blender after a successful install.
	Launch bool
}

// Run executes the packaging workflow and, when requested, the install pipeline.
func Run(ctx context.Context, opts *Options) error {
	ctx = logger.WithName(ctx, "blender-addon-dev")

	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return err
	}

	addonDir, err := resolveAddonDir(ctx, opts.AddonDir)
	if err != nil {
		return err
	}

	addonName := resolveAddonName(ctx, opts.AddonName, addonDir)

	logger.InfoKV(ctx, "Packaging Blender add-on", "name", addonName, "dir", addonDir)

	zipPath, err := packager.Run(ctx, &packager.Options{
		AddonDir:   addonDir,
		AddonName:  addonName,
		OutputPath: opts.OutputPath,
	})
	if err != nil {
		return fmt.Errorf("package add-on: %w", err)
	}

	if !opts.Install {
		printManualSteps(ctx, addonName, addonDir, zipPath)
		return nil
	}

	return installer.Run(ctx, cfg, &installer.Options{
		AddonName: addonName,
		ZipPath:   zipPath,
		Launch:    opts.Launch,
	})
}

// resolveAddonDir uses the explicit directory when given, otherwise
// auto-detects starting from the working directory.
func resolveAddonDir(ctx context.Context, dir string) (string, error) {
	if dir != "" {
		if _, err := os.Stat(dir); err != nil {
			return "", fmt.Errorf("%w: %s", packager.ErrDirectoryNotFound, dir)
		}

		return dir, nil
	}

	logger.Info(ctx, "Auto-detecting add-on directory")

	workingDir, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("working directory: %w", err)
	}

	found, err := addon.FindDir(workingDir)
	if err != nil {
		return "", err
	}

	logger.InfoKV(ctx, "Found add-on directory", "dir", found)

	return found, nil
}

// resolveAddonName uses the explicit name when given, otherwise derives it
// from the add-on manifest.
func resolveAddonName(ctx context.Context, name, dir string) string {
	if name != "" {
		return name
	}

	detected := addon.DetectName(dir)
	logger.InfoKV(ctx, "Detected add-on name", "name", detected)

	return detected
}

// printManualSteps logs human-readable guidance for installing the archive by hand.
func printManualSteps(ctx context.Context, addonName, addonDir, zipPath string) {
	var builder strings.Builder

	builder.WriteString("To install the add-on manually:\n")
	builder.WriteString("1. Open Blender\n")
	builder.WriteString("2. Go to Edit > Preferences > Add-ons\n")
	builder.WriteString("3. Click \"Install...\"\n")
	builder.WriteString("4. Select: ")
	builder.WriteString(zipPath)
	builder.WriteString("\n5. Enable the add-on in the list\n")
	builder.WriteString("Or rerun with --install to install automatically:\n")
	builder.WriteString("blender-addon-dev -n ")
	builder.WriteString(addonName)
	builder.WriteString(" -d ")
	builder.WriteString(addonDir)
	builder.WriteString(" --install")

	logger.Info(ctx, builder.String())
}
