package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/oshokin/blender-addon-dev/internal/logger"
	"github.com/oshokin/blender-addon-dev/internal/service/devtool"
	"github.com/oshokin/blender-addon-dev/internal/version"
)

var (
	// addonName is the add-on module name; detected from bl_info when empty.
	addonName string

	// addonDir is the add-on source directory; auto-detected when empty.
	addonDir string

	// outputPath overrides the archive location.
	outputPath string

	// configPath to the optional configuration YAML file.
	configPath string

	// installAddon drives Blender to install the packaged archive.
	installAddon bool

	// launchBlender starts Blender after a successful install.
	launchBlender bool

	// logLevel sets the logging verbosity.
	logLevel string

	// rootCmd represents the base command for packaging and installing add-ons.
	rootCmd = &cobra.Command{
		Use:   "blender-addon-dev",
		Short: "Package and install Blender add-ons during development",
		Long: "Package a Blender add-on directory into a distributable zip and " +
			"optionally drive Blender to uninstall the previous version, install " +
			"the new one, enable it persistently and set up an auto-enable " +
			"startup hook.",
		RunE: func(_ *cobra.Command, _ []string) error {
			if lvl, ok := logger.ParseLogLevel(logLevel); ok {
				logger.SetLevel(lvl)
			}

			// Setup graceful shutdown handling.
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()

			options := &devtool.Options{
				AddonName:  addonName,
				AddonDir:   addonDir,
				OutputPath: outputPath,
				ConfigPath: configPath,
				Install:    installAddon,
				Launch:     launchBlender,
			}

			return devtool.Run(ctx, options)
		},
	}
)

// Execute runs the blender-addon-dev CLI and exits with non-zero status on error.
func Execute() {
	version.AttachCobraVersionCommand(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	// Setup command flags with consistent naming and descriptions.
	rootCmd.Flags().StringVarP(&addonName, "addon-name", "n", "",
		"add-on module name (detected from bl_info when omitted)")
	rootCmd.Flags().StringVarP(&addonDir, "addon-dir", "d", "",
		"path to the add-on directory (auto-detected when omitted)")
	rootCmd.Flags().StringVarP(&outputPath, "output", "o", "",
		"path of the produced zip archive")
	rootCmd.Flags().StringVarP(&configPath, "config", "c", "",
		"path to configuration file")
	rootCmd.Flags().BoolVarP(&installAddon, "install", "i", false,
		"install the add-on into Blender after packaging")
	rootCmd.Flags().BoolVarP(&launchBlender, "launch", "l", false,
		"launch Blender after installation (requires --install)")
	rootCmd.Flags().StringVar(&logLevel, "log-level", "info",
		"logging level (debug, info, warn, error)")
}
