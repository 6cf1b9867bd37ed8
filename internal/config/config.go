package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds tool settings shared by the packaging and install stages.
type Config struct {
	// BlenderPath overrides executable discovery when set.
	BlenderPath string `yaml:"blender_path"`
	// ScriptTimeout bounds the uninstall and startup-hook Blender calls.
	ScriptTimeout time.Duration `yaml:"script_timeout"`
	// InstallTimeout bounds the install Blender call, which does more work.
	InstallTimeout time.Duration `yaml:"install_timeout"`
	// KillSettleDelay is how long to wait after terminating Blender processes
	// before the next stage touches Blender's configuration directories.
	KillSettleDelay time.Duration `yaml:"kill_settle_delay"`
}

const (
	// DefaultConfigFilename is the default filename for tool settings.
	DefaultConfigFilename = "blender-addon-dev.yaml"

	// DefaultScriptTimeout is the default bound for uninstall and startup-hook calls.
	DefaultScriptTimeout = 15 * time.Second

	// DefaultInstallTimeout is the default bound for the install call.
	DefaultInstallTimeout = 30 * time.Second

	// DefaultKillSettleDelay is the default pause after process termination.
	DefaultKillSettleDelay = time.Second
)

var (
	// errConfigIsNotSet is returned when a nil configuration is provided.
	errConfigIsNotSet = errors.New("configuration is not set")
	// errNegativeTimeout is returned when a timeout setting is below zero.
	errNegativeTimeout = errors.New("timeouts must not be negative")
)

// Default returns a configuration populated with default timeouts.
func Default() *Config {
	return &Config{
		ScriptTimeout:   DefaultScriptTimeout,
		InstallTimeout:  DefaultInstallTimeout,
		KillSettleDelay: DefaultKillSettleDelay,
	}
}

// Load reads configuration from the provided path and validates it.
// A missing file is not an error unless the path was given explicitly:
// the tool works with defaults when no settings file exists.
func Load(path string) (*Config, error) {
	explicit := path != ""
	if !explicit {
		path = DefaultConfigFilename
	}

	contents, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) && !explicit {
			return Default(), nil
		}

		return nil, fmt.Errorf("read settings: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(contents, &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal settings: %w", err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks the provided settings and fills in default timeouts.
func Validate(cfg *Config) error {
	if cfg == nil {
		return errConfigIsNotSet
	}

	if cfg.ScriptTimeout < 0 || cfg.InstallTimeout < 0 || cfg.KillSettleDelay < 0 {
		return errNegativeTimeout
	}

	if cfg.ScriptTimeout == 0 {
		cfg.ScriptTimeout = DefaultScriptTimeout
	}

	if cfg.InstallTimeout == 0 {
		cfg.InstallTimeout = DefaultInstallTimeout
	}

	if cfg.KillSettleDelay == 0 {
		cfg.KillSettleDelay = DefaultKillSettleDelay
	}

	return nil
}
