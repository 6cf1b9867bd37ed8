package installer

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/oshokin/blender-addon-dev/internal/blender"
	"github.com/oshokin/blender-addon-dev/internal/config"
	"github.com/oshokin/blender-addon-dev/internal/logger"
)

// Options contains inputs for the install entry point.
type Options struct {
	// AddonName is the normalized module name of the add-on.
	AddonName string
	// ZipPath is the packaged archive produced by the packager.
	ZipPath string
	// Launch starts Blender after a successful install.
	Launch bool
}

// Stage names recorded in results and logs.
const (
	StageKill        = "kill"
	StageUninstall   = "uninstall"
	StageInstall     = "install"
	StageStartupHook = "startup_hook"
	StageLaunch      = "launch"
)

// ErrInstallFailed is returned when the install stage fails; it is the only
// stage whose failure aborts the run.
var ErrInstallFailed = errors.New("add-on installation failed")

// StageResult records the outcome of one pipeline stage.
type StageResult struct {
	// Stage is one of the Stage* constants.
	Stage string
	// OK reports whether the stage completed without incident. Only the
	// install stage's flag affects the overall run outcome.
	OK bool
	// Output is the captured Blender output, when the stage produced any.
	Output string
}

// pipeline runs the linear install sequence:
// kill -> uninstall -> install -> startup hook -> optional launch.
// Every stage except install is best-effort; its failure is downgraded to a
// warning because the underlying operation is speculative (Blender may not
// be running, the add-on may not have been installed before, background-mode
// scripting silently misbehaves without a UI context).
type pipeline struct {
	opts       *Options
	cfg        *config.Config
	runner     blender.ScriptRunner
	killAll    func(ctx context.Context) int
	launch     func(executable string) error
	executable string
	results    []StageResult
}

// Run locates Blender and executes the install pipeline for the packaged archive.
func Run(ctx context.Context, cfg *config.Config, opts *Options) error {
	ctx = logger.WithName(ctx, "installer")

	executable, err := resolveExecutable(cfg)
	if err != nil {
		printManualInstructions(ctx, opts.ZipPath)
		return err
	}

	reaper := blender.NewReaper(cfg.KillSettleDelay)
	p := &pipeline{
		opts:       opts,
		cfg:        cfg,
		runner:     blender.NewRunner(executable),
		killAll:    reaper.KillAll,
		launch:     blender.Launch,
		executable: executable,
	}

	return p.run(ctx)
}

// resolveExecutable honors the configured override before discovery.
func resolveExecutable(cfg *config.Config) (string, error) {
	if cfg.BlenderPath != "" {
		return cfg.BlenderPath, nil
	}

	return blender.FindExecutable()
}

func (p *pipeline) run(ctx context.Context) error {
	logger.InfoKV(ctx, "Using Blender executable", "path", p.executable)

	p.killStage(ctx)
	p.uninstallStage(ctx)

	if err := p.installStage(ctx); err != nil {
		return err
	}

	p.startupHookStage(ctx)

	if p.opts.Launch {
		p.launchStage(ctx)
	} else {
		logger.Info(ctx, "Open Blender to use the add-on")
	}

	return nil
}

// killStage terminates running Blender instances. Never blocks the pipeline.
func (p *pipeline) killStage(ctx context.Context) {
	logger.Info(ctx, "Terminating running Blender processes")

	killed := p.killAll(ctx)
	if killed > 0 {
		logger.InfoKV(ctx, "Blender processes terminated", "count", killed)
	}

	p.record(StageKill, true, "")
}

// uninstallStage removes any previously installed version. "Not installed"
// is the common case, so the stage succeeds regardless of Blender's exit code.
func (p *pipeline) uninstallStage(ctx context.Context) {
	logger.Info(ctx, "Uninstalling previous add-on version")

	script, err := blender.UninstallScript(p.opts.AddonName)
	if err != nil {
		p.record(StageUninstall, false, "")
		logger.Warnf(ctx, "Could not build uninstall script: %v", err)

		return
	}

	result, err := p.runner.RunScript(ctx, script, p.cfg.ScriptTimeout)
	if err != nil {
		p.record(StageUninstall, false, result.CombinedOutput())
		logger.Warnf(ctx, "Uninstall failed (the add-on may not have been installed): %v", err)
		echoOutput(ctx, result)

		return
	}

	p.record(StageUninstall, true, result.CombinedOutput())

	if !result.OK {
		logger.Warn(ctx, "Uninstall reported warnings, continuing")
		echoOutput(ctx, result)

		return
	}

	logger.Debug(ctx, strings.TrimSpace(result.Stdout))
	logger.Info(ctx, "Uninstall completed")
}

// installStage installs the archive and enables the add-on persistently.
// This is the single fatal stage: a non-zero exit, a timeout, or a failure
// to spawn Blender aborts the run.
func (p *pipeline) installStage(ctx context.Context) error {
	logger.Info(ctx, "Installing new add-on version")

	zipPath, err := filepath.Abs(p.opts.ZipPath)
	if err != nil {
		p.record(StageInstall, false, "")
		return fmt.Errorf("%w: resolve archive path: %v", ErrInstallFailed, err)
	}

	script, err := blender.InstallScript(zipPath, p.opts.AddonName)
	if err != nil {
		p.record(StageInstall, false, "")
		return fmt.Errorf("%w: %v", ErrInstallFailed, err)
	}

	result, err := p.runner.RunScript(ctx, script, p.cfg.InstallTimeout)
	if err != nil {
		p.record(StageInstall, false, result.CombinedOutput())
		echoOutput(ctx, result)

		if errors.Is(err, blender.ErrScriptTimeout) {
			return fmt.Errorf("%w: installation timed out: %v", ErrInstallFailed, err)
		}

		return fmt.Errorf("%w: %v", ErrInstallFailed, err)
	}

	if !result.OK {
		p.record(StageInstall, false, result.CombinedOutput())
		logger.Error(ctx, "Blender reported a failure during installation")
		echoOutput(ctx, result)

		return ErrInstallFailed
	}

	p.record(StageInstall, true, result.CombinedOutput())
	logger.Debug(ctx, strings.TrimSpace(result.Stdout))
	logger.InfoKV(ctx, "Add-on installed and enabled", "addon", p.opts.AddonName)

	return nil
}

// startupHookStage persists the auto-enable hook. Non-fatal: a missing
// startup directory or a background-mode hiccup is cosmetic.
func (p *pipeline) startupHookStage(ctx context.Context) {
	logger.Info(ctx, "Installing startup auto-enable hook")

	script, err := blender.StartupHookInstallScript(p.opts.AddonName)
	if err != nil {
		p.record(StageStartupHook, false, "")
		logger.Warnf(ctx, "Could not build startup hook script: %v", err)

		return
	}

	result, err := p.runner.RunScript(ctx, script, p.cfg.ScriptTimeout)
	if err != nil {
		p.record(StageStartupHook, false, result.CombinedOutput())
		logger.Warnf(ctx, "Startup hook installation failed: %v", err)
		echoOutput(ctx, result)

		return
	}

	p.record(StageStartupHook, result.OK, result.CombinedOutput())

	if !result.OK {
		logger.Warn(ctx, "Startup hook installation reported warnings")
		echoOutput(ctx, result)

		return
	}

	logger.InfoKV(ctx, "Startup hook installed",
		"file", blender.StartupHookFilename(p.opts.AddonName))
}

// launchStage starts Blender detached. Install already succeeded, so a
// launch failure is only a warning.
func (p *pipeline) launchStage(ctx context.Context) {
	logger.Info(ctx, "Launching Blender")

	if err := p.launch(p.executable); err != nil {
		p.record(StageLaunch, false, "")
		logger.Warnf(ctx, "Could not launch Blender, open it manually: %v", err)

		return
	}

	p.record(StageLaunch, true, "")
	logger.Info(ctx, "Blender launched")
}

// record appends a stage outcome to the run history.
func (p *pipeline) record(stage string, ok bool, output string) {
	p.results = append(p.results, StageResult{Stage: stage, OK: ok, Output: output})
}

// echoOutput surfaces captured Blender output verbatim so the operator can
// diagnose host-side issues without internal log access.
func echoOutput(ctx context.Context, result *blender.ScriptResult) {
	if result == nil {
		return
	}

	if out := strings.TrimSpace(result.Stdout); out != "" {
		logger.Info(ctx, "Blender output:\n"+out)
	}

	if errOut := strings.TrimSpace(result.Stderr); errOut != "" {
		logger.Error(ctx, "Blender errors:\n"+errOut)
	}
}

// printManualInstructions tells the operator how to install the archive by
// hand when no Blender executable could be located.
func printManualInstructions(ctx context.Context, zipPath string) {
	var builder strings.Builder

	builder.WriteString("Blender executable not found. To install manually:\n")
	builder.WriteString("1. Open Blender\n")
	builder.WriteString("2. Go to Edit > Preferences > Add-ons\n")
	builder.WriteString("3. Click \"Install...\"\n")
	builder.WriteString("4. Select: ")
	builder.WriteString(zipPath)
	builder.WriteString("\n5. Enable the add-on in the list")

	logger.Error(ctx, builder.String())
}
