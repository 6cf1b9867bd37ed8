package installer

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/oshokin/blender-addon-dev/internal/blender"
	"github.com/oshokin/blender-addon-dev/internal/config"
)

// fakeRunner classifies incoming scripts by stage and replays canned outcomes.
type fakeRunner struct {
	outcomes map[string]*blender.ScriptResult
	errs     map[string]error
	calls    []string
}

func (f *fakeRunner) RunScript(_ context.Context, script string, _ time.Duration) (*blender.ScriptResult, error) {
	stage := classifyScript(script)
	f.calls = append(f.calls, stage)

	result := f.outcomes[stage]
	if result == nil {
		result = &blender.ScriptResult{OK: true}
	}

	return result, f.errs[stage]
}

// classifyScript identifies which stage a generated script belongs to.
func classifyScript(script string) string {
	switch {
	case strings.Contains(script, "addon_install"):
		return StageInstall
	case strings.Contains(script, "addon_remove"):
		return StageUninstall
	case strings.Contains(script, "startup"):
		return StageStartupHook
	default:
		return "unknown"
	}
}

// newTestPipeline wires a pipeline with the fake runner and stubbed process control.
func newTestPipeline(runner *fakeRunner, opts *Options, launched *int) *pipeline {
	cfg := config.Default()

	return &pipeline{
		opts:    opts,
		cfg:     cfg,
		runner:  runner,
		killAll: func(context.Context) int { return 0 },
		launch: func(string) error {
			if launched != nil {
				*launched++
			}

			return nil
		},
		executable: "blender",
	}
}

// TestRun_UninstallFailureDoesNotBlockInstall keeps the pipeline moving when
// the speculative uninstall stage reports a failure.
func TestRun_UninstallFailureDoesNotBlockInstall(t *testing.T) {
	t.Parallel()

	runner := &fakeRunner{
		outcomes: map[string]*blender.ScriptResult{
			StageUninstall: {OK: false, Stdout: "no such add-on"},
		},
	}
	p := newTestPipeline(runner, &Options{AddonName: "my_tool", ZipPath: "my_tool.zip"}, nil)

	err := p.run(context.Background())
	require.NoError(t, err)
	require.Equal(t, []string{StageUninstall, StageInstall, StageStartupHook}, runner.calls)
}

// TestRun_InstallFailureIsFatal aborts before the startup hook and launch stages.
func TestRun_InstallFailureIsFatal(t *testing.T) {
	t.Parallel()

	launched := 0
	runner := &fakeRunner{
		outcomes: map[string]*blender.ScriptResult{
			StageInstall: {OK: false, Stdout: "install failed", Stderr: "traceback"},
		},
	}
	p := newTestPipeline(runner, &Options{AddonName: "my_tool", ZipPath: "my_tool.zip", Launch: true}, &launched)

	err := p.run(context.Background())
	require.ErrorIs(t, err, ErrInstallFailed)
	require.Equal(t, []string{StageUninstall, StageInstall}, runner.calls)
	require.Zero(t, launched)

	last := p.results[len(p.results)-1]
	require.Equal(t, StageInstall, last.Stage)
	require.False(t, last.OK)
	require.Contains(t, last.Output, "install failed")
}

// TestRun_InstallTimeoutIsFatal maps a runner timeout to the fatal install error.
func TestRun_InstallTimeoutIsFatal(t *testing.T) {
	t.Parallel()

	runner := &fakeRunner{
		outcomes: map[string]*blender.ScriptResult{
			StageInstall: {OK: false},
		},
		errs: map[string]error{
			StageInstall: blender.ErrScriptTimeout,
		},
	}
	p := newTestPipeline(runner, &Options{AddonName: "my_tool", ZipPath: "my_tool.zip"}, nil)

	err := p.run(context.Background())
	require.ErrorIs(t, err, ErrInstallFailed)
	require.Contains(t, err.Error(), "timed out")
}

// TestRun_LaunchAfterSuccess launches exactly once when requested.
func TestRun_LaunchAfterSuccess(t *testing.T) {
	t.Parallel()

	launched := 0
	runner := &fakeRunner{}
	p := newTestPipeline(runner, &Options{AddonName: "my_tool", ZipPath: "my_tool.zip", Launch: true}, &launched)

	err := p.run(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, launched)
	require.Equal(t, []string{StageUninstall, StageInstall, StageStartupHook}, runner.calls)
}

// TestRun_LaunchFailureIsWarning keeps the run successful once install completed.
func TestRun_LaunchFailureIsWarning(t *testing.T) {
	t.Parallel()

	runner := &fakeRunner{}
	p := newTestPipeline(runner, &Options{AddonName: "my_tool", ZipPath: "my_tool.zip", Launch: true}, nil)
	p.launch = func(string) error { return errors.New("no display") }

	err := p.run(context.Background())
	require.NoError(t, err)

	last := p.results[len(p.results)-1]
	require.Equal(t, StageLaunch, last.Stage)
	require.False(t, last.OK)
}

// TestRun_StartupHookFailureIsWarning records the failure without failing the run.
func TestRun_StartupHookFailureIsWarning(t *testing.T) {
	t.Parallel()

	runner := &fakeRunner{
		errs: map[string]error{
			StageStartupHook: errors.New("spawn failed"),
		},
	}
	p := newTestPipeline(runner, &Options{AddonName: "my_tool", ZipPath: "my_tool.zip"}, nil)

	err := p.run(context.Background())
	require.NoError(t, err)

	var hook *StageResult

	for i := range p.results {
		if p.results[i].Stage == StageStartupHook {
			hook = &p.results[i]
		}
	}

	require.NotNil(t, hook)
	require.False(t, hook.OK)
}
