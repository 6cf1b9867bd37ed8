package blender

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"time"
)

// ErrScriptTimeout is returned when a headless Blender call exceeds its bound.
// It is distinct from a clean non-zero exit so callers can present the two
// differently.
var ErrScriptTimeout = errors.New("blender script execution timed out")

// ScriptResult is the outcome of one headless Blender invocation.
type ScriptResult struct {
	// OK reports whether Blender exited with status zero. Background-mode
	// scripting legitimately exits non-zero on warnings in some Blender
	// versions, so callers apply stage-specific policy instead of treating
	// OK=false as a hard failure.
	OK bool
	// Stdout is the captured standard output.
	Stdout string
	// Stderr is the captured standard error.
	Stderr string
}

// CombinedOutput returns stdout followed by stderr for logging.
func (r *ScriptResult) CombinedOutput() string {
	if r == nil {
		return ""
	}

	if r.Stderr == "" {
		return r.Stdout
	}

	return r.Stdout + "\n" + r.Stderr
}

// ScriptRunner executes an inline Python script inside a headless Blender.
type ScriptRunner interface {
	RunScript(ctx context.Context, script string, timeout time.Duration) (*ScriptResult, error)
}

// Runner drives a concrete Blender executable in background mode.
type Runner struct {
	// Executable is the absolute path of the Blender binary.
	Executable string
}

// NewRunner returns a Runner for the provided executable path.
func NewRunner(executable string) *Runner {
	return &Runner{Executable: executable}
}

// RunScript runs Blender headless with the supplied inline script, capturing
// both output streams. A non-zero exit yields OK=false without an error;
// exceeding the timeout yields ErrScriptTimeout.
func (r *Runner) RunScript(ctx context.Context, script string, timeout time.Duration) (*ScriptResult, error) {
	cmdCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(cmdCtx, r.Executable, "--background", "--python-expr", script)

	var stdout, stderr bytes.Buffer

	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	result := &ScriptResult{
		OK:     err == nil,
		Stdout: stdout.String(),
		Stderr: stderr.String(),
	}

	if err == nil {
		return result, nil
	}

	if errors.Is(cmdCtx.Err(), context.DeadlineExceeded) {
		return result, fmt.Errorf("%w after %s", ErrScriptTimeout, timeout)
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		// Exit-status interpretation is a stage policy decision.
		return result, nil
	}

	return result, fmt.Errorf("run blender: %w", err)
}
