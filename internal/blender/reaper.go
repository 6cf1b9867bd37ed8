package blender

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"runtime"
	"strings"
	"syscall"
	"time"

	"github.com/mitchellh/go-ps"

	"github.com/oshokin/blender-addon-dev/internal/logger"
)

// Reaper terminates running Blender instances before install stages run.
// Termination is strictly best-effort: the caller must never fail because
// Blender was not running or a process could not be signaled.
type Reaper struct {
	// settleDelay is how long to wait after issuing terminations so the
	// processes release their locks on Blender's configuration directories.
	settleDelay time.Duration
}

// NewReaper returns a Reaper with the provided settle delay.
func NewReaper(settleDelay time.Duration) *Reaper {
	return &Reaper{settleDelay: settleDelay}
}

// KillAll terminates every running Blender instance it can find and returns
// the number of processes signaled. The count is informational only; errors
// are logged and swallowed.
func (r *Reaper) KillAll(ctx context.Context) int {
	var killed int

	if runtime.GOOS == "windows" {
		killed = r.killByImageName(ctx)
	} else {
		killed = r.killByEnumeration(ctx)
	}

	// The taskkill path gives no usable count, so always settle on windows.
	if killed > 0 || runtime.GOOS == "windows" {
		logger.DebugKV(ctx, "Waiting for Blender processes to exit", "delay", r.settleDelay)
		time.Sleep(r.settleDelay)
	} else {
		logger.Info(ctx, "No running Blender processes found")
	}

	return killed
}

// killByEnumeration lists processes, signals matching ones by pid, then
// issues a broad pattern kill as a fallback sweep.
func (r *Reaper) killByEnumeration(ctx context.Context) int {
	processList, err := ps.Processes()
	if err != nil {
		logger.Warnf(ctx, "Could not list processes: %v", err)
		return 0
	}

	thisProcessID := os.Getpid()
	killed := 0

	for _, process := range processList {
		if process.Pid() == thisProcessID {
			continue
		}

		if !isBlenderProcess(process.Executable()) {
			continue
		}

		runningProcess, err := os.FindProcess(process.Pid())
		if err != nil {
			continue
		}

		if err = runningProcess.Signal(syscall.SIGTERM); err != nil {
			if !errors.Is(err, os.ErrProcessDone) {
				logger.Warnf(ctx, "Could not terminate process %d: %v", process.Pid(), err)
			}

			continue
		}

		logger.InfoKV(ctx, "Terminated Blender process", "pid", process.Pid())

		killed++
	}

	// Fallback sweep for processes the enumeration missed (renamed bundles,
	// wrapper scripts). Failure here is expected when nothing matched.
	//nolint:errcheck // Best-effort sweep.
	_ = exec.CommandContext(ctx, "pkill", "-f", killPattern()).Run()

	return killed
}

// killByImageName issues a single forceful terminate-by-image-name command.
func (r *Reaper) killByImageName(ctx context.Context) int {
	//nolint:errcheck // taskkill exits non-zero when no process matched.
	_ = exec.CommandContext(ctx, "taskkill", "/F", "/IM", "blender.exe").Run()

	return 0
}

// isBlenderProcess matches process executable names against the host binary.
func isBlenderProcess(executable string) bool {
	return strings.Contains(strings.ToLower(executable), "blender")
}

// killPattern is the pattern handed to the fallback sweep.
func killPattern() string {
	if runtime.GOOS == "darwin" {
		return "Blender"
	}

	return "blender"
}
