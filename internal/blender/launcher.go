package blender

import (
	"fmt"
	"os/exec"
	"runtime"
)

// Launch starts Blender as a new detached process and returns immediately.
// The spawned process is released, never waited on.
func Launch(executable string) error {
	var cmd *exec.Cmd

	if runtime.GOOS == "darwin" {
		// Launching the app bundle through `open` gives Blender a proper
		// GUI session instead of a terminal-attached process.
		cmd = exec.Command("open", "-a", "Blender")
	} else {
		cmd = exec.Command(executable)
	}

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start blender: %w", err)
	}

	return cmd.Process.Release()
}
