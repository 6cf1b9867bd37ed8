// Package blender integrates with the Blender host application from outside.
//
// Blender is treated as an opaque scripting target: the only interface is
// "submit an inline Python script in background mode, get back exit status
// and captured text". The package provides the executable locator, the
// headless script runner with timeout handling, best-effort process
// termination, detached launching, and the generated install/uninstall/
// startup-hook scripts themselves.
package blender
