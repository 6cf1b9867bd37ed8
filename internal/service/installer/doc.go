// Package installer drives Blender to replace an installed add-on with a
// freshly packaged archive.
//
// The pipeline is a plain linear sequence with one fatal stage: process
// termination, uninstall and the startup hook are best-effort because the
// background-mode scripting environment is unreliable, while the install
// stage aborts the run on failure. Captured Blender output is echoed on
// every failure path.
package installer
