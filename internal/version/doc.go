// Package version exposes build metadata injected at link time and a
// reusable cobra `version` subcommand.
package version
