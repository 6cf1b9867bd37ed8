// Package config defines optional tool settings and provides helpers to
// load and validate them in YAML format.
//
// The Config type holds the Blender executable override and the timeouts
// applied to headless Blender calls. All fields default sensibly, so the
// tool runs without any settings file present.
package config
