// Package packager builds the distributable zip archive for an add-on.
//
// It prunes cache and version-control directories, skips compiled and OS
// artifact files, and writes member paths relative to the add-on directory's
// parent so Blender's installer unpacks a correctly-named top-level folder.
package packager
