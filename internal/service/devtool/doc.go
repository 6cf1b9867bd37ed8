// Package devtool sequences the packaging and install workflows behind the
// blender-addon-dev CLI: resolve the add-on directory and name, build the
// archive, then optionally drive Blender to install it.
package devtool
