// Package addon locates Blender add-on sources and derives their module names.
//
// An add-on is a directory whose __init__.py declares a bl_info dictionary.
// The helpers here never execute Python; they rely on lightweight text
// matching, which is how Blender's own tooling inspects unloaded add-ons.
package addon
