package blender

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"strings"
	"text/template"
)

// The generated scripts keep all Blender-side error handling self-contained:
// the orchestrator can only observe exit status and captured text, never
// host-internal exceptions. Parameters are substituted as escaped Python
// string literals so add-on names and paths cannot break the script syntax.

// pyString renders s as a double-quoted Python string literal.
func pyString(s string) string {
	replacer := strings.NewReplacer(`\`, `\\`, `"`, `\"`)
	return `"` + replacer.Replace(s) + `"`
}

//nolint:gochecknoglobals // Parsed once, read-only afterwards.
var scriptFuncs = template.FuncMap{"py": pyString}

//nolint:gochecknoglobals // Parsed once, read-only afterwards.
var uninstallTemplate = template.Must(template.New("uninstall").Funcs(scriptFuncs).Parse(`
import bpy
import os
import shutil

addon_name = {{py .AddonName}}
print("Uninstalling add-on:", addon_name)

try:
    enabled = [a.module for a in bpy.context.preferences.addons]
    if addon_name in enabled:
        bpy.ops.preferences.addon_disable(module=addon_name)
        print("  disabled")
except Exception as e:
    print("  warning while disabling:", e)

try:
    import addon_utils
    available = [m.__name__ for m in addon_utils.modules()]
    if addon_name in available:
        try:
            bpy.ops.preferences.addon_remove(module=addon_name)
            print("  removed via operator")
        except (AttributeError, RuntimeError):
            # The operator needs a UI area, which background mode lacks.
            print("  operator removal failed, removing from filesystem")
            try:
                addons_dir = bpy.utils.user_resource('SCRIPTS', path="addons")
                addon_path = os.path.join(addons_dir, addon_name)
                if os.path.exists(addon_path):
                    shutil.rmtree(addon_path)
                    print("  removed from filesystem")
                else:
                    print("  add-on not found on disk")
            except Exception as e:
                print("  filesystem removal failed:", e)
        except Exception as e:
            print("  unexpected error during removal:", e)
    else:
        print("  add-on not installed")
except Exception as e:
    print("  could not inspect installed add-ons:", e)

try:
    bpy.ops.wm.save_userpref()
    print("  preferences saved")
except Exception:
    pass

print("uninstall complete")
`))

//nolint:gochecknoglobals // Parsed once, read-only afterwards.
var installTemplate = template.Must(template.New("install").Funcs(scriptFuncs).Parse(`
import bpy
import os
import sys

zip_path = {{py .ZipPath}}
addon_name = {{py .AddonName}}

if not os.path.exists(zip_path):
    print("archive not found:", zip_path)
    sys.exit(1)

print("Installing add-on from:", zip_path)

try:
    bpy.ops.preferences.addon_install(filepath=zip_path)
    print("  installed")
except Exception as e:
    print("  install failed:", e)
    import traceback
    traceback.print_exc()
    sys.exit(1)

try:
    import addon_utils
    addon_utils.enable(addon_name, default_set=True, persistent=True)
    print("  enabled (persistent)")
except Exception as e:
    print("  warning: enable failed:", e)

try:
    bpy.ops.wm.save_userpref()
    print("  preferences saved")
except Exception as e:
    print("  warning: could not save preferences:", e)

try:
    enabled = [a.module for a in bpy.context.preferences.addons]
    if addon_name in enabled:
        print("add-on installed and enabled")
    else:
        print("add-on installed but not reported enabled (normal in background mode)")
except Exception as e:
    print("could not verify enable status:", e)
`))

// startupHookTemplate is the body of the file persisted into Blender's
// startup directory. It re-enables the add-on on every future launch and
// stays silent when the add-on is absent.
//
//nolint:gochecknoglobals // Parsed once, read-only afterwards.
var startupHookTemplate = template.Must(template.New("hook").Funcs(scriptFuncs).Parse(`import bpy
import addon_utils


def _auto_enable():
    addon_name = {{py .AddonName}}
    try:
        enabled = [a.module for a in bpy.context.preferences.addons]
        if addon_name in enabled:
            return
        available = [m.__name__ for m in addon_utils.modules()]
        if addon_name in available:
            addon_utils.enable(addon_name, default_set=True, persistent=True)
            try:
                bpy.ops.wm.save_userpref()
            except Exception:
                pass
    except Exception:
        pass


def _on_load_post(_):
    _auto_enable()


if hasattr(bpy.app.handlers, "load_post"):
    bpy.app.handlers.load_post.append(_on_load_post)

_auto_enable()
`))

// startupHookInstallTemplate writes the hook file from inside Blender so the
// user script directory is resolved by Blender itself. The hook body travels
// base64-encoded to avoid nesting Python string syntax.
//
//nolint:gochecknoglobals // Parsed once, read-only afterwards.
var startupHookInstallTemplate = template.Must(template.New("hook_install").Funcs(scriptFuncs).Parse(`
import base64
import os

import bpy

contents = base64.b64decode({{py .EncodedHook}}).decode("utf-8")

try:
    scripts_dir = bpy.utils.user_resource('SCRIPTS')
    startup_dir = os.path.join(scripts_dir, "startup")
    os.makedirs(startup_dir, exist_ok=True)
    hook_path = os.path.join(startup_dir, {{py .HookFilename}})
    with open(hook_path, "w") as f:
        f.write(contents)
    print("startup hook installed:", hook_path)
except Exception as e:
    print("warning: could not install startup hook:", e)
`))

// render executes a script template against data.
func render(t *template.Template, data any) (string, error) {
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render %s script: %w", t.Name(), err)
	}

	return buf.String(), nil
}

// UninstallScript builds the inline script that disables and removes a
// previously installed version of the add-on.
func UninstallScript(addonName string) (string, error) {
	return render(uninstallTemplate, struct{ AddonName string }{addonName})
}

// InstallScript builds the inline script that installs the archive, enables
// the add-on persistently and saves preferences.
func InstallScript(zipPath, addonName string) (string, error) {
	return render(installTemplate, struct{ ZipPath, AddonName string }{zipPath, addonName})
}

// StartupHookScript builds the auto-enable hook file body for the add-on.
func StartupHookScript(addonName string) (string, error) {
	return render(startupHookTemplate, struct{ AddonName string }{addonName})
}

// StartupHookFilename returns the deterministic hook filename for the add-on.
func StartupHookFilename(addonName string) string {
	return addonName + "_auto_enable.py"
}

// StartupHookInstallScript builds the inline script that persists the
// auto-enable hook into Blender's startup directory.
func StartupHookInstallScript(addonName string) (string, error) {
	hook, err := StartupHookScript(addonName)
	if err != nil {
		return "", err
	}

	data := struct {
		EncodedHook  string
		HookFilename string
	}{
		EncodedHook:  base64.StdEncoding.EncodeToString([]byte(hook)),
		HookFilename: StartupHookFilename(addonName),
	}

	return render(startupHookInstallTemplate, data)
}
