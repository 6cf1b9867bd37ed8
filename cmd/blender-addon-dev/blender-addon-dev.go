package main

import (
	"github.com/oshokin/blender-addon-dev/cmd/blender-addon-dev/cmd"
)

func main() {
	cmd.Execute()
}
