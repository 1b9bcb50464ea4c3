// Command cmk2nob evaluates a parsed CMake script tree into a build-model
// event stream.
package main

import (
	"os"

	"github.com/Qfresquin/cmk2nob/internal/cli"
)

// version is set via -ldflags "-X main.version=..." at release build time.
var version = "dev"

func main() {
	if err := cli.Execute(version); err != nil {
		os.Exit(1)
	}
}
