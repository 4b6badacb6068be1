// Command mch-analysis inspects profiler dumps, tag documents and benchmark worlds.
package main

import (
	"os"

	"github.com/mch-analysis/cmd/cli/cmd"
)

func main() {
	os.Exit(cmd.Execute())
}
