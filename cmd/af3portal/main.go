// Command af3portal runs the AlphaFold 3 submission portal.
package main

import (
	"context"
	"os"

	"github.com/turtacn/af3-portal/internal/interfaces/cli"
)

// Build-time variables injected via ldflags.
var (
	version   = "dev"
	commit    = "unknown"
	buildDate = "unknown"
)

func main() {
	cli.Version = version
	cli.GitCommit = commit
	cli.BuildDate = buildDate

	if err := cli.Execute(context.Background()); err != nil {
		os.Exit(1)
	}
}
