package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return PrintResult(cmd, BuildInfo{Version: Version, Commit: GitCommit, BuildDate: BuildDate})
		},
	}
}

func (b BuildInfo) String() string {
	return fmt.Sprintf("af3portal %s (commit: %s, built: %s)", b.Version, b.Commit, b.BuildDate)
}
