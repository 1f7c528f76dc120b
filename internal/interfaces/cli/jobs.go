package cli

import (
	"github.com/spf13/cobra"

	appJob "github.com/turtacn/af3-portal/internal/application/job"
	domainJob "github.com/turtacn/af3-portal/internal/domain/job"
	"github.com/turtacn/af3-portal/internal/infrastructure/storage/jobfs"
)

func newJobsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "jobs",
		Short: "Inspect the jobs directory",
	}
	cmd.AddCommand(newJobsListCmd())
	return cmd
}

func newJobsListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List completed jobs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx, err := GetCLIContext(cmd)
			if err != nil {
				return err
			}
			logger := cliCtx.Logger.Named("jobs")
			svc := appJob.NewService(appJob.Deps{
				Workspace: jobfs.NewWorkspace(cliCtx.Config.Jobs.BaseDir, logger),
				Logger:    logger,
			})
			entries, err := svc.History(cmd.Context())
			if err != nil {
				return err
			}
			return PrintResult(cmd, historyTable(entries))
		},
	}
}

// historyTable prints as a table for -o table and as the entry list for -o json.
type historyTable []domainJob.Entry

func (h historyTable) TableHeaders() []string {
	return []string{"NAME", "TIMESTAMP", "SUBMITTED", "ARCHIVE"}
}

func (h historyTable) TableRows() [][]string {
	rows := make([][]string, 0, len(h))
	for _, e := range h {
		rows = append(rows, []string{e.Name, e.Stamp, e.Display, e.Archive})
	}
	return rows
}
