package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	infralogger "github.com/jonesrussell/sitelink-report/infrastructure/logger"
	"github.com/jonesrussell/sitelink-report/internal/bootstrap"
	"github.com/jonesrussell/sitelink-report/internal/sheet"
)

func newRunCommand(root *rootOptions) *cobra.Command {
	var (
		dryRun   bool
		accounts []string
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the report once",
		Long: `Clear the destination sheet, then export every account's sitelink metrics
and notify the recipient per account. The command exits non-zero when any
account failed.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, log, err := root.load()
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()

			app, err := bootstrap.New(cmd.Context(), cfg, log, bootstrap.Options{
				DryRun:   dryRun,
				Accounts: accounts,
			})
			if err != nil {
				return fmt.Errorf("bootstrap: %w", err)
			}
			defer func() {
				if closeErr := app.Close(); closeErr != nil {
					log.Error("Failed to release resources", infralogger.Error(closeErr))
				}
			}()

			summary, runErr := app.RunOnce(cmd.Context())
			out := cmd.OutOrStdout()
			if summary != nil {
				renderSummary(out, summary)
			}
			if mem, ok := app.Table.(*sheet.MemoryTable); ok {
				renderRows(out, mem.Rows())
			}

			return runErr
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false,
		"write to an in-memory table and print it instead of the workbook")
	cmd.Flags().StringSliceVar(&accounts, "account", nil,
		"only process these account ids (repeatable, overrides report.accounts)")

	return cmd
}
