package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonesrussell/sitelink-report/internal/bootstrap"
	"github.com/jonesrussell/sitelink-report/internal/database"
)

const defaultHistoryLimit = 20

var errHistoryDisabled = errors.New("run history is disabled (database.enabled is false)")

func newHistoryCommand(root *rootOptions) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent report runs",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, log, err := root.load()
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()

			if !cfg.Database.Enabled {
				return errHistoryDisabled
			}

			db, err := bootstrap.SetupDatabase(cmd.Context(), cfg)
			if err != nil {
				return fmt.Errorf("database: %w", err)
			}
			defer func() { _ = db.Close() }()

			runs, err := database.NewRunRepository(db.DB).ListRuns(cmd.Context(), limit)
			if err != nil {
				return fmt.Errorf("list runs: %w", err)
			}

			renderRuns(cmd.OutOrStdout(), runs)
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", defaultHistoryLimit, "number of runs to show")
	return cmd
}
