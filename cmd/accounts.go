package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonesrussell/sitelink-report/internal/bootstrap"
)

func newAccountsCommand(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "accounts",
		Short: "List the accounts a run would process",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, log, err := root.load()
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()

			accounts, err := bootstrap.NewAdsClient(cfg, log).ListAccounts(cmd.Context())
			if err != nil {
				return fmt.Errorf("list accounts: %w", err)
			}

			renderAccounts(cmd.OutOrStdout(), accounts)
			return nil
		},
	}
}
