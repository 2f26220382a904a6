// Package cmd implements the sitelink-report command-line interface.
package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	infralogger "github.com/jonesrussell/sitelink-report/infrastructure/logger"
	"github.com/jonesrussell/sitelink-report/internal/bootstrap"
	"github.com/jonesrussell/sitelink-report/internal/config"
)

// rootOptions holds the persistent flags shared by every subcommand.
type rootOptions struct {
	configPath string
	debug      bool
}

// NewRootCommand builds the command tree.
func NewRootCommand() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:   "sitelink-report",
		Short: "Export sitelink asset performance to a spreadsheet",
		Long: `sitelink-report reads sitelink asset metrics for every account under a
manager account, joins them with the asset and campaign names, appends the rows
to a workbook sheet and notifies a recipient per account.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}

	root.PersistentFlags().StringVar(&opts.configPath, "config", "",
		"config file (default is $CONFIG_PATH or ./config.yml)")
	root.PersistentFlags().BoolVar(&opts.debug, "debug", false, "enable debug logging")

	root.AddCommand(
		newRunCommand(opts),
		newAccountsCommand(opts),
		newHistoryCommand(opts),
		newScheduleCommand(opts),
		newVersionCommand(),
	)

	return root
}

// Execute runs the command tree with ctx.
func Execute(ctx context.Context) error {
	return NewRootCommand().ExecuteContext(ctx)
}

// load reads the configuration and builds the logger.
func (o *rootOptions) load() (*config.Config, infralogger.Logger, error) {
	cfg, cfgErr := bootstrap.LoadConfig(o.configPath)
	if cfgErr != nil {
		return nil, nil, fmt.Errorf("config: %w", cfgErr)
	}
	if o.debug {
		cfg.Debug = true
		cfg.Logging.Level = "debug"
	}

	log, logErr := bootstrap.CreateLogger(cfg)
	if logErr != nil {
		return nil, nil, fmt.Errorf("logger: %w", logErr)
	}

	return cfg, log, nil
}
