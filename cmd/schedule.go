package cmd

import (
	"context"
	"fmt"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"

	infralogger "github.com/jonesrussell/sitelink-report/infrastructure/logger"
	"github.com/jonesrussell/sitelink-report/internal/bootstrap"
)

func newScheduleCommand(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "schedule",
		Short: "Run the report on the configured cron schedule",
		Long: `Run the report on schedule.cron (standard five-field syntax) until interrupted.
A run still in progress when the next tick fires causes that tick to be skipped.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, log, err := root.load()
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()

			app, err := bootstrap.New(cmd.Context(), cfg, log, bootstrap.Options{})
			if err != nil {
				return fmt.Errorf("bootstrap: %w", err)
			}
			defer func() { _ = app.Close() }()

			return runSchedule(cmd.Context(), cfg.Schedule.Cron, cfg.Schedule.RunOnStart, log, func(ctx context.Context) error {
				_, runErr := app.RunOnce(ctx)
				return runErr
			})
		},
	}
}

// runSchedule invokes job on the cron expression until ctx is done, then waits for a running job.
func runSchedule(
	ctx context.Context,
	expr string,
	runOnStart bool,
	log infralogger.Logger,
	job func(context.Context) error,
) error {
	cronLog := cronLogger{log: log}
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
	c := cron.New(
		cron.WithParser(parser),
		cron.WithChain(cron.Recover(cronLog), cron.SkipIfStillRunning(cronLog)),
	)

	runJob := func() {
		if err := job(ctx); err != nil {
			log.Error("Scheduled run failed", infralogger.Error(err))
		}
	}

	entryID, err := c.AddFunc(expr, runJob)
	if err != nil {
		return fmt.Errorf("schedule %q: %w", expr, err)
	}

	if runOnStart {
		c.Entry(entryID).WrappedJob.Run()
	}

	c.Start()
	log.Info("Scheduler started",
		infralogger.String("schedule", expr),
		infralogger.String("next_run", c.Entry(entryID).Next.String()),
	)

	<-ctx.Done()
	log.Info("Scheduler stopping")
	<-c.Stop().Done()
	return nil
}

// cronLogger adapts the structured logger to cron.Logger.
type cronLogger struct {
	log infralogger.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.log.Debug("cron: "+msg, kvFields(keysAndValues)...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.log.Error("cron: "+msg, append(kvFields(keysAndValues), infralogger.Error(err))...)
}

func kvFields(keysAndValues []any) []infralogger.Field {
	fields := make([]infralogger.Field, 0, len(keysAndValues)/2)
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		fields = append(fields, infralogger.String(fmt.Sprint(keysAndValues[i]), fmt.Sprint(keysAndValues[i+1])))
	}
	return fields
}
