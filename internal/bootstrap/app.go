// Package bootstrap wires configuration, logging and collaborators into a runnable
// report service.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	infralogger "github.com/jonesrussell/sitelink-report/infrastructure/logger"
	infraredis "github.com/jonesrussell/sitelink-report/infrastructure/redis"
	"github.com/jonesrussell/sitelink-report/internal/ads"
	"github.com/jonesrussell/sitelink-report/internal/config"
	"github.com/jonesrussell/sitelink-report/internal/database"
	"github.com/jonesrussell/sitelink-report/internal/domain"
	"github.com/jonesrussell/sitelink-report/internal/metrics"
	"github.com/jonesrussell/sitelink-report/internal/notify"
	"github.com/jonesrussell/sitelink-report/internal/report"
	"github.com/jonesrussell/sitelink-report/internal/service"
	"github.com/jonesrussell/sitelink-report/internal/sheet"
)

// Options adjust a single invocation.
type Options struct {
	// DryRun writes to an in-memory table, only logs notifications and skips
	// history and metrics push.
	DryRun bool
	// Accounts overrides report.accounts when non-empty.
	Accounts []string
}

// App holds the wired report service and the resources it owns.
type App struct {
	Config  *config.Config
	Logger  infralogger.Logger
	Ads     *ads.Client
	Table   sheet.Table
	Service *service.ReportService
	History *database.RunRepository
	Metrics *metrics.Metrics

	pusher  *metrics.Pusher
	closers []func() error
}

// NewAdsClient creates the reporting client from config.
func NewAdsClient(cfg *config.Config, log infralogger.Logger) *ads.Client {
	return ads.NewClient(ads.Config{
		BaseURL:         cfg.Ads.BaseURL,
		APIVersion:      cfg.Ads.APIVersion,
		DeveloperToken:  cfg.Ads.DeveloperToken,
		AccessToken:     cfg.Ads.AccessToken,
		LoginCustomerID: cfg.Ads.ManagerCustomerID,
		Timeout:         cfg.Ads.Timeout,
	}, nil, log)
}

// MetricsQuery returns the configured query override, or the generated query for
// the configured date range.
func MetricsQuery(r *config.ReportConfig) (string, error) {
	if q := strings.TrimSpace(r.Query); q != "" {
		return q, nil
	}

	start, end, err := r.DateRange()
	if err != nil {
		return "", err
	}
	return report.MetricsQuery(start, end), nil
}

// New wires an App. Resources opened before a failure are released.
func New(ctx context.Context, cfg *config.Config, log infralogger.Logger, opts Options) (*App, error) {
	app := &App{Config: cfg, Logger: log, Ads: NewAdsClient(cfg, log)}

	wired := false
	defer func() {
		if !wired {
			_ = app.Close()
		}
	}()

	query, err := MetricsQuery(&cfg.Report)
	if err != nil {
		return nil, fmt.Errorf("metrics query: %w", err)
	}

	if tableErr := app.setupTable(opts.DryRun); tableErr != nil {
		return nil, fmt.Errorf("destination: %w", tableErr)
	}

	notifier, err := app.setupNotifier(ctx, opts.DryRun)
	if err != nil {
		return nil, fmt.Errorf("notifier: %w", err)
	}

	accounts := cfg.Report.Accounts
	if len(opts.Accounts) > 0 {
		accounts = opts.Accounts
	}

	app.Metrics = metrics.New()
	app.Service = service.NewReportService(
		app.Ads,
		sheet.NewExporter(app.Table, log),
		notifier,
		service.Options{
			MetricsQuery:    query,
			Recipient:       cfg.Notify.Recipient,
			ErrorsRecipient: cfg.Notify.ErrorsRecipient,
			Accounts:        slices.Clone(accounts),
		},
		log,
	).WithMetrics(app.Metrics)

	if !opts.DryRun {
		if historyErr := app.setupHistory(ctx); historyErr != nil {
			return nil, fmt.Errorf("database: %w", historyErr)
		}
		if cfg.Metrics.PushgatewayURL != "" {
			app.pusher = metrics.NewPusher(cfg.Metrics.PushgatewayURL, cfg.Metrics.Job)
		}
	}

	wired = true
	return app, nil
}

func (a *App) setupTable(dryRun bool) error {
	if dryRun {
		a.Table = sheet.NewMemoryTable(a.Config.Destination.Sheet)
		return nil
	}

	wb, err := sheet.OpenWorkbook(a.Config.Destination.Path, a.Config.Destination.Sheet)
	if err != nil {
		return err
	}
	a.Table = wb
	a.closers = append(a.closers, wb.Close)
	return nil
}

func (a *App) setupNotifier(ctx context.Context, dryRun bool) (notify.Notifier, error) {
	notifiers := notify.Multi{notify.NewLogNotifier(a.Logger)}
	if dryRun {
		return notifiers, nil
	}

	if email := a.Config.Notify.Email; email.Enabled {
		notifiers = append(notifiers, notify.NewEmailNotifier(notify.EmailConfig{
			Host:     email.Host,
			Port:     email.Port,
			Username: email.Username,
			Password: email.Password,
			From:     email.From,
		}))
	}

	if stream := a.Config.Notify.Stream; stream.Enabled {
		client, err := infraredis.NewClient(ctx, infraredis.Config{
			Address:  stream.RedisAddress,
			Password: stream.RedisPassword,
			DB:       stream.RedisDB,
		})
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, client.Close)
		notifiers = append(notifiers, notify.NewStreamNotifier(client, stream.Name, stream.MaxLen, a.Logger))
	}

	return notifiers, nil
}

func (a *App) setupHistory(ctx context.Context) error {
	if !a.Config.Database.Enabled {
		return nil
	}

	db, err := SetupDatabase(ctx, a.Config)
	if err != nil {
		return err
	}
	a.closers = append(a.closers, db.Close)
	a.History = database.NewRunRepository(db.DB)
	a.Service.WithHistory(a.History)
	a.Logger.Info("Run history enabled", infralogger.String("database", a.Config.Database.Database))
	return nil
}

// RunOnce executes one report run and pushes its metrics when a Pushgateway is configured.
func (a *App) RunOnce(ctx context.Context) (*domain.RunSummary, error) {
	summary, runErr := a.Service.Run(ctx)

	if a.pusher != nil && summary != nil {
		if pushErr := a.pusher.Push(context.WithoutCancel(ctx), a.Metrics); pushErr != nil {
			a.Logger.Warn("Failed to push metrics",
				infralogger.RunID(summary.RunID),
				infralogger.Error(pushErr),
			)
		}
	}

	return summary, runErr
}

// Close releases every resource opened by New, in reverse order.
func (a *App) Close() error {
	var errs []error
	for _, closeFn := range slices.Backward(a.closers) {
		if err := closeFn(); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
