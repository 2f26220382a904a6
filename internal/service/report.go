// Package service runs the per-account sitelink report.
package service

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	infralogger "github.com/jonesrussell/sitelink-report/infrastructure/logger"
	"github.com/jonesrussell/sitelink-report/internal/domain"
	"github.com/jonesrussell/sitelink-report/internal/notify"
	"github.com/jonesrussell/sitelink-report/internal/report"
	"github.com/jonesrussell/sitelink-report/internal/sheet"
)

var (
	// ErrAccountsFailed is returned by Run when at least one account failed.
	ErrAccountsFailed = errors.New("accounts failed")
	// ErrNoMatchingAccounts is returned by Run when an account filter is set but matches
	// none of the enumerated accounts. The destination is left untouched.
	ErrNoMatchingAccounts = errors.New("no enumerated account matches the account filter")
)

// Source enumerates accounts and executes report queries against them.
type Source interface {
	report.Querier
	ListAccounts(ctx context.Context) ([]domain.Account, error)
}

// RunRecorder persists run history.
type RunRecorder interface {
	StartRun(ctx context.Context, runID, destination string, startedAt time.Time) error
	RecordAccount(ctx context.Context, runID string, result domain.AccountResult) error
	FinishRun(ctx context.Context, summary *domain.RunSummary) error
}

// MetricsRecorder observes run outcomes.
type MetricsRecorder interface {
	ObserveAccount(result domain.AccountResult)
	ObserveNotificationFailure()
	ObserveRun(summary *domain.RunSummary)
}

// Options carries the per-run settings.
type Options struct {
	// MetricsQuery is the date-bounded metrics query sent to every account.
	MetricsQuery string
	// Recipient receives the per-account completion message.
	Recipient string
	// ErrorsRecipient, when set, receives one summary of failed accounts per run.
	ErrorsRecipient string
	// Accounts restricts the run to these account ids. Empty means all accounts.
	Accounts []string
}

// ReportService processes accounts one at a time: clear the destination once, then
// per account rebuild the reference indices, fetch and transform the metrics, append
// the batch and notify.
type ReportService struct {
	source   Source
	exporter *sheet.Exporter
	notifier notify.Notifier
	opts     Options
	logger   infralogger.Logger

	history RunRecorder
	metrics MetricsRecorder

	now      func() time.Time
	newRunID func() string
}

// NewReportService creates a report service.
func NewReportService(
	source Source,
	exporter *sheet.Exporter,
	notifier notify.Notifier,
	opts Options,
	logger infralogger.Logger,
) *ReportService {
	return &ReportService{
		source:   source,
		exporter: exporter,
		notifier: notifier,
		opts:     opts,
		logger:   logger,
		now:      time.Now,
		newRunID: uuid.NewString,
	}
}

// WithHistory enables run history persistence.
func (s *ReportService) WithHistory(history RunRecorder) *ReportService {
	s.history = history
	return s
}

// WithMetrics enables run metrics.
func (s *ReportService) WithMetrics(m MetricsRecorder) *ReportService {
	s.metrics = m
	return s
}

// Run executes one report run. A failing account is logged, recorded and skipped;
// the remaining accounts still run and Run returns the summary with an error wrapping
// ErrAccountsFailed. Failing to enumerate accounts, an account filter that matches
// nothing, or failing to clear the destination aborts the run before any account is
// processed.
func (s *ReportService) Run(ctx context.Context) (*domain.RunSummary, error) {
	runID := s.newRunID()
	log := s.logger.With(infralogger.RunID(runID))

	accounts, err := s.source.ListAccounts(ctx)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	enumerated := len(accounts)
	accounts = filterAccounts(accounts, s.opts.Accounts)
	if len(s.opts.Accounts) > 0 && len(accounts) == 0 {
		log.Error("Account filter matched nothing, destination not cleared",
			infralogger.Strings("filter", s.opts.Accounts),
			infralogger.Int("enumerated", enumerated),
		)
		return nil, fmt.Errorf("%w: %s", ErrNoMatchingAccounts, strings.Join(s.opts.Accounts, ", "))
	}

	if resetErr := s.exporter.Reset(ctx); resetErr != nil {
		return nil, fmt.Errorf("clear destination: %w", resetErr)
	}

	summary := &domain.RunSummary{
		RunID:       runID,
		Destination: s.exporter.Table().Locator(),
		StartedAt:   s.now().UTC(),
	}
	s.startHistory(ctx, log, summary)

	log.Info("Starting report run",
		infralogger.Int("accounts", len(accounts)),
		infralogger.String("destination", summary.Destination),
	)

	var ctxErr error
	for _, account := range accounts {
		if ctxErr = ctx.Err(); ctxErr != nil {
			log.Warn("Run cancelled", infralogger.Error(ctxErr))
			break
		}

		result := s.processAccount(ctx, log, runID, account)
		summary.Accounts = append(summary.Accounts, result)
		s.recordAccount(ctx, log, runID, result)
	}

	summary.FinishedAt = s.now().UTC()
	s.notifyFailures(ctx, log, summary)
	s.finishHistory(ctx, log, summary)
	if s.metrics != nil {
		s.metrics.ObserveRun(summary)
	}

	failed := len(summary.Failed())
	log.Info("Report run finished",
		infralogger.String("status", string(summary.Status())),
		infralogger.Int("succeeded", summary.Succeeded()),
		infralogger.Int("failed", failed),
		infralogger.Int("rows", summary.TotalRows()),
		infralogger.Duration("duration", summary.FinishedAt.Sub(summary.StartedAt)),
	)

	if ctxErr != nil {
		return summary, fmt.Errorf("run interrupted: %w", ctxErr)
	}
	if failed > 0 {
		return summary, fmt.Errorf("%d of %d: %w", failed, len(summary.Accounts), ErrAccountsFailed)
	}
	return summary, nil
}

func (s *ReportService) processAccount(
	ctx context.Context,
	log infralogger.Logger,
	runID string,
	account domain.Account,
) domain.AccountResult {
	start := s.now()
	result := domain.AccountResult{Account: account}
	alog := log.With(infralogger.Account(account.ID, account.Name))

	fail := func(err error) domain.AccountResult {
		result.Status = domain.AccountFailed
		result.Err = err
		result.Duration = s.now().Sub(start)
		alog.Error("Account failed", infralogger.Error(err))
		return result
	}

	batch, err := s.buildBatch(ctx, account.ID)
	if err != nil {
		return fail(err)
	}

	exported, err := s.exporter.Export(ctx, sheet.Records(batch))
	if err != nil {
		return fail(fmt.Errorf("export batch: %w", err))
	}
	result.Status = domain.AccountExported
	result.Rows = exported.Rows
	result.HeaderWritten = exported.HeaderWritten

	if notifyErr := s.notifyAccount(ctx, runID, account, exported.Rows); notifyErr != nil {
		alog.Warn("Notification failed", infralogger.Error(notifyErr))
		if s.metrics != nil {
			s.metrics.ObserveNotificationFailure()
		}
	} else {
		result.Notified = true
	}

	result.Duration = s.now().Sub(start)
	alog.Info("Account exported",
		infralogger.Int("rows", result.Rows),
		infralogger.Bool("header_written", result.HeaderWritten),
		infralogger.Duration("duration", result.Duration),
	)
	return result
}

// buildBatch loads fresh indices for the account and transforms every metrics row.
// Nothing is returned unless every row joined.
func (s *ReportService) buildBatch(ctx context.Context, accountID string) ([]domain.OutputRecord, error) {
	assets, err := report.LoadAssetIndex(ctx, s.source, accountID)
	if err != nil {
		return nil, fmt.Errorf("load asset index: %w", err)
	}

	campaigns, err := report.LoadCampaignIndex(ctx, s.source, accountID)
	if err != nil {
		return nil, fmt.Errorf("load campaign index: %w", err)
	}

	rows, err := report.FetchMetrics(ctx, s.source, accountID, s.opts.MetricsQuery)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	batch, err := report.TransformAll(rows, assets, campaigns)
	if err != nil {
		return nil, fmt.Errorf("transform metrics: %w", err)
	}
	return batch, nil
}

func (s *ReportService) notifyAccount(ctx context.Context, runID string, account domain.Account, rows int) error {
	msg, err := notify.NewReportMessage(runID, s.opts.Recipient, account, s.exporter.Table().Locator(), rows)
	if err != nil {
		return err
	}
	return s.notifier.Notify(ctx, msg)
}

func (s *ReportService) notifyFailures(ctx context.Context, log infralogger.Logger, summary *domain.RunSummary) {
	failed := summary.Failed()
	if len(failed) == 0 || s.opts.ErrorsRecipient == "" {
		return
	}

	failures := make([]notify.Failure, len(failed))
	for i, r := range failed {
		failures[i] = notify.Failure{Account: r.Account, Err: r.ErrorText()}
	}

	msg, err := notify.NewFailureSummaryMessage(summary.RunID, s.opts.ErrorsRecipient, summary.Destination, failures)
	if err == nil {
		err = s.notifier.Notify(ctx, msg)
	}
	if err != nil {
		log.Warn("Failure summary not delivered", infralogger.Error(err))
		if s.metrics != nil {
			s.metrics.ObserveNotificationFailure()
		}
	}
}

func (s *ReportService) startHistory(ctx context.Context, log infralogger.Logger, summary *domain.RunSummary) {
	if s.history == nil {
		return
	}
	if err := s.history.StartRun(ctx, summary.RunID, summary.Destination, summary.StartedAt); err != nil {
		log.Warn("Failed to record run start", infralogger.Error(err))
	}
}

func (s *ReportService) recordAccount(ctx context.Context, log infralogger.Logger, runID string, result domain.AccountResult) {
	if s.metrics != nil {
		s.metrics.ObserveAccount(result)
	}
	if s.history == nil {
		return
	}
	if err := s.history.RecordAccount(ctx, runID, result); err != nil {
		log.Warn("Failed to record account result",
			infralogger.String("account_id", result.Account.ID),
			infralogger.Error(err),
		)
	}
}

func (s *ReportService) finishHistory(ctx context.Context, log infralogger.Logger, summary *domain.RunSummary) {
	if s.history == nil {
		return
	}
	// Saved even when the run context is cancelled.
	if err := s.history.FinishRun(context.WithoutCancel(ctx), summary); err != nil {
		log.Warn("Failed to record run finish", infralogger.Error(err))
	}
}

// filterAccounts keeps accounts whose id is in include, preserving enumeration order.
func filterAccounts(accounts []domain.Account, include []string) []domain.Account {
	if len(include) == 0 {
		return accounts
	}

	wanted := make([]string, 0, len(include))
	for _, id := range include {
		wanted = append(wanted, normalizeID(id))
	}

	var out []domain.Account
	for _, a := range accounts {
		if slices.Contains(wanted, normalizeID(a.ID)) {
			out = append(out, a)
		}
	}
	return out
}

func normalizeID(id string) string {
	return strings.ReplaceAll(strings.TrimSpace(id), "-", "")
}
