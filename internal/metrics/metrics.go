// Package metrics records report run metrics and pushes them to a Prometheus Pushgateway.
package metrics

import (
	"context"
	"errors"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/push"

	"github.com/jonesrussell/sitelink-report/internal/domain"
)

const namespace = "sitelink_report"

// Metrics holds the run metrics on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	AccountsProcessed    *prometheus.CounterVec
	RowsExported         prometheus.Counter
	LookupMisses         *prometheus.CounterVec
	NotificationFailures prometheus.Counter
	AccountDuration      prometheus.Histogram

	LastRunTimestamp prometheus.Gauge
	LastRunSuccess   prometheus.Gauge
	LastRunFailed    prometheus.Gauge
}

// New registers all metrics on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		AccountsProcessed: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "accounts_processed_total",
			Help:      "Accounts processed, by outcome",
		}, []string{"status"}),
		RowsExported: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rows_exported_total",
			Help:      "Data rows appended to the destination table",
		}),
		LookupMisses: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "lookup_misses_total",
			Help:      "Accounts aborted by a metrics row missing from a reference index",
		}, []string{"kind"}),
		NotificationFailures: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notification_failures_total",
			Help:      "Notifications that could not be delivered",
		}),
		AccountDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "account_duration_seconds",
			Help:      "Time to load, transform, export and notify one account",
			Buckets:   []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
		}),
		LastRunTimestamp: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_run_timestamp_seconds",
			Help:      "Unix time the last run finished",
		}),
		LastRunSuccess: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_run_success",
			Help:      "1 if the last run had no failed accounts",
		}),
		LastRunFailed: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_run_failed_accounts",
			Help:      "Failed accounts in the last run",
		}),
	}
}

// Registry exposes the registry, e.g. for tests.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// ObserveAccount records one account result.
func (m *Metrics) ObserveAccount(result domain.AccountResult) {
	m.AccountsProcessed.WithLabelValues(string(result.Status)).Inc()
	m.AccountDuration.Observe(result.Duration.Seconds())
	m.RowsExported.Add(float64(result.Rows))

	var missErr *domain.LookupMissError
	if errors.As(result.Err, &missErr) {
		m.LookupMisses.WithLabelValues(missErr.Kind).Inc()
	}
}

// ObserveNotificationFailure counts an undelivered notification.
func (m *Metrics) ObserveNotificationFailure() {
	m.NotificationFailures.Inc()
}

// ObserveRun records the end of a run.
func (m *Metrics) ObserveRun(summary *domain.RunSummary) {
	failed := len(summary.Failed())
	m.LastRunTimestamp.Set(float64(summary.FinishedAt.Unix()))
	m.LastRunFailed.Set(float64(failed))
	if failed == 0 {
		m.LastRunSuccess.Set(1)
	} else {
		m.LastRunSuccess.Set(0)
	}
}

// Pusher sends the registry to a Pushgateway.
type Pusher struct {
	url string
	job string
}

// NewPusher creates a pusher for the gateway at url under job.
func NewPusher(url, job string) *Pusher {
	return &Pusher{url: url, job: job}
}

// Push replaces the job's metrics on the gateway. Every run writes the same group.
func (p *Pusher) Push(ctx context.Context, m *Metrics) error {
	pusher := push.New(p.url, p.job).
		Gatherer(m.registry).
		Grouping("instance", "sitelink-report")

	if err := pusher.PushContext(ctx); err != nil {
		return fmt.Errorf("push metrics to %s: %w", p.url, err)
	}
	return nil
}
