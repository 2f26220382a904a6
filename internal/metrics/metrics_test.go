package metrics_test

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonesrussell/sitelink-report/internal/domain"
	"github.com/jonesrussell/sitelink-report/internal/metrics"
)

func TestMetrics_ObserveAccount(t *testing.T) {
	t.Parallel()

	m := metrics.New()

	m.ObserveAccount(domain.AccountResult{Status: domain.AccountExported, Rows: 4, Duration: time.Second})
	m.ObserveAccount(domain.AccountResult{
		Status: domain.AccountFailed,
		Err:    &domain.LookupMissError{Kind: domain.LookupCampaign, Key: "c"},
	})
	m.ObserveAccount(domain.AccountResult{Status: domain.AccountFailed, Err: errors.New("denied")})

	assert.InDelta(t, 1, testutil.ToFloat64(m.AccountsProcessed.WithLabelValues("exported")), 0)
	assert.InDelta(t, 2, testutil.ToFloat64(m.AccountsProcessed.WithLabelValues("failed")), 0)
	assert.InDelta(t, 4, testutil.ToFloat64(m.RowsExported), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.LookupMisses.WithLabelValues("campaign")), 0)
}

func TestMetrics_ObserveRun(t *testing.T) {
	t.Parallel()

	m := metrics.New()
	finished := time.Unix(1_760_000_000, 0)

	m.ObserveRun(&domain.RunSummary{
		FinishedAt: finished,
		Accounts:   []domain.AccountResult{{Status: domain.AccountFailed}},
	})
	assert.InDelta(t, 0, testutil.ToFloat64(m.LastRunSuccess), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.LastRunFailed), 0)
	assert.InDelta(t, float64(finished.Unix()), testutil.ToFloat64(m.LastRunTimestamp), 0)

	m.ObserveRun(&domain.RunSummary{FinishedAt: finished})
	assert.InDelta(t, 1, testutil.ToFloat64(m.LastRunSuccess), 0)
}

func TestMetrics_RegistryIsolated(t *testing.T) {
	t.Parallel()

	first := metrics.New()
	second := metrics.New()
	first.ObserveNotificationFailure()

	assert.InDelta(t, 1, testutil.ToFloat64(first.NotificationFailures), 0)
	assert.InDelta(t, 0, testutil.ToFloat64(second.NotificationFailures), 0)
}

func TestPusher_Push(t *testing.T) {
	t.Parallel()

	var (
		mu    sync.Mutex
		paths []string
		body  string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		mu.Lock()
		paths = append(paths, r.URL.Path)
		body = string(raw)
		mu.Unlock()
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	m := metrics.New()
	m.ObserveAccount(domain.AccountResult{Status: domain.AccountExported, Rows: 2})

	pusher := metrics.NewPusher(srv.URL, "sitelink_report")
	require.NoError(t, pusher.Push(t.Context(), m))
	require.NoError(t, pusher.Push(t.Context(), m))

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, paths, 2)
	assert.Equal(t, "/metrics/job/sitelink_report/instance/sitelink-report", paths[0])
	assert.Equal(t, paths[0], paths[1], "repeated runs replace one group")
	assert.NotContains(t, paths[0], "run_id")
	assert.NotEmpty(t, body)
}

func TestPusher_PushFailure(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	err := metrics.NewPusher(srv.URL, "sitelink_report").Push(t.Context(), metrics.New())
	assert.Error(t, err)
}
