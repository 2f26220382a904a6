//nolint:testpackage // Testing unexported renderers and scheduler requires same package access
package cmd

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	infralogger "github.com/jonesrussell/sitelink-report/infrastructure/logger"
	"github.com/jonesrussell/sitelink-report/internal/domain"
)

func TestVersionCommand(t *testing.T) {
	var out bytes.Buffer
	root := NewRootCommand()
	root.SetOut(&out)
	root.SetArgs([]string{"version"})

	require.NoError(t, root.Execute())
	assert.Equal(t, "sitelink-report version dev\n", out.String())
}

func TestRootCommand_RegistersSubcommands(t *testing.T) {
	root := NewRootCommand()

	for _, name := range []string{"run", "accounts", "history", "schedule", "version"} {
		sub, _, err := root.Find([]string{name})
		require.NoError(t, err, name)
		assert.Equal(t, name, sub.Name())
	}

	run, _, _ := root.Find([]string{"run"})
	assert.NotNil(t, run.Flags().Lookup("dry-run"))
	assert.NotNil(t, run.Flags().Lookup("account"))
}

func TestRenderSummary(t *testing.T) {
	started := time.Date(2026, 10, 18, 6, 0, 0, 0, time.UTC)
	summary := &domain.RunSummary{
		RunID:       "run-1",
		Destination: "memory://ReportV1",
		StartedAt:   started,
		FinishedAt:  started.Add(2 * time.Second),
		Accounts: []domain.AccountResult{
			{Account: domain.Account{ID: "100", Name: "Alpha"}, Status: domain.AccountExported, Rows: 3, HeaderWritten: true, Notified: true},
			{Account: domain.Account{ID: "200", Name: "Beta"}, Status: domain.AccountFailed, Err: errors.New("permission denied")},
		},
	}

	var out bytes.Buffer
	renderSummary(&out, summary)

	rendered := out.String()
	assert.Contains(t, rendered, "run-1")
	assert.Contains(t, rendered, "Alpha")
	assert.Contains(t, rendered, "permission denied")
	assert.Contains(t, strings.ToLower(rendered), "partial")
}

func TestRenderRows(t *testing.T) {
	var out bytes.Buffer
	renderRows(&out, nil)
	assert.Equal(t, "Destination table is empty\n", out.String())

	out.Reset()
	renderRows(&out, [][]any{{"Account ID", "Clicks"}, {"100", int64(3)}})
	assert.Contains(t, out.String(), "100")
	assert.Contains(t, strings.ToUpper(out.String()), "ACCOUNT ID")
}

func TestRenderRuns(t *testing.T) {
	finished := time.Date(2026, 10, 18, 6, 5, 0, 0, time.UTC)
	var out bytes.Buffer
	renderRuns(&out, []domain.RunRecord{
		{ID: "a", StartedAt: finished.Add(-time.Minute), FinishedAt: &finished, Status: domain.RunSucceeded, Rows: 9},
		{ID: "b", StartedAt: finished, Status: domain.RunRunning},
	})

	assert.Contains(t, out.String(), "2026-10-18 06:05:00")
	assert.Contains(t, out.String(), "running")
}

func TestRunSchedule_RunOnStartAndStop(t *testing.T) {
	ctx, cancel := context.WithCancel(t.Context())

	var runs atomic.Int32
	job := func(context.Context) error {
		runs.Add(1)
		cancel()
		return errors.New("account failed")
	}

	err := runSchedule(ctx, "@yearly", true, infralogger.NewNop(), job)
	require.NoError(t, err)
	assert.Equal(t, int32(1), runs.Load())
}

func TestRunSchedule_InvalidExpression(t *testing.T) {
	err := runSchedule(t.Context(), "not a cron", false, infralogger.NewNop(), func(context.Context) error { return nil })
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not a cron")
}

func TestKVFields(t *testing.T) {
	fields := kvFields([]any{"entry", 1, "dangling"})
	assert.Len(t, fields, 1)
}
