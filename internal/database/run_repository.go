// Package database persists report run history in Postgres.
package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jonesrussell/sitelink-report/internal/domain"
)

// RunRepository handles database operations for report runs.
type RunRepository struct {
	db *sql.DB
}

// NewRunRepository creates a new repository with the given database connection.
func NewRunRepository(db *sql.DB) *RunRepository {
	return &RunRepository{db: db}
}

// StartRun inserts a run in the running state.
func (r *RunRepository) StartRun(ctx context.Context, runID, destination string, startedAt time.Time) error {
	query := `
		INSERT INTO report_runs (id, started_at, status, destination)
		VALUES ($1, $2, $3, $4)
	`

	_, err := r.db.ExecContext(ctx, query, runID, startedAt, string(domain.RunRunning), destination)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	return nil
}

// RecordAccount stores the outcome of one account iteration.
func (r *RunRepository) RecordAccount(ctx context.Context, runID string, result domain.AccountResult) error {
	query := `
		INSERT INTO report_run_accounts
			(run_id, account_id, account_name, status, rows_exported, header_written, notified, error, duration_ms)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	var errText sql.NullString
	if result.Err != nil {
		errText = sql.NullString{String: result.Err.Error(), Valid: true}
	}

	_, err := r.db.ExecContext(ctx, query,
		runID,
		result.Account.ID,
		result.Account.Name,
		string(result.Status),
		result.Rows,
		result.HeaderWritten,
		result.Notified,
		errText,
		result.Duration.Milliseconds(),
	)
	if err != nil {
		return fmt.Errorf("insert run account: %w", err)
	}
	return nil
}

// FinishRun stores the final status and counters of a run.
func (r *RunRepository) FinishRun(ctx context.Context, summary *domain.RunSummary) error {
	query := `
		UPDATE report_runs
		SET finished_at = $2, status = $3, succeeded = $4, failed = $5, total_rows = $6
		WHERE id = $1
	`

	res, err := r.db.ExecContext(ctx, query,
		summary.RunID,
		summary.FinishedAt,
		string(summary.Status()),
		summary.Succeeded(),
		len(summary.Failed()),
		summary.TotalRows(),
	)
	if err != nil {
		return fmt.Errorf("update run: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update run rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("update run %s: %w", summary.RunID, sql.ErrNoRows)
	}
	return nil
}

// ListRuns returns the most recent runs, newest first.
func (r *RunRepository) ListRuns(ctx context.Context, limit int) ([]domain.RunRecord, error) {
	query := `
		SELECT id, started_at, finished_at, status, destination, succeeded, failed, total_rows
		FROM report_runs
		ORDER BY started_at DESC
		LIMIT $1
	`

	rows, queryErr := r.db.QueryContext(ctx, query, limit)
	if queryErr != nil {
		return nil, fmt.Errorf("query runs: %w", queryErr)
	}
	defer rows.Close()

	var runs []domain.RunRecord
	for rows.Next() {
		var (
			rec      domain.RunRecord
			status   string
			finished sql.NullTime
		)
		if scanErr := rows.Scan(
			&rec.ID, &rec.StartedAt, &finished, &status, &rec.Destination,
			&rec.Succeeded, &rec.Failed, &rec.Rows,
		); scanErr != nil {
			return nil, fmt.Errorf("scan run row: %w", scanErr)
		}
		rec.Status = domain.RunStatus(status)
		if finished.Valid {
			t := finished.Time
			rec.FinishedAt = &t
		}
		runs = append(runs, rec)
	}

	if closeErr := rows.Err(); closeErr != nil {
		return nil, fmt.Errorf("run rows: %w", closeErr)
	}

	return runs, nil
}
