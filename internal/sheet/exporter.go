// Package sheet appends report batches to a destination table.
package sheet

import (
	"context"
	"errors"
	"fmt"

	infralogger "github.com/jonesrussell/sitelink-report/infrastructure/logger"
)

// ErrRaggedBatch is returned when the records of a batch differ in width.
var ErrRaggedBatch = errors.New("batch rows differ in column count")

// Table is a persistent destination with 1-based rows.
type Table interface {
	// RowCount returns the index of the last non-empty row, 0 when empty.
	RowCount(ctx context.Context) (int, error)
	// Clear removes every row.
	Clear(ctx context.Context) error
	// WriteRows writes rows starting at startRow in a single operation.
	WriteRows(ctx context.Context, startRow int, rows [][]any) error
	// Locator identifies the table for humans, e.g. in notifications.
	Locator() string
}

// Record is a fixed-schema row.
type Record interface {
	Columns() []string
	Values() []any
}

// Records adapts a typed batch to []Record.
func Records[R Record](batch []R) []Record {
	out := make([]Record, len(batch))
	for i := range batch {
		out[i] = batch[i]
	}
	return out
}

// ExportResult describes one Export call.
type ExportResult struct {
	HeaderWritten bool
	StartRow      int
	Rows          int
}

// Exporter appends batches to a single table.
type Exporter struct {
	table  Table
	logger infralogger.Logger
}

// NewExporter creates an exporter for table.
func NewExporter(table Table, logger infralogger.Logger) *Exporter {
	return &Exporter{table: table, logger: logger}
}

// Table returns the destination table.
func (e *Exporter) Table() Table { return e.table }

// Reset clears the destination table.
func (e *Exporter) Reset(ctx context.Context) error {
	if err := e.table.Clear(ctx); err != nil {
		return fmt.Errorf("clear %s: %w", e.table.Locator(), err)
	}
	e.logger.Info("Cleared destination table", infralogger.String("table", e.table.Locator()))
	return nil
}

// Export appends records after the table's last row. When the table is empty the
// first record's column names are written as the header row first. The data rows
// are written in one call sized to the batch. An empty batch writes nothing.
func (e *Exporter) Export(ctx context.Context, records []Record) (ExportResult, error) {
	if len(records) == 0 {
		return ExportResult{}, nil
	}

	header := records[0].Columns()
	data := make([][]any, len(records))
	for i, rec := range records {
		values := rec.Values()
		if len(values) != len(header) {
			return ExportResult{}, fmt.Errorf("row %d has %d values, header has %d: %w",
				i, len(values), len(header), ErrRaggedBatch)
		}
		data[i] = values
	}

	lastRow, err := e.table.RowCount(ctx)
	if err != nil {
		return ExportResult{}, fmt.Errorf("count rows: %w", err)
	}

	var result ExportResult
	if lastRow == 0 {
		headerRow := make([]any, len(header))
		for i, col := range header {
			headerRow[i] = col
		}
		if writeErr := e.table.WriteRows(ctx, 1, [][]any{headerRow}); writeErr != nil {
			return ExportResult{}, fmt.Errorf("write header: %w", writeErr)
		}
		lastRow = 1
		result.HeaderWritten = true
	}

	result.StartRow = lastRow + 1
	if writeErr := e.table.WriteRows(ctx, result.StartRow, data); writeErr != nil {
		return result, fmt.Errorf("write %d rows at row %d: %w", len(data), result.StartRow, writeErr)
	}
	result.Rows = len(data)

	e.logger.Debug("Appended batch",
		infralogger.String("table", e.table.Locator()),
		infralogger.Int("start_row", result.StartRow),
		infralogger.Int("rows", result.Rows),
		infralogger.Bool("header_written", result.HeaderWritten),
	)

	return result, nil
}
