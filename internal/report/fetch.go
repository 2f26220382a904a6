package report

import (
	"context"
	"fmt"

	"github.com/jonesrussell/sitelink-report/internal/ads"
	"github.com/jonesrussell/sitelink-report/internal/domain"
)

// MetricsRows is a forward-only cursor of decoded metrics rows. It holds one row at a
// time and cannot be rewound; fetch again to re-read.
type MetricsRows struct {
	rows ads.Rows
	cur  domain.MetricsRow
}

// FetchMetrics executes query against the account and returns a cursor over its rows.
// The caller must Close it.
func FetchMetrics(ctx context.Context, q Querier, customerID, query string) (*MetricsRows, error) {
	rows, err := q.Search(ctx, customerID, query)
	if err != nil {
		return nil, fmt.Errorf("query metrics: %w", err)
	}
	return &MetricsRows{rows: rows}, nil
}

// Next advances to the next row.
func (m *MetricsRows) Next() bool {
	if !m.rows.Next() {
		return false
	}
	m.cur = decodeMetricsRow(m.rows.Row())
	return true
}

// Row returns the current row.
func (m *MetricsRows) Row() domain.MetricsRow { return m.cur }

// Err returns the error, if any, that ended iteration.
func (m *MetricsRows) Err() error {
	if err := m.rows.Err(); err != nil {
		return fmt.Errorf("read metrics: %w", err)
	}
	return nil
}

// Close releases the underlying stream.
func (m *MetricsRows) Close() error { return m.rows.Close() }

func decodeMetricsRow(row ads.Row) domain.MetricsRow {
	return domain.MetricsRow{
		AccountID:                       row.String(fieldCustomerID),
		AccountName:                     row.String(fieldCustomerName),
		AssetID:                         row.String(fieldAssetID),
		CampaignResourceName:            row.String(fieldCampaignAssetParent),
		Clicks:                          row.Int(fieldClicks),
		Impressions:                     row.Int(fieldImpressions),
		CostMicros:                      row.Int(fieldCostMicros),
		TopImpressionPercentage:         row.Float(fieldTopImpression),
		AbsoluteTopImpressionPercentage: row.Float(fieldAbsTopImpression),
		Interaction:                     row.Value(fieldInteraction),
	}
}
