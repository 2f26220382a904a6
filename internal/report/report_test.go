package report_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonesrussell/sitelink-report/internal/ads"
	"github.com/jonesrussell/sitelink-report/internal/report"
)

// fakeQuerier serves canned rows per query, matched on the FROM clause.
type fakeQuerier struct {
	results map[string]*ads.StaticRows
	errs    map[string]error
	calls   []string
}

func (f *fakeQuerier) Search(_ context.Context, customerID, query string) (ads.Rows, error) {
	from := fromClause(query)
	f.calls = append(f.calls, customerID+":"+from)

	if err := f.errs[from]; err != nil {
		return nil, err
	}
	if rows, ok := f.results[from]; ok {
		return rows, nil
	}
	return ads.NewStaticRows(), nil
}

func fromClause(query string) string {
	fields := strings.Fields(query)
	for i, f := range fields {
		if f == "FROM" && i+1 < len(fields) {
			return fields[i+1]
		}
	}
	return ""
}

func TestLoadAssetIndex_KeepsOnlySitelinks(t *testing.T) {
	t.Parallel()

	assets := ads.NewStaticRows(
		`{"asset":{"id":"7","finalUrls":["https://a","https://b"],"sitelinkAsset":{"linkText":"Shop"}}}`,
		`{"asset":{"id":"8","finalUrls":["https://image"]}}`,
		`{"asset":{"id":"9","finalUrls":["https://c"],"sitelinkAsset":{"linkText":""}}}`,
		`{"asset":{"id":"7","finalUrls":["https://z"],"sitelinkAsset":{"linkText":"Shop Now"}}}`,
	)
	q := &fakeQuerier{results: map[string]*ads.StaticRows{"asset": assets}}

	index, err := report.LoadAssetIndex(t.Context(), q, "123")
	require.NoError(t, err)

	require.Len(t, index, 1)
	assert.Equal(t, "Shop Now", index["7"].LinkText, "last write wins")
	assert.Equal(t, []string{"https://z"}, index["7"].URLs)
	assert.True(t, assets.Closed())
	assert.Equal(t, []string{"123:asset"}, q.calls)
}

func TestLoadAssetIndex_ReadFailureReturnsNoIndex(t *testing.T) {
	t.Parallel()

	rows := ads.NewStaticRows(`{"asset":{"id":"7","sitelinkAsset":{"linkText":"Shop"}}}`)
	rows.Fail = errors.New("stream reset")
	q := &fakeQuerier{results: map[string]*ads.StaticRows{"asset": rows}}

	index, err := report.LoadAssetIndex(t.Context(), q, "123")

	require.Error(t, err)
	assert.Nil(t, index)
	assert.True(t, rows.Closed())
}

func TestLoadAssetIndex_QueryFailure(t *testing.T) {
	t.Parallel()

	sourceErr := errors.New("permission denied")
	q := &fakeQuerier{errs: map[string]error{"asset": sourceErr}}

	_, err := report.LoadAssetIndex(t.Context(), q, "123")
	assert.ErrorIs(t, err, sourceErr)
}

func TestLoadCampaignIndex(t *testing.T) {
	t.Parallel()

	q := &fakeQuerier{results: map[string]*ads.StaticRows{
		"campaign": ads.NewStaticRows(
			`{"campaign":{"resourceName":"customers/1/campaigns/10","name":"Brand","id":"10"}}`,
			`{"campaign":{"resourceName":"customers/1/campaigns/20","name":"Generic","id":"20"}}`,
		),
	}}

	index, err := report.LoadCampaignIndex(t.Context(), q, "1")
	require.NoError(t, err)

	assert.Len(t, index, 2)
	assert.Equal(t, "Brand", index["customers/1/campaigns/10"])
	assert.Equal(t, "Generic", index["customers/1/campaigns/20"])
}

func TestLoadCampaignIndex_ReadFailure(t *testing.T) {
	t.Parallel()

	rows := ads.NewStaticRows()
	rows.Fail = errors.New("timeout")
	q := &fakeQuerier{results: map[string]*ads.StaticRows{"campaign": rows}}

	index, err := report.LoadCampaignIndex(t.Context(), q, "1")
	require.Error(t, err)
	assert.Nil(t, index)
}

func TestFetchMetrics_DecodesRows(t *testing.T) {
	t.Parallel()

	q := &fakeQuerier{results: map[string]*ads.StaticRows{
		"campaign_asset": ads.NewStaticRows(`{
			"customer":{"id":"1234567890","descriptiveName":"Acme"},
			"asset":{"id":"7","type":"SITELINK"},
			"campaignAsset":{"campaign":"customers/1234567890/campaigns/10"},
			"metrics":{"clicks":"3","impressions":"40","costMicros":"2500000",
				"topImpressionPercentage":0.5,"absoluteTopImpressionPercentage":0.25},
			"segments":{"assetInteractionTarget":{"interactionOnThisAsset":true}}
		}`),
	}}

	rows, err := report.FetchMetrics(t.Context(), q, "1234567890",
		report.MetricsQuery(time.Date(2022, 5, 1, 0, 0, 0, 0, time.UTC), time.Date(2022, 12, 31, 0, 0, 0, 0, time.UTC)))
	require.NoError(t, err)
	defer rows.Close()

	require.True(t, rows.Next())
	row := rows.Row()
	assert.Equal(t, "1234567890", row.AccountID)
	assert.Equal(t, "Acme", row.AccountName)
	assert.Equal(t, "7", row.AssetID)
	assert.Equal(t, "customers/1234567890/campaigns/10", row.CampaignResourceName)
	assert.Equal(t, int64(3), row.Clicks)
	assert.Equal(t, int64(40), row.Impressions)
	assert.Equal(t, int64(2500000), row.CostMicros)
	assert.InDelta(t, 0.5, row.TopImpressionPercentage, 1e-9)
	assert.InDelta(t, 0.25, row.AbsoluteTopImpressionPercentage, 1e-9)
	assert.Equal(t, true, row.Interaction)

	assert.False(t, rows.Next())
	assert.NoError(t, rows.Err())
}

func TestFetchMetrics_ReexecutesQueryEachCall(t *testing.T) {
	t.Parallel()

	q := &fakeQuerier{}
	for range 2 {
		rows, err := report.FetchMetrics(t.Context(), q, "1", report.MetricsQuery(time.Now(), time.Now()))
		require.NoError(t, err)
		require.NoError(t, rows.Close())
	}

	assert.Equal(t, []string{"1:campaign_asset", "1:campaign_asset"}, q.calls)
}

func TestMetricsQuery_RendersInclusiveRange(t *testing.T) {
	t.Parallel()

	query := report.MetricsQuery(
		time.Date(2022, 5, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2022, 12, 31, 0, 0, 0, 0, time.UTC),
	)

	assert.Contains(t, query, "segments.date >= '2022-05-01'")
	assert.Contains(t, query, "segments.date <= '2022-12-31'")
	assert.Contains(t, query, "asset.type IN ('SITELINK')")
	assert.Contains(t, query, "FROM campaign_asset")
}
