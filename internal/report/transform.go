package report

import (
	"strings"

	"github.com/jonesrussell/sitelink-report/internal/domain"
)

const (
	// urlSeparator joins an asset's final urls into one cell.
	urlSeparator  = ","
	microsPerUnit = 1_000_000
)

// Transform joins one metrics row against the asset and campaign indices.
// It is pure: the result depends only on its arguments. A row whose asset or campaign
// is missing from its index fails with a *domain.LookupMissError.
func Transform(row domain.MetricsRow, assets domain.AssetIndex, campaigns domain.CampaignIndex) (domain.OutputRecord, error) {
	asset, ok := assets[row.AssetID]
	if !ok {
		return domain.OutputRecord{}, &domain.LookupMissError{Kind: domain.LookupAsset, Key: row.AssetID}
	}

	campaign, ok := campaigns[row.CampaignResourceName]
	if !ok {
		return domain.OutputRecord{}, &domain.LookupMissError{Kind: domain.LookupCampaign, Key: row.CampaignResourceName}
	}

	return domain.OutputRecord{
		AccountID:          row.AccountID,
		AccountName:        row.AccountName,
		AssetID:            row.AssetID,
		Campaign:           campaign,
		LinkText:           asset.LinkText,
		FinalURL:           strings.Join(asset.URLs, urlSeparator),
		Interaction:        domain.Truthy(row.Interaction),
		Clicks:             row.Clicks,
		Impressions:        row.Impressions,
		Cost:               float64(row.CostMicros) / microsPerUnit,
		TopImpressionShare: row.TopImpressionPercentage,
		AbsTopImpression:   row.AbsoluteTopImpressionPercentage,
	}, nil
}

// TransformAll drains rows into an in-memory batch. The first failing row aborts the
// batch and nothing is returned.
func TransformAll(rows *MetricsRows, assets domain.AssetIndex, campaigns domain.CampaignIndex) ([]domain.OutputRecord, error) {
	var batch []domain.OutputRecord
	for rows.Next() {
		rec, err := Transform(rows.Row(), assets, campaigns)
		if err != nil {
			return nil, err
		}
		batch = append(batch, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return batch, nil
}
