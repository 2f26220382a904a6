// Package report loads the reference indices, streams the sitelink metrics and
// joins each metrics row into a denormalized output record.
package report

import (
	"context"
	"fmt"

	"github.com/jonesrussell/sitelink-report/internal/ads"
	"github.com/jonesrussell/sitelink-report/internal/domain"
)

// Querier executes a GAQL query against one customer account.
type Querier interface {
	Search(ctx context.Context, customerID, query string) (ads.Rows, error)
}

// LoadAssetIndex reads every asset of the account and indexes those carrying
// sitelink link text. The whole result set is consumed before returning; on any
// error no index is returned.
func LoadAssetIndex(ctx context.Context, q Querier, customerID string) (domain.AssetIndex, error) {
	rows, err := q.Search(ctx, customerID, AssetQuery)
	if err != nil {
		return nil, fmt.Errorf("query assets: %w", err)
	}
	defer rows.Close()

	index := make(domain.AssetIndex)
	for rows.Next() {
		row := rows.Row()
		if !domain.Truthy(row.Value(fieldAssetLinkText)) {
			continue
		}

		id := row.String(fieldAssetID)
		index[id] = domain.AssetRecord{
			ID:       id,
			LinkText: row.String(fieldAssetLinkText),
			URLs:     row.Strings(fieldAssetURLs),
		}
	}
	if iterErr := rows.Err(); iterErr != nil {
		return nil, fmt.Errorf("read assets: %w", iterErr)
	}

	return index, nil
}

// LoadCampaignIndex reads every campaign of the account, keyed by resource name.
func LoadCampaignIndex(ctx context.Context, q Querier, customerID string) (domain.CampaignIndex, error) {
	rows, err := q.Search(ctx, customerID, CampaignQuery)
	if err != nil {
		return nil, fmt.Errorf("query campaigns: %w", err)
	}
	defer rows.Close()

	index := make(domain.CampaignIndex)
	for rows.Next() {
		row := rows.Row()
		index[row.String(fieldCampaignResourceName)] = row.String(fieldCampaignName)
	}
	if iterErr := rows.Err(); iterErr != nil {
		return nil, fmt.Errorf("read campaigns: %w", iterErr)
	}

	return index, nil
}
