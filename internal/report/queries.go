package report

import (
	"fmt"
	"time"
)

// GAQL field names read by the loaders and the metrics decoder.
const (
	fieldAssetID       = "asset.id"
	fieldAssetLinkText = "asset.sitelink_asset.link_text"
	fieldAssetURLs     = "asset.final_urls"

	fieldCampaignName         = "campaign.name"
	fieldCampaignResourceName = "campaign.resource_name"

	fieldCustomerID          = "customer.id"
	fieldCustomerName        = "customer.descriptive_name"
	fieldCampaignAssetParent = "campaign_asset.campaign"
	fieldClicks              = "metrics.clicks"
	fieldImpressions         = "metrics.impressions"
	fieldCostMicros          = "metrics.cost_micros"
	fieldTopImpression       = "metrics.top_impression_percentage"
	fieldAbsTopImpression    = "metrics.absolute_top_impression_percentage"
	fieldInteraction         = "segments.asset_interaction_target.interaction_on_this_asset"
)

// AssetQuery reads every asset's sitelink text, final urls and id.
const AssetQuery = `
SELECT
  asset.sitelink_asset.link_text,
  asset.final_urls,
  asset.id
FROM asset`

// CampaignQuery reads every campaign's name and resource name.
const CampaignQuery = `
SELECT
  campaign.name,
  campaign.id,
  customer.id,
  campaign.resource_name
FROM campaign`

const metricsQueryTemplate = `
SELECT
  customer.descriptive_name,
  customer.id,
  asset.type,
  asset.id,
  campaign_asset.campaign,
  campaign_asset.asset,
  campaign_asset.field_type,
  campaign_asset.resource_name,
  metrics.clicks,
  metrics.impressions,
  metrics.top_impression_percentage,
  metrics.cost_micros,
  metrics.absolute_top_impression_percentage,
  segments.asset_interaction_target.interaction_on_this_asset
FROM campaign_asset
WHERE
  segments.date >= '%s'
  AND segments.date <= '%s'
  AND asset.type IN ('SITELINK')`

// MetricsQuery renders the sitelink metrics query for the inclusive date range [start, end].
func MetricsQuery(start, end time.Time) string {
	return fmt.Sprintf(metricsQueryTemplate, start.Format(time.DateOnly), end.Format(time.DateOnly))
}
