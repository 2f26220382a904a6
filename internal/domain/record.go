package domain

// Output column headers, in table order.
const (
	ColumnAccountID           = "Account ID"
	ColumnAccountName         = "Account Name"
	ColumnAssetID             = "Asset ID"
	ColumnCampaign            = "Campaign"
	ColumnLinkText            = "Link Text"
	ColumnFinalURL            = "Final URL"
	ColumnInteraction         = "Interaction on this Asset"
	ColumnClicks              = "Clicks"
	ColumnImpressions         = "Impressions"
	ColumnCost                = "Cost"
	ColumnTopImpressionShare  = "Top Impression Share"
	ColumnAbsTopImpressionPct = "Abs. Top Impression Share"
)

// outputColumnCount is the width of every OutputRecord row.
const outputColumnCount = 12

var outputColumns = [outputColumnCount]string{
	ColumnAccountID,
	ColumnAccountName,
	ColumnAssetID,
	ColumnCampaign,
	ColumnLinkText,
	ColumnFinalURL,
	ColumnInteraction,
	ColumnClicks,
	ColumnImpressions,
	ColumnCost,
	ColumnTopImpressionShare,
	ColumnAbsTopImpressionPct,
}

// OutputRecord is one denormalized row of the report table.
type OutputRecord struct {
	AccountID          string
	AccountName        string
	AssetID            string
	Campaign           string
	LinkText           string
	FinalURL           string
	Interaction        bool
	Clicks             int64
	Impressions        int64
	Cost               float64
	TopImpressionShare float64
	AbsTopImpression   float64
}

// Columns returns the header names in table order.
func (OutputRecord) Columns() []string {
	cols := make([]string, outputColumnCount)
	copy(cols, outputColumns[:])
	return cols
}

// Values returns the record's cells in the same order as Columns.
func (r OutputRecord) Values() []any {
	return []any{
		r.AccountID,
		r.AccountName,
		r.AssetID,
		r.Campaign,
		r.LinkText,
		r.FinalURL,
		r.Interaction,
		r.Clicks,
		r.Impressions,
		r.Cost,
		r.TopImpressionShare,
		r.AbsTopImpression,
	}
}
