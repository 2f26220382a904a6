// Package domain contains the core models of the sitelink report.
package domain

import (
	"errors"
	"fmt"
	"math"
	"reflect"
)

// Account is a managed ads account handle produced by account enumeration.
type Account struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// AssetRecord is a sitelink asset as held in the asset index.
type AssetRecord struct {
	ID       string
	LinkText string
	URLs     []string
}

// AssetIndex maps asset id to its record.
type AssetIndex map[string]AssetRecord

// CampaignIndex maps campaign resource name to campaign name.
type CampaignIndex map[string]string

// MetricsRow is one row of the date-bounded sitelink metrics query.
type MetricsRow struct {
	AccountID            string
	AccountName          string
	AssetID              string
	CampaignResourceName string

	Clicks      int64
	Impressions int64
	CostMicros  int64

	TopImpressionPercentage         float64
	AbsoluteTopImpressionPercentage float64

	// Interaction is the raw segment value; its truthiness is what matters.
	Interaction any
}

// Lookup kinds reported by LookupMissError.
const (
	LookupAsset    = "asset"
	LookupCampaign = "campaign"
)

// ErrLookupMiss is matched by every LookupMissError.
var ErrLookupMiss = errors.New("lookup miss")

// LookupMissError reports a metrics row referencing a key absent from its index.
type LookupMissError struct {
	Kind string
	Key  string
}

func (e *LookupMissError) Error() string {
	return fmt.Sprintf("%s %q not found in %s index", e.Kind, e.Key, e.Kind)
}

// Is makes errors.Is(err, ErrLookupMiss) hold for any lookup miss.
func (e *LookupMissError) Is(target error) bool {
	return target == ErrLookupMiss
}

// Truthy reports whether v would be considered true by a loose boolean cast:
// nil, false, numeric zero, NaN and the empty string are false; everything else,
// including the string "false", is true.
func Truthy(v any) bool {
	switch x := v.(type) {
	case nil:
		return false
	case bool:
		return x
	case string:
		return x != ""
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int() != 0
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return rv.Uint() != 0
	case reflect.Float32, reflect.Float64:
		f := rv.Float()
		return f != 0 && !math.IsNaN(f)
	case reflect.Pointer, reflect.Interface:
		return !rv.IsNil()
	default:
		return true
	}
}
