package ads

import (
	"strings"

	"github.com/tidwall/gjson"
)

// Row is one result row of a search stream, addressed by GAQL field names.
type Row struct {
	res gjson.Result
}

// NewRow wraps a raw JSON result object.
func NewRow(raw string) Row {
	return Row{res: gjson.Parse(raw)}
}

// Get returns the raw value of a GAQL field such as "asset.sitelink_asset.link_text".
func (r Row) Get(field string) gjson.Result {
	return r.res.Get(FieldPath(field))
}

// Exists reports whether the field is present in the row.
func (r Row) Exists(field string) bool {
	return r.Get(field).Exists()
}

// String returns the field as a string; absent fields yield "".
func (r Row) String(field string) string {
	return r.Get(field).String()
}

// Int returns the field as an int64. The REST API encodes int64 values as JSON strings;
// both encodings are accepted.
func (r Row) Int(field string) int64 {
	return r.Get(field).Int()
}

// Float returns the field as a float64.
func (r Row) Float(field string) float64 {
	return r.Get(field).Float()
}

// Strings returns a repeated field in source order.
func (r Row) Strings(field string) []string {
	arr := r.Get(field).Array()
	out := make([]string, 0, len(arr))
	for _, v := range arr {
		out = append(out, v.String())
	}
	return out
}

// Value returns the field as a plain Go value: nil when absent, otherwise bool,
// float64, string, []any or map[string]any.
func (r Row) Value(field string) any {
	return r.Get(field).Value()
}

// Raw returns the row's JSON text.
func (r Row) Raw() string {
	return r.res.Raw
}

// FieldPath converts a dotted GAQL field name into the camelCase path used by the
// JSON encoding of search results.
func FieldPath(field string) string {
	segments := strings.Split(field, ".")
	for i, seg := range segments {
		segments[i] = lowerCamel(seg)
	}
	return strings.Join(segments, ".")
}

func lowerCamel(snake string) string {
	if !strings.Contains(snake, "_") {
		return snake
	}

	var b strings.Builder
	b.Grow(len(snake))
	upper := false
	for _, c := range snake {
		switch {
		case c == '_':
			upper = true
		case upper && c >= 'a' && c <= 'z':
			b.WriteRune(c - 'a' + 'A')
			upper = false
		default:
			b.WriteRune(c)
			upper = false
		}
	}
	return b.String()
}
