package watch

import (
	"fmt"
	"sort"
)

// Row is one displayed health value.
type Row struct {
	Key   string
	Label string
	Value string
}

// Rows formats the selected keys of a health document. Keys missing
// from the document are shown as "n/a"; with no keys, every leaf of
// the document is shown in sorted order.
func Rows(doc map[string]any, keys []string) []Row {
	if len(keys) == 0 {
		for k, v := range doc {
			if _, ok := v.(map[string]any); ok {
				keys = append(keys, k)
			}
		}
		sort.Strings(keys)
	}

	rows := make([]Row, 0, len(keys))
	for _, k := range keys {
		row := Row{Key: k, Label: k, Value: "n/a"}
		if rec, ok := doc[k].(map[string]any); ok {
			if title, ok := rec["title"].(string); ok && title != "" {
				row.Label = title
			}
			if v, ok := rec["value"]; ok {
				row.Value = formatValue(v, rec["unit"])
			}
		}
		rows = append(rows, row)
	}
	return rows
}

func formatValue(v, unit any) string {
	s := fmt.Sprint(v)
	if f, ok := v.(float64); ok {
		s = fmt.Sprintf("%.6g", f)
	}
	if u, ok := unit.(string); ok && u != "" {
		s += " " + u
	}
	return s
}
