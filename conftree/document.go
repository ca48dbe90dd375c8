package conftree

import (
	"encoding/json"
	"fmt"
	"io"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
)

// Document projects a walked tree into nested mappings. A group maps
// child names to their documents; a leaf maps to its value record:
//
//	title, value, type, disabledOptions
//	unit, minValue, maxValue, stepValue   (NUMBER only)
//	options                               (ENUM only)
func Document(n Node) map[string]any {
	if g, ok := n.(*Group); ok {
		doc := make(map[string]any, len(g.Children))
		for _, c := range g.Children {
			doc[c.Meta().Name] = Document(c)
		}
		return doc
	}

	m := n.Meta()
	doc := map[string]any{
		"title":           m.Title,
		"value":           Value(n),
		"type":            m.Kind.String(),
		"disabledOptions": m.DisabledOptions,
	}
	switch m.Kind {
	case KindNumber:
		doc["unit"] = m.Unit
		doc["minValue"] = m.Min
		doc["maxValue"] = m.Max
		doc["stepValue"] = m.Step
	case KindEnum:
		doc["options"] = m.Options
	}
	return doc
}

// Flatten turns a document into assignments, depth first with keys in
// sorted order. A mapping whose "value" entry is not itself a mapping
// is a leaf; other mappings are groups, so a child node named "value"
// is recursed into. Scalars at group level are ignored.
func Flatten(doc map[string]any) []Assignment {
	var out []Assignment
	flatten(doc, "", &out)
	return out
}

func flatten(doc map[string]any, prefix string, out *[]Assignment) {
	keys := make([]string, 0, len(doc))
	for k := range doc {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		m, ok := doc[k].(map[string]any)
		if !ok {
			continue
		}
		p := path.Join(prefix, k)
		if v, ok := m["value"]; ok && !isMapping(v) {
			*out = append(*out, Assignment{Path: p, Value: v})
			continue
		}
		flatten(m, p, out)
	}
}

func isMapping(v any) bool {
	_, ok := v.(map[string]any)
	return ok
}

// Format is a document file format.
type Format string

const (
	FormatJSON Format = "json"
	FormatTOML Format = "toml"
)

// ParseFormat converts a case-insensitive name to a Format.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(s)); f {
	case FormatJSON, FormatTOML:
		return f, nil
	}
	return "", fmt.Errorf("unknown document format %q", s)
}

// FormatOf guesses the format from a file name, defaulting to JSON.
func FormatOf(name string) Format {
	if strings.EqualFold(filepath.Ext(name), ".toml") {
		return FormatTOML
	}
	return FormatJSON
}

// DecodeDocument reads a document. JSON numbers are kept as json.Number.
func DecodeDocument(r io.Reader, format Format) (map[string]any, error) {
	doc := make(map[string]any)
	switch format {
	case FormatJSON:
		dec := json.NewDecoder(r)
		dec.UseNumber()
		if err := dec.Decode(&doc); err != nil {
			return nil, fmt.Errorf("failed to decode JSON document: %w", err)
		}
	case FormatTOML:
		if _, err := toml.NewDecoder(r).Decode(&doc); err != nil {
			return nil, fmt.Errorf("failed to decode TOML document: %w", err)
		}
	default:
		return nil, fmt.Errorf("unknown document format %q", format)
	}
	return doc, nil
}

// EncodeDocument writes a document.
func EncodeDocument(w io.Writer, doc map[string]any, format Format) error {
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(doc); err != nil {
			return fmt.Errorf("failed to encode JSON document: %w", err)
		}
	case FormatTOML:
		if err := toml.NewEncoder(w).Encode(doc); err != nil {
			return fmt.Errorf("failed to encode TOML document: %w", err)
		}
	default:
		return fmt.Errorf("unknown document format %q", format)
	}
	return nil
}
